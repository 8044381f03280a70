package serialize

import (
	"io"
	"strconv"
	"strings"

	"github.com/goevtx/evtx/internal/pool"
)

// XML renders a node tree as XML text, writing directly to an io.Writer
// through a pooled scratch buffer (spec §4.8).
type XML struct {
	w        io.Writer
	buf      *pool.ByteBuffer
	Warnings []string
	err      error
}

// NewXML creates an XML sink writing to w.
func NewXML(w io.Writer) *XML {
	return &XML{w: w, buf: pool.GetRecordBuffer()}
}

// Close returns x's scratch buffer to the pool. Callers should defer this
// after a Walk completes.
func (x *XML) Close() {
	pool.PutRecordBuffer(x.buf)
	x.buf = nil
}

// Err returns the first write error encountered, if any.
func (x *XML) Err() error {
	return x.err
}

func (x *XML) write(s string) {
	if x.err != nil {
		return
	}
	if _, err := io.WriteString(x.w, s); err != nil {
		x.err = err
	}
}

func (x *XML) OpenElement(name string) {
	x.write("<")
	x.write(name)
	x.write(">")
}

func (x *XML) CloseElement(name string) {
	x.write("</")
	x.write(name)
	x.write(">")
}

func (x *XML) Attribute(name, value string) {
	x.write(" ")
	x.write(name)
	x.write(`="`)
	x.write(x.escape(value, true))
	x.write(`"`)
}

func (x *XML) Text(s string) {
	x.write(x.escape(s, false))
}

func (x *XML) CDATA(s string) {
	// "]]>" cannot appear inside a CDATA section; split it across adjacent
	// sections the way every XML writer that supports CDATA does.
	parts := strings.Split(s, "]]>")
	for i, p := range parts {
		if i > 0 {
			x.write("]]>")
		}
		x.write("<![CDATA[")
		x.write(p)
		x.write("]]>")
	}
}

func (x *XML) CharRef(r rune) {
	x.write("&#x")
	x.write(strings.ToUpper(strconv.FormatInt(int64(r), 16)))
	x.write(";")
}

func (x *XML) EntityRef(name string) {
	x.write("&")
	x.write(name)
	x.write(";")
}

func (x *XML) PI(target, data string) {
	x.write("<?")
	x.write(target)
	if data != "" {
		x.write(" ")
		x.write(data)
	}
	x.write("?>")
}

// escape renders s as XML-safe text or attribute content: &, < and > are
// always escaped, " only inside attribute values, and ' is written as-is;
// C0 control characters outside tab/newline/carriage-return are replaced
// with U+FFFD (spec's XML-control-character
// Open Question, resolved in favour of replace-with-warning).
func (x *XML) escape(s string, attr bool) string {
	x.buf.Reset()

	for _, r := range s {
		switch r {
		case '&':
			x.buf.MustWrite([]byte("&amp;"))
		case '<':
			x.buf.MustWrite([]byte("&lt;"))
		case '>':
			x.buf.MustWrite([]byte("&gt;"))
		case '"':
			if attr {
				x.buf.MustWrite([]byte("&quot;"))
			} else {
				x.buf.WriteByte('"')
			}
		case '\t', '\n', '\r':
			x.buf.MustWrite([]byte(string(r)))
		default:
			if r < 0x20 {
				x.buf.MustWrite([]byte("�"))
				x.Warnings = append(x.Warnings, "control character replaced with U+FFFD in rendered text")
				continue
			}
			x.buf.MustWrite([]byte(string(r)))
		}
	}

	return string(x.buf.Bytes())
}
