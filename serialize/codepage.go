// Package serialize renders a decoded model.Node tree to XML or JSON text.
// XML streams directly to an io.Writer through a pooled scratch buffer; JSON
// keeps one record's tree of values in memory and writes it once the walk
// has ended.
package serialize

import "golang.org/x/text/encoding/charmap"

// CodePage decodes AnsiString bytes using a Windows code page, falling back
// to Windows-1252 for any numeric code page not present in
// golang.org/x/text/encoding/charmap's fixed table.
type CodePage struct {
	cm       *charmap.Charmap
	number   int
	Fallback bool
}

var knownCodePages = map[int]*charmap.Charmap{
	1252:  charmap.Windows1252,
	1250:  charmap.Windows1250,
	1251:  charmap.Windows1251,
	1253:  charmap.Windows1253,
	1254:  charmap.Windows1254,
	1255:  charmap.Windows1255,
	1256:  charmap.Windows1256,
	1257:  charmap.Windows1257,
	1258:  charmap.Windows1258,
	437:   charmap.CodePage437,
	850:   charmap.CodePage850,
	852:   charmap.CodePage852,
	858:   charmap.CodePage858,
	28591: charmap.ISO8859_1,
	0:     charmap.ISO8859_1,
}

// NewCodePage resolves number to a charmap.Charmap, falling back to
// Windows-1252 (and setting Fallback) when number isn't one of
// golang.org/x/text's fixed tables.
func NewCodePage(number int) *CodePage {
	if cm, ok := knownCodePages[number]; ok {
		return &CodePage{cm: cm, number: number}
	}

	return &CodePage{cm: charmap.Windows1252, number: number, Fallback: true}
}

// Decode renders raw ANSI bytes as text through this code page.
func (c *CodePage) Decode(b []byte) string {
	out, err := c.cm.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}

	return string(out)
}
