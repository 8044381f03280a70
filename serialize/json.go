package serialize

import (
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/goevtx/evtx/value"
)

// JSON renders a node tree as JSON text (spec §4.8). Unlike XML it does not
// stream: each closed element's value is kept in its parent's frame, so the
// whole record's tree is held in memory until Write renders it. Repeated
// same-name children are folded into an array as each one is added to its
// parent.
type JSON struct {
	w     io.Writer
	stack []*jsonFrame
	root  *jsonValue
	err   error
}

type jsonFrame struct {
	name   string
	attrs  *orderedMap
	kids   *orderedMap
	text   strings.Builder
	scalar *jsonValue // native #text form, valid only while text holds nothing but that value's rendered form
}

// jsonValue is a scalar string, a native JSON number/bool/null, an
// *orderedMap (element), or a slice of jsonValue (grouped repeated
// children). The native number/bool/null forms exist so a substitution's
// original typed value (spec §4.8) can be emitted unquoted instead of as
// its rendered text form.
type jsonValue struct {
	str     string
	isStr   bool
	num     string // pre-formatted JSON number literal
	isNum   bool
	boolVal bool
	isBool  bool
	isNull  bool
	obj     *orderedMap
	isObj   bool
	arr     []*jsonValue
	isArr   bool
}

// nativeJSONValue reports the JSON-native scalar form of v, if it has one.
// Only the types with an unambiguous JSON-native shape qualify: integers,
// floats, and booleans become numbers/booleans, and null stays null.
// Everything else (GUID, SID, FileTime, SysTime, hex-presented ints,
// strings) keeps its canonical *text* form (spec §4.5), since that text
// form, not a further-decomposed structure, is what those types render as.
func nativeJSONValue(v value.Value) (*jsonValue, bool) {
	if v.IsNull() {
		return &jsonValue{isNull: true}, true
	}

	switch v.Type {
	case value.TypeInt8, value.TypeInt16, value.TypeInt32, value.TypeInt64:
		return &jsonValue{isNum: true, num: strconv.FormatInt(v.I64, 10)}, true
	case value.TypeUInt8, value.TypeUInt16, value.TypeUInt32, value.TypeUInt64:
		return &jsonValue{isNum: true, num: strconv.FormatUint(v.U64, 10)}, true
	case value.TypeReal32, value.TypeReal64:
		if math.IsNaN(v.F64) || math.IsInf(v.F64, 0) {
			// Neither JSON number form can represent these; fall back to
			// the value's own canonical text (spec §4.5's "fallback to
			// scientific for very small/large magnitudes" doesn't cover
			// non-finite values at all).
			return nil, false
		}
		return &jsonValue{isNum: true, num: strconv.FormatFloat(v.F64, 'g', -1, 64)}, true
	case value.TypeBool:
		return &jsonValue{isBool: true, boolVal: v.Bool}, true
	}

	return nil, false
}

type orderedMap struct {
	keys   []string
	values map[string]*jsonValue
}

func newOrderedMap() *orderedMap {
	return &orderedMap{values: make(map[string]*jsonValue)}
}

func (m *orderedMap) set(key string, v *jsonValue) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// add appends v under key, promoting an existing single value (or array) to
// grow an array — this is where repeated child elements become a JSON array.
func (m *orderedMap) add(key string, v *jsonValue) {
	existing, ok := m.values[key]
	if !ok {
		m.set(key, v)
		return
	}
	if existing.isArr {
		existing.arr = append(existing.arr, v)
		return
	}
	m.set(key, &jsonValue{isArr: true, arr: []*jsonValue{existing, v}})
}

// NewJSON creates a JSON sink writing to w.
func NewJSON(w io.Writer) *JSON {
	return &JSON{w: w}
}

// Err returns the first write error encountered, if any.
func (j *JSON) Err() error {
	return j.err
}

func (j *JSON) top() *jsonFrame {
	if len(j.stack) == 0 {
		return nil
	}
	return j.stack[len(j.stack)-1]
}

func (j *JSON) OpenElement(name string) {
	j.stack = append(j.stack, &jsonFrame{name: name, attrs: newOrderedMap(), kids: newOrderedMap()})
}

func (j *JSON) Attribute(name, value string) {
	f := j.top()
	if f == nil {
		return
	}
	f.attrs.set(name, &jsonValue{isStr: true, str: value})
}

func (j *JSON) Text(s string) {
	f := j.top()
	if f == nil {
		return
	}
	f.text.WriteString(s)
	f.scalar = nil
}

// TextValue is the typedTextSink hook Walk calls instead of Text when the
// node's text came directly from a single substitution (model.Node.Scalar,
// spec §4.8). The element's first and only content fragment keeps its
// native JSON form; any further content (mixed text, another substitution)
// falls back to the rendered string, same as Text would have done.
func (j *JSON) TextValue(v value.Value, rendered string) {
	f := j.top()
	if f == nil {
		return
	}

	if f.text.Len() == 0 && f.scalar == nil {
		if nv, ok := nativeJSONValue(v); ok {
			f.scalar = nv
			f.text.WriteString(rendered)
			return
		}
	}

	f.text.WriteString(rendered)
	f.scalar = nil
}

func (j *JSON) CDATA(s string) {
	j.Text(s)
}

func (j *JSON) CharRef(r rune) {
	j.Text(string(r))
}

func (j *JSON) EntityRef(name string) {
	f := j.top()
	if f == nil {
		return
	}
	f.text.WriteString("&")
	f.text.WriteString(name)
	f.text.WriteString(";")
	f.scalar = nil
}

func (j *JSON) PI(target, data string) {
	// Processing instructions have no JSON analogue; ignored, matching the
	// element-tree-only shape of the JSON rendering.
}

func (j *JSON) CloseElement(name string) {
	n := len(j.stack)
	if n == 0 {
		return
	}
	f := j.stack[n-1]
	j.stack = j.stack[:n-1]

	obj := newOrderedMap()
	if len(f.attrs.keys) > 0 {
		attrObj := newOrderedMap()
		for _, k := range f.attrs.keys {
			attrObj.set(k, f.attrs.values[k])
		}
		obj.set("#attributes", &jsonValue{isObj: true, obj: attrObj})
	}

	switch {
	case f.scalar != nil:
		obj.set("#text", f.scalar)
	default:
		if text := strings.TrimSpace(f.text.String()); text != "" {
			obj.set("#text", &jsonValue{isStr: true, str: text})
		}
	}

	for _, k := range f.kids.keys {
		obj.set(k, f.kids.values[k])
	}

	val := &jsonValue{isObj: true, obj: obj}

	parent := j.top()
	if parent == nil {
		j.root = val
		return
	}
	parent.kids.add(f.name, val)
}

// Write renders the completed tree to the underlying writer. Call this after
// the Walk that drove this sink has returned.
func (j *JSON) Write() error {
	if j.err != nil {
		return j.err
	}
	if j.root == nil {
		_, err := io.WriteString(j.w, "null")
		return err
	}

	var sb strings.Builder
	writeJSONValue(&sb, j.root)
	_, err := io.WriteString(j.w, sb.String())
	return err
}

func writeJSONValue(sb *strings.Builder, v *jsonValue) {
	switch {
	case v == nil:
		sb.WriteString("null")
	case v.isNull:
		sb.WriteString("null")
	case v.isNum:
		sb.WriteString(v.num)
	case v.isBool:
		sb.WriteString(strconv.FormatBool(v.boolVal))
	case v.isStr:
		quoted, _ := json.Marshal(v.str)
		sb.Write(quoted)
	case v.isArr:
		sb.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeJSONValue(sb, e)
		}
		sb.WriteByte(']')
	case v.isObj:
		writeJSONObject(sb, v.obj)
	default:
		sb.WriteString("null")
	}
}

func writeJSONObject(sb *strings.Builder, m *orderedMap) {
	sb.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Quote(k))
		sb.WriteByte(':')
		writeJSONValue(sb, m.values[k])
	}
	sb.WriteByte('}')
}
