package serialize

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/goevtx/evtx/model"
)

// XMLString renders n as an XML string, returning any warnings collected
// while escaping control characters.
func XMLString(n *model.Node) (string, []string, error) {
	var sb strings.Builder
	sink := NewXML(&sb)
	defer sink.Close()

	Walk(n, sink)
	if err := sink.Err(); err != nil {
		return "", sink.Warnings, err
	}

	return sb.String(), sink.Warnings, nil
}

// JSONString renders n as a JSON string.
func JSONString(n *model.Node) (string, error) {
	var sb strings.Builder
	sink := NewJSON(&sb)

	Walk(n, sink)
	if err := sink.Write(); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// JSONStringIndent renders n the same way JSONString does, then re-indents
// the result (CLI §6's `json-pretty` format). The indentation pass runs
// over our own already-valid, already-ordered JSON text purely to add
// whitespace — encoding/json.Indent never re-parses key order or value
// typing, so it can't undo the ordering/native-typing work JSON (above)
// already did.
func JSONStringIndent(n *model.Node, prefix, indent string) (string, error) {
	compact, err := JSONString(n)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(compact), prefix, indent); err != nil {
		return "", err
	}

	return buf.String(), nil
}
