package register

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
	json "github.com/goccy/go-json"
)

// FromXML converts a register XML document into the BadgerFish JSON form
// served by the JSON endpoint: attributes become "@name" keys, text becomes
// "$", and an element that occurs more than once under the same parent
// becomes an array. That last rule is why the same field can be an object in
// one response and an array in another.
func FromXML(r io.Reader) ([]byte, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}
	root := map[string]any{}
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			appendChild(root, elementName(n), badgerfish(n))
		}
	}
	if len(root) == 0 {
		return nil, fmt.Errorf("%w: xml document has no root element", ErrUnexpectedShape)
	}
	return json.Marshal(root)
}

func badgerfish(n *xmlquery.Node) map[string]any {
	obj := map[string]any{}
	for _, attr := range n.Attr {
		if name, ok := attributeName(attr.Name); ok {
			obj["@"+name] = attr.Value
		}
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.ElementNode:
			appendChild(obj, elementName(c), badgerfish(c))
		case xmlquery.TextNode, xmlquery.CharDataNode:
			sb.WriteString(c.Data)
		}
	}
	if s := strings.TrimSpace(sb.String()); s != "" {
		obj["$"] = s
	}
	return obj
}

func appendChild(obj map[string]any, name string, child map[string]any) {
	switch existing := obj[name].(type) {
	case nil:
		obj[name] = child
	case []any:
		obj[name] = append(existing, child)
	default:
		obj[name] = []any{existing, child}
	}
}

func elementName(n *xmlquery.Node) string {
	if n.Prefix == "" {
		return n.Data
	}
	return n.Prefix + ":" + n.Data
}

// attributeName drops namespace declarations and keeps prefixes only when
// they are short names rather than resolved namespace URIs.
func attributeName(name xml.Name) (string, bool) {
	if name.Space == "xmlns" || (name.Space == "" && name.Local == "xmlns") {
		return "", false
	}
	if name.Space == "" || strings.ContainsAny(name.Space, "/:") {
		return name.Local, true
	}
	return name.Space + ":" + name.Local, true
}
