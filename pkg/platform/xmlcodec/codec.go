package xmlcodec

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Header is the declaration written at the top of every document.
const Header = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

const (
	typeBoolean = "boolean"
	typeInteger = "integer"
	typeArray   = "array"
)

var (
	// ErrEmptyDocument is returned when a document has no root element.
	ErrEmptyDocument = errors.New("xmlcodec: empty document")
	// ErrNotMapping is returned when the root element holds text instead of fields.
	ErrNotMapping = errors.New("xmlcodec: root element is not a mapping")
)

// Marshal renders m as an indented document whose root element is root.
func Marshal(root string, m Map) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := encodeValue(enc, root, m); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("xmlcodec: flush: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func encodeValue(enc *xml.Encoder, name string, v any) error {
	if name == "" {
		return errors.New("xmlcodec: empty element name")
	}
	start := xml.StartElement{Name: xml.Name{Local: name}}

	switch t := v.(type) {
	case nil:
		start.Attr = []xml.Attr{{Name: xml.Name{Local: "nil"}, Value: "true"}}
		return encodeText(enc, start, "")
	case string:
		return encodeText(enc, start, t)
	case *string:
		if t == nil {
			return encodeValue(enc, name, nil)
		}
		return encodeText(enc, start, *t)
	case bool:
		start.Attr = []xml.Attr{{Name: xml.Name{Local: "type"}, Value: typeBoolean}}
		return encodeText(enc, start, strconv.FormatBool(t))
	case *bool:
		if t == nil {
			return encodeValue(enc, name, nil)
		}
		return encodeValue(enc, name, *t)
	case int:
		start.Attr = []xml.Attr{{Name: xml.Name{Local: "type"}, Value: typeInteger}}
		return encodeText(enc, start, strconv.Itoa(t))
	case Map:
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		for _, f := range t {
			if err := encodeValue(enc, f.Name, f.Value); err != nil {
				return err
			}
		}
		return enc.EncodeToken(start.End())
	case List:
		start.Attr = []xml.Attr{{Name: xml.Name{Local: "type"}, Value: typeArray}}
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		for _, item := range t.Items {
			if err := encodeValue(enc, t.Item, item); err != nil {
				return err
			}
		}
		return enc.EncodeToken(start.End())
	default:
		return fmt.Errorf("xmlcodec: unsupported value %T for element %q", v, name)
	}
}

func encodeText(enc *xml.Encoder, start xml.StartElement, text string) error {
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if text != "" {
		if err := enc.EncodeToken(xml.CharData(text)); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// Unmarshal parses a document produced with the same conventions as Marshal
// and returns the root element name and its fields.
func Unmarshal(data []byte) (string, Map, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return "", nil, ErrEmptyDocument
		}
		if err != nil {
			return "", nil, fmt.Errorf("xmlcodec: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		v, err := decodeElement(dec, start)
		if err != nil {
			return "", nil, err
		}
		switch t := v.(type) {
		case Map:
			return start.Name.Local, t, nil
		case nil:
			return start.Name.Local, Map{}, nil
		case string:
			if strings.TrimSpace(t) == "" {
				return start.Name.Local, Map{}, nil
			}
		}
		return "", nil, ErrNotMapping
	}
}

func decodeElement(dec *xml.Decoder, start xml.StartElement) (any, error) {
	var typ string
	var isNil bool
	for _, a := range start.Attr {
		switch a.Name.Local {
		case "type":
			typ = a.Value
		case "nil":
			isNil = a.Value == "true"
		}
	}

	var (
		text     strings.Builder
		fields   Map
		items    []any
		itemName string
		nested   bool
	)
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("xmlcodec: element %q: %w", start.Name.Local, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			v, err := decodeElement(dec, t)
			if err != nil {
				return nil, err
			}
			nested = true
			if typ == typeArray {
				if itemName == "" {
					itemName = t.Name.Local
				}
				items = append(items, v)
				continue
			}
			fields = fields.Set(t.Name.Local, v)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			switch {
			case isNil:
				return nil, nil
			case typ == typeArray:
				return List{Item: itemName, Items: items}, nil
			case nested:
				return fields, nil
			case typ == typeBoolean:
				return parseBool(text.String()), nil
			case typ == typeInteger:
				n, err := strconv.Atoi(strings.TrimSpace(text.String()))
				if err != nil {
					return text.String(), nil
				}
				return n, nil
			default:
				return text.String(), nil
			}
		}
	}
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}
