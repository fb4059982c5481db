package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Element local names treated as one transaction record.
var xmlRecordNames = []string{"transaction", "txn", "record", "item", "entry"}

// xmlField captures one child element: its direct character data plus any
// nested elements, so <amount><value>5.50</value></amount> still yields a
// usable value.
type xmlField struct {
	XMLName  xml.Name
	Value    string     `xml:",chardata"`
	Children []xmlField `xml:",any"`
}

func (f xmlField) text() string {
	if v := strings.TrimSpace(f.Value); v != "" {
		return v
	}
	for _, child := range f.Children {
		if v := child.text(); v != "" {
			return v
		}
	}
	return ""
}

type xmlRecord struct {
	Attrs  []xml.Attr `xml:",any,attr"`
	Fields []xmlField `xml:",any"`
}

// ParseXML parses an XML export by walking the document for transaction
// record elements, wherever they sit in the tree. Child elements and
// attributes both feed the synonym table.
func ParseXML(data []byte, opts Options) ([]ParsedTransaction, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var transactions []ParsedTransaction
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xml: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || !containsFold(xmlRecordNames, start.Name.Local) {
			continue
		}

		var record xmlRecord
		if err := dec.DecodeElement(&record, &start); err != nil {
			return nil, fmt.Errorf("xml: %w", err)
		}

		fields := make(map[string]string, len(record.Fields)+len(record.Attrs))
		for _, attr := range record.Attrs {
			fields[attr.Name.Local] = attr.Value
		}
		for _, field := range record.Fields {
			fields[field.XMLName.Local] = field.text()
		}

		if tx := mapRecord(fields, opts); tx != nil {
			transactions = append(transactions, *tx)
		}
	}

	if transactions == nil {
		transactions = []ParsedTransaction{}
	}
	return transactions, nil
}
