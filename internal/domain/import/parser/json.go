package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Wrapper keys searched for the transaction array when the document root
// is an object rather than an array.
var jsonArrayKeys = []string{"transactions", "data", "items", "records"}

// ParseJSON parses a JSON export: either a top-level array of transaction
// objects or an object wrapping one under a well-known key. Field names go
// through the same synonym table as tabular sources.
func ParseJSON(data []byte, opts Options) ([]ParsedTransaction, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}

	records, err := jsonRecords(root)
	if err != nil {
		return nil, err
	}

	transactions := make([]ParsedTransaction, 0, len(records))
	for _, record := range records {
		fields := make(map[string]string, len(record))
		for k, v := range record {
			fields[k] = jsonString(v)
		}
		if tx := mapRecord(fields, opts); tx != nil {
			transactions = append(transactions, *tx)
		}
	}
	return transactions, nil
}

func jsonRecords(root any) ([]map[string]any, error) {
	switch v := root.(type) {
	case []any:
		return objectElements(v), nil
	case map[string]any:
		for key, value := range v {
			if !containsFold(jsonArrayKeys, key) {
				continue
			}
			if arr, ok := value.([]any); ok {
				return objectElements(arr), nil
			}
		}
		return nil, fmt.Errorf("json: no transaction array found")
	default:
		return nil, fmt.Errorf("json: unexpected document root")
	}
}

func objectElements(arr []any) []map[string]any {
	records := make([]map[string]any, 0, len(arr))
	for _, el := range arr {
		if obj, ok := el.(map[string]any); ok {
			records = append(records, obj)
		}
	}
	return records
}

func jsonString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		// Nested structures carry no mappable value.
		return ""
	}
}

func containsFold(keys []string, key string) bool {
	for _, k := range keys {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}
