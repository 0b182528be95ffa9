package db

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
)

// DecodeItem parses a JSON object, keeping numbers as json.Number so that
// their decimal text reaches storage unchanged.
func DecodeItem(body []byte) (Item, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var item Item
	if err := dec.Decode(&item); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if item == nil {
		return nil, errors.New("body must be a JSON object")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON object")
	}
	return item, nil
}

// Normalize converts decoded numbers (json.Number or attributevalue.Number)
// into int64 when integral and float64 otherwise, recursing into maps and
// lists.
func Normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		return numberValue(string(t))
	case attributevalue.Number:
		return numberValue(string(t))
	case []attributevalue.Number:
		out := make([]any, len(t))
		for i, n := range t {
			out[i] = numberValue(string(n))
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Normalize(e)
		}
		return out
	case Item:
		return Item(Normalize(map[string]any(t)).(map[string]any))
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Normalize(e)
		}
		return out
	default:
		return v
	}
}

func numberValue(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// toAttributeNumbers swaps json.Number for attributevalue.Number so the
// marshaler writes N attributes with the decimal text as received.
func toAttributeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		return attributevalue.Number(t)
	case Item:
		return toAttributeNumbers(map[string]any(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = toAttributeNumbers(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = toAttributeNumbers(e)
		}
		return out
	default:
		return v
	}
}
