// Package envelope normalizes the response envelopes used by upstream
// collaborators. Lists arrive as a bare array, as {"data": [...]}, or as
// {"data": {"items": [...]}}; single records arrive bare or as {"data": {...}}.
// Every shape decodes to the same ordered record sequence. Shapes that match
// none of these decode to an empty sequence instead of an error.
package envelope

import (
	"bytes"
	"encoding/json"
)

// Shape identifies the envelope a list response used.
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeBareArray
	ShapeDataArray
	ShapeDataItems
)

// String returns the metrics label of the shape.
func (s Shape) String() string {
	switch s {
	case ShapeBareArray:
		return "bare_array"
	case ShapeDataArray:
		return "data_array"
	case ShapeDataItems:
		return "data_items"
	default:
		return "unknown"
	}
}

// Result is a decoded list.
type Result[T any] struct {
	Shape   Shape
	Records []T

	// Skipped counts records that did not decode into T.
	Skipped int

	// Total is the collection size when the envelope reports one.
	Total *int64
}

// Detect finds the record array inside raw.
func Detect(raw []byte) (Shape, []json.RawMessage, *int64) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ShapeUnknown, nil, nil
	}

	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return ShapeUnknown, nil, nil
		}
		return ShapeBareArray, items, nil
	case '{':
	default:
		return ShapeUnknown, nil, nil
	}

	var outer map[string]json.RawMessage
	if err := json.Unmarshal(raw, &outer); err != nil {
		return ShapeUnknown, nil, nil
	}
	total := readTotal(outer)

	data := bytes.TrimSpace(outer["data"])
	if len(data) == 0 {
		return ShapeUnknown, nil, nil
	}

	switch data[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return ShapeUnknown, nil, nil
		}
		return ShapeDataArray, items, total
	case '{':
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(data, &inner); err != nil {
			return ShapeUnknown, nil, nil
		}
		list := bytes.TrimSpace(inner["items"])
		if len(list) == 0 || list[0] != '[' {
			return ShapeUnknown, nil, nil
		}
		var items []json.RawMessage
		if err := json.Unmarshal(list, &items); err != nil {
			return ShapeUnknown, nil, nil
		}
		if t := readTotal(inner); t != nil {
			total = t
		}
		return ShapeDataItems, items, total
	default:
		return ShapeUnknown, nil, nil
	}
}

func readTotal(m map[string]json.RawMessage) *int64 {
	raw, ok := m["total"]
	if !ok {
		return nil
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil
	}
	return &n
}

// Decode decodes a list response into records of type T, in upstream order.
func Decode[T any](raw []byte) Result[T] {
	shape, items, total := Detect(raw)
	res := Result[T]{Shape: shape, Records: make([]T, 0, len(items)), Total: total}
	for _, item := range items {
		var rec T
		if err := json.Unmarshal(item, &rec); err != nil {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

// DecodeOne decodes a single-record response, bare or wrapped in "data". It
// reports false when raw holds no object.
func DecodeOne[T any](raw []byte) (T, bool) {
	var zero T
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return zero, false
	}

	var outer map[string]json.RawMessage
	if err := json.Unmarshal(raw, &outer); err != nil {
		return zero, false
	}
	body := raw
	if data := bytes.TrimSpace(outer["data"]); len(data) > 0 {
		if data[0] != '{' {
			return zero, false
		}
		body = data
	}

	var rec T
	if err := json.Unmarshal(body, &rec); err != nil {
		return zero, false
	}
	return rec, true
}
