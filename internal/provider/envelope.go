package provider

import (
	"fmt"

	"github.com/valyala/fastjson"
)

var envelopeParsers fastjson.ParserPool

// SplitRecords extracts the raw JSON objects of a listing response. The body
// may be a bare array or an object holding the array under one of keys.
// Returned slices are copies and outlive the parser.
func SplitRecords(body []byte, keys ...string) ([][]byte, error) {
	p := envelopeParsers.Get()
	defer envelopeParsers.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	arr := v
	if v.Type() == fastjson.TypeObject {
		arr = nil
		for _, k := range keys {
			if a := v.Get(k); a != nil && a.Type() == fastjson.TypeArray {
				arr = a
				break
			}
		}
		if arr == nil {
			return nil, fmt.Errorf("decode listing: no record array under %v", keys)
		}
	}
	items, err := arr.Array()
	if err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	out := make([][]byte, 0, len(items))
	for _, it := range items {
		out = append(out, it.MarshalTo(nil))
	}
	return out, nil
}
