package digest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// DecodeJSON parses a single JSON document into the generic form hashed
// by Digest: map[string]any, []any, string, bool, json.Number and nil.
// Numbers are kept as json.Number so integers beyond 2^53 hash exactly.
//
// The hash of a document depends only on its parsed value, never on
// whitespace or key order in the source text.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid JSON: unexpected data after document")
	}
	return doc, nil
}

// DigestJSON parses data and returns the hash of the parsed document
// together with the document itself.
func DigestJSON(data []byte) (ContentHash, any, error) {
	doc, err := DecodeJSON(data)
	if err != nil {
		return ContentHash{}, nil, err
	}
	h, err := Digest(doc)
	if err != nil {
		return ContentHash{}, nil, err
	}
	return h, doc, nil
}

// CompactJSON renders a document returned by DecodeJSON without
// insignificant whitespace and with object keys sorted. Numbers keep
// their source spelling and HTML characters are not escaped.
func CompactJSON(doc any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// encodeJSONNumber classifies a number the way a JSON value model
// distinguishes them: non-negative integers as uint64, negative
// integers as int64, everything else as float64. Negative zero has no
// integer form and is a float.
func (e *Encoder) encodeJSONNumber(n json.Number) error {
	s := n.String()
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return e.Uint64(u)
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil && i != 0 {
		return e.Int64(i)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Custom("number %q is not representable: %v", s, err)
	}
	return e.Float64(f)
}
