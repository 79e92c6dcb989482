package record

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// LinkIndex maps record names to source URLs, preserving insertion order.
// Record IDs are assigned by traversal order over the index, so the order must
// survive a save/load round trip.
type LinkIndex struct {
	names map[string]int
	order []string
	urls  map[string]string
}

// NewLinkIndex creates an empty link index.
func NewLinkIndex() *LinkIndex {
	return &LinkIndex{
		names: make(map[string]int),
		urls:  make(map[string]string),
	}
}

// Set inserts or replaces the URL for name and reports whether the name was
// already present. A repeated name keeps its original position; the URL is
// overwritten (last-seen wins).
func (ix *LinkIndex) Set(name, url string) bool {
	_, seen := ix.names[name]
	if !seen {
		ix.names[name] = len(ix.order)
		ix.order = append(ix.order, name)
	}
	ix.urls[name] = url
	return seen
}

// URL returns the URL recorded for name.
func (ix *LinkIndex) URL(name string) (string, bool) {
	url, ok := ix.urls[name]
	return url, ok
}

// Names returns the record names in insertion order.
func (ix *LinkIndex) Names() []string {
	out := make([]string, len(ix.order))
	copy(out, ix.order)
	return out
}

// Len returns the number of unique names in the index.
func (ix *LinkIndex) Len() int {
	return len(ix.order)
}

// MarshalJSON encodes the index as a flat {name: url} object in insertion
// order.
func (ix *LinkIndex) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range ix.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(ix.urls[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat {name: url} object, preserving key order.
func (ix *LinkIndex) UnmarshalJSON(data []byte) error {
	ix.names = make(map[string]int)
	ix.order = nil
	ix.urls = make(map[string]string)

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("link index: expected JSON object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("link index: expected string key, got %v", keyTok)
		}
		var url string
		if err := dec.Decode(&url); err != nil {
			return fmt.Errorf("link index: value for %q: %w", name, err)
		}
		ix.Set(name, url)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
