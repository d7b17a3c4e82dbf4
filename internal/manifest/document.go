package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ResourcesKey is the manifest field listing the encoded audio files.
const ResourcesKey = "resources"

// Document is a JSON object whose keys keep the order they were written in.
// The zero value is not usable; construct with Parse or New.
type Document struct {
	raw []byte
}

// New returns an empty document.
func New() *Document {
	return &Document{raw: []byte("{}")}
}

// Parse decodes a JSON object.
func Parse(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if !gjson.ValidBytes(trimmed) {
		return nil, errors.New("manifest: invalid JSON")
	}
	if !gjson.ParseBytes(trimmed).IsObject() {
		return nil, errors.New("manifest: document must be a JSON object")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil, fmt.Errorf("manifest: compact: %w", err)
	}
	return &Document{raw: buf.Bytes()}, nil
}

// Keys returns the top-level keys in document order.
func (d *Document) Keys() []string {
	var keys []string
	gjson.ParseBytes(d.raw).ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	return keys
}

// Has reports whether key is present at the top level.
func (d *Document) Has(key string) bool {
	return gjson.GetBytes(d.raw, escapeKey(key)).Exists()
}

// Get returns the raw JSON value stored under key.
func (d *Document) Get(key string) (json.RawMessage, bool) {
	result := gjson.GetBytes(d.raw, escapeKey(key))
	if !result.Exists() {
		return nil, false
	}
	return json.RawMessage(result.Raw), true
}

// Set stores value under key, replacing an existing value in place or
// appending the key when it is new.
func (d *Document) Set(key string, value any) error {
	updated, err := sjson.SetBytes(d.raw, escapeKey(key), value)
	if err != nil {
		return fmt.Errorf("manifest: set %q: %w", key, err)
	}
	d.raw = updated
	return nil
}

// SetRaw stores already-encoded JSON under key.
func (d *Document) SetRaw(key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return fmt.Errorf("manifest: set %q: invalid JSON value", key)
	}
	updated, err := sjson.SetRawBytes(d.raw, escapeKey(key), value)
	if err != nil {
		return fmt.Errorf("manifest: set %q: %w", key, err)
	}
	d.raw = updated
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (d *Document) Delete(key string) error {
	if !d.Has(key) {
		return nil
	}
	updated, err := sjson.DeleteBytes(d.raw, escapeKey(key))
	if err != nil {
		return fmt.Errorf("manifest: delete %q: %w", key, err)
	}
	d.raw = updated
	return nil
}

// Resources returns the resources list. ok is false when the key is absent.
func (d *Document) Resources() (resources []string, ok bool, err error) {
	result := gjson.GetBytes(d.raw, ResourcesKey)
	if !result.Exists() {
		return nil, false, nil
	}
	if !result.IsArray() {
		return nil, true, fmt.Errorf("manifest: %s must be an array, got %s", ResourcesKey, result.Type)
	}
	resources = []string{}
	for i, item := range result.Array() {
		if item.Type != gjson.String {
			return nil, true, fmt.Errorf("manifest: %s[%d] must be a string", ResourcesKey, i)
		}
		resources = append(resources, item.String())
	}
	return resources, true, nil
}

// SetResources replaces the resources list.
func (d *Document) SetResources(resources []string) error {
	if resources == nil {
		resources = []string{}
	}
	return d.Set(ResourcesKey, resources)
}

// Clone returns an independent copy.
func (d *Document) Clone() *Document {
	return &Document{raw: append([]byte(nil), d.raw...)}
}

// Bytes returns the compact JSON encoding.
func (d *Document) Bytes() []byte {
	return append([]byte(nil), d.raw...)
}

// Render serializes the document with two-space indentation, or with no
// insignificant whitespace when minify is set.
func (d *Document) Render(minify bool) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	if minify {
		err = json.Compact(&buf, d.raw)
	} else {
		err = json.Indent(&buf, d.raw, "", "  ")
	}
	if err != nil {
		return nil, fmt.Errorf("manifest: render: %w", err)
	}
	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler.
func (d *Document) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}
	return d.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	d.raw = parsed.raw
	return nil
}

// escapeKey turns a literal key into a gjson/sjson path component.
func escapeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		switch r {
		case '\\', '.', '*', '?', '|', '#', '@', ':', '!', '=', '<', '>', '%':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
