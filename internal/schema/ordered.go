package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Entry is one key/value pair of an Ordered object.
type Entry[V any] struct {
	Key   string
	Value V
}

// Ordered is a JSON object whose key order is significant. It marshals its
// entries in slice order, where a Go map would sort them.
type Ordered[V any] []Entry[V]

// Get returns the value stored under key.
func (o Ordered[V]) Get(key string) (V, bool) {
	if i := o.index(key); i >= 0 {
		return o[i].Value, true
	}
	var zero V
	return zero, false
}

// MarshalJSON implements json.Marshaler.
func (o Ordered[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler. Entries keep the order of
// their first appearance; a repeated key takes the later value.
func (o *Ordered[V]) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}

	out := Ordered[V]{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var v V
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		if i := out.index(key); i >= 0 {
			out[i].Value = v
			continue
		}
		out = append(out, Entry[V]{Key: key, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*o = out
	return nil
}

func (o Ordered[V]) index(key string) int {
	for i, e := range o {
		if e.Key == key {
			return i
		}
	}
	return -1
}
