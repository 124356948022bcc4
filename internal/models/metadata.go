package models

import "encoding/json"

// Metadata is the free-form key/value payload attached to a message. The
// server transmits it either as a plain JSON object or as a list of
// {key, value} entries depending on which service produced the message.
// Field handles both; call sites must not branch on the representation.
type Metadata struct {
	fields map[string]any
	pairs  []metadataPair
}

type metadataPair struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Well-known metadata keys for product-card attachments.
const (
	MetaTitle    = "title"
	MetaImageURL = "imageUrl"
	MetaPrice    = "price"
	MetaURL      = "url"
)

// UnmarshalJSON accepts both the object form and the pair-list form.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var pairs []metadataPair
	if err := json.Unmarshal(data, &pairs); err == nil {
		*m = Metadata{pairs: pairs}
		return nil
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*m = Metadata{fields: fields}
	return nil
}

// MarshalJSON emits the object form.
func (m Metadata) MarshalJSON() ([]byte, error) {
	if m.fields != nil {
		return json.Marshal(m.fields)
	}
	if len(m.pairs) > 0 {
		out := make(map[string]any, len(m.pairs))
		for _, p := range m.pairs {
			out[p.Key] = p.Value
		}
		return json.Marshal(out)
	}
	return []byte("null"), nil
}

// Field returns the value for key, trying the map form first and falling
// back to the pair list. The second return is false when the key is
// absent in both.
func (m Metadata) Field(key string) (any, bool) {
	if m.fields != nil {
		if v, ok := m.fields[key]; ok {
			return v, true
		}
	}
	for _, p := range m.pairs {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// StringField returns the value for key when it is a string.
func (m Metadata) StringField(key string) (string, bool) {
	v, ok := m.Field(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// IsZero reports whether no metadata was attached.
func (m Metadata) IsZero() bool {
	return m.fields == nil && len(m.pairs) == 0
}

// NewMetadata builds map-form metadata, used by tests and local tooling.
func NewMetadata(fields map[string]any) Metadata {
	return Metadata{fields: fields}
}
