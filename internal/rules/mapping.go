package rules

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry is a single key/value pair of an OrderedMapping.
type Entry struct {
	Key   string
	Value string
}

// OrderedMapping is a string-to-string mapping that preserves the order in
// which keys appear in the YAML file. Substring rules are evaluated in that
// order, so the first key listed wins.
type OrderedMapping struct {
	entries []Entry
	index   map[string]string
}

// NewOrderedMapping builds an OrderedMapping from entries, keeping their order.
func NewOrderedMapping(entries ...Entry) OrderedMapping {
	m := OrderedMapping{
		entries: entries,
		index:   make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		m.index[e.Key] = e.Value
	}
	return m
}

// UnmarshalYAML decodes a YAML mapping node, preserving key order.
func (m *OrderedMapping) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("expected a mapping, got %s", value.Tag)
	}
	m.entries = make([]Entry, 0, len(value.Content)/2)
	m.index = make(map[string]string, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var key, val string
		if err := value.Content[i].Decode(&key); err != nil {
			return fmt.Errorf("invalid mapping key: %w", err)
		}
		if err := value.Content[i+1].Decode(&val); err != nil {
			return fmt.Errorf("invalid mapping value for key '%s': %w", key, err)
		}
		m.entries = append(m.entries, Entry{Key: key, Value: val})
		m.index[key] = val
	}
	return nil
}

// Get returns the value for an exact key match.
func (m OrderedMapping) Get(key string) (string, bool) {
	v, ok := m.index[key]
	return v, ok
}

// Match returns the value of the first entry, in mapping-defined order, whose
// key appears as a case-insensitive substring of text.
func (m OrderedMapping) Match(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, e := range m.entries {
		if strings.Contains(lower, strings.ToLower(e.Key)) {
			return e.Value, true
		}
	}
	return "", false
}

// Entries returns the entries in mapping-defined order.
func (m OrderedMapping) Entries() []Entry {
	return m.entries
}

// Len returns the number of entries.
func (m OrderedMapping) Len() int {
	return len(m.entries)
}

// BankCategoryRule is the value of a bank-category mapping entry. The YAML
// form is either a plain string (category only) or a mapping with an explicit
// category and subcategory. The two shapes are discriminated on the YAML node
// kind when decoding.
type BankCategoryRule struct {
	Category    string `yaml:"category"`
	Subcategory string `yaml:"subcategory"`
}

// UnmarshalYAML accepts both the scalar and the structured form.
func (r *BankCategoryRule) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		r.Subcategory = ""
		return value.Decode(&r.Category)
	case yaml.MappingNode:
		type plain BankCategoryRule
		return value.Decode((*plain)(r))
	default:
		return fmt.Errorf("bank category rule must be a string or a mapping, got %s", value.Tag)
	}
}
