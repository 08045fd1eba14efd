package savegame

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingKey is returned when a section lacks a required key.
	ErrMissingKey = errors.New("savegame: missing key")
	// ErrBadValue is returned when a value does not parse.
	ErrBadValue = errors.New("savegame: bad value")
)

// Section is one saved entity: a name, an index and ordered keys, each
// holding one or more scalar values.
type Section struct {
	Name  string
	Index uint32

	keys   []string
	values map[string][]string
}

// NewSection creates an empty section.
func NewSection(name string, index uint32) *Section {
	return &Section{Name: name, Index: index, values: make(map[string][]string)}
}

// Put appends values to key. Booleans are stored as 0 or 1.
func (s *Section) Put(key string, vals ...any) {
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
		s.values[key] = nil
	}
	for _, v := range vals {
		s.values[key] = append(s.values[key], formatValue(v))
	}
}

func formatValue(v any) string {
	switch x := v.(type) {
	case bool:
		if x {
			return "1"
		}
		return "0"
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// Keys lists the keys in insertion order.
func (s *Section) Keys() []string { return s.keys }

// Has reports whether key is present.
func (s *Section) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Count returns how many values key holds.
func (s *Section) Count(key string) int { return len(s.values[key]) }

// Raw returns the i-th value of key as text.
func (s *Section) Raw(key string, i int) (string, error) {
	vals, ok := s.values[key]
	if !ok {
		return "", fmt.Errorf("%s %d: %q: %w", s.Name, s.Index, key, ErrMissingKey)
	}
	if i < 0 || i >= len(vals) {
		return "", fmt.Errorf("%s %d: %q[%d]: %w", s.Name, s.Index, key, i, ErrMissingKey)
	}
	return vals[i], nil
}

// Int parses the i-th value of key.
func (s *Section) Int(key string, i int) (int, error) {
	raw, err := s.Raw(key, i)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s %d: %q=%q: %w", s.Name, s.Index, key, raw, ErrBadValue)
	}
	return v, nil
}

// Uint parses the i-th value of key as an unsigned 32-bit number.
func (s *Section) Uint(key string, i int) (uint32, error) {
	raw, err := s.Raw(key, i)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%s %d: %q=%q: %w", s.Name, s.Index, key, raw, ErrBadValue)
	}
	return uint32(v), nil
}

// Bool parses the i-th value of key; any non-zero number is true.
func (s *Section) Bool(key string, i int) (bool, error) {
	v, err := s.Int(key, i)
	return v != 0, err
}

// Document is an ordered list of sections.
type Document struct {
	Sections []*Section
}

// Add appends a section and returns it.
func (d *Document) Add(name string, index uint32) *Section {
	s := NewSection(name, index)
	d.Sections = append(d.Sections, s)
	return s
}

// Find returns the sections named name in document order.
func (d *Document) Find(name string) []*Section {
	var out []*Section
	for _, s := range d.Sections {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

// Encode writes the document as YAML: a sequence of mappings with keys
// section, index and values, where values maps each key to a flow list.
func (d *Document) Encode(w io.Writer) error {
	root := &yaml.Node{Kind: yaml.SequenceNode}
	for _, s := range d.Sections {
		values := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range s.keys {
			list := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
			for _, v := range s.values[k] {
				list.Content = append(list.Content, scalar(v))
			}
			values.Content = append(values.Content, scalar(k), list)
		}
		entry := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
			scalar("section"), scalar(s.Name),
			scalar("index"), {Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatUint(uint64(s.Index), 10)},
			scalar("values"), values,
		}}
		root.Content = append(root.Content, entry)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("encode save: %w", err)
	}
	return enc.Close()
}

type sectionDoc struct {
	Section string    `yaml:"section"`
	Index   uint32    `yaml:"index"`
	Values  yaml.Node `yaml:"values"`
}

// Decode reads a document written by Encode.
func Decode(r io.Reader) (*Document, error) {
	var raw []sectionDoc
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return &Document{}, nil
		}
		return nil, fmt.Errorf("decode save: %w", err)
	}
	doc := &Document{}
	for _, rs := range raw {
		s := doc.Add(rs.Section, rs.Index)
		if rs.Values.Kind == 0 {
			continue
		}
		if rs.Values.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("section %s %d: values are not a mapping: %w", rs.Section, rs.Index, ErrBadValue)
		}
		for i := 0; i+1 < len(rs.Values.Content); i += 2 {
			key := rs.Values.Content[i].Value
			val := rs.Values.Content[i+1]
			switch val.Kind {
			case yaml.SequenceNode:
				s.Put(key)
				for _, item := range val.Content {
					s.Put(key, item.Value)
				}
			case yaml.ScalarNode:
				s.Put(key, val.Value)
			default:
				return nil, fmt.Errorf("section %s %d: %q: %w", rs.Section, rs.Index, key, ErrBadValue)
			}
		}
	}
	return doc, nil
}
