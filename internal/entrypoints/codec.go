package entrypoints

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalJSON accepts a string, an array of strings or an object of strings.
// Object key order is preserved.
func (s *Set) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = Set{}
		return nil
	}
	switch data[0] {
	case '"':
		var p string
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*s = Single(p)
		return nil
	case '[':
		var paths []string
		if err := json.Unmarshal(data, &paths); err != nil {
			return fmt.Errorf("entry list: %w", err)
		}
		*s = List(paths...)
		return nil
	case '{':
		keys, m, err := decodeOrderedObject(data)
		if err != nil {
			return err
		}
		*s = NamedOrdered(keys, m)
		return nil
	default:
		return fmt.Errorf("entry points must be a string, array or object, got %s", data)
	}
}

func decodeOrderedObject(data []byte) ([]string, map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	var keys []string
	m := make(map[string]string)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("entry map: unexpected key %v", tok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return nil, nil, fmt.Errorf("entry map %q: %w", key, err)
		}
		keys = append(keys, key)
		m[key] = value
	}
	return keys, m, nil
}

// MarshalJSON writes the set back in the shape it was declared in.
func (s Set) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case KindSingle:
		return json.Marshal(s.paths[0])
	case KindList:
		return json.Marshal(s.paths)
	case KindNamed:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range s.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			vb, _ := json.Marshal(s.named[k])
			buf.Write(kb)
			buf.WriteByte(':')
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalYAML accepts a scalar, a sequence or a mapping. Mapping order is preserved.
func (s *Set) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var p string
		if err := node.Decode(&p); err != nil {
			return err
		}
		*s = Single(p)
	case yaml.SequenceNode:
		var paths []string
		if err := node.Decode(&paths); err != nil {
			return fmt.Errorf("entry list: %w", err)
		}
		*s = List(paths...)
	case yaml.MappingNode:
		keys := make([]string, 0, len(node.Content)/2)
		m := make(map[string]string, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			var k, v string
			if err := node.Content[i].Decode(&k); err != nil {
				return err
			}
			if err := node.Content[i+1].Decode(&v); err != nil {
				return fmt.Errorf("entry map %q: %w", k, err)
			}
			keys = append(keys, k)
			m[k] = v
		}
		*s = NamedOrdered(keys, m)
	default:
		return fmt.Errorf("entry points must be a string, sequence or mapping")
	}
	return nil
}
