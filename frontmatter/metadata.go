package frontmatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// Fields is an ordered mapping of metadata keys to values. Nested mappings use
// the same type so that document order survives serialization.
type Fields = orderedmap.OrderedMap[string, any]

// Metadata is the structured data parsed from a front-matter block.
//
// Keys keep the order in which they appear in the document. Metadata is never
// mutated once extracted.
type Metadata struct {
	fields *Fields
}

// Empty returns metadata without any keys.
func Empty() *Metadata {
	return &Metadata{fields: orderedmap.New[string, any]()}
}

// Len returns the number of top-level keys.
func (m *Metadata) Len() int {
	if m == nil || m.fields == nil {
		return 0
	}
	return m.fields.Len()
}

// Keys returns the top-level keys in document order.
func (m *Metadata) Keys() []string {
	keys := make([]string, 0, m.Len())
	if m.Len() == 0 {
		return keys
	}
	for pair := m.fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Get returns the value stored under key. Dots in key are not interpreted.
func (m *Metadata) Get(key string) (any, bool) {
	if m.Len() == 0 {
		return nil, false
	}
	return m.fields.Get(key)
}

// MarshalJSON encodes metadata as a JSON object with keys in document order.
// HTML characters are not escaped so the output matches JavaScript's JSON.stringify.
func (m *Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if m.Len() == 0 {
		buf.WriteString("{}")
		return buf.Bytes(), nil
	}
	if err := writeJSON(&buf, m.fields); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v any) error {
	switch vv := v.(type) {
	case nil:
		buf.WriteString("null")
	case *Fields:
		buf.WriteByte('{')
		first := true
		for pair := vv.Oldest(); pair != nil; pair = pair.Next() {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			if err := writeJSONString(buf, pair.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeJSON(buf, pair.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, item := range vv {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case string:
		return writeJSONString(buf, vv)
	case bool:
		buf.WriteString(strconv.FormatBool(vv))
	case int:
		buf.WriteString(strconv.Itoa(vv))
	case int64:
		buf.WriteString(strconv.FormatInt(vv, 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(vv, 10))
	case float64:
		if math.IsNaN(vv) || math.IsInf(vv, 0) {
			buf.WriteString("null")
			return nil
		}
		out, err := json.Marshal(vv)
		if err != nil {
			return err
		}
		buf.Write(out)
	case time.Time:
		return writeJSONString(buf, vv.UTC().Format("2006-01-02T15:04:05.000Z"))
	default:
		out, err := json.Marshal(vv)
		if err != nil {
			return fmt.Errorf("encode metadata value %T: %w", v, err)
		}
		buf.Write(out)
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

func mappingFromNode(node *yaml.Node) (*Fields, error) {
	fields := orderedmap.New[string, any]()
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := resolveAlias(node.Content[i])
		valNode := resolveAlias(node.Content[i+1])

		if keyNode.Tag == "!!merge" {
			if err := mergeInto(fields, valNode); err != nil {
				return nil, err
			}
			continue
		}

		var key string
		if err := keyNode.Decode(&key); err != nil {
			key = keyNode.Value
		}
		value, err := valueFromNode(valNode)
		if err != nil {
			return nil, err
		}
		fields.Set(key, value)
	}
	return fields, nil
}

func mergeInto(fields *Fields, node *yaml.Node) error {
	sources := []*yaml.Node{node}
	if node.Kind == yaml.SequenceNode {
		sources = node.Content
	}
	for _, src := range sources {
		src = resolveAlias(src)
		if src.Kind != yaml.MappingNode {
			return fmt.Errorf("merge key at line %d must reference a mapping", src.Line)
		}
		merged, err := mappingFromNode(src)
		if err != nil {
			return err
		}
		for pair := merged.Oldest(); pair != nil; pair = pair.Next() {
			if _, exists := fields.Get(pair.Key); !exists {
				fields.Set(pair.Key, pair.Value)
			}
		}
	}
	return nil
}

func valueFromNode(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.MappingNode:
		return mappingFromNode(node)
	case yaml.SequenceNode:
		items := make([]any, 0, len(node.Content))
		for _, child := range node.Content {
			item, err := valueFromNode(resolveAlias(child))
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	case yaml.ScalarNode:
		var value any
		if err := node.Decode(&value); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return value, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported yaml node kind %d", node.Line, node.Kind)
	}
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}
