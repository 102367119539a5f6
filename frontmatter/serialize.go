package frontmatter

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Serialize reassembles a document from metadata and body.
//
// Empty metadata returns body unchanged. Otherwise the metadata is written as a
// `---` delimited YAML block, keys in document order, followed by body.
func Serialize(meta *Metadata, body string) (string, error) {
	if meta.Len() == 0 {
		return body, nil
	}

	node, err := nodeFromFields(meta.fields)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		_ = enc.Close()
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}

	var out strings.Builder
	out.WriteString(delimiter + "\n")
	out.Write(buf.Bytes())
	out.WriteString(delimiter + "\n")
	out.WriteString(body)
	return out.String(), nil
}

func nodeFromFields(fields *Fields) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: pair.Key}
		valNode, err := nodeFromAny(pair.Value)
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content, keyNode, valNode)
	}
	return n, nil
}

func nodeFromAny(v any) (*yaml.Node, error) {
	switch vv := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: vv}, nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(vv)}, nil
	case int:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(vv)}, nil
	case int64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(vv, 10)}, nil
	case uint64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatUint(vv, 10)}, nil
	case float64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: formatFloat(vv)}, nil
	case time.Time:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!timestamp", Value: vv.Format(time.RFC3339Nano)}, nil
	case *Fields:
		return nodeFromFields(vv)
	case []any:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range vv {
			node, err := nodeFromAny(item)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, node)
		}
		return seq, nil
	default:
		return nil, fmt.Errorf("serialize metadata: unsupported value type %T", v)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}
