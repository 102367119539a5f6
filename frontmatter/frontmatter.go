package frontmatter

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// ErrInvalidYAML indicates that a delimited front-matter block was found but its
// contents could not be parsed as a YAML mapping.
var ErrInvalidYAML = errors.New("invalid yaml front-matter")

// Document is a raw document split into its metadata and its content body.
type Document struct {
	Metadata *Metadata
	Body     string
}

// Extract splits raw into front-matter metadata and the content body.
//
// A document without a leading `---` line, or with an opening delimiter but no
// closing one, yields empty metadata and the full input as body.
//
// When the block exists but does not hold a YAML mapping, Extract still returns
// the body that follows the block together with empty metadata, and an error
// wrapping ErrInvalidYAML.
func Extract(raw string) (Document, error) {
	block, body, ok := split(raw)
	if !ok {
		return Document{Metadata: Empty(), Body: raw}, nil
	}

	meta, err := parseBlock(block)
	if err != nil {
		return Document{Metadata: Empty(), Body: body}, err
	}

	return Document{Metadata: meta, Body: body}, nil
}

// split separates the YAML block (without delimiters) from the body.
func split(content string) (block string, body string, ok bool) {
	nl := detectNewline(content)
	open := delimiter + nl
	if !strings.HasPrefix(content, open) {
		return "", content, false
	}

	rest := content[len(open):]
	if rest == delimiter || strings.HasPrefix(rest, delimiter+nl) {
		return "", strings.TrimPrefix(strings.TrimPrefix(rest, delimiter), nl), true
	}

	closeSeq := nl + delimiter
	searchFrom := 0
	for {
		idx := strings.Index(rest[searchFrom:], closeSeq)
		if idx < 0 {
			return "", content, false
		}
		idx += searchFrom

		end := idx + len(closeSeq)
		switch {
		case end == len(rest):
			return rest[:idx+len(nl)], "", true
		case strings.HasPrefix(rest[end:], nl):
			return rest[:idx+len(nl)], rest[end+len(nl):], true
		}

		// `---` followed by more text on the same line is YAML content.
		searchFrom = end
	}
}

func parseBlock(block string) (*Metadata, error) {
	if strings.TrimSpace(block) == "" {
		return Empty(), nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	if len(doc.Content) == 0 {
		return Empty(), nil
	}

	root := resolveAlias(doc.Content[0])
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return Empty(), nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: expected a mapping at line %d", ErrInvalidYAML, root.Line)
	}

	fields, err := mappingFromNode(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return &Metadata{fields: fields}, nil
}

func detectNewline(content string) string {
	if i := strings.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
