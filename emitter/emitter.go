// Package emitter turns rendered document markup into component source for a
// target UI framework.
package emitter

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/mdcomp/mdcomp/frontmatter"
)

// BuildContext is the read-only state handed over by the host build tool.
type BuildContext struct {
	Production bool
}

// Input is everything an emitter needs for one document.
type Input struct {
	// ID is the module identifier with any query suffix removed.
	ID       string
	Markup   string
	Metadata *frontmatter.Metadata
	Build    BuildContext
}

// Emitter produces the final module source for one document.
type Emitter interface {
	Emit(ctx context.Context, in Input) (string, error)
}

// jsonString encodes s the way JSON.stringify does.
func jsonString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}
