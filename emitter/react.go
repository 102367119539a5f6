package emitter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/mdcomp/mdcomp/frontmatter"
	"github.com/mdcomp/mdcomp/htmltojsx"
)

// ErrJSXTransform is returned when the generated JSX module fails to compile.
var ErrJSXTransform = errors.New("jsx transform failed")

// JSXTransformer compiles a JSX module into plain JavaScript.
type JSXTransformer interface {
	TransformJSX(ctx context.Context, source, filename string) (string, error)
}

// JSXTransformerFunc adapts a function to JSXTransformer.
type JSXTransformerFunc func(ctx context.Context, source, filename string) (string, error)

func (f JSXTransformerFunc) TransformJSX(ctx context.Context, source, filename string) (string, error) {
	return f(ctx, source, filename)
}

// Esbuild compiles JSX with esbuild's transform API.
type Esbuild struct{}

func (Esbuild) TransformJSX(_ context.Context, source, filename string) (string, error) {
	result := api.Transform(source, api.TransformOptions{
		Loader:     api.LoaderJSX,
		Sourcefile: filename,
	})
	if len(result.Errors) > 0 {
		msgs := api.FormatMessages(result.Errors, api.FormatMessagesOptions{Kind: api.ErrorMessage})
		return "", fmt.Errorf("%w: %s", ErrJSXTransform, strings.TrimSpace(strings.Join(msgs, "\n")))
	}
	return string(result.Code), nil
}

// ReactConfig configures the React emitter.
type ReactConfig struct {
	Transformer JSXTransformer
	// Import is inserted after the React import.
	Import string
	// Content is inserted into the component body after the markup constant.
	Content string
}

// React emits a function component that returns the document as JSX.
type React struct {
	transformer JSXTransformer
	converter   *htmltojsx.Converter
	imports     string
	content     string
}

// NewReact creates a React emitter. A nil Transformer selects Esbuild.
func NewReact(cfg ReactConfig) *React {
	r := &React{
		transformer: cfg.Transformer,
		converter:   htmltojsx.New(htmltojsx.Config{CreateClass: false}),
		imports:     cfg.Import,
		content:     cfg.Content,
	}
	if r.transformer == nil {
		r.transformer = Esbuild{}
	}
	return r
}

// Emit substitutes metadata placeholders, converts the markup to JSX and
// compiles the resulting component module.
func (r *React) Emit(ctx context.Context, in Input) (string, error) {
	markup := Interpolate(in.Markup, in.Metadata)

	jsx, err := r.converter.Convert(markup)
	if err != nil {
		return "", fmt.Errorf("convert html to jsx: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("import React from 'react'\n")
	sb.WriteString(r.imports)
	sb.WriteString("\n\n")
	sb.WriteString("export default function(props){\n")
	fmt.Fprintf(&sb, "  const html = %s\n", jsx)
	fmt.Fprintf(&sb, "  %s\n", r.content)
	sb.WriteString("  return {...html,...{props:{...html.props,...props}}}\n")
	sb.WriteString("}\n")

	return r.transformer.TransformJSX(ctx, sb.String(), in.ID)
}

var placeholder = regexp.MustCompile(`\{\{(?:.|\r?\n)+?\}\}`)

var placeholderNoise = regexp.MustCompile(`[{}\s]`)

// Interpolate replaces every {{ ... }} placeholder in markup with a metadata
// value. The placeholder text loses its braces and whitespace, its first
// dot-separated segment is dropped and the remaining segments, joined with
// dots, are looked up as one literal top-level key. Missing keys render as
// "undefined".
func Interpolate(markup string, meta *frontmatter.Metadata) string {
	return placeholder.ReplaceAllStringFunc(markup, func(match string) string {
		path := strings.Split(placeholderNoise.ReplaceAllString(match, ""), ".")
		value, ok := meta.Get(strings.Join(path[1:], "."))
		if !ok {
			return "undefined"
		}
		return jsString(value)
	})
}

// jsString converts a metadata value to text the way JavaScript's String()
// does.
func jsString(v any) string {
	switch vv := v.(type) {
	case nil:
		return "null"
	case string:
		return vv
	case bool:
		return strconv.FormatBool(vv)
	case int:
		return strconv.Itoa(vv)
	case int64:
		return strconv.FormatInt(vv, 10)
	case uint64:
		return strconv.FormatUint(vv, 10)
	case float64:
		return jsNumber(vv)
	case time.Time:
		return vv.UTC().Format("Mon Jan 02 2006 15:04:05 GMT-0700") + " (Coordinated Universal Time)"
	case []any:
		parts := make([]string, len(vv))
		for i, item := range vv {
			if item != nil {
				parts[i] = jsString(item)
			}
		}
		return strings.Join(parts, ",")
	case *frontmatter.Fields:
		return "[object Object]"
	default:
		return fmt.Sprint(vv)
	}
}

func jsNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		// JavaScript does not pad exponents to two digits.
		mantissa, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		exp = strings.TrimLeft(exp[1:], "0")
		return mantissa + "e" + sign + exp
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
