// Package render compiles mail templates and renders them per recipient.
//
// Placeholders use the {{ name }} form. Bare identifiers are rewritten to
// text/template field lookups, so {{ name }} and {{ .name }} are equivalent and
// the rest of the text/template language ({{if .company}}...{{end}}) is available.
// Referencing a variable that is not in the render context is an error.
package render

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/cockroachdb/errors"

	"github.com/postcli/postcli/internal/model"
)

// Template is a compiled body or subject template
type Template struct {
	name     string
	tmpl     *template.Template
	metadata map[string]any
}

// placeholder matches {{ ident }} with optional trim markers
var placeholder = regexp.MustCompile(`\{\{(-?)\s*([A-Za-z_][A-Za-z0-9_]*)\s*(-?)\}\}`)

// keywords are bare identifiers that text/template already understands
var keywords = map[string]bool{
	"end": true, "else": true, "break": true, "continue": true,
	"nil": true, "true": true, "false": true,
	"if": true, "range": true, "with": true, "define": true, "template": true, "block": true,
}

var missingKey = regexp.MustCompile(`map has no entry for key "([^"]*)"`)

// LoadFile compiles the template file at path. A leading YAML frontmatter block
// is parsed into metadata and stripped from the body.
func LoadFile(path string) (*Template, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err := errors.Mark(errors.Newf("template not found: %s", path), model.ErrTemplateNotFound)
			return nil, errors.Mark(err, model.ErrInputNotFound)
		}
		return nil, errors.Mark(errors.Wrapf(err, "failed to read template %s", path), model.ErrTemplateNotFound)
	}

	metadata, body, err := splitFrontmatter(content)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}

	t, err := Compile(filepath.Base(path), string(body))
	if err != nil {
		return nil, err
	}
	t.metadata = metadata
	return t, nil
}

// Compile compiles template text supplied directly, such as a subject line
func Compile(name, text string) (*Template, error) {
	tmpl, err := template.New(name).
		Option("missingkey=error").
		Parse(rewritePlaceholders(text))
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "failed to parse template %s", name), model.ErrTemplateCompile)
	}
	return &Template{name: name, tmpl: tmpl, metadata: map[string]any{}}, nil
}

// Subject returns the subject declared in frontmatter, if any
func (t *Template) Subject() string {
	for _, key := range []string{"subject", "Subject"} {
		if v, ok := t.metadata[key]; ok && v != nil {
			return fmt.Sprint(v)
		}
	}
	return ""
}

// Render fills the template with ctx. A reference to a key missing from ctx
// fails with model.ErrUndefinedVariable instead of rendering blank.
func (t *Template) Render(ctx model.RenderContext) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, map[string]string(ctx)); err != nil {
		if m := missingKey.FindStringSubmatch(err.Error()); m != nil {
			return "", errors.Mark(errors.Newf("%s: '%s' is undefined", t.name, m[1]), model.ErrUndefinedVariable)
		}
		return "", errors.Mark(errors.Wrapf(err, "failed to render template %s", t.name), model.ErrTemplateCompile)
	}
	return buf.String(), nil
}

func rewritePlaceholders(text string) string {
	return placeholder.ReplaceAllStringFunc(text, func(m string) string {
		parts := placeholder.FindStringSubmatch(m)
		ident := parts[2]
		if keywords[ident] {
			return m
		}
		var b strings.Builder
		b.WriteString("{{")
		if parts[1] != "" {
			b.WriteString("- ")
		}
		b.WriteString(".")
		b.WriteString(ident)
		if parts[3] != "" {
			b.WriteString(" -")
		}
		b.WriteString("}}")
		return b.String()
	})
}
