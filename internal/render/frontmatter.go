package render

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/postcli/postcli/internal/model"
)

var delimiter = []byte("---")

// splitFrontmatter separates an optional leading YAML block from the template body.
// Content that does not open with a "---" line, or never closes the block, is
// returned untouched.
func splitFrontmatter(content []byte) (map[string]any, []byte, error) {
	rest, ok := openingDelimiter(content)
	if !ok {
		return map[string]any{}, content, nil
	}

	end := bytes.Index(rest, append([]byte("\n"), delimiter...))
	var front []byte
	switch {
	case bytes.HasPrefix(rest, delimiter):
		end = 0
	case end == -1:
		// a lone leading rule is body text
		return map[string]any{}, content, nil
	default:
		front = rest[:end]
		end++
	}
	body := rest[end+len(delimiter):]
	// one line break after the closing delimiter belongs to it
	if bytes.HasPrefix(body, []byte("\r\n")) {
		body = body[2:]
	} else if bytes.HasPrefix(body, []byte("\n")) {
		body = body[1:]
	}

	metadata := map[string]any{}
	if len(bytes.TrimSpace(front)) > 0 {
		if err := yaml.Unmarshal(front, &metadata); err != nil {
			return nil, nil, errors.Mark(errors.Wrap(err, "invalid frontmatter"), model.ErrTemplateCompile)
		}
	}
	return metadata, body, nil
}

func openingDelimiter(content []byte) ([]byte, bool) {
	if !bytes.HasPrefix(content, delimiter) {
		return nil, false
	}
	rest := content[len(delimiter):]
	switch {
	case bytes.HasPrefix(rest, []byte("\r\n")):
		return rest[2:], true
	case bytes.HasPrefix(rest, []byte("\n")):
		return rest[1:], true
	}
	return nil, false
}
