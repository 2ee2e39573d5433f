package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/postcli/postcli/internal/model"
)

// LinksFileName is the optional side file holding link variables
const LinksFileName = "links.json"

// LinksSearchPath lists the candidate links.json locations: workDir first, then the cwd
func LinksSearchPath(workDir string) []string {
	var paths []string
	if workDir != "" {
		paths = append(paths, filepath.Join(workDir, LinksFileName))
	}
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, LinksFileName))
	}
	return paths
}

// LoadLinks loads the link context from the first links.json found.
// Any failure yields the all-empty context; it never fails the run.
func LoadLinks(workDir string) model.LinkContext {
	for _, path := range LinksSearchPath(workDir) {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		links, err := ParseLinks(data)
		if err != nil {
			return model.LinkContext{}
		}
		return links
	}
	return model.LinkContext{}
}

// ParseLinks decodes links.json content. Unknown keys are ignored and
// non-string values are coerced to their textual form.
func ParseLinks(data []byte) (model.LinkContext, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return model.LinkContext{}, err
	}

	return model.LinkContext{
		X:          stringValue(raw[model.LinkX]),
		LinkedIn:   stringValue(raw[model.LinkLinkedIn]),
		GitHub:     stringValue(raw[model.LinkGitHub]),
		Portfolio:  stringValue(raw[model.LinkPortfolio]),
		Resume:     stringValue(raw[model.LinkResume]),
		SenderName: stringValue(raw[model.LinkSender]),
	}, nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool, map[string]any, []any:
		b, _ := json.Marshal(val)
		return string(b)
	default:
		return fmt.Sprint(val)
	}
}
