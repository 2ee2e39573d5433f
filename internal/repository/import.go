package repository

import (
	"encoding/json"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/postcli/postcli/internal/model"
)

// ImportJSON reads a JSON array of contact objects from path and normalizes
// it with the same column detection used for CSV files.
func ImportJSON(path string) ([]model.Contact, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Mark(errors.Newf("input file not found: %s", path), model.ErrInputNotFound)
		}
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	return ReadJSONContacts(f)
}

// ReadJSONContacts parses a JSON array of objects. Element n is reported as row n+1
// so numbering matches the CSV the import produces.
func ReadJSONContacts(r io.Reader) ([]model.Contact, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var items []map[string]any
	if err := dec.Decode(&items); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "expected a JSON array of objects"), model.ErrMalformedInput)
	}
	if len(items) == 0 {
		return nil, nil
	}

	mapping, err := DetectColumns(jsonKeys(items))
	if err != nil {
		return nil, err
	}

	contacts := make([]model.Contact, 0, len(items))
	for i, item := range items {
		value := func(fieldName string) string {
			key, ok := mapping.Header(fieldName)
			if !ok {
				return ""
			}
			return strings.TrimSpace(stringValue(item[key]))
		}
		c := model.Contact{
			Name:    value(model.FieldName),
			Company: value(model.FieldCompany),
			Email:   value(model.FieldEmail),
		}
		if err := checkEmail(i+2, c.Email); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, nil
}

// jsonKeys returns the union of object keys in sorted order
func jsonKeys(items []map[string]any) []string {
	seen := make(map[string]struct{})
	for _, item := range items {
		for k := range item {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
