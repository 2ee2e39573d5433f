package repository

import (
	"encoding/csv"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/postcli/postcli/internal/model"
)

const utf8BOM = "\ufeff"

// LoadContacts reads a contacts CSV and normalizes it to canonical records.
// Records are returned in file order, which is also the send order.
func LoadContacts(path string) ([]model.Contact, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Mark(errors.Newf("contacts file not found: %s", path), model.ErrInputNotFound)
		}
		return nil, errors.Wrapf(err, "failed to open contacts file %s", path)
	}
	defer f.Close()

	contacts, err := ReadContacts(f)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return contacts, nil
}

// ReadContacts parses contacts CSV content from r
func ReadContacts(r io.Reader) ([]model.Contact, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	// stray quotes inside unquoted fields are kept as text
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, errors.Mark(errors.New("CSV has no headers"), model.ErrMalformedInput)
	}
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to read CSV header"), model.ErrMalformedInput)
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], utf8BOM)
	}

	mapping, err := DetectColumns(headers)
	if err != nil {
		return nil, err
	}
	index := columnIndex(headers, mapping)

	var contacts []model.Contact
	for row := 2; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "row %d", row), model.ErrMalformedInput)
		}

		c := model.Contact{
			Name:    field(record, index, model.FieldName),
			Company: field(record, index, model.FieldCompany),
			Email:   field(record, index, model.FieldEmail),
		}
		if err := checkEmail(row, c.Email); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, nil
}

// WriteContacts overwrites path with contacts in canonical layout.
// The header row is always written, even for an empty list.
func WriteContacts(path string, contacts []model.Contact) error {
	data, err := encodeContacts(contacts, true)
	if err != nil {
		return errors.Wrap(err, "failed to encode contacts")
	}
	return replaceFile(path, data)
}

// checkEmail rejects blank addresses and ones that would break a mail header
func checkEmail(row int, email string) error {
	if email == "" {
		return &model.RowError{Row: row, Field: model.FieldEmail, Err: model.ErrMissingField}
	}
	if strings.ContainsAny(email, "\r\n") {
		return &model.RowError{Row: row, Field: model.FieldEmail,
			Err: errors.Mark(errors.New("line break in address"), model.ErrMalformedInput)}
	}
	return nil
}

// columnIndex resolves each mapped field to its position in the header row
func columnIndex(headers []string, mapping model.ColumnMapping) map[string]int {
	index := make(map[string]int, len(mapping))
	for fieldName, header := range mapping {
		for i, h := range headers {
			if h == header {
				index[fieldName] = i
				break
			}
		}
	}
	return index
}

// field returns the trimmed value of a canonical field, or "" when unmapped or short
func field(record []string, index map[string]int, name string) string {
	i, ok := index[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
