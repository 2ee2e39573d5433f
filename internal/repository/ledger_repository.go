package repository

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/postcli/postcli/internal/model"
)

// LedgerFileName is the name of the contacted ledger, kept next to the contacts file
const LedgerFileName = "contacted.csv"

// LedgerPath returns the ledger location for a contacts file
func LedgerPath(contactsPath string) string {
	return filepath.Join(filepath.Dir(contactsPath), LedgerFileName)
}

// LoadContactedEmails returns the emails recorded in the ledger next to contactsPath.
// Reading is best effort: a missing or broken ledger yields whatever was read
// before the failure, never an error.
func LoadContactedEmails(contactsPath string) model.EmailSet {
	emails := make(model.EmailSet)

	f, err := os.Open(LedgerPath(contactsPath))
	if err != nil {
		return emails
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return emails
	}
	col := -1
	for i, h := range headers {
		if strings.TrimPrefix(h, utf8BOM) == model.FieldEmail {
			col = i
			break
		}
	}
	if col < 0 {
		return emails
	}

	for {
		record, err := reader.Read()
		if err != nil {
			return emails
		}
		if col >= len(record) {
			continue
		}
		if email := strings.TrimSpace(record[col]); email != "" {
			emails.Add(email)
		}
	}
}

// AppendContacted adds contacts to the ledger at path, creating it with a
// header row when it does not exist yet. Existing rows are kept as they are.
func AppendContacted(path string, contacts []model.Contact) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to read ledger %s", path)
	}

	rows, err := encodeContacts(contacts, len(existing) == 0)
	if err != nil {
		return errors.Wrap(err, "failed to encode ledger rows")
	}

	data := make([]byte, 0, len(existing)+len(rows)+1)
	data = append(data, existing...)
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		data = append(data, '\n')
	}
	data = append(data, rows...)

	return replaceFile(path, data)
}
