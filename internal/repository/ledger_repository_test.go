package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/postcli/postcli/internal/model"
)

func TestLedgerPath(t *testing.T) {
	t.Parallel()

	require.Equal(t, filepath.Join("data", "contacted.csv"), LedgerPath(filepath.Join("data", "contacts.csv")))
}

func TestLoadContactedEmails_Missing(t *testing.T) {
	t.Parallel()

	emails := LoadContactedEmails(filepath.Join(t.TempDir(), "contacts.csv"))
	require.Empty(t, emails)
}

func TestLoadContactedEmails_StopsAtMalformedRow(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, LedgerFileName,
		"name,company,email\n"+
			"A,Acme, a@example.com\n"+
			"B,Beta,b@example.com\n"+
			"C,Gamma,bad\"quote@example.com\n"+
			"D,Delta,d@example.com\n")

	emails := LoadContactedEmails(filepath.Join(dir, "contacts.csv"))
	require.Len(t, emails, 2)
	require.True(t, emails.Has("a@example.com"))
	require.True(t, emails.Has("b@example.com"))
	require.False(t, emails.Has("d@example.com"))
}

func TestLoadContactedEmails_NoEmailHeader(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, LedgerFileName, "who\na@example.com\n")

	require.Empty(t, LoadContactedEmails(filepath.Join(dir, "contacts.csv")))
}

func TestAppendContacted_CreatesThenAppends(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", LedgerFileName)

	require.NoError(t, AppendContacted(path, []model.Contact{{Name: "A", Company: "Acme", Email: "a@example.com"}}))
	require.NoError(t, AppendContacted(path, []model.Contact{{Name: "B", Email: "b@example.com"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "name,company,email\nA,Acme,a@example.com\nB,,b@example.com\n", string(data))

	emails := LoadContactedEmails(filepath.Join(filepath.Dir(path), "contacts.csv"))
	require.Len(t, emails, 2)
}

func TestAppendContacted_AddsMissingTrailingNewline(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, LedgerFileName, "name,company,email\nA,,a@example.com")

	require.NoError(t, AppendContacted(path, []model.Contact{{Email: "b@example.com"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "name,company,email\nA,,a@example.com\n,,b@example.com\n", string(data))
}
