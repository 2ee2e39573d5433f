package repository

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/postcli/postcli/internal/model"
)

func TestReadJSONContacts(t *testing.T) {
	t.Parallel()

	in := `[
		{"Full Name": "Ada", "Organization": "Analytical", "E-mail": " ada@example.com "},
		{"E-mail": "alan@example.com", "phone": 123}
	]`

	contacts, err := ReadJSONContacts(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, []model.Contact{
		{Name: "Ada", Company: "Analytical", Email: "ada@example.com"},
		{Email: "alan@example.com"},
	}, contacts)
}

func TestReadJSONContacts_MissingEmail(t *testing.T) {
	t.Parallel()

	_, err := ReadJSONContacts(strings.NewReader(`[{"email":"a@example.com"},{"email":""}]`))
	var rowErr *model.RowError
	require.True(t, errors.As(err, &rowErr))
	require.Equal(t, 3, rowErr.Row)
}

func TestReadJSONContacts_LineBreakInEmail(t *testing.T) {
	t.Parallel()

	_, err := ReadJSONContacts(strings.NewReader(`[{"email":"eve@example.com\nBcc: victim@example.com"}]`))
	require.True(t, errors.Is(err, model.ErrMalformedInput))
}

func TestReadJSONContacts_NoEmailKey(t *testing.T) {
	t.Parallel()

	_, err := ReadJSONContacts(strings.NewReader(`[{"name":"Ada"}]`))
	require.True(t, errors.Is(err, model.ErrMissingColumn))
}

func TestReadJSONContacts_NotAnArray(t *testing.T) {
	t.Parallel()

	_, err := ReadJSONContacts(strings.NewReader(`{"email":"a@example.com"}`))
	require.True(t, errors.Is(err, model.ErrMalformedInput))
}
