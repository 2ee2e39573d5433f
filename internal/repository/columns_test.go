package repository

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/postcli/postcli/internal/model"
)

func TestNormalizeHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Email", "email"},
		{" E-Mail ", "email"},
		{"Work_Email", "workemail"},
		{"Full Name", "fullname"},
		{"company-name", "companyname"},
		{"ORG\t", "org"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, NormalizeHeader(tt.in), tt.in)
	}
}

func TestDetectColumns_AliasVariants(t *testing.T) {
	t.Parallel()

	for _, alias := range EmailAliases {
		mapping, err := DetectColumns([]string{"Notes", alias})
		require.NoError(t, err, alias)
		require.Equal(t, alias, mapping[model.FieldEmail])
	}
}

func TestDetectColumns_FirstMatchWins(t *testing.T) {
	t.Parallel()

	mapping, err := DetectColumns([]string{"Full Name", "Work Email", "Email", "First Name", "Organization", "Company"})
	require.NoError(t, err)
	require.Equal(t, "Work Email", mapping[model.FieldEmail])
	require.Equal(t, "Full Name", mapping[model.FieldName])
	require.Equal(t, "Organization", mapping[model.FieldCompany])
}

func TestDetectColumns_OptionalFieldsUnmapped(t *testing.T) {
	t.Parallel()

	mapping, err := DetectColumns([]string{"mail"})
	require.NoError(t, err)
	_, ok := mapping.Header(model.FieldName)
	require.False(t, ok)
	_, ok = mapping.Header(model.FieldCompany)
	require.False(t, ok)
}

func TestDetectColumns_MissingEmail(t *testing.T) {
	t.Parallel()

	_, err := DetectColumns([]string{"name", "phone"})
	require.Error(t, err)
	require.True(t, errors.Is(err, model.ErrMissingColumn))
	require.Contains(t, err.Error(), `"name", "phone"`)
	require.Contains(t, err.Error(), "work_email")
	require.NotEmpty(t, errors.GetAllHints(err))
}
