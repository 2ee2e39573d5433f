package repository

import (
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"

	"github.com/postcli/postcli/internal/model"
)

// Header aliases per canonical field, in the order they are reported to users
var (
	EmailAliases   = []string{"email", "e-mail", "mail", "emailaddress", "email_address", "workemail", "work_email"}
	NameAliases    = []string{"name", "fullname", "full_name", "contactname", "contact_name", "recipient", "firstname", "first_name"}
	CompanyAliases = []string{"company", "companyname", "company_name", "organization", "org"}
)

// aliasIndex maps a normalized alias to its canonical field
var aliasIndex = buildAliasIndex()

func buildAliasIndex() map[string]string {
	idx := make(map[string]string)
	add := func(field string, aliases []string) {
		for _, a := range aliases {
			idx[NormalizeHeader(a)] = field
		}
	}
	add(model.FieldEmail, EmailAliases)
	add(model.FieldName, NameAliases)
	add(model.FieldCompany, CompanyAliases)
	return idx
}

// NormalizeHeader lowercases h and drops whitespace, underscores and hyphens.
// It is only used for alias matching; original headers are kept for lookups.
func NormalizeHeader(h string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '_' || r == '-' {
			return -1
		}
		return unicode.ToLower(r)
	}, h)
}

// CanonicalField returns the canonical field a header maps to, if any
func CanonicalField(header string) (string, bool) {
	f, ok := aliasIndex[NormalizeHeader(header)]
	return f, ok
}

// DetectColumns builds the column mapping for headers.
// The first header matching a field wins; the email column is mandatory.
func DetectColumns(headers []string) (model.ColumnMapping, error) {
	mapping := make(model.ColumnMapping, 3)
	for _, h := range headers {
		field, ok := CanonicalField(h)
		if !ok {
			continue
		}
		if _, taken := mapping[field]; !taken {
			mapping[field] = h
		}
	}

	if _, ok := mapping[model.FieldEmail]; !ok {
		err := errors.Mark(errors.Newf(
			"could not find email column. Expected one of: %s. Found headers: %s",
			strings.Join(EmailAliases, ", "), quoteList(headers)), model.ErrMissingColumn)
		return nil, errors.WithHintf(err,
			"rename the column holding addresses to one of: %s", strings.Join(EmailAliases, ", "))
	}
	return mapping, nil
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = `"` + s + `"`
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
