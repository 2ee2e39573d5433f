package model

// Canonical contact field names
const (
	FieldName    = "name"
	FieldCompany = "company"
	FieldEmail   = "email"
)

// CanonicalFields is the fixed column layout of every file postcli writes
var CanonicalFields = []string{FieldName, FieldCompany, FieldEmail}

// Contact is a canonical contact record. Email is the identity key.
type Contact struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Email   string `json:"email"`
}

// Row returns the contact in canonical column order
func (c Contact) Row() []string {
	return []string{c.Name, c.Company, c.Email}
}

// Fields returns the contact as template variables
func (c Contact) Fields() map[string]string {
	return map[string]string{
		FieldName:    c.Name,
		FieldCompany: c.Company,
		FieldEmail:   c.Email,
	}
}

// ColumnMapping maps a canonical field name to the original header it was detected in
type ColumnMapping map[string]string

// Header returns the source header mapped to field, if any
func (m ColumnMapping) Header(field string) (string, bool) {
	h, ok := m[field]
	return h, ok
}

// EmailSet is a set of email addresses
type EmailSet map[string]struct{}

// Has reports whether email is in the set
func (s EmailSet) Has(email string) bool {
	_, ok := s[email]
	return ok
}

// Add inserts email into the set
func (s EmailSet) Add(email string) {
	s[email] = struct{}{}
}

// EmailsOf collects the emails of contacts into a set
func EmailsOf(contacts []Contact) EmailSet {
	set := make(EmailSet, len(contacts))
	for _, c := range contacts {
		set.Add(c.Email)
	}
	return set
}

// ExcludeEmails returns the contacts whose email is not in set, keeping list order
func ExcludeEmails(contacts []Contact, set EmailSet) []Contact {
	out := make([]Contact, 0, len(contacts))
	for _, c := range contacts {
		if !set.Has(c.Email) {
			out = append(out, c)
		}
	}
	return out
}
