package service

import (
	"context"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/postcli/postcli/internal/email"
	"github.com/postcli/postcli/internal/logger"
	"github.com/postcli/postcli/internal/model"
	"github.com/postcli/postcli/internal/render"
	"github.com/postcli/postcli/internal/repository"
)

// ValidateOptions selects what ValidateService checks. Empty paths are skipped.
type ValidateOptions struct {
	TemplatePath string
	Subject      string
	ContactsPath string
	Links        bool
	LinksDir     string
	Transport    bool
}

// Check is the outcome of one validation
type Check struct {
	Name    string
	Message string
	Skipped bool
	Err     error
}

// OK reports whether the check passed or was skipped
func (c Check) OK() bool { return c.Err == nil }

// ValidateService checks templates, contacts, links.json and the transport
// without sending anything.
type ValidateService struct {
	dialer email.Dialer
	log    *logger.Logger
}

// NewValidateService creates a new ValidateService
func NewValidateService(dialer email.Dialer, log *logger.Logger) *ValidateService {
	if log == nil {
		log = logger.Nop()
	}
	return &ValidateService{dialer: dialer, log: log.WithComponent("validate_service")}
}

// sampleContext covers every key a template may legitimately reference
func sampleContext() model.RenderContext {
	return model.NewRenderContext(
		model.LinkContext{SenderName: "Test"},
		model.Contact{Name: "Test", Company: "Test Co", Email: "test@example.com"},
	)
}

// Run performs the selected checks in a fixed order
func (s *ValidateService) Run(ctx context.Context, opts ValidateOptions) []Check {
	var checks []Check
	if opts.TemplatePath != "" {
		checks = append(checks, s.checkTemplate(opts.TemplatePath, opts.Subject))
	}
	if opts.ContactsPath != "" {
		checks = append(checks, s.checkContacts(opts.ContactsPath))
	}
	if opts.Links {
		checks = append(checks, s.checkLinks(opts.LinksDir))
	}
	if opts.Transport {
		checks = append(checks, s.checkTransport(ctx))
	}

	for _, c := range checks {
		if c.Err != nil {
			s.log.Debug().Str("check", c.Name).Err(c.Err).Msg("validation failed")
		}
	}
	return checks
}

func (s *ValidateService) checkTemplate(path, subject string) Check {
	check := Check{Name: "template"}
	tmpl, err := render.LoadFile(path)
	if err != nil {
		check.Err = errors.Wrap(err, "template error")
		return check
	}
	if _, err := tmpl.Render(sampleContext()); err != nil {
		check.Err = errors.Wrap(err, "template error")
		return check
	}

	if subject == "" {
		subject = tmpl.Subject()
	}
	if subject != "" {
		subj, err := render.Compile("subject", subject)
		if err == nil {
			_, err = subj.Render(sampleContext())
		}
		if err != nil {
			check.Err = errors.Wrap(err, "subject error")
			return check
		}
	}

	check.Message = fmt.Sprintf("Template OK: %s", path)
	return check
}

func (s *ValidateService) checkContacts(path string) Check {
	check := Check{Name: "contacts"}
	rows, err := repository.LoadContacts(path)
	if err != nil {
		check.Err = errors.Wrap(err, "contacts error")
		return check
	}
	check.Message = fmt.Sprintf("Contacts OK: %d row(s) in %s", len(rows), path)
	return check
}

// checkLinks is stricter than the send pipeline: a broken links.json is reported
func (s *ValidateService) checkLinks(dir string) Check {
	check := Check{Name: "links"}
	for _, path := range repository.LinksSearchPath(dir) {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if _, err := repository.ParseLinks(data); err != nil {
			check.Err = errors.Mark(errors.Wrapf(err, "%s invalid", path), model.ErrMalformedInput)
			return check
		}
		check.Message = fmt.Sprintf("%s OK", path)
		return check
	}
	check.Skipped = true
	check.Message = fmt.Sprintf("%s not found (optional)", repository.LinksFileName)
	return check
}

func (s *ValidateService) checkTransport(ctx context.Context) Check {
	check := Check{Name: "transport"}
	if s.dialer == nil {
		check.Err = errors.Mark(errors.New("no mail transport configured"), model.ErrConfig)
		return check
	}
	conn, err := s.dialer.Dial(ctx)
	if err != nil {
		check.Err = err
		return check
	}
	if err := conn.Close(); err != nil {
		s.log.Warn().Err(err).Msg("failed to close transport connection")
	}
	check.Message = "Transport OK"
	return check
}
