package service

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/postcli/postcli/internal/email"
	"github.com/postcli/postcli/internal/logger"
	"github.com/postcli/postcli/internal/model"
	"github.com/postcli/postcli/internal/render"
	"github.com/postcli/postcli/internal/repository"
)

// DefaultSubject is used when neither the caller nor the template frontmatter set one
const DefaultSubject = "Hello"

// State is a stage of the send pipeline
type State string

const (
	StateLoading    State = "loading"
	StateFiltering  State = "filtering"
	StateValidating State = "validating"
	StateDryRun     State = "dry_run"
	StateConnecting State = "connecting"
	StateSending    State = "sending"
	StateCommitting State = "committing"
	StateDone       State = "done"
	StateAborted    State = "aborted"
)

// SendOptions is everything a send run needs from its caller
type SendOptions struct {
	TemplatePath  string
	ContactsPath  string
	Subject       string        // subject template; empty falls back to frontmatter, then DefaultSubject
	FromName      string        // sender display name, optional
	Delay         time.Duration // pause between consecutive sends
	Limit         int           // max recipients after filtering, 0 = unlimited
	SkipContacted bool
	CommitLedger  bool
	DryRun        bool
	LinksDir      string // where links.json is looked up first; defaults to the contacts directory
}

// Result summarizes a send run. On abort it still reflects the work done so far.
type Result struct {
	RunID            string
	State            State
	Loaded           int
	AlreadyContacted int
	Limited          bool
	Attempted        int
	Skipped          int
	Sent             []model.Contact
	Deliveries       []model.Delivery
	DryRun           bool
	Committed        bool
	LedgerPath       string
}

// SendService runs the mail-merge pipeline: load, filter, render, send, commit.
// Sending is strictly sequential with one transport connection per message.
type SendService struct {
	dialer   email.Dialer
	observer Observer
	log      *logger.Logger
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
}

// NewSendService creates a new SendService. dialer may be nil for dry runs.
func NewSendService(dialer email.Dialer, observer Observer, log *logger.Logger) *SendService {
	if observer == nil {
		observer = discardObserver{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SendService{
		dialer:   dialer,
		observer: observer,
		log:      log.WithComponent("send_service"),
		sleep:    sleepContext,
		now:      time.Now,
	}
}

// prepared is a fully rendered message waiting for its turn
type prepared struct {
	contact model.Contact
	subject string
	body    string
}

// Run executes one send run. Any error is fatal: the run stops at the failing
// recipient and the ledger is left untouched. Messages already delivered in
// that run stay delivered but are not committed.
func (s *SendService) Run(ctx context.Context, opts SendOptions) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), DryRun: opts.DryRun, State: StateLoading}
	log := s.log.WithRunID(res.RunID)

	if err := s.run(ctx, res, log, opts); err != nil {
		res.State = StateAborted
		log.Error().Err(err).Int("sent", len(res.Sent)).Msg("run aborted")
		return res, err
	}
	return res, nil
}

func (res *Result) enter(log *logger.Logger, state State) {
	res.State = state
	log.Debug().Str("state", string(state)).Msg("state transition")
}

func (s *SendService) run(ctx context.Context, res *Result, log *logger.Logger, opts SendOptions) error {
	if opts.Delay < 0 {
		return errors.Mark(errors.New("delay must not be negative"), model.ErrConfig)
	}
	if opts.Limit < 0 {
		return errors.Mark(errors.New("limit must not be negative"), model.ErrConfig)
	}

	// Loading
	all, err := repository.LoadContacts(opts.ContactsPath)
	if err != nil {
		return err
	}
	res.Loaded = len(all)
	if len(all) == 0 {
		s.observer.Notify(Event{Kind: EventNoContacts, Path: opts.ContactsPath})
		res.enter(log, StateDone)
		return nil
	}

	// Filtering
	res.enter(log, StateFiltering)
	rows := all
	if opts.SkipContacted {
		contacted := repository.LoadContactedEmails(opts.ContactsPath)
		rows = model.ExcludeEmails(rows, contacted)
		res.AlreadyContacted = len(all) - len(rows)
		if len(rows) == 0 {
			s.observer.Notify(Event{Kind: EventAllContacted, Count: res.AlreadyContacted})
			res.enter(log, StateDone)
			return nil
		}
		if res.AlreadyContacted > 0 {
			s.observer.Notify(Event{Kind: EventAlreadyContacted, Count: res.AlreadyContacted})
		}
	}
	if opts.Limit > 0 && len(rows) > opts.Limit {
		rows = rows[:opts.Limit]
		res.Limited = true
		s.observer.Notify(Event{Kind: EventLimited, Count: opts.Limit})
	}

	// Validating
	res.enter(log, StateValidating)
	messages, err := s.prepare(opts, rows)
	if err != nil {
		return err
	}

	s.observer.Notify(Event{Kind: EventStarting, Total: len(messages), DryRun: opts.DryRun})
	log.Info().Int("recipients", len(messages)).Bool("dry_run", opts.DryRun).Msg("starting run")

	if opts.DryRun {
		res.enter(log, StateDryRun)
	} else {
		res.enter(log, StateConnecting)
		if err := s.verifyTransport(ctx); err != nil {
			return err
		}
	}

	// Sending
	res.enter(log, StateSending)
	for i, msg := range messages {
		to := strings.TrimSpace(msg.contact.Email)
		if to == "" {
			res.Skipped++
			res.Deliveries = append(res.Deliveries, model.Delivery{Contact: msg.contact, Outcome: model.OutcomeSkippedEmpty})
			s.observer.Notify(Event{Kind: EventSkipped, Index: i, Total: len(messages), Contact: msg.contact})
			continue
		}

		if opts.DryRun {
			res.Deliveries = append(res.Deliveries, model.Delivery{Contact: msg.contact, Outcome: model.OutcomePreviewed})
			s.observer.Notify(Event{
				Kind: EventPreview, Index: i, Total: len(messages),
				Contact: msg.contact, Subject: msg.subject, Body: msg.body,
			})
			continue
		}

		res.Attempted++
		start := s.now()
		err := s.deliver(ctx, email.Message{
			FromName: opts.FromName,
			To:       to,
			Subject:  msg.subject,
			Body:     msg.body,
		})
		elapsed := s.now().Sub(start)
		if err != nil {
			res.Deliveries = append(res.Deliveries, model.Delivery{Contact: msg.contact, Outcome: model.OutcomeFailed, Duration: elapsed})
			err = &model.RecipientError{Email: to, Err: err}
			s.observer.Notify(Event{Kind: EventFailed, Index: i, Total: len(messages), Contact: msg.contact, Err: err})
			return err
		}

		res.Sent = append(res.Sent, msg.contact)
		res.Deliveries = append(res.Deliveries, model.Delivery{Contact: msg.contact, Outcome: model.OutcomeSent, Duration: elapsed})
		log.SendResult(to, i, len(messages), elapsed)
		s.observer.Notify(Event{Kind: EventSent, Index: i, Total: len(messages), Contact: msg.contact, Duration: elapsed})

		if opts.Delay > 0 && i < len(messages)-1 {
			s.observer.Notify(Event{Kind: EventWaiting, Index: i, Total: len(messages), Duration: opts.Delay})
			if err := s.sleep(ctx, opts.Delay); err != nil {
				return errors.Wrap(err, "interrupted while waiting between sends")
			}
		}
	}

	// Committing
	if !opts.DryRun && opts.CommitLedger && len(res.Sent) > 0 {
		res.enter(log, StateCommitting)
		if err := res.commit(opts.ContactsPath, all); err != nil {
			return err
		}
		s.observer.Notify(Event{Kind: EventCommitted, Count: len(res.Sent), Path: res.LedgerPath})
	}

	res.enter(log, StateDone)
	s.observer.Notify(Event{Kind: EventDone, Count: len(res.Sent), Total: len(messages), DryRun: opts.DryRun})
	log.RunSummary(map[string]interface{}{
		"loaded":            res.Loaded,
		"already_contacted": res.AlreadyContacted,
		"sent":              len(res.Sent),
		"skipped":           res.Skipped,
		"committed":         res.Committed,
	})
	return nil
}

// prepare compiles both templates once and renders every recipient up front,
// so a template/context mismatch aborts before any network traffic.
func (s *SendService) prepare(opts SendOptions, rows []model.Contact) ([]prepared, error) {
	body, err := render.LoadFile(opts.TemplatePath)
	if err != nil {
		return nil, err
	}

	subjectText := opts.Subject
	if subjectText == "" {
		subjectText = body.Subject()
	}
	if subjectText == "" {
		subjectText = DefaultSubject
	}
	subject, err := render.Compile("subject", subjectText)
	if err != nil {
		return nil, err
	}

	linksDir := opts.LinksDir
	if linksDir == "" {
		linksDir = filepath.Dir(opts.ContactsPath)
	}
	links := repository.LoadLinks(linksDir)

	out := make([]prepared, 0, len(rows))
	for _, c := range rows {
		rc := model.NewRenderContext(links, c)
		renderedBody, err := body.Render(rc)
		if err != nil {
			return nil, &model.RecipientError{Email: c.Email, Err: err}
		}
		renderedSubject, err := subject.Render(rc)
		if err != nil {
			return nil, &model.RecipientError{Email: c.Email, Err: err}
		}
		out = append(out, prepared{contact: c, subject: renderedSubject, body: renderedBody})
	}
	return out, nil
}

// verifyTransport opens and closes one connection to check credentials and reachability
func (s *SendService) verifyTransport(ctx context.Context) error {
	if s.dialer == nil {
		return errors.Mark(errors.New("no mail transport configured"), model.ErrConfig)
	}
	conn, err := s.dialer.Dial(ctx)
	if err != nil {
		return err
	}
	if err := conn.Close(); err != nil {
		s.log.Warn().Err(err).Msg("failed to close verification connection")
	}
	return nil
}

// deliver sends msg over a fresh connection
func (s *SendService) deliver(ctx context.Context, msg email.Message) error {
	conn, err := s.dialer.Dial(ctx)
	if err != nil {
		return err
	}
	if err := conn.Send(ctx, msg); err != nil {
		_ = conn.Close()
		return err
	}
	if err := conn.Close(); err != nil {
		s.log.Warn().Err(err).Str("recipient", msg.To).Msg("failed to close connection after send")
	}
	return nil
}

// commit appends the sent contacts to the ledger and drops them from the
// contacts file. The two files are each replaced atomically but not together:
// a failure between the writes leaves them out of sync.
func (res *Result) commit(contactsPath string, all []model.Contact) error {
	res.LedgerPath = repository.LedgerPath(contactsPath)
	if err := repository.AppendContacted(res.LedgerPath, res.Sent); err != nil {
		return errors.Wrap(err, "failed to update ledger")
	}
	remaining := model.ExcludeEmails(all, model.EmailsOf(res.Sent))
	if err := repository.WriteContacts(contactsPath, remaining); err != nil {
		return errors.WithHint(errors.Wrap(err, "failed to rewrite contacts file"),
			"the ledger was already updated; remove the sent contacts from the contacts file by hand")
	}
	res.Committed = true
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
