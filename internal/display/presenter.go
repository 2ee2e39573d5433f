// Package display renders send pipeline events for a terminal.
package display

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"

	"github.com/postcli/postcli/internal/service"
)

// Presenter prints service events as colored status lines and preview panels
type Presenter struct {
	out io.Writer
}

// NewPresenter creates a Presenter writing to out
func NewPresenter(out io.Writer) *Presenter {
	return &Presenter{out: out}
}

func (p *Presenter) println(a ...any) {
	_, _ = fmt.Fprintln(p.out, a...)
}

// Notify implements service.Observer
func (p *Presenter) Notify(e service.Event) {
	switch e.Kind {
	case service.EventNoContacts:
		p.println(pterm.Yellow("No contacts in CSV."))
	case service.EventAllContacted:
		p.println(pterm.Yellow("All contacts already in contacted.csv. Nothing to send."))
	case service.EventAlreadyContacted:
		p.println(pterm.Gray(fmt.Sprintf("Skipped %d already contacted", e.Count)))
	case service.EventLimited:
		p.println(pterm.Gray(fmt.Sprintf("Limited to %d contact(s)", e.Count)))
	case service.EventStarting:
		p.println(fmt.Sprintf("%s – %d contact(s)", pterm.Bold.Sprint(pterm.Green("postcli")), e.Total))
		if e.DryRun {
			p.println(pterm.Gray("Dry run – preview only, no emails sent"))
			p.println()
		}
	case service.EventPreview:
		p.println(Preview(e))
	case service.EventSent:
		p.println(fmt.Sprintf("%s %s", pterm.Green("Sent to "+e.Contact.Email),
			pterm.Gray(fmt.Sprintf("(%d/%d, %s)", e.Index+1, e.Total, e.Duration.Round(1e6)))))
	case service.EventSkipped:
		p.println(pterm.Yellow(fmt.Sprintf("Skipped recipient %d of %d: empty address", e.Index+1, e.Total)))
	case service.EventFailed:
		p.println(pterm.Red(fmt.Sprintf("Failed to send to %s: %v", e.Contact.Email, e.Err)))
	case service.EventWaiting:
		p.println(pterm.Gray(fmt.Sprintf("Waiting %s…", e.Duration)))
	case service.EventCommitted:
		p.println(pterm.Gray(fmt.Sprintf("Moved %d contact(s) to %s", e.Count, e.Path)))
	case service.EventDone:
		if !e.DryRun {
			p.println(pterm.Green(fmt.Sprintf("Done: %d of %d sent", e.Count, e.Total)))
		}
	}
}

// Preview renders a dry-run message as a titled box
func Preview(e service.Event) string {
	title := fmt.Sprintf("To: %s | Subject: %s", e.Contact.Email, e.Subject)
	return pterm.DefaultBox.
		WithTitle(title).
		WithTitleTopLeft().
		WithBoxStyle(pterm.NewStyle(pterm.FgBlue)).
		Sprint(e.Body)
}

// Success prints a green status line
func (p *Presenter) Success(msg string) { p.println(pterm.Green(msg)) }

// Failure prints a red status line
func (p *Presenter) Failure(msg string) { p.println(pterm.Red(msg)) }

// Notice prints a dim status line
func (p *Presenter) Notice(msg string) { p.println(pterm.Gray(msg)) }

// Warning prints a yellow status line
func (p *Presenter) Warning(msg string) { p.println(pterm.Yellow(msg)) }
