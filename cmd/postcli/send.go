package main

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/postcli/postcli/internal/display"
	"github.com/postcli/postcli/internal/email"
	"github.com/postcli/postcli/internal/model"
	"github.com/postcli/postcli/internal/service"
)

type sendFlags struct {
	template      string
	contacts      string
	subject       string
	fromName      string
	delay         int
	limit         int
	skipContacted bool
	dryRun        bool
	commit        bool
}

func newSendCmd() *cobra.Command {
	var f sendFlags
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Render the template for every contact and send it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.template, "template", "t", "template.txt", "message body template")
	flags.StringVarP(&f.contacts, "contacts", "c", "contacts.csv", "contacts CSV file")
	flags.StringVarP(&f.subject, "subject", "s", "", `subject template (default: template frontmatter, then "Hello")`)
	flags.StringVar(&f.fromName, "from-name", "", "sender display name (default: email.sender_name)")
	flags.IntVarP(&f.delay, "delay", "d", 0, "seconds to wait between sends")
	flags.IntVarP(&f.limit, "limit", "n", 0, "send to at most N contacts (0 = all)")
	flags.BoolVar(&f.skipContacted, "skip-contacted", false, "skip addresses already in contacted.csv")
	flags.BoolVar(&f.dryRun, "dry-run", false, "preview messages without sending")
	flags.BoolVar(&f.commit, "commit", true, "move sent contacts to contacted.csv")
	return cmd
}

func runSend(cmd *cobra.Command, f sendFlags) error {
	if f.delay < 0 {
		return errors.Mark(errors.New("--delay must not be negative"), model.ErrConfig)
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	// settings are only checked once the run needs to connect
	var dialer email.Dialer
	if !f.dryRun {
		dialer = email.Lazy(func(ctx context.Context) (email.Dialer, error) {
			return buildDialer(ctx, cfg)
		})
	}

	fromName := f.fromName
	if fromName == "" {
		fromName = cfg.Email.SenderName
	}

	svc := service.NewSendService(dialer, display.NewPresenter(cmd.OutOrStdout()), log)
	_, err = svc.Run(cmd.Context(), service.SendOptions{
		TemplatePath:  f.template,
		ContactsPath:  f.contacts,
		Subject:       f.subject,
		FromName:      fromName,
		Delay:         time.Duration(f.delay) * time.Second,
		Limit:         f.limit,
		SkipContacted: f.skipContacted,
		CommitLedger:  f.commit,
		DryRun:        f.dryRun,
	})
	return err
}
