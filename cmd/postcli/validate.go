package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/postcli/postcli/internal/display"
	"github.com/postcli/postcli/internal/email"
	"github.com/postcli/postcli/internal/service"
)

type validateFlags struct {
	template  string
	subject   string
	contacts  string
	links     bool
	transport bool
}

func newValidateCmd() *cobra.Command {
	var f validateFlags
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check template, contacts, links.json and mail settings without sending",
		Long: "Check template, contacts, links.json and mail settings without sending.\n" +
			"With no flags, checks template.txt and contacts.csv in the current directory when present, plus links.json and the transport.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.template, "template", "t", "", "template file to check")
	flags.StringVarP(&f.subject, "subject", "s", "", "subject template to check")
	flags.StringVarP(&f.contacts, "contacts", "c", "", "contacts CSV to check")
	flags.BoolVar(&f.links, "links", false, "check links.json")
	flags.BoolVar(&f.transport, "smtp", false, "check mail settings by connecting and authenticating")
	return cmd
}

// defaultValidateOptions fills in the checks run when nothing was selected
func defaultValidateOptions(f validateFlags) service.ValidateOptions {
	opts := service.ValidateOptions{
		TemplatePath: f.template,
		Subject:      f.subject,
		ContactsPath: f.contacts,
		Links:        f.links,
		Transport:    f.transport,
	}
	if f.template != "" || f.contacts != "" || f.links || f.transport {
		return opts
	}

	if fileExists("template.txt") {
		opts.TemplatePath = "template.txt"
	}
	if fileExists("contacts.csv") {
		opts.ContactsPath = "contacts.csv"
	}
	opts.Links = true
	opts.Transport = true
	return opts
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func runValidate(cmd *cobra.Command, f validateFlags) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	opts := defaultValidateOptions(f)

	var dialer email.Dialer
	if opts.Transport {
		dialer = email.Lazy(func(ctx context.Context) (email.Dialer, error) {
			return buildDialer(ctx, cfg)
		})
	}

	out := display.NewPresenter(cmd.OutOrStdout())
	checks := service.NewValidateService(dialer, log).Run(cmd.Context(), opts)
	if len(checks) == 0 {
		out.Warning("Nothing to validate.")
		return nil
	}

	failed := false
	for _, c := range checks {
		switch {
		case c.Err != nil:
			failed = true
			out.Failure(c.Err.Error())
		case c.Skipped:
			out.Notice(c.Message)
		default:
			out.Success(c.Message)
		}
	}
	if failed {
		return errChecksFailed
	}
	out.Success("All checks passed.")
	return nil
}
