package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/greg-hellings/execadmin/pkg/datetime"
	"github.com/greg-hellings/execadmin/pkg/state"
)

// now is replaced in tests.
var now = time.Now

type dateFlags struct {
	setFormat string
	from      string
	to        string
	list      bool
	hour12    bool
}

var dtFlags dateFlags

func newDateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "date [text]",
		Short: "Show, check or configure the client date format",
		Long: strings.TrimSpace(`
Without arguments print today's date in the configured pattern. With a date
argument check it against the pattern and print it as ISO yyyy-mm-dd.

Examples:
  execadmin date
  execadmin date 2024/02/29
  execadmin date --from 2024/01/01 --to 2024/12/31
  execadmin date --set-format dd/mm/yyyy
`),
		Args: cobra.MaximumNArgs(1),
		RunE: runDate,
	}
	c.Flags().StringVar(&dtFlags.setFormat, "set-format", "", "Store a new date pattern in the client settings")
	c.Flags().StringVar(&dtFlags.from, "from", "", "Start of a range to check (with --to)")
	c.Flags().StringVar(&dtFlags.to, "to", "", "End of a range to check (with --from)")
	c.Flags().BoolVar(&dtFlags.list, "formats", false, "List the supported patterns")
	c.Flags().BoolVar(&dtFlags.hour12, "12h", false, "Show the time with a 12-hour clock")
	return c
}

func runDate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if dtFlags.list {
		for _, f := range datetime.AvailableFormats() {
			fmt.Fprintln(out, f)
		}
		return nil
	}

	cfg, store, err := openStore()
	if err != nil {
		return err
	}
	svc := datetime.NewService(store)
	if dtFlags.setFormat != "" {
		if err := svc.SetFormat(dtFlags.setFormat); err != nil {
			return err
		}
		fmt.Fprintf(out, "Date format set to %s\n", svc.Format())
		return nil
	}
	if svc.Format() == "" {
		// Nothing stored yet: use the configured pattern without persisting it.
		svc = datetime.NewService(nil)
		if err := svc.SetFormat(cfg.Client.DateFormat); err != nil {
			return err
		}
	}

	switch {
	case dtFlags.from != "" || dtFlags.to != "":
		if dtFlags.from == "" || dtFlags.to == "" {
			return errors.New("--from and --to must be given together")
		}
		if !svc.ValidateFromTo(dtFlags.from, dtFlags.to) {
			return fmt.Errorf("invalid range %s - %s for pattern %s", dtFlags.from, dtFlags.to, svc.Format())
		}
		fmt.Fprintln(out, "Range is valid.")
	case len(args) == 1:
		if !svc.IsValidDateString(args[0]) {
			return fmt.Errorf("%q is not a valid date for pattern %s", args[0], svc.Format())
		}
		t, err := svc.Parse(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, t.Format(time.DateOnly))
	default:
		t := now()
		clock := datetime.Time24(t)
		if dtFlags.hour12 {
			clock = datetime.Time12(t)
		}
		fmt.Fprintf(out, "%s  %s\n", svc.DisplayDate(t), clock)
	}
	return nil
}

var tokenShow bool

func newTokenCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "token",
		Short: "Manage stored backend tokens",
		Long: strings.TrimSpace(`
Tokens are kept in the client settings file (mode 0600) keyed by backend
host. EXECADMIN_<HOST>_TOKEN, then a token in the configuration file for the
configured backend, take precedence over a stored one. 'get' and 'list' show
the layered view; 'set' and 'delete' change the settings file only.`),
	}

	c.AddCommand(&cobra.Command{
		Use:   "set <backend> <token>",
		Short: "Store a token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := openStore()
			if err != nil {
				return err
			}
			if err := state.NewFileCredentialStore(store).SetToken(args[0], strings.TrimSpace(args[1])); err != nil {
				return fmt.Errorf("failed to store token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token stored for %s\n", args[0])
			return nil
		},
	})

	get := &cobra.Command{
		Use:   "get <backend>",
		Short: "Print the token that would be used for a backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := openStore()
			if err != nil {
				return err
			}
			tok, err := state.ResolveBackendToken(args[0], nil, credentials(cfg, store))
			if err != nil {
				return err
			}
			if tok == "" {
				return fmt.Errorf("no token for %s: %w", args[0], state.ErrCredentialNotFound)
			}
			if !tokenShow {
				tok = state.RedactToken(tok)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	get.Flags().BoolVar(&tokenShow, "show", false, "Print the token instead of a redacted form")
	c.AddCommand(get)

	c.AddCommand(&cobra.Command{
		Use:   "delete <backend>",
		Short: "Remove a stored token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := openStore()
			if err != nil {
				return err
			}
			if err := state.NewFileCredentialStore(store).DeleteToken(args[0]); err != nil {
				return fmt.Errorf("failed to delete token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token removed for %s\n", args[0])
			return nil
		},
	})

	c.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List backends with a stored or configured token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := openStore()
			if err != nil {
				return err
			}
			creds := credentials(cfg, store)
			names, err := creds.ListBackends()
			if err != nil {
				return err
			}
			for _, n := range names {
				tok, err := creds.GetToken(n)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", n, state.RedactToken(tok))
			}
			return nil
		},
	})
	return c
}
