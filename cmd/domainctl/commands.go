package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yanizio/adept-domain/internal/app"
	"github.com/yanizio/adept-domain/internal/domain"
	"github.com/yanizio/adept-domain/internal/message"
)

// opener builds the App for one command run.
type opener func(ctx context.Context, debug bool) (*app.App, error)

type cli struct {
	open  opener
	debug bool
	app   *app.App
}

func newRootCmd(open opener) *cobra.Command {
	c := &cli{open: open}

	root := &cobra.Command{
		Use:          "domainctl",
		Short:        "Manage Adept domain records",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(cmd.Context(), c.debug)
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if c.app == nil {
				return nil
			}
			return c.app.Close()
		},
	}
	root.PersistentFlags().BoolVar(&c.debug, "debug", false, "verbose logging to stderr")

	root.AddCommand(
		c.migrateCmd(),
		c.listCmd(),
		c.showCmd(),
		c.createCmd(),
		c.resultCmd("default", "Make a record the default", (*domain.Service).Promote),
		c.resultCmd("enable", "Enable a record", (*domain.Service).Enable),
		c.resultCmd("disable", "Disable a record", (*domain.Service).Disable),
		c.resultCmd("delete", "Delete a record", (*domain.Service).Delete),
		c.setCmd(),
		c.repairCmd(),
		c.checkCmd(),
	)
	return root
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the domain tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.app.SQL == nil {
				return errors.New("migrate needs a MySQL store")
			}
			if err := c.app.SQL.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func (c *cli) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List records by weight",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			recs, err := c.app.Service.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "(no domain records)")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tHOSTNAME\tSCHEME\tSTATUS\tWEIGHT\tDEFAULT")
			for _, r := range recs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
					r.ID, r.Hostname, r.SchemeName(false), onOff(r.Status), r.Weight, mark(r.IsDefault))
			}
			return tw.Flush()
		},
	}
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <domain>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.app.Service.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printRecord(cmd.OutOrStdout(), r, c.app.Config.HTTP.BasePath)
			return nil
		},
	}
}

func (c *cli) createCmd() *cobra.Command {
	var (
		d        domain.Draft
		https    bool
		def      bool
		disabled bool
		weight   int
		redirect int
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			if f.Changed("default") {
				d.IsDefault = &def
			}
			if f.Changed("disabled") {
				on := !disabled
				d.Status = &on
			}
			if f.Changed("weight") {
				d.Weight = &weight
			}
			if f.Changed("redirect") {
				d.Redirect = &redirect
			}
			res, err := c.app.Service.Create(cmd.Context(), d, https)
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), res)
		},
	}
	f := cmd.Flags()
	f.StringVar(&d.ID, "id", "", "machine name (derived from hostname when empty)")
	f.StringVar(&d.Name, "name", "", "human-readable name")
	f.StringVar(&d.Hostname, "hostname", "", "hostname, optionally with :port")
	f.StringVar(&d.Scheme, "scheme", "", "http or https")
	f.BoolVar(&https, "https", false, "default the scheme to https")
	f.BoolVar(&def, "default", false, "make the new record the default")
	f.BoolVar(&disabled, "disabled", false, "create the record disabled")
	f.IntVar(&weight, "weight", 0, "sort weight")
	f.IntVar(&redirect, "redirect", 0, "redirect code (0 selects 302)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("hostname")
	return cmd
}

func (c *cli) resultCmd(use, short string, op func(*domain.Service, context.Context, string) (domain.Result, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <domain>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := op(c.app.Service, cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), res)
		},
	}
}

func (c *cli) setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <domain> <name> <value>",
		Short: "Set one attribute and save",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.app.Service.SetProperty(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), res)
		},
	}
}

func (c *cli) repairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Restore exactly one default record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rep, err := c.app.Service.Repair(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), message.ForRepair(rep))
			return nil
		},
	}
}

func (c *cli) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [<domain>...]",
		Short: "Probe records over HTTP (all when none given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var recs []*domain.Record
			if len(args) == 0 {
				all, err := c.app.Service.List(ctx)
				if err != nil {
					return err
				}
				recs = all
			}
			for _, id := range args {
				r, err := c.app.Service.Get(ctx, id)
				if err != nil {
					return err
				}
				recs = append(recs, r)
			}

			failed := 0
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tURL\tCODE")
			for _, r := range recs {
				code, err := c.app.Service.Health(ctx, r)
				status := strconv.Itoa(code)
				if err != nil {
					failed++
					status = "error: " + err.Error()
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ID, c.app.Health.Target(r), status)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d probes failed", failed, len(recs))
			}
			return nil
		},
	}
}

//
// Output helpers
//

func report(w io.Writer, res domain.Result) error {
	fmt.Fprintln(w, message.For(res))
	if res.Demoted != nil {
		fmt.Fprintf(w, "status: %s is no longer the default domain.\n", res.Demoted.Hostname)
	}
	return nil
}

func printRecord(w io.Writer, r *domain.Record, basePath string) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "id\t%s\n", r.ID)
	fmt.Fprintf(tw, "domain_id\t%d\n", r.DomainID)
	fmt.Fprintf(tw, "uuid\t%s\n", r.UUID)
	fmt.Fprintf(tw, "name\t%s\n", r.Name)
	fmt.Fprintf(tw, "hostname\t%s\n", r.Hostname)
	fmt.Fprintf(tw, "scheme\t%s\n", r.SchemeName(false))
	fmt.Fprintf(tw, "status\t%s\n", onOff(r.Status))
	fmt.Fprintf(tw, "weight\t%d\n", r.Weight)
	fmt.Fprintf(tw, "default\t%s\n", mark(r.IsDefault))
	if code, ok := r.RedirectCode(); ok {
		fmt.Fprintf(tw, "redirect\t%d\n", code)
	}
	for k, v := range r.Extra {
		fmt.Fprintf(tw, "%s\t%s\n", k, v)
	}
	fmt.Fprintf(tw, "path\t%s\n", r.Path(basePath))
	_ = tw.Flush()
}

func onOff(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

func mark(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
