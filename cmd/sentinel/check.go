package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrbrightsides/sentinel/internal/probe"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var runProbe bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and optionally probe the embed target",
		Long: "Validates the page configuration and prints a summary. With --probe the embed URL is\n" +
			"fetched and its framing headers inspected. A probe failure is reported but does not fail the command.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "configuration ok")
			fmt.Fprintf(out, "  title:  %s\n", cfg.Page.Metadata.Title)
			fmt.Fprintf(out, "  layout: %s\n", cfg.Page.Metadata.Layout)
			fmt.Fprintf(out, "  embed:  %s (%s, %dpx)\n", cfg.Page.Embed.SourceURL, cfg.Page.Embed.Mode, cfg.Page.Embed.HeightPx)
			if cfg.PageFile != "" {
				fmt.Fprintf(out, "  file:   %s\n", cfg.PageFile)
			}
			if !runProbe {
				return nil
			}

			client := probe.NewClient(cfg.Probe.Timeout, probe.WithPublicOrigin(cfg.PublicOrigin))
			report := client.Check(cmd.Context(), cfg.Page.Embed.SourceURL)
			if report.Embeddable {
				fmt.Fprintf(out, "probe: embeddable (HTTP %d)\n", report.StatusCode)
				return nil
			}
			fmt.Fprintf(out, "probe: warning: embed may not display: %s\n", report.Reason)
			return nil
		},
	}
	cmd.Flags().BoolVar(&runProbe, "probe", false, "fetch the embed URL and inspect its framing headers")
	return cmd
}
