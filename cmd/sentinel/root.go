package main

import (
	"github.com/spf13/cobra"

	"github.com/mrbrightsides/sentinel/internal/config"
)

type rootOptions struct {
	envFile  string
	pageFile string
	// base is prepended to the loader options derived from flags.
	base []config.Option
}

func (o *rootOptions) loadConfig() (config.Config, error) {
	opts := append([]config.Option{}, o.base...)
	opts = append(opts, config.WithEnvFile(o.envFile))
	if o.pageFile != "" {
		opts = append(opts, config.WithEnvMap(map[string]string{"SENTINEL_PAGE_FILE": o.pageFile}))
	}
	return config.Load(opts...)
}

func newRootCmd(base ...config.Option) *cobra.Command {
	opts := &rootOptions{base: base}
	cmd := &cobra.Command{
		Use:           "sentinel",
		Short:         "RANTAI Sentinel dashboard shell",
		Long:          "Serves a single page with a branded sidebar and the embedded Sentinel dashboard.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file read before the process environment (empty to skip)")
	cmd.PersistentFlags().StringVar(&opts.pageFile, "page-file", "", "YAML page definition (overrides SENTINEL_PAGE_FILE)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newRenderCmd(opts))
	cmd.AddCommand(newCheckCmd(opts))
	return cmd
}
