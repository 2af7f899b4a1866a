package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrbrightsides/sentinel/internal/render"
)

func newRenderCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Write the rendered page as static HTML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			renderer, err := render.New(render.WithPublicOrigin(cfg.PublicOrigin))
			if err != nil {
				return err
			}
			out, err := renderer.Render(cmd.Context(), cfg.Page)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(out.HTML)
				return err
			}
			if err := os.WriteFile(output, out.HTML, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", output, len(out.HTML))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")
	return cmd
}
