package main

import (
	"github.com/spf13/cobra"

	"github.com/pebble-dev/pebblectl/internal/orchestrator"
)

func newNewProjectCmd() *cobra.Command {
	var req orchestrator.ProjectRequest

	cmd := &cobra.Command{
		Use:   "new-project [name]",
		Short: "Create a new Pebble project",
		Long: `Create a new Pebble project from one of the toolchain's templates.

Project types:
  c       C (default template)
  simple  C Simple (minimal)
  js      C and JS (with PebbleKit JS)

The project is created under --dir, or the directory used last time, or your
home directory. Missing name or type are asked for interactively.`,
		Example: `  pebblectl new-project my-face
  pebblectl new-project my-app --type js --dir ~/src`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				req.Name = args[0]
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signalContext(cmd)
			defer stop()

			path, err := a.orch.NewProject(ctx, req)
			if err != nil {
				return err
			}

			if a.out.JSON && path != "" {
				return a.out.PrintJSON(map[string]string{"path": path})
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&req.Kind, "type", "t", "", "Project type: c, simple, js")
	cmd.Flags().StringVar(&req.Dir, "dir", "", "Parent directory for the project")

	_ = cmd.RegisterFlagCompletionFunc("type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"c", "simple", "js"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}
