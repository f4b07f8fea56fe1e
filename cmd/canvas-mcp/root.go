package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ironsheep/canvas-tools-mcp/internal/compose"
	"github.com/ironsheep/canvas-tools-mcp/internal/config"
	"github.com/ironsheep/canvas-tools-mcp/internal/imaging"
	"github.com/ironsheep/canvas-tools-mcp/internal/server"
)

// app holds state shared by every command. cfg and logger are set in the
// root's PersistentPreRunE.
type app struct {
	configPath string
	verbose    bool

	cfg    config.Config
	logger *log.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "canvas-tools-mcp",
		Short: "MCP server for compositing positioned pixel canvases",
		Long: `canvas-tools-mcp keeps a session of pixel canvases anchored on an unbounded
plane and exposes tools to create, draw, crop and export them over the Model
Context Protocol on stdin/stdout.

Without a subcommand it serves MCP. Configure it in your MCP client (e.g.,
Claude Desktop) as a stdio server.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE:              a.serve,
	}
	root.SetVersionTemplate(versionText())

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a TOML config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(a.serveCommand())
	root.AddCommand(a.composeCommand())
	root.AddCommand(a.toolsCommand())
	root.AddCommand(a.versionCommand())

	return root
}

// setup loads configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}

	cfg.Apply()
	a.cfg = cfg
	a.logger = newLogger(cmd.ErrOrStderr(), level)
	a.logger.Debug("configured", "config", a.configPath, "workers", cfg.Workers, "min_parallel_rows", cfg.MinParallelRows)
	return nil
}

func (a *app) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdin/stdout (the default)",
		Args:  cobra.NoArgs,
		RunE:  a.serve,
	}
}

func (a *app) serve(cmd *cobra.Command, _ []string) error {
	server.Version = Version
	a.logger.Debug("starting", "version", Version, "built", BuildTime, "commit", GitCommit)
	return server.New(a.cfg, a.logger).Run(cmd.Context())
}

func (a *app) composeCommand() *cobra.Command {
	var (
		output string
		scale  float64
	)

	cmd := &cobra.Command{
		Use:   "compose <recipe.toml>",
		Short: "Render a composition recipe to a PNG file",
		Long: `Render a TOML composition recipe to a PNG file.

Relative layer paths and the recipe's output path resolve against the
recipe's directory. --output overrides the recipe's output and resolves
against the working directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newProgress(a.logger)

			r, err := compose.LoadRecipe(args[0])
			if err != nil {
				return err
			}
			out := output
			if out == "" {
				out = r.Resolve(r.Output)
			}
			if out == "" {
				return fmt.Errorf("no output path: set output in the recipe or pass --output")
			}

			l, err := compose.RunRecipe(cmd.Context(), r, imaging.NewImageCache(), server.MaxDimension(a.cfg.MaxDimension))
			if err != nil {
				return err
			}
			defer l.Dispose()

			img := l.Image()
			if img == nil {
				return fmt.Errorf("recipe %s produced an empty canvas", args[0])
			}
			b := l.Bounds()
			a.logger.Debug("composed", "layers", len(r.Layers), "format", l.Format(), "x", b.Pos.X, "y", b.Pos.Y)

			scaled := imaging.Scale(img, scale)
			if err := imaging.SaveImage(out, scaled); err != nil {
				return err
			}
			p.done(fmt.Sprintf("Wrote %s (%dx%d)", out, scaled.Bounds().Dx(), scaled.Bounds().Dy()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output PNG path (overrides the recipe)")
	cmd.Flags().Float64Var(&scale, "scale", 1.0, "scale factor applied before saving")
	return cmd
}

func (a *app) toolsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the MCP tools this server provides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, t := range server.GetToolDefinitions() {
				fmt.Fprintf(w, "%s\t%s\n", t.Name, t.Description)
			}
			return w.Flush()
		},
	}
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), versionText())
			return err
		},
	}
}
