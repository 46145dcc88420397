package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ironsheep/contour-pipeline/internal/config"
	"github.com/ironsheep/contour-pipeline/internal/pipeline"
	"github.com/ironsheep/contour-pipeline/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// options holds the flag values and the state built from them before a
// command runs.
type options struct {
	configPath string
	verbose    bool

	workdir       string
	overlay       bool
	thresholdType int
	tmin          int
	tmax          int
	minSize       int
	errorBound    float64
	render        string

	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, opts := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		if opts.logger != nil {
			opts.logger.Error("contour-pipeline failed", zap.Error(err))
			_ = opts.logger.Sync()
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}

func newRootCmd() (*cobra.Command, *options) {
	opts := &options{}

	root := &cobra.Command{
		Use:   "contour-pipeline",
		Short: "Extract, simplify and render the contours of input_0.png",
		Long: `contour-pipeline runs four external tools in sequence inside a working
directory that holds input_0.png:

  1. convert.sh            converts the input to inputNG.pgm
  2. pgm2freeman           extracts contours into inputPolygon.txt
  3. frechetSimplification simplifies them into outputPolygon.txt and output.eps
  4. gs                    rasterizes output.eps into output.png

Every command is recorded in commands.txt. When the thresholds produce no
contours, demo_failure.txt is written and the run stops after stage 2.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runPipeline(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to a YAML configuration file")
	pf.BoolVar(&opts.verbose, "verbose", false, "Enable debug logging")

	f := root.Flags()
	f.StringVar(&opts.workdir, "workdir", ".", "Working directory holding input_0.png")
	f.IntVar(&opts.thresholdType, "thresholdtype", 0, "0 for manual thresholds, any other value for automatic")
	f.IntVar(&opts.tmin, "tmin", pipeline.DefaultTMin, "Minimum threshold (manual mode)")
	f.IntVar(&opts.tmax, "tmax", pipeline.DefaultTMax, "Maximum threshold (manual mode)")
	f.IntVar(&opts.minSize, "m", 0, "Minimum contour size in pixels")
	f.Float64Var(&opts.errorBound, "e", 0, "Simplification error bound")
	f.StringVar(&opts.render, "w", "false", `Render flag; "true" in any case enables it`)
	f.BoolVar(&opts.overlay, "overlay", false, "Also draw the simplified polygons over the input as overlay.png")
	_ = root.MarkFlagRequired("m")
	_ = root.MarkFlagRequired("e")

	root.AddCommand(newServeCmd(opts), newConfigCmd(opts), newVersionCmd())
	return root, opts
}

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline as MCP tools over stdin/stdout",
		Long: `Starts a JSON-RPC 2.0 MCP server on stdin/stdout exposing contour_run,
contour_read and image_dimensions. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.logger.Info("starting MCP server",
				zap.String("version", Version),
				zap.String("build_time", BuildTime),
				zap.String("commit", GitCommit))

			srv := server.New(opts.cfg,
				server.WithLogger(opts.logger),
				server.WithVersion(Version))
			return srv.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func newConfigCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config <path>",
		Short: "Write the effective configuration as YAML",
		Long: `Writes the configuration a run would use, after --config and the
CONTOUR_PIPELINE_* environment overrides are applied, to the given path.
The file can be edited and passed back with --config.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.cfg.Save(args[0]); err != nil {
				return err
			}
			opts.logger.Info("configuration written", zap.String("path", args[0]))
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Skip the root's config and logger setup.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "contour-pipeline %s\n", Version)
			fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
		},
	}
}

// setup loads the configuration and builds the logger. A logger set before
// setup runs is kept.
func (o *options) setup() error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	o.cfg = cfg

	if o.logger != nil {
		return nil
	}
	o.logger, err = newLogger(cfg.Logging.Level, o.verbose)
	return err
}

// newLogger builds a production logger writing JSON to stderr.
func newLogger(level string, verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func (o *options) runPipeline(ctx context.Context) error {
	dir, err := filepath.Abs(o.workdir)
	if err != nil {
		return fmt.Errorf("failed to resolve workdir: %w", err)
	}

	p := pipeline.New(o.cfg, dir,
		pipeline.WithLogger(o.logger),
		pipeline.WithOverlay(o.overlay))

	res, err := p.Run(ctx, pipeline.Params{
		Mode:       pipeline.ThresholdMode(o.thresholdType),
		TMin:       o.tmin,
		TMax:       o.tmax,
		MinSize:    o.minSize,
		ErrorBound: o.errorBound,
		Render:     pipeline.ParseRenderFlag(o.render),
	})
	if err != nil {
		return err
	}

	if res.Outcome == pipeline.OutcomeNoContours {
		o.logger.Warn(pipeline.NoContoursNotice,
			zap.String("notice", p.Path(o.cfg.Artifacts.FailureNotice)))
	}
	return nil
}
