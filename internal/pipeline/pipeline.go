package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ironsheep/contour-pipeline/internal/command"
	"github.com/ironsheep/contour-pipeline/internal/config"
	"github.com/ironsheep/contour-pipeline/internal/imaging"
)

// NoContoursNotice is written to the failure notice when extraction finds
// nothing.
const NoContoursNotice = "The parameters given produce no contours, please change them."

// Outcome is how a run ended.
type Outcome int

const (
	// OutcomeCompleted means every stage ran and output.png was produced.
	OutcomeCompleted Outcome = iota

	// OutcomeNoContours means extraction produced no contours; only the
	// failure notice was written after stage 2.
	OutcomeNoContours
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeNoContours:
		return "no_contours"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Result summarises a run.
type Result struct {
	Outcome Outcome `json:"outcome"`

	// EffectiveTMax is the maximum threshold the extractor used: the
	// caller's value in manual mode, the recovered one in automatic mode.
	EffectiveTMax int `json:"effective_tmax"`

	// Contours and Simplified count the polygons of the two annotated
	// artifacts. Simplified is zero unless the run completed.
	Contours   int `json:"contours"`
	Simplified int `json:"simplified"`

	// Dimensions of the input image, set once stage 3 starts.
	Dimensions imaging.Dimensions `json:"dimensions"`

	// Transcript holds every external command in invocation order.
	Transcript []string `json:"transcript"`

	// Overlay is set when an overlay preview was rendered.
	Overlay *imaging.OverlayResult `json:"overlay,omitempty"`
}

// Pipeline runs the contour stages in one working directory.
type Pipeline struct {
	cfg     *config.Config
	dir     string
	logger  *zap.Logger
	overlay bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithOverlay enables rendering of the overlay preview after the last stage.
func WithOverlay(enabled bool) Option {
	return func(p *Pipeline) { p.overlay = enabled }
}

// New creates a Pipeline working in dir. A nil cfg uses config.Default.
func New(cfg *config.Config, dir string, opts ...Option) *Pipeline {
	if cfg == nil {
		cfg = config.Default()
	}
	p := &Pipeline{
		cfg:    cfg,
		dir:    dir,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Path returns the location of an artifact inside the working directory.
func (p *Pipeline) Path(name string) string {
	return filepath.Join(p.dir, name)
}

// Run executes all stages in order. Each stage blocks until its tool exits.
// The transcript is flushed to the transcript artifact only when the run
// completes.
func (p *Pipeline) Run(ctx context.Context, params Params) (*Result, error) {
	runner := command.NewRunner(p.dir, command.NewTranscript(),
		command.WithAliases(p.cfg.Aliases),
		command.WithLogger(p.logger))

	log := p.logger.With(zap.String("dir", p.dir), zap.Stringer("mode", params.Mode))
	log.Info("starting contour pipeline",
		zap.Int("tmin", params.TMin),
		zap.Int("tmax", params.TMax),
		zap.Int("min_size", params.MinSize),
		zap.Float64("error_bound", params.ErrorBound),
		zap.Bool("render", params.Render))

	res := &Result{EffectiveTMax: params.TMax}

	if err := p.adapt(ctx, runner); err != nil {
		return nil, fmt.Errorf("format adapter: %w", err)
	}

	ext, err := p.extract(ctx, runner, params)
	if err != nil {
		return nil, fmt.Errorf("contour extractor: %w", err)
	}
	if ext.empty {
		res.Outcome = OutcomeNoContours
		res.Transcript = runner.Transcript().Lines()
		log.Info("extraction produced no contours",
			zap.String("notice", p.Path(p.cfg.Artifacts.FailureNotice)))
		return res, nil
	}
	res.Contours = ext.contours
	res.EffectiveTMax = ext.tmax
	log.Info("contours extracted",
		zap.Int("contours", ext.contours),
		zap.Int("effective_tmax", ext.tmax))

	simp, err := p.simplify(ctx, runner, params)
	if err != nil {
		return nil, fmt.Errorf("simplifier: %w", err)
	}
	res.Dimensions = simp.dims
	res.Simplified = simp.polygons
	log.Info("contours simplified",
		zap.Int("polygons", simp.polygons),
		zap.Int("width", simp.dims.Width),
		zap.Int("height", simp.dims.Height))

	if err := p.rasterize(ctx, runner); err != nil {
		return nil, fmt.Errorf("rasterizer: %w", err)
	}

	if p.overlay {
		res.Overlay = p.renderOverlay(log)
	}

	res.Outcome = OutcomeCompleted
	res.Transcript = runner.Transcript().Lines()
	if err := runner.Transcript().WriteFile(p.Path(p.cfg.Artifacts.Transcript)); err != nil {
		return nil, err
	}

	log.Info("contour pipeline completed",
		zap.String("output", p.Path(p.cfg.Artifacts.Output)),
		zap.Int("commands", len(res.Transcript)))
	return res, nil
}
