package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/ironsheep/contour-pipeline/internal/command"
	"github.com/ironsheep/contour-pipeline/internal/config"
	"github.com/ironsheep/contour-pipeline/internal/contour"
	"github.com/ironsheep/contour-pipeline/internal/imaging"
)

type extraction struct {
	empty    bool
	contours int
	tmax     int
}

type simplification struct {
	dims     imaging.Dimensions
	polygons int
}

// adapt converts the input raster into the extractor's grayscale format.
func (p *Pipeline) adapt(ctx context.Context, runner *command.Runner) error {
	a := p.cfg.Artifacts

	if p.cfg.Adapter == config.AdapterNative {
		p.logger.Debug("converting input in-process",
			zap.String("src", a.Input), zap.String("dst", a.Grayscale))
		return imaging.ConvertToPGM(p.Path(a.Input), p.Path(a.Grayscale))
	}

	_, err := runner.Run(ctx, command.Invocation{
		Command: command.New(p.cfg.Tools.Converter, a.Input, a.Grayscale),
	})
	return err
}

// extract runs the contour extractor, stops on an empty result, recovers the
// automatic threshold and annotates the contour file in place.
func (p *Pipeline) extract(ctx context.Context, runner *command.Runner, params Params) (extraction, error) {
	a := p.cfg.Artifacts
	contoursPath := p.Path(a.Contours)
	diagPath := p.Path(a.Diagnostics)

	cmd := command.New(p.cfg.Tools.Extractor,
		"-min_size", strconv.Itoa(params.MinSize),
		"-image", a.Grayscale,
		"-outputSDPAll")
	if !params.Mode.IsAuto() {
		cmd = cmd.With(
			"-maxThreshold", strconv.Itoa(params.TMax),
			"-minThreshold", strconv.Itoa(params.TMin))
	}

	reproduce, err := p.runToFiles(ctx, runner, command.Invocation{
		Command:    cmd,
		Annotation: " > " + a.Contours,
	}, contoursPath, diagPath)
	if err != nil {
		return extraction{}, err
	}

	info, err := os.Stat(contoursPath)
	if err != nil {
		return extraction{}, fmt.Errorf("failed to stat %s: %w", a.Contours, err)
	}
	if info.Size() == 0 {
		if err := os.WriteFile(p.Path(a.FailureNotice), []byte(NoContoursNotice), 0o644); err != nil {
			return extraction{}, fmt.Errorf("failed to write failure notice: %w", err)
		}
		return extraction{empty: true}, nil
	}

	tmax := params.TMax
	if params.Mode.IsAuto() {
		tmax, err = ReadAutoThreshold(diagPath)
		if err != nil {
			return extraction{}, err
		}
	}

	header := contour.ExtractorHeader(p.displayName(p.cfg.Tools.Extractor), reproduce)
	n, err := contour.AnnotateFile(contoursPath, contoursPath, header)
	if err != nil {
		return extraction{}, err
	}
	return extraction{contours: n, tmax: tmax}, nil
}

// runToFiles runs inv with stdout truncating into stdoutPath and stderr
// truncating into stderrPath.
func (p *Pipeline) runToFiles(ctx context.Context, runner *command.Runner, inv command.Invocation, stdoutPath, stderrPath string) (string, error) {
	stdout, err := os.Create(stdoutPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", filepath.Base(stdoutPath), err)
	}
	defer stdout.Close()

	stderr, err := os.Create(stderrPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", filepath.Base(stderrPath), err)
	}
	defer stderr.Close()

	inv.Stdout = stdout
	inv.Stderr = stderr
	return runner.Run(ctx, inv)
}

// simplify runs the polygon simplifier on the annotated contours and
// annotates its result into the simplified artifact.
func (p *Pipeline) simplify(ctx context.Context, runner *command.Runner, params Params) (simplification, error) {
	a := p.cfg.Artifacts

	dims, err := imaging.ProbeDimensions(p.Path(a.Input))
	if err != nil {
		return simplification{}, err
	}

	cmd := command.New(p.cfg.Tools.Simplifier,
		"-imageSize", strconv.Itoa(dims.Width), strconv.Itoa(dims.Height),
		"-error", FormatErrorBound(params.ErrorBound),
		"-sdp", a.Contours,
		"-allContours")
	if params.Render {
		cmd = cmd.With("-w")
	}

	diag, err := os.OpenFile(p.Path(a.Diagnostics), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return simplification{}, fmt.Errorf("failed to open %s: %w", a.Diagnostics, err)
	}
	defer diag.Close()

	reproduce, err := runner.Run(ctx, command.Invocation{
		Command: cmd,
		Stdout:  diag,
		Stderr:  diag,
	})
	if err != nil {
		return simplification{}, err
	}

	header := contour.SimplifierHeader(p.displayName(p.cfg.Tools.Simplifier), reproduce)
	n, err := contour.AnnotateFile(p.Path(a.SimplifierText), p.Path(a.Simplified), header)
	if err != nil {
		return simplification{}, err
	}
	return simplification{dims: dims, polygons: n}, nil
}

// rasterize renders the simplifier's PostScript output to the final image.
func (p *Pipeline) rasterize(ctx context.Context, runner *command.Runner) error {
	a := p.cfg.Artifacts
	r := p.cfg.Rasterizer

	_, err := runner.Run(ctx, command.Invocation{
		Command: command.New(p.cfg.Tools.Rasterizer,
			"-q",
			"-dNOCACHE",
			"-dEPSCrop",
			"-dNOPAUSE",
			"-dBATCH",
			"-dSAFER",
			"-sDEVICE="+r.Device,
			"-r"+strconv.Itoa(r.Resolution),
			"-sOutputFile="+a.Output,
			a.SimplifierEPS),
	})
	return err
}

// renderOverlay draws the simplified polygons over the input. Failures are
// logged and leave the run result untouched.
func (p *Pipeline) renderOverlay(log *zap.Logger) *imaging.OverlayResult {
	a := p.cfg.Artifacts

	polygons, err := contour.ParseFile(p.Path(a.Simplified))
	if err != nil {
		log.Warn("overlay skipped: cannot parse simplified contours", zap.Error(err))
		return nil
	}
	res, err := imaging.SaveOverlay(p.Path(a.Input), p.Path(a.Overlay), polygons)
	if err != nil {
		log.Warn("overlay skipped", zap.Error(err))
		return nil
	}
	return res
}

// displayName is the public name of a tool as shown in artifact headers.
func (p *Pipeline) displayName(bin string) string {
	name := filepath.Base(bin)
	if public, ok := p.cfg.Aliases[name]; ok {
		return public
	}
	return name
}
