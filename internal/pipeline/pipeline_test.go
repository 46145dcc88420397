package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ironsheep/contour-pipeline/internal/config"
	"github.com/ironsheep/contour-pipeline/internal/contour"
)

const threeContours = "10 10 40 10 40 30 10 30\n20 20 25 20 25 25\n5 5 8 5 8 8 5 8\n"

// autoDiagnostics puts 128 at token 17 once ')' is treated as a separator.
const autoDiagnostics = "Image inputNG.pgm loaded (size 64 x 48) min threshold: 0 max threshold: 255 otsu (auto) threshold computed: 128 (range 0-255)"

// fakeTools describes the behaviour of the stand-in external tools.
type fakeTools struct {
	contours    string
	diagnostics string

	// skipSimplifierOutput makes the simplifier exit without writing
	// output.txt, as a crashing tool would.
	skipSimplifierOutput bool
}

// installTool writes an executable shell script named name into dir.
func installTool(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("failed to write tool %s: %v", name, err)
	}
}

// writeFixture writes a data file the fake tools read from.
func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture %s: %v", name, err)
	}
	return path
}

// setupRun installs the fake tools on PATH and returns a working directory
// holding a 64x48 input image.
func setupRun(t *testing.T, tools fakeTools) string {
	t.Helper()

	bin := t.TempDir()
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))

	contoursFixture := writeFixture(t, bin, "contours.fixture", tools.contours)
	diagFixture := writeFixture(t, bin, "diag.fixture", tools.diagnostics+"\n")

	installTool(t, bin, "convert.sh", `cp "$1" "$2"`)
	installTool(t, bin, "pgm2freeman", strings.Join([]string{
		`echo "$@" > pgm2freeman.args`,
		`cat '` + diagFixture + `' >&2`,
		`cat '` + contoursFixture + `'`,
	}, "\n"))

	simplifier := []string{
		`echo "$@" > simplifier.args`,
		`echo "frechet: simplifying" >&2`,
	}
	if !tools.skipSimplifierOutput {
		simplifier = append(simplifier,
			`grep -v '^#' "$7" | head -n 2 > output.txt`,
			`echo '%!PS-Adobe-3.0 EPSF-3.0' > output.eps`)
	}
	installTool(t, bin, "frechetSimplification", strings.Join(simplifier, "\n"))

	installTool(t, bin, "gs", strings.Join([]string{
		`for a in "$@"; do`,
		`  case "$a" in`,
		`    -sOutputFile=*) out="${a#-sOutputFile=}" ;;`,
		`  esac`,
		`done`,
		`printf 'PNG' > "$out"`,
	}, "\n"))

	work := t.TempDir()
	writeInputImage(t, filepath.Join(work, "input_0.png"), 64, 48)
	return work
}

func writeInputImage(t *testing.T, path string, width, height int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x > 10 && x < 40 && y > 10 && y < 30 {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create input image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode input image: %v", err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", filepath.Base(path), err)
	}
	return string(data)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func manualParams() Params {
	return Params{Mode: ThresholdManual, TMin: 10, TMax: 200, MinSize: 5, ErrorBound: 1.5, Render: false}
}

func TestRun_ManualMode(t *testing.T) {
	work := setupRun(t, fakeTools{contours: threeContours, diagnostics: "not a parseable line"})
	p := New(nil, work)

	res, err := p.Run(context.Background(), manualParams())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Outcome != OutcomeCompleted {
		t.Errorf("outcome = %v, want completed", res.Outcome)
	}
	if res.EffectiveTMax != 200 {
		t.Errorf("EffectiveTMax = %d, want the manual 200", res.EffectiveTMax)
	}
	if res.Contours != 3 {
		t.Errorf("Contours = %d, want 3", res.Contours)
	}
	if res.Simplified == 0 || res.Simplified > res.Contours {
		t.Errorf("Simplified = %d, want 1..%d", res.Simplified, res.Contours)
	}
	if res.Dimensions.Width != 64 || res.Dimensions.Height != 48 {
		t.Errorf("Dimensions = %+v", res.Dimensions)
	}

	wantTranscript := []string{
		"convert input_0.png inputNG.pgm",
		"pgm2freeman -min_size 5 -image inputNG.pgm -outputSDPAll -maxThreshold 200 -minThreshold 10 > inputPolygon.txt",
		"frechetSimplification -imageSize 64 48 -error 1.5 -sdp inputPolygon.txt -allContours",
		"gs -q -dNOCACHE -dEPSCrop -dNOPAUSE -dBATCH -dSAFER -sDEVICE=png16m -r120 -sOutputFile=output.png output.eps",
	}
	if diff := cmp.Diff(wantTranscript, res.Transcript); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}
	if got := readFile(t, p.Path("commands.txt")); got != strings.Join(wantTranscript, "\n")+"\n" {
		t.Errorf("commands.txt = %q", got)
	}

	if !exists(p.Path("output.png")) {
		t.Error("output.png was not produced")
	}
	if exists(p.Path("demo_failure.txt")) {
		t.Error("failure notice written on a completed run")
	}
}

func TestRun_AnnotatedArtifacts(t *testing.T) {
	work := setupRun(t, fakeTools{contours: threeContours, diagnostics: "ignored"})
	p := New(nil, work)

	if _, err := p.Run(context.Background(), manualParams()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	raw := readFile(t, p.Path("inputPolygon.txt"))
	lines := strings.Split(raw, "\n")
	if lines[0] != "# Polygon contour obtained from the pgm2freeman program with the following options:" {
		t.Errorf("unexpected first line: %q", lines[0])
	}
	if lines[1] != "# pgm2freeman -min_size 5 -image inputNG.pgm -outputSDPAll -maxThreshold 200 -minThreshold 10 > inputPolygon.txt" {
		t.Errorf("reproducing command line = %q", lines[1])
	}
	for i := 0; i < 3; i++ {
		if !strings.Contains(raw, "# contour number: "+strconv.Itoa(i)+"\n") {
			t.Errorf("missing index comment for contour %d", i)
		}
	}

	polys, err := contour.ParseFile(p.Path("inputPolygon.txt"))
	if err != nil {
		t.Fatalf("annotated contours do not parse: %v", err)
	}
	if len(polys) != 3 {
		t.Errorf("annotated file has %d polygons, want 3", len(polys))
	}

	simplified := readFile(t, p.Path("outputPolygon.txt"))
	if !strings.HasPrefix(simplified, "# Set of resulting polygons obtained from the frechetSimplification algorithm.\n") {
		t.Errorf("unexpected simplified header:\n%s", simplified)
	}
	if !strings.Contains(simplified, "# frechetSimplification -imageSize 64 48 -error 1.5 -sdp inputPolygon.txt -allContours\n") {
		t.Errorf("simplified header lacks the reproducing command:\n%s", simplified)
	}
}

func TestRun_AutoModeRecoversThreshold(t *testing.T) {
	work := setupRun(t, fakeTools{contours: threeContours, diagnostics: autoDiagnostics})
	p := New(nil, work)

	params := manualParams()
	params.Mode = ThresholdAuto

	res, err := p.Run(context.Background(), params)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.EffectiveTMax != 128 {
		t.Errorf("EffectiveTMax = %d, want 128", res.EffectiveTMax)
	}

	args := readFile(t, p.Path("pgm2freeman.args"))
	if strings.Contains(args, "-maxThreshold") || strings.Contains(args, "-minThreshold") {
		t.Errorf("manual bounds passed in auto mode: %q", args)
	}
	if res.Transcript[1] != "pgm2freeman -min_size 5 -image inputNG.pgm -outputSDPAll > inputPolygon.txt" {
		t.Errorf("extractor transcript line = %q", res.Transcript[1])
	}
}

func TestRun_AutoModeNonzeroModeValue(t *testing.T) {
	work := setupRun(t, fakeTools{contours: threeContours, diagnostics: autoDiagnostics})

	params := manualParams()
	params.Mode = ThresholdMode(7)

	res, err := New(nil, work).Run(context.Background(), params)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.EffectiveTMax != 128 {
		t.Errorf("EffectiveTMax = %d, want 128", res.EffectiveTMax)
	}
}

func TestRun_AutoModeDiagnosticsDrift(t *testing.T) {
	work := setupRun(t, fakeTools{contours: threeContours, diagnostics: "threshold computed: 128"})
	p := New(nil, work)

	params := manualParams()
	params.Mode = ThresholdAuto

	_, err := p.Run(context.Background(), params)
	if !errors.Is(err, ErrDiagnosticsFormat) {
		t.Fatalf("Run error = %v, want ErrDiagnosticsFormat", err)
	}
	if exists(p.Path("simplifier.args")) {
		t.Error("simplifier ran after a diagnostics parse failure")
	}
}

func TestRun_NoContours(t *testing.T) {
	work := setupRun(t, fakeTools{contours: "", diagnostics: "garbage"})
	p := New(nil, work)

	params := manualParams()
	params.Mode = ThresholdAuto

	res, err := p.Run(context.Background(), params)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Outcome != OutcomeNoContours {
		t.Errorf("outcome = %v, want no_contours", res.Outcome)
	}

	if got := readFile(t, p.Path("demo_failure.txt")); got != NoContoursNotice {
		t.Errorf("failure notice = %q", got)
	}
	if exists(p.Path("simplifier.args")) {
		t.Error("simplifier ran after an empty extraction")
	}
	if exists(p.Path("output.png")) {
		t.Error("output.png produced after an empty extraction")
	}
	if exists(p.Path("commands.txt")) {
		t.Error("transcript flushed on the early exit")
	}
	if len(res.Transcript) != 2 {
		t.Errorf("transcript = %v, want convert and extractor only", res.Transcript)
	}
}

func TestRun_RenderFlag(t *testing.T) {
	work := setupRun(t, fakeTools{contours: threeContours})
	p := New(nil, work)

	params := manualParams()
	params.Render = true
	params.ErrorBound = 2

	res, err := p.Run(context.Background(), params)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := "frechetSimplification -imageSize 64 48 -error 2.0 -sdp inputPolygon.txt -allContours -w"
	if res.Transcript[2] != want {
		t.Errorf("simplifier line = %q, want %q", res.Transcript[2], want)
	}
}

func TestRun_SharedDiagnosticsLog(t *testing.T) {
	work := setupRun(t, fakeTools{contours: threeContours, diagnostics: "extractor says hello"})
	p := New(nil, work)

	if _, err := p.Run(context.Background(), manualParams()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	log := readFile(t, p.Path("algoLog.txt"))
	if !strings.HasPrefix(log, "extractor says hello\n") {
		t.Errorf("extractor diagnostics not first: %q", log)
	}
	if !strings.Contains(log, "frechet: simplifying") {
		t.Errorf("simplifier diagnostics not appended: %q", log)
	}
}

func TestRun_MissingSimplifierOutput(t *testing.T) {
	work := setupRun(t, fakeTools{contours: threeContours, skipSimplifierOutput: true})
	p := New(nil, work)

	_, err := p.Run(context.Background(), manualParams())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Run error = %v, want a not-exist error", err)
	}
	if exists(p.Path("commands.txt")) {
		t.Error("transcript flushed after a fatal error")
	}
}

func TestRun_MissingExtractor(t *testing.T) {
	work := setupRun(t, fakeTools{contours: threeContours})
	cfg := config.Default()
	cfg.Tools.Extractor = "no-such-extractor-binary"

	if _, err := New(cfg, work).Run(context.Background(), manualParams()); err == nil {
		t.Fatal("Run should fail when the extractor cannot be started")
	}
}

func TestRun_NativeAdapter(t *testing.T) {
	work := setupRun(t, fakeTools{contours: threeContours})
	cfg := config.Default()
	cfg.Adapter = config.AdapterNative
	p := New(cfg, work)

	res, err := p.Run(context.Background(), manualParams())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(res.Transcript) != 3 {
		t.Errorf("transcript = %v, want no converter entry", res.Transcript)
	}
	if !strings.HasPrefix(readFile(t, p.Path("inputNG.pgm")), "P5\n64 48\n255\n") {
		t.Error("native adapter did not write a binary PGM")
	}
}

func TestRun_Overlay(t *testing.T) {
	work := setupRun(t, fakeTools{contours: threeContours})
	p := New(nil, work, WithOverlay(true), WithLogger(nil))

	res, err := p.Run(context.Background(), manualParams())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Overlay == nil {
		t.Fatal("overlay result missing")
	}
	if res.Overlay.Polygons != res.Simplified {
		t.Errorf("overlay drew %d polygons, want %d", res.Overlay.Polygons, res.Simplified)
	}
	if !exists(p.Path("overlay.png")) {
		t.Error("overlay.png not written")
	}
	if len(res.Transcript) != 4 {
		t.Errorf("overlay added transcript entries: %v", res.Transcript)
	}
}

func TestOutcome_String(t *testing.T) {
	if OutcomeCompleted.String() != "completed" || OutcomeNoContours.String() != "no_contours" {
		t.Error("unexpected outcome names")
	}
	text, err := OutcomeNoContours.MarshalText()
	if err != nil || string(text) != "no_contours" {
		t.Errorf("MarshalText = %q, %v", text, err)
	}
}
