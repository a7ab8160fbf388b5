package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/maax3v3/retile"
	"github.com/maax3v3/retile/internal/cli"
	"github.com/maax3v3/retile/internal/imaging"
)

// ErrNoFrames is returned when the input names no existing file.
var ErrNoFrames = errors.New("no input frame found")

// NewEngine loads the configured palette and builds an engine around it.
func NewEngine(cfg cli.Config, log *slog.Logger) (*retile.Engine, error) {
	log.Info("loading palette", "path", cfg.PalettePath)
	palette, err := imaging.Load(cfg.PalettePath)
	if err != nil {
		return nil, fmt.Errorf("loading palette: %w", err)
	}
	log.Info("palette loaded", "width", palette.Bounds().Dx(), "height", palette.Bounds().Dy())

	opts := cfg.Options()
	opts.Logger = log
	eng, err := retile.New(palette, opts)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	return eng, nil
}

// Run processes every input frame named by cfg and writes the matching
// output frames. With a printf verb in the paths, frames are numbered from
// 1 and the run stops at the first missing input. The usage report is
// written to w when cfg.Stats is set.
func Run(ctx context.Context, cfg cli.Config, log *slog.Logger, w io.Writer) error {
	var eng *retile.Engine
	if !cfg.Convert {
		var err error
		if eng, err = NewEngine(cfg, log); err != nil {
			return err
		}
	}

	frames := 0
	for i := 1; ; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		in := FramePath(cfg.InPath, i)
		if !imaging.Exists(in) {
			if frames == 0 {
				return fmt.Errorf("%w: %s", ErrNoFrames, in)
			}
			break
		}
		out := FramePath(cfg.OutPath, i)

		start := time.Now()
		if err := processFrame(ctx, eng, cfg, in, out); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		frames++
		log.Info("processed frame", "frame", i, "in", in, "out", out, "elapsed", time.Since(start))

		if !cfg.Sequence() {
			break
		}
	}
	log.Info("done", "frames", frames)

	if eng != nil && cfg.Stats > 0 {
		rep, err := eng.Stats(cfg.Stats)
		if err != nil {
			return fmt.Errorf("collecting stats: %w", err)
		}
		PrintReport(w, rep)
	}
	return nil
}

// FramePath substitutes frame number i into a printf-style pattern.
// Paths without a verb are returned unchanged.
func FramePath(pattern string, i int) string {
	if !strings.Contains(pattern, "%") {
		return pattern
	}
	return fmt.Sprintf(pattern, i)
}

func processFrame(ctx context.Context, eng *retile.Engine, cfg cli.Config, in, out string) error {
	img, err := imaging.Load(in)
	if err != nil {
		return fmt.Errorf("loading image: %w", err)
	}

	if cfg.ResizeW > 0 && cfg.ResizeH > 0 {
		img = imaging.Resize(img, cfg.ResizeW, cfg.ResizeH)
	}

	var result image.Image = img
	if eng != nil {
		if result, err = eng.Reconstruct(ctx, img); err != nil {
			return fmt.Errorf("reconstructing: %w", err)
		}
	}

	if err := imaging.Save(out, result); err != nil {
		return fmt.Errorf("saving output: %w", err)
	}
	return nil
}

// PrintReport writes rep as a fixed-width table.
func PrintReport(w io.Writer, rep retile.Report) {
	fmt.Fprintf(w, "Prototypes: %d, used: %d, total hits: %d\n", rep.Prototypes, rep.Used, rep.Total)
	if len(rep.Top) == 0 {
		return
	}
	fmt.Fprintf(w, "%6s  %11s  %-14s  %8s  %-8s  %-8s\n", "index", "block", "orientation", "hits", "dominant", "mean")
	for _, e := range rep.Top {
		fmt.Fprintf(w, "%6d  %11s  %-14s  %8d  %-8s  %-8s\n",
			e.Index, fmt.Sprintf("%d,%d", e.X, e.Y), e.Orientation, e.Hits, e.Dominant, e.Mean)
	}
}
