// Package retile rebuilds images out of square tiles cut from a palette
// image.
//
// The palette is cut into non-overlapping blocks, each sampled under up to
// six orientations into a dictionary of color descriptors. Every block of a
// target image is then replaced by the dictionary block whose descriptor is
// most similar (cosine similarity), optionally re-tinted with the target's
// own colors.
//
// Usage as a library:
//
//	palette, _ := retile.LoadImage("palette.png")
//	eng, _ := retile.New(palette, retile.DefaultOptions())
//	target, _ := retile.LoadImage("photo.png")
//	out, _ := eng.Reconstruct(ctx, target)
//	retile.SaveImage("mosaic.png", out)
//
// Or use the file-based convenience:
//
//	err := retile.ReconstructFile(ctx, "palette.png", "photo.png", "mosaic.png", retile.DefaultOptions())
package retile

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/maax3v3/retile/internal/color"
	"github.com/maax3v3/retile/internal/dictionary"
	"github.com/maax3v3/retile/internal/imaging"
	"github.com/maax3v3/retile/internal/raster"
	"github.com/maax3v3/retile/internal/reconstruct"
	"github.com/maax3v3/retile/internal/schedule"
	"github.com/maax3v3/retile/internal/stats"
)

// MaxBlockExponent bounds the block edge to 1024 pixels.
const MaxBlockExponent = 10

// ErrTargetTooSmall is returned when a target holds no complete block.
var ErrTargetTooSmall = errors.New("target is smaller than one block")

// Report is a prototype usage summary, see Engine.Stats.
type Report = stats.Report

// ReportEntry is one prototype in a Report.
type ReportEntry = stats.Entry

// Options configures an Engine.
type Options struct {
	// BlockExponent sets the block edge to 1<<BlockExponent pixels.
	// Default: 5 (32px).
	BlockExponent int

	// Orientations is how many block orientations (1–6) are sampled into
	// the dictionary. Default: 6.
	Orientations int

	// Scheme names the color feature space: "rgb1", "yuv1", "yuv2",
	// "rgb3" or "rgb6". Default: "rgb6".
	Scheme string

	// Blend re-tints the reconstruction with the target's own colors.
	// Default: false.
	Blend bool

	// Workers bounds concurrent match tasks. 0 means GOMAXPROCS.
	Workers int

	// Noise is reserved and has no effect.
	Noise int

	// Logger receives progress messages. Nil discards them.
	Logger *slog.Logger
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		BlockExponent: 5,
		Orientations:  6,
		Scheme:        color.RGB6.String(),
	}
}

// Validate reports the first invalid field of o.
func (o Options) Validate() error {
	if o.BlockExponent < 0 || o.BlockExponent > MaxBlockExponent {
		return fmt.Errorf("block exponent must be between 0 and %d, got %d", MaxBlockExponent, o.BlockExponent)
	}
	if o.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", o.Workers)
	}
	_, err := o.dictionaryConfig()
	return err
}

func (o Options) dictionaryConfig() (dictionary.Config, error) {
	scheme, err := color.ParseScheme(o.Scheme)
	if err != nil {
		return dictionary.Config{}, err
	}
	cfg := dictionary.Config{
		Edge:         1 << o.BlockExponent,
		Orientations: o.Orientations,
		Scheme:       scheme,
	}
	return cfg, cfg.Validate()
}

// Engine owns a palette and the dictionary built from it. The dictionary
// is built on first use and shared by every later call. An Engine is safe
// for concurrent use.
type Engine struct {
	opts    Options
	cfg     dictionary.Config
	palette *raster.Grid
	log     *slog.Logger

	mu      sync.Mutex
	dict    *dictionary.Dictionary
	dictErr error
}

// New returns an Engine for palette. The palette is copied; the dictionary
// is not built until the first reconstruction.
func New(palette image.Image, opts Options) (*Engine, error) {
	if palette == nil {
		return nil, fmt.Errorf("palette image is nil")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	cfg, _ := opts.dictionaryConfig()

	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Engine{
		opts:    opts,
		cfg:     cfg,
		palette: raster.FromImage(palette),
		log:     log,
	}, nil
}

// Options returns the options the engine was created with.
func (e *Engine) Options() Options {
	return e.opts
}

// Edge returns the block edge length in pixels.
func (e *Engine) Edge() int {
	return e.cfg.Edge
}

func (e *Engine) dictionary() (*dictionary.Dictionary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.dict != nil || e.dictErr != nil {
		return e.dict, e.dictErr
	}

	start := time.Now()
	d, err := dictionary.Build(e.palette, e.cfg)
	if err != nil {
		e.dictErr = fmt.Errorf("building dictionary: %w", err)
		return nil, e.dictErr
	}
	e.log.Info("dictionary built",
		"prototypes", d.Len(),
		"edge", e.cfg.Edge,
		"orientations", e.cfg.Orientations,
		"scheme", e.cfg.Scheme,
		"elapsed", time.Since(start))
	e.dict = d
	return d, nil
}

// Prototypes builds the dictionary if needed and returns its size.
func (e *Engine) Prototypes() (int, error) {
	d, err := e.dictionary()
	if err != nil {
		return 0, err
	}
	return d.Len(), nil
}

// Reconstruct rebuilds target out of palette blocks. The output is the
// target truncated to a multiple of the block edge in both dimensions.
func (e *Engine) Reconstruct(ctx context.Context, target image.Image) (*image.RGBA, error) {
	return e.ReconstructBlend(ctx, target, e.opts.Blend)
}

// ReconstructBlend is Reconstruct with the blend pass chosen per call.
func (e *Engine) ReconstructBlend(ctx context.Context, target image.Image, blend bool) (*image.RGBA, error) {
	if target == nil {
		return nil, fmt.Errorf("target image is nil")
	}

	d, err := e.dictionary()
	if err != nil {
		return nil, err
	}

	grid := raster.FromImage(target)
	blocks := grid.Blocks(e.cfg.Edge)
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: %dx%d with %dpx blocks", ErrTargetTooSmall, grid.Width, grid.Height, e.cfg.Edge)
	}

	start := time.Now()
	results, err := schedule.Run(ctx, grid, blocks, d, schedule.Options{Workers: e.opts.Workers})
	if err != nil {
		return nil, fmt.Errorf("matching: %w", err)
	}
	e.log.Debug("blocks matched", "blocks", len(blocks), "elapsed", time.Since(start))

	w := raster.Truncate(grid.Width, e.cfg.Edge)
	h := raster.Truncate(grid.Height, e.cfg.Edge)
	out, err := reconstruct.Assemble(w, h, blocks, results, d)
	if err != nil {
		return nil, fmt.Errorf("assembling: %w", err)
	}

	if blend {
		if err := reconstruct.Blend(out, grid); err != nil {
			return nil, fmt.Errorf("blending: %w", err)
		}
	}
	return out.Image(), nil
}

// Stats reports the n most selected prototypes. n <= 0 reports all of them.
func (e *Engine) Stats(n int) (Report, error) {
	d, err := e.dictionary()
	if err != nil {
		return Report{}, err
	}
	return stats.Top(d, n), nil
}

// ResetStats zeroes every prototype's hit counter.
func (e *Engine) ResetStats() error {
	d, err := e.dictionary()
	if err != nil {
		return err
	}
	d.ResetHits()
	return nil
}

// LoadImage reads an image from disk. Supports PNG, JPEG, WEBP, BMP and
// raw .bin / .bin.zst frames.
func LoadImage(path string) (image.Image, error) {
	return imaging.Load(path)
}

// SaveImage writes an image to disk in the format implied by the extension.
func SaveImage(path string, img image.Image) error {
	return imaging.Save(path, img)
}

// ReconstructFile is a convenience that loads a palette and a target,
// reconstructs the target and saves the result to outPath.
func ReconstructFile(ctx context.Context, palettePath, inPath, outPath string, opts Options) error {
	palette, err := LoadImage(palettePath)
	if err != nil {
		return fmt.Errorf("loading palette: %w", err)
	}

	eng, err := New(palette, opts)
	if err != nil {
		return err
	}

	target, err := LoadImage(inPath)
	if err != nil {
		return fmt.Errorf("loading image: %w", err)
	}

	result, err := eng.Reconstruct(ctx, target)
	if err != nil {
		return fmt.Errorf("reconstructing: %w", err)
	}

	if err := SaveImage(outPath, result); err != nil {
		return fmt.Errorf("saving output: %w", err)
	}
	return nil
}
