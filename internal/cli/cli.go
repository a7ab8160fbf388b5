package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/maax3v3/retile"
	"github.com/maax3v3/retile/internal/color"
	"github.com/maax3v3/retile/internal/imaging"
)

// ErrUsage marks invalid command-line arguments.
var ErrUsage = errors.New("invalid usage")

// Config holds the parsed CLI arguments.
type Config struct {
	InPath      string
	PalettePath string
	OutPath     string

	BlockExponent int
	Orientations  int
	Scheme        string
	Blend         bool
	Noise         int
	Workers       int

	// ResizeW and ResizeH are zero unless -resize was given.
	ResizeW, ResizeH int

	Convert bool
	Serve   string
	Stats   int
	Verbose bool
}

// Options converts the engine-related fields into retile.Options.
func (c Config) Options() retile.Options {
	return retile.Options{
		BlockExponent: c.BlockExponent,
		Orientations:  c.Orientations,
		Scheme:        c.Scheme,
		Blend:         c.Blend,
		Workers:       c.Workers,
		Noise:         c.Noise,
	}
}

// Sequence reports whether the input path names a numbered frame sequence.
func (c Config) Sequence() bool {
	return strings.Contains(c.InPath, "%")
}

// ParseArgs parses args (without the program name) and returns a
// validated Config. Invalid arguments yield an error wrapping ErrUsage;
// -h yields flag.ErrHelp.
func ParseArgs(args []string) (Config, error) {
	def := retile.DefaultOptions()
	fs := flag.NewFlagSet("retile", flag.ContinueOnError)

	var cfg Config
	var resize string
	fs.StringVar(&cfg.InPath, "in", "1.bmp", "Path to target image; a printf verb (e.g. frame%04d.png) selects a numbered sequence starting at 1")
	fs.StringVar(&cfg.PalettePath, "palette", "2.bmp", "Path to palette image the tiles are cut from")
	fs.StringVar(&cfg.PalettePath, "pattern", "2.bmp", "Alias for -palette")
	fs.StringVar(&cfg.OutPath, "out", "3.bmp", "Path to output image (png, jpg, bmp, bin, bin.zst); may hold a printf verb")
	fs.IntVar(&cfg.BlockExponent, "size", def.BlockExponent, "Block edge exponent: tiles are 2^size pixels wide")
	fs.IntVar(&cfg.Orientations, "transforms", def.Orientations, "Number of tile orientations sampled into the dictionary (1-6)")
	fs.StringVar(&cfg.Scheme, "scheme", def.Scheme, "Color scheme: "+schemeList())
	fs.BoolVar(&cfg.Blend, "blend", false, "Re-tint tiles with the target's colors")
	fs.IntVar(&cfg.Noise, "noise", 0, "Reserved, has no effect")
	fs.IntVar(&cfg.Workers, "workers", 0, "Concurrent match workers (0 = number of CPUs)")
	fs.StringVar(&resize, "resize", "", "Scale each target to WxH before processing (e.g. 640x480)")
	fs.BoolVar(&cfg.Convert, "convert", false, "Only re-encode the input frames to the output format")
	fs.StringVar(&cfg.Serve, "serve", "", "Serve the HTTP API on this address (e.g. :8080) instead of processing files")
	fs.IntVar(&cfg.Stats, "stats", 0, "Print the N most used tiles after the run")
	fs.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: retile [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(fs.Output(), "\nExamples:\n  retile -in=photo.png -palette=tiles.png -out=mosaic.png -size=4 -blend\n  retile -in=frames/%%04d.bmp -palette=tiles.bmp -out=out/%%04d.png -stats=10\n  retile -serve=:8080 -palette=tiles.png\n")
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return Config{}, err
		}
		return Config{}, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if fs.NArg() > 0 {
		return Config{}, fmt.Errorf("%w: unexpected argument %q", ErrUsage, fs.Arg(0))
	}

	if resize != "" {
		w, h, err := imaging.ParseSize(resize)
		if err != nil {
			return Config{}, fmt.Errorf("%w: --resize: %w", ErrUsage, err)
		}
		cfg.ResizeW, cfg.ResizeH = w, h
	}

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	return cfg, nil
}

// Parse parses os.Args.
func Parse() (Config, error) {
	return ParseArgs(os.Args[1:])
}

func (c Config) validate() error {
	if c.Stats < 0 {
		return fmt.Errorf("--stats must be >= 0, got %d", c.Stats)
	}
	if c.Convert && c.Serve != "" {
		return fmt.Errorf("--convert and --serve are mutually exclusive")
	}
	if c.Serve == "" {
		if c.InPath == "" {
			return fmt.Errorf("--in is required")
		}
		if c.OutPath == "" {
			return fmt.Errorf("--out is required")
		}
		if f := imaging.FormatOf(c.OutPath); f == imaging.FormatUnknown || f == imaging.FormatWEBP {
			return fmt.Errorf("--out %q: %w", c.OutPath, imaging.ErrUnsupportedFormat)
		}
		if strings.Contains(c.OutPath, "%") != c.Sequence() {
			return fmt.Errorf("--in and --out must both or neither hold a frame number verb")
		}
	}
	if c.Convert {
		return nil
	}
	if c.PalettePath == "" {
		return fmt.Errorf("--palette is required")
	}
	if err := c.Options().Validate(); err != nil {
		return err
	}
	return nil
}

func schemeList() string {
	names := make([]string, 0, len(color.Schemes()))
	for _, s := range color.Schemes() {
		names = append(names, s.String())
	}
	return strings.Join(names, ", ")
}
