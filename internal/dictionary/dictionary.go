package dictionary

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/maax3v3/retile/internal/block"
	"github.com/maax3v3/retile/internal/color"
	"github.com/maax3v3/retile/internal/raster"
)

// ErrEmptyDictionary is returned when the palette yields no prototype.
var ErrEmptyDictionary = errors.New("dictionary is empty")

// Config freezes the sampling parameters shared by the palette and every
// target processed against the dictionary.
type Config struct {
	Edge         int          // block edge length in pixels
	Orientations int          // orientations 0..Orientations-1 are sampled
	Scheme       color.Scheme // feature space of the descriptors
}

// Validate checks that the configuration can produce a dictionary.
func (c Config) Validate() error {
	if c.Edge < 1 {
		return fmt.Errorf("block edge must be >= 1, got %d", c.Edge)
	}
	if c.Orientations < 1 || c.Orientations > block.MaxOrientations {
		return fmt.Errorf("orientation count must be between 1 and %d, got %d", block.MaxOrientations, c.Orientations)
	}
	if c.Scheme.Channels() == 0 {
		return fmt.Errorf("unknown color scheme %v", c.Scheme)
	}
	return nil
}

// Prototype is one dictionary entry: the descriptor of a palette block
// under one orientation and the raw colors it was read from.
type Prototype struct {
	Features    []float64
	Bucket      []color.RGB
	Block       raster.Block
	Orientation block.Orientation

	hits atomic.Int64
}

// Hits returns how many target blocks selected this prototype.
func (p *Prototype) Hits() int64 {
	return p.hits.Load()
}

// Dictionary is the ordered prototype set built from a palette. Only the
// hit counters change after Build returns.
type Dictionary struct {
	Config     Config
	Prototypes []*Prototype
}

// Build samples every edge×edge block of the palette, in raster order,
// under each configured orientation. Samples that fall out of range are
// skipped, so the result may be smaller than blocks×orientations.
func Build(palette *raster.Grid, cfg Config) (*Dictionary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	blocks := palette.Blocks(cfg.Edge)
	d := &Dictionary{
		Config:     cfg,
		Prototypes: make([]*Prototype, 0, len(blocks)*cfg.Orientations),
	}

	for _, b := range blocks {
		for o := block.Orientation(0); int(o) < cfg.Orientations; o++ {
			s, ok := block.Read(palette, b.X, b.Y, b.Edge, b.Edge, o, cfg.Scheme, true)
			if !ok {
				continue
			}
			d.Prototypes = append(d.Prototypes, &Prototype{
				Features:    s.Features,
				Bucket:      s.Bucket,
				Block:       b,
				Orientation: o,
			})
		}
	}

	if len(d.Prototypes) == 0 {
		return nil, fmt.Errorf("%w: palette %dx%d has no %dx%d block",
			ErrEmptyDictionary, palette.Width, palette.Height, cfg.Edge, cfg.Edge)
	}
	return d, nil
}

// Len returns the number of prototypes.
func (d *Dictionary) Len() int {
	return len(d.Prototypes)
}

// Hit records one selection of prototype i.
func (d *Dictionary) Hit(i int) {
	d.Prototypes[i].hits.Add(1)
}

// ResetHits zeroes every counter.
func (d *Dictionary) ResetHits() {
	for _, p := range d.Prototypes {
		p.hits.Store(0)
	}
}
