package stats

import (
	"sort"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/maax3v3/retile/internal/color"
	"github.com/maax3v3/retile/internal/dictionary"
	"github.com/maax3v3/retile/internal/raster"
)

// Entry describes how often one prototype was selected.
type Entry struct {
	Index       int    `json:"index"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Orientation string `json:"orientation"`
	Hits        int64  `json:"hits"`
	Dominant    string `json:"dominant"` // hex color, e.g. "#ff0000"
	Mean        string `json:"mean"`
}

// Report summarizes prototype usage across every frame processed so far.
type Report struct {
	Prototypes int     `json:"prototypes"`
	Used       int     `json:"used"`  // prototypes selected at least once
	Total      int64   `json:"total"` // sum of all hits
	Top        []Entry `json:"top"`
}

// Top returns the n most selected prototypes, ordered by hits descending
// then by index. Prototypes never selected are left out. n <= 0 means all.
func Top(d *dictionary.Dictionary, n int) Report {
	rep := Report{Prototypes: d.Len()}

	type used struct {
		idx  int
		hits int64
	}
	var all []used
	for i, p := range d.Prototypes {
		h := p.Hits()
		if h == 0 {
			continue
		}
		rep.Used++
		rep.Total += h
		all = append(all, used{idx: i, hits: h})
	}

	sort.SliceStable(all, func(a, b int) bool {
		return all[a].hits > all[b].hits
	})
	if n > 0 && len(all) > n {
		all = all[:n]
	}

	rep.Top = make([]Entry, 0, len(all))
	for _, u := range all {
		p := d.Prototypes[u.idx]
		rep.Top = append(rep.Top, Entry{
			Index:       u.idx,
			X:           p.Block.X,
			Y:           p.Block.Y,
			Orientation: p.Orientation.String(),
			Hits:        u.hits,
			Dominant:    dominantHex(p),
			Mean:        meanHex(p.Bucket),
		})
	}
	return rep
}

func dominantHex(p *dictionary.Prototype) string {
	edge := p.Block.Edge
	if edge == 0 || len(p.Bucket) != edge*edge {
		return meanHex(p.Bucket)
	}
	img := (&raster.Grid{Width: edge, Height: edge, Pix: p.Bucket}).Image()
	c, ok := colorful.MakeColor(dominantcolor.Find(img))
	if !ok {
		return meanHex(p.Bucket)
	}
	return c.Hex()
}

func meanHex(bucket []color.RGB) string {
	if len(bucket) == 0 {
		return colorful.Color{}.Hex()
	}
	var r, g, b float64
	for _, c := range bucket {
		r += float64(c.R())
		g += float64(c.G())
		b += float64(c.B())
	}
	n := float64(len(bucket)) * 255
	return colorful.Color{R: r / n, G: g / n, B: b / n}.Hex()
}
