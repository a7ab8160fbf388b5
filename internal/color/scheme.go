package color

import (
	"fmt"
	"math"
	"strings"
)

// Scheme selects the feature space a color is projected into before blocks
// are compared.
type Scheme int

// Available color schemes.
const (
	RGB1 Scheme = iota // channel mean
	YUV1               // integer luma
	YUV2               // luma on the unit circle
	RGB3               // raw channels
	RGB6               // sin/cos of each channel scaled to [0,π]
)

var schemeNames = [...]string{
	RGB1: "rgb1",
	YUV1: "yuv1",
	YUV2: "yuv2",
	RGB3: "rgb3",
	RGB6: "rgb6",
}

// Schemes lists every scheme in declaration order.
func Schemes() []Scheme {
	return []Scheme{RGB1, YUV1, YUV2, RGB3, RGB6}
}

// ParseScheme resolves a scheme by its lowercase name.
func ParseScheme(name string) (Scheme, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range schemeNames {
		if n == name {
			return Scheme(i), nil
		}
	}
	return 0, fmt.Errorf("unknown color scheme %q (supported: %s)", name, strings.Join(schemeNames[:], ", "))
}

func (s Scheme) String() string {
	if s < 0 || int(s) >= len(schemeNames) {
		return fmt.Sprintf("Scheme(%d)", int(s))
	}
	return schemeNames[s]
}

// Channels returns the length of the vector Translate appends.
func (s Scheme) Channels() int {
	switch s {
	case RGB1, YUV1:
		return 1
	case YUV2:
		return 2
	case RGB3:
		return 3
	case RGB6:
		return 6
	}
	return 0
}

// Translate appends the feature vector of c to dst and returns the extended
// slice.
func (s Scheme) Translate(dst []float64, c RGB) []float64 {
	r, g, b := c.R(), c.G(), c.B()
	switch s {
	case RGB1:
		return append(dst, float64((int(r)+int(g)+int(b))/3))
	case YUV1:
		return append(dst, math.Trunc(luma(r, g, b)))
	case YUV2:
		a := math.Pi * luma(r, g, b) / 255.0
		return append(dst, math.Sin(a), math.Cos(a))
	case RGB3:
		return append(dst, float64(r), float64(g), float64(b))
	case RGB6:
		ar := math.Pi * float64(r) / 255.0
		ag := math.Pi * float64(g) / 255.0
		ab := math.Pi * float64(b) / 255.0
		return append(dst,
			math.Sin(ar), math.Sin(ag), math.Sin(ab),
			math.Cos(ar), math.Cos(ag), math.Cos(ab))
	}
	return dst
}

func luma(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}
