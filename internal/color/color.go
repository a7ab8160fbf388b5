package color

import (
	"image/color"
)

// RGB is a packed 24-bit color laid out as 0x00RRGGBB.
type RGB uint32

// Pack builds an RGB from its 8-bit channels.
func Pack(r, g, b uint8) RGB {
	return RGB(r)<<16 | RGB(g)<<8 | RGB(b)
}

// R returns the red channel.
func (c RGB) R() uint8 { return uint8(c >> 16) }

// G returns the green channel.
func (c RGB) G() uint8 { return uint8(c >> 8) }

// B returns the blue channel.
func (c RGB) B() uint8 { return uint8(c) }

// FromStdColor converts a standard library color to RGB. The straight
// (non-premultiplied) channels are kept and alpha is dropped.
func FromStdColor(c color.Color) RGB {
	switch c := c.(type) {
	case color.NRGBA:
		return Pack(c.R, c.G, c.B)
	case color.NRGBA64:
		return Pack(uint8(c.R>>8), uint8(c.G>>8), uint8(c.B>>8))
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Pack(n.R, n.G, n.B)
}

// ToStdColor converts RGB to an opaque standard library color.
func (c RGB) ToStdColor() color.RGBA {
	return color.RGBA{R: c.R(), G: c.G(), B: c.B(), A: 255}
}

// YUV is a BT.601 luma/chroma triple. Y lies in [0,1], U and V in [-0.5,0.5].
type YUV struct {
	Y, U, V float64
}

// ToYUV converts c to YUV, clamping each component to its nominal range.
func (c RGB) ToYUV() YUV {
	r := float64(c.R()) / 255.0
	g := float64(c.G()) / 255.0
	b := float64(c.B()) / 255.0

	y := 0.299*r + 0.587*g + 0.114*b
	u := -0.14713*r - 0.28886*g + 0.436*b
	v := 0.615*r - 0.51499*g - 0.10001*b

	return YUV{
		Y: clamp(y, 0, 1),
		U: clamp(u, -0.5, 0.5),
		V: clamp(v, -0.5, 0.5),
	}
}

// RGB converts back to a packed color. Channels are truncated toward zero
// and clamped to [0,255].
func (p YUV) RGB() RGB {
	r := (p.Y + 1.140*p.V) * 255
	g := (p.Y - 0.396*p.U - 0.581*p.V) * 255
	b := (p.Y + 2.029*p.U) * 255
	return Pack(channel(r), channel(g), channel(b))
}

// Remap applies the c²/255 tone curve to every channel.
func (c RGB) Remap() RGB {
	sq := func(v uint8) uint8 {
		x := uint32(v)
		return uint8(x * x / 255)
	}
	return Pack(sq(c.R()), sq(c.G()), sq(c.B()))
}

// MixLuma returns base with its luma replaced by the luma of src.
func MixLuma(src, base RGB) RGB {
	p := base.ToYUV()
	p.Y = src.ToYUV().Y
	return p.RGB()
}

func clamp(v, lo, hi float64) float64 {
	return min(hi, max(lo, v))
}

// channel truncates like an integer cast before clamping.
func channel(v float64) uint8 {
	n := int(v)
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return uint8(n)
}
