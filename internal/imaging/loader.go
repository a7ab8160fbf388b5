package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/maax3v3/retile/internal/raster"
)

// ErrUnsupportedFormat is returned for file extensions with no codec.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Format identifies a file codec by extension.
type Format int

// Known formats.
const (
	FormatUnknown Format = iota
	FormatPNG
	FormatJPEG
	FormatWEBP
	FormatBMP
	FormatRaw
	FormatRawZstd
)

// FormatOf returns the codec implied by path's extension.
func FormatOf(path string) Format {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".bin.zst") {
		return FormatRawZstd
	}
	switch filepath.Ext(lower) {
	case ".png":
		return FormatPNG
	case ".jpg", ".jpeg":
		return FormatJPEG
	case ".webp":
		return FormatWEBP
	case ".bmp":
		return FormatBMP
	case ".bin":
		return FormatRaw
	}
	return FormatUnknown
}

// Load reads an image file from disk. Supports PNG, JPEG, WEBP, BMP and the
// raw .bin / .bin.zst frame formats.
// The path is normalized: ~ is expanded to the user's home directory,
// and relative paths are resolved to absolute.
func Load(path string) (image.Image, error) {
	path = ExpandPath(path)
	format := FormatOf(path)
	if format == FormatUnknown {
		return nil, fmt.Errorf("%w %q (supported: png, jpg, jpeg, webp, bmp, bin, bin.zst)", ErrUnsupportedFormat, filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	switch format {
	case FormatPNG:
		return png.Decode(f)
	case FormatJPEG:
		return jpeg.Decode(f)
	case FormatBMP:
		return bmp.Decode(f)
	case FormatRaw:
		g, err := ReadRaw(f)
		if err != nil {
			return nil, err
		}
		return g.Image(), nil
	case FormatRawZstd:
		g, err := ReadRawZstd(f)
		if err != nil {
			return nil, err
		}
		return g.Image(), nil
	default:
		// Decoded via the blank import of golang.org/x/image/webp
		img, _, err := image.Decode(f)
		return img, err
	}
}

// ErrTooLarge is returned when an image declares more pixels than allowed.
var ErrTooLarge = errors.New("image too large")

// DecodeBounded is Decode for untrusted input. The dimensions in the header
// are checked against maxPixels before any pixel buffer is allocated.
func DecodeBounded(r io.Reader, maxPixels int) (image.Image, error) {
	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return nil, fmt.Errorf("decoding image header: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, cfg.Width, cfg.Height, maxPixels)
	}
	return Decode(io.MultiReader(&head, r))
}

// Decode sniffs and decodes an encoded image from r. Supports PNG, JPEG,
// WEBP and BMP.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// Save writes an image to disk, choosing the encoder from the extension.
// The path is normalized: ~ is expanded and relative paths are resolved.
func Save(path string, img image.Image) error {
	path = ExpandPath(path)
	format := FormatOf(path)
	switch format {
	case FormatPNG, FormatJPEG, FormatBMP, FormatRaw, FormatRawZstd:
	default:
		return fmt.Errorf("%w %q for output (supported: png, jpg, jpeg, bmp, bin, bin.zst)", ErrUnsupportedFormat, filepath.Ext(path))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}

	if err := encode(f, img, format); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}
	return nil
}

func encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case FormatPNG:
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("encoding PNG: %w", err)
		}
	case FormatJPEG:
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: 95}); err != nil {
			return fmt.Errorf("encoding JPEG: %w", err)
		}
	case FormatBMP:
		if err := bmp.Encode(w, img); err != nil {
			return fmt.Errorf("encoding BMP: %w", err)
		}
	case FormatRaw:
		return WriteRaw(w, raster.FromImage(img))
	case FormatRawZstd:
		return WriteRawZstd(w, raster.FromImage(img))
	}
	return nil
}

// ExpandPath normalizes a file path by expanding ~ to the user's home
// directory and resolving relative paths to absolute.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	// Expand ~ and ~/ to home directory
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}

	// On Windows, also handle ~\
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "~\\") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	// Resolve relative paths to absolute
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return filepath.Clean(path)
}

// Exists reports whether path names an existing file.
func Exists(path string) bool {
	_, err := os.Stat(ExpandPath(path))
	return err == nil
}
