package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
)

// CompareResult contains the results of an image comparison.
type CompareResult struct {
	Match           bool
	DifferentPixels int
	TotalPixels     int
	MaxDifference   int // largest colour channel difference found
	// Diff marks differing pixels in red over a grey copy of the actual
	// image. Only set when requested.
	Diff *image.RGBA
}

// CompareOptions configures the image comparison.
type CompareOptions struct {
	// Tolerance is the allowed difference per colour channel (0-255).
	Tolerance int
	// MaxDifferentPercent, if > 0, accepts up to this share of differing
	// pixels.
	MaxDifferentPercent float64
	// WithDiff builds CompareResult.Diff.
	WithDiff bool
}

// Compare checks two pictures pixel by pixel. It is used to check that an
// incrementally updated tree draws the same as a freshly built one.
func Compare(actual, expected image.Image, opts CompareOptions) (*CompareResult, error) {
	bounds := actual.Bounds()
	if bounds != expected.Bounds() {
		return &CompareResult{}, fmt.Errorf("image dimensions differ: actual=%v, expected=%v", bounds, expected.Bounds())
	}

	result := &CompareResult{
		Match:       true,
		TotalPixels: bounds.Dx() * bounds.Dy(),
	}
	if opts.WithDiff {
		result.Diff = image.NewRGBA(bounds)
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			ar, ag, ab, aa := actual.At(x, y).RGBA()
			er, eg, eb, ea := expected.At(x, y).RGBA()
			ar, ag, ab, aa = ar>>8, ag>>8, ab>>8, aa>>8
			er, eg, eb, ea = er>>8, eg>>8, eb>>8, ea>>8

			diff := max(
				absInt(int(ar)-int(er)),
				absInt(int(ag)-int(eg)),
				absInt(int(ab)-int(eb)),
				absInt(int(aa)-int(ea)),
			)
			result.MaxDifference = max(result.MaxDifference, diff)

			if diff > opts.Tolerance {
				result.Match = false
				result.DifferentPixels++
				if result.Diff != nil {
					result.Diff.Set(x, y, color.RGBA{255, 0, 0, 255})
				}
			} else if result.Diff != nil {
				gray := uint8(ar)
				result.Diff.Set(x, y, color.RGBA{gray, gray, gray, 255})
			}
		}
	}

	if !result.Match && opts.MaxDifferentPercent > 0 {
		pct := float64(result.DifferentPixels) / float64(result.TotalPixels) * 100
		if pct <= opts.MaxDifferentPercent {
			result.Match = true
		}
	}
	return result, nil
}

// LoadPNG reads a reference picture.
func LoadPNG(path string) (image.Image, error) {
	img, err := gg.LoadPNG(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference image: %w", err)
	}
	return img, nil
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
