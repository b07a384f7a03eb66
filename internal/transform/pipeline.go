// Package transform decides and applies the per-image transforms: resize,
// channel adjustment, then mirroring. Decoding and encoding happen elsewhere;
// this package only sees decoded pixels.
package transform

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/tendant/simple-image-manip/internal/config"
)

// StepKind identifies one transform.
type StepKind string

const (
	StepResizeFit   StepKind = "resize_fit"
	StepResizeExact StepKind = "resize_exact"
	StepAdjust      StepKind = "adjust"
	StepFlipH       StepKind = "flip_h"
	StepFlipV       StepKind = "flip_v"
)

// Step is one planned transform.
type Step struct {
	Kind StepKind

	// Target size for resize steps.
	Width  int
	Height int

	// Channel deltas for StepAdjust.
	Red, Green, Blue int
}

func (s Step) String() string {
	switch s.Kind {
	case StepResizeFit, StepResizeExact:
		return fmt.Sprintf("%s(%dx%d)", s.Kind, s.Width, s.Height)
	case StepAdjust:
		return fmt.Sprintf("%s(r=%d,g=%d,b=%d)", s.Kind, s.Red, s.Green, s.Blue)
	default:
		return string(s.Kind)
	}
}

// Pipeline applies planned steps with a fixed resampling filter.
type Pipeline struct {
	filter imaging.ResampleFilter
}

// New creates a pipeline using Lanczos (3-lobe) resampling.
func New() *Pipeline {
	return &Pipeline{filter: imaging.Lanczos}
}

// Plan returns the steps cfg calls for on an image with the given bounds, in
// the order they run.
func Plan(cfg config.Config, bounds image.Rectangle) []Step {
	var steps []Step

	if cfg.ResizeEnabled() {
		w, h := int(cfg.Width), int(cfg.Height)
		if cfg.KeepAspectRatio {
			w, h = FitDimensions(bounds.Dx(), bounds.Dy(), w, h)
			steps = append(steps, Step{Kind: StepResizeFit, Width: w, Height: h})
		} else {
			steps = append(steps, Step{Kind: StepResizeExact, Width: w, Height: h})
		}
	}

	if cfg.AdjustEnabled() {
		steps = append(steps, Step{Kind: StepAdjust, Red: cfg.Red, Green: cfg.Green, Blue: cfg.Blue})
	}

	if cfg.FlipHorizontal {
		steps = append(steps, Step{Kind: StepFlipH})
	}
	if cfg.FlipVertical {
		steps = append(steps, Step{Kind: StepFlipV})
	}

	return steps
}

// Apply runs the steps cfg calls for and returns a new image. When no step
// applies the result is a copy of img.
func (p *Pipeline) Apply(img image.Image, cfg config.Config) *image.NRGBA {
	return p.Run(img, Plan(cfg, img.Bounds()))
}

// Run executes steps in order.
func (p *Pipeline) Run(img image.Image, steps []Step) *image.NRGBA {
	out := imaging.Clone(img)
	for _, step := range steps {
		switch step.Kind {
		case StepResizeFit, StepResizeExact:
			if out.Bounds().Dx() != step.Width || out.Bounds().Dy() != step.Height {
				out = imaging.Resize(out, step.Width, step.Height, p.filter)
			}
		case StepAdjust:
			out = AdjustChannels(out, step.Red, step.Green, step.Blue)
		case StepFlipH:
			out = imaging.FlipH(out)
		case StepFlipV:
			out = imaging.FlipV(out)
		}
	}
	return out
}

// FitDimensions scales srcW x srcH to fit inside boxW x boxH while keeping the
// aspect ratio. The image is scaled up when it is smaller than the box. Each
// side is at least one pixel.
func FitDimensions(srcW, srcH, boxW, boxH int) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return boxW, boxH
	}

	ratio := math.Min(float64(boxW)/float64(srcW), float64(boxH)/float64(srcH))
	w := clampInt(int(math.Round(float64(srcW)*ratio)), 1, boxW)
	h := clampInt(int(math.Round(float64(srcH)*ratio)), 1, boxH)
	return w, h
}

// AdjustChannels adds the deltas to every pixel's red, green and blue
// channels, saturating at 0 and 255. Alpha is unchanged.
func AdjustChannels(img image.Image, red, green, blue int) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: saturate(c.R, red),
			G: saturate(c.G, green),
			B: saturate(c.B, blue),
			A: c.A,
		}
	})
}

func saturate(v uint8, delta int) uint8 {
	return uint8(clampInt(int(v)+delta, 0, math.MaxUint8))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
