package timeline

import (
	"fmt"
	"math"
	"strconv"
)

// Bounds is a pixel rectangle relative to the canvas.
type Bounds struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ClipPath renders a crop rectangle as its CSS inset() equivalent:
// inset(top right bottom left) in percentages of the overlay box.
func ClipPath(c CropRect) string {
	top := c.Y
	right := 100 - c.X - c.Width
	bottom := 100 - c.Y - c.Height
	left := c.X
	return fmt.Sprintf("inset(%s%% %s%% %s%% %s%%)", pct(top), pct(right), pct(bottom), pct(left))
}

// EffectiveBounds returns the visible rectangle of the overlay: its own
// bounds when the crop is absent or at the default, otherwise the pixel
// sub-rectangle the crop percentages select within the overlay's box. The
// selection outline tracks this, not the original asset bounds.
func EffectiveBounds(o *Overlay) Bounds {
	own := Bounds{Left: o.Left, Top: o.Top, Width: o.Width, Height: o.Height}
	crop := o.Styles.Crop
	if crop == nil || crop.IsDefault() {
		return own
	}
	return Bounds{
		Left:   own.Left + int(math.Round(crop.X/100*float64(own.Width))),
		Top:    own.Top + int(math.Round(crop.Y/100*float64(own.Height))),
		Width:  int(math.Round(crop.Width / 100 * float64(own.Width))),
		Height: int(math.Round(crop.Height / 100 * float64(own.Height))),
	}
}

func pct(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
