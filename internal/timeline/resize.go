package timeline

import "math"

// canvasTolerance is the relative difference under which two canvases count
// as equal, so a no-op ratio change does not accumulate rounding drift.
const canvasTolerance = 0.01

// ResizeOverlays rescales every overlay's position and size from the old
// canvas to the new one. X and Y scale independently and round to the
// nearest pixel. Timing and styles are untouched. When the canvases are
// equal within tolerance the input slice is returned unchanged.
func ResizeOverlays(overlays []*Overlay, oldCanvas, newCanvas Canvas) []*Overlay {
	if canvasEqual(oldCanvas, newCanvas) {
		return overlays
	}

	scaleX := float64(newCanvas.Width) / float64(oldCanvas.Width)
	scaleY := float64(newCanvas.Height) / float64(oldCanvas.Height)

	out := make([]*Overlay, len(overlays))
	for i, o := range overlays {
		dup := o.Clone()
		dup.Left = scaleRound(o.Left, scaleX)
		dup.Top = scaleRound(o.Top, scaleY)
		dup.Width = scaleRound(o.Width, scaleX)
		dup.Height = scaleRound(o.Height, scaleY)
		out[i] = dup
	}
	return out
}

func canvasEqual(a, b Canvas) bool {
	if a.Width == 0 || a.Height == 0 {
		return a == b
	}
	dw := math.Abs(float64(b.Width-a.Width)) / float64(a.Width)
	dh := math.Abs(float64(b.Height-a.Height)) / float64(a.Height)
	return dw < canvasTolerance && dh < canvasTolerance
}

func scaleRound(v int, scale float64) int {
	return int(math.Round(float64(v) * scale))
}
