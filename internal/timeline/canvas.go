package timeline

// AspectRatio identifies one of the supported output geometries. Canvas
// dimensions come from a fixed lookup table, never from arbitrary fractions.
type AspectRatio string

const (
	AspectWidescreen     AspectRatio = "16:9"
	AspectSquare         AspectRatio = "1:1"
	AspectPortraitLong   AspectRatio = "9:16"
	AspectPortraitMedium AspectRatio = "4:5"
)

// Canvas is the pixel dimensions of the output composition.
type Canvas struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

var canvasDimensions = map[AspectRatio]Canvas{
	AspectWidescreen:     {Width: 1280, Height: 720},
	AspectSquare:         {Width: 1080, Height: 1080},
	AspectPortraitLong:   {Width: 1080, Height: 1920},
	AspectPortraitMedium: {Width: 1080, Height: 1350},
}

// Dimensions returns the canvas for a ratio identifier. The second return is
// false for unknown ratios.
func Dimensions(ratio AspectRatio) (Canvas, bool) {
	c, ok := canvasDimensions[ratio]
	return c, ok
}

// AspectRatios lists the supported ratio identifiers.
func AspectRatios() []AspectRatio {
	return []AspectRatio{AspectWidescreen, AspectSquare, AspectPortraitLong, AspectPortraitMedium}
}
