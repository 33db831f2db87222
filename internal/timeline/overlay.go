// Package timeline holds the overlay data model for the editor session and
// the structural operations on it: add, delete, duplicate, split, row
// management, and the geometry math shared by the canvas transform.
package timeline

type Kind string

const (
	KindText    Kind = "text"
	KindImage   Kind = "image"
	KindShape   Kind = "shape"
	KindClip    Kind = "clip"
	KindSound   Kind = "sound"
	KindCaption Kind = "caption"
	KindSticker Kind = "sticker"
)

// Valid reports whether k is one of the known overlay kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindText, KindImage, KindShape, KindClip, KindSound, KindCaption, KindSticker:
		return true
	}
	return false
}

// Word is a single caption word with absolute-millisecond timing relative to
// the start of the overlay's media.
type Word struct {
	Text    string `json:"text"`
	StartMs int    `json:"startMs"`
	EndMs   int    `json:"endMs"`
}

// Caption is a group of words displayed together. Word intervals are nested
// within [StartMs, EndMs) and contiguous in reading order.
type Caption struct {
	Text    string `json:"text"`
	StartMs int    `json:"startMs"`
	EndMs   int    `json:"endMs"`
	Words   []Word `json:"words,omitempty"`
}

// CropRect is a crop rectangle in percentages of the overlay's own box.
// The default (0, 0, 100, 100) means no cropping.
type CropRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func DefaultCrop() CropRect {
	return CropRect{X: 0, Y: 0, Width: 100, Height: 100}
}

func (c CropRect) IsDefault() bool {
	return c.X == 0 && c.Y == 0 && c.Width == 100 && c.Height == 100
}

// Valid reports whether the rectangle stays within the overlay's box.
func (c CropRect) Valid() bool {
	return c.X >= 0 && c.Y >= 0 && c.Width > 0 && c.Height > 0 &&
		c.X+c.Width <= 100 && c.Y+c.Height <= 100
}

// Styles is the variant-specific appearance bag shared by all overlay kinds.
// Fields that do not apply to a kind are simply left zero.
type Styles struct {
	Opacity        *float64  `json:"opacity,omitempty"`
	Filter         string    `json:"filter,omitempty"`
	Crop           *CropRect `json:"crop,omitempty"`
	AnimationIn    string    `json:"animationIn,omitempty"`
	AnimationOut   string    `json:"animationOut,omitempty"`
	Volume         *float64  `json:"volume,omitempty"`
	FadeInSeconds  float64   `json:"fadeInSeconds,omitempty"`
	FadeOutSeconds float64   `json:"fadeOutSeconds,omitempty"`
	Color          string    `json:"color,omitempty"`
	FontFamily     string    `json:"fontFamily,omitempty"`
}

// Overlay is one positioned, time-bounded timeline element. The Kind field
// tags the variant; variant payloads (Src, Captions, WaveformPeaks, ...) are
// populated only for the kinds that carry them.
type Overlay struct {
	ID               int     `json:"id"`
	Kind             Kind    `json:"kind"`
	From             int     `json:"from"`
	DurationInFrames int     `json:"durationInFrames"`
	Row              int     `json:"row"`
	Left             int     `json:"left"`
	Top              int     `json:"top"`
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	Rotation         float64 `json:"rotation,omitempty"`

	// Text body for text overlays, shape name for shape overlays.
	Content string `json:"content,omitempty"`

	// Media payload for clip and sound overlays.
	Src                   string  `json:"src,omitempty"`
	StartFromSeconds      float64 `json:"startFromSeconds,omitempty"`
	SourceDurationSeconds float64 `json:"sourceDurationSeconds,omitempty"`

	// Caption payload.
	Captions []Caption `json:"captions,omitempty"`

	// Cached waveform peaks for sound overlays.
	WaveformPeaks []float64 `json:"waveformPeaks,omitempty"`

	Styles Styles `json:"styles"`
}

// End returns the first frame past the overlay, i.e. the exclusive bound of
// its [From, From+DurationInFrames) interval.
func (o *Overlay) End() int {
	return o.From + o.DurationInFrames
}

// OverlapsRange reports whether the overlay's interval intersects [from, end).
func (o *Overlay) OverlapsRange(from, end int) bool {
	return o.From < end && from < o.End()
}

// Clone returns a deep copy of the overlay.
func (o *Overlay) Clone() *Overlay {
	dup := *o

	if o.Captions != nil {
		dup.Captions = make([]Caption, len(o.Captions))
		for i, c := range o.Captions {
			cc := c
			if c.Words != nil {
				cc.Words = make([]Word, len(c.Words))
				copy(cc.Words, c.Words)
			}
			dup.Captions[i] = cc
		}
	}

	if o.WaveformPeaks != nil {
		dup.WaveformPeaks = make([]float64, len(o.WaveformPeaks))
		copy(dup.WaveformPeaks, o.WaveformPeaks)
	}

	if o.Styles.Opacity != nil {
		v := *o.Styles.Opacity
		dup.Styles.Opacity = &v
	}
	if o.Styles.Volume != nil {
		v := *o.Styles.Volume
		dup.Styles.Volume = &v
	}
	if o.Styles.Crop != nil {
		v := *o.Styles.Crop
		dup.Styles.Crop = &v
	}

	return &dup
}

// Patch is a partial overlay update. Nil fields are left unchanged.
type Patch struct {
	From             *int     `json:"from,omitempty"`
	DurationInFrames *int     `json:"durationInFrames,omitempty"`
	Row              *int     `json:"row,omitempty"`
	Left             *int     `json:"left,omitempty"`
	Top              *int     `json:"top,omitempty"`
	Width            *int     `json:"width,omitempty"`
	Height           *int     `json:"height,omitempty"`
	Rotation         *float64 `json:"rotation,omitempty"`
	Content          *string  `json:"content,omitempty"`
	Src              *string  `json:"src,omitempty"`
	StartFromSeconds *float64 `json:"startFromSeconds,omitempty"`

	// Replaces the caption list wholesale; words are retimed evenly.
	Captions []Caption `json:"captions,omitempty"`

	Styles *StylesPatch `json:"styles,omitempty"`
}

// StylesPatch is a partial styles update. Nil fields are left unchanged.
type StylesPatch struct {
	Opacity        *float64  `json:"opacity,omitempty"`
	Filter         *string   `json:"filter,omitempty"`
	Crop           *CropRect `json:"crop,omitempty"`
	AnimationIn    *string   `json:"animationIn,omitempty"`
	AnimationOut   *string   `json:"animationOut,omitempty"`
	Volume         *float64  `json:"volume,omitempty"`
	FadeInSeconds  *float64  `json:"fadeInSeconds,omitempty"`
	FadeOutSeconds *float64  `json:"fadeOutSeconds,omitempty"`
	Color          *string   `json:"color,omitempty"`
	FontFamily     *string   `json:"fontFamily,omitempty"`
}
