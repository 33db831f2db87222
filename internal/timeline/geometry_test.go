package timeline

import "testing"

func TestClipPath(t *testing.T) {
	tests := []struct {
		name string
		crop CropRect
		want string
	}{
		{"full frame", DefaultCrop(), "inset(0% 0% 0% 0%)"},
		{"left half", CropRect{X: 0, Y: 0, Width: 50, Height: 100}, "inset(0% 50% 0% 0%)"},
		{"center", CropRect{X: 25, Y: 25, Width: 50, Height: 50}, "inset(25% 25% 25% 25%)"},
		{"fractional", CropRect{X: 10.5, Y: 0, Width: 80, Height: 100}, "inset(0% 9.5% 0% 10.5%)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClipPath(tt.crop); got != tt.want {
				t.Errorf("ClipPath(%+v) = %q, want %q", tt.crop, got, tt.want)
			}
		})
	}
}

func TestEffectiveBounds_DefaultCropIsOwnBounds(t *testing.T) {
	crop := DefaultCrop()
	o := &Overlay{Left: 10, Top: 20, Width: 300, Height: 200, Styles: Styles{Crop: &crop}}

	got := EffectiveBounds(o)
	want := Bounds{Left: 10, Top: 20, Width: 300, Height: 200}
	if got != want {
		t.Errorf("EffectiveBounds = %+v, want %+v", got, want)
	}
}

func TestEffectiveBounds_NilCropIsOwnBounds(t *testing.T) {
	o := &Overlay{Left: 5, Top: 6, Width: 70, Height: 80}

	got := EffectiveBounds(o)
	want := Bounds{Left: 5, Top: 6, Width: 70, Height: 80}
	if got != want {
		t.Errorf("EffectiveBounds = %+v, want %+v", got, want)
	}
}

func TestEffectiveBounds_CroppedSubRectangle(t *testing.T) {
	crop := CropRect{X: 25, Y: 50, Width: 50, Height: 25}
	o := &Overlay{Left: 100, Top: 200, Width: 400, Height: 400, Styles: Styles{Crop: &crop}}

	got := EffectiveBounds(o)
	want := Bounds{Left: 200, Top: 400, Width: 200, Height: 100}
	if got != want {
		t.Errorf("EffectiveBounds = %+v, want %+v", got, want)
	}
}

func TestCropRect_Valid(t *testing.T) {
	tests := []struct {
		name string
		crop CropRect
		want bool
	}{
		{"default", DefaultCrop(), true},
		{"interior", CropRect{X: 10, Y: 10, Width: 50, Height: 50}, true},
		{"exceeds right edge", CropRect{X: 60, Y: 0, Width: 50, Height: 100}, false},
		{"exceeds bottom edge", CropRect{X: 0, Y: 60, Width: 100, Height: 50}, false},
		{"zero width", CropRect{X: 0, Y: 0, Width: 0, Height: 100}, false},
		{"negative origin", CropRect{X: -1, Y: 0, Width: 50, Height: 50}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.crop.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}
