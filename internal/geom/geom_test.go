package geom

import (
	"math"
	"testing"
)

func TestPixelDistance(t *testing.T) {
	size := MediaSize{Width: 1920, Height: 1080}

	tests := []struct {
		name string
		a, b Point
		want float64
	}{
		{"same point", Point{0.5, 0.5}, Point{0.5, 0.5}, 0},
		{"horizontal", Point{0, 0.5}, Point{0.25, 0.5}, 480},
		{"vertical", Point{0.1, 0}, Point{0.1, 0.5}, 540},
		{"diagonal 3-4-5", Point{0, 0}, Point{300.0 / 1920, 400.0 / 1080}, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PixelDistance(tt.a, tt.b, size)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("PixelDistance(%v, %v) = %f, want %f", tt.a, tt.b, got, tt.want)
			}
			// symmetric
			if back := PixelDistance(tt.b, tt.a, size); math.Abs(back-got) > 1e-12 {
				t.Errorf("PixelDistance not symmetric: %f vs %f", got, back)
			}
		})
	}
}

func TestPixelDistanceUsesIntrinsicSize(t *testing.T) {
	a, b := Point{0, 0}, Point{1, 0}
	if got := PixelDistance(a, b, MediaSize{Width: 640, Height: 360}); got != 640 {
		t.Errorf("got %f, want 640", got)
	}
	if got := PixelDistance(a, b, MediaSize{Width: 3840, Height: 2160}); got != 3840 {
		t.Errorf("got %f, want 3840", got)
	}
}

func TestDistance(t *testing.T) {
	if got := Distance(Point{1, 1}, Point{4, 5}); math.Abs(got-5) > 1e-12 {
		t.Errorf("Distance = %f, want 5", got)
	}
}

func TestMediaSizeValid(t *testing.T) {
	if (MediaSize{}).Valid() {
		t.Error("zero size should be invalid")
	}
	if (MediaSize{Width: 10, Height: -1}).Valid() {
		t.Error("negative height should be invalid")
	}
	if !(MediaSize{Width: 10, Height: 10}).Valid() {
		t.Error("positive size should be valid")
	}
}
