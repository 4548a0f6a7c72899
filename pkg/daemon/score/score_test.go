package score_test

import (
	"testing"
	"time"

	"github.com/lumenapp/lumen/pkg/daemon/score"
	"github.com/lumenapp/lumen/pkg/library"
)

func image(w, h int) library.Asset {
	return library.Asset{
		ID:        "a",
		Type:      library.MediaImage,
		CreatedAt: time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC),
		Width:     w,
		Height:    h,
	}
}

func TestScoreLowResSquare(t *testing.T) {
	// 500x500, no edits, no location, not a screenshot, not a burst:
	// -100 low-res, +20 square aspect bonus.
	a := image(500, 500)
	if got := score.Asset(a); got != -80 {
		t.Errorf("expected -80, got %d", got)
	}
}

func TestScoreScreenshot(t *testing.T) {
	a := image(500, 500)
	a.Screenshot = true
	if got := score.Asset(a); got != -580 {
		t.Errorf("expected -580, got %d", got)
	}
}

func TestScoreHiddenSentinel(t *testing.T) {
	a := image(4000, 3000)
	a.Hidden = true
	if got := score.Asset(a); got != score.Hidden {
		t.Errorf("expected hidden sentinel, got %d", got)
	}

	// Hidden wins over every other field.
	a.Adjusted = true
	a.DepthEffect = true
	a.Location = &library.Coordinate{Latitude: 1, Longitude: 2}
	if got := score.Asset(a); got != score.Hidden {
		t.Errorf("expected hidden sentinel, got %d", got)
	}
}

func TestScoreNonImage(t *testing.T) {
	a := image(4000, 3000)
	a.Type = library.MediaVideo
	if got := score.Asset(a); got != 0 {
		t.Errorf("expected 0 for non-image, got %d", got)
	}
}

func TestScoreAccumulation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*library.Asset)
		want   int64
	}{
		{
			name:   "high-res square baseline",
			mutate: func(a *library.Asset) {},
			want:   20,
		},
		{
			name:   "adjustments",
			mutate: func(a *library.Asset) { a.Adjusted = true },
			want:   170,
		},
		{
			name:   "depth effect",
			mutate: func(a *library.Asset) { a.DepthEffect = true },
			want:   320,
		},
		{
			name:   "location",
			mutate: func(a *library.Asset) { a.Location = &library.Coordinate{Latitude: 38.7, Longitude: -9.1} },
			want:   30,
		},
		{
			name:   "burst with user pick",
			mutate: func(a *library.Asset) { a.Burst = true; a.BurstUserPick = true },
			want:   70,
		},
		{
			name:   "burst with auto pick",
			mutate: func(a *library.Asset) { a.Burst = true; a.BurstAutoPick = true },
			want:   70,
		},
		{
			name:   "burst without pick",
			mutate: func(a *library.Asset) { a.Burst = true },
			want:   -30,
		},
		{
			name: "everything",
			mutate: func(a *library.Asset) {
				a.Adjusted = true
				a.DepthEffect = true
				a.Location = &library.Coordinate{}
				a.Burst = true
				a.BurstUserPick = true
			},
			want: 530,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := image(4000, 4000)
			tt.mutate(&a)
			if got := score.Asset(a); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestScoreAspectRatio(t *testing.T) {
	// Panorama: ratio > 2.5 is penalized instead of getting the bonus.
	pano := image(8000, 2000)
	if got := score.Asset(pano); got != -200 {
		t.Errorf("expected -200 for panorama, got %d", got)
	}

	// Orientation must not matter.
	tall := image(2000, 8000)
	if got := score.Asset(tall); got != -200 {
		t.Errorf("expected -200 for tall panorama, got %d", got)
	}

	// Exactly 2.5 stays on the bonus side.
	edge := image(5000, 2000)
	if got := score.Asset(edge); got != 20 {
		t.Errorf("expected 20 at ratio boundary, got %d", got)
	}

	// Zero dimensions: no ratio term at all, only the low-res penalty.
	zero := image(0, 0)
	if got := score.Asset(zero); got != -100 {
		t.Errorf("expected -100 for zero dimensions, got %d", got)
	}
}

func TestScoreDeterminism(t *testing.T) {
	a := image(3000, 2000)
	a.Adjusted = true
	a.Location = &library.Coordinate{Latitude: 51.5, Longitude: -0.1}

	first := score.Asset(a)
	for i := 0; i < 100; i++ {
		if got := score.Asset(a); got != first {
			t.Fatalf("score changed across calls: %d != %d", got, first)
		}
	}
}
