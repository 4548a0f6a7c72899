// Package store holds the in-memory photo index and its on-disk form.
// All mutations run on a single worker goroutine so readers always see
// a consistent mapping.
package store

import (
	"math"

	"github.com/lumenapp/lumen/pkg/daemon/score"
	"github.com/lumenapp/lumen/pkg/library"
)

// Entry is one indexed asset: the metadata needed to answer ranked
// queries without going back to the library, plus the cached score.
type Entry struct {
	// AssetID is carried as the map key in the persisted form.
	AssetID string `json:"-"`

	MediaType library.MediaType `json:"mediaType"`

	IsHidden     bool `json:"isHidden"`
	IsScreenshot bool `json:"isScreenshot"`

	HasDepthEffect  bool `json:"hasDepthEffect"`
	HasAdjustments  bool `json:"hasAdjustments"`
	RepresentsBurst bool `json:"representsBurst"`
	BurstUserPick   bool `json:"burstHasUserPick"`
	BurstAutoPick   bool `json:"burstHasAutoPick"`

	PixelWidth  uint16 `json:"pixelWidth"`
	PixelHeight uint16 `json:"pixelHeight"`

	HasLocation bool     `json:"hasLocation"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`

	CreationYear int `json:"creationYear"`

	// Score is computed once at index time, never at query time.
	Score int64 `json:"score"`
}

// FromAsset builds an index entry from a live asset, scoring it.
func FromAsset(a library.Asset) Entry {
	e := Entry{
		AssetID:         a.ID,
		MediaType:       a.Type,
		IsHidden:        a.Hidden,
		IsScreenshot:    a.Screenshot,
		HasDepthEffect:  a.DepthEffect,
		HasAdjustments:  a.Adjusted,
		RepresentsBurst: a.Burst,
		BurstUserPick:   a.BurstUserPick,
		BurstAutoPick:   a.BurstAutoPick,
		PixelWidth:      clampDimension(a.Width),
		PixelHeight:     clampDimension(a.Height),
		CreationYear:    a.CreatedAt.Year(),
		Score:           score.Asset(a),
	}

	if a.Location != nil {
		lat, lon := a.Location.Latitude, a.Location.Longitude
		e.HasLocation = true
		e.Latitude = &lat
		e.Longitude = &lon
	}

	return e
}

// Qualifies reports whether the entry may appear in query results.
// Hidden assets and non-images are indexed but never returned.
func (e Entry) Qualifies() bool {
	return !e.IsHidden && e.MediaType == library.MediaImage
}

func clampDimension(d int) uint16 {
	if d < 0 {
		return 0
	}
	if d > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(d)
}
