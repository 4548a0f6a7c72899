// Package library defines the boundary to the device's photo library.
// The index only observes the library: it enumerates assets, resolves
// ids back to live assets, and subscribes to change notifications. It
// never owns or mutates library data.
package library

import (
	"context"
	"time"
)

// MediaType classifies an asset. The ingestion path only ever feeds
// images into the index; the other values are kept for entries written
// by future library adapters.
type MediaType string

const (
	MediaImage   MediaType = "image"
	MediaVideo   MediaType = "video"
	MediaAudio   MediaType = "audio"
	MediaUnknown MediaType = "unknown"
)

// Coordinate is a GPS position attached to an asset.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Asset is one media item in the library. The id is stable for the
// lifetime of the item; Fingerprint is an opaque token that changes
// whenever the asset's content or metadata changes, so result sets can
// be diffed without comparing every field.
type Asset struct {
	ID          string      `json:"id"`
	Type        MediaType   `json:"type"`
	CreatedAt   time.Time   `json:"created_at"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	Location    *Coordinate `json:"location,omitempty"`
	Hidden      bool        `json:"hidden"`
	Screenshot  bool        `json:"screenshot"`
	DepthEffect bool        `json:"depth_effect"`
	Adjusted    bool        `json:"adjusted"`

	Burst         bool `json:"burst"`
	BurstUserPick bool `json:"burst_user_pick"`
	BurstAutoPick bool `json:"burst_auto_pick"`

	Fingerprint string `json:"fingerprint"`
}

// GroupKind selects a smart-grouping dimension.
type GroupKind int

const (
	GroupPlace GroupKind = iota
	GroupPerson
)

// String returns the kind name used in logs and API paths.
func (k GroupKind) String() string {
	switch k {
	case GroupPlace:
		return "place"
	case GroupPerson:
		return "person"
	default:
		return "unknown"
	}
}

// Library is the read-only view of the photo library that the index
// consumes. Implementations must be safe for concurrent use.
type Library interface {
	// Images returns the current filtered result set: every non-hidden
	// image asset in the library.
	Images(ctx context.Context) ([]Asset, error)

	// Resolve looks up a live asset by id. The second return is false
	// when the asset no longer exists (deleted or hidden since the
	// index entry was built).
	Resolve(ctx context.Context, id string) (Asset, bool)

	// Groupings lists the named smart groupings of the given kind that
	// have at least one member asset.
	Groupings(ctx context.Context, kind GroupKind) ([]string, error)

	// Members returns the asset ids belonging to a named grouping.
	// Unknown names yield an empty slice, not an error.
	Members(ctx context.Context, kind GroupKind, name string) ([]string, error)

	// Changes returns the hub delivering library change notifications.
	Changes() *Hub
}
