// Package api defines the wire types of the lumend HTTP API, shared
// by the daemon and the client.
package api

import (
	"time"

	"github.com/lumenapp/lumen/pkg/library"
)

// Status describes daemon and index health.
type Status struct {
	State         string    `json:"state"`
	Entries       int       `json:"entries"`
	BuiltAt       time.Time `json:"built_at,omitzero"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	MemoryBytes   int64     `json:"memory_bytes"`
}

// Item is one ranked query result.
type Item struct {
	ID    string        `json:"id"`
	Score int64         `json:"score"`
	Asset library.Asset `json:"asset"`
}

// TopResponse is the body of /v1/top.
type TopResponse struct {
	Items []Item `json:"items"`
}

// YearsResponse is the body of /v1/years.
type YearsResponse struct {
	Years []int `json:"years"`
}

// GroupsResponse is the body of /v1/places and /v1/people.
type GroupsResponse struct {
	Names []string `json:"names"`
}

// RebuildResponse is the body of /v1/rebuild.
type RebuildResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// ShutdownResponse is the body of /v1/shutdown.
type ShutdownResponse struct {
	Success bool `json:"success"`
}

// Error is the body of every non-2xx response.
type Error struct {
	Error string `json:"error"`
}
