// Package score computes the quality heuristic used to rank photo
// assets. Scoring is a pure function of asset metadata: no I/O, no
// shared state, deterministic for identical input.
package score

import (
	"math"

	"github.com/lumenapp/lumen/pkg/library"
)

// Hidden is the sentinel score for hidden assets. It sinks the entry
// below every reachable score so hidden assets never surface in ranked
// queries.
const Hidden int64 = math.MinInt64

// Scoring weights. The depth-effect bonus is treated as a has-people
// signal upstream; it stays keyed on the capture-mode flag as observed.
const (
	penaltyScreenshot   = -500
	penaltyLowRes       = -100
	bonusAdjusted       = 150
	bonusDepthEffect    = 300
	bonusBurstPicked    = 50
	penaltyBurstNoPick  = -50
	penaltyExtremeRatio = -200
	bonusNormalRatio    = 20
	bonusLocation       = 10

	minGoodDimension = 1500
	maxNormalRatio   = 2.5
)

// Asset scores one asset. Hidden assets short-circuit to the Hidden
// sentinel; non-image media types score 0. The ingestion filter only
// feeds images today, so the non-image branch is forward-compatibility
// only.
func Asset(a library.Asset) int64 {
	if a.Hidden {
		return Hidden
	}
	if a.Type != library.MediaImage {
		return 0
	}

	var s int64

	if a.Screenshot {
		s += penaltyScreenshot
	}
	if a.Width < minGoodDimension || a.Height < minGoodDimension {
		s += penaltyLowRes
	}
	if a.Adjusted {
		s += bonusAdjusted
	}
	if a.DepthEffect {
		s += bonusDepthEffect
	}
	if a.Burst {
		if a.BurstUserPick || a.BurstAutoPick {
			s += bonusBurstPicked
		} else {
			s += penaltyBurstNoPick
		}
	}
	if a.Width > 0 && a.Height > 0 {
		r := ratio(a.Width, a.Height)
		if r > maxNormalRatio {
			s += penaltyExtremeRatio
		} else {
			s += bonusNormalRatio
		}
	}
	if a.Location != nil {
		s += bonusLocation
	}

	return s
}

// ratio returns the long-edge over short-edge aspect ratio, always >= 1.
func ratio(w, h int) float64 {
	if w > h {
		return float64(w) / float64(h)
	}
	return float64(h) / float64(w)
}
