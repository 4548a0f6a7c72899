package fslibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"

	"github.com/lumenapp/lumen/pkg/library"
	"github.com/lumenapp/lumen/pkg/lumen/logging"
)

// SidecarName is the per-directory metadata file. Everything in it is
// optional; files without sidecar data get heuristic defaults.
const SidecarName = ".lumen.json"

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

// sidecar is the parsed form of a .lumen.json file.
type sidecar struct {
	// Place overrides the top-level-directory place name for every
	// file in the directory.
	Place string `json:"place,omitempty"`

	Files map[string]sidecarFile `json:"files,omitempty"`
}

type sidecarFile struct {
	Hidden        *bool               `json:"hidden,omitempty"`
	Screenshot    *bool               `json:"screenshot,omitempty"`
	DepthEffect   bool                `json:"depth_effect,omitempty"`
	Adjusted      bool                `json:"adjusted,omitempty"`
	Burst         bool                `json:"burst,omitempty"`
	BurstUserPick bool                `json:"burst_user_pick,omitempty"`
	BurstAutoPick bool                `json:"burst_auto_pick,omitempty"`
	Location      *library.Coordinate `json:"location,omitempty"`
	People        []string            `json:"people,omitempty"`
}

// scanResult is one consistent pass over the root.
type scanResult struct {
	assets map[string]library.Asset
	places map[string][]string
	people map[string][]string
}

// scan walks the root and builds the full catalog. The walk itself is
// concurrent; result maps are folded under one mutex like the
// filesystem indexers this adapter is modeled on.
func (l *Library) scan(ctx context.Context) (*scanResult, error) {
	res := &scanResult{
		assets: make(map[string]library.Asset),
		places: make(map[string][]string),
		people: make(map[string][]string),
	}
	var mu sync.Mutex

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, l.root, func(path string, d fs.DirEntry, walkErr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if walkErr != nil {
			return nil //nolint:nilerr // skip unreadable entries, keep walking
		}

		rel, err := filepath.Rel(l.root, path)
		if err != nil || rel == "." {
			return nil
		}
		id := filepath.ToSlash(rel)

		if d.IsDir() {
			if isDotName(d.Name()) || l.excluded(id) {
				return fastwalk.SkipDir
			}
			return nil
		}

		if isDotName(d.Name()) || !isImagePath(path) || l.excluded(id) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // file vanished mid-walk
		}

		a, people, err := l.buildAssetWithPeople(id, path, info)
		if err != nil {
			logging.Get("fslibrary").Warn("skipping unreadable image", "id", id, "error", err)
			return nil
		}

		mu.Lock()
		res.assets[id] = a
		if !a.Hidden {
			if place := l.placeFor(id, path); place != "" {
				res.places[place] = append(res.places[place], id)
			}
			for _, person := range people {
				res.people[person] = append(res.people[person], id)
			}
		}
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// buildAsset constructs the live asset for one image file.
func (l *Library) buildAsset(id, path string, info fs.FileInfo) (library.Asset, error) {
	a, _, err := l.buildAssetWithPeople(id, path, info)
	return a, err
}

func (l *Library) buildAssetWithPeople(id, path string, info fs.FileInfo) (library.Asset, []string, error) {
	meta, sidecarMod := l.sidecarFor(path)
	fp := fingerprint(info.Size(), info.ModTime().UnixNano(), sidecarMod)

	a := library.Asset{
		ID:          id,
		Type:        library.MediaImage,
		CreatedAt:   info.ModTime(),
		Screenshot:  looksLikeScreenshot(info.Name()),
		Fingerprint: fp,
	}

	w, h, ok := l.cache.get(id, fp)
	if !ok {
		var err error
		w, h, err = decodeDimensions(path)
		if err != nil {
			return library.Asset{}, nil, err
		}
		l.cache.put(id, fp, w, h)
	}
	a.Width, a.Height = w, h

	var people []string
	if fm, ok := meta.Files[info.Name()]; ok {
		if fm.Hidden != nil {
			a.Hidden = *fm.Hidden
		}
		if fm.Screenshot != nil {
			a.Screenshot = *fm.Screenshot
		}
		a.DepthEffect = fm.DepthEffect
		a.Adjusted = fm.Adjusted
		a.Burst = fm.Burst
		a.BurstUserPick = fm.BurstUserPick
		a.BurstAutoPick = fm.BurstAutoPick
		if fm.Location != nil {
			loc := *fm.Location
			a.Location = &loc
		}
		people = fm.People
	}

	return a, people, nil
}

// sidecarFor loads the directory's sidecar, returning a zero sidecar
// and modtime 0 when none exists. Malformed sidecars are ignored.
func (l *Library) sidecarFor(path string) (sidecar, int64) {
	scPath := filepath.Join(filepath.Dir(path), SidecarName)
	info, err := os.Stat(scPath)
	if err != nil {
		return sidecar{}, 0
	}

	data, err := os.ReadFile(scPath)
	if err != nil {
		return sidecar{}, 0
	}

	var sc sidecar
	if err := json.Unmarshal(data, &sc); err != nil {
		logging.Get("fslibrary").Warn("malformed sidecar ignored", "path", scPath, "error", err)
		return sidecar{}, 0
	}
	return sc, info.ModTime().UnixNano()
}

// placeFor derives the place grouping: sidecar override first, then
// the top-level directory name. Root-level files have no place.
func (l *Library) placeFor(id, path string) string {
	sc, _ := l.sidecarFor(path)
	if sc.Place != "" {
		return sc.Place
	}
	if i := strings.IndexByte(id, '/'); i > 0 {
		return id[:i]
	}
	return ""
}

// fingerprint folds file size, file modtime, and sidecar modtime into
// one opaque change token, so metadata-only edits are still detected.
func fingerprint(size, mod, sidecarMod int64) string {
	return fmt.Sprintf("%x-%x-%x", size, mod, sidecarMod)
}

func isImagePath(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

func isDotName(name string) bool {
	return strings.HasPrefix(name, ".")
}

func looksLikeScreenshot(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "screenshot") || strings.Contains(lower, "screen shot")
}
