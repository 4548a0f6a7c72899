package fslibrary

import (
	"encoding/json"

	"github.com/dgraph-io/badger/v4"
)

// metaCache caches decoded image dimensions keyed by asset ID so that
// repeated scans do not re-read image headers. Cached values carry the
// fingerprint they were computed from and are ignored once the file
// changes.
type metaCache struct {
	db *badger.DB
}

type metaRecord struct {
	Fingerprint string `json:"fingerprint"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// openMetaCache opens a dimension cache at dir. An empty dir yields an
// in-memory cache that lives only for the process.
func openMetaCache(dir string) (*metaCache, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &metaCache{db: db}, nil
}

func (c *metaCache) get(id, fp string) (width, height int, ok bool) {
	var rec metaRecord
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil || rec.Fingerprint != fp {
		return 0, 0, false
	}
	return rec.Width, rec.Height, true
}

func (c *metaCache) put(id, fp string, width, height int) {
	data, err := json.Marshal(metaRecord{Fingerprint: fp, Width: width, Height: height})
	if err != nil {
		return
	}
	// Cache writes are best effort; a miss just costs a header decode.
	_ = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(id), data)
	})
}

func (c *metaCache) close() error {
	return c.db.Close()
}
