// Package cachestore persists coastline polygon sets to a single bbolt
// database file, keyed by region bounding box, so repeated runs over the
// same region skip re-ingesting and re-validating a polygon source.
//
// Prepared geometry (the simplefeatures MultiPolygon and its R-tree) is
// never persisted: only the validated ring data is stored, and the
// geometry is rebuilt deterministically from it on every load.
package cachestore

import (
	"bytes"
	"crypto/md5"
	"encoding/gob"
	"fmt"

	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const (
	bucketName   = "coastline_cache"
	cacheVersion = "1.0"

	// YellowSeaKey is the reserved cache key for the Yellow Sea region,
	// bypassing the bbox hash so the built-in region always resolves to
	// the same record regardless of float formatting.
	YellowSeaKey = "yellow_sea"
)

// Record is the persisted form of a coastline store: its validated
// polygon rings plus the bbox/version/region tag used to validate a
// cache hit against the caller's current request.
type Record struct {
	Version string
	Bbox    [4]float64
	Region  string
	Rings   [][][][2]float64 // one entry per polygon, each a ring set
}

// Store wraps a single bbolt database file.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the bbolt database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open cache db %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// KeyFor returns the cache key for a region: the reserved Yellow Sea key
// when isYellowSea is true, otherwise a 12-character hex digest of the
// bbox formatted to four decimal places.
func KeyFor(bbox [4]float64, isYellowSea bool) string {
	if isYellowSea {
		return YellowSeaKey
	}
	formatted := fmt.Sprintf("%.4f_%.4f_%.4f_%.4f", bbox[0], bbox[1], bbox[2], bbox[3])
	sum := md5.Sum([]byte(formatted))
	return fmt.Sprintf("%x", sum)[:12]
}

// Load returns the record for key if present and valid for bbox/region.
// Any read, decode, version, bbox, or region mismatch is treated as a
// cache miss: it is logged at Warn and (nil, false) is returned so the
// caller rebuilds from source.
func (s *Store) Load(key string, bbox [4]float64, region string) (*Record, bool) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		v := b.Get([]byte(key))
		if v == nil {
			return nil
		}
		raw = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		logrus.WithError(err).Warn("cachestore: read failed")
		return nil, false
	}
	if raw == nil {
		return nil, false
	}

	var rec Record
	dec := gob.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&rec); err != nil {
		logrus.WithError(err).Warn("cachestore: decode failed, treating as miss")
		return nil, false
	}

	if rec.Version != cacheVersion {
		logrus.WithFields(logrus.Fields{"want": cacheVersion, "got": rec.Version}).
			Warn("cachestore: version mismatch, rebuilding")
		return nil, false
	}
	if rec.Bbox != bbox {
		logrus.Warn("cachestore: bbox mismatch, rebuilding")
		return nil, false
	}
	if rec.Region != region {
		logrus.Warn("cachestore: region tag mismatch, rebuilding")
		return nil, false
	}

	return &rec, true
}

// Save writes rings under key, tagged with bbox/region and the current
// cache format version. The write happens inside a single bbolt
// transaction, so a concurrent reader never observes a partially-written
// record.
func (s *Store) Save(key string, bbox [4]float64, region string, rings [][][][2]float64) error {
	rec := Record{Version: cacheVersion, Bbox: bbox, Region: region, Rings: rings}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return fmt.Errorf("encode cache record: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		return b.Put([]byte(key), buf.Bytes())
	})
}
