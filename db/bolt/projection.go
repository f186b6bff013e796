// Package bolt persists block projections and audit scores in an embedded
// boltdb file, one bucket per dataset, keyed by big-endian height so a
// cursor range scan returns results in height order.
package bolt

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/boltdb/bolt"

	"github.com/ValuedMammal/blockproj/blockassembler"
)

var projectionsBucket = []byte("projections")

// ProjectionDB persists the top-of-mempool block projection observed at
// each height.
type ProjectionDB struct {
	db *bolt.DB
}

// LoadProjectionDB opens (creating if necessary) the projections bucket in
// the boltdb file at dbfile.
func LoadProjectionDB(dbfile string) (*ProjectionDB, error) {
	db, err := bolt.Open(dbfile, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	d := &ProjectionDB{db: db}
	err = d.db.Update(func(tr *bolt.Tx) error {
		_, err := tr.CreateBucketIfNotExists(projectionsBucket)
		return err
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Put stores the projected blocks at height, keyed by height, overwriting
// any previous entry for that height.
func (d *ProjectionDB) Put(height uint64, blocks []blockassembler.BlockSummary) error {
	value, err := json.Marshal(blocks)
	if err != nil {
		return err
	}
	return d.db.Update(func(tr *bolt.Tx) error {
		return tr.Bucket(projectionsBucket).Put(itob(height), value)
	})
}

// Get returns the projection stored at height, if any.
func (d *ProjectionDB) Get(height uint64) ([]blockassembler.BlockSummary, error) {
	var blocks []blockassembler.BlockSummary
	err := d.db.View(func(tr *bolt.Tx) error {
		v := tr.Bucket(projectionsBucket).Get(itob(height))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &blocks)
	})
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

// Range returns the projections stored for heights in [start, end], keyed
// by height.
func (d *ProjectionDB) Range(start, end uint64) (map[uint64][]blockassembler.BlockSummary, error) {
	result := make(map[uint64][]blockassembler.BlockSummary)
	err := d.db.View(func(tr *bolt.Tx) error {
		c := tr.Bucket(projectionsBucket).Cursor()
		startKey, endKey := itob(start), itob(end)
		for k, v := c.Seek(startKey); k != nil && bytes.Compare(k, endKey) <= 0; k, v = c.Next() {
			var blocks []blockassembler.BlockSummary
			if err := json.Unmarshal(v, &blocks); err != nil {
				return err
			}
			result[binaryToHeight(k)] = blocks
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Close closes the underlying boltdb file.
func (d *ProjectionDB) Close() error {
	return d.db.Close()
}
