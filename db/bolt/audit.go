package bolt

import (
	"bytes"
	"encoding/binary"
	"math"
	"time"

	"github.com/boltdb/bolt"
)

var auditBucket = []byte("auditscores")

// AuditDB persists the block-audit score computed for each confirmed
// height.
type AuditDB struct {
	db *bolt.DB
}

// LoadAuditDB opens (creating if necessary) the audit-scores bucket in the
// boltdb file at dbfile.
func LoadAuditDB(dbfile string) (*AuditDB, error) {
	db, err := bolt.Open(dbfile, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	d := &AuditDB{db: db}
	err = d.db.Update(func(tr *bolt.Tx) error {
		_, err := tr.CreateBucketIfNotExists(auditBucket)
		return err
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Put stores the audit score for height.
func (d *AuditDB) Put(height uint64, score float64) error {
	value := make([]byte, 8)
	binary.BigEndian.PutUint64(value, math.Float64bits(score))
	return d.db.Update(func(tr *bolt.Tx) error {
		return tr.Bucket(auditBucket).Put(itob(height), value)
	})
}

// Range returns the audit scores stored for heights in [start, end], keyed
// by height.
func (d *AuditDB) Range(start, end uint64) (map[uint64]float64, error) {
	result := make(map[uint64]float64)
	err := d.db.View(func(tr *bolt.Tx) error {
		c := tr.Bucket(auditBucket).Cursor()
		startKey, endKey := itob(start), itob(end)
		for k, v := c.Seek(startKey); k != nil && bytes.Compare(k, endKey) <= 0; k, v = c.Next() {
			result[binaryToHeight(k)] = math.Float64frombits(binary.BigEndian.Uint64(v))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Close closes the underlying boltdb file.
func (d *AuditDB) Close() error {
	return d.db.Close()
}
