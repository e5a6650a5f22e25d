// Package store persists evolution runs: population snapshots in a bbolt
// archive and per-generation statistics in a SQLite history.
package store

import (
	"encoding/binary"
	"errors"

	"github.com/funvibe/pipevo/internal/logutil"
)

var logger = logutil.GetLogger("[store] ")

// ErrNotFound is returned when a run or generation is not stored.
var ErrNotFound = errors.New("not found in store")

func marshalSeq(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

func unmarshalSeq(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}
