package compare

import (
	"encoding/binary"

	"github.com/dgraph-io/badger/v4"

	"github.com/adamcutting/tidy-data-pal-sub001/internal/types"
)

// SeenSet deduplicates candidate pairs across overlapping blocks so each
// unordered pair is scored at most once.
type SeenSet interface {
	// Seen marks the pair and reports whether it was already present.
	Seen(p types.CandidatePair) (bool, error)
	Close() error
}

// NewMapSeen returns an in-memory seen-set, the default for jobs that fit
// comfortably in memory.
func NewMapSeen() SeenSet { return mapSeen{} }

type mapSeen map[types.CandidatePair]struct{}

func (m mapSeen) Seen(p types.CandidatePair) (bool, error) {
	if _, ok := m[p]; ok {
		return true, nil
	}
	m[p] = struct{}{}
	return false, nil
}

func (m mapSeen) Close() error { return nil }

// NewBadgerSeen opens a disk-backed seen-set at dir for jobs whose pair
// volume would blow the heap. The directory is owned by the caller and
// removed with the job's scratch space.
func NewBadgerSeen(dir string) (SeenSet, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &badgerSeen{db: db}, nil
}

type badgerSeen struct {
	db *badger.DB
}

func (b *badgerSeen) Seen(p types.CandidatePair) (bool, error) {
	key := pairKey(p)
	seen := false
	err := b.db.Update(func(txn *badger.Txn) error {
		_, e := txn.Get(key)
		if e == badger.ErrKeyNotFound {
			return txn.Set(key, []byte{1})
		}
		if e == nil {
			seen = true
		}
		return e
	})
	return seen, err
}

func (b *badgerSeen) Close() error { return b.db.Close() }

func pairKey(p types.CandidatePair) []byte {
	var k [16]byte
	binary.BigEndian.PutUint64(k[:8], uint64(p.A))
	binary.BigEndian.PutUint64(k[8:], uint64(p.B))
	return k[:]
}
