package store

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	bin "github.com/gagliardetto/binary"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/pool"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/position"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/tick"
)

var ErrCorruptRecord = errors.New("corrupt record")

// tickArrayRecord is the persisted layout of a tick.Array. The array's
// search index is rebuilt on load.
type tickArrayRecord struct {
	StartTickIndex int32
	Ticks          [tick.TICK_ARRAY_SIZE]tick.Tick
}

// ChangeSet is every record written by one operation on one pool.
type ChangeSet struct {
	Pool             *pool.Pool
	TickArrays       []*tick.Array
	Positions        []*position.Position
	DeletedPositions []common.Hash
}

// Store persists pools, positions and tick arrays as Borsh records.
type Store struct {
	kv KV
}

func New(kv KV) *Store {
	return &Store{kv: kv}
}

func encode(v any) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Store) load(key []byte, v any) (bool, error) {
	data, ok, err := s.kv.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := bin.NewBorshDecoder(data).Decode(v); err != nil {
		return false, fmt.Errorf("%w: %x: %w", ErrCorruptRecord, key, err)
	}
	return true, nil
}

// Pool loads a pool by id.
func (s *Store) Pool(id common.Hash) (*pool.Pool, bool, error) {
	p := new(pool.Pool)
	ok, err := s.load(PoolKey(id), p)
	if err != nil || !ok {
		return nil, false, err
	}
	return p, true, nil
}

// Position loads a position by id.
func (s *Store) Position(id common.Hash) (*position.Position, bool, error) {
	p := new(position.Position)
	ok, err := s.load(PositionKey(id), p)
	if err != nil || !ok {
		return nil, false, err
	}
	return p, true, nil
}

// TickArray loads the array of poolID starting at start.
func (s *Store) TickArray(poolID common.Hash, start int32) (*tick.Array, bool, error) {
	var rec tickArrayRecord
	ok, err := s.load(TickArrayKey(poolID, start), &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	return &tick.Array{StartTickIndex: rec.StartTickIndex, Ticks: rec.Ticks}, true, nil
}

// TickLoader adapts the store to a tick.Registry of one pool.
func (s *Store) TickLoader(poolID common.Hash) tick.Loader {
	return tickLoader{store: s, pool: poolID}
}

type tickLoader struct {
	store *Store
	pool  common.Hash
}

func (l tickLoader) LoadTickArray(start int32) (*tick.Array, bool, error) {
	return l.store.TickArray(l.pool, start)
}

// Commit writes a change set in a single batch.
func (s *Store) Commit(cs ChangeSet) error {
	batch := s.kv.NewBatch()

	if cs.Pool != nil {
		data, err := encode(cs.Pool)
		if err != nil {
			return fmt.Errorf("encode pool: %w", err)
		}
		batch.Put(PoolKey(cs.Pool.ID), data)

		for _, a := range cs.TickArrays {
			data, err := encode(&tickArrayRecord{StartTickIndex: a.StartTickIndex, Ticks: a.Ticks})
			if err != nil {
				return fmt.Errorf("encode tick array %d: %w", a.StartTickIndex, err)
			}
			batch.Put(TickArrayKey(cs.Pool.ID, a.StartTickIndex), data)
		}
	} else if len(cs.TickArrays) > 0 {
		return errors.New("tick arrays need their pool in the change set")
	}

	for _, p := range cs.Positions {
		data, err := encode(p)
		if err != nil {
			return fmt.Errorf("encode position: %w", err)
		}
		batch.Put(PositionKey(p.ID), data)
	}
	for _, id := range cs.DeletedPositions {
		batch.Delete(PositionKey(id))
	}

	return batch.Write()
}
