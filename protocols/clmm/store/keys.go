package store

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/zeebo/blake3"
)

var (
	poolPrefix      = []byte("clmm/pool/")
	positionPrefix  = []byte("clmm/position/")
	tickArrayPrefix = []byte("clmm/tickarray/")
)

func prefixed(prefix []byte, id common.Hash) []byte {
	key := make([]byte, 0, len(prefix)+common.HashLength)
	key = append(key, prefix...)
	return append(key, id.Bytes()...)
}

// PoolKey is the storage key of a pool record.
func PoolKey(id common.Hash) []byte {
	return prefixed(poolPrefix, id)
}

// PositionKey is the storage key of a position record.
func PositionKey(id common.Hash) []byte {
	return prefixed(positionPrefix, id)
}

// TickArrayKey hashes the pool and start index into the array's key.
func TickArrayKey(poolID common.Hash, start int32) []byte {
	var buf [common.HashLength + 4]byte
	copy(buf[:], poolID.Bytes())
	binary.BigEndian.PutUint32(buf[common.HashLength:], uint32(start))
	return prefixed(tickArrayPrefix, common.Hash(blake3.Sum256(buf[:])))
}
