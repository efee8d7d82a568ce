package store

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/fixedpoint"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/pool"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/position"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/tick"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

func testPool(t *testing.T) *pool.Pool {
	t.Helper()
	p, err := pool.New(pool.Params{
		TokenMintA:  common.HexToAddress("0x0a"),
		TokenMintB:  common.HexToAddress("0x0b"),
		TickSpacing: 8,
		FeeRate:     3000,
		SqrtPrice:   uint128.New(0, 1),
	}, 77)
	require.NoError(t, err)
	p.Liquidity = uint128.New(5, 9)
	p.FeeGrowthGlobalA = fixedpoint.Growth{}.Sub(fixedpoint.GrowthFrom(uint128.From64(1)))
	p.RewardInfos[0].Mint = common.HexToAddress("0x0c")
	p.RewardInfos[0].EmissionsPerSecondX64 = uint128.From64(123)
	return p
}

func TestStore_Pool(t *testing.T) {
	s := New(NewMemoryKV())
	p := testPool(t)

	_, ok, err := s.Pool(p.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Commit(ChangeSet{Pool: p}))

	got, ok, err := s.Pool(p.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, p, got)
}

func TestStore_TickArrays(t *testing.T) {
	s := New(NewMemoryKV())
	p := testPool(t)

	a, err := tick.NewArray(-704, 8)
	require.NoError(t, err)
	require.NoError(t, a.UpdateTick(-64, 8, tick.Update{
		Initialized:       true,
		LiquidityNet:      fixedpoint.Int128From64(-42),
		LiquidityGross:    uint128.From64(42),
		FeeGrowthOutsideA: fixedpoint.GrowthFrom(uint128.Max),
	}))
	require.NoError(t, s.Commit(ChangeSet{Pool: p, TickArrays: []*tick.Array{a}}))

	loader := s.TickLoader(p.ID)
	got, ok, err := loader.LoadTickArray(-704)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, a.Ticks, got.Ticks)

	next, found, err := got.NextInitializedTickIndex(-1, 8, true)
	require.NoError(t, err)
	assert.True(t, found, "search index is rebuilt after loading")
	assert.Equal(t, int32(-64), next)

	_, ok, err = s.TickLoader(common.HexToHash("0xff")).LoadTickArray(-704)
	require.NoError(t, err)
	assert.False(t, ok, "arrays are scoped to their pool")

	assert.Error(t, s.Commit(ChangeSet{TickArrays: []*tick.Array{a}}))
}

func TestStore_Positions(t *testing.T) {
	kv := NewMemoryKV()
	s := New(kv)
	p := testPool(t)

	pos, err := position.Open(position.NewID(p.ID, 0), p.ID, common.HexToAddress("0xbeef"), 8, -64, 64)
	require.NoError(t, err)
	pos.Liquidity = uint128.From64(1000)
	pos.RewardInfos[2].AmountOwed = 9
	require.NoError(t, s.Commit(ChangeSet{Positions: []*position.Position{pos}}))

	got, ok, err := s.Position(pos.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, pos, got)

	require.NoError(t, s.Commit(ChangeSet{DeletedPositions: []common.Hash{pos.ID}}))
	_, ok, err = s.Position(pos.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, kv.Len())
}

func TestStore_CorruptRecord(t *testing.T) {
	kv := NewMemoryKV()
	s := New(kv)
	id := common.HexToHash("0x01")

	b := kv.NewBatch()
	b.Put(PoolKey(id), []byte{1, 2, 3})
	require.NoError(t, b.Write())

	_, _, err := s.Pool(id)
	assert.ErrorIs(t, err, ErrCorruptRecord)
}

type failingKV struct {
	*MemoryKV
}

func (f failingKV) NewBatch() Batch {
	return failingBatch{}
}

type failingBatch struct{}

func (failingBatch) Put(key, value []byte) {}
func (failingBatch) Delete(key []byte)     {}
func (failingBatch) Write() error          { return errors.New("disk full") }

func TestStore_CommitIsAllOrNothing(t *testing.T) {
	kv := NewMemoryKV()
	p := testPool(t)

	b := kv.NewBatch()
	b.Put(PoolKey(p.ID), []byte("x"))
	assert.Zero(t, kv.Len(), "writes are invisible before Write")
	require.NoError(t, b.Write())
	assert.Equal(t, 1, kv.Len())

	s := New(failingKV{NewMemoryKV()})
	assert.Error(t, s.Commit(ChangeSet{Pool: p}))
	_, ok, err := s.Pool(p.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKeys(t *testing.T) {
	id := common.HexToHash("0x01")
	assert.NotEqual(t, PoolKey(id), PositionKey(id))
	assert.NotEqual(t, TickArrayKey(id, 0), TickArrayKey(id, 704))
	assert.NotEqual(t, TickArrayKey(id, 0), TickArrayKey(common.HexToHash("0x02"), 0))
	assert.Equal(t, TickArrayKey(id, -704), TickArrayKey(id, -704))
}
