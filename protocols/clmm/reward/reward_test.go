package reward

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/fixedpoint"
	"github.com/stretchr/testify/assert"
	"lukechampine.com/uint128"
)

func TestInfos(t *testing.T) {
	var infos Infos

	idx, ok := infos.LowestUninitialized()
	assert.True(t, ok)
	assert.Equal(t, 0, idx)

	infos[0].Mint = common.HexToAddress("0x01")
	infos[0].GrowthGlobalX64 = fixedpoint.GrowthFrom(uint128.From64(9))
	assert.True(t, infos[0].Initialized())
	assert.False(t, infos[1].Initialized())

	idx, ok = infos.LowestUninitialized()
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	growths := infos.Growths()
	assert.Equal(t, "9", growths[0].String())
	assert.True(t, growths[2].IsZero())

	infos[1].Mint = common.HexToAddress("0x02")
	infos[2].Mint = common.HexToAddress("0x03")
	_, ok = infos.LowestUninitialized()
	assert.False(t, ok)
}
