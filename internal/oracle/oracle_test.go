package oracle

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xueqianLu/ethtrader/internal/errno"
)

func mustBig(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok, s)
	return v
}

func TestComputePrice(t *testing.T) {
	tests := []struct {
		name          string
		tokenReserve  string
		tokenDecimals uint8
		nativeReserve string
		wantTPN       float64
		wantNPT       float64
	}{
		{"2000 per ether", "2000000000000000000000", 18, "1000000000000000000", 2000, 0.0005},
		{"six decimal token", "3000000000", 6, "1000000000000000000", 3000, 1.0 / 3000},
		{"zero decimal token", "50", 0, "100000000000000000000", 0.5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ComputePrice(mustBig(t, tt.tokenReserve), tt.tokenDecimals, mustBig(t, tt.nativeReserve), 18)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantTPN, q.TokenPerNative, 1e-9)
			assert.InDelta(t, tt.wantNPT, q.NativePerToken, 1e-9)
		})
	}
}

func TestComputePriceZeroReserve(t *testing.T) {
	one := big.NewInt(1)
	for name, r := range map[string][2]*big.Int{
		"token zero":  {big.NewInt(0), one},
		"native zero": {one, big.NewInt(0)},
		"nil":         {nil, one},
		"negative":    {big.NewInt(-5), one},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ComputePrice(r[0], 18, r[1], 18)
			assert.ErrorIs(t, err, errno.ErrZeroReserve)
		})
	}
}

func TestComputePriceNear112Bits(t *testing.T) {
	max112 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 112), big.NewInt(1))
	half := new(big.Int).Rsh(max112, 1)

	q, err := ComputePrice(max112, 18, half, 18)
	require.NoError(t, err)
	assert.False(t, math.IsInf(q.TokenPerNative, 0))
	assert.False(t, math.IsNaN(q.TokenPerNative))
	assert.InEpsilon(t, 2.0, q.TokenPerNative, 1e-12)
	assert.InEpsilon(t, 0.5, q.NativePerToken, 1e-12)
}

func TestPricesAreIndependent(t *testing.T) {
	q, err := ComputePrice(big.NewInt(3), 0, big.NewInt(7), 0)
	require.NoError(t, err)
	assert.Equal(t, 3.0/7.0, q.TokenPerNative)
	assert.Equal(t, 7.0/3.0, q.NativePerToken)
}

func TestAmountOut(t *testing.T) {
	out, err := AmountOut(big.NewInt(1000), big.NewInt(1000000), big.NewInt(2000000))
	require.NoError(t, err)
	// 1000*997*2000000 / (1000000*1000 + 997000)
	assert.Equal(t, int64(1992), out.Int64())

	_, err = AmountOut(big.NewInt(0), big.NewInt(1), big.NewInt(1))
	assert.ErrorIs(t, err, errno.ErrBadRequest)
	_, err = AmountOut(big.NewInt(1), big.NewInt(0), big.NewInt(1))
	assert.ErrorIs(t, err, errno.ErrZeroReserve)
}

func TestApplySlippage(t *testing.T) {
	out, err := ApplySlippage(big.NewInt(10000), 50)
	require.NoError(t, err)
	assert.Equal(t, int64(9950), out.Int64())

	out, err = ApplySlippage(big.NewInt(999), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(998), out.Int64())

	_, err = ApplySlippage(big.NewInt(1), 10001)
	assert.ErrorIs(t, err, errno.ErrConfig)
}
