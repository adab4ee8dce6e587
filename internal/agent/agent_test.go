package agent

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xueqianLu/ethtrader/internal/contracts"
	"github.com/xueqianLu/ethtrader/internal/errno"
	"github.com/xueqianLu/ethtrader/internal/metrics"
	"github.com/xueqianLu/ethtrader/internal/registry"
	"github.com/xueqianLu/ethtrader/internal/signer"
)

const testKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

var (
	testToken = common.HexToAddress("0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984")
	testPair  = common.HexToAddress("0x5aB9f1B5A2c8E6F2e2A1c3d4E5f60718293A4B5C")
	testTo    = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	testNow   = time.Unix(1700000000, 0)
)

// fakeChain is an in-memory chain.Client. Contract calls are answered by
// (address, selector).
type fakeChain struct {
	mu       sync.Mutex
	chainID  uint64
	balance  *big.Int
	gasPrice *big.Int
	block    uint64
	nonces   []uint64
	calls    map[common.Address]map[string][]byte
	sent     [][]byte
	sendErr  error
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		chainID:  registry.SepoliaChainID,
		balance:  big.NewInt(3e18),
		gasPrice: big.NewInt(1_000_000_000),
		block:    100,
		nonces:   []uint64{5},
		calls:    make(map[common.Address]map[string][]byte),
	}
}

func (f *fakeChain) answer(to common.Address, selector []byte, out []byte) {
	if f.calls[to] == nil {
		f.calls[to] = make(map[string][]byte)
	}
	f.calls[to][hex.EncodeToString(selector[:4])] = out
}

func (f *fakeChain) Balance(context.Context, common.Address) (*big.Int, error) {
	return new(big.Int).Set(f.balance), nil
}

func (f *fakeChain) GasPrice(context.Context) (*big.Int, error) {
	return new(big.Int).Set(f.gasPrice), nil
}

func (f *fakeChain) BlockNumber(context.Context) (uint64, error) { return f.block, nil }

func (f *fakeChain) ChainID(context.Context) (uint64, error) { return f.chainID, nil }

func (f *fakeChain) Nonce(context.Context, common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.nonces[0]
	if len(f.nonces) > 1 {
		f.nonces = f.nonces[1:]
	}
	return n, nil
}

func (f *fakeChain) Call(_ context.Context, to common.Address, data []byte) ([]byte, error) {
	out, ok := f.calls[to][hex.EncodeToString(data[:4])]
	if !ok {
		return nil, errno.ErrTransport
	}
	return out, nil
}

func (f *fakeChain) SendRawTransaction(_ context.Context, raw []byte) (common.Hash, error) {
	if f.sendErr != nil {
		return common.Hash{}, f.sendErr
	}
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, err
	}
	f.mu.Lock()
	f.sent = append(f.sent, raw)
	f.mu.Unlock()
	return tx.Hash(), nil
}

type fakeKeys struct {
	w   *signer.Wallet
	err error
}

func (k fakeKeys) Wallet() (*signer.Wallet, error) { return k.w, k.err }

func testWallet(t *testing.T) *signer.Wallet {
	t.Helper()
	w, err := signer.WalletFromHex(testKeyHex)
	require.NoError(t, err)
	return w
}

func newTestAgent(t *testing.T, fc *fakeChain, cfg Config, opts ...Option) *Agent {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	a, err := New(cfg, fc, registry.Default(), fakeKeys{w: testWallet(t)}, opts...)
	require.NoError(t, err)
	return a
}

// seedPool answers the token and pool reads for a 2000-token-per-ether pool.
func seedPool(t *testing.T, fc *fakeChain, token0 common.Address) {
	t.Helper()
	must := func(b []byte, err error) []byte {
		require.NoError(t, err)
		return b
	}
	weth := registry.Sepolia.WETH

	fc.answer(testToken, must(contracts.PackDecimals()), must(contracts.ERC20ABI.Methods["decimals"].Outputs.Pack(uint8(18))))
	fc.answer(testToken, must(contracts.PackSymbol()), must(contracts.ERC20ABI.Methods["symbol"].Outputs.Pack("UNI")))
	fc.answer(registry.Sepolia.Factory, must(contracts.PackGetPair(weth, testToken)), must(contracts.FactoryABI.Methods["getPair"].Outputs.Pack(testPair)))
	fc.answer(testPair, must(contracts.PackToken0()), must(contracts.PairABI.Methods["token0"].Outputs.Pack(token0)))

	tokenReserve, _ := new(big.Int).SetString("2000000000000000000000", 10)
	nativeReserve := big.NewInt(1e18)
	r0, r1 := tokenReserve, nativeReserve
	if token0 == weth {
		r0, r1 = nativeReserve, tokenReserve
	}
	fc.answer(testPair, must(contracts.PackGetReserves()), must(contracts.PairABI.Methods["getReserves"].Outputs.Pack(r0, r1, uint32(1699999999))))
}

func decodeTx(t *testing.T, raw []byte) *types.Transaction {
	t.Helper()
	tx := new(types.Transaction)
	require.NoError(t, tx.UnmarshalBinary(raw))
	return tx
}

func TestInfo(t *testing.T) {
	fc := newFakeChain()
	a := newTestAgent(t, fc, DefaultConfig())

	out, err := a.Handle(context.Background(), Info{})
	require.NoError(t, err)
	rep := out.(*InfoReport)
	assert.Equal(t, testWallet(t).Address(), rep.Address)
	assert.Equal(t, registry.SepoliaChainID, rep.ChainID)
	assert.Equal(t, int64(3e18), rep.Balance.Int64())
	assert.Equal(t, int64(1_000_000_000), rep.GasPrice.Int64())
	assert.Equal(t, uint64(100), rep.BlockNumber)
}

func TestSequentialSends(t *testing.T) {
	fc := newFakeChain()
	fc.nonces = []uint64{5, 6}
	a := newTestAgent(t, fc, DefaultConfig())
	ctx := context.Background()

	req := Send{To: testTo, Amount: big.NewInt(1000)}
	out, err := a.Handle(ctx, req)
	require.NoError(t, err)
	first := out.(*SendReport)
	out, err = a.Handle(ctx, &req)
	require.NoError(t, err)
	second := out.(*SendReport)

	assert.Equal(t, uint64(5), first.Nonce)
	assert.Equal(t, uint64(6), second.Nonce)
	require.Len(t, fc.sent, 2)

	tx1, tx2 := decodeTx(t, fc.sent[0]), decodeTx(t, fc.sent[1])
	assert.Equal(t, first.TxHash, tx1.Hash())
	assert.Equal(t, second.TxHash, tx2.Hash())
	assert.Equal(t, tx1.Nonce()+1, tx2.Nonce())
	assert.Equal(t, tx1.To(), tx2.To())
	assert.Equal(t, 0, tx1.Value().Cmp(tx2.Value()))
	assert.Equal(t, 0, tx1.GasPrice().Cmp(tx2.GasPrice()))
	assert.Equal(t, tx1.Gas(), tx2.Gas())
	assert.Equal(t, tx1.Data(), tx2.Data())
	assert.Equal(t, 0, tx1.ChainId().Cmp(tx2.ChainId()))
	_, r1, s1 := tx1.RawSignatureValues()
	_, r2, s2 := tx2.RawSignatureValues()
	assert.False(t, r1.Cmp(r2) == 0 && s1.Cmp(s2) == 0)

	// Transfers pay the network gas price unchanged.
	assert.Equal(t, int64(1_000_000_000), tx1.GasPrice().Int64())
	assert.Equal(t, uint64(signer.TransferGasLimit), tx1.Gas())
	assert.Equal(t, testTo, *tx1.To())
	assert.Equal(t, int64(1000), tx1.Value().Int64())

	from, err := types.Sender(types.NewEIP155Signer(tx1.ChainId()), tx1)
	require.NoError(t, err)
	assert.Equal(t, testWallet(t).Address(), from)
}

func TestSendValidation(t *testing.T) {
	a := newTestAgent(t, newFakeChain(), DefaultConfig())
	for name, req := range map[string]Send{
		"zero amount": {To: testTo, Amount: big.NewInt(0)},
		"nil amount":  {To: testTo},
		"zero to":     {Amount: big.NewInt(1)},
	} {
		t.Run(name, func(t *testing.T) {
			out, err := a.Handle(context.Background(), req)
			assert.ErrorIs(t, err, errno.ErrBadRequest)
			assert.Nil(t, out)
		})
	}
}

func TestSwapWithExplicitMinimum(t *testing.T) {
	for name, token0 := range map[string]common.Address{
		"weth is token0":  registry.Sepolia.WETH,
		"token is token0": testToken,
	} {
		t.Run(name, func(t *testing.T) {
			fc := newFakeChain()
			seedPool(t, fc, token0)
			a := newTestAgent(t, fc, DefaultConfig())

			out, err := a.Handle(context.Background(), Swap{
				Token:        testToken,
				AmountIn:     big.NewInt(1e16),
				MinAmountOut: big.NewInt(19e15),
			})
			require.NoError(t, err)
			rep := out.(*SwapReport)

			assert.Equal(t, "UNI", rep.Token.Symbol)
			assert.Equal(t, uint8(18), rep.Token.Decimals)
			assert.Equal(t, testPair, rep.Pair)
			assert.InDelta(t, 2000.0, rep.Price.TokenPerNative, 1e-9)
			assert.InDelta(t, 0.0005, rep.Price.NativePerToken, 1e-9)
			assert.Equal(t, uint64(testNow.Unix()+1200), rep.Deadline)

			require.Len(t, fc.sent, 1)
			tx := decodeTx(t, fc.sent[0])
			assert.Equal(t, rep.TxHash, tx.Hash())
			assert.Equal(t, registry.Sepolia.Router, *tx.To())
			assert.Equal(t, int64(1e16), tx.Value().Int64())
			assert.Equal(t, uint64(signer.SwapGasLimit), tx.Gas())
			assert.Equal(t, int64(8_000_000_000), tx.GasPrice().Int64())

			call, err := contracts.ParseSwapData(tx.Data())
			require.NoError(t, err)
			assert.Equal(t, contracts.MethodSwapExactETHForTokens, call.Method)
			assert.Equal(t, []common.Address{registry.Sepolia.WETH, testToken}, call.Path)
			assert.Equal(t, testWallet(t).Address(), call.To)
			assert.Equal(t, rep.Deadline, call.Deadline.Uint64())
			assert.Equal(t, 0, big.NewInt(19e15).Cmp(call.AmountOutMin))
		})
	}
}

func TestSwapSlippagePolicy(t *testing.T) {
	fc := newFakeChain()
	seedPool(t, fc, registry.Sepolia.WETH)
	quote, err := contracts.RouterABI.Methods["getAmountsOut"].Outputs.Pack([]*big.Int{big.NewInt(1e16), big.NewInt(1_000_000)})
	require.NoError(t, err)
	sel, err := contracts.PackGetAmountsOut(big.NewInt(1), []common.Address{registry.Sepolia.WETH, testToken})
	require.NoError(t, err)
	fc.answer(registry.Sepolia.Router, sel, quote)

	cfg := DefaultConfig()
	cfg.SlippageBps = 50
	a := newTestAgent(t, fc, cfg)

	out, err := a.Handle(context.Background(), Swap{Token: testToken, AmountIn: big.NewInt(1e16)})
	require.NoError(t, err)
	rep := out.(*SwapReport)
	assert.Equal(t, int64(995_000), rep.MinAmountOut.Int64())

	call, err := contracts.ParseSwapData(decodeTx(t, fc.sent[0]).Data())
	require.NoError(t, err)
	assert.Equal(t, int64(995_000), call.AmountOutMin.Int64())
}

func TestSwapQuoteCappedByPool(t *testing.T) {
	fc := newFakeChain()
	seedPool(t, fc, testToken)
	inflated, _ := new(big.Int).SetString("30000000000000000000", 10)
	quote, err := contracts.RouterABI.Methods["getAmountsOut"].Outputs.Pack([]*big.Int{big.NewInt(1e16), inflated})
	require.NoError(t, err)
	sel, err := contracts.PackGetAmountsOut(big.NewInt(1), []common.Address{registry.Sepolia.WETH, testToken})
	require.NoError(t, err)
	fc.answer(registry.Sepolia.Router, sel, quote)

	cfg := DefaultConfig()
	cfg.SlippageBps = 50
	a := newTestAgent(t, fc, cfg)

	out, err := a.Handle(context.Background(), Swap{Token: testToken, AmountIn: big.NewInt(1e16)})
	require.NoError(t, err)
	rep := out.(*SwapReport)
	// 1e16 wei into a 1 ETH / 2000 token pool yields 19743160687941225977
	// after the fee; 50 bps off that.
	assert.Equal(t, "19644444884501519847", rep.MinAmountOut.String())
}

func TestSwapWithoutPolicyIsRefused(t *testing.T) {
	fc := newFakeChain()
	seedPool(t, fc, registry.Sepolia.WETH)
	a := newTestAgent(t, fc, DefaultConfig())

	_, err := a.Handle(context.Background(), Swap{Token: testToken, AmountIn: big.NewInt(1e16)})
	assert.ErrorIs(t, err, errno.ErrConfig)
	assert.Empty(t, fc.sent)
}

func TestSwapFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeChain)
		req   Swap
		want  error
	}{
		{
			name:  "unknown chain",
			setup: func(fc *fakeChain) { fc.chainID = 10 },
			want:  errno.ErrConfig,
		},
		{
			name: "no pool",
			setup: func(fc *fakeChain) {
				out, _ := contracts.FactoryABI.Methods["getPair"].Outputs.Pack(common.Address{})
				sel, _ := contracts.PackGetPair(registry.Sepolia.WETH, testToken)
				fc.answer(registry.Sepolia.Factory, sel, out)
			},
			want: errno.ErrZeroReserve,
		},
		{
			name: "drained pool",
			setup: func(fc *fakeChain) {
				out, _ := contracts.PairABI.Methods["getReserves"].Outputs.Pack(big.NewInt(0), big.NewInt(5), uint32(0))
				sel, _ := contracts.PackGetReserves()
				fc.answer(testPair, sel, out)
			},
			want: errno.ErrZeroReserve,
		},
		{
			name: "malformed decimals",
			setup: func(fc *fakeChain) {
				sel, _ := contracts.PackDecimals()
				fc.answer(testToken, sel, []byte{0x01})
			},
			want: errno.ErrCodec,
		},
		{
			name:  "broadcast rejected",
			setup: func(fc *fakeChain) { fc.sendErr = errno.ErrTransport },
			want:  errno.ErrTransport,
		},
		{
			name: "native wrapper as token",
			req:  Swap{Token: registry.Sepolia.WETH, AmountIn: big.NewInt(1), MinAmountOut: big.NewInt(0)},
			want: errno.ErrBadRequest,
		},
		{
			name: "zero amount",
			req:  Swap{Token: testToken, AmountIn: big.NewInt(0), MinAmountOut: big.NewInt(0)},
			want: errno.ErrBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := newFakeChain()
			seedPool(t, fc, registry.Sepolia.WETH)
			if tt.setup != nil {
				tt.setup(fc)
			}
			req := tt.req
			if req.Token == (common.Address{}) {
				req = Swap{Token: testToken, AmountIn: big.NewInt(1e16), MinAmountOut: big.NewInt(1)}
			}
			a := newTestAgent(t, fc, DefaultConfig())
			out, err := a.Handle(context.Background(), req)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, out)
			assert.Empty(t, fc.sent)
		})
	}
}

func TestLockedWallet(t *testing.T) {
	a, err := New(DefaultConfig(), newFakeChain(), registry.Default(), fakeKeys{err: errno.ErrLocked})
	require.NoError(t, err)
	_, err = a.Handle(context.Background(), Send{To: testTo, Amount: big.NewInt(1)})
	assert.ErrorIs(t, err, errno.ErrLocked)
	_, err = a.Handle(context.Background(), Info{})
	assert.ErrorIs(t, err, errno.ErrLocked)
}

func TestSignMessage(t *testing.T) {
	a := newTestAgent(t, newFakeChain(), DefaultConfig())
	out, err := a.Handle(context.Background(), SignMessage{Message: []byte("hello")})
	require.NoError(t, err)
	rep := out.(*SignatureReport)
	require.Len(t, rep.Signature, 65)

	sig := append([]byte(nil), rep.Signature...)
	sig[64] -= 27
	pub, err := crypto.SigToPub(accounts.TextHash([]byte("hello")), sig)
	require.NoError(t, err)
	assert.Equal(t, rep.Address, crypto.PubkeyToAddress(*pub))

	_, err = a.Handle(context.Background(), SignMessage{})
	assert.ErrorIs(t, err, errno.ErrBadRequest)
}

func TestUnsupportedRequest(t *testing.T) {
	a := newTestAgent(t, newFakeChain(), DefaultConfig())
	_, err := a.Handle(context.Background(), nil)
	assert.ErrorIs(t, err, errno.ErrBadRequest)
}

func TestNewValidatesConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GasPriceMultiplier = 0
	_, err := New(cfg, newFakeChain(), registry.Default(), fakeKeys{})
	assert.ErrorIs(t, err, errno.ErrConfig)

	cfg = DefaultConfig()
	cfg.SlippageBps = 10000
	_, err = New(cfg, newFakeChain(), registry.Default(), fakeKeys{})
	assert.ErrorIs(t, err, errno.ErrConfig)
}

func TestRunLoop(t *testing.T) {
	fc := newFakeChain()
	fc.nonces = []uint64{1, 2}
	m := metrics.New()
	a := newTestAgent(t, fc, DefaultConfig(), WithMetrics(m))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	// A failing request does not stop the loop.
	_, err := a.Send(ctx, Send{To: testTo})
	assert.ErrorIs(t, err, errno.ErrBadRequest)

	rep, err := a.Send(ctx, Send{To: testTo, Amount: big.NewInt(7)})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rep.Nonce)

	info, err := a.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), info.BlockNumber)

	sig, err := a.Sign(ctx, SignMessage{Message: []byte("hi")})
	require.NoError(t, err)
	assert.Len(t, sig.Signature, 65)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues(KindSend, metrics.OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues(KindSend, metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Broadcasts.WithLabelValues(KindSend)))

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(5 * time.Second):
		t.Fatal("agent loop did not stop")
	}

	_, err = a.Do(context.Background(), Info{})
	assert.ErrorIs(t, err, ErrStopped)
}

func TestRunLoopSerializes(t *testing.T) {
	fc := newFakeChain()
	fc.nonces = []uint64{10, 11, 12, 13}
	a := newTestAgent(t, fc, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = a.Run(ctx) }()

	var wg sync.WaitGroup
	nonces := make(chan uint64, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rep, err := a.Send(ctx, Send{To: testTo, Amount: big.NewInt(1)})
			if assert.NoError(t, err) {
				nonces <- rep.Nonce
			}
		}()
	}
	wg.Wait()
	close(nonces)

	seen := map[uint64]bool{}
	for n := range nonces {
		seen[n] = true
	}
	assert.Equal(t, map[uint64]bool{10: true, 11: true, 12: true, 13: true}, seen)
}
