package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xueqianLu/ethtrader/internal/agent"
	"github.com/xueqianLu/ethtrader/internal/errno"
)

var (
	testToken = common.HexToAddress("0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984")
	testTo    = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
)

type fakeAgent struct {
	err      error
	lastSwap agent.Swap
	lastSend agent.Send
	lastSign agent.SignMessage
}

func (f *fakeAgent) Info(context.Context) (*agent.InfoReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &agent.InfoReport{Address: testTo, ChainID: 11155111, Balance: big.NewInt(42), GasPrice: big.NewInt(7), BlockNumber: 9}, nil
}

func (f *fakeAgent) Swap(_ context.Context, req agent.Swap) (*agent.SwapReport, error) {
	f.lastSwap = req
	if f.err != nil {
		return nil, f.err
	}
	return &agent.SwapReport{AmountIn: req.AmountIn, MinAmountOut: big.NewInt(1), TxHash: common.HexToHash("0xabc")}, nil
}

func (f *fakeAgent) Send(_ context.Context, req agent.Send) (*agent.SendReport, error) {
	f.lastSend = req
	if f.err != nil {
		return nil, f.err
	}
	return &agent.SendReport{To: req.To, Amount: req.Amount, Nonce: 3, GasPrice: big.NewInt(7), TxHash: common.HexToHash("0xdef")}, nil
}

func (f *fakeAgent) Sign(_ context.Context, req agent.SignMessage) (*agent.SignatureReport, error) {
	f.lastSign = req
	if f.err != nil {
		return nil, f.err
	}
	return &agent.SignatureReport{Address: testTo, Signature: []byte{1, 2, 3}}, nil
}

func serve(t *testing.T, h http.Handler, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, "/", strings.NewReader(body)))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

type stateString string

func (s stateString) String() string { return string(s) }

func TestHealth(t *testing.T) {
	h := NewHealthHandler(func() fmt.Stringer { return stateString("locked") }, nil)
	rec := serve(t, h, http.MethodGet, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, HealthResponse{Status: "ok", Wallet: "locked"}, resp)
}

func TestInfo(t *testing.T) {
	h := NewInfoHandler(&fakeAgent{}, nil)
	rec := serve(t, h, http.MethodGet, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rep agent.InfoReport
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rep))
	assert.Equal(t, testTo, rep.Address)
	assert.Equal(t, int64(42), rep.Balance.Int64())

	assert.Equal(t, http.StatusMethodNotAllowed, serve(t, h, http.MethodPost, "").Code)

	rec = serve(t, NewInfoHandler(&fakeAgent{err: fmt.Errorf("dial: %w", errno.ErrTransport)}, nil), http.MethodGet, "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, errno.ErrTransport.Code, decodeError(t, rec).Code)
}

func TestSwap(t *testing.T) {
	fa := &fakeAgent{}
	h := NewSwapHandler(fa, nil)

	rec := serve(t, h, http.MethodPost, `{"token":"`+testToken.Hex()+`","amountIn":"10000000000000000","minAmountOut":"5"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testToken, fa.lastSwap.Token)
	assert.Equal(t, "10000000000000000", fa.lastSwap.AmountIn.String())
	assert.Equal(t, int64(5), fa.lastSwap.MinAmountOut.Int64())

	rec = serve(t, h, http.MethodPost, `{"token":"`+testToken.Hex()+`","amountIn":"1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, fa.lastSwap.MinAmountOut)
}

func TestSwapErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		body   string
		status int
	}{
		{"bad token", nil, `{"token":"0x12","amountIn":"1"}`, http.StatusBadRequest},
		{"bad amount", nil, `{"token":"` + testToken.Hex() + `","amountIn":"1.5"}`, http.StatusBadRequest},
		{"negative min", nil, `{"token":"` + testToken.Hex() + `","amountIn":"1","minAmountOut":"-1"}`, http.StatusBadRequest},
		{"unknown field", nil, `{"token":"` + testToken.Hex() + `","amountIn":"1","slippage":3}`, http.StatusBadRequest},
		{"not json", nil, `{`, http.StatusBadRequest},
		{"no pool", errno.ErrZeroReserve, `{"token":"` + testToken.Hex() + `","amountIn":"1"}`, http.StatusUnprocessableEntity},
		{"locked", errno.ErrLocked, `{"token":"` + testToken.Hex() + `","amountIn":"1"}`, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, NewSwapHandler(&fakeAgent{err: tt.err}, nil), http.MethodPost, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.NotZero(t, decodeError(t, rec).Code)
		})
	}
}

func TestSend(t *testing.T) {
	fa := &fakeAgent{}
	rec := serve(t, NewSendHandler(fa, nil), http.MethodPost, `{"to":"`+testTo.Hex()+`","amount":"1000"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testTo, fa.lastSend.To)
	assert.Equal(t, int64(1000), fa.lastSend.Amount.Int64())

	var rep agent.SendReport
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rep))
	assert.Equal(t, uint64(3), rep.Nonce)

	rec = serve(t, NewSendHandler(fa, nil), http.MethodPost, `{"to":"nobody","amount":"1000"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errno.ErrBadRequest.Code, decodeError(t, rec).Code)

	assert.Equal(t, http.StatusMethodNotAllowed, serve(t, NewSendHandler(fa, nil), http.MethodGet, "").Code)
}

func TestSignMessage(t *testing.T) {
	fa := &fakeAgent{}
	rec := serve(t, NewSignMessageHandler(fa, nil), http.MethodPost, `{"message":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []byte("hello"), fa.lastSign.Message)

	var rep agent.SignatureReport
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rep))
	assert.Equal(t, []byte{1, 2, 3}, []byte(rep.Signature))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errno.ErrBadRequest, http.StatusBadRequest},
		{errno.ErrNoSecret, http.StatusServiceUnavailable},
		{errno.ErrUnauthorized, http.StatusUnauthorized},
		{errno.ErrCodec, http.StatusUnprocessableEntity},
		{errno.ErrTransport, http.StatusBadGateway},
		{errno.ErrConfig, http.StatusInternalServerError},
		{errno.ErrSigning, http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", errno.ErrZeroReserve), http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}
