package agent

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/xueqianLu/ethtrader/internal/errno"
	"github.com/xueqianLu/ethtrader/internal/signer"
	"go.uber.org/zap"
)

// stage is the per-request transaction state. Every request ends in either
// broadcast success or failure; nothing is retried.
type stage string

const (
	stageIdle             stage = "idle"
	stageBuildingUnsigned stage = "building-unsigned"
	stageSigned           stage = "signed"
	stageBroadcast        stage = "broadcast"
)

func (a *Agent) enter(kind string, s stage, fields ...zap.Field) {
	a.log.Debug("transaction stage", append([]zap.Field{zap.String("kind", kind), zap.String("stage", string(s))}, fields...)...)
}

func (a *Agent) info(ctx context.Context) (*InfoReport, error) {
	w, err := a.keys.Wallet()
	if err != nil {
		return nil, err
	}
	chainID, err := a.chain.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	balance, err := a.chain.Balance(ctx, w.Address())
	if err != nil {
		return nil, err
	}
	gasPrice, err := a.chain.GasPrice(ctx)
	if err != nil {
		return nil, err
	}
	block, err := a.chain.BlockNumber(ctx)
	if err != nil {
		return nil, err
	}
	return &InfoReport{
		Address:     w.Address(),
		ChainID:     chainID,
		Balance:     balance,
		GasPrice:    gasPrice,
		BlockNumber: block,
	}, nil
}

func (a *Agent) signMessage(req SignMessage) (*SignatureReport, error) {
	if len(req.Message) == 0 {
		return nil, fmt.Errorf("empty message: %w", errno.ErrBadRequest)
	}
	w, err := a.keys.Wallet()
	if err != nil {
		return nil, err
	}
	sig, err := w.SignMessage(req.Message)
	if err != nil {
		return nil, err
	}
	return &SignatureReport{Address: w.Address(), Signature: sig}, nil
}

func (a *Agent) send(ctx context.Context, req Send) (*SendReport, error) {
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount %v: %w", req.Amount, errno.ErrBadRequest)
	}
	if req.To == (common.Address{}) {
		return nil, fmt.Errorf("zero recipient: %w", errno.ErrBadRequest)
	}
	w, err := a.keys.Wallet()
	if err != nil {
		return nil, err
	}
	a.enter(KindSend, stageIdle)

	signed, params, err := a.buildAndSign(ctx, KindSend, w, signer.TxRequest{
		Kind:     signer.KindTransfer,
		To:       req.To,
		Value:    req.Amount,
		GasLimit: a.cfg.TransferGasLimit,
	})
	if err != nil {
		return nil, err
	}
	hash, err := a.broadcast(ctx, KindSend, signed)
	if err != nil {
		return nil, err
	}
	return &SendReport{
		To:       req.To,
		Amount:   new(big.Int).Set(req.Amount),
		Nonce:    params.Nonce,
		GasPrice: signed.Tx.GasPrice(),
		TxHash:   hash,
	}, nil
}

// buildAndSign reads the network parameters once, assembles and signs.
func (a *Agent) buildAndSign(ctx context.Context, kind string, w *signer.Wallet, req signer.TxRequest) (*signer.SignedTx, signer.NetworkParams, error) {
	a.enter(kind, stageBuildingUnsigned)
	var params signer.NetworkParams
	chainID, err := a.chain.ChainID(ctx)
	if err != nil {
		return nil, params, err
	}
	nonce, err := a.chain.Nonce(ctx, w.Address())
	if err != nil {
		return nil, params, err
	}
	gasPrice, err := a.chain.GasPrice(ctx)
	if err != nil {
		return nil, params, err
	}
	params = signer.NetworkParams{
		Nonce:    nonce,
		GasPrice: gasPrice,
		ChainID:  new(big.Int).SetUint64(chainID),
	}

	unsigned, err := a.assembler.Assemble(req, params)
	if err != nil {
		return nil, params, err
	}
	signed, err := signer.Sign(unsigned, w)
	if err != nil {
		return nil, params, err
	}
	a.enter(kind, stageSigned, zap.Uint64("nonce", nonce), zap.Stringer("hash", signed.Hash))
	return signed, params, nil
}

func (a *Agent) broadcast(ctx context.Context, kind string, signed *signer.SignedTx) (common.Hash, error) {
	hash, err := a.chain.SendRawTransaction(ctx, signed.Raw)
	if err != nil {
		a.enter(kind, stageBroadcast, zap.Bool("accepted", false))
		return common.Hash{}, fmt.Errorf("broadcast %s: %w", signed.Hash, err)
	}
	a.enter(kind, stageBroadcast, zap.Bool("accepted", true))
	if hash != signed.Hash {
		a.log.Warn("node returned unexpected transaction hash", zap.Stringer("local", signed.Hash), zap.Stringer("node", hash))
	}
	a.metrics.ObserveBroadcast(kind)
	a.log.Info("transaction broadcast", zap.String("kind", kind), zap.Stringer("hash", signed.Hash), zap.Uint64("nonce", signed.Tx.Nonce()))
	return signed.Hash, nil
}
