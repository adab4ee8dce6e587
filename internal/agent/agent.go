// Package agent serves wallet requests one at a time against a single
// unlocked key. Requests never run concurrently, so two transactions from
// the agent never race for the same nonce.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xueqianLu/ethtrader/internal/chain"
	"github.com/xueqianLu/ethtrader/internal/errno"
	"github.com/xueqianLu/ethtrader/internal/metrics"
	"github.com/xueqianLu/ethtrader/internal/registry"
	"github.com/xueqianLu/ethtrader/internal/signer"
	"go.uber.org/zap"
)

// ErrStopped is returned by Do once Run has returned.
var ErrStopped = errors.New("agent stopped")

// WalletSource hands out the unlocked wallet.
type WalletSource interface {
	Wallet() (*signer.Wallet, error)
}

// Config holds the transaction policy of the agent.
type Config struct {
	GasPriceMultiplier uint64
	TransferGasLimit   uint64
	SwapGasLimit       uint64
	// SlippageBps is applied to the router quote when a swap request has no
	// explicit minimum output. Zero disables the policy.
	SlippageBps uint32
}

// DefaultConfig mirrors the signer package defaults and has no slippage policy.
func DefaultConfig() Config {
	return Config{
		GasPriceMultiplier: signer.DefaultGasPriceMultiplier,
		TransferGasLimit:   signer.TransferGasLimit,
		SwapGasLimit:       signer.SwapGasLimit,
	}
}

// Option configures an Agent.
type Option func(*Agent)

func WithLogger(log *zap.Logger) Option {
	return func(a *Agent) {
		if log != nil {
			a.log = log
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Agent) { a.metrics = m }
}

// WithClock overrides the time source used for swap deadlines.
func WithClock(now func() time.Time) Option {
	return func(a *Agent) { a.now = now }
}

type result struct {
	report interface{}
	err    error
}

type envelope struct {
	ctx   context.Context
	req   Request
	reply chan result
}

type Agent struct {
	cfg       Config
	chain     chain.Client
	registry  *registry.Registry
	keys      WalletSource
	assembler *signer.Assembler
	metrics   *metrics.Metrics
	log       *zap.Logger
	now       func() time.Time

	requests chan envelope
	done     chan struct{}
}

func New(cfg Config, client chain.Client, reg *registry.Registry, keys WalletSource, opts ...Option) (*Agent, error) {
	if cfg.TransferGasLimit == 0 || cfg.SwapGasLimit == 0 {
		return nil, fmt.Errorf("gas limits must be positive: %w", errno.ErrConfig)
	}
	if cfg.SlippageBps >= 10000 {
		return nil, fmt.Errorf("slippage %d bps out of range: %w", cfg.SlippageBps, errno.ErrConfig)
	}
	asm, err := signer.NewAssembler(cfg.GasPriceMultiplier)
	if err != nil {
		return nil, err
	}
	a := &Agent{
		cfg:       cfg,
		chain:     client,
		registry:  reg,
		keys:      keys,
		assembler: asm,
		log:       zap.NewNop(),
		now:       time.Now,
		requests:  make(chan envelope),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.Named("agent")
	return a, nil
}

// Run serves queued requests until ctx is done. Errors are returned to the
// requester; they never stop the loop. Run must be called at most once.
func (a *Agent) Run(ctx context.Context) error {
	defer close(a.done)
	a.log.Info("agent loop started")
	for {
		select {
		case <-ctx.Done():
			a.log.Info("agent loop stopped")
			return ctx.Err()
		case env := <-a.requests:
			report, err := a.safeHandle(env.ctx, env.req)
			env.reply <- result{report: report, err: err}
		}
	}
}

// Do queues req for the loop and waits for its result. If ctx ends after the
// request was picked up, the request still runs to completion; a broadcast
// transaction cannot be withdrawn.
func (a *Agent) Do(ctx context.Context, req Request) (interface{}, error) {
	env := envelope{ctx: ctx, req: req, reply: make(chan result, 1)}
	select {
	case a.requests <- env:
	case <-a.done:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-env.reply:
		return r.report, r.err
	case <-a.done:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (a *Agent) safeHandle(ctx context.Context, req Request) (report interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("request panicked", zap.Any("panic", r), zap.Stack("stack"))
			report, err = nil, fmt.Errorf("request panicked: %v: %w", r, errno.ErrInternal)
		}
	}()
	return a.Handle(ctx, req)
}

// Handle executes req synchronously on the caller's goroutine. Callers that
// may run concurrently must go through Do instead.
func (a *Agent) Handle(ctx context.Context, req Request) (report interface{}, err error) {
	started := time.Now()
	kind := "unknown"
	if req != nil {
		kind = req.Kind()
	}
	defer func() {
		a.metrics.ObserveRequest(kind, started, err)
		if err != nil {
			report = nil
			a.log.Warn("request failed", zap.String("kind", kind), zap.Error(err))
		}
	}()

	switch r := req.(type) {
	case Info:
		return a.info(ctx)
	case *Info:
		return a.info(ctx)
	case Swap:
		return a.swap(ctx, r)
	case *Swap:
		return a.swap(ctx, *r)
	case Send:
		return a.send(ctx, r)
	case *Send:
		return a.send(ctx, *r)
	case SignMessage:
		return a.signMessage(r)
	case *SignMessage:
		return a.signMessage(*r)
	default:
		return nil, fmt.Errorf("unsupported request %T: %w", req, errno.ErrBadRequest)
	}
}

// Info, Swap, Send and Sign are typed wrappers around Do.

func (a *Agent) Info(ctx context.Context) (*InfoReport, error) {
	out, err := a.Do(ctx, Info{})
	if err != nil {
		return nil, err
	}
	return out.(*InfoReport), nil
}

func (a *Agent) Swap(ctx context.Context, req Swap) (*SwapReport, error) {
	out, err := a.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return out.(*SwapReport), nil
}

func (a *Agent) Send(ctx context.Context, req Send) (*SendReport, error) {
	out, err := a.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return out.(*SendReport), nil
}

func (a *Agent) Sign(ctx context.Context, req SignMessage) (*SignatureReport, error) {
	out, err := a.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return out.(*SignatureReport), nil
}
