// Package session coordinates one subscription flow end to end: it polls
// the derived state, builds the next required transaction, submits it
// exactly once per user action, and reports the outcome through one-shot
// callbacks.
package session

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"go.uber.org/zap"

	papaya "github.com/papaya-fi/papaya-go"
	"github.com/papaya-fi/papaya-go/poll"
	"github.com/papaya-fi/papaya-go/txbuild"
)

var (
	// ErrAlreadyStarted is returned when Start is called on a running session.
	ErrAlreadyStarted = errors.New("session already started")

	// ErrSessionComplete is returned when Submit is called after the
	// subscribing transaction has already confirmed.
	ErrSessionComplete = errors.New("session already completed")
)

// GasPricer supplies the current gas price in wei for a chain. The oracle
// client satisfies it; a zero price means "let the wallet choose".
type GasPricer interface {
	GasPrice(ctx context.Context, chainID int64) *big.Int
}

// Callbacks carries the host's one-shot outcome handlers. OnSuccess fires
// once on the first confirmed receipt. OnError receives a human-readable
// category; user cancellation is suppressed and never reaches it.
type Callbacks struct {
	OnSuccess func(papaya.Receipt)
	OnError   func(papaya.Category)
}

// Session drives a single subscription attempt for one wallet. All wallet
// and chain access goes through the capabilities supplied at construction;
// the session itself holds no global state.
type Session struct {
	cfg     papaya.Config
	caps    papaya.Capabilities
	details papaya.SubscriptionDetails
	logger  *zap.Logger

	token   papaya.TokenDescriptor
	planner *txbuild.Planner
	poller  *poll.Poller

	view papaya.StateView

	mu        sync.Mutex
	task      *poll.Task
	inFlight  bool
	succeeded bool
	callbacks Callbacks
	gasPrices GasPricer
}

// New builds a session. An unsupported token is not an error: the returned
// session exposes the terminal mismatch flag through State and refuses to
// submit.
func New(cfg papaya.Config, caps papaya.Capabilities, details papaya.SubscriptionDetails) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := caps.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		cfg:     cfg,
		caps:    caps,
		details: details,
		logger:  cfg.Logger.Named("session"),
	}

	token, err := cfg.Network.Token(details.TokenSymbol)
	if err != nil {
		s.view = papaya.StateView{UnsupportedToken: true}
		return s, nil
	}
	s.token = token
	s.view = papaya.StateView{Token: token}

	planner, err := txbuild.NewPlanner(cfg, token, details)
	if err != nil {
		return nil, err
	}
	s.planner = planner

	poller, err := poll.NewPoller(cfg, caps.Reader, token, caps.Signer.Address(), planner.Cost18(), planner.Rate18())
	if err != nil {
		return nil, err
	}
	s.poller = poller

	return s, nil
}

// SetCallbacks registers the host's outcome handlers.
func (s *Session) SetCallbacks(cb Callbacks) {
	s.mu.Lock()
	s.callbacks = cb
	s.mu.Unlock()
}

// SetGasOracle registers an optional gas-price source used for fee
// estimates. Without one, estimates fall back to a zero price.
func (s *Session) SetGasOracle(prices GasPricer) {
	s.mu.Lock()
	s.gasPrices = prices
	s.mu.Unlock()
}

// Start begins state polling. The returned channel delivers state views as
// they are recomputed; it stops updating once a transaction is in flight.
func (s *Session) Start(ctx context.Context) (<-chan papaya.StateView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.view.UnsupportedToken || s.view.UnsupportedNetwork {
		return nil, papaya.ErrUnsupportedToken
	}
	if s.task != nil {
		return nil, ErrAlreadyStarted
	}

	s.task = s.poller.Start(ctx)

	out := make(chan papaya.StateView, 1)
	go func() {
		defer close(out)
		for {
			select {
			case <-s.task.Done():
				return
			case snap := <-s.poller.Updates():
				if snap.Err != nil {
					continue
				}
				view := papaya.StateView{SubscriptionState: snap.State, Token: s.token}
				s.mu.Lock()
				s.view = view
				s.mu.Unlock()
				select {
				case out <- view:
				default:
				}
			}
		}
	}()

	return out, nil
}

// Stop tears the session down, discarding any stale async results.
func (s *Session) Stop() {
	s.mu.Lock()
	task := s.task
	s.mu.Unlock()
	if task != nil {
		task.Stop()
	}
}

// State returns the current exposed state record.
func (s *Session) State() papaya.StateView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Submit builds and submits the next required transaction for the frozen
// state. It submits exactly once per invocation: there is no automatic
// retry, and a second invocation while one is outstanding fails with
// ErrSubmissionInFlight. Polling is frozen for the duration. Confirming
// the subscribing transaction completes the session and fires OnSuccess;
// an intermediate step (a standalone approval) resumes polling so the
// next Submit can carry the flow forward.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.view.UnsupportedToken || s.view.UnsupportedNetwork {
		s.mu.Unlock()
		return papaya.ErrUnsupportedToken
	}
	if s.succeeded {
		s.mu.Unlock()
		return ErrSessionComplete
	}
	if s.inFlight {
		s.mu.Unlock()
		return papaya.ErrSubmissionInFlight
	}
	s.inFlight = true
	state := s.view.SubscriptionState
	cb := s.callbacks
	s.mu.Unlock()

	s.poller.Freeze()

	terminal, err := s.submit(ctx, state, cb)

	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()

	if err != nil {
		// Fresh state lets the user retry from scratch.
		s.poller.Resume()
		if papaya.IsUserRejected(err) {
			s.logger.Debug("submission cancelled by user")
			return nil
		}
		category := papaya.Categorize(err)
		s.logger.Warn("submission failed",
			zap.String("category", category.Code),
			zap.Error(err))
		if cb.OnError != nil {
			cb.OnError(category)
		}
		return err
	}
	if !terminal {
		// The chain state changed under the frozen snapshot; recompute it
		// so the next Submit builds the follow-up transaction.
		s.poller.Resume()
	}
	return nil
}

func (s *Session) submit(ctx context.Context, state papaya.SubscriptionState, cb Callbacks) (terminal bool, err error) {
	plan, err := s.planner.Plan(ctx, state, s.caps.Reader, s.caps.Signer)
	if err != nil {
		return false, err
	}

	s.logger.Info("submitting plan",
		zap.String("kind", plan.Kind.String()),
		zap.Int("calls", len(plan.Calls)))
	s.logPlanFee(ctx, plan)

	txHash, err := s.caps.Submitter.SubmitCalls(ctx, plan.Calls)
	if err != nil {
		return false, err
	}

	receipt, err := s.caps.Submitter.WaitForReceipt(ctx, txHash)
	if err != nil {
		return false, err
	}
	if !receipt.Succeeded() {
		return false, errors.New("execution reverted")
	}

	if !plan.Kind.Subscribes() {
		s.logger.Info("intermediate step confirmed",
			zap.String("kind", plan.Kind.String()),
			zap.Stringer("tx", receipt.TxHash))
		return false, nil
	}

	s.mu.Lock()
	s.succeeded = true
	s.mu.Unlock()

	s.logger.Info("subscription confirmed", zap.Stringer("tx", receipt.TxHash))
	if cb.OnSuccess != nil {
		cb.OnSuccess(receipt)
	}
	return true, nil
}

// logPlanFee reports the estimated native-token fee of the plan when a gas
// oracle is configured. Estimation is best-effort and never blocks a
// submission.
func (s *Session) logPlanFee(ctx context.Context, plan txbuild.Plan) {
	s.mu.Lock()
	prices := s.gasPrices
	s.mu.Unlock()
	if prices == nil {
		return
	}

	price := prices.GasPrice(ctx, s.cfg.Network.ChainID)
	fee := new(big.Int)
	for _, call := range plan.Calls {
		f, err := s.EstimateFee(ctx, call, price)
		if err != nil {
			s.logger.Debug("fee estimate failed", zap.Error(err))
			return
		}
		fee.Add(fee, f)
	}
	if fee.Sign() > 0 {
		s.logger.Info("estimated network fee", zap.String("fee_wei", fee.String()))
	}
}

// EstimateFee estimates the native-token fee of a call by combining the
// wallet's gas estimate with an externally supplied gas price. A zero gas
// price yields a zero fee, matching the oracles' zero-value fallback.
func (s *Session) EstimateFee(ctx context.Context, call papaya.Call, gasPrice *big.Int) (*big.Int, error) {
	gas, err := s.caps.Estimator.EstimateGas(ctx, call.To, call.Data)
	if err != nil {
		return nil, err
	}
	if gasPrice == nil {
		return new(big.Int), nil
	}
	return new(big.Int).Mul(new(big.Int).SetUint64(gas), gasPrice), nil
}

// EstimateCallFee estimates the native-token fee of a call using the
// configured gas oracle. Without an oracle, or when the oracle falls back
// to zero, the fee is zero and wallet defaults apply.
func (s *Session) EstimateCallFee(ctx context.Context, call papaya.Call) (*big.Int, error) {
	s.mu.Lock()
	prices := s.gasPrices
	s.mu.Unlock()

	var price *big.Int
	if prices != nil {
		price = prices.GasPrice(ctx, s.cfg.Network.ChainID)
	}
	return s.EstimateFee(ctx, call, price)
}
