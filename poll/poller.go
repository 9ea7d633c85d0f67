// Package poll refreshes the on-chain subscription state on a fixed
// interval and exposes it as snapshots with explicit freeze semantics: the
// instant a transaction is initiated the last snapshot is frozen so the
// in-flight UI cannot flicker, and polling resumes only on error.
package poll

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	papaya "github.com/papaya-fi/papaya-go"
	"github.com/papaya-fi/papaya-go/txbuild"
)

// Snapshot is one observation of the derived subscription state.
type Snapshot struct {
	// State is the resolved affordability state. Valid only when Err is nil.
	State papaya.SubscriptionState

	// Err is the read failure, if any. Reads are best-effort; the previous
	// snapshot stays current until a read succeeds.
	Err error

	// At is when the observation completed.
	At time.Time
}

// Task is a cancellable handle on a running poll loop. Callers check the
// handle instead of relying on implicit effect cleanup: once stopped, no
// further snapshot is applied or delivered, discarding stale async results.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	stopped bool
}

// Stop ends the poll loop. Safe to call more than once.
func (t *Task) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
	t.cancel()
}

// Stopped reports whether Stop was called.
func (t *Task) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Done is closed when the poll loop has fully exited.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Poller periodically reads the three independent on-chain values (deposit
// balance, allowance, wallet balance) and resolves them into a
// SubscriptionState.
type Poller struct {
	reader   papaya.ChainReader
	token    papaya.TokenDescriptor
	owner    common.Address
	cost18   *big.Int
	rate18   *big.Int
	interval time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	frozen bool
	last   Snapshot

	updates chan Snapshot
}

// NewPoller builds a poller for one owner and subscription. The cost and
// rate are fixed for the poller's lifetime; only balances change.
func NewPoller(cfg papaya.Config, reader papaya.ChainReader, token papaya.TokenDescriptor, owner common.Address, cost18, rate18 *big.Int) (*Poller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if reader == nil {
		return nil, papaya.ErrNotConfigured
	}
	return &Poller{
		reader:   reader,
		token:    token,
		owner:    owner,
		cost18:   new(big.Int).Set(cost18),
		rate18:   new(big.Int).Set(rate18),
		interval: cfg.PollInterval,
		logger:   cfg.Logger.Named("poll"),
		updates:  make(chan Snapshot, 1),
	}, nil
}

// Updates delivers the latest snapshot. The channel holds only the most
// recent value; slow consumers never block the loop.
func (p *Poller) Updates() <-chan Snapshot {
	return p.updates
}

// Latest returns the most recently applied snapshot.
func (p *Poller) Latest() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Freeze stops new snapshots from being applied, pinning the last-known
// state while a signature or transaction is outstanding.
func (p *Poller) Freeze() {
	p.mu.Lock()
	p.frozen = true
	p.mu.Unlock()
}

// Resume lifts a freeze so the next poll recomputes state from scratch.
func (p *Poller) Resume() {
	p.mu.Lock()
	p.frozen = false
	p.mu.Unlock()
}

// Start launches the poll loop and returns its cancellable handle. The
// first poll runs immediately; subsequent polls follow the configured
// interval.
func (p *Poller) Start(ctx context.Context) *Task {
	ctx, cancel := context.WithCancel(ctx)
	task := &Task{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(task.done)

		p.pollOnce(ctx, task)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.pollOnce(ctx, task)
			}
		}
	}()

	return task
}

// pollOnce issues the three reads concurrently, resolves the state, and
// applies the snapshot unless the poller is frozen or the task stopped.
func (p *Poller) pollOnce(ctx context.Context, task *Task) {
	var deposit, allowance, wallet *big.Int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		deposit, err = txbuild.ReadDepositBalance(gctx, p.reader, p.token, p.owner)
		return err
	})
	g.Go(func() (err error) {
		allowance, err = txbuild.ReadAllowance(gctx, p.reader, p.token, p.owner)
		return err
	})
	g.Go(func() (err error) {
		wallet, err = txbuild.ReadTokenBalance(gctx, p.reader, p.token, p.owner)
		return err
	})

	snapshot := Snapshot{At: time.Now()}
	if err := g.Wait(); err != nil {
		p.logger.Debug("state poll failed", zap.Error(err))
		snapshot.Err = err
	} else {
		snapshot.State = papaya.Resolve(papaya.ResolveInput{
			DepositBalance: deposit,
			Allowance:      allowance,
			WalletBalance:  wallet,
			Cost18:         p.cost18,
			Rate18:         p.rate18,
		}, p.token)
	}

	p.apply(snapshot, task)
}

func (p *Poller) apply(snapshot Snapshot, task *Task) {
	if task.Stopped() {
		return
	}

	p.mu.Lock()
	if p.frozen {
		p.mu.Unlock()
		return
	}
	p.last = snapshot
	p.mu.Unlock()

	// Keep only the newest snapshot in the channel.
	for {
		select {
		case p.updates <- snapshot:
			return
		default:
			select {
			case <-p.updates:
			default:
			}
		}
	}
}
