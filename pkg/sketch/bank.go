package sketch

import (
	"context"
	"time"

	log "github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// MinResetPeriod is the reset period threshold. Periods at or below it are
// coerced to zero, meaning the sketch is never reset.
const MinResetPeriod = 100 * time.Millisecond

// Bank owns an ordered set of sketches and the background workers that
// periodically zero them. The set is fixed at construction; the index is
// the stable identifier extraction requests use.
type Bank struct {
	sketches []*CMS
	periods  []time.Duration
	logger   log.Logger

	cancel  context.CancelFunc
	workers *errgroup.Group
}

type BankOption func(*Bank)

func WithBankLogger(logger log.Logger) BankOption {
	return func(b *Bank) {
		b.logger = logger
	}
}

// WithSketch appends a sketch with its reset period to the bank.
func WithSketch(s *CMS, resetPeriod time.Duration) BankOption {
	return func(b *Bank) {
		b.sketches = append(b.sketches, s)
		b.periods = append(b.periods, resetPeriod)
	}
}

func NewBank(opts ...BankOption) *Bank {
	b := &Bank{logger: log.Nop()}
	for _, f := range opts {
		f(b)
	}
	return b
}

func (b *Bank) Len() int {
	return len(b.sketches)
}

// Get returns the ith sketch, bounds-checked.
func (b *Bank) Get(i int) (*CMS, error) {
	if i < 0 || i >= len(b.sketches) {
		return nil, ErrIndexOutOfBounds
	}
	return b.sketches[i], nil
}

// Start spawns one reset worker per sketch with a period above
// MinResetPeriod. Workers sleep outside any lock and exit within one period
// of cancellation.
func (b *Bank) Start(ctx context.Context) {
	ctx, b.cancel = context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	b.workers = g
	for i := range b.sketches {
		if b.periods[i] <= MinResetPeriod {
			continue
		}
		i := i
		g.Go(func() error {
			ticker := time.NewTicker(b.periods[i])
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					b.sketches[i].Reset()
					b.logger.Debug().Int("sketch", i).Msg("sketch counts reset")
				}
			}
		})
	}
}

// Close stops the reset workers and waits for them to drain. It is safe to
// call on a bank that was never started.
func (b *Bank) Close() {
	if b.cancel != nil {
		b.cancel()
	}
	if b.workers != nil {
		_ = b.workers.Wait()
	}
}
