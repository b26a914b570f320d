package anomaly

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/maxgio92/asketch/internal/metrics"
	"github.com/maxgio92/asketch/pkg/event"
	"github.com/maxgio92/asketch/pkg/fingerprint"
	"github.com/maxgio92/asketch/pkg/profile"
	"github.com/maxgio92/asketch/pkg/sketch"
	"github.com/maxgio92/asketch/pkg/state"
)

// Plugin is one anomaly-detection instance: the behavior profiles compiled
// from the init configuration, the sketch bank they update, and the host
// thread table the fingerprint extractor reads.
//
// Concurrency: the sketch cells are atomic, and the compiled profile slice
// and bank are immutable between Init calls; the RWMutex only guards the
// swap performed by a config hot reload against in-flight parse and
// extract calls.
type Plugin struct {
	logger  log.Logger
	table   state.ThreadTable
	metrics *metrics.Metrics

	mu        sync.RWMutex
	enabled   bool
	profiles  []compiledProfile
	bank      *sketch.Bank
	extractor *fingerprint.Extractor
	startTS   uint64

	errMu   sync.Mutex
	lastErr string
}

type compiledProfile struct {
	fields []profile.Field
	codes  map[event.Code]struct{}
}

func New(opts ...Option) *Plugin {
	p := &Plugin{logger: log.Nop()}
	for _, f := range opts {
		f(p)
	}
	return p
}

// Init parses and applies the configuration, building the sketch bank and
// spawning its reset workers. It may be called again for a config hot
// reload: prior workers are drained before the new bank is built.
func (p *Plugin) Init(ctx context.Context, rawConfig string) error {
	cfg, err := ParseConfig(rawConfig)
	if err != nil {
		p.setLastError(err)
		return err
	}
	if err := cfg.Validate(); err != nil {
		p.setLastError(err)
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.table == nil {
		p.setLastError(ErrNoThreadTable)
		return ErrNoThreadTable
	}

	// Hot reload: drain the previous reset workers before rebuilding.
	if p.bank != nil {
		p.bank.Close()
		p.bank = nil
	}
	p.profiles = nil
	p.enabled = cfg.CountMinSketch.Enabled
	p.startTS = processStartTS()

	if !p.enabled {
		p.logger.Info().Msg("count min sketch disabled")
		return nil
	}

	cms := &cfg.CountMinSketch
	if len(cms.RowsCols) > 0 && len(cms.GammaEps) > 0 {
		p.logger.Info().Msg("rows_cols overrides the gamma_eps sketch dimensions")
	}

	bankOpts := []sketch.BankOption{sketch.WithBankLogger(p.logger)}
	for i := 0; i < cms.NSketches; i++ {
		s, err := p.buildSketch(cms, i)
		if err != nil {
			p.setLastError(err)
			return err
		}

		bp := &cms.BehaviorProfiles[i]
		fields := profile.Parse(bp.Fields, p.logger)
		codes := make(map[event.Code]struct{}, len(bp.EventCodes))
		for _, c := range bp.EventCodes {
			codes[c] = struct{}{}
		}
		p.profiles = append(p.profiles, compiledProfile{
			fields: fields,
			codes:  codes,
		})
		bankOpts = append(bankOpts, sketch.WithSketch(s, bp.ResetPeriod()))

		p.logger.Info().
			Int("profile", i).
			Str("fields", bp.Fields).
			Interface("event_codes", bp.EventCodes).
			Dur("reset_timer", bp.ResetPeriod()).
			Msg("behavior profile loaded")
	}

	p.bank = sketch.NewBank(bankOpts...)
	p.bank.Start(ctx)
	p.extractor = fingerprint.NewExtractor(fingerprint.WithTable(p.table))

	return nil
}

func (p *Plugin) buildSketch(cms *CountMinSketchConfig, i int) (*sketch.CMS, error) {
	if len(cms.RowsCols) > 0 {
		d, w := cms.RowsCols[i][0], cms.RowsCols[i][1]
		s, err := sketch.NewWithDims(d, w)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to build sketch %d", i)
		}
		p.logger.Info().
			Int("sketch", i).
			Uint64("rows", d).Uint64("cols", w).
			Float64("gamma", sketch.GammaFromRows(d)).
			Float64("eps", sketch.EpsFromCols(w)).
			Uint64("size_bytes", s.SizeBytes()).
			Msg("count min sketch allocated")
		return s, nil
	}

	gamma, eps := cms.GammaEps[i][0], cms.GammaEps[i][1]
	s, err := sketch.NewWithErrorBounds(gamma, eps)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build sketch %d", i)
	}
	d, w := s.Dims()
	p.logger.Info().
		Int("sketch", i).
		Float64("gamma", gamma).Float64("eps", eps).
		Uint64("rows", d).Uint64("cols", w).
		Uint64("size_bytes", s.SizeBytes()).
		Msg("count min sketch allocated")
	return s, nil
}

// Shutdown stops the reset workers and releases the sketches.
func (p *Plugin) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bank != nil {
		p.bank.Close()
		p.bank = nil
	}
	p.profiles = nil
	p.enabled = false
}

// NumSketches returns the number of configured sketches.
func (p *Plugin) NumSketches() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.profiles)
}

// LastError returns the last error recorded by init or extraction.
func (p *Plugin) LastError() string {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.lastErr
}

func (p *Plugin) setLastError(err error) {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	p.lastErr = err.Error()
}

// processStartTS approximates the host process start with the ctime of
// /proc/self/cmdline, captured once per Init.
func processStartTS() uint64 {
	var st unix.Stat_t
	if err := unix.Stat("/proc/self/cmdline", &st); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return uint64(st.Ctim.Sec)*uint64(time.Second) + uint64(st.Ctim.Nsec)
}
