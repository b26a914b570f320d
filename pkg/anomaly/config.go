package anomaly

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/maxgio92/asketch/pkg/event"
	"github.com/maxgio92/asketch/pkg/sketch"
)

// Config is the plugin init configuration, handed over by the host as a
// JSON document.
type Config struct {
	CountMinSketch CountMinSketchConfig `json:"count_min_sketch"`
}

type CountMinSketchConfig struct {
	Enabled   bool `json:"enabled"`
	NSketches int  `json:"n_sketches"`

	// GammaEps sizes each sketch from its error probability and relative
	// error tolerance. RowsCols overrides it when both are present.
	GammaEps [][2]float64 `json:"gamma_eps,omitempty"`
	RowsCols [][2]uint64  `json:"rows_cols,omitempty"`

	BehaviorProfiles []BehaviorProfile `json:"behavior_profiles"`
}

type BehaviorProfile struct {
	Fields       string       `json:"fields"`
	EventCodes   []event.Code `json:"event_codes"`
	ResetTimerMs uint64       `json:"reset_timer_ms,omitempty"`
}

// ResetPeriod returns the effective reset period, coercing timers at or
// below the minimum to zero (never reset).
func (p *BehaviorProfile) ResetPeriod() time.Duration {
	d := time.Duration(p.ResetTimerMs) * time.Millisecond
	if d <= sketch.MinResetPeriod {
		return 0
	}
	return d
}

// ParseConfig decodes the host-provided init configuration.
func ParseConfig(raw string) (*Config, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.Wrap(ErrConfigInvalid, "empty init config")
	}
	cfg := new(Config)
	if err := json.Unmarshal([]byte(raw), cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode init config")
	}
	return cfg, nil
}

// Validate enforces the constraints the JSON shape alone cannot express:
// array lengths tied to n_sketches, the supported event-code sets, and the
// restriction of %fd profiles to fd-producing event codes.
func (c *Config) Validate() error {
	cms := &c.CountMinSketch
	if !cms.Enabled {
		return nil
	}
	if cms.NSketches < 1 {
		return errors.Wrap(ErrConfigInvalid, "n_sketches must be at least 1")
	}
	if len(cms.GammaEps) > 0 && len(cms.GammaEps) != cms.NSketches {
		return errors.Wrap(ErrConfigInvalid, "gamma_eps length must match n_sketches")
	}
	if len(cms.RowsCols) > 0 && len(cms.RowsCols) != cms.NSketches {
		return errors.Wrap(ErrConfigInvalid, "rows_cols length must match n_sketches")
	}
	if len(cms.GammaEps) == 0 && len(cms.RowsCols) == 0 {
		return errors.Wrap(ErrConfigInvalid, "one of gamma_eps or rows_cols is required")
	}
	if len(cms.BehaviorProfiles) != cms.NSketches {
		return errors.Wrap(ErrConfigInvalid, "behavior_profiles length must match n_sketches")
	}
	for i := range cms.BehaviorProfiles {
		p := &cms.BehaviorProfiles[i]
		if len(p.EventCodes) == 0 {
			return errors.Wrapf(ErrConfigInvalid, "behavior profile %d: event_codes is required", i)
		}
		for _, code := range p.EventCodes {
			if !code.ProfileSupported() {
				return errors.Wrapf(ErrConfigInvalid,
					"behavior profile %d: event code %d is not supported for behavior profiles", i, code)
			}
		}
		if strings.Contains(p.Fields, "%fd") {
			for _, code := range p.EventCodes {
				if !code.FDProducing() {
					return errors.Wrapf(ErrConfigInvalid,
						"behavior profile %d: %%fd fields require fd-producing event codes, got %d", i, code)
				}
			}
		}
	}
	return nil
}
