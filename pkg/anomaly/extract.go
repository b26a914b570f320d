package anomaly

import (
	"time"

	"github.com/pkg/errors"

	"github.com/maxgio92/asketch/pkg/event"
	"github.com/maxgio92/asketch/pkg/sketch"
)

// FieldInfo describes one extractable field for the host handshake.
type FieldInfo struct {
	Name        string
	Type        string
	Indexed     bool
	Description string
}

// Fields lists the read-only fields this plugin exposes.
func Fields() []FieldInfo {
	return []FieldInfo{
		{
			Name:    "anomaly.count_min_sketch",
			Type:    "uint64",
			Indexed: true,
			Description: "Count min sketch frequency estimate of the event's behavior profile " +
				"fingerprint; the index selects the behavior profile defined in the init config.",
		},
		{
			Name:    "anomaly.count_min_sketch.profile",
			Type:    "string",
			Indexed: true,
			Description: "The behavior profile fingerprint itself, concatenated from the " +
				"configured field selectors.",
		},
		{
			Name:    "anomaly.falco.duration_ns",
			Type:    "uint64",
			Indexed: false,
			Description: "Wall-clock nanoseconds since the host process start, useful for " +
				"ignoring rare events while the sketch counts are still warming up.",
		},
	}
}

// CountMinSketchEstimate serves anomaly.count_min_sketch[index]: the
// frequency estimate of the event's fingerprint for the indexed profile. A
// non-applicable (empty) fingerprint yields zero without error.
func (p *Plugin) CountMinSketchEstimate(evt *event.Event, index int) (uint64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	fp, err := p.fingerprintFor(evt, index)
	if err != nil {
		return 0, err
	}
	if fp == "" {
		return 0, nil
	}
	s, err := p.bank.Get(index)
	if err != nil {
		p.setLastError(err)
		return 0, err
	}
	return s.Estimate(fp), nil
}

// BehaviorProfile serves anomaly.count_min_sketch.profile[index]: the
// fingerprint string itself.
func (p *Plugin) BehaviorProfile(evt *event.Event, index int) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.fingerprintFor(evt, index)
}

// DurationNS serves anomaly.falco.duration_ns: wall-clock nanoseconds
// since the host process start captured at init.
func (p *Plugin) DurationNS() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	now := uint64(time.Now().UnixNano())
	if now < p.startTS {
		return 0
	}
	return now - p.startTS
}

func (p *Plugin) fingerprintFor(evt *event.Event, index int) (string, error) {
	if !p.enabled {
		p.setLastError(ErrSketchDisabled)
		return "", ErrSketchDisabled
	}
	if index < 0 || index >= len(p.profiles) {
		err := errors.Wrapf(sketch.ErrIndexOutOfBounds, "sketch %d of %d", index, len(p.profiles))
		p.setLastError(err)
		return "", err
	}
	return p.extractor.Extract(evt, p.profiles[index].fields), nil
}
