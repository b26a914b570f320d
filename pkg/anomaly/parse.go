package anomaly

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/maxgio92/asketch/pkg/event"
)

// ParseEvent is the per-event dispatch: it maintains the thread's
// last-event fd, then updates every sketch whose profile covers the event
// type. A malformed buffer fails the event; everything else degrades to a
// skipped update so the event stream keeps flowing.
func (p *Plugin) ParseEvent(evt *event.Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.enabled {
		return nil
	}
	if p.metrics != nil {
		p.metrics.Events.Inc()
	}

	if evt.Tid() <= 0 {
		return nil
	}

	code := evt.Type()
	if code.FDProducing() {
		fd, ok := evt.ParamI64(code.FDParamSlot())
		if !ok {
			if p.metrics != nil {
				p.metrics.ParseFailures.Inc()
			}
			return errors.Wrapf(ErrMalformedEvent,
				"missing fd parameter %d for event type %d", code.FDParamSlot(), code)
		}
		if entry, ok := p.table.Entry(evt.Tid()); ok {
			entry.LastEventFD = fd
		}
	}

	for i := range p.profiles {
		prof := &p.profiles[i]
		if _, ok := prof.codes[code]; !ok {
			continue
		}
		fp := p.extractor.Extract(evt, prof.fields)
		if fp == "" {
			continue
		}
		s, err := p.bank.Get(i)
		if err != nil {
			continue
		}
		s.Update(fp, 1)
		if p.metrics != nil {
			p.metrics.SketchUpdates.WithLabelValues(strconv.Itoa(i)).Inc()
		}
	}
	return nil
}
