package replay

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/maxgio92/asketch/pkg/event"
	"github.com/maxgio92/asketch/pkg/state"
)

// rawEvent is one NDJSON line of a replayed capture. The event type is
// either a numeric PPME code or a syscall name.
type rawEvent struct {
	Ts     uint64          `json:"ts"`
	Tid    int64           `json:"tid"`
	Type   json.RawMessage `json:"type"`
	Params []rawParam      `json:"params"`
}

// rawParam carries one typed event parameter.
type rawParam struct {
	I64 *int64  `json:"i64,omitempty"`
	U64 *uint64 `json:"u64,omitempty"`
	U32 *uint32 `json:"u32,omitempty"`
	Str *string `json:"str,omitempty"`
}

func (p *rawParam) encode() ([]byte, error) {
	switch {
	case p.I64 != nil:
		return event.I64(*p.I64), nil
	case p.U64 != nil:
		return event.U64(*p.U64), nil
	case p.U32 != nil:
		return event.U32(*p.U32), nil
	case p.Str != nil:
		return event.Str(*p.Str), nil
	}
	return nil, errors.New("event parameter carries no value")
}

func (e *rawEvent) build() (*event.Event, error) {
	code, err := e.code()
	if err != nil {
		return nil, err
	}
	params := make([][]byte, 0, len(e.Params))
	for i := range e.Params {
		p, err := e.Params[i].encode()
		if err != nil {
			return nil, errors.Wrapf(err, "parameter %d", i)
		}
		params = append(params, p)
	}
	return event.New(e.Ts, e.Tid, code, params...), nil
}

func (e *rawEvent) code() (event.Code, error) {
	var num uint16
	if err := json.Unmarshal(e.Type, &num); err == nil {
		return event.Code(num), nil
	}
	var name string
	if err := json.Unmarshal(e.Type, &name); err != nil {
		return 0, errors.New("event type is neither a code nor a name")
	}
	code, ok := event.CodeByName(name)
	if !ok {
		return 0, errors.Errorf("unknown event type %q", name)
	}
	return code, nil
}

// loadThreadSnapshot fills the in-memory thread table from a JSON array of
// thread entries.
func loadThreadSnapshot(raw []byte, table *state.Table) (int, error) {
	var entries []*state.ThreadEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return 0, errors.Wrap(err, "failed to decode thread snapshot")
	}
	for _, e := range entries {
		table.Put(e)
	}
	return len(entries), nil
}
