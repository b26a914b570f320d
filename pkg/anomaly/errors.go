package anomaly

import (
	"github.com/pkg/errors"
)

var (
	ErrConfigInvalid  = errors.New("invalid plugin configuration")
	ErrSketchDisabled = errors.New("count_min_sketch disabled, but an anomaly field was referenced")
	ErrNoThreadTable  = errors.New("no thread table bound")
	ErrMalformedEvent = errors.New("malformed event buffer")
)
