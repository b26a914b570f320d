package sketch

import (
	"github.com/pkg/errors"
)

var (
	ErrZeroDims         = errors.New("sketch needs at least one row and one column")
	ErrErrorBounds      = errors.New("gamma and eps must be in (0, 1]")
	ErrIndexOutOfBounds = errors.New("sketch index out of bounds")
)
