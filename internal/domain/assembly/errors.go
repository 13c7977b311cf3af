package assembly

import "errors"

// ErrInvalidParameter reports caller errors in team composition parameters.
var ErrInvalidParameter = errors.New("invalid team composition parameter")
