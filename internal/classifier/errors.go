package classifier

import "errors"

// ErrLengthMismatch is returned when training inputs are not aligned.
var ErrLengthMismatch = errors.New("training inputs differ in length")
