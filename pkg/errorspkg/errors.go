// Package errorspkg provides errors shared by all layers of the app.
package errorspkg

import "errors"

// ErrInternal is returned to clients in place of failures they cannot act on.
var ErrInternal = errors.New("internal error")
