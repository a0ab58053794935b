// Package provider implements the completion gateway: a persona-scoped
// text completion over an OpenAI-compatible API.
package provider

import (
	"context"
	"errors"
)

// ErrUnavailable signals that no completion could be produced, regardless of
// cause (missing credential, transport failure, non-success status, or an
// unparsable payload). Callers must not distinguish the causes.
var ErrUnavailable = errors.New("completion unavailable")

// Completer produces a persona-flavored answer for free text that matched no
// command.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
