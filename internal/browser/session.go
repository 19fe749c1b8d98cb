// Package browser is the automation capability the crawler drives: one
// exclusive, stateful browsing session per instance.
package browser

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTimeout is returned by WaitFor when the condition did not hold in time.
	ErrTimeout = errors.New("wait timed out")
	// ErrNotFound is returned when a selector matches nothing.
	ErrNotFound = errors.New("element not found")
	// ErrSessionClosed means the session is dead. Callers must stop using it.
	ErrSessionClosed = errors.New("browser session closed")
)

// Session must not be used from more than one goroutine.
type Session interface {
	Open(ctx context.Context, url string) error
	Click(ctx context.Context, selector string) error
	// WaitFor blocks until selector is present or timeout elapses.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	Markup(ctx context.Context) (string, error)
	ScrollBy(ctx context.Context, px int) error
	ScrollHeight(ctx context.Context) (int64, error)
	Close() error
}

// IsFatal reports whether err ends the whole crawl rather than one page or item.
func IsFatal(err error) bool {
	return errors.Is(err, ErrSessionClosed) ||
		errors.Is(err, context.Canceled)
}
