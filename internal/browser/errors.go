// internal/browser/errors.go
package browser

import (
	"context"
	"errors"
	"strings"

	"github.com/valpere/jobharvest/internal/utils"
)

// classify maps a raw driver error onto the error taxonomy. Caller
// cancellation is returned unchanged so it is never mistaken for a page failure.
func classify(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	code := utils.ErrCodeBrowserFailed
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "net::ERR_TIMED_OUT") {
		code = utils.ErrCodeNavigationTimeout
	}
	return utils.NewError(code, op+" failed").
		WithCause(err).
		WithContext("operation", op).
		WithRetryable(true).
		Build()
}

// IsTimeout reports whether err is a navigation or wait timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, utils.ErrNavigationTimeout)
}
