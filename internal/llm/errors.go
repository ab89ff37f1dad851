package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/DjordjeVuckovic/news-highlight/internal/domain"
)

var (
	ErrMalformedOutput = errors.New("malformed model output")
	ErrProviderCall    = errors.New("provider call failed")
	ErrUnknownProvider = errors.New("unknown provider")
	ErrMissingAPIKey   = errors.New("missing api key")
)

// ProviderError wraps a failed provider call. Transient errors are worth
// retrying.
type ProviderError struct {
	Provider   domain.ProviderID
	StatusCode int
	Transient  bool
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func (e *ProviderError) Is(target error) bool {
	return target == ErrProviderCall
}

func newProviderError(p domain.ProviderID, status int, err error) *ProviderError {
	return &ProviderError{
		Provider:   p,
		StatusCode: status,
		Transient:  isTransientStatus(status) || isTransientErr(err),
		Err:        err,
	}
}

// IsTransient reports whether err is a provider failure that may succeed on retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Transient
	}
	return isTransientErr(err)
}

func isTransientStatus(status int) bool {
	switch {
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return true
	case status >= 500:
		return true
	default:
		return false
	}
}

func isTransientErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
