package similarity

import (
	"errors"
	"fmt"
)

var ErrEmbedding = errors.New("embedding failed")

// EmbeddingError reports which text could not be embedded and why.
type EmbeddingError struct {
	Text string
	Err  error
}

func (e *EmbeddingError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("embedding failed for %q", truncate(e.Text, 40))
	}
	return fmt.Sprintf("embedding failed for %q: %v", truncate(e.Text, 40), e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

func (e *EmbeddingError) Is(target error) bool {
	return target == ErrEmbedding
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
