// Package fault holds error types shared by components that talk to external dependencies.
package fault

import (
	"fmt"
	"strings"
)

// Dependency names used in UpstreamError.
const (
	DependencyKV          = "kv"
	DependencyObjectStore = "object-store"
)

// UpstreamError reports a failed call to an external dependency.
type UpstreamError struct {
	Dependency string
	Op         string
	Key        string
	Err        error
}

func (e *UpstreamError) Error() string {
	var b strings.Builder
	b.WriteString(e.Dependency)
	if e.Op != "" {
		b.WriteString(" ")
		b.WriteString(e.Op)
	}
	if e.Key != "" {
		fmt.Fprintf(&b, " key=%s", e.Key)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Upstream wraps err as an UpstreamError. A nil err yields nil.
func Upstream(dependency, op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Dependency: dependency, Op: op, Key: key, Err: err}
}

// PartialBatchError reports a bulk operation that failed after it may have applied some items.
// Callers can retry the whole batch; already removed items are no-ops.
type PartialBatchError struct {
	Op        string
	Attempted []string
	Err       error
}

func (e *PartialBatchError) Error() string {
	return fmt.Sprintf("%s: partial batch failure (%d items attempted): %v", e.Op, len(e.Attempted), e.Err)
}

func (e *PartialBatchError) Unwrap() error { return e.Err }
