package fault

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpstreamWrapsCause(t *testing.T) {
	err := Upstream(DependencyKV, "get", "documents", context.DeadlineExceeded)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "kv get key=documents: context deadline exceeded", err.Error())

	var up *UpstreamError
	require.True(t, errors.As(err, &up))
	assert.Equal(t, DependencyKV, up.Dependency)
}

func TestUpstreamNil(t *testing.T) {
	assert.NoError(t, Upstream(DependencyKV, "set", "users", nil))
}

func TestPartialBatchError(t *testing.T) {
	cause := errors.New("boom")
	err := &PartialBatchError{Op: "delete documents", Attempted: []string{"a", "b"}, Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "2 items attempted")
}
