package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapAsKeepsCatalogueIdentity(t *testing.T) {
	cause := errors.New("duplicate key value violates unique constraint")
	err := WrapAs(ErrStoreConflict, cause)

	require.Equal(t, "STORE_CONFLICT", err.Code)
	require.Equal(t, http.StatusConflict, err.Status)
	require.ErrorIs(t, err, cause)
	require.True(t, HasCode(err, ErrStoreConflict))
}

func TestFromError(t *testing.T) {
	require.Nil(t, FromError(nil))

	typed := Clone(ErrNotFound, "unknown program prog-x")
	require.Same(t, typed, FromError(typed))

	wrapped := fmt.Errorf("repo: %w", typed)
	require.Equal(t, "NOT_FOUND", FromError(wrapped).Code)

	plain := FromError(errors.New("boom"))
	require.Equal(t, ErrInternal.Code, plain.Code)
	require.Equal(t, http.StatusInternalServerError, plain.Status)
}

func TestCloneOverridesMessageOnly(t *testing.T) {
	clone := Clone(ErrValidation, "horizon_end precedes horizon_start")
	require.Equal(t, ErrValidation.Code, clone.Code)
	require.Equal(t, ErrValidation.Status, clone.Status)
	require.Equal(t, "horizon_end precedes horizon_start", clone.Message)
	require.Equal(t, "invalid request", ErrValidation.Message)
}

func TestHasCode(t *testing.T) {
	require.True(t, HasCode(ErrBusy, ErrBusy))
	require.False(t, HasCode(ErrBusy, ErrConflict))
	require.False(t, HasCode(nil, ErrBusy))
	require.False(t, HasCode(errors.New("plain"), ErrBusy))
}
