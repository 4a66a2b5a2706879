package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsCodeForErrorsIs(t *testing.T) {
	cloned := Clone(ErrSessionFull, "session s-1 is full")
	assert.True(t, errors.Is(cloned, ErrSessionFull))
	assert.False(t, errors.Is(cloned, ErrSessionCancelled))
	assert.Equal(t, "session s-1 is full", cloned.Message)
	assert.Equal(t, "session is full", ErrSessionFull.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)

	wrapped := fmt.Errorf("enroll: %w", ErrTimeConflict)
	assert.Equal(t, ErrTimeConflict.Code, FromError(wrapped).Code)
	assert.Nil(t, FromError(nil))
}
