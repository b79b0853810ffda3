package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Unauthenticated("no token"), http.StatusUnauthorized},
		{Forbidden("not yours"), http.StatusForbidden},
		{Validationf("bad quantity"), http.StatusBadRequest},
		{NotFound("nope"), http.StatusNotFound},
		{Conflict("already claimed"), http.StatusConflict},
		{InvalidTransitionf("completed is terminal"), http.StatusConflict},
		{Internal(errors.New("mongo exploded")), http.StatusInternalServerError},
		{errors.New("plain error"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err))
	}
}

func TestMessageNeverLeaksInternalDetail(t *testing.T) {
	err := Internal(errors.New("connection string with password"))
	assert.Equal(t, "internal server error", Message(err))
	assert.NotContains(t, Message(err), "password")

	assert.Equal(t, "internal server error", Message(errors.New("raw")))
	assert.Equal(t, "already claimed", Message(Conflict("already claimed")))
}

func TestWrappedErrorsKeepKind(t *testing.T) {
	base := Conflict("already claimed")
	wrapped := fmt.Errorf("claim pickup: %w", base)
	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.Equal(t, http.StatusConflict, HTTPStatus(wrapped))
	assert.Equal(t, "already claimed", Message(wrapped))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(KindValidation, "bad input", cause)
	assert.True(t, errors.Is(err, cause))
}
