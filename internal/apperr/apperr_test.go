package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Invalid("name", "bad"), http.StatusBadRequest},
		{PasswordRequired("CS101"), http.StatusBadRequest},
		{Conflict("dup"), http.StatusBadRequest},
		{Unauthorized("nope"), http.StatusUnauthorized},
		{Forbidden("no"), http.StatusForbidden},
		{IncorrectPassword(), http.StatusForbidden},
		{NotFound("Class"), http.StatusNotFound},
		{Upstream("drive down", errors.New("boom")), http.StatusBadGateway},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), "err %v", tc.err)
	}
}

// 包一层之后状态码映射不变
func TestHTTPStatusWrapped(t *testing.T) {
	err := fmt.Errorf("handler: %w", NotFound("File"))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
}

func TestPasswordRequiredCarriesClassName(t *testing.T) {
	err := PasswordRequired("Algorithms")

	var appErr *Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Algorithms", appErr.ClassName)
	assert.True(t, errors.Is(err, ErrPasswordRequired))
}

func TestNotFoundMessage(t *testing.T) {
	assert.EqualError(t, NotFound("Class"), "Class not found")
}

func TestUpstreamNilCause(t *testing.T) {
	err := Upstream("photos unavailable", nil)
	assert.True(t, errors.Is(err, ErrUpstream))
	assert.EqualError(t, err, "photos unavailable")
}

func TestUpstreamUnwrapsCause(t *testing.T) {
	cause := errors.New("dial timeout")
	err := Upstream("drive down", cause)
	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrUpstream))
}
