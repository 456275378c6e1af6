package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrorTypeNetwork))
	assert.True(t, IsRetryable(ErrorTypeRateLimit))
	assert.True(t, IsRetryable(ErrorTypeServerError))
	assert.False(t, IsRetryable(ErrorTypeAuth))
	assert.False(t, IsRetryable(ErrorTypeNotFound))
	assert.False(t, IsRetryable(ErrorTypeExtraction))
	assert.False(t, IsRetryable(ErrorTypeTooLarge))
	assert.False(t, IsRetryable(ErrorTypeUnknown))
}

func TestIsRetryableStatusCode(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{0, true},
		{429, true},
		{500, true},
		{503, true},
		{401, false},
		{403, false},
		{404, false},
		{400, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryableStatusCode(tt.code))
		})
	}
}

func TestTypeOfWrapped(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := fmt.Errorf("fetch page: %w", Wrap(ErrorTypeNetwork, 0, cause, "network error"))

	assert.Equal(t, ErrorTypeNetwork, TypeOf(err))
	assert.True(t, IsNetwork(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrorTypeUnknown, TypeOf(cause))
}

func TestErrorMessage(t *testing.T) {
	err := New(ErrorTypeNotFound, 404, "resource not found")
	assert.Equal(t, "not_found error (code 404): resource not found", err.Error())
}
