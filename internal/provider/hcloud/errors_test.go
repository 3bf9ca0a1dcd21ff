package hcloud

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/stretchr/testify/assert"

	"github.com/gantry-sh/gantry/internal/provider"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{"rate limit", hcloud.Error{Code: hcloud.ErrorCodeRateLimitExceeded}, true},
		{"locked", hcloud.Error{Code: hcloud.ErrorCodeLocked}, true},
		{"conflict", hcloud.Error{Code: hcloud.ErrorCodeConflict}, true},
		{"resource unavailable", hcloud.Error{Code: hcloud.ErrorCodeResourceUnavailable}, true},
		{"invalid input", hcloud.Error{Code: hcloud.ErrorCodeInvalidInput}, false},
		{"forbidden", hcloud.Error{Code: hcloud.ErrorCodeForbidden}, false},
		{"unauthorized", hcloud.Error{Code: hcloud.ErrorCodeUnauthorized}, false},
		{"network timeout", timeoutError{}, true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"unknown", errors.New("boom"), false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.transient, provider.IsTransient(classify(tt.err)))
		})
	}
}

func TestClassify_Nil(t *testing.T) {
	t.Parallel()
	assert.NoError(t, classify(nil))
}

func TestClassify_WrappedCode(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("create server: %w", hcloud.Error{Code: hcloud.ErrorCodeRateLimitExceeded})
	assert.True(t, provider.IsTransient(classify(err)))
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, isNotFound(hcloud.Error{Code: hcloud.ErrorCodeNotFound}))
	assert.True(t, isNotFound(fmt.Errorf("get: %w", hcloud.Error{Code: hcloud.ErrorCodeNotFound})))
	assert.False(t, isNotFound(hcloud.Error{Code: hcloud.ErrorCodeConflict}))
	assert.False(t, isNotFound(errors.New("boom")))
	assert.False(t, isNotFound(nil))
}
