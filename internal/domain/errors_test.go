package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildError(t *testing.T) {
	inner := errors.New("exit status 1")
	err := NewBuildError(Target{Os: "linux", Arch: "amd64"}, "compiler output", inner)

	assert.Contains(t, err.Error(), "linux/amd64")
	assert.Contains(t, err.Error(), "compiler output")
	assert.ErrorIs(t, err, inner)
}

func TestHookError(t *testing.T) {
	inner := errors.New("exit status 2")
	err := NewHookError("./package.sh", Target{Os: "windows", Arch: "386"}, inner)

	assert.Contains(t, err.Error(), "./package.sh")
	assert.Contains(t, err.Error(), "windows/386")
	assert.ErrorIs(t, err, inner)
}

func TestPublishError(t *testing.T) {
	inner := errors.New("connection reset")
	err := NewPublishError("v1.0.0/wstunnel_v1.0.0_linux_amd64.tar.gz", inner)

	assert.Contains(t, err.Error(), "v1.0.0/wstunnel")
	assert.ErrorIs(t, err, inner)
}

func TestIsRetryable(t *testing.T) {
	plain := errors.New("plain")
	assert.False(t, IsRetryable(plain))

	retryable := &RetryableError{Err: plain}
	assert.True(t, IsRetryable(retryable))
	assert.ErrorIs(t, retryable, plain)

	wrapped := NewPublishError("key", retryable)
	assert.True(t, IsRetryable(wrapped))
}
