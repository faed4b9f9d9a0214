package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrNoTargets indicates a build expands to an empty target set
	ErrNoTargets = errors.New("no targets to build")

	// ErrDirtyWorktree indicates uncommitted changes block a release
	ErrDirtyWorktree = errors.New("git worktree is dirty")

	// ErrNoCommits indicates the repository has no commit history
	ErrNoCommits = errors.New("repository has no commits")

	// ErrCacheMiss indicates a cache miss
	ErrCacheMiss = errors.New("cache miss")

	// ErrChecksumMismatch indicates a dist file no longer matches its recorded digest
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// BuildError represents a failed compilation for one target
type BuildError struct {
	Target Target
	Output string
	Err    error
}

func (e *BuildError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("build failed for %s: %v\n%s", e.Target, e.Err, e.Output)
	}
	return fmt.Sprintf("build failed for %s: %v", e.Target, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// NewBuildError creates a new BuildError
func NewBuildError(target Target, output string, err error) *BuildError {
	return &BuildError{Target: target, Output: output, Err: err}
}

// HookError represents a failed post-build hook invocation
type HookError struct {
	Command string
	Target  Target
	Err     error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("post-build hook %q failed for %s: %v", e.Command, e.Target, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}

// NewHookError creates a new HookError
func NewHookError(command string, target Target, err error) *HookError {
	return &HookError{Command: command, Target: target, Err: err}
}

// PublishError represents a failed artifact upload
type PublishError struct {
	Key string
	Err error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish failed for %s: %v", e.Key, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// NewPublishError creates a new PublishError
func NewPublishError(key string, err error) *PublishError {
	return &PublishError{Key: key, Err: err}
}

// RetryableError indicates an error that can be retried
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error: %v", e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var retryable *RetryableError
	return errors.As(err, &retryable)
}
