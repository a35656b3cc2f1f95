package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryAndSeverity(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		category Category
		severity Severity
		retry    bool
	}{
		{"store unavailable", ErrCodeStoreUnavailable, CategoryStore, SeverityError, true},
		{"index timeout", ErrCodeIndexTimeout, CategoryIndex, SeverityError, true},
		{"render failure", ErrCodeRenderFailure, CategoryRender, SeverityError, false},
		{"unknown key", ErrCodeUnknownKey, CategoryValidation, SeverityError, false},
		{"sync in progress", ErrCodeSyncInProgress, CategorySync, SeverityWarning, false},
		{"config invalid", ErrCodeConfigInvalid, CategoryConfig, SeverityFatal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "boom", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
			assert.Equal(t, tt.retry, err.Retryable)
		})
	}
}

func TestViewerError_ErrorIncludesKey(t *testing.T) {
	err := RenderFailure("docs/a.md", fmt.Errorf("bad zip"))
	assert.Contains(t, err.Error(), ErrCodeRenderFailure)
	assert.Contains(t, err.Error(), "docs/a.md")
}

func TestViewerError_UnwrapAndIs(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := StoreUnavailable("store down", cause)

	// Unwrap reaches the cause
	assert.Equal(t, cause, stderrors.Unwrap(err))

	// Is matches by code, not identity
	assert.True(t, stderrors.Is(err, StoreUnavailable("other message", nil)))
	assert.False(t, stderrors.Is(err, IndexUnavailable("", nil)))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeStoreUnavailable, nil))
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", SyncInProgress())
	assert.Equal(t, ErrCodeSyncInProgress, CodeOf(wrapped))
	assert.Equal(t, "", CodeOf(fmt.Errorf("plain")))
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	attempts := 0
	cfg := RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2.0}

	err := Retry(context.Background(), cfg, func() error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_ExhaustsAndReturnsLastError(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2.0}
	attempts := 0

	err := Retry(context.Background(), cfg, func() error {
		attempts++
		return fmt.Errorf("attempt %d", attempts)
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts) // initial + 2 retries
	assert.Equal(t, "attempt 3", err.Error())
}

func TestRetry_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, DefaultRetryConfig(), func() error {
		return fmt.Errorf("never retried")
	})

	assert.ErrorIs(t, err, context.Canceled)
}
