package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUpstreamFetchError_KeepsCauseOutOfDetails(t *testing.T) {
	cause := errors.New("GET http://10.0.0.7/player_stats_2024.csv: 500 Internal Server Error (stack trace)")
	err := NewUpstreamFetchError("stat provider returned an error", cause)

	assert.Empty(t, err.Details)
	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrUpstreamFetch))
	assert.Contains(t, err.Error(), "stack trace")
	assert.Equal(t, http.StatusBadGateway, StatusFor(err))
}

func TestNewDataUnavailable_WithCause(t *testing.T) {
	cause := errors.New("GET http://10.0.0.7/games.csv: 404 Not Found")
	err := NewDataUnavailable("No data published by the provider for this request", nil).WithCause(cause)

	assert.Empty(t, err.Details)
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "DATA_UNAVAILABLE: No data published by the provider for this request: "+cause.Error(), err.Error())
}

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "VALIDATION_ERROR: bad week", NewValidationError("bad week").Error())
	assert.Equal(t, "VALIDATION_ERROR: bad week - must be 1-18", NewValidationError("bad week", "must be 1-18").Error())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError("bad"), http.StatusBadRequest},
		{"data unavailable", NewDataUnavailable("none", nil), http.StatusNotFound},
		{"not found", NewAppError(ErrCodeNotFound, "missing"), http.StatusNotFound},
		{"upstream", NewUpstreamFetchError("down", nil), http.StatusBadGateway},
		{"wrapped upstream", fmt.Errorf("leaderboard: %w", NewUpstreamFetchError("down", nil)), http.StatusBadGateway},
		{"caller deadline", fmt.Errorf("GET x: %w", context.DeadlineExceeded), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestAsAppError(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", NewValidationError("bad season"))
	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeValidation, appErr.Code)

	_, ok = AsAppError(errors.New("plain"))
	assert.False(t, ok)
}
