package apperrors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/anonto42/foodgram/backend/internal/apperrors"
	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := apperrors.NotFound("recipe not found")

	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.False(t, errors.Is(err, apperrors.ErrAlreadyExists))

	wrapped := fmt.Errorf("loading recipe: %w", err)
	assert.True(t, errors.Is(wrapped, apperrors.ErrNotFound))
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(wrapped))
}

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code apperrors.Code
		want int
	}{
		{apperrors.CodeNotFound, http.StatusNotFound},
		{apperrors.CodeAlreadyExists, http.StatusBadRequest},
		{apperrors.CodeConflict, http.StatusBadRequest},
		{apperrors.CodeValidation, http.StatusBadRequest},
		{apperrors.CodeEmpty, http.StatusBadRequest},
		{apperrors.CodeUnauthorized, http.StatusUnauthorized},
		{apperrors.CodeForbidden, http.StatusForbidden},
		{apperrors.CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestError_WithCauseKeepsCode(t *testing.T) {
	cause := errors.New("disk full")
	err := apperrors.Internal("saving image", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "saving image: disk full", err.Error())
	assert.Equal(t, apperrors.CodeInternal, apperrors.CodeOf(err))
	assert.Equal(t, apperrors.CodeInternal, apperrors.CodeOf(errors.New("plain")))
}

func TestValidationWithDetails(t *testing.T) {
	err := apperrors.ValidationWithDetails("validation failed", map[string]string{"cooking_time": "must be at most 300"})

	assert.True(t, errors.Is(err, apperrors.ErrValidation))
	assert.Equal(t, map[string]string{"cooking_time": "must be at most 300"}, err.Details)
}
