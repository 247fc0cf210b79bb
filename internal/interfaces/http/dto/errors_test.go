package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeDuplicateCase, http.StatusConflict},
		{ErrCodeInvalidTransition, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusConflict},
		{ErrCodeExtractionFailed, http.StatusUnprocessableEntity},
		{ErrCodeCertificateFailed, http.StatusBadGateway},
		{ErrCodePayloadTooLarge, http.StatusRequestEntityTooLarge},
		{"SOMETHING_NEW", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}
