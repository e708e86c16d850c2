package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"empty is default endpoint", "", false},
		{"https accepted", "https://api.example.com/v1", false},
		{"http accepted", "http://localhost:8080", false},
		{"missing scheme rejected", "api.example.com", true},
		{"unsupported scheme rejected", "ftp://example.com", true},
		{"scheme without host rejected", "https://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateBaseURL(tt.url)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTimeout(t *testing.T) {
	assert.Equal(t, time.Duration(0), ValidateTimeout(0))
	assert.Equal(t, time.Duration(0), ValidateTimeout(-time.Second))
	assert.Equal(t, MinTimeout, ValidateTimeout(time.Millisecond))
	assert.Equal(t, MaxTimeout, ValidateTimeout(time.Hour))
	assert.Equal(t, 30*time.Second, ValidateTimeout(30*time.Second))
}

func TestClampFloat64(t *testing.T) {
	assert.Equal(t, 0.0, ClampFloat64(-0.5, 0, 1))
	assert.Equal(t, 1.0, ClampFloat64(1.5, 0, 1))
	assert.Equal(t, 0.5, ClampFloat64(0.5, 0, 1))
}
