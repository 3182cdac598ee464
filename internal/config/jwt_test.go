package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTConfig(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		expiration string
		wantHours  int
		wantErr    string
	}{
		{name: "defaults", secret: "s3cret", wantHours: 24},
		{name: "custom expiration", secret: "s3cret", expiration: "12", wantHours: 12},
		{name: "one week", secret: "s3cret", expiration: "168", wantHours: 168},
		{name: "missing secret", wantErr: "JWT_SECRET is required"},
		{name: "zero expiration", secret: "s3cret", expiration: "0", wantErr: "at least 1 hour"},
		{name: "negative expiration", secret: "s3cret", expiration: "-3", wantErr: "at least 1 hour"},
		{name: "non-numeric expiration", secret: "s3cret", expiration: "soon", wantErr: "invalid JWT_EXPIRATION_HOURS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", tt.secret)
			t.Setenv("JWT_EXPIRATION_HOURS", tt.expiration)

			cfg, err := NewJWTConfig()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Nil(t, cfg)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.secret, cfg.Secret)
			assert.Equal(t, tt.wantHours, cfg.ExpirationHours)
			assert.Equal(t, time.Duration(tt.wantHours)*time.Hour, cfg.Expiration())
		})
	}
}
