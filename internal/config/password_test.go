package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPasswordConfig(t *testing.T) {
	tests := []struct {
		name       string
		bcryptCost string
		pepper     string
		wantCost   int
		wantErr    bool
	}{
		{name: "default cost", wantCost: 12},
		{name: "minimum cost", bcryptCost: "10", wantCost: 10},
		{name: "maximum cost", bcryptCost: "14", wantCost: 14},
		{name: "with pepper", bcryptCost: "11", pepper: "pep", wantCost: 11},
		{name: "cost too low", bcryptCost: "9", wantErr: true},
		{name: "cost too high", bcryptCost: "15", wantErr: true},
		{name: "non-numeric cost", bcryptCost: "twelve", wantErr: true},
		{name: "float cost", bcryptCost: "12.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BCRYPT_COST", tt.bcryptCost)
			t.Setenv("PASSWORD_PEPPER", tt.pepper)

			cfg, err := NewPasswordConfig()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCost, cfg.BcryptCost)
			assert.Equal(t, tt.pepper, cfg.Pepper)
		})
	}
}

func TestPasswordConfig_HashAndVerify(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: 10}

	hash, err := cfg.HashPassword("Secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", hash)

	hash2, err := cfg.HashPassword("Secret123")
	require.NoError(t, err)
	assert.NotEqual(t, hash, hash2, "bcrypt salts every hash")

	assert.True(t, cfg.VerifyPassword("Secret123", hash))
	assert.False(t, cfg.VerifyPassword("secret123", hash))
}

func TestPasswordConfig_Pepper(t *testing.T) {
	peppered := &PasswordConfig{BcryptCost: 10, Pepper: "pepper"}
	hash, err := peppered.HashPassword("Secret123")
	require.NoError(t, err)

	assert.True(t, peppered.VerifyPassword("Secret123", hash))
	assert.False(t, (&PasswordConfig{BcryptCost: 10}).VerifyPassword("Secret123", hash))
}

func TestPasswordConfig_HashTooLong(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: 10}
	_, err := cfg.HashPassword(strings.Repeat("a", 100))
	assert.Error(t, err)
}

func TestPasswordConfig_CheckStrength(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: 10}

	tests := []struct {
		password string
		errMsg   string
	}{
		{"Secret123", ""},
		{"Ab1", "at least 8 characters"},
		{"secret123", "uppercase"},
		{"SECRET123", "lowercase"},
		{"SecretPass", "digit"},
		{"Aa1" + strings.Repeat("x", 80), "too long"},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := cfg.CheckStrength(tt.password)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrWeakPassword)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
