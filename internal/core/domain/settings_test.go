package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSettings_CheckCredentials(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		dryRun  bool
		wantErr bool
	}{
		{name: "token", token: "secret"},
		{name: "dry run without token", dryRun: true},
		{name: "dry run with token", token: "secret", dryRun: true},
		{name: "editing without token", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			s.AccessToken = tt.token
			s.DryRun = tt.dryRun

			err := s.CheckCredentials()

			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrNotConfigured))
				assert.ErrorContains(t, err, "auth.access_token")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLedgerBackend_IsValid(t *testing.T) {
	assert.True(t, LedgerJSON.IsValid())
	assert.True(t, LedgerSQLite.IsValid())
	assert.False(t, LedgerBackend("postgres").IsValid())
}
