package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/grantsuite/accessgate/internal/config"
)

func completeAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		Enforce:       true,
		IdP:           config.IdPConfig{Issuer: "https://idp.example.com", ClientID: "accessgate", ClientSecret: "secret"},
		SessionSecret: "session-secret",
	}
}

func TestKillSwitch_IsAuthRequired(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.AuthConfig)
		want   bool
	}{
		{name: "flag and credentials", mutate: func(*config.AuthConfig) {}, want: true},
		{name: "flag off", mutate: func(a *config.AuthConfig) { a.Enforce = false }, want: false},
		{name: "missing issuer", mutate: func(a *config.AuthConfig) { a.IdP.Issuer = "" }, want: false},
		{name: "missing client id", mutate: func(a *config.AuthConfig) { a.IdP.ClientID = "" }, want: false},
		{name: "missing client secret", mutate: func(a *config.AuthConfig) { a.IdP.ClientSecret = "" }, want: false},
		{name: "missing session secret", mutate: func(a *config.AuthConfig) { a.SessionSecret = "" }, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Environment: config.EnvironmentTest, Auth: completeAuthConfig()}
			tt.mutate(&cfg.Auth)

			ks := NewKillSwitch(cfg, nil)
			assert.Equal(t, tt.want, ks.IsAuthRequired())
		})
	}
}

func TestKillSwitch_ReadsLiveConfig(t *testing.T) {
	cfg := &config.Config{Environment: config.EnvironmentTest, Auth: completeAuthConfig()}
	ks := NewKillSwitch(cfg, nil)
	assert.True(t, ks.IsAuthRequired())

	cfg.Auth.Enforce = false
	assert.False(t, ks.IsAuthRequired())
}

func TestKillSwitch_WarnsOnceInProduction(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cfg := &config.Config{Environment: config.EnvironmentProduction}

	ks := NewKillSwitch(cfg, zap.New(core))
	assert.False(t, ks.IsAuthRequired())
	assert.False(t, ks.IsAuthRequired())
	assert.False(t, ks.IsAuthRequired())

	assert.Equal(t, 1, logs.FilterMessage("authentication is not enforced in production").Len())
}

func TestKillSwitch_NoWarningOutsideProduction(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cfg := &config.Config{Environment: config.EnvironmentPreview}

	ks := NewKillSwitch(cfg, zap.New(core))
	assert.False(t, ks.IsAuthRequired())
	assert.Zero(t, logs.Len())
}
