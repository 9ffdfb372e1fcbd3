package main

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Auth.JWTSecret = strings.Repeat("s", 32)
	return cfg
}

func TestConfigValidate_Defaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate config: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("default address = %q, want :8080", cfg.Server.Address)
	}
	if cfg.Auth.AccessTokenTTL != "12h" {
		t.Errorf("default access token ttl = %q, want 12h", cfg.Auth.AccessTokenTTL)
	}
}

func TestConfigValidate_RequiresJWTSecret(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error without jwt secret")
	}

	cfg.Auth.JWTSecret = "too-short"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for short jwt secret")
	}
}

func TestConfigValidate_RejectsInvalidDurations(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.LockoutDuration = "not-a-duration"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for invalid auth.lockout_duration")
	}
}

func TestConfigValidate_AnalyticsNeedsCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Analytics.PropertyID = "123456"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for property without credentials")
	}

	cfg.Analytics.CredentialsFile = "/etc/pulseboard/ga.json"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate config: %v", err)
	}
}

func TestLoadConfig_GoogleCredentialEnvFallback(t *testing.T) {
	t.Setenv("PULSEBOARD_AUTH_JWT_SECRET", strings.Repeat("s", 32))
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/etc/pulseboard/sa.json")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS_JSON", `{"type":"service_account"}`)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Analytics.CredentialsFile != "/etc/pulseboard/sa.json" {
		t.Errorf("credentials file = %q, want value from GOOGLE_APPLICATION_CREDENTIALS", cfg.Analytics.CredentialsFile)
	}
	if cfg.Analytics.CredentialsJSON != `{"type":"service_account"}` {
		t.Errorf("credentials json = %q, want value from GOOGLE_APPLICATION_CREDENTIALS_JSON", cfg.Analytics.CredentialsJSON)
	}
}

func TestLoadConfig_ExplicitCredentialsBeatGoogleEnv(t *testing.T) {
	t.Setenv("PULSEBOARD_AUTH_JWT_SECRET", strings.Repeat("s", 32))
	t.Setenv("PULSEBOARD_ANALYTICS_CREDENTIALS_FILE", "/etc/pulseboard/explicit.json")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/etc/pulseboard/ambient.json")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Analytics.CredentialsFile != "/etc/pulseboard/explicit.json" {
		t.Errorf("credentials file = %q, want the explicit override", cfg.Analytics.CredentialsFile)
	}
}
