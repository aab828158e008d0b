package goMFA

import (
	"testing"
	"time"
)

func validTestConfig() Config {
	cfg := DefaultConfig()
	cfg.RelyingParty.Domain = "example.com"
	cfg.RelyingParty.Title = "Example"
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "defaults with domain valid",
			mutate:    func(*Config) {},
			wantValid: true,
		},
		{
			name: "missing domain invalid",
			mutate: func(c *Config) {
				c.RelyingParty.Domain = "   "
			},
			wantValid: false,
		},
		{
			name: "domain must not be a url",
			mutate: func(c *Config) {
				c.RelyingParty.Domain = "https://example.com"
			},
			wantValid: false,
		},
		{
			// An empty title would make every TOTP enrollment fail inside the
			// otp library, so it must be caught here.
			name: "missing title invalid",
			mutate: func(c *Config) {
				c.RelyingParty.Title = "  "
			},
			wantValid: false,
		},
		{
			name: "user verification enum valid",
			mutate: func(c *Config) {
				c.RelyingParty.UserVerification = "required"
			},
			wantValid: true,
		},
		{
			name: "user verification enum invalid",
			mutate: func(c *Config) {
				c.RelyingParty.UserVerification = "sometimes"
			},
			wantValid: false,
		},
		{
			name: "no methods invalid",
			mutate: func(c *Config) {
				c.Methods = nil
			},
			wantValid: false,
		},
		{
			name: "duplicate method invalid",
			mutate: func(c *Config) {
				c.Methods = []string{MethodTOTP, MethodTOTP}
			},
			wantValid: false,
		},
		{
			name: "empty method name invalid",
			mutate: func(c *Config) {
				c.Methods = []string{""}
			},
			wantValid: false,
		},
		{
			name: "totp digits lower bound",
			mutate: func(c *Config) {
				c.TOTP.Digits = 5
			},
			wantValid: false,
		},
		{
			name: "totp digits upper bound",
			mutate: func(c *Config) {
				c.TOTP.Digits = 8
			},
			wantValid: true,
		},
		{
			name: "totp period positive",
			mutate: func(c *Config) {
				c.TOTP.Period = 0
			},
			wantValid: false,
		},
		{
			name: "totp secret size minimum",
			mutate: func(c *Config) {
				c.TOTP.SecretSize = 8
			},
			wantValid: false,
		},
		{
			name: "totp window not negative",
			mutate: func(c *Config) {
				c.TOTP.Window = -1
			},
			wantValid: false,
		},
		{
			name: "recovery digits range",
			mutate: func(c *Config) {
				c.Recovery.Digits = 4
			},
			wantValid: false,
		},
		{
			name: "key limit not negative",
			mutate: func(c *Config) {
				c.Keys.MaxPerAccount = -1
			},
			wantValid: false,
		},
		{
			name: "challenge ttl positive",
			mutate: func(c *Config) {
				c.Challenge.TTL = 0
			},
			wantValid: false,
		},
		{
			name: "session prefix required",
			mutate: func(c *Config) {
				c.Challenge.SessionPrefix = ""
			},
			wantValid: false,
		},
		{
			name: "routes required",
			mutate: func(c *Config) {
				c.Routes.AuthURLPrefix = ""
			},
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tt.wantValid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestDefaultConfigShape(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Challenge.TTL != 10*time.Minute {
		t.Fatalf("unexpected challenge TTL %v", cfg.Challenge.TTL)
	}
	if len(cfg.Methods) != 3 || cfg.Methods[0] != MethodFIDO2 {
		t.Fatalf("unexpected method order %v", cfg.Methods)
	}
	// The default is incomplete on purpose: a relying party domain is the
	// host's decision.
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected the bare default config to fail validation")
	}
}

func TestCloneConfigDetachesMethods(t *testing.T) {
	cfg := validTestConfig()
	clone := cloneConfig(cfg)

	clone.Methods[0] = "changed"
	if cfg.Methods[0] == "changed" {
		t.Fatal("clone must not share the methods slice")
	}
}
