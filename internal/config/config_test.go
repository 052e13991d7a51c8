package config

import "testing"

func TestValidate(t *testing.T) {
	secret := "0123456789abcdef0123456789abcdef"

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{JWTSecret: secret, LogLevel: "info"}, false},
		{"missing secret", Config{LogLevel: "info"}, true},
		{"short secret", Config{JWTSecret: "short", LogLevel: "info"}, true},
		{"bad level", Config{JWTSecret: secret, LogLevel: "loud"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetEnvDefault(t *testing.T) {
	t.Setenv("CATERING_TEST_KEY", "")
	if got := getEnv("CATERING_TEST_KEY", "fallback"); got != "fallback" {
		t.Errorf("getEnv = %q, want fallback", got)
	}
	t.Setenv("CATERING_TEST_KEY", "set")
	if got := getEnv("CATERING_TEST_KEY", "fallback"); got != "set" {
		t.Errorf("getEnv = %q, want set", got)
	}
}
