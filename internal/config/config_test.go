package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "UPLOAD_DIR", "LOG_FILE", "PROFILE_NAME", "WAIT_SECONDS", "ALLOWED_ORIGINS", "HEADLESS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.UploadDir != "uploads" {
		t.Errorf("Expected default upload dir 'uploads', got '%s'", cfg.UploadDir)
	}
	if cfg.Wait != 15*time.Second {
		t.Errorf("Expected wait 15s, got %v", cfg.Wait)
	}
	if cfg.ProfileName != "Profile 2" {
		t.Errorf("Expected empty profile name reset to 'Profile 2', got '%s'", cfg.ProfileName)
	}
	if cfg.Headless {
		t.Error("Expected headless to default to false")
	}
	if cfg.Tick != 5*time.Second {
		t.Errorf("Expected tick 5s, got %v", cfg.Tick)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("UPLOAD_DIR", "/data/out")
	t.Setenv("WAIT_SECONDS", "20")
	t.Setenv("FIRST_WAIT_SECONDS", "40")
	t.Setenv("HEADLESS", "true")
	t.Setenv("API_REQUESTS_PER_SECOND", "2.5")
	t.Setenv("ALLOWED_ORIGINS", "https://www.youtube.com, http://localhost:5000 ,")

	cfg := Load()

	if cfg.Port != ":8081" {
		t.Errorf("Expected port ':8081', got '%s'", cfg.Port)
	}
	if cfg.UploadDir != "/data/out" {
		t.Errorf("Expected upload dir '/data/out', got '%s'", cfg.UploadDir)
	}
	if cfg.Wait != 20*time.Second || cfg.FirstWait != 40*time.Second {
		t.Errorf("Unexpected waits: %v / %v", cfg.Wait, cfg.FirstWait)
	}
	if !cfg.Headless {
		t.Error("Expected headless to be enabled")
	}
	if cfg.APIRequestsPerS != 2.5 {
		t.Errorf("Expected 2.5 requests per second, got %v", cfg.APIRequestsPerS)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://localhost:5000" {
		t.Errorf("Unexpected origins: %v", cfg.AllowedOrigins)
	}
}

func TestValidateResetsBadValues(t *testing.T) {
	t.Setenv("TICK_SECONDS", "0")
	t.Setenv("SETTLE_SECONDS", "-3")
	t.Setenv("API_REQUESTS_PER_SECOND", "-1")

	cfg := Load()

	if cfg.Tick != 5*time.Second {
		t.Errorf("Expected tick reset to 5s, got %v", cfg.Tick)
	}
	if cfg.SettleTime != 0 {
		t.Errorf("Expected negative settle time clamped to 0, got %v", cfg.SettleTime)
	}
	if cfg.APIRequestsPerS != 0 {
		t.Errorf("Expected negative rate disabled, got %v", cfg.APIRequestsPerS)
	}
}
