package config

import (
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Config holds all settings in correct types
type Config struct {
	Port             string
	UploadDir        string
	LogFile          string
	ProfileSourceDir string
	ProfileName      string
	ProfileScratch   string
	BrowserPath      string
	Headless         bool
	StartupDelay     time.Duration
	SettleTime       time.Duration
	FirstWait        time.Duration
	Wait             time.Duration
	Tick             time.Duration
	APIRequestsPerS  float64
	AllowedOrigins   []string
	APIKey           string
}

// Load reads the environment; call godotenv.Load first if a .env file should apply.
func Load() *Config {
	cfg := &Config{
		Port:             getEnv("PORT", ":5000"),
		UploadDir:        getEnv("UPLOAD_DIR", "uploads"),
		LogFile:          getEnv("LOG_FILE", "download_logs.json"),
		ProfileSourceDir: getEnv("PROFILE_SOURCE_DIR", defaultProfileSourceDir()),
		ProfileName:      getEnv("PROFILE_NAME", "Profile 2"),
		ProfileScratch:   getEnv("PROFILE_SCRATCH_DIR", "TempChromeProfile"),
		BrowserPath:      getEnv("BROWSER_PATH", ""),
		Headless:         getEnvAsBool("HEADLESS", false),
		StartupDelay:     getEnvAsSeconds("STARTUP_DELAY_SECONDS", 3),
		SettleTime:       getEnvAsSeconds("SETTLE_SECONDS", 5),
		FirstWait:        getEnvAsSeconds("FIRST_WAIT_SECONDS", 25),
		Wait:             getEnvAsSeconds("WAIT_SECONDS", 15),
		Tick:             getEnvAsSeconds("TICK_SECONDS", 5),
		APIRequestsPerS:  getEnvAsFloat("API_REQUESTS_PER_SECOND", 5),
		AllowedOrigins:   splitList(getEnv("ALLOWED_ORIGINS", "*")),
		APIKey:           getEnv("YOUTUBE_API_KEY", ""),
	}

	validate(cfg)

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	str := getEnv(key, "")
	if val, err := strconv.Atoi(str); err == nil {
		return val
	}
	return fallback
}

func getEnvAsSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback)) * time.Second
}

func getEnvAsFloat(key string, fallback float64) float64 {
	str := getEnv(key, "")
	if val, err := strconv.ParseFloat(str, 64); err == nil {
		return val
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	str := getEnv(key, "")
	if val, err := strconv.ParseBool(str); err == nil {
		return val
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// defaultProfileSourceDir is where Chrome keeps its user data on this OS.
func defaultProfileSourceDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	switch runtime.GOOS {
	case "windows":
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, "Google", "Chrome", "User Data")
		}
		return filepath.Join(home, "AppData", "Local", "Google", "Chrome", "User Data")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Google", "Chrome")
	default:
		return filepath.Join(home, ".config", "google-chrome")
	}
}

// validate resets values that would break a run
func validate(cfg *Config) {
	if cfg.Tick <= 0 {
		log.Println("Warning: TICK_SECONDS must be at least 1. Resetting to 5.")
		cfg.Tick = 5 * time.Second
	}
	for _, d := range []*time.Duration{&cfg.StartupDelay, &cfg.SettleTime, &cfg.FirstWait, &cfg.Wait} {
		if *d < 0 {
			*d = 0
		}
	}
	if cfg.APIRequestsPerS < 0 {
		log.Println("Warning: API_REQUESTS_PER_SECOND cannot be negative. Disabling the limit.")
		cfg.APIRequestsPerS = 0
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}
	if cfg.ProfileName == "" {
		cfg.ProfileName = "Profile 2"
	}
	if cfg.Port != "" && !strings.Contains(cfg.Port, ":") {
		cfg.Port = ":" + cfg.Port
	}
}
