package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/paulmach/orb"

	"github.com/Ko-stant/estate-visibility-engine/internal/project"
	"github.com/Ko-stant/estate-visibility-engine/internal/stabilizer"
)

// Config is the server configuration read from the environment.
type Config struct {
	Port          string
	ProjectSource string
	WatchSource   bool
	Preset        string
	BandsFile     string
	StatusFilter  string
	DefaultCenter orb.Point
	Stabilizer    stabilizer.Config
	Debug         DebugConfig
}

type DebugConfig struct {
	Enabled        bool
	AllowZoomForce bool
	LogActions     bool
}

// LoadEnvFiles loads .env files when present. Existing variables win.
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
}

// Load reads the configuration. Malformed numeric values fall back to their
// defaults; a malformed DEFAULT_CENTER is an error.
func Load() (*Config, error) {
	def := stabilizer.DefaultConfig()
	cfg := &Config{
		Port:          getEnv("APP_PORT", "8080"),
		ProjectSource: getEnv("PROJECT_SOURCE", "data"),
		WatchSource:   getEnvBool("PROJECT_WATCH", false),
		Preset:        getEnv("VISIBILITY_PRESET", "newhouse"),
		BandsFile:     os.Getenv("VISIBILITY_BANDS_FILE"),
		StatusFilter:  getEnv("STATUS_FILTER", project.StatusOnSale),
		DefaultCenter: project.DefaultCenter,
		Stabilizer: stabilizer.Config{
			SettleDelay:   getEnvMillis("SETTLE_DELAY_MS", def.SettleDelay),
			BurstFrames:   getEnvAsInt("BURST_FRAMES", def.BurstFrames),
			FrameInterval: getEnvMillis("FRAME_INTERVAL_MS", def.FrameInterval),
		},
		Debug: DebugConfig{
			Enabled:        getEnvBool("DEBUG_MODE", false),
			AllowZoomForce: getEnvBool("DEBUG_ALLOW_ZOOM_FORCE", true),
			LogActions:     getEnvBool("DEBUG_LOG_ACTIONS", true),
		},
	}

	if v := os.Getenv("DEFAULT_CENTER"); v != "" {
		c, err := ParseCenter(v)
		if err != nil {
			return nil, err
		}
		cfg.DefaultCenter = c
	}
	return cfg, nil
}

// ParseCenter parses "lng,lat".
func ParseCenter(s string) (orb.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return orb.Point{}, fmt.Errorf("DEFAULT_CENTER %q: want lng,lat", s)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("DEFAULT_CENTER lng: %w", err)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("DEFAULT_CENTER lat: %w", err)
	}
	if lng < -180 || lng > 180 || lat < -90 || lat > 90 {
		return orb.Point{}, fmt.Errorf("DEFAULT_CENTER %q out of range", s)
	}
	return orb.Point{lng, lat}, nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil && intVal > 0 {
			return intVal
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	result, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return result
}

// getEnvMillis reads fractional milliseconds, e.g. 16.67.
func getEnvMillis(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.ParseFloat(value, 64); err == nil && ms >= 0 {
			return time.Duration(math.Round(ms * float64(time.Millisecond)))
		}
	}
	return defaultVal
}
