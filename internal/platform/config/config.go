package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	strutil "fakegateway/pkg/platform/strings"
)

// Server captures process-level configuration.
type Server struct {
	Addr        string
	Environment string
	LogLevel    slog.Level

	// Initial card validation switches. The control surface can flip them at
	// runtime; a reset restores these values.
	DeclineAllCards  bool
	VerifyAllCards   bool
	ValidCreditCards []string

	FailureMessage       string
	FailureProcessorCode string

	// AdminAPIToken guards /_fake when set.
	AdminAPIToken string
	SeedDemoData  bool

	MaxBodyBytes    int64
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

const (
	defaultAddr            = ":3000"
	defaultEnvironment     = "development"
	defaultMaxBodyBytes    = 1 << 20
	defaultRequestTimeout  = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// FromEnv builds a Server config from environment variables so main stays lean.
// Unparseable values fall back to the defaults.
func FromEnv() Server {
	return Server{
		Addr:                 stringEnv("FAKE_GATEWAY_ADDR", defaultAddr),
		Environment:          stringEnv("ENVIRONMENT", defaultEnvironment),
		LogLevel:             levelEnv("LOG_LEVEL", slog.LevelInfo),
		DeclineAllCards:      os.Getenv("DECLINE_ALL_CARDS") == "true",
		VerifyAllCards:       os.Getenv("VERIFY_ALL_CARDS") == "true",
		ValidCreditCards:     listEnv("VALID_CREDIT_CARDS"),
		FailureMessage:       os.Getenv("FAILURE_MESSAGE"),
		FailureProcessorCode: os.Getenv("FAILURE_PROCESSOR_CODE"),
		AdminAPIToken:        os.Getenv("ADMIN_API_TOKEN"),
		SeedDemoData:         os.Getenv("SEED_DEMO_DATA") == "true",
		MaxBodyBytes:         int64Env("MAX_BODY_BYTES", defaultMaxBodyBytes),
		RequestTimeout:       durationEnv("REQUEST_TIMEOUT", defaultRequestTimeout),
		ShutdownTimeout:      durationEnv("SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func levelEnv(key string, fallback slog.Level) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv(key))); err != nil {
		return fallback
	}
	return level
}

func int64Env(key string, fallback int64) int64 {
	n, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func listEnv(key string) []string {
	return strutil.SplitList(os.Getenv(key))
}
