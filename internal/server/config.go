package server

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DjordjeVuckovic/news-highlight/pkg/config/env"
	"github.com/DjordjeVuckovic/news-highlight/pkg/utils"
)

const (
	DefaultPort           = "8080"
	DefaultRequestTimeout = 90 * time.Second
	DefaultBodyLimit      = "2M"
)

type Config struct {
	Port        string
	UseHttp2    bool
	CorsOrigins []string
	// RequestTimeout bounds a whole request, including fan-out to providers.
	RequestTimeout time.Duration
	BodyLimit      string
}

func LoadConfig() (*Config, error) {
	err := env.LoadDotEnv(os.Getenv("APP_ENV"), "cmd/highlight_api/.env", ".env")
	if err != nil {
		slog.Info("Skipping .env ...", "error", err)
	}

	useHttp2 := os.Getenv("USE_HTTP2") == "true"

	port := os.Getenv("PORT")
	if port == "" {
		port = DefaultPort
	}

	if err := validatePort(port); err != nil {
		return nil, fmt.Errorf("invalid port: %w", err)
	}

	origins := utils.RemoveBlankStrings(strings.Split(os.Getenv("CORS_ORIGINS"), ","))
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	timeout := DefaultRequestTimeout
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid REQUEST_TIMEOUT %q", v)
		}
		timeout = d
	}

	bodyLimit := os.Getenv("BODY_LIMIT")
	if bodyLimit == "" {
		bodyLimit = DefaultBodyLimit
	}

	return &Config{
		Port:           port,
		UseHttp2:       useHttp2,
		CorsOrigins:    origins,
		RequestTimeout: timeout,
		BodyLimit:      bodyLimit,
	}, nil
}

func validatePort(port string) error {
	portNum, err := strconv.Atoi(port)

	if err != nil {
		return errors.New("port must be a number")
	}

	if portNum < 1 || portNum > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	return nil
}
