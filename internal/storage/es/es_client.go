package es

import (
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
)

const defaultMaxRetries = 3

type ClientConfig struct {
	Addresses []string
	IndexName string
	// APIKey takes precedence over basic auth when both are set.
	APIKey   string
	Username string
	Password string
}

func (c ClientConfig) toESConfig() elasticsearch.Config {
	cfg := elasticsearch.Config{
		Addresses:     c.Addresses,
		MaxRetries:    defaultMaxRetries,
		RetryOnStatus: []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusTooManyRequests},
	}

	switch {
	case c.APIKey != "":
		cfg.APIKey = c.APIKey
	case c.Username != "" && c.Password != "":
		cfg.Username = c.Username
		cfg.Password = c.Password
	}
	return cfg
}

func newClient(config ClientConfig) (*elasticsearch.TypedClient, error) {
	return elasticsearch.NewTypedClient(config.toESConfig())
}
