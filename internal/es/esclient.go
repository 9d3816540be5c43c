package es

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/elastic/go-elasticsearch/v9"
)

type Options struct {
	URL      string
	Username string
	Password string
}

// NewClient connects and pings the cluster. A nil client with nil error means search is not configured.
func NewClient(ctx context.Context, opts Options, l *slog.Logger) (*elasticsearch.Client, error) {
	if opts.URL == "" {
		l.Info("elasticsearch_disabled", "reason", "ES_URL is empty")
		return nil, nil
	}

	l.Info("elasticsearch_connecting", "url", opts.URL, "user", opts.Username)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{opts.URL},
		Username:  opts.Username,
		Password:  opts.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch error response %s: %s", res.Status(), body)
	}

	l.Info("elasticsearch_connected", "url", opts.URL)
	return client, nil
}
