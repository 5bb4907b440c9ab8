// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package client

import (
	"net/http"
	"time"

	"github.com/navimedi/reporter/pkg/constant"

	"go.opentelemetry.io/otel/metric"
)

// Config wires a Client. Only BaseURL is required.
// The env tagged fields are bound by pkg.SetConfigFromEnvVars, also when Config is embedded.
type Config struct {
	BaseURL      string        `env:"REPORTER_API_URL"`
	Timeout      time.Duration `env:"REPORTER_CLIENT_TIMEOUT"`
	PollInterval time.Duration `env:"REPORTER_POLL_INTERVAL"`
	StaleTime    time.Duration `env:"REPORTER_LIST_STALE_TIME"`
	DownloadDir  string        `env:"REPORTER_DOWNLOAD_DIR"`

	// ListScope namespaces the cached report list, e.g. per user.
	ListScope string

	HTTPClient *http.Client
	Sessions   SessionProvider
	Cache      Cache[[]GeneratedReport]
	Notifier   Notifier
	Saver      BlobSaver
	Observer   PhaseObserver
	Meter      metric.Meter
}

// Client groups the report workflow components over one API and one report list cache.
type Client struct {
	API        *API
	Submitter  *Submitter
	Registry   *Registry
	Downloader *Downloader
	Poller     *Poller
}

// New builds a Client, filling unset dependencies with defaults: a client timeout of
// constant.DefaultClientTimeout, an in-memory cache, no notifications and a DiskSaver on DownloadDir.
func New(cfg Config) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = constant.DefaultClientTimeout
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = constant.DefaultPollInterval
	}

	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	if cfg.Sessions == nil {
		cfg.Sessions = StaticSession{}
	}

	if cfg.Cache == nil {
		cfg.Cache = NewMemoryCache[[]GeneratedReport](cfg.StaleTime)
	}

	if cfg.Notifier == nil {
		cfg.Notifier = NopNotifier{}
	}

	if cfg.Saver == nil {
		cfg.Saver = &DiskSaver{Dir: cfg.DownloadDir}
	}

	api, err := NewAPI(cfg.BaseURL, cfg.HTTPClient, cfg.Sessions)
	if err != nil {
		return nil, err
	}

	metrics := newClientMetrics(cfg.Meter)
	listKey := ListCacheKey(cfg.ListScope)

	return &Client{
		API: api,
		Submitter: &Submitter{
			api:      api,
			cache:    cfg.Cache,
			listKey:  listKey,
			notifier: cfg.Notifier,
			metrics:  metrics,
		},
		Registry: &Registry{
			api:     api,
			cache:   cfg.Cache,
			listKey: listKey,
		},
		Downloader: &Downloader{
			api:      api,
			sessions: cfg.Sessions,
			saver:    cfg.Saver,
			notifier: cfg.Notifier,
			metrics:  metrics,
			observer: cfg.Observer,
		},
		Poller: &Poller{
			api:      api,
			cache:    cfg.Cache,
			listKey:  listKey,
			interval: cfg.PollInterval,
		},
	}, nil
}
