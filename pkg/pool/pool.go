package pool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rplantdash/pkg/config"
	"rplantdash/pkg/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	walletEndpoint   = "wallet"
	walletExEndpoint = "walletEx"
)

var errNullPayload = errors.New("empty payload")

// Client talks to the pool's public wallet API.
type Client struct {
	baseURL string
	coin    string
	wallet  string
	http    *http.Client
	logger  *logrus.Logger
}

// NewClient builds a client for one coin/wallet pair. A zero request timeout
// leaves the transport default in place.
func NewClient(cfg config.PoolConfig, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		coin:    cfg.Coin,
		wallet:  cfg.Wallet,
		http:    &http.Client{Timeout: cfg.RequestTimeout()},
		logger:  logger,
	}
}

func (c *Client) endpointURL(endpoint string) string {
	return fmt.Sprintf("%s/api/%s/%s/%s", c.baseURL, endpoint, url.PathEscape(c.coin), url.PathEscape(c.wallet))
}

// WalletURL is the wallet summary endpoint.
func (c *Client) WalletURL() string { return c.endpointURL(walletEndpoint) }

// WalletExURL is the extended wallet endpoint.
func (c *Client) WalletExURL() string { return c.endpointURL(walletExEndpoint) }

// FetchAllStats requests both endpoints concurrently. It returns both
// payloads or an error, never one payload alone.
func (c *Client) FetchAllStats(ctx context.Context) (models.PoolStats, error) {
	start := time.Now()
	var basic models.BasicStats
	var extended *models.ExtendedStats

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := c.getJSON(gctx, walletEndpoint, &basic); err != nil {
			return err
		}
		if basic == nil {
			return &FetchError{Kind: ApplicationFailure, Endpoint: walletEndpoint, Err: errNullPayload}
		}
		if basic.HasError() {
			return &FetchError{Kind: ApplicationFailure, Endpoint: walletEndpoint, Err: fmt.Errorf("%v", basic["error"])}
		}
		return nil
	})
	g.Go(func() error {
		if err := c.getJSON(gctx, walletExEndpoint, &extended); err != nil {
			return err
		}
		if extended == nil {
			return &FetchError{Kind: ApplicationFailure, Endpoint: walletExEndpoint, Err: errNullPayload}
		}
		if extended.HasError() {
			return &FetchError{Kind: ApplicationFailure, Endpoint: walletExEndpoint, Err: fmt.Errorf("%v", extended.Error)}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.PoolStats{}, err
	}

	c.logger.WithFields(logrus.Fields{
		"coin":     c.coin,
		"miners":   len(extended.Miners),
		"payments": len(extended.Payments),
		"duration": time.Since(start).Round(time.Millisecond),
	}).Debug("Fetched wallet stats")

	return models.PoolStats{Basic: basic, Extended: extended}, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpointURL(endpoint), nil)
	if err != nil {
		return &FetchError{Kind: TransportFailure, Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &FetchError{Kind: TransportFailure, Endpoint: endpoint, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &FetchError{Kind: TransportFailure, Endpoint: endpoint, Err: fmt.Errorf("body read error: %w", err)}
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return &FetchError{Kind: ProtocolFailure, Endpoint: endpoint, Err: fmt.Errorf("%w (HTTP %d)", err, resp.StatusCode)}
	}
	return nil
}
