package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/valyala/fasthttp"

	"github.com/zodac/folding-stats/internal/config"
)

var ErrFeedNotConfigured = errors.New("hardware feed url not configured")

// HardwareFeedClient reads the hardware PPD ranking exported as JSON.
type HardwareFeedClient struct {
	url    string
	client *fasthttp.Client
}

func NewHardwareFeedClient(cfg *config.Config) *HardwareFeedClient {
	return &HardwareFeedClient{
		url:    cfg.HardwareFeedURL,
		client: newHTTPClient(),
	}
}

type HardwareRecord struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Make        string `json:"make"`
	Type        string `json:"type"`
	Rank        int    `json:"rank"`
	AveragePPD  int64  `json:"averagePpd"`
}

type hardwareFeedResponse struct {
	Hardware []HardwareRecord `json:"hardware"`
}

func (c *HardwareFeedClient) GetHardware(ctx context.Context) ([]HardwareRecord, error) {
	if c.url == "" {
		return nil, ErrFeedNotConfigured
	}
	resp, err := doRequest[hardwareFeedResponse](ctx, c.client, c.url)
	if err != nil {
		return nil, fmt.Errorf("hardware feed: %w", err)
	}
	return resp.Hardware, nil
}
