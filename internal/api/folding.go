package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/valyala/fasthttp"

	"github.com/zodac/folding-stats/internal/config"
	"github.com/zodac/folding-stats/internal/domain"
)

// FoldingClient reads cumulative user stats from the Folding@Home stats API.
type FoldingClient struct {
	urlRoot string
	client  *fasthttp.Client
}

func NewFoldingClient(cfg *config.Config) *FoldingClient {
	return &FoldingClient{
		urlRoot: cfg.StatsURLRoot,
		client:  newHTTPClient(),
	}
}

type UserStatsResponse struct {
	Name  string `json:"name"`
	ID    int64  `json:"id"`
	Score int64  `json:"score"`
	Wus   int64  `json:"wus"`
	Rank  int64  `json:"rank"`
}

// GetTotalStats returns the raw points and units a user has earned with the
// given passkey since the account was created.
func (c *FoldingClient) GetTotalStats(ctx context.Context, user domain.User) (domain.Stats, error) {
	resp, err := doRequest[UserStatsResponse](ctx, c.client, c.userStatsURL(user))
	if err != nil {
		return domain.Stats{}, fmt.Errorf("stats for %s: %w", user.FoldingUserName, err)
	}
	return domain.Stats{Points: resp.Score, Units: resp.Wus}, nil
}

func (c *FoldingClient) userStatsURL(user domain.User) string {
	query := url.Values{}
	query.Set("passkey", user.Passkey)
	return fmt.Sprintf("%s/user/%s/stats?%s", c.urlRoot, url.PathEscape(user.FoldingUserName), query.Encode())
}
