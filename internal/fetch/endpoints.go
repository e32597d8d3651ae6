package fetch

import (
	"context"
	"fmt"
)

// /bootstrap-static/
func (c *Client) BootstrapStatic(ctx context.Context, force bool) ([]byte, error) {
	return c.FetchRaw(ctx, "/bootstrap-static/", "bootstrap", force)
}

// /fixtures/
func (c *Client) Fixtures(ctx context.Context, force bool) ([]byte, error) {
	return c.FetchRaw(ctx, "/fixtures/", "fixtures", force)
}

// /element-summary/{player_id}/
func (c *Client) ElementSummary(ctx context.Context, playerID int, force bool) ([]byte, error) {
	return c.FetchRaw(
		ctx,
		fmt.Sprintf("/element-summary/%d/", playerID),
		ElementSummaryPath(playerID),
		force,
	)
}

// ElementSummaryPath is the store-relative resource path for one player's
// element summary.
func ElementSummaryPath(playerID int) string {
	return fmt.Sprintf("elements/%d", playerID)
}
