package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"fplcast/internal/config"
	"fplcast/internal/data"
	"fplcast/internal/pipeline"
	"fplcast/internal/rotation"
)

// app bundles the loaded dataset and the stateful services behind the tools.
// The rotation adapter is nil when no match logs are on disk.
type app struct {
	cfg     *config.Config
	data    *data.Context
	pipe    *pipeline.Pipeline
	adapter *rotation.Adapter
}

type toolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func addTool[T any](server *mcp.Server, registry *[]toolInfo, tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, T) (*mcp.CallToolResult, any, error)) {
	*registry = append(*registry, toolInfo{Name: tool.Name, Description: tool.Description})
	mcp.AddTool(server, tool, handler)
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}

// resolveNextGW returns gw when positive, otherwise the first gameweek with
// an unplayed fixture.
func resolveNextGW(ctx *data.Context, gw int) (int, error) {
	if gw > 0 {
		return gw, nil
	}
	return nextGameweek(ctx)
}

// nextGameweek is the first gameweek holding a fixture that has not finished.
// A fully played calendar points one past the final gameweek.
func nextGameweek(ctx *data.Context) (int, error) {
	gws := ctx.Gameweeks()
	if len(gws) == 0 {
		return 0, fmt.Errorf("no gameweeks loaded")
	}
	for _, gw := range gws {
		for _, f := range ctx.FixturesByGameweek(gw.Number) {
			if !f.Finished {
				return gw.Number, nil
			}
		}
	}
	return gws[len(gws)-1].Number + 1, nil
}

func parsePosition(s string) (*data.Position, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var pos data.Position
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GKP", "GK":
		pos = data.Goalkeeper
	case "DEF":
		pos = data.Defender
	case "MID":
		pos = data.Midfielder
	case "FWD":
		pos = data.Forward
	default:
		return nil, fmt.Errorf("unknown position %q (want GKP/DEF/MID/FWD)", s)
	}
	return &pos, nil
}

// targetGameweeks resolves the explicit target list or a horizon starting at
// next.
func targetGameweeks(next int, targets []int, horizon int) []int {
	if len(targets) > 0 {
		return targets
	}
	if horizon < 1 {
		horizon = 1
	}
	out := make([]int, 0, horizon)
	for gw := next; gw < next+horizon; gw++ {
		out = append(out, gw)
	}
	return out
}

func (a *app) teamName(teamID int) string {
	t, err := a.data.TeamByID(teamID)
	if err != nil {
		return fmt.Sprintf("team %d", teamID)
	}
	return t.Name
}
