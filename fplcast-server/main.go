// Command fplcast-server exposes the forecast, form, rotation, and
// availability views over MCP (streamable HTTP) with API-key auth.
package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"fplcast/internal/config"
	"fplcast/internal/loader"
	"fplcast/internal/logging"
	"fplcast/internal/pipeline"
	"fplcast/internal/rotation"
	"fplcast/internal/store"
)

func main() {
	var (
		configPath  = flag.String("config", "", "optional config file path")
		addr        = flag.String("addr", "", "HTTP listen address (overrides config)")
		requireAuth = flag.Bool("require-auth", true, "require API key auth via FPLCAST_SERVER_API_KEY")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Loading configuration")
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if !*requireAuth {
		cfg.Server.RequireAuth = false
	}

	log := logging.Init(cfg.LogLevel, cfg.Development).WithField("component", "server")

	a, err := buildApp(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Building application state")
	}

	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "fplcast",
			Version: "0.1.0",
		},
		nil,
	)

	registry := make([]toolInfo, 0, 8)

	addTool(server, &registry, &mcp.Tool{
		Name:        "predict_players",
		Description: "Ranked player point forecasts for the target gameweeks",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args PredictPlayersArgs) (*mcp.CallToolResult, any, error) {
		out, err := a.buildPlayerForecast(args)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(out)
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "predict_clean_sheets",
		Description: "Ranked team clean-sheet forecasts for the target gameweeks",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args PredictCleanSheetsArgs) (*mcp.CallToolResult, any, error) {
		out, err := a.buildCleanSheetForecast(args)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(out)
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "team_form",
		Description: "Season and recent-form aggregates for one team",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args TeamFormArgs) (*mcp.CallToolResult, any, error) {
		out, err := a.buildTeamForm(args)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(out)
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "player_squad_role",
		Description: "Starts/bench/unavailable counts from match logs for one player",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args PlayerRotationArgs) (*mcp.CallToolResult, any, error) {
		out, err := a.buildSquadRole(args)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(out)
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "rival_start_hint",
		Description: "Substitution rivals a player keeps swapping with, most frequent first",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args PlayerRotationArgs) (*mcp.CallToolResult, any, error) {
		out, err := a.buildStartHint(args)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(out)
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "player_flags",
		Description: "Availability red flags (injury/suspension/reduced chance) for one player",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args PlayerFlagsArgs) (*mcp.CallToolResult, any, error) {
		out, err := a.buildPlayerFlags(args)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(out)
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "fixtures",
		Description: "Upcoming fixtures with difficulty ratings",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args FixturesArgs) (*mcp.CallToolResult, any, error) {
		out, err := a.buildFixtures(args)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(out)
	})

	handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})

	apiKey := strings.TrimSpace(cfg.Server.APIKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("FPLCAST_SERVER_API_KEY"))
	}
	if cfg.Server.RequireAuth && apiKey == "" {
		log.Fatal("FPLCAST_SERVER_API_KEY is required (or run with --require-auth=false)")
	}

	withAuth := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next(w, r)
				return
			}
			key := strings.TrimSpace(r.Header.Get(cfg.Server.AuthHeader))
			if key == "" {
				if authz := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
					key = strings.TrimSpace(authz[7:])
				}
			}
			if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}
			next(w, r)
		}
	}

	http.HandleFunc("/health", withAuth(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}))

	http.HandleFunc("/tools", withAuth(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		b, _ := json.MarshalIndent(map[string]any{"tools": registry}, "", "  ")
		w.Write(b)
	}))

	http.HandleFunc(cfg.Server.MCPPath, withAuth(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))

	log.WithFields(logrus.Fields{"addr": cfg.Server.Addr, "path": cfg.Server.MCPPath}).Info("MCP HTTP server listening")
	if err := http.ListenAndServe(cfg.Server.Addr, nil); err != nil {
		log.WithError(err).Fatal("HTTP server stopped")
	}
}

func buildApp(cfg *config.Config, log *logrus.Entry) (*app, error) {
	st := store.NewSnapshotStore(cfg.SnapshotRoot())
	dataCtx, err := loader.Load(st)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:  cfg,
		data: dataCtx,
		pipe: pipeline.New(dataCtx),
	}

	matches, err := loader.LoadSavedMatchDetails(cfg.LineupsRoot())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn("No match logs on disk, rotation views disabled")
			return a, nil
		}
		return nil, err
	}

	mapper, err := rotation.NewGameweekMapper(dataCtx.Gameweeks())
	if err != nil {
		return nil, err
	}
	overrides := cfg.Overrides
	if len(overrides) == 0 {
		overrides = nil // fall back to the built-in table
	}
	adapter, err := rotation.NewAdapter(dataCtx, matches, cfg.Rotation, mapper, overrides)
	if err != nil {
		return nil, err
	}
	a.adapter = adapter
	return a, nil
}
