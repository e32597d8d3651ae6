// Command fetch snapshots the fantasy API: bootstrap, fixtures, and every
// player's element summary. Fresh snapshots are reused unless --force is set.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"time"

	"github.com/sirupsen/logrus"

	"fplcast/internal/config"
	"fplcast/internal/fetch"
	"fplcast/internal/logging"
	"fplcast/internal/store"
)

func main() {
	var (
		configPath = flag.String("config", "", "optional config file path")
		force      = flag.Bool("force", false, "refetch regardless of snapshot freshness")
		freshness  = flag.Duration("freshness", 24*time.Hour, "snapshot freshness window")
		sleepMS    = flag.Int("sleep-ms", 500, "sleep between requests in ms")
		elements   = flag.Bool("elements", true, "fetch per-player element summaries")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Loading configuration")
	}
	log := logging.Init(cfg.LogLevel, cfg.Development).WithField("component", "fetch-cli")

	st := store.NewSnapshotStore(cfg.SnapshotRoot())
	client := fetch.NewClient(st)
	client.Freshness = *freshness
	client.Sleep = time.Duration(*sleepMS) * time.Millisecond

	ctx := context.Background()

	bootstrap, err := client.BootstrapStatic(ctx, *force)
	must(log, err)
	_, err = client.Fixtures(ctx, *force)
	must(log, err)

	if !*elements {
		log.Info("Skipping element summaries")
		return
	}

	var boot struct {
		Elements []struct {
			ID int `json:"id"`
		} `json:"elements"`
	}
	must(log, json.Unmarshal(bootstrap, &boot))

	log.WithField("players", len(boot.Elements)).Info("Fetching element summaries")
	for i, element := range boot.Elements {
		_, err := client.ElementSummary(ctx, element.ID, *force)
		must(log, err)
		if (i+1)%100 == 0 {
			log.WithField("done", i+1).Info("Element summaries progress")
		}
	}
	log.Info("Done")
}

func must(log *logrus.Entry, err error) {
	if err != nil {
		log.Fatal(err)
	}
}
