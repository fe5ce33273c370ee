package main

import (
	"context"
	"fmt"
	"log/slog"

	bbnats "github.com/Strob0t/blackboard/internal/adapter/nats"
	"github.com/Strob0t/blackboard/internal/adapter/natskv"
	"github.com/Strob0t/blackboard/internal/adapter/ristretto"
	"github.com/Strob0t/blackboard/internal/adapter/tiered"
	"github.com/Strob0t/blackboard/internal/adapter/yamlplan"
	"github.com/Strob0t/blackboard/internal/config"
	"github.com/Strob0t/blackboard/internal/port/cache"
	"github.com/Strob0t/blackboard/internal/port/notifier"
	"github.com/Strob0t/blackboard/internal/port/planner"
	"github.com/Strob0t/blackboard/internal/service"
)

// buildNotifier combines the configured worker notifiers. A single notifier
// is used directly; several are wrapped in notifier.Multi.
func buildNotifier(cfg *config.Config, store *service.EntityStore, queue *bbnats.Queue) (notifier.Notifier, error) {
	var all notifier.Multi
	for _, name := range cfg.Dispatch.Notifiers {
		var (
			n   notifier.Notifier
			err error
		)
		switch name {
		case "log":
			n = service.NewLogNotifier(store)
		case "nats":
			if queue == nil {
				return nil, fmt.Errorf("notifier %q requires nats.url", name)
			}
			n = bbnats.NewWorkerNotifier(queue)
		default:
			n, err = notifier.New(name, notifierConfig(cfg, name))
		}
		if err != nil {
			return nil, err
		}
		all = append(all, n)
	}
	slog.Info("worker notifiers configured", "notifiers", cfg.Dispatch.Notifiers, "available", notifier.Available())

	if len(all) == 1 {
		return all[0], nil
	}
	return all, nil
}

func notifierConfig(cfg *config.Config, name string) map[string]string {
	timeout := cfg.Notifier.Timeout.String()
	switch name {
	case "webhook":
		return map[string]string{"url": cfg.Notifier.WebhookURL, "timeout": timeout}
	case "slack":
		return map[string]string{"webhook_url": cfg.Notifier.SlackWebhookURL, "timeout": timeout}
	case "discord":
		return map[string]string{"webhook_url": cfg.Notifier.DiscordWebhookURL, "timeout": timeout}
	}
	return nil
}

func buildPlanner(ctx context.Context, cfg *config.Config) (planner.Planner, error) {
	p, err := planner.New(cfg.Planner.Kind, map[string]string{"file": cfg.Planner.File})
	if err != nil {
		return nil, err
	}
	if yp, ok := p.(*yamlplan.Planner); ok && cfg.Planner.Watch {
		if err := yp.Watch(ctx, cfg.Planner.File); err != nil {
			return nil, err
		}
		slog.Info("watching plan file", "file", cfg.Planner.File)
	}
	return p, nil
}

// buildCache returns the idempotency cache: ristretto in process, backed by
// a NATS KV bucket when NATS is configured.
func buildCache(ctx context.Context, cfg *config.Config, queue *bbnats.Queue) (cache.Cache, func(), error) {
	l1, err := ristretto.New(int(cfg.Cache.L1MaxSizeMB))
	if err != nil {
		return nil, nil, err
	}

	var l2 cache.Cache
	if queue != nil {
		kv, err := natskv.Open(ctx, queue.JetStream(), cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
		if err != nil {
			l1.Close()
			return nil, nil, fmt.Errorf("open kv bucket %s: %w", cfg.Cache.L2Bucket, err)
		}
		l2 = kv
	}
	return tiered.New(l1, l2, cfg.Cache.L2TTL), l1.Close, nil
}
