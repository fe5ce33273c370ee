package main

// Provider blank imports. Each import activates a self-registering adapter.
// The "log" and "nats" notifiers need runtime dependencies and are built in
// buildNotifier instead.

import (
	_ "github.com/Strob0t/blackboard/internal/adapter/discord"
	_ "github.com/Strob0t/blackboard/internal/adapter/slack"
	_ "github.com/Strob0t/blackboard/internal/adapter/templateplan"
	_ "github.com/Strob0t/blackboard/internal/adapter/webhook"
	_ "github.com/Strob0t/blackboard/internal/adapter/yamlplan"
)
