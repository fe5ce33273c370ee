package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	bbotel "github.com/Strob0t/blackboard/internal/adapter/otel"
	"github.com/Strob0t/blackboard/internal/middleware"
	"github.com/Strob0t/blackboard/internal/port/cache"
)

// requestTimeout bounds API handlers. The websocket route is exempt.
const requestTimeout = 30 * time.Second

// RouterOptions configures NewRouter. Zero values disable the optional parts.
type RouterOptions struct {
	CORSOrigin     string
	ServiceName    string      // enables otelhttp spans when set
	Idempotency    cache.Cache // enables Idempotency-Key replay when set
	IdempotencyTTL time.Duration
	WebSocket      http.HandlerFunc // served at /ws when set
	Mounts         []func(chi.Router)
}

// NewRouter builds the full HTTP handler: middleware, API routes, the
// websocket endpoint and any extra mounts such as the A2A surface.
func NewRouter(h *Handlers, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if opts.ServiceName != "" {
		r.Use(bbotel.HTTPMiddleware(opts.ServiceName))
	}
	r.Use(CORS(opts.CORSOrigin))
	r.Use(Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if opts.WebSocket != nil {
		r.Get("/ws", opts.WebSocket)
	}

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(requestTimeout))
		r.Use(SecurityHeaders)

		r.Get("/", h.Root)
		r.Get("/health", h.Health)

		for _, mount := range opts.Mounts {
			mount(r)
		}

		r.Route("/api/v1", func(r chi.Router) {
			if opts.Idempotency != nil {
				r.Use(middleware.Idempotency(opts.Idempotency, opts.IdempotencyTTL))
			}
			MountRoutes(r, h)
		})
	})

	return r
}

// MountRoutes registers the /api/v1 routes on r.
func MountRoutes(r chi.Router, h *Handlers) {
	// Planning
	r.Post("/plan", h.Plan)
	r.Post("/plan/tasks", h.IngestTasks)

	// Tasks
	r.Get("/tasks", h.ListTasks)
	r.Get("/tasks/next", h.NextTask)
	r.Get("/tasks/poll", h.PollTasks)
	r.Get("/tasks/{id}", h.GetTask)
	r.Post("/tasks/{id}/complete", h.CompleteTask)
	r.Post("/tasks/{id}/fail", h.FailTask)

	// Commands
	r.Post("/commands", h.IssueCommand)

	// Agents
	r.Get("/agents", h.ListAgents)
	r.Post("/agents", h.RegisterAgent)
	r.Get("/agents/{id}", h.GetAgent)
	r.Put("/agents/{id}/status", h.UpdateAgentStatus)

	// Logs
	r.Get("/logs", h.ListLogs)
	r.Get("/logs/{source}", h.GetLogs)

	// Runtime config
	r.Get("/config", h.GetConfig)
	r.Put("/config/auto-trigger", h.SetAutoTrigger)
}
