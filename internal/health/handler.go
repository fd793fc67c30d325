package health

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/redis/go-redis/v9"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"

	healthy   = "healthy"
	unhealthy = "unhealthy"

	checkTimeout = 2 * time.Second
)

// Checker defines the interface for checking service health.
type Checker interface {
	Ping(ctx context.Context) error
}

// RedisChecker adapts redis.Client to Checker interface.
type RedisChecker struct {
	client *redis.Client
}

func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

type namedChecker struct {
	name    string
	checker Checker
}

// Handler reports the status of each registered dependency.
type Handler struct {
	checkers []namedChecker
}

func NewHandler() *Handler {
	return &Handler{}
}

// Add registers a dependency under name. Nil checkers are ignored.
func (h *Handler) Add(name string, checker Checker) *Handler {
	if checker != nil {
		h.checkers = append(h.checkers, namedChecker{name: name, checker: checker})
	}

	return h
}

// Response is the response for health check endpoint.
type Response struct {
	Body struct {
		Status string            `doc:"ok, or degraded when a dependency is down" example:"ok" json:"status"`
		Checks map[string]string `doc:"Per-dependency status"                                  json:"checks"`
	}
}

// Check pings every dependency. The endpoint itself always answers 200;
// a failing dependency only degrades the reported status.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{}
	resp.Body.Status = StatusOK
	resp.Body.Checks = make(map[string]string, len(h.checkers))

	for _, c := range h.checkers {
		pingCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := c.checker.Ping(pingCtx)
		cancel()

		if err != nil {
			resp.Body.Checks[c.name] = unhealthy
			resp.Body.Status = StatusDegraded

			continue
		}

		resp.Body.Checks[c.name] = healthy
	}

	return resp, nil
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Get(api, "/health", h.Check)
}
