package server

import (
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/OpenTraceLab/OpenTraceCircuit/internal/store"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
)

const tracerName = "internal/server"

// Logger returns the request logging middleware.
func Logger() fiber.Handler {
	return logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	})
}

// Tracing starts a span per request and hands its context to handlers.
func Tracing() fiber.Handler {
	tracer := otel.Tracer(tracerName)
	return func(c fiber.Ctx) error {
		ctx, span := tracer.Start(c.Context(), c.Method()+" "+c.Path())
		defer span.End()
		c.SetContext(ctx)

		err := c.Next()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(
			attribute.String("http.method", c.Method()),
			attribute.String("http.route", c.Route().Path),
		)
		return err
	}
}

// limiter hands out one token bucket per client address.
type limiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*client
	now     func() time.Time
}

type client struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimit rejects clients that exceed perSecond requests with 429.
// perSecond <= 0 disables limiting.
func RateLimit(perSecond float64, burst int) fiber.Handler {
	if perSecond <= 0 {
		return func(c fiber.Ctx) error { return c.Next() }
	}
	l := &limiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		clients: make(map[string]*client),
		now:     time.Now,
	}
	return func(c fiber.Ctx) error {
		if !l.allow(c.IP()) {
			return fiber.NewError(http.StatusTooManyRequests, "rate limit exceeded")
		}
		return c.Next()
	}
}

func (l *limiter) allow(addr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cl, ok := l.clients[addr]
	if !ok {
		cl = &client{lim: rate.NewLimiter(l.limit, l.burst)}
		l.clients[addr] = cl
	}
	cl.seen = now

	// Forget idle clients so the map does not grow without bound.
	if len(l.clients) > 1024 {
		for k, v := range l.clients {
			if now.Sub(v.seen) > 10*time.Minute {
				delete(l.clients, k)
			}
		}
	}
	return cl.lim.AllowN(now, 1)
}

// statusOf maps domain errors onto HTTP status codes.
func statusOf(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, errNoSession),
		errors.Is(err, circuit.ErrNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, circuit.ErrInvalidConnection),
		errors.Is(err, circuit.ErrUnknownType),
		errors.Is(err, circuit.ErrNoState),
		errors.Is(err, circuit.ErrMalformedFile),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, errLibraryDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorHandler writes every error as {"error": "..."}.
func errorHandler(c fiber.Ctx, err error) error {
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		log.Printf("[SERVER] %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
