package client

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Option configures a Conn at Connect time.
type Option func(c *Conn)

func WithLogger(l *slog.Logger) Option {
	return func(c *Conn) {
		c.l = l
	}
}

// WithWatchDispatch overrides watch fan-out behavior; see
// WatchDispatchConfig.
func WithWatchDispatch(conf WatchDispatchConfig) Option {
	return func(c *Conn) {
		c.conf.WatchDispatch = conf
	}
}

// WithMetrics enables Prometheus metrics collection for this Conn.
func WithMetrics(enabled bool) Option {
	return func(c *Conn) {
		c.conf.Metrics.Enabled = enabled
	}
}

// WithTracer overrides the OpenTelemetry tracer used for Submit spans;
// defaults to otel.Tracer("github.com/ValerySidorin/zkdispatch").
func WithTracer(t trace.Tracer) Option {
	return func(c *Conn) {
		c.tracer = newOtelTracer(t)
	}
}
