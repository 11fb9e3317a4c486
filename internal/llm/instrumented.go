package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/miz-art/Micro-narrativesxHarms-June25/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var llmTracer = otel.Tracer("narrative.internal.llm")

var llmLatency = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "narrative",
		Subsystem: "llm",
		Name:      "latency_seconds",
		Help:      "Latency of LLM completions",
		Buckets:   []float64{0.25, 0.5, 1, 2, 3, 4, 5, 6, 8, 10, 15, 20, 30},
	},
	[]string{"provider", "operation", "status"},
)

var llmTokensTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "narrative",
		Subsystem: "llm",
		Name:      "tokens_total",
		Help:      "Tokens used by the LLM",
	},
	[]string{"provider", "type"}, // type: input, output, total
)

func init() {
	prometheus.MustRegister(llmLatency)
	prometheus.MustRegister(llmTokensTotal)
}

// RegisterMetrics registers llm metrics with a custom registry.
func RegisterMetrics(reg prometheus.Registerer) {
	if reg == nil || reg == prometheus.DefaultRegisterer {
		return
	}
	reg.MustRegister(llmLatency, llmTokensTotal)
}

// InstrumentedClient records latency, token usage and a span around every call.
type InstrumentedClient struct {
	inner    Client
	provider string
	timeout  time.Duration
	logger   *logging.Logger
}

func NewInstrumentedClient(inner Client, provider string, timeout time.Duration, logger *logging.Logger) *InstrumentedClient {
	if inner == nil {
		panic("llm: inner client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &InstrumentedClient{inner: inner, provider: provider, timeout: timeout, logger: logger}
}

func (c *InstrumentedClient) Complete(ctx context.Context, req Request) (Response, error) {
	ctx, span := llmTracer.Start(ctx, "llm.complete")
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.inner.Complete(callCtx, req)
	latency := time.Since(start)
	status := "ok"
	if err != nil {
		status = "error"
	}
	llmLatency.WithLabelValues(c.provider, req.Operation, status).Observe(latency.Seconds())
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("narrative.llm.provider", c.provider),
			attribute.String("narrative.llm.operation", req.Operation),
			attribute.Float64("narrative.llm.latency_ms", float64(latency.Milliseconds())),
			attribute.Int("narrative.llm.input_tokens", int(resp.Usage.InputTokens)),
			attribute.Int("narrative.llm.output_tokens", int(resp.Usage.OutputTokens)),
			attribute.String("narrative.llm.stop_reason", resp.StopReason),
		)
	}
	if err != nil {
		span.RecordError(err)
		c.logger.Warn("llm completion failed", "provider", c.provider, "operation", req.Operation, "latency_ms", latency.Milliseconds(), "error", err)
		return Response{}, fmt.Errorf("llm: %s completion failed: %w", req.Operation, err)
	}
	if resp.Usage.InputTokens > 0 {
		llmTokensTotal.WithLabelValues(c.provider, "input").Add(float64(resp.Usage.InputTokens))
	}
	if resp.Usage.OutputTokens > 0 {
		llmTokensTotal.WithLabelValues(c.provider, "output").Add(float64(resp.Usage.OutputTokens))
	}
	if resp.Usage.TotalTokens > 0 {
		llmTokensTotal.WithLabelValues(c.provider, "total").Add(float64(resp.Usage.TotalTokens))
	}
	c.logger.Debug("llm completion finished",
		"provider", c.provider,
		"operation", req.Operation,
		"latency_ms", latency.Milliseconds(),
		"output_tokens", resp.Usage.OutputTokens,
	)
	return resp, nil
}
