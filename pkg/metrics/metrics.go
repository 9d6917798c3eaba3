// Package metrics exposes agent activity as Prometheus metrics.
//
// A Collector observes the events a run emits; it keeps no per-run state, so
// one Collector can watch any number of sequential or concurrent runs.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/entrhq/newsagent/pkg/agent"
	"github.com/entrhq/newsagent/pkg/logging"
	"github.com/entrhq/newsagent/pkg/types"
)

const namespace = "newsagent"

// Run outcomes used as the "outcome" label.
const (
	OutcomeAnswered     = "answered"
	OutcomeStepLimit    = "step_limit"
	OutcomeParseRetries = "parse_retries"
	OutcomeLLMError     = "llm_error"
	OutcomeOther        = "other"
)

var metricsLog *logging.Logger

func init() {
	var err error
	metricsLog, err = logging.NewLogger("metrics")
	if err != nil {
		metricsLog.Warnf("Failed to initialize metrics logger, using stderr fallback: %v", err)
	}
}

// Collector turns agent events into metric updates.
type Collector struct {
	runs         *prometheus.CounterVec
	runDuration  prometheus.Histogram
	modelCalls   prometheus.Counter
	corrections  prometheus.Counter
	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	tokens       *prometheus.CounterVec
}

// NewCollector creates the collectors and registers them with reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of agent runs by outcome",
			},
			[]string{"outcome"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall time of agent runs",
				Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
			},
		),
		modelCalls: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_calls_total",
				Help:      "Total number of LLM invocations",
			},
		),
		corrections: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "corrections_total",
				Help:      "Malformed or unknown-tool steps fed back to the model",
			},
		),
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_calls_total",
				Help:      "Total number of tool invocations by tool and status",
			},
			[]string{"tool", "status"},
		),
		toolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tool_duration_seconds",
				Help:      "Duration of tool executions",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tokens_total",
				Help:      "Tokens consumed by LLM calls",
			},
			[]string{"kind"},
		),
	}

	for _, col := range []prometheus.Collector{
		c.runs, c.runDuration, c.modelCalls, c.corrections, c.toolCalls, c.toolDuration, c.tokens,
	} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return c, nil
}

// Observe records a single event.
func (c *Collector) Observe(event *types.AgentEvent) {
	if event == nil {
		return
	}

	switch event.Type {
	case types.EventTypeAPICallStart:
		c.modelCalls.Inc()

	case types.EventTypeToolResult, types.EventTypeToolResultError:
		status := "ok"
		if event.Type == types.EventTypeToolResultError {
			status = "error"
		}
		c.toolCalls.WithLabelValues(event.ToolName, status).Inc()
		if d, ok := durationOf(event); ok {
			c.toolDuration.WithLabelValues(event.ToolName).Observe(d.Seconds())
		}

	case types.EventTypeCorrection:
		c.corrections.Inc()

	case types.EventTypeTokenUsage:
		if u := event.TokenUsage; u != nil {
			c.tokens.WithLabelValues("prompt").Add(float64(u.PromptTokens))
			c.tokens.WithLabelValues("completion").Add(float64(u.CompletionTokens))
			c.tokens.WithLabelValues("total").Add(float64(u.TotalTokens))
		}

	case types.EventTypeFinalAnswer:
		c.runs.WithLabelValues(OutcomeAnswered).Inc()

	case types.EventTypeError:
		c.runs.WithLabelValues(outcomeOf(event.Error)).Inc()

	case types.EventTypeTurnEnd:
		if d, ok := durationOf(event); ok {
			c.runDuration.Observe(d.Seconds())
		}
	}
}

// Wrap returns a handler that records each event and then passes it to next.
func (c *Collector) Wrap(next agent.EventHandler) agent.EventHandler {
	return func(event *types.AgentEvent) {
		c.Observe(event)
		if next != nil {
			next(event)
		}
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, agent.ErrStepLimitExceeded):
		return OutcomeStepLimit
	case errors.Is(err, agent.ErrParseRetriesExhausted):
		return OutcomeParseRetries
	case errors.Is(err, agent.ErrLLMCall):
		return OutcomeLLMError
	default:
		return OutcomeOther
	}
}

func durationOf(event *types.AgentEvent) (time.Duration, bool) {
	d, ok := event.Metadata["duration"].(time.Duration)
	return d, ok
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is canceled.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		metricsLog.Infof("serving metrics on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown: %w", err)
		}
		metricsLog.Infof("metrics server stopped")
		return nil
	}
}
