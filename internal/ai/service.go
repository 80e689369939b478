// Package ai turns domain inputs into a single generative-model call and a
// typed result. Without a configured Generator every operation runs the
// offline simulation and never touches the network.
package ai

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Source tells where a result came from.
type Source string

const (
	SourceModel     Source = "model"
	SourceSimulated Source = "simulated"
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "glowup_ai_requests_total",
	Help: "AI operations by outcome (model, demo, error, unparsable, invalid).",
}, []string{"operation", "outcome"})

type Service struct {
	gen    Generator
	logger *slog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

type Option func(*Service)

// WithRand seeds the simulation, mainly for tests.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) { s.rng = rng }
}

// NewService builds the AI layer. A nil gen selects demo mode.
func NewService(gen Generator, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		gen:    gen,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DemoMode reports whether results are always simulated.
func (s *Service) DemoMode() bool {
	return s.gen == nil
}

func (s *Service) intn(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

func pick[T any](s *Service, options []T) T {
	return options[s.intn(len(options))]
}

// generate makes at most one model call. Any failure, unparsable text or a
// result rejected by normalize falls back to simulate.
func generate[T any](ctx context.Context, s *Service, op string, req Request, normalize func(*T) bool, simulate func() T) (T, Source) {
	if s.gen == nil {
		requestsTotal.WithLabelValues(op, "demo").Inc()
		return simulate(), SourceSimulated
	}

	text, err := s.gen.Generate(ctx, req)
	if err != nil {
		s.logger.Warn("AI request failed, using simulation", "op", op, "error", err)
		requestsTotal.WithLabelValues(op, "error").Inc()
		return simulate(), SourceSimulated
	}

	raw, err := ExtractJSON(text)
	if err != nil {
		s.logger.Warn("AI response had no JSON, using simulation", "op", op, "response_len", len(text))
		requestsTotal.WithLabelValues(op, "unparsable").Inc()
		return simulate(), SourceSimulated
	}

	var result T
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		s.logger.Warn("AI response did not match shape, using simulation", "op", op, "error", err)
		requestsTotal.WithLabelValues(op, "unparsable").Inc()
		return simulate(), SourceSimulated
	}

	if !normalize(&result) {
		s.logger.Warn("AI response failed validation, using simulation", "op", op)
		requestsTotal.WithLabelValues(op, "invalid").Inc()
		return simulate(), SourceSimulated
	}

	requestsTotal.WithLabelValues(op, "model").Inc()
	return result, SourceModel
}

const jsonOnly = "Respond with ONLY a valid JSON object. Do not include markdown or explanations."
