package prioritize

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/feedbackrank/internal/client"
	"github.com/blackwell-systems/feedbackrank/internal/feedback"
	"github.com/blackwell-systems/feedbackrank/internal/scoring"
)

// Engine resolves, scores and classifies every suggestion in a snapshot.
// The configuration is fixed at construction; build a new Engine to apply
// an edited configuration.
type Engine struct {
	calc    *scoring.Calculator
	logger  *zap.Logger
	workers int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used to report anomalies.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithWorkers bounds the number of suggestions processed concurrently.
// Values below 1 select runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// NewEngine returns an Engine for cfg, refusing invalid configurations.
func NewEngine(cfg *scoring.Configuration, opts ...Option) (*Engine, error) {
	calc, err := scoring.NewCalculator(cfg)
	if err != nil {
		return nil, err
	}
	e := &Engine{calc: calc, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		e.workers = runtime.GOMAXPROCS(0)
	}
	return e, nil
}

// Configuration returns the engine's scoring configuration.
func (e *Engine) Configuration() *scoring.Configuration {
	return e.calc.Configuration()
}

// Run scores every suggestion against directory as of now. The output has
// the same length and order as suggestions. Run only fails when ctx is
// cancelled; bad input data is reported through each item's Anomalies.
func (e *Engine) Run(ctx context.Context, suggestions []feedback.Suggestion, directory client.Directory, now time.Time) ([]ScoredSuggestion, error) {
	resolver := client.NewResolver(directory, e.Configuration().EnterpriseRules())
	scored := make([]ScoredSuggestion, len(suggestions))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range suggestions {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			scored[i] = e.scoreOne(suggestions[i], resolver, now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scoring pass: %w", err)
	}

	e.logPass(scored)
	return scored, nil
}

// Score scores a single suggestion.
func (e *Engine) Score(s feedback.Suggestion, directory client.Directory, now time.Time) ScoredSuggestion {
	resolver := client.NewResolver(directory, e.Configuration().EnterpriseRules())
	ss := e.scoreOne(s, resolver, now)
	e.logAnomalies(ss.Anomalies)
	return ss
}

func (e *Engine) scoreOne(s feedback.Suggestion, resolver *client.Resolver, now time.Time) ScoredSuggestion {
	profile := resolver.Resolve(s.Email)
	res := e.calc.Score(s, profile, now)
	return ScoredSuggestion{
		Suggestion: s,
		Client:     profile,
		Breakdown:  res.Breakdown,
		TotalScore: res.Total,
		Tier:       e.calc.Classify(res.Total),
		Anomalies:  res.Anomalies,
	}
}

func (e *Engine) logPass(scored []ScoredSuggestion) {
	anomalies := 0
	for _, ss := range scored {
		anomalies += len(ss.Anomalies)
		e.logAnomalies(ss.Anomalies)
	}
	e.logger.Debug("scoring pass complete",
		zap.Int("suggestions", len(scored)),
		zap.Int("anomalies", anomalies),
		zap.Int("workers", e.workers),
	)
}

func (e *Engine) logAnomalies(anomalies []scoring.Anomaly) {
	for _, a := range anomalies {
		fields := []zap.Field{
			zap.String("suggestion_id", a.SuggestionID),
			zap.String("contribution", string(a.Contribution)),
			zap.String("field", a.Field),
			zap.String("value", a.Value),
		}
		if a.Kind == scoring.AnomalyOutOfRange {
			e.logger.Warn(a.Message, fields...)
		} else {
			e.logger.Debug(a.Message, fields...)
		}
	}
}
