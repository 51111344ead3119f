package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/helixml/batvision/domain/identification"
	"github.com/helixml/batvision/domain/prediction"
	"github.com/helixml/batvision/infrastructure/imaging"
	"github.com/helixml/batvision/infrastructure/metrics"
	"github.com/helixml/batvision/internal/log"
)

// Classifier scores an image against the trained tags.
type Classifier interface {
	Classify(ctx context.Context, jpeg []byte) ([]prediction.Prediction, error)
}

// Enricher produces the narrative for a classified image.
type Enricher interface {
	MatchMovie(ctx context.Context, imageURL, label string) (string, error)
	MovieDetails(ctx context.Context, movie string) (string, error)
	Quote(ctx context.Context, label string) (string, error)
}

// Identifier runs the identification pipeline: normalise, classify, then
// enrich the winning tag.
type Identifier struct {
	classifier   Classifier
	enricher     Enricher
	logger       *slog.Logger
	metrics      *metrics.Metrics
	maxDimension int
	maxPixels    int64
	parallel     bool
}

// IdentifierOption is a functional option for Identifier.
type IdentifierOption func(*Identifier)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) IdentifierOption {
	return func(i *Identifier) {
		if l != nil {
			i.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) IdentifierOption {
	return func(i *Identifier) { i.metrics = m }
}

// WithMaxDimension scales uploads down before classification. Zero keeps
// the original size.
func WithMaxDimension(n int) IdentifierOption {
	return func(i *Identifier) { i.maxDimension = n }
}

// WithMaxPixels rejects images whose decoded width*height exceeds n. Zero
// keeps the imaging default.
func WithMaxPixels(n int64) IdentifierOption {
	return func(i *Identifier) { i.maxPixels = n }
}

// WithParallelEnrichment runs movie matching and quote lookup concurrently.
func WithParallelEnrichment(enabled bool) IdentifierOption {
	return func(i *Identifier) { i.parallel = enabled }
}

// NewIdentifier creates a new Identifier.
func NewIdentifier(classifier Classifier, enricher Enricher, opts ...IdentifierOption) *Identifier {
	i := &Identifier{
		classifier: classifier,
		enricher:   enricher,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Identify classifies image and enriches the top prediction. The enricher
// is never called when the classifier returns no predictions.
func (i *Identifier) Identify(ctx context.Context, image []byte) (identification.Result, error) {
	runID := uuid.NewString()
	logger := i.logger.With(log.ContextAttrs(ctx)...).With("run_id", runID)
	start := time.Now()

	var jpeg []byte
	err := i.stage(ctx, logger, StageDecode, func(context.Context) error {
		var err error
		opts := []imaging.Option{imaging.WithMaxDimension(i.maxDimension)}
		if i.maxPixels > 0 {
			opts = append(opts, imaging.WithMaxPixels(i.maxPixels))
		}
		jpeg, err = imaging.NormalizeJPEG(image, opts...)
		return err
	})
	if err != nil {
		i.metrics.RunCompleted(metrics.ResultError)
		return identification.Result{}, err
	}

	var predictions []prediction.Prediction
	err = i.stage(ctx, logger, StageClassify, func(ctx context.Context) error {
		var err error
		predictions, err = i.classifier.Classify(ctx, jpeg)
		return err
	})
	if err != nil {
		i.metrics.RunCompleted(metrics.ResultError)
		return identification.Result{}, err
	}

	top, ok := prediction.Top(predictions)
	if !ok {
		logger.Warn("classifier returned no predictions")
		i.metrics.RunCompleted(metrics.ResultNoPredictions)
		return identification.Result{}, ErrNoPredictions
	}

	logger.Info("image classified",
		slog.String("tag", top.TagName()),
		slog.Float64("probability", top.Probability()),
		slog.Int("predictions", len(predictions)),
	)

	var movie, details, quote string
	if i.parallel {
		movie, details, quote, err = i.enrichParallel(ctx, logger, imaging.DataURL(jpeg), top.Label())
	} else {
		movie, details, quote, err = i.enrichSequential(ctx, logger, imaging.DataURL(jpeg), top.Label())
	}
	if err != nil {
		i.metrics.RunCompleted(metrics.ResultError)
		return identification.Result{}, err
	}

	result := identification.NewResult(runID, top, movie, details, quote)
	i.metrics.RunCompleted(metrics.ResultOK)
	logger.Info("identification complete",
		slog.String("label", result.Label()),
		slog.String("movie", movie),
		slog.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// Predict runs Identify and renders the outcome as user-facing text. Failures
// become an "Error: ..." line instead of an error value.
func (i *Identifier) Predict(ctx context.Context, image []byte) string {
	result, err := i.Identify(ctx, image)
	if err == nil {
		return result.Text()
	}
	if errors.Is(err, ErrNoPredictions) {
		return NoPredictionsMessage
	}
	return "Error: " + err.Error()
}

func (i *Identifier) enrichSequential(ctx context.Context, logger *slog.Logger, imageURL, label string) (movie, details, quote string, err error) {
	if movie, err = i.matchMovie(ctx, logger, imageURL, label); err != nil {
		return "", "", "", err
	}
	if details, err = i.movieDetails(ctx, logger, movie); err != nil {
		return "", "", "", err
	}
	if quote, err = i.quote(ctx, logger, label); err != nil {
		return "", "", "", err
	}
	return movie, details, quote, nil
}

// enrichParallel overlaps the quote lookup with the movie chain. Details
// still wait for the movie title.
func (i *Identifier) enrichParallel(ctx context.Context, logger *slog.Logger, imageURL, label string) (movie, details, quote string, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if movie, err = i.matchMovie(gctx, logger, imageURL, label); err != nil {
			return err
		}
		details, err = i.movieDetails(gctx, logger, movie)
		return err
	})
	g.Go(func() error {
		var err error
		quote, err = i.quote(gctx, logger, label)
		return err
	})

	if err := g.Wait(); err != nil {
		return "", "", "", err
	}
	return movie, details, quote, nil
}

func (i *Identifier) matchMovie(ctx context.Context, logger *slog.Logger, imageURL, label string) (string, error) {
	var out string
	err := i.stage(ctx, logger, StageMatchMovie, func(ctx context.Context) error {
		var err error
		out, err = i.enricher.MatchMovie(ctx, imageURL, label)
		return err
	})
	return out, err
}

func (i *Identifier) movieDetails(ctx context.Context, logger *slog.Logger, movie string) (string, error) {
	var out string
	err := i.stage(ctx, logger, StageMovieDetails, func(ctx context.Context) error {
		var err error
		out, err = i.enricher.MovieDetails(ctx, movie)
		return err
	})
	return out, err
}

func (i *Identifier) quote(ctx context.Context, logger *slog.Logger, label string) (string, error) {
	var out string
	err := i.stage(ctx, logger, StageQuote, func(ctx context.Context) error {
		var err error
		out, err = i.enricher.Quote(ctx, label)
		return err
	})
	return out, err
}

// stage times fn, records the outcome and wraps any failure in a StageError.
func (i *Identifier) stage(ctx context.Context, logger *slog.Logger, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	i.metrics.ObserveStage(name, elapsed)

	if err == nil {
		logger.Debug("stage complete", slog.String("stage", name), slog.Duration("duration", elapsed))
		return nil
	}

	if upstream := upstreamFor(name); upstream != "" {
		i.metrics.UpstreamError(upstream)
	}
	logger.Error("stage failed",
		slog.String("stage", name),
		slog.Duration("duration", elapsed),
		slog.String("error", err.Error()),
	)
	return &StageError{Stage: name, Err: err}
}

func upstreamFor(stage string) string {
	switch stage {
	case StageClassify:
		return metrics.UpstreamCustomVision
	case StageMatchMovie, StageMovieDetails, StageQuote:
		return metrics.UpstreamOpenAI
	default:
		return ""
	}
}
