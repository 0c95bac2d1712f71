// Package services – ScoreService
//
// ScoreService owns the two use-cases of the service: recording a finished
// game and listing stored games. Every storage call is handed to the
// configured worker pool so the HTTP goroutines never run more concurrent
// database work than the pool allows. Storage errors are returned unchanged
// so handlers can render them verbatim.
//
// Observability: both methods are OpenTelemetry-instrumented.
package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/hanoi-scores/internal/domain"
)

// PageSize is the fixed number of scores returned by List.
const PageSize = 20

// ScoreRepo defines the repository contract required by ScoreService.
type ScoreRepo interface {
	// CreateScore inserts one row and returns it with generated fields.
	CreateScore(ctx context.Context, db *gorm.DB, in domain.NewScore) (*domain.Score, error)
	// ListScores returns at most limit rows in storage order.
	ListScores(ctx context.Context, db *gorm.DB, limit int) ([]domain.Score, error)
}

// Submitter runs a blocking function on a worker and waits for it.
// *workerpool.Pool satisfies it.
type Submitter interface {
	Submit(ctx context.Context, fn func(ctx context.Context) error) error
}

// ScoreService records and lists scores.
type ScoreService struct {
	// DB is the pooled GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the score repository used by this service.
	Repo ScoreRepo
	// Pool runs the storage calls. When nil, calls run on the caller's goroutine.
	Pool Submitter
}

// NewScoreService constructs a ScoreService.
func NewScoreService(db *gorm.DB, r ScoreRepo, pool Submitter) *ScoreService {
	return &ScoreService{DB: db, Repo: r, Pool: pool}
}

// Create persists in and returns the stored record. Identical inputs always
// create distinct rows.
func (s *ScoreService) Create(ctx context.Context, in domain.NewScore) (*domain.Score, error) {
	ctx, span := otel.Tracer("services/ScoreService").Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("score.player", in.Player),
			attribute.Int("score.disks", int(in.Disks)),
		),
	)
	defer span.End()

	var out *domain.Score
	err := s.run(ctx, func(ctx context.Context) error {
		sc, err := s.Repo.CreateScore(ctx, s.DB, in)
		if err != nil {
			return err
		}
		out = sc
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("score.id", int(out.ID)))
	return out, nil
}

// List returns up to PageSize scores in storage order. The result is never nil.
func (s *ScoreService) List(ctx context.Context) ([]domain.Score, error) {
	ctx, span := otel.Tracer("services/ScoreService").Start(ctx, "List",
		trace.WithAttributes(attribute.Int("page.size", PageSize)),
	)
	defer span.End()

	var out []domain.Score
	err := s.run(ctx, func(ctx context.Context) error {
		items, err := s.Repo.ListScores(ctx, s.DB, PageSize)
		if err != nil {
			return err
		}
		out = items
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if out == nil {
		out = []domain.Score{}
	}
	span.SetAttributes(attribute.Int("result.count", len(out)))
	return out, nil
}

// run dispatches fn to the pool, or runs it inline when no pool is set.
func (s *ScoreService) run(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.DB == nil || s.Repo == nil {
		return ErrNoStorage
	}
	if s.Pool == nil {
		return fn(ctx)
	}
	return s.Pool.Submit(ctx, fn)
}
