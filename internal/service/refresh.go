package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"country_fetcher/internal/artifact"
	"country_fetcher/internal/domain"
	"country_fetcher/internal/metrics"
)

const (
	summaryTopN    = 5
	publishTimeout = 5 * time.Second
)

type RefreshService struct {
	countrySource CountrySource
	rateSource    RateSource
	enricher      Enricher
	countries     CountryStore
	status        StatusStore
	txManager     TransactionManager
	renderer      Renderer
	artifacts     ArtifactStore
	publisher     Publisher
	logger        *slog.Logger
	clock         func() time.Time
}

type RefreshDeps struct {
	CountrySource CountrySource
	RateSource    RateSource
	Enricher      Enricher
	Countries     CountryStore
	Status        StatusStore
	TxManager     TransactionManager
	Renderer      Renderer
	Artifacts     ArtifactStore
	// Publisher is optional.
	Publisher Publisher
}

func NewRefreshService(deps RefreshDeps, logger *slog.Logger) *RefreshService {
	return &RefreshService{
		countrySource: deps.CountrySource,
		rateSource:    deps.RateSource,
		enricher:      deps.Enricher,
		countries:     deps.Countries,
		status:        deps.Status,
		txManager:     deps.TxManager,
		renderer:      deps.Renderer,
		artifacts:     deps.Artifacts,
		publisher:     deps.Publisher,
		logger:        logger.With("component", "refresh"),
		clock:         time.Now,
	}
}

// WithClock replaces the clock used to stamp refreshed rows.
func (s *RefreshService) WithClock(clock func() time.Time) *RefreshService {
	s.clock = clock
	return s
}

type refreshRun struct {
	id     string
	stage  domain.RefreshStage
	logger *slog.Logger
}

func (r *refreshRun) enter(stage domain.RefreshStage) {
	r.logger.Debug("refresh stage", "from", r.stage, "to", stage)
	r.stage = stage
}

// Refresh fetches both sources, enriches every record and, in one
// transaction, upserts the countries, updates the status row and writes the
// summary image. Either all of it becomes visible or none of it does.
func (s *RefreshService) Refresh(ctx context.Context) (*domain.RefreshResult, error) {
	started := time.Now()
	id := uuid.NewString()
	run := &refreshRun{
		id:     id,
		stage:  domain.StageIdle,
		logger: s.logger.With("refresh_id", id),
	}
	run.logger.Info("starting refresh")

	result, err := s.refresh(ctx, run)
	duration := time.Since(started)

	if err != nil {
		err = classify(err)
		kind := domain.KindOf(err)
		failedAt := run.stage
		run.enter(domain.StageFailed)
		run.logger.Error("refresh failed",
			"stage", failedAt,
			"kind", kind,
			"duration", duration,
			"error", err,
		)
		metrics.RecordRefreshFailure(string(kind), duration.Seconds())
		return nil, err
	}

	result.Duration = duration
	run.enter(domain.StageDone)
	metrics.RecordRefreshSuccess(result.Processed, result.Skipped, duration.Seconds())

	run.logger.Info("refresh completed",
		"fetched", result.Fetched,
		"processed", result.Processed,
		"skipped", result.Skipped,
		"last_refreshed_at", result.LastRefreshedAt,
		"duration", duration,
	)

	s.publish(ctx, run, result)

	return result, nil
}

func (s *RefreshService) refresh(ctx context.Context, run *refreshRun) (*domain.RefreshResult, error) {
	run.enter(domain.StageFetching)
	raw, rates, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	run.logger.Info("fetched sources", "countries", len(raw), "rates", len(rates))

	run.enter(domain.StageEnriching)
	refreshedAt := s.clock().UTC().Truncate(time.Microsecond)
	countries, skipped := s.enrich(run, raw, rates, refreshedAt)

	// Past this point the caller can no longer cancel: the transaction runs
	// to commit or rollback.
	txCtx := context.WithoutCancel(ctx)

	var (
		previous    []byte
		hasPrevious bool
		written     bool
	)

	err = s.txManager.WithTransaction(txCtx, func(ctx context.Context) error {
		run.enter(domain.StagePersisting)
		if err := s.countries.UpsertBatch(ctx, countries); err != nil {
			return domain.Storage(fmt.Errorf("upsert countries: %w", err))
		}
		if err := s.status.Update(ctx, int64(len(countries)), refreshedAt); err != nil {
			return domain.Storage(fmt.Errorf("update status: %w", err))
		}

		run.enter(domain.StageRendering)
		image, err := s.renderSummary(ctx)
		if err != nil {
			return domain.Render(err)
		}

		previous, hasPrevious = s.currentArtifact(ctx, run)
		if err := s.artifacts.Put(ctx, image); err != nil {
			return domain.Render(fmt.Errorf("write artifact: %w", err))
		}
		written = true

		run.enter(domain.StageCommitting)
		return nil
	})
	if err != nil {
		if written {
			s.restoreArtifact(txCtx, run, previous, hasPrevious)
		}
		return nil, err
	}

	return &domain.RefreshResult{
		ID:              run.id,
		Fetched:         len(raw),
		Processed:       len(countries),
		Skipped:         skipped,
		LastRefreshedAt: refreshedAt,
	}, nil
}

// fetch reads both sources in parallel. The first failure cancels the other
// request.
func (s *RefreshService) fetch(ctx context.Context) ([]domain.RawCountry, map[string]decimal.Decimal, error) {
	var (
		countries []domain.RawCountry
		rates     map[string]decimal.Decimal
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		countries, err = timedFetch(s.countrySource.Name(), func() ([]domain.RawCountry, error) {
			return s.countrySource.FetchCountries(gctx)
		})
		return err
	})

	g.Go(func() error {
		var err error
		rates, err = timedFetch(s.rateSource.Name(), func() (map[string]decimal.Decimal, error) {
			return s.rateSource.FetchRates(gctx)
		})
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return countries, rates, nil
}

func timedFetch[T any](name string, fetch func() (T, error)) (T, error) {
	started := time.Now()
	v, err := fetch()

	status := "ok"
	if err != nil {
		status = "error"
		if domain.KindOf(err) != domain.KindSourceUnavailable {
			err = domain.SourceUnavailable(name, err)
		}
	}
	metrics.RecordSourceFetch(name, status, time.Since(started).Seconds())

	return v, err
}

// enrich converts raw records into rows. Records without a name or population
// are skipped. A repeated name replaces the earlier record.
func (s *RefreshService) enrich(run *refreshRun, raw []domain.RawCountry, rates map[string]decimal.Decimal, refreshedAt time.Time) ([]domain.Country, int) {
	countries := make([]domain.Country, 0, len(raw))
	index := make(map[string]int, len(raw))
	skipped, duplicates := 0, 0

	for _, r := range raw {
		c, ok := s.enricher.Enrich(r, rates, refreshedAt)
		if !ok {
			skipped++
			continue
		}

		if i, seen := index[c.Name]; seen {
			countries[i] = c
			duplicates++
			continue
		}

		index[c.Name] = len(countries)
		countries = append(countries, c)
	}

	if skipped > 0 || duplicates > 0 {
		run.logger.Warn("dropped upstream records",
			"skipped", skipped,
			"duplicates", duplicates,
		)
	}

	return countries, skipped
}

// renderSummary reads the freshly written state through the open transaction.
func (s *RefreshService) renderSummary(ctx context.Context) ([]byte, error) {
	top, err := s.countries.TopByGDP(ctx, summaryTopN)
	if err != nil {
		return nil, fmt.Errorf("read top countries: %w", err)
	}

	status, err := s.status.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("read status: %w", err)
	}

	var at time.Time
	if status.LastRefreshedAt != nil {
		at = *status.LastRefreshedAt
	}

	image, err := s.renderer.Render(top, status.TotalCountries, at)
	if err != nil {
		return nil, fmt.Errorf("render summary: %w", err)
	}

	return image, nil
}

func (s *RefreshService) currentArtifact(ctx context.Context, run *refreshRun) ([]byte, bool) {
	data, err := s.artifacts.Get(ctx)
	if errors.Is(err, artifact.ErrNotFound) {
		return nil, false
	}
	if err != nil {
		run.logger.Warn("read previous artifact", "error", err)
		return nil, false
	}
	return data, true
}

// restoreArtifact puts back the previous image after a failed commit so the
// image keeps describing the committed rows.
func (s *RefreshService) restoreArtifact(ctx context.Context, run *refreshRun, previous []byte, ok bool) {
	if !ok {
		run.logger.Warn("commit failed after artifact write, no previous artifact to restore")
		return
	}
	if err := s.artifacts.Put(ctx, previous); err != nil {
		run.logger.Error("restore previous artifact", "error", err)
		return
	}
	run.logger.Info("restored previous artifact")
}

func (s *RefreshService) publish(ctx context.Context, run *refreshRun, result *domain.RefreshResult) {
	if s.publisher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.PublishRefresh(ctx, result); err != nil {
		metrics.RecordPublishError()
		run.logger.Warn("publish refresh event", "error", err)
	}
}

// classify maps errors that escaped the pipeline without a kind. Only the
// transaction manager produces those (begin or commit).
func classify(err error) error {
	if domain.KindOf(err) != domain.KindInternal {
		return err
	}
	return domain.Storage(err)
}
