// Package pipeline drives a batch scoring run: load customers from the
// source, score them across a worker pool, and fan the results out to the
// configured sinks.
package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"retention-engine/internal/common/config"
	stderrors "retention-engine/internal/common/errors"
	"retention-engine/internal/common/logger"
	"retention-engine/internal/common/metrics"
	"retention-engine/internal/models"
	"retention-engine/internal/scoring"
)

// Source yields the customer records for one run.
type Source interface {
	ListCustomers(ctx context.Context) ([]models.CustomerRecord, error)
}

// Sink receives the fully scored batch.
type Sink interface {
	Name() string
	WriteScored(ctx context.Context, customers []models.ScoredCustomer) error
}

// Checkpointer records batch progress so interrupted runs can be inspected.
type Checkpointer interface {
	SetCheckpoint(ctx context.Context, runID string, processed int) error
	SetSummary(ctx context.Context, summary models.BatchSummary) error
}

// Alerter is notified of the scored batch after all sinks succeed.
type Alerter interface {
	AlertBatch(ctx context.Context, runID string, customers []models.ScoredCustomer) error
}

// Pipeline wires the engine to its source and sinks.
type Pipeline struct {
	engine      *scoring.Engine
	source      Source
	sinks       []Sink
	checkpoints Checkpointer
	alerter     Alerter
	cfg         config.PipelineConfig
	log         logger.Logger
}

// Option configures optional pipeline collaborators.
type Option func(*Pipeline)

// WithCheckpointer enables Redis progress markers.
func WithCheckpointer(c Checkpointer) Option {
	return func(p *Pipeline) { p.checkpoints = c }
}

// WithAlerter enables post-run intervention alerts.
func WithAlerter(a Alerter) Option {
	return func(p *Pipeline) { p.alerter = a }
}

// New assembles a pipeline. At least one sink is expected; zero sinks score
// and summarize without persisting, which is useful for dry runs.
func New(engine *scoring.Engine, source Source, sinks []Sink, cfg config.PipelineConfig, log logger.Logger, opts ...Option) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	p := &Pipeline{
		engine: engine,
		source: source,
		sinks:  sinks,
		cfg:    cfg,
		log:    log.WithFields(map[string]interface{}{"component": "pipeline"}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type scoreResult struct {
	scored *models.ScoredCustomer
	err    error
	id     int64
}

// Run executes one full batch and returns its summary. Under the "skip"
// policy invalid records are counted and dropped; under "abort" the first
// invalid record fails the whole run and nothing is written.
func (p *Pipeline) Run(ctx context.Context) (models.BatchSummary, error) {
	runID := uuid.New().String()
	start := time.Now()
	log := p.log.WithFields(map[string]interface{}{"runId": runID})

	summary := models.BatchSummary{
		RunID:      runID,
		ByCategory: make(map[models.RiskCategory]int),
		ByPriority: make(map[models.InterventionPriority]int),
	}

	records, err := p.source.ListCustomers(ctx)
	if err != nil {
		return summary, err
	}
	summary.Total = len(records)
	log.Info("Batch run started", map[string]interface{}{
		"records": len(records),
		"workers": p.cfg.Workers,
		"policy":  p.cfg.OnInvalidRecord,
	})

	scored, rejected, err := p.scoreAll(ctx, log, runID, records)
	if err != nil {
		return summary, err
	}

	summary.Scored = len(scored)
	summary.Rejected = rejected
	for _, c := range scored {
		summary.ByCategory[c.RiskCategory]++
		summary.ByPriority[c.InterventionPriority]++
		if c.RiskCategory == models.RiskCritical || c.RiskCategory == models.RiskHigh {
			summary.RevenueAtRisk += c.AvgAdditionalChargesTotal
		}
	}

	for _, sink := range p.sinks {
		if err := sink.WriteScored(ctx, scored); err != nil {
			log.WithError(err).Error("Sink write failed", map[string]interface{}{"sink": sink.Name()})
			return summary, err
		}
	}

	if p.alerter != nil {
		if err := p.alerter.AlertBatch(ctx, runID, scored); err != nil {
			// Alerts are best-effort; the scored data is already persisted.
			log.WithError(err).Warn("Intervention alerting failed", nil)
		}
	}

	summary.DurationSeconds = time.Since(start).Seconds()
	metrics.BatchDuration.Observe(summary.DurationSeconds)

	if p.checkpoints != nil {
		if err := p.checkpoints.SetSummary(ctx, summary); err != nil {
			log.WithError(err).Warn("Failed to cache batch summary", nil)
		}
	}

	log.Info("Batch run finished", map[string]interface{}{
		"scored":        summary.Scored,
		"rejected":      summary.Rejected,
		"revenueAtRisk": summary.RevenueAtRisk,
		"seconds":       summary.DurationSeconds,
	})
	return summary, nil
}

// scoreAll fans records across the worker pool and collects results in
// customer-ID order.
func (p *Pipeline) scoreAll(ctx context.Context, log logger.Logger, runID string, records []models.CustomerRecord) ([]models.ScoredCustomer, int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan models.CustomerRecord)
	results := make(chan scoreResult)

	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				scored, err := p.engine.Score(&rec)
				select {
				case results <- scoreResult{scored: scored, err: err, id: rec.CustomerID}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, rec := range records {
			select {
			case jobs <- rec:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var bar *progressbar.ProgressBar
	if p.cfg.ProgressBar {
		bar = progressbar.Default(int64(len(records)), "scoring")
	}

	abort := p.cfg.OnInvalidRecord == "abort"
	scored := make([]models.ScoredCustomer, 0, len(records))
	rejected := 0
	processed := 0

	for res := range results {
		processed++
		if bar != nil {
			bar.Add(1)
		}

		if res.err != nil {
			if !stderrors.IsInvalidInput(res.err) {
				cancel()
				return nil, 0, res.err
			}
			if abort {
				cancel()
				return nil, 0, stderrors.NewBatchAbortedError(res.id, res.err)
			}
			rejected++
			metrics.RecordsRejected.WithLabelValues(string(stderrors.CodeOf(res.err))).Inc()
			log.WithError(res.err).Warn("Record rejected", map[string]interface{}{"customerId": res.id})
			continue
		}

		scored = append(scored, *res.scored)
		metrics.RecordsScored.WithLabelValues(string(res.scored.RiskCategory)).Inc()

		if p.checkpoints != nil && p.cfg.CheckpointInterval > 0 && processed%p.cfg.CheckpointInterval == 0 {
			if err := p.checkpoints.SetCheckpoint(ctx, runID, processed); err != nil {
				log.WithError(err).Warn("Checkpoint write failed", nil)
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	// Workers finish out of order; keep sink output deterministic.
	sort.Slice(scored, func(i, j int) bool {
		return scored[i].CustomerID < scored[j].CustomerID
	})
	return scored, rejected, nil
}
