// Package dispatchrunner runs the letter dispatch worker: it claims waiting
// letters, merges per-recipient fields into the shipment's template, converts
// the result to the delivery format, and hands the document to the Digital
// Post API.
package dispatchrunner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/openpostbud/postbud/internal/core"
	"github.com/openpostbud/postbud/internal/data"
	"github.com/openpostbud/postbud/internal/data/cryptoutil"
	"github.com/openpostbud/postbud/internal/docmerge"
	"github.com/openpostbud/postbud/internal/domain/model"
	"github.com/openpostbud/postbud/internal/observability/metrics"
	"github.com/openpostbud/postbud/internal/observability/statsd"
	"github.com/openpostbud/postbud/internal/ports"
	"github.com/openpostbud/postbud/internal/service"
	"github.com/openpostbud/postbud/internal/serviceplatform"
)

// DocumentConverter converts a merged document into the delivery format.
type DocumentConverter interface {
	Convert(ctx context.Context, doc []byte, targetFormat string) ([]byte, error)
}

// RunnerOptions configures the letter dispatch runner.
type RunnerOptions struct {
	DB          *sql.DB
	RedisClient redis.UniversalClient // optional template cache backend
	Logger      *slog.Logger

	// Sender delivers finished letters. Required.
	Sender ports.PostSender

	// Converter produces the delivery format. Required.
	Converter DocumentConverter

	// Encryptor protects recipient fields at rest. Required when repos are
	// built from DB.
	Encryptor cryptoutil.Encryptor

	TargetFormat string        // delivery format; defaults to "pdf"
	TemplateTTL  time.Duration // template cache TTL
	Concurrency  int           // number of worker goroutines; defaults to 1
	PollInterval time.Duration // sleep between claims on an empty queue; defaults to 5s

	// Optional dependency injections (useful for tests/decoupling)
	Letters   core.LetterRepository
	Shipments core.ShipmentRepository
	Templates *service.TemplateService
	Metrics   statsd.Sink
}

// Runner pulls letters and pushes merged, converted documents to the delivery API.
type Runner struct {
	letters   core.LetterRepository
	shipments core.ShipmentRepository
	templates *service.TemplateService
	converter DocumentConverter
	sender    ports.PostSender
	format    string
	logger    *slog.Logger
	workers   int
	poll      time.Duration
	metrics   statsd.Sink
}

// NewRunner wires repositories and constructs a letter dispatch runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Sender == nil {
		return nil, errors.New("post sender is required")
	}
	if opts.Converter == nil {
		return nil, errors.New("document converter is required")
	}
	if opts.DB == nil && (opts.Letters == nil || opts.Shipments == nil || opts.Templates == nil) {
		return nil, errors.New("either DB or letter, shipment, and template dependencies must be provided")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := opts.Concurrency
	if workers <= 0 {
		workers = 1
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = 5 * time.Second
	}
	format := opts.TargetFormat
	if format == "" {
		format = "pdf"
	}

	letters := opts.Letters
	if letters == nil {
		if opts.Encryptor == nil {
			return nil, errors.New("encryptor is required to build the letter repository")
		}
		letters = data.NewLetterRepo(opts.DB, opts.Encryptor, data.RepoConfig{Logger: logger})
	}
	shipments := opts.Shipments
	if shipments == nil {
		shipments = data.NewShipmentRepo(opts.DB, data.RepoConfig{Logger: logger})
	}
	templates := opts.Templates
	if templates == nil {
		var cache core.TemplateCache
		if opts.RedisClient != nil {
			cache = data.NewRedisTemplateCache(opts.RedisClient, opts.TemplateTTL)
		}
		svc, err := service.NewTemplateService(service.TemplateServiceOptions{
			Repo:   data.NewTemplateRepo(opts.DB),
			Cache:  cache,
			Logger: logger,
		})
		if err != nil {
			return nil, fmt.Errorf("build template service: %w", err)
		}
		templates = svc
	}

	return &Runner{
		letters:   letters,
		shipments: shipments,
		templates: templates,
		converter: opts.Converter,
		sender:    opts.Sender,
		format:    format,
		logger:    logger,
		workers:   workers,
		poll:      poll,
		metrics:   opts.Metrics,
	}, nil
}

// Run starts worker goroutines and processes letters until the context is
// cancelled or a handler fails. A handler error stops the whole runner; the
// claimed letter is marked failed and the process restarts.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting dispatch runner",
		"workers", r.workers,
		"poll_interval", r.poll,
		"target_format", r.format,
	)

	g, ctx := errgroup.WithContext(ctx)
	for range r.workers {
		g.Go(func() error {
			return r.workerLoop(ctx)
		})
	}
	return g.Wait()
}

func (r *Runner) workerLoop(ctx context.Context) error {
	for ctx.Err() == nil {
		letter, err := r.letters.ClaimNext(ctx)
		switch {
		case err == nil:
			if handleErr := r.processLetter(ctx, letter); handleErr != nil {
				return handleErr
			}
		case errors.Is(err, model.ErrNoItemsAvailable):
			if !r.sleep(ctx) {
				return ctx.Err()
			}
		default:
			return fmt.Errorf("claim letter: %w", err)
		}
	}
	return ctx.Err()
}

func (r *Runner) sleep(ctx context.Context) bool {
	timer := time.NewTimer(r.poll)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (r *Runner) processLetter(ctx context.Context, letter *model.Letter) error {
	start := time.Now()

	document, shipmentName, err := r.buildDocument(ctx, letter)
	if err != nil {
		return r.failLetter(ctx, letter.ID, start, err)
	}

	msg := r.sender.NewMessage(shipmentName, letter.RecipientID, []serviceplatform.File{{
		Filename: "letter." + r.format,
		Language: "DA",
		MIMEType: mimeTypeFor(r.format),
		Content:  document,
	}})

	transactionID, err := r.sender.Send(ctx, msg)
	if err != nil {
		return r.failLetter(ctx, letter.ID, start, fmt.Errorf("send letter: %w", err))
	}

	sent, err := r.letters.MarkSent(ctx, letter.ID, transactionID)
	if err != nil {
		return r.failLetter(ctx, letter.ID, start, fmt.Errorf("mark sent: %w", err))
	}

	result := metrics.ResultNoop
	if sent {
		result = metrics.ResultSuccess
	}
	metrics.EmitWorkItem(r.metrics, metrics.WorkItemMetric{
		Queue:      "letter",
		Transition: string(model.LetterStatusSent),
		Result:     result,
		Duration:   time.Since(start),
	})
	return nil
}

// buildDocument merges the letter's fields into the shipment template and
// converts the result to the delivery format.
func (r *Runner) buildDocument(ctx context.Context, letter *model.Letter) ([]byte, string, error) {
	shipment, err := r.shipments.GetByID(ctx, letter.ShipmentID)
	if err != nil {
		return nil, "", fmt.Errorf("load shipment %d: %w", letter.ShipmentID, err)
	}

	template, err := r.templates.Bytes(ctx, shipment.TemplateID)
	if err != nil {
		return nil, "", fmt.Errorf("load template %d: %w", shipment.TemplateID, err)
	}

	merged := docmerge.Merge(template, letter.FieldData)

	converted, err := r.converter.Convert(ctx, merged, r.format)
	if err != nil {
		return nil, "", fmt.Errorf("convert document: %w", err)
	}
	return converted, shipment.Name, nil
}

// failLetter marks the letter failed (best effort) and returns the handler
// error so the runner stops.
func (r *Runner) failLetter(ctx context.Context, id int64, start time.Time, cause error) error {
	if _, failErr := r.letters.Fail(ctx, id); failErr != nil {
		r.logger.ErrorContext(ctx, "mark letter failed error", "letter_id", id, "error", failErr, "original_error", cause)
	}
	metrics.EmitWorkItem(r.metrics, metrics.WorkItemMetric{
		Queue:      "letter",
		Transition: string(model.LetterStatusFailed),
		Result:     metrics.ResultError,
		Duration:   time.Since(start),
	})
	return fmt.Errorf("letter %d: %w", id, cause)
}

func mimeTypeFor(format string) string {
	switch format {
	case "pdf":
		return "application/pdf"
	case "html":
		return "text/html"
	case "txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
