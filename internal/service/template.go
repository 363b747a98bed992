package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openpostbud/postbud/internal/core"
	"github.com/openpostbud/postbud/internal/docmerge"
	"github.com/openpostbud/postbud/internal/domain/model"
)

// TemplateServiceOptions groups dependencies for TemplateService.
type TemplateServiceOptions struct {
	Repo   core.TemplateRepository
	Cache  core.TemplateCache // optional
	Logger *slog.Logger       // optional
}

// TemplateService stores letter templates and serves their bytes to the
// dispatch worker, with an optional read-through cache in front of the store.
type TemplateService struct {
	repo   core.TemplateRepository
	cache  core.TemplateCache
	logger *slog.Logger
}

// NewTemplateService constructs a new TemplateService.
func NewTemplateService(opts TemplateServiceOptions) (*TemplateService, error) {
	if opts.Repo == nil {
		return nil, errors.New("template repository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &TemplateService{
		repo:   opts.Repo,
		cache:  opts.Cache,
		logger: logger,
	}, nil
}

// Create stores a template and the merge-field names it declares.
func (s *TemplateService) Create(ctx context.Context, fileName string, fileData []byte) (int64, error) {
	if len(fileData) == 0 {
		return 0, errors.New("template file is empty")
	}

	fields := docmerge.Fields(fileData)
	id, err := s.repo.Create(ctx, fileName, fileData, fields)
	if err != nil {
		return 0, fmt.Errorf("store template: %w", err)
	}

	s.logger.InfoContext(ctx, "template stored", "template_id", id, "file_name", fileName, "fields", len(fields))
	return id, nil
}

// Get returns template metadata including its declared merge fields.
func (s *TemplateService) Get(ctx context.Context, id int64) (*model.Template, error) {
	return s.repo.GetByID(ctx, id)
}

// Bytes returns a template's raw bytes, preferring the cache. Cache failures
// fall through to the store; the worker never fails on a cold or broken cache.
func (s *TemplateService) Bytes(ctx context.Context, id int64) ([]byte, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err != nil {
			s.logger.WarnContext(ctx, "template cache read failed", "template_id", id, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	data, err := s.repo.GetBytes(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, id, data); err != nil {
			s.logger.WarnContext(ctx, "template cache write failed", "template_id", id, "error", err)
		}
	}
	return data, nil
}
