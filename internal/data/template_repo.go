package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openpostbud/postbud/internal/domain/model"
)

// TemplateRepo provides database operations for letter templates.
type TemplateRepo struct {
	DB *sql.DB
}

// NewTemplateRepo creates a new TemplateRepo.
func NewTemplateRepo(db *sql.DB) *TemplateRepo {
	return &TemplateRepo{DB: db}
}

// Create stores a template with its declared merge-field names and returns its id.
func (r *TemplateRepo) Create(ctx context.Context, fileName string, fileData []byte, fieldNames []string) (int64, error) {
	if len(fileData) == 0 {
		return 0, errors.New("template file data is required")
	}
	if fieldNames == nil {
		fieldNames = []string{}
	}
	names, err := json.Marshal(fieldNames)
	if err != nil {
		return 0, fmt.Errorf("marshal field names: %w", err)
	}

	var id int64
	if err := r.DB.QueryRowContext(ctx, `
		INSERT INTO templates (file_name, file_data, field_names)
		VALUES ($1, $2, $3)
		RETURNING id
	`, fileName, fileData, names).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert template: %w", err)
	}
	return id, nil
}

// GetByID returns a single template.
func (r *TemplateRepo) GetByID(ctx context.Context, id int64) (*model.Template, error) {
	tpl := &model.Template{}
	var names []byte
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, file_name, file_data, field_names
		FROM templates
		WHERE id = $1
	`, id).Scan(&tpl.ID, &tpl.FileName, &tpl.FileData, &names)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("template %d: %w", id, ErrTemplateNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	if err := json.Unmarshal(names, &tpl.FieldNames); err != nil {
		return nil, fmt.Errorf("unmarshal field names for template %d: %w", id, err)
	}
	return tpl, nil
}

// GetBytes returns just the template file bytes, for callers that only merge.
func (r *TemplateRepo) GetBytes(ctx context.Context, id int64) ([]byte, error) {
	var data []byte
	err := r.DB.QueryRowContext(ctx, `SELECT file_data FROM templates WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("template %d: %w", id, ErrTemplateNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get template bytes: %w", err)
	}
	return data, nil
}
