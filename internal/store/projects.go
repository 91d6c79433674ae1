package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/construction-pricing/internal/config"
	"github.com/iwvelando/construction-pricing/pkg/plan"
	"go.uber.org/zap"
)

// ErrNotFound is returned when no project has the requested ID.
var ErrNotFound = errors.New("project not found")

// ErrInvalidProject is returned when a project cannot be stored as given.
var ErrInvalidProject = errors.New("invalid project")

// timeLayout keeps stored timestamps lexically ordered.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Settings are the pricing parameters of a stored project.
type Settings struct {
	DirectCost         float64           `json:"directCost,omitempty"`
	NetProfitMargin    float64           `json:"netProfitMargin"`
	IndirectCosts      map[string]string `json:"indirectCosts"`
	Taxes              map[string]string `json:"taxes"`
	AnnualInterestRate string            `json:"annualInterestRate,omitempty"`
	FinancingLevels    []float64         `json:"financingLevels,omitempty"`
	ProfitScenarios    []float64         `json:"profitScenarios,omitempty"`
}

// Project is a stored construction project.
type Project struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Client    string     `json:"client"`
	Settings  Settings   `json:"settings"`
	Plan      *plan.Plan `json:"plan,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Configuration converts the project into the configuration priced by the
// report builder. Missing component maps take the defaults.
func (p Project) Configuration() *config.Configuration {
	conf := &config.Configuration{
		Project: config.Project{
			Name:            p.Name,
			Client:          p.Client,
			Plan:            p.Plan,
			DirectCost:      p.Settings.DirectCost,
			NetProfitMargin: p.Settings.NetProfitMargin,
			IndirectCosts:   p.Settings.IndirectCosts,
			Taxes:           p.Settings.Taxes,
		},
		Financing: config.Financing{
			AnnualInterestRate: p.Settings.AnnualInterestRate,
			Levels:             p.Settings.FinancingLevels,
			Scenarios:          p.Settings.ProfitScenarios,
		},
	}
	if conf.Project.IndirectCosts == nil {
		conf.Project.IndirectCosts = config.DefaultIndirectCosts()
	}
	if conf.Project.Taxes == nil {
		conf.Project.Taxes = config.DefaultTaxes()
	}
	return conf
}

// Repository stores projects in a migrated SQLite database.
type Repository struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewRepository returns a repository over db.
func NewRepository(db *sql.DB, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new project under a fresh ID.
func (r *Repository) Create(ctx context.Context, p Project) (Project, error) {
	if err := validateProject(p); err != nil {
		return Project{}, err
	}

	p.ID = uuid.NewString()
	p.CreatedAt = r.now()
	p.UpdatedAt = p.CreatedAt

	settings, planJSON, err := encodeProject(p)
	if err != nil {
		return Project{}, err
	}

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, client, settings_json, plan_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Client, settings, planJSON, p.CreatedAt.Format(timeLayout), p.UpdatedAt.Format(timeLayout)); err != nil {
		return Project{}, fmt.Errorf("insert project: %w", err)
	}

	r.logger.Debug("created project",
		zap.String("op", "store.Create"),
		zap.String("id", p.ID),
		zap.String("name", p.Name),
	)
	return p, nil
}

// Get returns the project with the given ID.
func (r *Repository) Get(ctx context.Context, id string) (Project, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Project{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, client, settings_json, plan_json, created_at, updated_at
		FROM projects
		WHERE id = ?
	`, id)

	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, ErrNotFound
	}
	if err != nil {
		return Project{}, fmt.Errorf("get project %s: %w", id, err)
	}
	return p, nil
}

// List returns the projects whose name or client contains query, most
// recently updated first. Matching is a literal substring match that ignores
// case, accents included ("ção" matches "AÇÃO"). An empty query lists every
// project.
func (r *Repository) List(ctx context.Context, query string) ([]Project, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, client, settings_json, plan_json, created_at, updated_at
		FROM projects
		ORDER BY updated_at DESC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	projects := make([]Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("list projects: %w", err)
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Client), needle) {
			continue
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// Update replaces the stored project with the same ID, keeping its creation
// time.
func (r *Repository) Update(ctx context.Context, p Project) (Project, error) {
	if err := validateProject(p); err != nil {
		return Project{}, err
	}

	existing, err := r.Get(ctx, p.ID)
	if err != nil {
		return Project{}, err
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = r.now()

	settings, planJSON, err := encodeProject(p)
	if err != nil {
		return Project{}, err
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE projects
		SET name = ?, client = ?, settings_json = ?, plan_json = ?, updated_at = ?
		WHERE id = ?
	`, p.Name, p.Client, settings, planJSON, p.UpdatedAt.Format(timeLayout), p.ID)
	if err != nil {
		return Project{}, fmt.Errorf("update project %s: %w", p.ID, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return Project{}, ErrNotFound
	}

	r.logger.Debug("updated project",
		zap.String("op", "store.Update"),
		zap.String("id", p.ID),
	)
	return p, nil
}

// Delete removes the project with the given ID.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}

	r.logger.Debug("deleted project",
		zap.String("op", "store.Delete"),
		zap.String("id", id),
	)
	return nil
}

func validateProject(p Project) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProject)
	}
	return nil
}

func encodeProject(p Project) (string, sql.NullString, error) {
	settings, err := json.Marshal(p.Settings)
	if err != nil {
		return "", sql.NullString{}, fmt.Errorf("encode project settings: %w", err)
	}

	var planJSON sql.NullString
	if p.Plan != nil {
		raw, err := json.Marshal(p.Plan)
		if err != nil {
			return "", sql.NullString{}, fmt.Errorf("encode project plan: %w", err)
		}
		planJSON = sql.NullString{String: string(raw), Valid: true}
	}
	return string(settings), planJSON, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner) (Project, error) {
	var (
		p                    Project
		settings             string
		planJSON             sql.NullString
		createdAt, updatedAt string
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Client, &settings, &planJSON, &createdAt, &updatedAt); err != nil {
		return Project{}, err
	}

	if err := json.Unmarshal([]byte(settings), &p.Settings); err != nil {
		return Project{}, fmt.Errorf("decode settings of project %s: %w", p.ID, err)
	}
	if planJSON.Valid {
		p.Plan = &plan.Plan{}
		if err := json.Unmarshal([]byte(planJSON.String), p.Plan); err != nil {
			return Project{}, fmt.Errorf("decode plan of project %s: %w", p.ID, err)
		}
	}

	var err error
	if p.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return Project{}, fmt.Errorf("decode creation time of project %s: %w", p.ID, err)
	}
	if p.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return Project{}, fmt.Errorf("decode update time of project %s: %w", p.ID, err)
	}
	return p, nil
}
