package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/artpar/brushkit/domain/preset"
	"github.com/artpar/brushkit/ports"
)

// ErrHasChildren is returned when deleting a preset other presets inherit from.
var ErrHasChildren = ports.ErrHasChildren

// PresetStore implements ports.PresetStore with SQLite.
type PresetStore struct {
	db *DB
}

// NewPresetStore creates a new SQLite preset store.
func NewPresetStore(db *DB) *PresetStore {
	return &PresetStore{db: db}
}

// Ensure interface compliance.
var _ ports.PresetStore = (*PresetStore)(nil)

const presetColumns = `id, name, scope, tool, parent_id, data, created_at, updated_at`

// Get retrieves a preset by ID.
func (s *PresetStore) Get(ctx context.Context, id string) (preset.Preset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+presetColumns+` FROM presets WHERE id = ?`, id)
	return scanPreset(row)
}

// GetByName retrieves a preset by its unique name.
func (s *PresetStore) GetByName(ctx context.Context, name string) (preset.Preset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+presetColumns+` FROM presets WHERE name = ?`, name)
	return scanPreset(row)
}

// List returns all presets ordered by name.
func (s *PresetStore) List(ctx context.Context) ([]preset.Preset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+presetColumns+` FROM presets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	return collectPresets(rows)
}

// ListChildren returns the presets whose parent is parentID, ordered by name.
func (s *PresetStore) ListChildren(ctx context.Context, parentID string) ([]preset.Preset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+presetColumns+` FROM presets WHERE parent_id = ? ORDER BY name`, parentID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return collectPresets(rows)
}

// Create stores a new preset.
func (s *PresetStore) Create(ctx context.Context, p preset.Preset) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO presets (`+presetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, string(p.Scope), p.Tool, nullString(p.ParentID), blob(p.Data),
		p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("preset %q: %w", p.Name, ports.ErrDuplicate)
		}
		if isForeignKeyError(err) {
			return fmt.Errorf("parent %s: %w", p.ParentID, ports.ErrNotFound)
		}
		return fmt.Errorf("insert preset: %w", err)
	}
	return nil
}

// Update replaces an existing preset. CreatedAt is never changed.
func (s *PresetStore) Update(ctx context.Context, p preset.Preset) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE presets
		SET name = ?, scope = ?, tool = ?, parent_id = ?, data = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, string(p.Scope), p.Tool, nullString(p.ParentID), blob(p.Data), p.UpdatedAt.UTC(), p.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("preset %q: %w", p.Name, ports.ErrDuplicate)
		}
		if isForeignKeyError(err) {
			return fmt.Errorf("parent %s: %w", p.ParentID, ports.ErrNotFound)
		}
		return fmt.Errorf("update preset: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// Delete removes a preset. Presets that still have children are kept.
func (s *PresetStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM presets WHERE id = ?`, id)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("delete %s: %w", id, ErrHasChildren)
		}
		return fmt.Errorf("delete preset: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPreset(row scanner) (preset.Preset, error) {
	var (
		p         preset.Preset
		scope     string
		parentID  sql.NullString
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(&p.ID, &p.Name, &scope, &p.Tool, &parentID, &p.Data, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return preset.Preset{}, ports.ErrNotFound
	}
	if err != nil {
		return preset.Preset{}, fmt.Errorf("scan preset: %w", err)
	}

	p.Scope = preset.Scope(scope)
	p.ParentID = parentID.String
	p.CreatedAt = createdAt.UTC()
	p.UpdatedAt = updatedAt.UTC()
	return p, nil
}

func collectPresets(rows *sql.Rows) ([]preset.Preset, error) {
	defer rows.Close()

	var out []preset.Preset
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func blob(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
