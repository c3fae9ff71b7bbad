package identity

import (
	"context"
	"errors"
	"fmt"

	"fleet-sync/core/reconcile"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore persists mappings in MySQL. Each Record/Remove is a single
// committed statement, so a crash can never lose an acknowledged write.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a database connection. Call Migrate once at startup.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the identity_mappings table.
func (s *GormStore) Migrate() error {
	if err := s.db.AutoMigrate(&mappingRow{}); err != nil {
		return fmt.Errorf("migrate identity_mappings: %w", err)
	}
	return nil
}

// Lookup returns the mapping for an externalId, or nil when absent.
func (s *GormStore) Lookup(ctx context.Context, externalID string) (*reconcile.Mapping, error) {
	var row mappingRow
	err := s.db.WithContext(ctx).First(&row, "external_id = ?", externalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup mapping %s: %w", externalID, err)
	}
	m := row.mapping()
	return &m, nil
}

// Record upserts a mapping. The primary key on external_id guarantees the
// store never holds two mappings for the same id.
func (s *GormStore) Record(ctx context.Context, m reconcile.Mapping) error {
	row := rowFromMapping(m)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return &WriteError{ExternalID: m.ExternalID, Err: err}
	}
	return nil
}

// Remove deletes a mapping. Deleting an absent key is not an error.
func (s *GormStore) Remove(ctx context.Context, externalID string) error {
	err := s.db.WithContext(ctx).
		Delete(&mappingRow{}, "external_id = ?", externalID).Error
	if err != nil {
		return &WriteError{ExternalID: externalID, Err: err}
	}
	return nil
}

// KnownExternalIDs returns every mapped externalId.
func (s *GormStore) KnownExternalIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&mappingRow{}).
		Order("external_id").
		Pluck("external_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list known external ids: %w", err)
	}
	return ids, nil
}

// All returns every mapping, ordered by externalId. Used by the state
// inspection command and the platform cross-check.
func (s *GormStore) All(ctx context.Context) ([]reconcile.Mapping, error) {
	var rows []mappingRow
	err := s.db.WithContext(ctx).Order("external_id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	mappings := make([]reconcile.Mapping, len(rows))
	for i, row := range rows {
		mappings[i] = row.mapping()
	}
	return mappings, nil
}
