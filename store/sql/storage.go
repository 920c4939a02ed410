package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goliatone/go-appclient/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Storage is a core.Storage backed by the appclient_storage table. Writes are
// single-statement upserts so concurrent flows never block each other.
type Storage struct {
	db   *bun.DB
	repo repository.Repository[*storageRecord]
	now  func() time.Time
}

var _ core.Storage = (*Storage)(nil)

func NewStorage(db *bun.DB) (*Storage, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*storageRecord](db, storageHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid storage repository wiring: %w", err)
		}
	}
	return &Storage{
		db:   db,
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	if s == nil || s.repo == nil {
		return "", false, fmt.Errorf("sqlstore: storage is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false, fmt.Errorf("sqlstore: storage key is required")
	}

	record, err := s.find(ctx, key)
	if err != nil || record == nil {
		return "", false, err
	}
	return record.Value, true, nil
}

func (s *Storage) Set(ctx context.Context, key string, value string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: storage is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("sqlstore: storage key is required")
	}

	record := &storageRecord{
		ID:        uuid.NewString(),
		Key:       key,
		Value:     value,
		UpdatedAt: s.now(),
	}
	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (storage_key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Storage) Remove(ctx context.Context, key string) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: storage is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	record, err := s.find(ctx, key)
	if err != nil || record == nil {
		return err
	}
	return s.repo.Delete(ctx, record)
}

func (s *Storage) find(ctx context.Context, key string) (*storageRecord, error) {
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("storage_key", "=", key),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// Prune deletes entries under prefix that were last written before cutoff.
// Flows abandoned by a crashed process leave such entries behind.
func (s *Storage) Prune(ctx context.Context, prefix string, cutoff time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: storage is not configured")
	}
	query := s.db.NewDelete().
		Model((*storageRecord)(nil)).
		Where("updated_at < ?", cutoff.UTC())
	if prefix != "" {
		query = query.Where("substr(storage_key, 1, ?) = ?", utf8.RuneCountInString(prefix), prefix)
	}
	result, err := query.Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return affected, nil
}
