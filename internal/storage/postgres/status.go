package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"country_fetcher/internal/domain"
)

// statusRowID is the id of the singleton refresh_status row created by migrations.
const statusRowID = 1

var errStatusRowMissing = errors.New("refresh status row missing")

type StatusStore struct {
	db *sqlx.DB
}

func NewStatusStore(db *sqlx.DB) *StatusStore {
	return &StatusStore{db: db}
}

func (s *StatusStore) Get(ctx context.Context) (*domain.RefreshStatus, error) {
	var status domain.RefreshStatus
	query := `
		SELECT total_countries, last_refreshed_at
		FROM refresh_status
		WHERE id = $1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &status, query, statusRowID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// Update overwrites the singleton row. It never inserts.
func (s *StatusStore) Update(ctx context.Context, total int64, refreshedAt time.Time) error {
	query := `
		UPDATE refresh_status
		SET total_countries = $1, last_refreshed_at = $2
		WHERE id = $3`

	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, total, refreshedAt, statusRowID)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errStatusRowMissing
	}
	return nil
}
