package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.RecordStorage = RecordsRepository{}

// RecordsRepository keeps shopper records in the "records" table.
type RecordsRepository struct {
	sqldb sqldb
	now   func() time.Time
}

func NewRecordsRepository(sqldb sqldb) RecordsRepository {
	return RecordsRepository{sqldb: sqldb, now: time.Now}
}

func (r RecordsRepository) LoadRecord(
	ctx context.Context, owner, name string,
) ([]byte, error) {
	const op = "RecordsRepository.LoadRecord"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT value FROM records WHERE owner = $1 AND name = $2;`

	var value []byte
	err := r.sqldb.QueryRowContext(ctx, query, owner, name).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, domain.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return value, nil
}

func (r RecordsRepository) SaveRecord(
	ctx context.Context, owner, name string, value []byte,
) error {
	const op = "RecordsRepository.SaveRecord"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO records (owner, name, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner, name) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at;
	`

	_, err := r.sqldb.ExecContext(ctx, query,
		owner, name, value, r.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("%s: failed to exec: %w", op, err)
	}
	return nil
}

func (r RecordsRepository) DeleteRecords(ctx context.Context, owner string) error {
	const op = "RecordsRepository.DeleteRecords"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err := r.sqldb.ExecContext(ctx, `DELETE FROM records WHERE owner = $1;`, owner)
	if err != nil {
		return fmt.Errorf("%s: failed to exec: %w", op, err)
	}
	return nil
}
