package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"transaction-service/internal/models"
	"transaction-service/internal/query"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// insertChunk bounds the rows per INSERT statement so the bind parameter
// count stays under the protocol limit of 65535.
const insertChunk = 1000

// PostgresStore keeps transactions in a PostgreSQL table
type PostgresStore struct {
	db *sqlx.DB
}

// pgRow maps the tags array column, which sqlx cannot scan into []string
type pgRow struct {
	models.Transaction
	Tags pq.StringArray `db:"tags"`
}

func toRow(t models.Transaction) pgRow {
	return pgRow{Transaction: t, Tags: pq.StringArray(t.Tags)}
}

func (r pgRow) toModel() models.Transaction {
	t := r.Transaction
	t.Tags = models.CleanTags(r.Tags)
	t.Date = t.Date.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t
}

// NewPostgresStore creates a new database store
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromDB wraps an existing connection
func NewPostgresStoreFromDB(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close closes the database connection
func (s *PostgresStore) Close(context.Context) error {
	return s.db.Close()
}

// Ping checks the connection
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureIndexes creates the table and its indexes when missing
func (s *PostgresStore) EnsureIndexes(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Create inserts a new transaction
func (s *PostgresStore) Create(ctx context.Context, t *models.Transaction) error {
	t.ID = uuid.NewString()
	stamp(t, now())

	if _, err := s.db.NamedExecContext(ctx, insertSQL, toRow(*t)); err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// Update applies a patch and returns the updated row
func (s *PostgresStore) Update(ctx context.Context, id string, patch models.TransactionPatch) (*models.Transaction, error) {
	changes, err := patch.Changes()
	if err != nil {
		return nil, err
	}

	stmt, args := buildUpdate(id, changes, now())

	var row pgRow
	err = s.db.GetContext(ctx, &row, stmt, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction %s: %w", id, err)
	}

	t := row.toModel()
	return &t, nil
}

// Delete removes a transaction and returns it
func (s *PostgresStore) Delete(ctx context.Context, id string) (*models.Transaction, error) {
	var row pgRow
	err := s.db.GetContext(ctx, &row, "DELETE FROM transactions WHERE id = $1 RETURNING *", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete transaction %s: %w", id, err)
	}

	t := row.toModel()
	return &t, nil
}

// Find returns one page of matching transactions
func (s *PostgresStore) Find(ctx context.Context, spec query.Spec) ([]models.Transaction, error) {
	where, args := buildWhere(spec.Filter)
	stmt := fmt.Sprintf("SELECT * FROM transactions%s ORDER BY %s LIMIT $%d OFFSET $%d",
		where, orderBy(spec.Sort), len(args)+1, len(args)+2)
	args = append(args, spec.Limit, spec.Skip)

	var rows []pgRow
	if err := s.db.SelectContext(ctx, &rows, stmt, args...); err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}

	out := make([]models.Transaction, len(rows))
	for i, row := range rows {
		out[i] = row.toModel()
	}
	return out, nil
}

// Count returns the number of matching transactions
func (s *PostgresStore) Count(ctx context.Context, filter query.Filter) (int64, error) {
	where, args := buildWhere(filter)

	var n int64
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM transactions"+where, args...); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return n, nil
}

// EstimatedCount reads the planner's row estimate, falling back to an exact
// count for a table that has never been analyzed.
func (s *PostgresStore) EstimatedCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.GetContext(ctx, &n,
		"SELECT reltuples::bigint FROM pg_class WHERE oid = 'transactions'::regclass")
	if err != nil {
		return 0, fmt.Errorf("failed to estimate transaction count: %w", err)
	}
	if n < 0 {
		return s.Count(ctx, query.Filter{})
	}
	return n, nil
}

// Distinct lists the distinct non-empty values of a column
func (s *PostgresStore) Distinct(ctx context.Context, field string) ([]string, error) {
	if err := checkDistinctField(field); err != nil {
		return nil, err
	}
	col := columns[field]

	var values []string
	stmt := fmt.Sprintf("SELECT DISTINCT %s FROM transactions WHERE %s <> '' ORDER BY %s", col, col, col)
	if err := s.db.SelectContext(ctx, &values, stmt); err != nil {
		return nil, fmt.Errorf("failed to list distinct %s: %w", field, err)
	}
	return compactSorted(values), nil
}

// Stats sums units and amounts over the whole table
func (s *PostgresStore) Stats(ctx context.Context) (*models.Stats, error) {
	var row struct {
		TotalUnits  int64   `db:"total_units"`
		TotalAmount float64 `db:"total_amount"`
	}
	err := s.db.GetContext(ctx, &row,
		"SELECT COALESCE(SUM(quantity), 0) AS total_units, COALESCE(SUM(total_amount), 0) AS total_amount FROM transactions")
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stats: %w", err)
	}
	return &models.Stats{TotalUnits: row.TotalUnits, TotalAmount: row.TotalAmount}, nil
}

// InsertMany inserts records in a single database transaction
func (s *PostgresStore) InsertMany(ctx context.Context, records []models.Transaction) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	ts := now()
	rows := make([]pgRow, len(records))
	for i, t := range records {
		t.ID = uuid.NewString()
		stamp(&t, ts)
		rows[i] = toRow(t)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for start := 0; start < len(rows); start += insertChunk {
		end := min(start+insertChunk, len(rows))
		if _, err := tx.NamedExecContext(ctx, insertSQL, rows[start:end]); err != nil {
			return 0, fmt.Errorf("failed to insert batch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit batch: %w", err)
	}
	return len(rows), nil
}

// DeleteAll removes every transaction
func (s *PostgresStore) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM transactions")
	if err != nil {
		return 0, fmt.Errorf("failed to clear transactions: %w", err)
	}
	return res.RowsAffected()
}

// NewestIDs returns the ids of the n most recent transactions by date
func (s *PostgresStore) NewestIDs(ctx context.Context, n int) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids,
		"SELECT id FROM transactions ORDER BY date DESC, id DESC LIMIT $1", n)
	if err != nil {
		return nil, fmt.Errorf("failed to list newest transactions: %w", err)
	}
	return ids, nil
}

// DeleteExcept removes every transaction not listed in keep
func (s *PostgresStore) DeleteExcept(ctx context.Context, keep []string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM transactions WHERE NOT (id = ANY($1))", pq.Array(keep))
	if err != nil {
		return 0, fmt.Errorf("failed to prune transactions: %w", err)
	}
	return res.RowsAffected()
}
