package repository

import (
	"context"
	"fmt"
	"strings"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/domain/repository"
	"SignalDesk/internal/repository/migrations"
	applogger "SignalDesk/pkg/logger"
	pkgpg "SignalDesk/pkg/postgres"
)

// PostgresSignalStore keeps every signal in the signals table. Nothing is evicted on write;
// List bounds the result with LIMIT.
type PostgresSignalStore struct {
	client    *pkgpg.Client
	insertSQL string
	listSQL   string
	l         *applogger.Logger
}

func NewPostgresSignalStore(client *pkgpg.Client) *PostgresSignalStore {
	n := len(models.Columns())
	placeholders := make([]string, n)
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	cols := quotedColumns()
	return &PostgresSignalStore{
		client:    client,
		insertSQL: fmt.Sprintf(`INSERT INTO signals (%s) VALUES (%s)`, cols, strings.Join(placeholders, ", ")),
		listSQL:   fmt.Sprintf(`SELECT %s FROM signals ORDER BY "timestamp" DESC, created_at DESC LIMIT $1`, cols),
	}
}

// SetLogger injects a structured logger.
func (s *PostgresSignalStore) SetLogger(l *applogger.Logger) { s.l = l }

// Init applies the embedded schema migrations.
func (s *PostgresSignalStore) Init(ctx context.Context) error {
	if err := s.client.Migrate(migrations.Postgres, migrations.PostgresDir); err != nil {
		return fmt.Errorf("postgres signal store: %w", err)
	}
	return nil
}

func (s *PostgresSignalStore) Append(ctx context.Context, sig *models.Signal) (int, error) {
	tx, err := s.client.Pool().Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, s.insertSQL, signalArgs(sig)...); err != nil {
		if pkgpg.IsUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %s", repository.ErrDuplicateID, sig.ID)
		}
		if s.l != nil {
			s.l.Error("postgres insert signal failed", applogger.String("id", sig.ID), applogger.Error(err))
		}
		return 0, fmt.Errorf("insert signal: %w", err)
	}

	var total int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM signals`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count signals: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return total, nil
}

func (s *PostgresSignalStore) List(ctx context.Context, limit int) ([]*models.Signal, error) {
	if limit < 0 {
		limit = DefaultCapacity
	}
	rows, err := s.client.Pool().Query(ctx, s.listSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Signal, 0, limit)
	row := newSignalRow()
	for rows.Next() {
		if err := rows.Scan(row.dest...); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		sig, err := row.signal()
		if err != nil {
			return nil, err
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

func (s *PostgresSignalStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *PostgresSignalStore) Close() error {
	return s.client.Close()
}

var _ repository.SignalStore = (*PostgresSignalStore)(nil)
