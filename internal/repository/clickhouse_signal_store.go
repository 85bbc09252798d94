package repository

import (
	"context"
	"fmt"
	"strings"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/domain/repository"
	pkgch "SignalDesk/pkg/clickhouse"
	applogger "SignalDesk/pkg/logger"
)

// ClickHouseSignalStore keeps signals in a ReplacingMergeTree keyed by id. Reads use FINAL,
// so a re-sent id replaces the earlier row instead of being rejected.
type ClickHouseSignalStore struct {
	client *pkgch.Client
	table  string
	l      *applogger.Logger
}

func NewClickHouseSignalStore(client *pkgch.Client) *ClickHouseSignalStore {
	return &ClickHouseSignalStore{client: client, table: client.Database() + ".signals"}
}

// SetLogger injects a structured logger.
func (s *ClickHouseSignalStore) SetLogger(l *applogger.Logger) { s.l = l }

// SchemaStatements returns the DDL for the signals table.
func (s *ClickHouseSignalStore) SchemaStatements() []string {
	cols := make([]string, 0, len(models.Fields()))
	for _, f := range models.Fields() {
		cols = append(cols, fmt.Sprintf("`%s` %s", f.Column, clickhouseType(f)))
	}
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", s.client.Database()),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s) ENGINE = ReplacingMergeTree ORDER BY id", s.table, strings.Join(cols, ", ")),
	}
}

// Init creates the table if missing.
func (s *ClickHouseSignalStore) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, s.SchemaStatements())
}

func clickhouseType(f models.Field) string {
	var t string
	switch f.Kind {
	case models.KindText, models.KindJSON:
		t = "String"
	case models.KindFloat:
		t = "Float64"
	case models.KindInt:
		t = "Int64"
	case models.KindBool:
		t = "Bool"
	}
	if f.Required {
		return t
	}
	return "Nullable(" + t + ")"
}

func (s *ClickHouseSignalStore) Append(ctx context.Context, sig *models.Signal) (int, error) {
	cols := models.Columns()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", s.table, strings.Join(cols, ", "), placeholders)

	if _, err := s.client.DB().ExecContext(ctx, q, signalArgs(sig)...); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse insert signal failed", applogger.String("id", sig.ID), applogger.Error(err))
		}
		return 0, fmt.Errorf("insert signal: %w", err)
	}

	var total uint64
	if err := s.client.DB().QueryRowContext(ctx, fmt.Sprintf("SELECT count() FROM %s FINAL", s.table)).Scan(&total); err != nil {
		return 0, fmt.Errorf("count signals: %w", err)
	}
	return int(total), nil
}

func (s *ClickHouseSignalStore) List(ctx context.Context, limit int) ([]*models.Signal, error) {
	if limit < 0 {
		limit = DefaultCapacity
	}
	q := fmt.Sprintf("SELECT %s FROM %s FINAL ORDER BY timestamp DESC LIMIT ?", strings.Join(models.Columns(), ", "), s.table)
	rows, err := s.client.DB().QueryContext(ctx, q, limit)
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

func (s *ClickHouseSignalStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *ClickHouseSignalStore) Close() error {
	return s.client.Close()
}

var _ repository.SignalStore = (*ClickHouseSignalStore)(nil)
