package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"SignalDesk/internal/domain/models"
)

// signalRow holds scan destinations for one row in models.Fields order.
type signalRow struct {
	fields []models.Field
	dest   []any
}

func newSignalRow() *signalRow {
	fields := models.Fields()
	r := &signalRow{fields: fields, dest: make([]any, len(fields))}
	for i, f := range fields {
		switch f.Kind {
		case models.KindText:
			r.dest[i] = &sql.NullString{}
		case models.KindFloat:
			r.dest[i] = &sql.NullFloat64{}
		case models.KindInt:
			r.dest[i] = &sql.NullInt64{}
		case models.KindBool:
			r.dest[i] = &sql.NullBool{}
		case models.KindJSON:
			r.dest[i] = &models.JSONObject{}
		}
	}
	return r
}

// signal builds a Signal from the last scanned values.
func (r *signalRow) signal() (*models.Signal, error) {
	s := &models.Signal{}
	for i, f := range r.fields {
		switch d := r.dest[i].(type) {
		case *sql.NullString:
			if d.Valid {
				f.Set(s, d.String)
			}
		case *sql.NullFloat64:
			if d.Valid {
				f.Set(s, d.Float64)
			}
		case *sql.NullInt64:
			if d.Valid {
				f.Set(s, d.Int64)
			}
		case *sql.NullBool:
			if d.Valid {
				f.Set(s, d.Bool)
			}
		case *models.JSONObject:
			if *d != nil {
				f.Set(s, *d)
			}
		default:
			return nil, fmt.Errorf("column %s: unexpected scan type %T", f.Column, d)
		}
	}
	if s.ID == "" {
		return nil, fmt.Errorf("row without id")
	}
	return s, nil
}

// signalArgs returns insert arguments in models.Fields order.
func signalArgs(s *models.Signal) []any {
	fields := models.Fields()
	args := make([]any, len(fields))
	for i, f := range fields {
		args[i] = f.Get(s)
	}
	return args
}

func quotedColumns() string {
	cols := models.Columns()
	for i, c := range cols {
		cols[i] = `"` + c + `"`
	}
	return strings.Join(cols, ", ")
}
