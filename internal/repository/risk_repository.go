// This file defines repository methods for individual hazard markers.
// Risks are dependent rows of a risk map; they are inserted in bulk
// right after generation and mutated frequently while the user drags
// markers around, so position updates get their own narrow statement.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/ergomap/risk-map/internal/model"
)

// RiskRepo encapsulates all database queries related to risks.
type RiskRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewRiskRepo constructs a RiskRepo with the provided DB handle.
func NewRiskRepo(db *sql.DB) *RiskRepo {
	return &RiskRepo{db: db}
}

// Create inserts a new risk row.  On success the ID field is populated
// and a follow-up SELECT fills the timestamp columns.  A zero insert id
// is reported as ErrNoInsertID, which the service layer treats as the
// store violating its insert contract.
func (r *RiskRepo) Create(ctx context.Context, rk *model.Risk) error {
	const qInsert = `INSERT INTO risks (map_id, type, severity, label, description, x_position, y_position, radius, color)
	                 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert, rk.MapID, rk.Category, rk.Severity, rk.Label,
		nullableString(rk.Description), rk.X, rk.Y, rk.Radius, rk.Color)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if id == 0 {
		return ErrNoInsertID
	}
	rk.ID = uint64(id)

	const qSelect = `SELECT created_at, updated_at FROM risks WHERE id = ?`
	return r.db.QueryRowContext(ctx, qSelect, rk.ID).Scan(&rk.CreatedAt, &rk.UpdatedAt)
}

// GetByID fetches a single risk.  Returns ErrRiskNotFound when no row
// exists.
func (r *RiskRepo) GetByID(ctx context.Context, id uint64) (*model.Risk, error) {
	const q = `SELECT id, map_id, type, severity, label, description, x_position, y_position, radius, color, created_at, updated_at
	           FROM risks WHERE id = ?`
	var rk model.Risk
	var desc sql.NullString
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&rk.ID, &rk.MapID, &rk.Category, &rk.Severity,
		&rk.Label, &desc, &rk.X, &rk.Y, &rk.Radius, &rk.Color, &rk.CreatedAt, &rk.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRiskNotFound
		}
		return nil, err
	}
	rk.Description = desc.String
	return &rk, nil
}

// ListByMap returns all risks of a map in insertion order.  The order
// matters: it mirrors the hazard order returned by the generation
// service, which in turn determined each marker's grid cell.  Returns
// an empty slice, never nil.
func (r *RiskRepo) ListByMap(ctx context.Context, mapID uint64) ([]*model.Risk, error) {
	const q = `SELECT id, map_id, type, severity, label, description, x_position, y_position, radius, color, created_at, updated_at
	           FROM risks WHERE map_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, mapID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Risk{}
	for rows.Next() {
		rk := new(model.Risk)
		var desc sql.NullString
		if err := rows.Scan(&rk.ID, &rk.MapID, &rk.Category, &rk.Severity, &rk.Label, &desc,
			&rk.X, &rk.Y, &rk.Radius, &rk.Color, &rk.CreatedAt, &rk.UpdatedAt); err != nil {
			return nil, err
		}
		rk.Description = desc.String
		out = append(out, rk)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdatePosition moves a marker.  The narrow statement keeps the hot
// drag path cheap.  Returns ErrRiskNotFound when no row is affected.
func (r *RiskRepo) UpdatePosition(ctx context.Context, id uint64, x, y int) error {
	const q = `UPDATE risks SET x_position = ?, y_position = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, x, y, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRiskNotFound
	}
	return nil
}

// Update applies a partial field update, building the SET clause from
// the non-nil members of u.  Calling it with an empty update is a
// programming error guarded in the service layer.
func (r *RiskRepo) Update(ctx context.Context, id uint64, u model.RiskUpdate) error {
	set := []string{}
	args := []any{}
	if u.Category != nil {
		set = append(set, "type = ?")
		args = append(args, *u.Category)
	}
	if u.Severity != nil {
		set = append(set, "severity = ?")
		args = append(args, *u.Severity)
	}
	if u.Label != nil {
		set = append(set, "label = ?")
		args = append(args, *u.Label)
	}
	if u.Description != nil {
		set = append(set, "description = ?")
		args = append(args, nullableString(*u.Description))
	}
	if u.X != nil {
		set = append(set, "x_position = ?")
		args = append(args, *u.X)
	}
	if u.Y != nil {
		set = append(set, "y_position = ?")
		args = append(args, *u.Y)
	}
	if u.Radius != nil {
		set = append(set, "radius = ?")
		args = append(args, *u.Radius)
	}
	if u.Color != nil {
		set = append(set, "color = ?")
		args = append(args, *u.Color)
	}
	if len(set) == 0 {
		return nil
	}
	set = append(set, "updated_at = CURRENT_TIMESTAMP")
	q := "UPDATE risks SET " + strings.Join(set, ", ") + " WHERE id = ?"
	args = append(args, id)
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRiskNotFound
	}
	return nil
}

// DeleteByID removes a single risk.  Returns ErrRiskNotFound when no
// row is affected.
func (r *RiskRepo) DeleteByID(ctx context.Context, id uint64) error {
	const q = `DELETE FROM risks WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRiskNotFound
	}
	return nil
}

// nullableString maps "" to NULL for the optional description column.
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
