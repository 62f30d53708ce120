// This file defines repository methods for risk maps. A RiskMap is the
// aggregate root: one workspace diagram owned by a single user, with any
// number of dependent risk rows. Cascade deletion is enforced here in
// application code because the schema does not declare it structurally.
package repository

import (
	"context"      // context allows passing deadlines and cancellation signals to DB operations
	"database/sql" // sql provides generic database operations and drivers
	"errors"       // errors is used to compare against sentinel values

	"github.com/ergomap/risk-map/internal/model"
)

// MapRepo encapsulates all database queries related to risk maps.  It
// depends on a sql.DB connection which is configured at startup and
// injected here; there is no lazily initialized global handle.
type MapRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewMapRepo constructs a MapRepo with the provided DB handle.  This
// allows dependency injection of the database in tests and at startup.
func NewMapRepo(db *sql.DB) *MapRepo {
	return &MapRepo{db: db}
}

// Create inserts a new risk map.  On success the map's ID field is
// populated with the auto-generated value and a follow-up SELECT fills
// the default timestamp columns so callers receive a fully populated
// record.  A zero insert id is reported as ErrNoInsertID.
func (r *MapRepo) Create(ctx context.Context, m *model.RiskMap) error {
	const qInsert = `INSERT INTO risk_maps (user_id, title, description, floor_plan_svg, width, height)
	                 VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert, m.OwnerID, m.Title, m.Description, m.FloorPlanSVG, m.Width, m.Height)
	if err != nil {
		return err // propagate DB errors to the caller
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if id == 0 {
		return ErrNoInsertID
	}
	m.ID = uint64(id)

	const qSelect = `SELECT created_at, updated_at FROM risk_maps WHERE id = ?`
	return r.db.QueryRowContext(ctx, qSelect, m.ID).Scan(&m.CreatedAt, &m.UpdatedAt)
}

// GetByID fetches a map by id regardless of owner.  It returns
// ErrMapNotFound when no row exists.
func (r *MapRepo) GetByID(ctx context.Context, id uint64) (*model.RiskMap, error) {
	const q = `SELECT id, user_id, title, description, floor_plan_svg, width, height, created_at, updated_at
	           FROM risk_maps WHERE id = ?`
	var m model.RiskMap
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&m.ID, &m.OwnerID, &m.Title, &m.Description,
		&m.FloorPlanSVG, &m.Width, &m.Height, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMapNotFound
		}
		return nil, err
	}
	return &m, nil
}

// GetByIDAndOwner fetches a map by id but only if it belongs to the
// given owner.  Missing and foreign-owned rows are indistinguishable:
// both come back as ErrMapNotFound so the existence of other users'
// maps never leaks.
func (r *MapRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.RiskMap, error) {
	const q = `SELECT id, user_id, title, description, floor_plan_svg, width, height, created_at, updated_at
	           FROM risk_maps WHERE id = ? AND user_id = ?`
	var m model.RiskMap
	if err := r.db.QueryRowContext(ctx, q, id, ownerID).Scan(&m.ID, &m.OwnerID, &m.Title, &m.Description,
		&m.FloorPlanSVG, &m.Width, &m.Height, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMapNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListByOwner returns all maps for an owner ordered by creation time.
// The result is never nil; an owner with no maps gets an empty slice.
func (r *MapRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]*model.RiskMap, error) {
	const q = `SELECT id, user_id, title, description, floor_plan_svg, width, height, created_at, updated_at
	           FROM risk_maps WHERE user_id = ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.RiskMap{}
	for rows.Next() {
		m := new(model.RiskMap)
		if err := rows.Scan(&m.ID, &m.OwnerID, &m.Title, &m.Description,
			&m.FloorPlanSVG, &m.Width, &m.Height, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Touch bumps a map's updated_at column.  Used by the debounced
// follow-up after a burst of marker position updates.
func (r *MapRepo) Touch(ctx context.Context, id uint64) error {
	const q = `UPDATE risk_maps SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// DeleteCascade removes a map together with all risks referencing it.
// Risks are deleted FIRST, then the map row; the order is a correctness
// requirement because the storage schema does not cascade on its own.
// Both statements run inside one transaction so a crash between them
// cannot leave orphan risks behind.
func (r *MapRepo) DeleteCascade(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM risks WHERE map_id = ?`, id); err != nil {
		return err
	}
	var res sql.Result
	if res, err = tx.ExecContext(ctx, `DELETE FROM risk_maps WHERE id = ?`, id); err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrMapNotFound
		return err
	}
	return nil
}
