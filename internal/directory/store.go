package directory

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	platformdb "geoattend-backend/internal/platform/db"
)

// DirectoryStore is the persistence boundary of this package; the SQL
// implementation below is swapped for a fake in service tests.
type DirectoryStore interface {
	CreateOffice(ctx context.Context, o *Office) (Office, error)
	ListOfficesByCompany(ctx context.Context, company string) ([]Office, error)
	GetOfficeByULID(ctx context.Context, ulid string) (*Office, error)
	DeleteOffice(ctx context.Context, ulid string) (int64, error)

	CreateEmployee(ctx context.Context, e *Employee) (Employee, error)
	FindEmployees(ctx context.Context, company, branch string) ([]Employee, error)
	CountEmployees(ctx context.Context, company, branch string) (int64, error)
	DeleteEmployee(ctx context.Context, id int64) (int64, error)
}

type Store struct{ db platformdb.DBTX }

func NewStore(db platformdb.DBTX) *Store { return &Store{db: db} }

func (s *Store) CreateOffice(ctx context.Context, o *Office) (Office, error) {
	const q = `
	INSERT INTO offices (office_ulid, branch_name, company_name, latitude, longitude, radius_meters, created_at)
	VALUES (?, ?, ?, ?, ?, ?, UTC_TIMESTAMP(6))`

	res, err := s.db.ExecContext(ctx, q,
		o.OfficeULID, o.BranchName, o.CompanyName, o.Latitude, o.Longitude, o.RadiusMeters)
	if err != nil {
		if isDuplicateKey(err) {
			return Office{}, NewConflictError("office already registered for this branch")
		}
		return Office{}, err
	}
	id, _ := res.LastInsertId()

	row := s.db.QueryRowContext(ctx, `
	SELECT office_id, office_ulid, branch_name, company_name, latitude, longitude, radius_meters, created_at
	FROM offices WHERE office_id = ?`, id)
	var out Office
	if err := scanOffice(row, &out); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Office{}, NewInternalError("inserted but not found")
		}
		return Office{}, err
	}
	return out, nil
}

func (s *Store) ListOfficesByCompany(ctx context.Context, company string) ([]Office, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT office_id, office_ulid, branch_name, company_name, latitude, longitude, radius_meters, created_at
	FROM offices
	WHERE company_name = ?
	ORDER BY branch_name ASC, office_id ASC`, company)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Office
	for rows.Next() {
		var o Office
		if err := rows.Scan(&o.OfficeID, &o.OfficeULID, &o.BranchName, &o.CompanyName,
			&o.Latitude, &o.Longitude, &o.RadiusMeters, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) GetOfficeByULID(ctx context.Context, ulid string) (*Office, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT office_id, office_ulid, branch_name, company_name, latitude, longitude, radius_meters, created_at
	FROM offices WHERE office_ulid = ?`, ulid)
	var o Office
	if err := scanOffice(row, &o); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (s *Store) DeleteOffice(ctx context.Context, ulid string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM offices WHERE office_ulid = ?`, ulid)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) CreateEmployee(ctx context.Context, e *Employee) (Employee, error) {
	const q = `
	INSERT INTO employees (name, email, branch_name, company_name, created_at)
	VALUES (?, ?, ?, ?, UTC_TIMESTAMP(6))`

	res, err := s.db.ExecContext(ctx, q, e.Name, emptyToNil(e.Email), e.BranchName, e.CompanyName)
	if err != nil {
		return Employee{}, err
	}
	id, _ := res.LastInsertId()

	row := s.db.QueryRowContext(ctx, `
	SELECT employee_id, name, COALESCE(email, ''), branch_name, company_name, created_at
	FROM employees WHERE employee_id = ?`, id)
	var out Employee
	if err := row.Scan(&out.EmployeeID, &out.Name, &out.Email, &out.BranchName,
		&out.CompanyName, &out.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Employee{}, NewInternalError("inserted but not found")
		}
		return Employee{}, err
	}
	return out, nil
}

func (s *Store) FindEmployees(ctx context.Context, company, branch string) ([]Employee, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT employee_id, name, COALESCE(email, ''), branch_name, company_name, created_at
	FROM employees
	WHERE company_name = ? AND branch_name = ?
	ORDER BY name ASC, employee_id ASC`, company, branch)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.EmployeeID, &e.Name, &e.Email, &e.BranchName,
			&e.CompanyName, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) CountEmployees(ctx context.Context, company, branch string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM employees WHERE company_name = ? AND branch_name = ?`,
		company, branch).Scan(&n)
	return n, err
}

func (s *Store) DeleteEmployee(ctx context.Context, id int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM employees WHERE employee_id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ===== helpers =====

func scanOffice(row *sql.Row, o *Office) error {
	return row.Scan(&o.OfficeID, &o.OfficeULID, &o.BranchName, &o.CompanyName,
		&o.Latitude, &o.Longitude, &o.RadiusMeters, &o.CreatedAt)
}

func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// isDuplicateKey matches MySQL error 1062 without importing driver internals.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Error 1062")
}
