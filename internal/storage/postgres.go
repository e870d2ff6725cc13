package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/your-org/attend/internal/config"
	"github.com/your-org/attend/internal/models"
)

var (
	// ErrDuplicateEmployee is returned when enrolling an employee_id that
	// already exists among active employees.
	ErrDuplicateEmployee = errors.New("employee id already exists")

	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrAttendanceExists is returned when an attendance insert loses the
	// race on the (employee_id, date) unique constraint.
	ErrAttendanceExists = errors.New("attendance record already exists")
)

const uniqueViolation = "23505"

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// --- Employees ---

// CreateEmployee enrolls a new active employee. The partial unique index
// on (employee_id) WHERE active makes concurrent duplicate enrollments
// lose cleanly with ErrDuplicateEmployee.
func (s *PostgresStore) CreateEmployee(ctx context.Context, employeeID, name string, descriptor []float32) (*models.Employee, error) {
	e := &models.Employee{
		ID:         uuid.New(),
		EmployeeID: employeeID,
		Name:       name,
		Descriptor: descriptor,
		Active:     true,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO employees (id, employee_id, name, descriptor, active) VALUES ($1, $2, $3, $4, true)
		 RETURNING created_at, updated_at`,
		e.ID, e.EmployeeID, e.Name, pgvector.NewVector(descriptor),
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmployee
		}
		return nil, fmt.Errorf("create employee: %w", err)
	}
	return e, nil
}

// ReactivateEmployee flips a previously deactivated employee back to
// active, replacing its name and reference descriptor. Returns
// ErrEmployeeNotFound when no inactive row with that id exists.
func (s *PostgresStore) ReactivateEmployee(ctx context.Context, employeeID, name string, descriptor []float32) (*models.Employee, error) {
	e := &models.Employee{
		EmployeeID: employeeID,
		Name:       name,
		Descriptor: descriptor,
		Active:     true,
	}
	err := s.pool.QueryRow(ctx,
		`UPDATE employees SET name = $2, descriptor = $3, active = true, updated_at = now()
		 WHERE employee_id = $1 AND NOT active
		 RETURNING id, created_at, updated_at`,
		employeeID, name, pgvector.NewVector(descriptor),
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("reactivate employee: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) GetEmployeeByExternalID(ctx context.Context, employeeID string) (*models.Employee, error) {
	e := &models.Employee{}
	var vec pgvector.Vector
	err := s.pool.QueryRow(ctx,
		`SELECT id, employee_id, name, descriptor, active, created_at, updated_at
		 FROM employees WHERE employee_id = $1
		 ORDER BY active DESC, updated_at DESC LIMIT 1`, employeeID,
	).Scan(&e.ID, &e.EmployeeID, &e.Name, &vec, &e.Active, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get employee: %w", err)
	}
	e.Descriptor = vec.Slice()
	return e, nil
}

// ListEmployees returns employees without descriptors, newest first.
func (s *PostgresStore) ListEmployees(ctx context.Context, activeOnly bool, limit, offset int) ([]models.Employee, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 200 {
		limit = 200
	}

	where := ""
	if activeOnly {
		where = "WHERE active"
	}

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM employees "+where).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count employees: %w", err)
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT id, employee_id, name, active, created_at, updated_at
		 FROM employees %s ORDER BY created_at DESC LIMIT $1 OFFSET $2`, where),
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var employees []models.Employee
	for rows.Next() {
		var e models.Employee
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.Name, &e.Active, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	return employees, total, nil
}

// ListActiveDescriptors returns the reference descriptors for all active
// employees, the read path behind the in-memory registry.
func (s *PostgresStore) ListActiveDescriptors(ctx context.Context) ([]models.Employee, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, employee_id, name, descriptor FROM employees WHERE active ORDER BY employee_id`)
	if err != nil {
		return nil, fmt.Errorf("list active descriptors: %w", err)
	}
	defer rows.Close()

	var employees []models.Employee
	for rows.Next() {
		e := models.Employee{Active: true}
		var vec pgvector.Vector
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.Name, &vec); err != nil {
			return nil, fmt.Errorf("scan descriptor: %w", err)
		}
		e.Descriptor = vec.Slice()
		employees = append(employees, e)
	}
	return employees, nil
}

// DeactivateEmployee soft-deletes an employee; attendance history is kept.
func (s *PostgresStore) DeactivateEmployee(ctx context.Context, employeeID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE employees SET active = false, updated_at = now() WHERE employee_id = $1 AND active`,
		employeeID)
	if err != nil {
		return fmt.Errorf("deactivate employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

// --- Attendance ---

func (s *PostgresStore) GetAttendance(ctx context.Context, employeeID, date string) (*models.AttendanceRecord, error) {
	r := &models.AttendanceRecord{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, employee_id, employee_name, date, check_in, check_out, status, created_at, updated_at
		 FROM attendance WHERE employee_id = $1 AND date = $2`,
		employeeID, date,
	).Scan(&r.ID, &r.EmployeeID, &r.EmployeeName, &r.Date, &r.CheckIn, &r.CheckOut, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get attendance: %w", err)
	}
	return r, nil
}

// InsertAttendance creates the day's record. The unique constraint on
// (employee_id, date) is the final arbiter against concurrent check-ins;
// losing the race yields ErrAttendanceExists.
func (s *PostgresStore) InsertAttendance(ctx context.Context, r *models.AttendanceRecord) error {
	r.ID = uuid.New()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO attendance (id, employee_id, employee_name, date, check_in, check_out, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at, updated_at`,
		r.ID, r.EmployeeID, r.EmployeeName, r.Date, r.CheckIn, r.CheckOut, r.Status,
	).Scan(&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAttendanceExists
		}
		return fmt.Errorf("insert attendance: %w", err)
	}
	return nil
}

// SetAttendanceCheckOut flips a checked-in record to checked-out. The
// status guard makes concurrent checkouts idempotent: only one update
// lands, the other sees zero rows and reports ErrAttendanceExists.
func (s *PostgresStore) SetAttendanceCheckOut(ctx context.Context, employeeID, date string, checkOut time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE attendance SET check_out = $3, status = $4, updated_at = now()
		 WHERE employee_id = $1 AND date = $2 AND status = $5`,
		employeeID, date, checkOut, models.StatusCheckedOut, models.StatusCheckedIn)
	if err != nil {
		return fmt.Errorf("set attendance checkout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAttendanceExists
	}
	return nil
}

// ListAttendanceByDate returns all records for a day, newest check-in first.
func (s *PostgresStore) ListAttendanceByDate(ctx context.Context, date string) ([]models.AttendanceRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, employee_id, employee_name, date, check_in, check_out, status, created_at, updated_at
		 FROM attendance WHERE date = $1 ORDER BY check_in DESC`, date)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()

	var records []models.AttendanceRecord
	for rows.Next() {
		var r models.AttendanceRecord
		if err := rows.Scan(&r.ID, &r.EmployeeID, &r.EmployeeName, &r.Date, &r.CheckIn, &r.CheckOut, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		records = append(records, r)
	}
	return records, nil
}

// --- Unknown faces ---

func (s *PostgresStore) SaveUnknownFace(ctx context.Context, ev *models.UnknownFaceEvent) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO unknown_faces (id, detected_at, confidence, snapshot_key)
		 VALUES ($1, $2, $3, $4) RETURNING created_at`,
		ev.ID, ev.DetectedAt, ev.Confidence, ev.SnapshotKey,
	).Scan(&ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("save unknown face: %w", err)
	}
	return nil
}

// ListUnknownFaces returns the most recent events, newest first.
func (s *PostgresStore) ListUnknownFaces(ctx context.Context, limit int) ([]models.UnknownFaceEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, detected_at, confidence, snapshot_key, created_at
		 FROM unknown_faces ORDER BY detected_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unknown faces: %w", err)
	}
	defer rows.Close()

	var events []models.UnknownFaceEvent
	for rows.Next() {
		var ev models.UnknownFaceEvent
		if err := rows.Scan(&ev.ID, &ev.DetectedAt, &ev.Confidence, &ev.SnapshotKey, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan unknown face: %w", err)
		}
		events = append(events, ev)
	}
	return events, nil
}

func (s *PostgresStore) GetUnknownFace(ctx context.Context, id uuid.UUID) (*models.UnknownFaceEvent, error) {
	ev := &models.UnknownFaceEvent{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, detected_at, confidence, snapshot_key, created_at FROM unknown_faces WHERE id = $1`, id,
	).Scan(&ev.ID, &ev.DetectedAt, &ev.Confidence, &ev.SnapshotKey, &ev.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get unknown face: %w", err)
	}
	return ev, nil
}

// DeleteUnknownFacesBefore prunes events older than cutoff and returns
// the snapshot keys of the deleted rows so the blobs can be removed too.
func (s *PostgresStore) DeleteUnknownFacesBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`DELETE FROM unknown_faces WHERE detected_at < $1 RETURNING snapshot_key`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("delete unknown faces: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan snapshot key: %w", err)
		}
		if key != "" {
			keys = append(keys, key)
		}
	}
	return keys, nil
}
