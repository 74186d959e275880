package hr

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"mercator-hq/hermes/pkg/identity"
)

// Employee is one directory record.
type Employee struct {
	ID         int64         `json:"employee_id"`
	Name       string        `json:"name"`
	Email      string        `json:"email"`
	Title      string        `json:"title"`
	Department string        `json:"department"`
	Role       identity.Role `json:"role"`
	ManagerID  int64         `json:"manager_id,omitempty"`
	CostCenter string        `json:"cost_center,omitempty"`
}

// HolidayBalance is one employee's balance for a year.
type HolidayBalance struct {
	EmployeeID int64   `json:"employee_id"`
	Year       int     `json:"year"`
	TotalDays  float64 `json:"total_days"`
	UsedDays   float64 `json:"used_days"`
	Remaining  float64 `json:"remaining_days"`
}

// HolidayRequest is one time-off request.
type HolidayRequest struct {
	ID         int64   `json:"request_id"`
	EmployeeID int64   `json:"employee_id"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	Days       float64 `json:"days"`
	Reason     string  `json:"reason,omitempty"`
	Status     string  `json:"status"`
}

// Holiday request statuses.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
	StatusCanceled = "CANCELED"
)

// Compensation is one employee's current compensation record.
type Compensation struct {
	EmployeeID    int64   `json:"employee_id"`
	BaseSalary    float64 `json:"base_salary"`
	Bonus         float64 `json:"bonus"`
	Currency      string  `json:"currency"`
	EffectiveDate string  `json:"effective_date"`
}

// Store is the SQLite-backed HR data store.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore opens (and initializes, if needed) the HR database at path.
// ":memory:" gives an ephemeral store for tests and demos.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d", path, int((5 * time.Second).Milliseconds()))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open hr database: %w", err)
	}

	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{
		db:     db,
		logger: logger.With("component", "hr.store"),
	}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize hr schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS employee (
			employee_id  INTEGER PRIMARY KEY,
			name         TEXT NOT NULL,
			email        TEXT NOT NULL UNIQUE,
			title        TEXT NOT NULL DEFAULT '',
			department   TEXT NOT NULL DEFAULT '',
			role         TEXT NOT NULL DEFAULT 'EMPLOYEE',
			manager_id   INTEGER,
			cost_center  TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_employee_manager ON employee(manager_id);

		CREATE TABLE IF NOT EXISTS holiday_balance (
			employee_id  INTEGER NOT NULL,
			year         INTEGER NOT NULL,
			total_days   REAL NOT NULL,
			used_days    REAL NOT NULL DEFAULT 0,
			PRIMARY KEY (employee_id, year)
		);

		CREATE TABLE IF NOT EXISTS holiday_request (
			request_id   INTEGER PRIMARY KEY AUTOINCREMENT,
			employee_id  INTEGER NOT NULL,
			start_date   TEXT NOT NULL,
			end_date     TEXT NOT NULL,
			days         REAL NOT NULL,
			reason       TEXT NOT NULL DEFAULT '',
			status       TEXT NOT NULL DEFAULT 'PENDING'
		);
		CREATE INDEX IF NOT EXISTS idx_request_employee ON holiday_request(employee_id);

		CREATE TABLE IF NOT EXISTS compensation (
			employee_id     INTEGER PRIMARY KEY,
			base_salary     REAL NOT NULL,
			bonus           REAL NOT NULL DEFAULT 0,
			currency        TEXT NOT NULL DEFAULT 'USD',
			effective_date  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS finance_cost_center_access (
			user_email   TEXT NOT NULL,
			cost_center  TEXT NOT NULL,
			PRIMARY KEY (user_email, cost_center)
		);
	`)
	return err
}

// GetEmployee returns one employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id int64) (*Employee, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT employee_id, name, email, title, department, role, COALESCE(manager_id, 0), cost_center
		FROM employee WHERE employee_id = ?`, id)
	return scanEmployee(row)
}

// GetEmployeeByEmail returns one employee by login email.
func (s *Store) GetEmployeeByEmail(ctx context.Context, email string) (*Employee, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT employee_id, name, email, title, department, role, COALESCE(manager_id, 0), cost_center
		FROM employee WHERE email = ?`, email)
	return scanEmployee(row)
}

// SearchEmployees finds employees whose name, email, or title matches the
// query, case-insensitively.
func (s *Store) SearchEmployees(ctx context.Context, query string, limit int) ([]Employee, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_id, name, email, title, department, role, COALESCE(manager_id, 0), cost_center
		FROM employee
		WHERE name LIKE ? COLLATE NOCASE OR email LIKE ? COLLATE NOCASE OR title LIKE ? COLLATE NOCASE
		ORDER BY employee_id LIMIT ?`, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEmployees(rows)
}

// GetManager returns the manager of an employee, or nil when the employee
// has none.
func (s *Store) GetManager(ctx context.Context, employeeID int64) (*Employee, error) {
	emp, err := s.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if emp.ManagerID == 0 {
		return nil, nil
	}
	return s.GetEmployee(ctx, emp.ManagerID)
}

// GetDirectReports returns the employees reporting directly to managerID.
func (s *Store) GetDirectReports(ctx context.Context, managerID int64) ([]Employee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_id, name, email, title, department, role, COALESCE(manager_id, 0), cost_center
		FROM employee WHERE manager_id = ? ORDER BY employee_id`, managerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEmployees(rows)
}

// IsDirectReport implements engine.Directory.
func (s *Store) IsDirectReport(managerID, employeeID int64) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM employee WHERE employee_id = ? AND manager_id = ?`,
		employeeID, managerID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// HasCostCenterAccess implements engine.Directory. It reports whether the
// given finance user may see the cost center the employee is billed to.
func (s *Store) HasCostCenterAccess(userEmail string, employeeID int64) (bool, error) {
	var costCenter string
	err := s.db.QueryRow(`SELECT cost_center FROM employee WHERE employee_id = ?`, employeeID).
		Scan(&costCenter)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if costCenter == "" {
		return false, nil
	}

	var one int
	err = s.db.QueryRow(`
		SELECT 1 FROM finance_cost_center_access
		WHERE user_email = ? AND cost_center = ?`, userEmail, costCenter).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetHolidayBalance returns an employee's balance for a year.
func (s *Store) GetHolidayBalance(ctx context.Context, employeeID int64, year int) (*HolidayBalance, error) {
	var b HolidayBalance
	err := s.db.QueryRowContext(ctx, `
		SELECT employee_id, year, total_days, used_days
		FROM holiday_balance WHERE employee_id = ? AND year = ?`, employeeID, year).
		Scan(&b.EmployeeID, &b.Year, &b.TotalDays, &b.UsedDays)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no holiday balance for employee %d in %d", employeeID, year)
	}
	if err != nil {
		return nil, err
	}
	b.Remaining = b.TotalDays - b.UsedDays
	return &b, nil
}

// GetHolidayRequests returns an employee's requests for a year.
func (s *Store) GetHolidayRequests(ctx context.Context, employeeID int64, year int) ([]HolidayRequest, error) {
	prefix := fmt.Sprintf("%04d-", year)
	rows, err := s.db.QueryContext(ctx, `
		SELECT request_id, employee_id, start_date, end_date, days, reason, status
		FROM holiday_request
		WHERE employee_id = ? AND start_date LIKE ? || '%'
		ORDER BY start_date`, employeeID, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HolidayRequest
	for rows.Next() {
		var r HolidayRequest
		if err := rows.Scan(&r.ID, &r.EmployeeID, &r.StartDate, &r.EndDate, &r.Days, &r.Reason, &r.Status); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetHolidayRequest returns one request by ID.
func (s *Store) GetHolidayRequest(ctx context.Context, requestID int64) (*HolidayRequest, error) {
	var r HolidayRequest
	err := s.db.QueryRowContext(ctx, `
		SELECT request_id, employee_id, start_date, end_date, days, reason, status
		FROM holiday_request WHERE request_id = ?`, requestID).
		Scan(&r.ID, &r.EmployeeID, &r.StartDate, &r.EndDate, &r.Days, &r.Reason, &r.Status)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("holiday request %d not found", requestID)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// SubmitHolidayRequest files a pending request after checking the balance.
func (s *Store) SubmitHolidayRequest(ctx context.Context, employeeID int64, startDate, endDate string, days float64, reason string) (*HolidayRequest, error) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", startDate, err)
	}
	if _, err := time.Parse("2006-01-02", endDate); err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", endDate, err)
	}
	if days <= 0 {
		return nil, fmt.Errorf("days must be positive, got %v", days)
	}

	balance, err := s.GetHolidayBalance(ctx, employeeID, start.Year())
	if err != nil {
		return nil, err
	}
	if days > balance.Remaining {
		return nil, fmt.Errorf("insufficient balance: requested %v days, %v remaining", days, balance.Remaining)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO holiday_request (employee_id, start_date, end_date, days, reason)
		VALUES (?, ?, ?, ?, ?)`, employeeID, startDate, endDate, days, reason)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	s.logger.Info("holiday request submitted",
		"employee_id", employeeID,
		"request_id", id,
		"days", days,
	)
	return &HolidayRequest{
		ID: id, EmployeeID: employeeID,
		StartDate: startDate, EndDate: endDate,
		Days: days, Reason: reason, Status: StatusPending,
	}, nil
}

// ApproveHolidayRequest approves a pending request and books its days
// against the balance.
func (s *Store) ApproveHolidayRequest(ctx context.Context, requestID int64) (*HolidayRequest, error) {
	return s.resolveRequest(ctx, requestID, StatusApproved)
}

// RejectHolidayRequest rejects a pending request.
func (s *Store) RejectHolidayRequest(ctx context.Context, requestID int64) (*HolidayRequest, error) {
	return s.resolveRequest(ctx, requestID, StatusRejected)
}

// CancelHolidayRequest cancels a pending request.
func (s *Store) CancelHolidayRequest(ctx context.Context, requestID int64) (*HolidayRequest, error) {
	return s.resolveRequest(ctx, requestID, StatusCanceled)
}

func (s *Store) resolveRequest(ctx context.Context, requestID int64, status string) (*HolidayRequest, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var r HolidayRequest
	err = tx.QueryRowContext(ctx, `
		SELECT request_id, employee_id, start_date, end_date, days, reason, status
		FROM holiday_request WHERE request_id = ?`, requestID).
		Scan(&r.ID, &r.EmployeeID, &r.StartDate, &r.EndDate, &r.Days, &r.Reason, &r.Status)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("holiday request %d not found", requestID)
	}
	if err != nil {
		return nil, err
	}
	if r.Status != StatusPending {
		return nil, fmt.Errorf("holiday request %d is %s, not pending", requestID, r.Status)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE holiday_request SET status = ? WHERE request_id = ?`, status, requestID); err != nil {
		return nil, err
	}
	if status == StatusApproved {
		start, err := time.Parse("2006-01-02", r.StartDate)
		if err != nil {
			return nil, fmt.Errorf("stored start date %q unparseable: %w", r.StartDate, err)
		}
		year := start.Year()
		if _, err := tx.ExecContext(ctx, `
			UPDATE holiday_balance SET used_days = used_days + ?
			WHERE employee_id = ? AND year = ?`, r.Days, r.EmployeeID, year); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	r.Status = status
	return &r, nil
}

// GetCompensation returns an employee's current compensation record.
func (s *Store) GetCompensation(ctx context.Context, employeeID int64) (*Compensation, error) {
	var c Compensation
	err := s.db.QueryRowContext(ctx, `
		SELECT employee_id, base_salary, bonus, currency, effective_date
		FROM compensation WHERE employee_id = ?`, employeeID).
		Scan(&c.EmployeeID, &c.BaseSalary, &c.Bonus, &c.Currency, &c.EffectiveDate)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no compensation record for employee %d", employeeID)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanEmployee(row *sql.Row) (*Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.Name, &e.Email, &e.Title, &e.Department, &e.Role, &e.ManagerID, &e.CostCenter)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("employee not found")
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func scanEmployees(rows *sql.Rows) ([]Employee, error) {
	var out []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Email, &e.Title, &e.Department, &e.Role, &e.ManagerID, &e.CostCenter); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
