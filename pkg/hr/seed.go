package hr

import (
	"context"
	"fmt"
)

// Seed populates the store with a demo organization when the employee table
// is empty. Safe to call on every startup.
func (s *Store) Seed(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM employee`).Scan(&count); err != nil {
		return fmt.Errorf("failed to check seed state: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO employee (employee_id, name, email, title, department, role, manager_id, cost_center) VALUES
		  (100, 'Jordan Lee',      'jordan.lee@acme.com',      'CEO',                       'Executive',   'HR',       NULL, 'CC-EXEC'),
		  (101, 'Victoria Adams',  'victoria.adams@acme.com',  'COO',                       'Executive',   'MANAGER',  100,  'CC-EXEC'),
		  (102, 'Richard Chen',    'richard.chen@acme.com',    'CFO',                       'Executive',   'FINANCE',  100,  'CC-EXEC'),
		  (103, 'Amanda Foster',   'amanda.foster@acme.com',   'CTO',                       'Executive',   'MANAGER',  100,  'CC-EXEC'),
		  (110, 'Mina Patel',      'mina.patel@acme.com',      'Head of People',            'HR',          'HR',       101,  'CC-HR'),
		  (111, 'Lisa Chen',       'lisa.chen@acme.com',       'HR Business Partner',       'HR',          'HR',       110,  'CC-HR'),
		  (120, 'Tobias Klein',    'tobias.klein@acme.com',    'Finance Director',          'Finance',     'FINANCE',  102,  'CC-FIN'),
		  (121, 'Maria Garcia',    'maria.garcia@acme.com',    'Senior Financial Analyst',  'Finance',     'FINANCE',  120,  'CC-FIN'),
		  (200, 'Sam Nguyen',      'sam.nguyen@acme.com',      'Engineering Manager',       'Engineering', 'MANAGER',  103,  'CC-ENG'),
		  (201, 'Alex Kim',        'alex.kim@acme.com',        'Software Engineer',         'Engineering', 'EMPLOYEE', 200,  'CC-ENG'),
		  (202, 'Priya Shah',      'priya.shah@acme.com',      'Data Engineer',             'Engineering', 'EMPLOYEE', 200,  'CC-ENG'),
		  (203, 'Marcus Johnson',  'marcus.johnson@acme.com',  'Senior Software Engineer',  'Engineering', 'MANAGER',  200,  'CC-ENG'),
		  (204, 'Jennifer Liu',    'jennifer.liu@acme.com',    'Staff Engineer',            'Engineering', 'EMPLOYEE', 200,  'CC-ENG'),
		  (206, 'Aisha Hassan',    'aisha.hassan@acme.com',    'Junior Software Engineer',  'Engineering', 'EMPLOYEE', 203,  'CC-ENG'),
		  (207, 'Thomas Mueller',  'thomas.mueller@acme.com',  'DevOps Engineer',           'Engineering', 'EMPLOYEE', 200,  'CC-ENG'),
		  (210, 'Olivia Wang',     'olivia.wang@acme.com',     'Frontend Lead',             'Engineering', 'MANAGER',  103,  'CC-ENG'),
		  (211, 'David Kim',       'david.kim@acme.com',       'Senior Frontend Engineer',  'Engineering', 'EMPLOYEE', 210,  'CC-ENG'),
		  (212, 'Emma Thompson',   'emma.thompson@acme.com',   'Frontend Engineer',         'Engineering', 'EMPLOYEE', 210,  'CC-ENG'),
		  (300, 'Elena Rossi',     'elena.rossi@acme.com',     'VP of Sales',               'Sales',       'MANAGER',  101,  'CC-SALES'),
		  (301, 'Chris Wong',      'chris.wong@acme.com',      'Senior Account Executive',  'Sales',       'EMPLOYEE', 300,  'CC-SALES')
	`); err != nil {
		return fmt.Errorf("failed to seed employees: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO holiday_balance (employee_id, year, total_days, used_days) VALUES
		  (100, 2026, 30, 0),
		  (101, 2026, 30, 0),
		  (102, 2026, 30, 0),
		  (103, 2026, 30, 0),
		  (110, 2026, 30, 2),
		  (111, 2026, 28, 0),
		  (120, 2026, 30, 0),
		  (121, 2026, 28, 0),
		  (200, 2026, 30, 5),
		  (201, 2026, 28, 0),
		  (202, 2026, 28, 5),
		  (203, 2026, 28, 10),
		  (204, 2026, 28, 0),
		  (206, 2026, 28, 0),
		  (207, 2026, 28, 5),
		  (210, 2026, 30, 0),
		  (211, 2026, 28, 5),
		  (212, 2026, 28, 0),
		  (300, 2026, 30, 0),
		  (301, 2026, 28, 0)
	`); err != nil {
		return fmt.Errorf("failed to seed holiday balances: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO holiday_request (request_id, employee_id, start_date, end_date, days, reason, status) VALUES
		  (9010, 202, '2026-01-27', '2026-01-31', 5,  'Personal travel',    'APPROVED'),
		  (9011, 200, '2026-01-27', '2026-01-31', 5,  'Team offsite',       'APPROVED'),
		  (9012, 203, '2026-03-10', '2026-03-14', 5,  'Spring break',       'APPROVED'),
		  (9014, 211, '2026-04-06', '2026-04-10', 5,  'Easter holiday',     'APPROVED'),
		  (9019, 207, '2026-02-16', '2026-02-20', 5,  'Personal time',      'APPROVED'),
		  (9030, 201, '2026-02-10', '2026-02-14', 5,  'Winter vacation',    'PENDING'),
		  (9033, 204, '2026-06-01', '2026-06-12', 10, 'Summer travel',      'PENDING'),
		  (9034, 212, '2026-05-25', '2026-05-29', 5,  'Wedding attendance', 'PENDING'),
		  (9052, 206, '2025-12-20', '2025-12-31', 8,  'Holiday travel',     'REJECTED'),
		  (9061, 301, '2026-03-09', '2026-03-13', 5,  'Travel plans',       'CANCELED')
	`); err != nil {
		return fmt.Errorf("failed to seed holiday requests: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO compensation (employee_id, base_salary, bonus, currency, effective_date) VALUES
		  (100, 280000, 140000, 'EUR', '2025-04-01'),
		  (101, 220000, 88000,  'EUR', '2025-09-15'),
		  (102, 230000, 92000,  'EUR', '2025-01-20'),
		  (103, 240000, 96000,  'EUR', '2025-03-01'),
		  (110, 125000, 31250,  'EUR', '2025-06-01'),
		  (111, 78000,  11700,  'EUR', '2025-03-15'),
		  (120, 140000, 35000,  'EUR', '2025-02-17'),
		  (121, 75000,  9000,   'EUR', '2026-01-09'),
		  (200, 115000, 20700,  'EUR', '2025-04-05'),
		  (201, 85000,  10200,  'EUR', '2026-01-10'),
		  (202, 82000,  9840,   'EUR', '2025-09-18'),
		  (203, 98000,  14700,  'EUR', '2025-08-23'),
		  (204, 125000, 22500,  'EUR', '2025-06-15'),
		  (206, 58000,  4640,   'EUR', '2025-07-01'),
		  (207, 88000,  10560,  'EUR', '2025-09-01'),
		  (210, 118000, 21240,  'EUR', '2025-11-01'),
		  (211, 95000,  14250,  'EUR', '2025-03-15'),
		  (212, 78000,  9360,   'EUR', '2025-08-01'),
		  (300, 135000, 40500,  'EUR', '2025-07-19'),
		  (301, 80000,  20000,  'EUR', '2025-11-14')
	`); err != nil {
		return fmt.Errorf("failed to seed compensation: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO finance_cost_center_access (user_email, cost_center) VALUES
		  ('richard.chen@acme.com', 'CC-EXEC'),
		  ('richard.chen@acme.com', 'CC-HR'),
		  ('richard.chen@acme.com', 'CC-FIN'),
		  ('richard.chen@acme.com', 'CC-ENG'),
		  ('richard.chen@acme.com', 'CC-SALES'),
		  ('tobias.klein@acme.com', 'CC-HR'),
		  ('tobias.klein@acme.com', 'CC-FIN'),
		  ('tobias.klein@acme.com', 'CC-ENG'),
		  ('tobias.klein@acme.com', 'CC-SALES'),
		  ('maria.garcia@acme.com', 'CC-ENG'),
		  ('maria.garcia@acme.com', 'CC-SALES')
	`); err != nil {
		return fmt.Errorf("failed to seed cost center access: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Info("seeded demo organization", "employees", 20)
	return nil
}
