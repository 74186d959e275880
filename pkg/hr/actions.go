package hr

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"mercator-hq/hermes/pkg/actions"
)

// RegisterActions wires the HR store's operations into an action registry.
// The schemas declare which argument carries the affected employee, so
// authorization sees the right target.
func RegisterActions(reg *actions.Map, store *Store) error {
	employeeParam := actions.Parameter{
		Name: "employee_id", Type: "int",
		Description: "Target employee ID", Required: true,
	}
	yearParam := actions.Parameter{
		Name: "year", Type: "int",
		Description: "Year, defaults to the current year",
	}
	confirmParam := actions.Parameter{
		Name: "confirm", Type: "bool",
		Description: "Set to true only after the user has confirmed the action",
	}

	type registration struct {
		schema  *actions.Schema
		handler actions.Handler
	}
	regs := []registration{
		{
			schema: &actions.Schema{
				Name:        "search_employee",
				Description: "Find employees by name, email, or title",
				Parameters: []actions.Parameter{
					{Name: "query", Type: "string", Description: "Search query", Required: true},
					{Name: "limit", Type: "int", Description: "Max results, defaults to 10"},
				},
			},
			handler: func(ctx context.Context, args map[string]any) (any, error) {
				query, err := stringArg(args, "query")
				if err != nil {
					return nil, err
				}
				limit, _ := intArg(args, "limit")
				return store.SearchEmployees(ctx, query, int(limit))
			},
		},
		{
			schema: &actions.Schema{
				Name:            "get_employee",
				Description:     "Get an employee's directory record",
				Parameters:      []actions.Parameter{employeeParam},
				TargetParameter: "employee_id",
			},
			handler: func(ctx context.Context, args map[string]any) (any, error) {
				id, err := intArg(args, "employee_id")
				if err != nil {
					return nil, err
				}
				return store.GetEmployee(ctx, id)
			},
		},
		{
			schema: &actions.Schema{
				Name:            "get_manager",
				Description:     "Get an employee's manager",
				Parameters:      []actions.Parameter{employeeParam},
				TargetParameter: "employee_id",
			},
			handler: func(ctx context.Context, args map[string]any) (any, error) {
				id, err := intArg(args, "employee_id")
				if err != nil {
					return nil, err
				}
				mgr, err := store.GetManager(ctx, id)
				if err != nil {
					return nil, err
				}
				if mgr == nil {
					return map[string]any{"manager": nil}, nil
				}
				return mgr, nil
			},
		},
		{
			schema: &actions.Schema{
				Name:            "get_direct_reports",
				Description:     "List the employees reporting directly to a manager",
				Parameters:      []actions.Parameter{employeeParam},
				TargetParameter: "employee_id",
			},
			handler: func(ctx context.Context, args map[string]any) (any, error) {
				id, err := intArg(args, "employee_id")
				if err != nil {
					return nil, err
				}
				return store.GetDirectReports(ctx, id)
			},
		},
		{
			schema: &actions.Schema{
				Name:            "get_holiday_balance",
				Description:     "Get an employee's holiday balance for a year",
				Parameters:      []actions.Parameter{employeeParam, yearParam},
				TargetParameter: "employee_id",
			},
			handler: func(ctx context.Context, args map[string]any) (any, error) {
				id, err := intArg(args, "employee_id")
				if err != nil {
					return nil, err
				}
				return store.GetHolidayBalance(ctx, id, yearOrCurrent(args))
			},
		},
		{
			schema: &actions.Schema{
				Name:            "get_holiday_requests",
				Description:     "List an employee's holiday requests for a year",
				Parameters:      []actions.Parameter{employeeParam, yearParam},
				TargetParameter: "employee_id",
			},
			handler: func(ctx context.Context, args map[string]any) (any, error) {
				id, err := intArg(args, "employee_id")
				if err != nil {
					return nil, err
				}
				return store.GetHolidayRequests(ctx, id, yearOrCurrent(args))
			},
		},
		{
			schema: &actions.Schema{
				Name:        "submit_holiday_request",
				Description: "Request time off for an employee",
				Parameters: []actions.Parameter{
					employeeParam,
					{Name: "start_date", Type: "date", Description: "Start date (YYYY-MM-DD)", Required: true},
					{Name: "end_date", Type: "date", Description: "End date (YYYY-MM-DD)", Required: true},
					{Name: "days", Type: "float", Description: "Number of working days", Required: true},
					{Name: "reason", Type: "string", Description: "Reason for the request"},
					confirmParam,
				},
				TargetParameter: "employee_id",
			},
			handler: func(ctx context.Context, args map[string]any) (any, error) {
				if prompt, ok := awaitConfirmation("submit_holiday_request", args); ok {
					return prompt, nil
				}
				id, err := intArg(args, "employee_id")
				if err != nil {
					return nil, err
				}
				startDate, err := stringArg(args, "start_date")
				if err != nil {
					return nil, err
				}
				endDate, err := stringArg(args, "end_date")
				if err != nil {
					return nil, err
				}
				days, err := floatArg(args, "days")
				if err != nil {
					return nil, err
				}
				reason, _ := stringArg(args, "reason")
				return store.SubmitHolidayRequest(ctx, id, startDate, endDate, days, reason)
			},
		},
		{
			schema: &actions.Schema{
				Name:        "cancel_holiday_request",
				Description: "Cancel an employee's own pending holiday request",
				Parameters: []actions.Parameter{
					employeeParam,
					{Name: "request_id", Type: "int", Description: "Request ID", Required: true},
					confirmParam,
				},
				TargetParameter: "employee_id",
			},
			handler: func(ctx context.Context, args map[string]any) (any, error) {
				if prompt, ok := awaitConfirmation("cancel_holiday_request", args); ok {
					return prompt, nil
				}
				id, err := intArg(args, "employee_id")
				if err != nil {
					return nil, err
				}
				requestID, err := intArg(args, "request_id")
				if err != nil {
					return nil, err
				}
				r, err := store.GetHolidayRequest(ctx, requestID)
				if err != nil {
					return nil, err
				}
				if r.EmployeeID != id {
					return nil, fmt.Errorf("holiday request %d does not belong to employee %d", requestID, id)
				}
				return store.CancelHolidayRequest(ctx, requestID)
			},
		},
		{
			schema: &actions.Schema{
				Name:        "approve_holiday_request",
				Description: "Approve a direct report's pending holiday request",
				Parameters: []actions.Parameter{
					{Name: "employee_id", Type: "int", Description: "Employee whose request is approved", Required: true},
					{Name: "request_id", Type: "int", Description: "Request ID", Required: true},
					confirmParam,
				},
				TargetParameter: "employee_id",
			},
			handler: func(ctx context.Context, args map[string]any) (any, error) {
				if prompt, ok := awaitConfirmation("approve_holiday_request", args); ok {
					return prompt, nil
				}
				return resolveOwned(ctx, store, args, store.ApproveHolidayRequest)
			},
		},
		{
			schema: &actions.Schema{
				Name:        "reject_holiday_request",
				Description: "Reject a direct report's pending holiday request",
				Parameters: []actions.Parameter{
					{Name: "employee_id", Type: "int", Description: "Employee whose request is rejected", Required: true},
					{Name: "request_id", Type: "int", Description: "Request ID", Required: true},
					confirmParam,
				},
				TargetParameter: "employee_id",
			},
			handler: func(ctx context.Context, args map[string]any) (any, error) {
				if prompt, ok := awaitConfirmation("reject_holiday_request", args); ok {
					return prompt, nil
				}
				return resolveOwned(ctx, store, args, store.RejectHolidayRequest)
			},
		},
		{
			schema: &actions.Schema{
				Name:            "get_compensation",
				Description:     "Get an employee's current compensation",
				Parameters:      []actions.Parameter{employeeParam},
				TargetParameter: "employee_id",
			},
			handler: func(ctx context.Context, args map[string]any) (any, error) {
				id, err := intArg(args, "employee_id")
				if err != nil {
					return nil, err
				}
				return store.GetCompensation(ctx, id)
			},
		},
	}

	for _, r := range regs {
		if err := reg.Register(r.schema, r.handler); err != nil {
			return fmt.Errorf("failed to register action %q: %w", r.schema.Name, err)
		}
	}
	return nil
}

// awaitConfirmation guards mutating actions. Unless the arguments carry a
// truthy confirm flag, the handler returns a confirmation prompt instead of
// touching data; the reasoner relays the message and re-requests the action
// with confirm set once the user agrees.
func awaitConfirmation(action string, args map[string]any) (any, bool) {
	if confirmed(args) {
		return nil, false
	}
	return map[string]any{
		"confirmation_required": true,
		"message":               confirmationMessage(action, args),
	}, true
}

func confirmed(args map[string]any) bool {
	switch v := args["confirm"].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(v)
		return err == nil && b
	default:
		return false
	}
}

func confirmationMessage(action string, args map[string]any) string {
	switch action {
	case "submit_holiday_request":
		days, _ := floatArg(args, "days")
		start, _ := stringArg(args, "start_date")
		end, _ := stringArg(args, "end_date")
		return fmt.Sprintf("You're about to submit a holiday request for %v days from %s to %s. Please confirm.", days, start, end)
	case "cancel_holiday_request":
		id, _ := intArg(args, "request_id")
		return fmt.Sprintf("You're about to cancel holiday request #%d. This action cannot be undone. Please confirm.", id)
	case "approve_holiday_request":
		id, _ := intArg(args, "request_id")
		return fmt.Sprintf("You're about to approve holiday request #%d. Please confirm.", id)
	case "reject_holiday_request":
		id, _ := intArg(args, "request_id")
		return fmt.Sprintf("You're about to reject holiday request #%d. Please confirm.", id)
	}
	return "Please confirm this action."
}

// resolveOwned checks that the request named by the arguments belongs to the
// declared employee before resolving it. The employee is the authorization
// target, so the check keeps the arguments honest.
func resolveOwned(ctx context.Context, store *Store, args map[string]any,
	resolve func(context.Context, int64) (*HolidayRequest, error)) (any, error) {
	id, err := intArg(args, "employee_id")
	if err != nil {
		return nil, err
	}
	requestID, err := intArg(args, "request_id")
	if err != nil {
		return nil, err
	}
	r, err := store.GetHolidayRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if r.EmployeeID != id {
		return nil, fmt.Errorf("holiday request %d does not belong to employee %d", requestID, id)
	}
	return resolve(ctx, requestID)
}

func yearOrCurrent(args map[string]any) int {
	if y, err := intArg(args, "year"); err == nil && y > 0 {
		return int(y)
	}
	return time.Now().Year()
}

// Reasoner arguments round-trip through JSON, so numbers arrive as float64.

func intArg(args map[string]any, name string) (int64, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return 0, fmt.Errorf("missing required argument %q", name)
	}
	switch n := v.(type) {
	case float64:
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case string:
		id, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("argument %q is not an integer: %q", name, n)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("argument %q has unexpected type %T", name, v)
	}
}

func floatArg(args map[string]any, name string) (float64, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return 0, fmt.Errorf("missing required argument %q", name)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("argument %q is not a number: %q", name, n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("argument %q has unexpected type %T", name, v)
	}
}

func stringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return "", fmt.Errorf("missing required argument %q", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q has unexpected type %T", name, v)
	}
	if s == "" {
		return "", fmt.Errorf("argument %q cannot be empty", name)
	}
	return s, nil
}
