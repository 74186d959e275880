// Package hr implements the backend business services the action registry
// exposes: an employee directory, holiday balances and requests, and
// compensation records, backed by SQLite.
//
// The store doubles as the policy engine's Directory, answering the
// manager/report questions directory-scoped conditions need.
//
// RegisterActions publishes the service operations as registry actions
// with declared schemas, including which argument names the affected
// employee. That declaration is what lets authorization scope decisions
// to a target.
package hr
