// Package actions defines the action registry boundary: named, schema-typed
// operations exposed by backend business services.
//
// The orchestrator consumes the Registry interface. It reads schemas only
// to extract the target-affecting argument for authorization; argument
// validation beyond that is the registered handler's responsibility, and
// handler failures surface as operation errors rather than process faults.
//
// Map is the in-process implementation used by pkg/hr and by tests.
package actions
