// Package engine evaluates authorization requests against an immutable rule
// set and renders allow/deny decisions.
//
// Decide is a pure function of (request, active rule set): no mutation, no
// hidden state, and identical inputs always produce identical decisions.
// The active set sits behind an atomic pointer so a hot reload swaps the
// whole set at once; an in-flight decision observes either entirely the old
// set or entirely the new one, never a mix.
//
// # Evaluation
//
//  1. Filter the rule set to rules covering the requested action. No
//     applicable rule means default deny.
//  2. Walk the applicable rules in priority order (declaration order on
//     ties) and evaluate each rule's named condition.
//  3. The first condition that holds decides: the rule's effect becomes the
//     decision, with the rule name recorded.
//  4. No condition holding means default deny.
//
// Conditions are identifiers resolved against a fixed predicate table built
// by NewPredicates. Extending the condition vocabulary means adding a named,
// pure function there; configuration never carries executable text. Unknown
// identifiers are a load-time error in pkg/policy/rules, never a decision
// time branch.
package engine
