// Package validation implements the problem-accumulation model and the
// ordered rule chain that every inbound river message passes through.
//
// A ProblemLog collects findings for exactly one message at three
// severities: information, error, and severe error. Rules append findings;
// nothing ever removes or reorders them. An error finding marks the message
// as failed without stopping the chain; a severe finding stops the chain at
// the next iteration boundary.
//
// Rules are pure functions over (payload, problem log). The built-in
// variants cover required keys, forbidden keys, exact value matches and
// JSON-Schema conformance; custom rules plug in via the Rule interface or
// the RuleFunc adapter.
package validation
