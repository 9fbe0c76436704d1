package validation

import (
	"fmt"

	"github.com/c360/riverkit/message"
)

// Rule is a single unit of validation over one parsed payload. Apply may
// append zero or more findings of any severity to the problem log; it must
// never mutate the payload.
type Rule interface {
	Apply(payload message.Payload, plog *ProblemLog)
}

// RuleFunc adapts an ordinary function to the Rule interface.
type RuleFunc func(payload message.Payload, plog *ProblemLog)

// Apply calls f(payload, plog).
func (f RuleFunc) Apply(payload message.Payload, plog *ProblemLog) {
	f(payload, plog)
}

// RequiredKeys returns a rule that records an error for every listed key
// that is absent from the payload, and an informational finding for every
// one that is present. Emptiness follows message.Payload.Present.
func RequiredKeys(keys ...string) Rule {
	return requiredKeysRule{keys: keys}
}

type requiredKeysRule struct {
	keys []string
}

func (r requiredKeysRule) Apply(payload message.Payload, plog *ProblemLog) {
	for _, key := range r.keys {
		if payload.Present(key) {
			plog.Information(fmt.Sprintf("Required key '%s' actually exists", key))
		} else {
			plog.Error(fmt.Sprintf("Missing required key '%s'", key))
		}
	}
}

// ForbiddenKeys returns a rule that records an error for every listed key
// that is present in the payload, and an informational finding confirming
// absence for every one that is not.
func ForbiddenKeys(keys ...string) Rule {
	return forbiddenKeysRule{keys: keys}
}

type forbiddenKeysRule struct {
	keys []string
}

func (r forbiddenKeysRule) Apply(payload message.Payload, plog *ProblemLog) {
	for _, key := range r.keys {
		if payload.Present(key) {
			plog.Error(fmt.Sprintf("Forbidden key '%s' exists", key))
		} else {
			plog.Information(fmt.Sprintf("Forbidden key '%s' does not exist", key))
		}
	}
}

// RequiredValue returns a rule that records an error when key is absent or
// when its string rendering differs from expected. A match records nothing.
func RequiredValue(key, expected string) Rule {
	return requiredValueRule{key: key, expected: expected}
}

type requiredValueRule struct {
	key      string
	expected string
}

func (r requiredValueRule) Apply(payload message.Payload, plog *ProblemLog) {
	if !payload.Present(r.key) {
		plog.Error(fmt.Sprintf("Missing required key '%s'", r.key))
		return
	}
	if payload.StringValue(r.key) != r.expected {
		plog.Error(fmt.Sprintf("Required key '%s' must equal '%s'", r.key, r.expected))
	}
}
