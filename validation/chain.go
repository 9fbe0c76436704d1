package validation

import "github.com/c360/riverkit/message"

// Chain is an ordered sequence of validation rules. Rules run in insertion
// order; the chain checks for severe findings before invoking each rule and
// stops silently once one is observed. A rule that records a severe finding
// still finishes its own appends before the chain notices at the next
// iteration boundary.
type Chain struct {
	rules []Rule
}

// Append adds a rule to the end of the chain. Appending the same rule twice
// yields two independent evaluations; there is no de-duplication.
func (c *Chain) Append(rule Rule) {
	c.rules = append(c.rules, rule)
}

// Len returns the number of registered rules.
func (c *Chain) Len() int {
	return len(c.rules)
}

// Run evaluates the chain against one payload, accumulating findings into
// plog. Callers must not invoke Run when the payload could not be produced;
// rules expect a non-nil payload.
func (c *Chain) Run(payload message.Payload, plog *ProblemLog) {
	for _, rule := range c.rules {
		if plog.AreSevere() {
			return
		}
		rule.Apply(payload, plog)
	}
}
