package engine

// These errors are user errors: problems with the rule set or with
// evaluation limits, not internal errors.

import (
	"errors"
	"fmt"
)

// UnsafeNegation occurs when the predicate dependency graph has a
// cycle that includes a negative edge.  Such a rule set has no
// stratification and is rejected before any rule runs.
type UnsafeNegation struct {
	// From and To identify one negative edge inside the offending
	// cycle.
	From string
	To   string
}

func (e *UnsafeNegation) Error() string {
	return fmt.Sprintf("unsafe negation: cycle through negative edge %s -> %s", e.From, e.To)
}

// UnsafeRule occurs when a head variable is not bound by any positive
// body element of its rule.
type UnsafeRule struct {
	Rule     int
	Variable string
}

func (e *UnsafeRule) Error() string {
	return fmt.Sprintf("unsafe rule %d: head variable ?%s is not bound by a positive body element", e.Rule, e.Variable)
}

// BudgetExhausted occurs when evaluation exceeds the configured
// iteration or derived-triple budget.  The partial graph and stats are
// still returned alongside this error.
type BudgetExhausted struct {
	Stratum   int
	Iteration int
	Derived   int
	Reason    string
}

func (e *BudgetExhausted) Error() string {
	return fmt.Sprintf("budget exhausted in stratum %d after %d iterations (%d derived): %s",
		e.Stratum, e.Iteration, e.Derived, e.Reason)
}

// EmptyBody occurs when a rule has no body elements.  Bodies must have
// at least one element.
type EmptyBody struct {
	Rule int
}

func (e *EmptyBody) Error() string {
	return fmt.Sprintf("rule %d has an empty body", e.Rule)
}

// errUnbound is the in-band "unbound" result of expression
// evaluation.  It is not a failure: BOUND() maps it to false and BIND
// passes the solution mapping through unchanged.
var errUnbound = errors.New("unbound")

// TypeError is the in-band error result of expression evaluation: a
// built-in or operator was applied to terms outside its contract.  A
// TypeError is local to one solution mapping.
type TypeError struct {
	Msg string
}

func (e *TypeError) Error() string {
	return e.Msg
}

func typeErrorf(format string, args ...interface{}) error {
	return &TypeError{Msg: fmt.Sprintf(format, args...)}
}
