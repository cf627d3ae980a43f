package checks

import (
	"sort"

	auditerrors "docaudit/internal/errors"
	"docaudit/internal/rules"
)

// Registry holds one Check per rule, in execution order.
type Registry struct {
	set    *rules.RuleSet
	checks []Check
	byID   map[int]Check
}

// NewRegistry builds checks for every rule in set. A builtin rule naming an
// unknown handler is a load error.
func NewRegistry(set *rules.RuleSet) (*Registry, error) {
	reg := &Registry{set: set, byID: make(map[int]Check, set.Len())}

	var unknown []string
	for _, rule := range set.Ordered() {
		var check Check
		if rule.Type == rules.Builtin {
			handler, ok := ParseHandler(rule.Handler)
			if !ok {
				unknown = append(unknown, rule.Handler)
				continue
			}
			check = builtinCheck{ruleCheck: ruleCheck{rule: rule}, handler: handler}
		} else {
			check = declarativeCheck{ruleCheck{rule: rule}}
		}
		reg.checks = append(reg.checks, check)
		reg.byID[rule.ID] = check
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, auditerrors.Newf(auditerrors.UnknownHandler,
			"unknown builtin handler %q", unknown[0]).
			WithDetails(map[string]interface{}{
				"handlers": unknown,
				"known":    HandlerNames(),
			})
	}
	return reg, nil
}

// Checks returns the checks in execution order.
func (r *Registry) Checks() []Check {
	return r.checks
}

// Get returns the check for a rule ID.
func (r *Registry) Get(id int) (Check, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// Rules returns the rule set the registry was built from.
func (r *Registry) Rules() *rules.RuleSet {
	return r.set
}

// Len returns the number of checks.
func (r *Registry) Len() int {
	return len(r.checks)
}
