package checks

import (
	"docaudit/internal/rules"
)

// Check is one runnable rule.
type Check interface {
	ID() int
	Category() string
	Description() string
	Rule() *rules.Rule
	Run(ctx *Context) Result
}

// ruleCheck carries the rule metadata shared by both check variants.
type ruleCheck struct {
	rule *rules.Rule
}

func (c ruleCheck) ID() int             { return c.rule.ID }
func (c ruleCheck) Category() string    { return c.rule.Category }
func (c ruleCheck) Description() string { return c.rule.Description }
func (c ruleCheck) Rule() *rules.Rule   { return c.rule }

// declarativeCheck interprets a data-only rule shape.
type declarativeCheck struct {
	ruleCheck
}

func (c declarativeCheck) Run(ctx *Context) Result {
	return evaluate(ctx, c.rule)
}

// builtinCheck delegates to a registered handler.
type builtinCheck struct {
	ruleCheck
	handler HandlerID
}

func (c builtinCheck) Run(ctx *Context) Result {
	return handlerTable[c.handler](ctx, c.rule)
}

// Handler returns the handler the check runs.
func (c builtinCheck) Handler() HandlerID {
	return c.handler
}
