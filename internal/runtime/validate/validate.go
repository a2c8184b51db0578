// Package validate checks messages before they are handed to a pathway.
//
// A Validator runs a fixed base rule set followed by any number of extra
// rules in order. It stops at the first failure and never mutates the
// message, so Validate may be called repeatedly.
package validate

import (
	"fmt"
	"slices"
	"strings"

	errspkg "github.com/drblury/mozdef/internal/runtime/errors"
	"github.com/drblury/mozdef/internal/runtime/message"
)

// Severities lists the accepted severity levels.
var Severities = []string{"INFO", "WARNING", "CRITICAL", "ERROR", "DEBUG"}

// Rule inspects a message and returns a *errors.ValidationError when it
// does not hold.
type Rule func(*message.Message) error

// Validator is an ordered rule pipeline. The zero value runs no rules; use
// New to get the base checks.
type Validator struct {
	rules []Rule
}

// New returns a validator running the base rules followed by extra.
func New(extra ...Rule) *Validator {
	rules := make([]Rule, 0, len(baseRules)+len(extra))
	rules = append(rules, baseRules...)
	rules = append(rules, extra...)
	return &Validator{rules: rules}
}

// Example returns the sample specialised validator that additionally
// requires an "example" key in details.
func Example() *Validator {
	return New(RequireDetail("example"))
}

// With returns a new validator that runs v's rules and then rules. v is
// left unchanged.
func (v *Validator) With(rules ...Rule) *Validator {
	out := &Validator{rules: make([]Rule, 0, len(v.rules)+len(rules))}
	out.rules = append(out.rules, v.rules...)
	out.rules = append(out.rules, rules...)
	return out
}

// Len reports the number of rules.
func (v *Validator) Len() int {
	return len(v.rules)
}

// Validate runs every rule in order and returns the first failure.
func (v *Validator) Validate(msg *message.Message) error {
	if msg == nil {
		return errspkg.ErrMessageRequired
	}
	for _, rule := range v.rules {
		if err := rule(msg); err != nil {
			return err
		}
	}
	return nil
}

var baseRules = []Rule{
	SummaryNotEmpty,
	SummaryPresent,
	SeverityAllowed,
}

// SummaryNotEmpty fails when summary is present but empty.
func SummaryNotEmpty(msg *message.Message) error {
	if msg.Has(message.FieldSummary) && msg.Summary() == "" {
		return fail(message.FieldSummary, "summary is empty")
	}
	return nil
}

// SummaryPresent fails when summary is absent.
func SummaryPresent(msg *message.Message) error {
	if !msg.Has(message.FieldSummary) {
		return fail(message.FieldSummary, "summary is None")
	}
	return nil
}

// SeverityAllowed fails when severity is absent or not one of Severities.
func SeverityAllowed(msg *message.Message) error {
	severity, ok := msg.Get(message.FieldSeverity)
	if !ok || !slices.Contains(Severities, severity.(string)) {
		return fail(message.FieldSeverity, fmt.Sprintf("severity %v is not allowed %v", displayValue(severity, ok), Severities))
	}
	return nil
}

// RequireDetail fails when details lacks key.
func RequireDetail(key string) Rule {
	return func(msg *message.Message) error {
		if _, ok := msg.Detail(key); !ok {
			return fail(message.FieldDetails, key+" key missing from details")
		}
		return nil
	}
}

// RequireTag fails when tag is not in the tag list.
func RequireTag(tag string) Rule {
	return func(msg *message.Message) error {
		if !slices.Contains(msg.Tags(), tag) {
			return fail(message.FieldTags, "tag "+tag+" is missing")
		}
		return nil
	}
}

// RequireCategory fails when category is not one of values.
func RequireCategory(values ...string) Rule {
	return func(msg *message.Message) error {
		category, ok := msg.Get(message.FieldCategory)
		if !ok || !slices.Contains(values, category.(string)) {
			return fail(message.FieldCategory, fmt.Sprintf("category %v is not one of [%s]", displayValue(category, ok), strings.Join(values, " ")))
		}
		return nil
	}
}

func fail(field, reason string) error {
	return &errspkg.ValidationError{Field: field, Reason: reason}
}

func displayValue(v any, ok bool) any {
	if !ok {
		return "None"
	}
	return v
}
