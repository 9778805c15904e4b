package schema

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// RuleKind distinguishes pattern rules from predicate rules.
type RuleKind string

const (
	RulePattern   RuleKind = "pattern"
	RulePredicate RuleKind = "predicate"
)

// defaultRuleMessage is used when neither the registry nor the declaration supplies one.
const defaultRuleMessage = "Invalid value"

// Rule is a resolved validation rule, ready for evaluation.
// Every rule produced by a Registry has a non-empty Message.
type Rule struct {
	Name      string            `json:"name"`
	Kind      RuleKind          `json:"kind"`
	Pattern   string            `json:"pattern,omitempty"`
	Message   string            `json:"message"`
	Predicate func(string) bool `json:"-"`

	re *regexp.Regexp
}

// Check reports whether value satisfies the rule.
func (r Rule) Check(value string) bool {
	switch r.Kind {
	case RulePredicate:
		return r.Predicate != nil && r.Predicate(value)
	case RulePattern:
		re := r.re
		if re == nil {
			compiled, err := regexp.Compile(r.Pattern)
			if err != nil {
				return false
			}
			re = compiled
		}
		return re.MatchString(value)
	default:
		return false
	}
}

// RuleDef is a registry entry. Exactly one of Pattern or Predicate is set.
type RuleDef struct {
	Name      string
	Pattern   string
	Predicate func(string) bool
	Message   string
}

func (d RuleDef) rule() Rule {
	r := Rule{Name: d.Name, Message: d.Message}
	if d.Predicate != nil {
		r.Kind = RulePredicate
		r.Predicate = d.Predicate
	} else {
		r.Kind = RulePattern
		r.Pattern = d.Pattern
	}
	return r
}

// builtinRules is the fixed rule set every registry starts with.
var builtinRules = []RuleDef{
	{Name: "code", Pattern: `^[a-zA-Z0-9]+$`, Message: "Only letters and digits are allowed."},
	{Name: "number", Pattern: `^[0-9]+$`, Message: "Only digits are allowed."},
	{Name: "alpha", Pattern: `^[a-zA-Z]+$`, Message: "Only letters are allowed."},
	{Name: "korean", Pattern: `^[가-힣]+$`, Message: "Only Hangul syllables are allowed."},
	{Name: "email", Pattern: `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`, Message: "Enter a valid email address."},
	{Name: "phone", Pattern: `^[0-9-]+$`, Message: "Enter a valid phone number."},
	{Name: "url", Pattern: `^https?:\/\/.+`, Message: "Enter a valid URL."},
	{
		Name:    "password",
		Pattern: `^[a-zA-Z0-9!@#$%^&*()_+\-=\[\]{};:'"\\|,.<>\/?\x{25CF}]+$`,
		Message: "Use letters, digits, special characters or ● (at least 8 characters).",
	},
	{Name: "jumin", Predicate: isResidentNumber, Message: "Invalid resident registration number."},
}

// isResidentNumber checks the length of a resident registration number once hyphens are removed.
func isResidentNumber(v string) bool {
	digits := strings.ReplaceAll(v, "-", "")
	if len(digits) != 13 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Registry maps rule names to rule definitions.
type Registry struct {
	mu     sync.RWMutex
	defs   map[string]RuleDef
	logger *slog.Logger
}

// NewRegistry creates a registry holding the built-in rules.
// A nil logger means slog.Default() at the time of each call.
func NewRegistry(logger *slog.Logger) *Registry {
	r := &Registry{
		defs:   make(map[string]RuleDef, len(builtinRules)),
		logger: logger,
	}
	for _, def := range builtinRules {
		r.Register(def)
	}
	return r
}

var defaultRegistry = NewRegistry(nil)

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds a rule definition.
// Panics if a rule with the same name is already registered.
func (r *Registry) Register(def RuleDef) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.Name]; exists {
		panic(fmt.Sprintf("validator already registered: %s", def.Name))
	}
	r.defs[def.Name] = def
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (RuleDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[name]
	return def, ok
}

// Names returns all registered rule names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}
