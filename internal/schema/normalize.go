package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidatorDecl is one raw validator declaration.
//
// The string form sets only Name ("code" or "code:special(_-)"). The object
// form sets Rule and any overrides.
type ValidatorDecl struct {
	Name string

	Rule      string
	Special   string
	Message   string
	Pattern   string
	Predicate func(string) bool
}

// ValidatorDecls is a list of declarations. A single declaration in a page
// file is accepted in place of a list.
type ValidatorDecls []ValidatorDecl

// V builds string-form declarations.
func V(names ...string) ValidatorDecls {
	out := make(ValidatorDecls, len(names))
	for i, n := range names {
		out[i] = ValidatorDecl{Name: n}
	}
	return out
}

func (d ValidatorDecl) isString() bool {
	return d.Name != "" && d.Rule == ""
}

var specialDeclRe = regexp.MustCompile(`^(\w+):special\((.+)\)$`)

// specialEscapes lists the characters escaped before interpolation into a character class.
const specialEscapes = `-/\^$*+?.()|[]{}`

// EscapeSpecial escapes regex metacharacters in chars.
func EscapeSpecial(chars string) string {
	var b strings.Builder
	b.Grow(len(chars) * 2)
	for _, r := range chars {
		if strings.ContainsRune(specialEscapes, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func specialPattern(chars string) string {
	return "^[a-zA-Z0-9" + EscapeSpecial(chars) + "]+$"
}

func specialMessage(chars string) string {
	return fmt.Sprintf("Only letters, digits and special characters (%s) are allowed.", chars)
}

// NormalizeValidators resolves declarations against the default registry.
func NormalizeValidators(decls ...ValidatorDecl) []Rule {
	return defaultRegistry.Normalize(decls)
}

// Normalize resolves raw declarations into rules, in declaration order.
// Unknown names and invalid patterns are logged and dropped; duplicates are kept.
func (r *Registry) Normalize(decls ValidatorDecls) []Rule {
	rules := make([]Rule, 0, len(decls))
	for _, d := range decls {
		rule, ok := r.resolve(d)
		if !ok {
			continue
		}
		if rule.Kind == RulePattern {
			re, err := regexp.Compile(rule.Pattern)
			if err != nil {
				r.log().Warn("validator: invalid pattern, skipping",
					"validator", rule.Name,
					"pattern", rule.Pattern,
					"error", err,
				)
				continue
			}
			rule.re = re
		}
		if rule.Message == "" {
			rule.Message = defaultRuleMessage
		}
		rules = append(rules, rule)
	}
	return rules
}

func (r *Registry) resolve(d ValidatorDecl) (Rule, bool) {
	if d.isString() {
		return r.resolveName(d.Name)
	}

	if d.Rule != "" {
		if def, ok := r.Lookup(d.Rule); ok {
			rule := def.rule()
			if d.Special != "" {
				rule = withSpecial(rule, d.Special)
			}
			return applyOverrides(rule, d), true
		}
	}

	// Inline rules need their own pattern or predicate.
	if d.Pattern != "" || d.Predicate != nil {
		name := d.Rule
		if name == "" {
			name = "custom"
		}
		return applyOverrides(Rule{Name: name}, d), true
	}

	r.log().Warn("validator: unknown rule, skipping", "validator", d.Rule)
	return Rule{}, false
}

func (r *Registry) resolveName(name string) (Rule, bool) {
	if m := specialDeclRe.FindStringSubmatch(name); m != nil {
		if def, ok := r.Lookup(m[1]); ok {
			return withSpecial(def.rule(), m[2]), true
		}
	}
	if def, ok := r.Lookup(name); ok {
		return def.rule(), true
	}
	r.log().Warn("validator: unknown rule, skipping", "validator", name)
	return Rule{}, false
}

// withSpecial rebuilds a rule as a letters-digits-plus-chars pattern.
func withSpecial(rule Rule, chars string) Rule {
	rule.Kind = RulePattern
	rule.Predicate = nil
	rule.Pattern = specialPattern(chars)
	rule.Message = specialMessage(chars)
	return rule
}

// applyOverrides applies the caller's explicit fields; they always win.
func applyOverrides(rule Rule, d ValidatorDecl) Rule {
	if d.Message != "" {
		rule.Message = d.Message
	}
	if d.Pattern != "" {
		rule.Kind = RulePattern
		rule.Pattern = d.Pattern
		rule.Predicate = nil
	}
	if d.Predicate != nil {
		rule.Kind = RulePredicate
		rule.Predicate = d.Predicate
		rule.Pattern = ""
	}
	return rule
}
