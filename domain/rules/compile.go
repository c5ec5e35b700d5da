package rules

import (
	"fmt"
	"sort"
	"strings"

	"arbiter/domain/core"
	"arbiter/domain/taxonomy"
)

// CompilationError lists every violation found in a rule set
type CompilationError struct {
	RuleSet    string
	Violations []string
}

func (e *CompilationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "rule set %q failed compilation with %d error(s):", e.RuleSet, len(e.Violations))
	for _, v := range e.Violations {
		b.WriteString("\n  - ")
		b.WriteString(v)
	}
	return b.String()
}

func (e *CompilationError) Unwrap() error {
	return core.ErrCompilation
}

// CompiledRuleSet is a validated rule set. The only way to obtain one is
// Compile, so holders can assume every rule is well-formed.
type CompiledRuleSet struct {
	name  string
	rules []EvaluationRule
	index map[string]int
	hash  core.RuleSetHash
}

// Compile validates internal consistency and returns a CompiledRuleSet.
// All violations are collected before failing.
func (rs RuleSet) Compile() (*CompiledRuleSet, error) {
	var violations []string

	seen := make(map[string]struct{}, len(rs.Rules))
	for _, r := range rs.Rules {
		if strings.TrimSpace(r.Name) == "" {
			violations = append(violations, "rule with empty name")
			continue
		}
		if _, dup := seen[r.Name]; dup {
			violations = append(violations, fmt.Sprintf("duplicate rule name: %q", r.Name))
		}
		seen[r.Name] = struct{}{}
	}

	for _, r := range rs.Rules {
		violations = append(violations, checkRule(r)...)
	}

	if len(violations) > 0 {
		return nil, &CompilationError{RuleSet: rs.Name, Violations: violations}
	}

	rules := make([]EvaluationRule, len(rs.Rules))
	copy(rules, rs.Rules)
	index := make(map[string]int, len(rules))
	for i, r := range rules {
		index[r.Name] = i
	}

	return &CompiledRuleSet{
		name:  rs.Name,
		rules: rules,
		index: index,
		hash:  computeRuleSetHash(rs.Name, rules),
	}, nil
}

// MustCompile is Compile for static rule tables; it panics on error
func (rs RuleSet) MustCompile() *CompiledRuleSet {
	compiled, err := rs.Compile()
	if err != nil {
		panic(err)
	}
	return compiled
}

func checkRule(r EvaluationRule) []string {
	var out []string
	if !r.InterferenceType.Valid() {
		out = append(out, fmt.Sprintf("rule %q: unknown interference type %q", r.Name, r.InterferenceType))
	}
	if !r.Severity.Valid() {
		out = append(out, fmt.Sprintf("rule %q: unknown severity %q", r.Name, r.Severity))
	}
	if r.ModalityA != "" && !r.ModalityA.Valid() {
		out = append(out, fmt.Sprintf("rule %q: unknown modality_a %q", r.Name, r.ModalityA))
	}
	if r.ModalityB != "" && !r.ModalityB.Valid() {
		out = append(out, fmt.Sprintf("rule %q: unknown modality_b %q", r.Name, r.ModalityB))
	}

	switch {
	case !r.RequiresLLM && r.PromptTemplate != "":
		out = append(out, fmt.Sprintf("rule %q: structural rule (requires_llm=false) must not have a prompt_template", r.Name))
	case r.RequiresLLM && r.PromptTemplate == "":
		out = append(out, fmt.Sprintf("rule %q: judge rule (requires_llm=true) must have a prompt_template", r.Name))
	case r.RequiresLLM:
		for _, p := range []string{PlaceholderBlockA, PlaceholderBlockB} {
			if !strings.Contains(r.PromptTemplate, p) {
				out = append(out, fmt.Sprintf("rule %q: prompt_template is missing placeholder %s", r.Name, p))
			}
		}
	}
	return out
}

// computeRuleSetHash creates a deterministic fingerprint of a rule set.
// Rules are sorted by name so authoring order does not change the hash.
func computeRuleSetHash(name string, rules []EvaluationRule) core.RuleSetHash {
	sorted := make([]EvaluationRule, len(rules))
	copy(sorted, rules)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var data strings.Builder
	data.WriteString(name)
	data.WriteString(";")
	for _, r := range sorted {
		fmt.Fprintf(&data, "%s:%s:%s:%t:%s:%s:%t:%s;",
			r.Name,
			r.InterferenceType,
			r.Severity,
			r.RequiresScopeOverlap,
			r.ModalityA,
			r.ModalityB,
			r.RequiresLLM,
			r.PromptTemplate,
		)
	}
	return core.NewRuleSetHash([]byte(data.String()))
}

// Name returns the rule set name
func (c *CompiledRuleSet) Name() string { return c.name }

// Hash returns the rule set fingerprint
func (c *CompiledRuleSet) Hash() core.RuleSetHash { return c.hash }

// Len returns the number of rules
func (c *CompiledRuleSet) Len() int { return len(c.rules) }

// Rules returns a copy of the rules in authoring order
func (c *CompiledRuleSet) Rules() []EvaluationRule {
	out := make([]EvaluationRule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Names returns rule names in authoring order (tensor axis 2)
func (c *CompiledRuleSet) Names() []string {
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.Name
	}
	return names
}

// Rule looks up a rule by name
func (c *CompiledRuleSet) Rule(name string) (EvaluationRule, bool) {
	i, ok := c.index[name]
	if !ok {
		return EvaluationRule{}, false
	}
	return c.rules[i], true
}

// StructuralRules returns rules that need no judge
func (c *CompiledRuleSet) StructuralRules() []EvaluationRule {
	var out []EvaluationRule
	for _, r := range c.rules {
		if !r.RequiresLLM {
			out = append(out, r)
		}
	}
	return out
}

// JudgeRules returns rules that require judge evaluation
func (c *CompiledRuleSet) JudgeRules() []EvaluationRule {
	var out []EvaluationRule
	for _, r := range c.rules {
		if r.RequiresLLM {
			out = append(out, r)
		}
	}
	return out
}

// Severity returns the declared severity of a rule
func (c *CompiledRuleSet) Severity(name string) (taxonomy.Severity, bool) {
	r, ok := c.Rule(name)
	return r.Severity, ok
}
