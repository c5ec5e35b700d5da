package rules

import (
	"arbiter/domain/block"
	"arbiter/domain/taxonomy"
)

// Built-in rule names
const (
	RuleMandateProhibitionConflict   = "mandate-prohibition-conflict"
	RuleScopeOverlapRedundancy       = "scope-overlap-redundancy"
	RulePriorityMarkerAmbiguity      = "priority-marker-ambiguity"
	RuleImplicitDependencyUnresolved = "implicit-dependency-unresolved"
	RuleVerbatimDuplication          = "verbatim-duplication"
)

// DefaultRuleSetName names the built-in rule set
const DefaultRuleSetName = "arbiter-builtin"

const mandateProhibitionPrompt = `You are analyzing two blocks from a system prompt for interference.

## Block A
{block_a_text}

## Block B
{block_b_text}

## Task
Does Block A mandate (require) something that Block B prohibits (forbids), or vice versa? This is a direct contradiction if the same action is both required and forbidden, even if they apply in different contexts.

Respond with JSON only:
{
  "score": <float 0.0 to 1.0, where 1.0 = certain contradiction>,
  "explanation": "<why this is or isn't a mandate/prohibition conflict>"
}`

const scopeOverlapPrompt = `You are analyzing two blocks from a system prompt for interference.

## Block A
{block_a_text}

## Block B
{block_b_text}

## Task
Do these blocks regulate the same behavior with overlapping or redundant instructions? Score higher if the overlap creates ambiguity about which instruction takes precedence, or if they give subtly different guidance on the same topic.

Respond with JSON only:
{
  "score": <float 0.0 to 1.0, where 1.0 = highly ambiguous overlap>,
  "explanation": "<what overlaps and whether it creates ambiguity>"
}`

const implicitDependencyPrompt = `You are analyzing two blocks from a system prompt for interference.

## Block A
{block_a_text}

## Block B
{block_b_text}

## Task
Does Block A implicitly depend on or override Block B (or vice versa) without explicitly declaring the relationship? An implicit dependency exists when one block's instructions only make sense in the context of another block, or when one block silently narrows/broadens another's scope.

Respond with JSON only:
{
  "score": <float 0.0 to 1.0, where 1.0 = strong undeclared dependency>,
  "explanation": "<what the implicit relationship is>"
}`

// BuiltinRules returns a fresh copy of the five built-in rules
func BuiltinRules() []EvaluationRule {
	return []EvaluationRule{
		{
			Name:                 RuleMandateProhibitionConflict,
			InterferenceType:     taxonomy.DirectContradiction,
			Description:          "Detects when one block mandates an action that another block prohibits ('always use X' vs 'never use X').",
			Severity:             taxonomy.SeverityCritical,
			RequiresScopeOverlap: true,
			ModalityA:            block.ModalityMandate,
			ModalityB:            block.ModalityProhibition,
			RequiresLLM:          true,
			PromptTemplate:       mandateProhibitionPrompt,
		},
		{
			Name:                 RuleScopeOverlapRedundancy,
			InterferenceType:     taxonomy.ScopeOverlap,
			Description:          "Detects when two blocks regulate the same behavior with overlapping or redundant instructions.",
			Severity:             taxonomy.SeverityMajor,
			RequiresScopeOverlap: true,
			RequiresLLM:          true,
			PromptTemplate:       scopeOverlapPrompt,
		},
		{
			Name:             RulePriorityMarkerAmbiguity,
			InterferenceType: taxonomy.PriorityAmbiguity,
			Description:      "Detects when multiple blocks use priority markers (IMPORTANT, CRITICAL, MUST, NEVER) without declaring which takes precedence.",
			Severity:         taxonomy.SeverityMinor,
		},
		{
			Name:                 RuleImplicitDependencyUnresolved,
			InterferenceType:     taxonomy.ImplicitDependency,
			Description:          "Detects when one block implicitly depends on or overrides another without declaring the relationship.",
			Severity:             taxonomy.SeverityMajor,
			RequiresScopeOverlap: true,
			RequiresLLM:          true,
			PromptTemplate:       implicitDependencyPrompt,
		},
		{
			Name:             RuleVerbatimDuplication,
			InterferenceType: taxonomy.ScopeOverlap,
			Description:      "Detects when two blocks contain substantially identical text.",
			Severity:         taxonomy.SeverityMinor,
		},
	}
}

// DefaultRuleSet returns an uncompiled rule set holding the built-in rules
func DefaultRuleSet() RuleSet {
	return RuleSet{Name: DefaultRuleSetName, Rules: BuiltinRules()}
}
