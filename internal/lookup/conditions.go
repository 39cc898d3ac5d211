package lookup

import (
	"slices"
	"strings"
)

// Primary actions of the detailed recommendation tiers.
const (
	ActionResale  = "resale"
	ActionRepair  = "repair"
	ActionRecycle = "recycle"
)

// Bucket is the coarse grouping used by the agent-facing option list.
type Bucket int

const (
	// BucketNone yields no options.
	BucketNone Bucket = iota
	// BucketMend groups worn-out items: repair, upcycle, recycle.
	BucketMend
	// BucketReuse groups items still in good shape: resell, donate, keep.
	BucketReuse
)

// Tier is the detailed recommendation for a condition.
type Tier struct {
	Action   string
	Message  string
	Priority []string
}

var (
	resaleTier = Tier{
		Action:   ActionResale,
		Message:  "This item is in great condition for resale!",
		Priority: []string{"resale", "donation", "keep"},
	}
	repairTier = Tier{
		Action:   ActionRepair,
		Message:  "Consider repairing before resale or continued use.",
		Priority: []string{"repair", "resale", "donation"},
	}
	recycleTier = Tier{
		Action:   ActionRecycle,
		Message:  "This item is best suited for textile recycling or upcycling.",
		Priority: []string{"recycle", "upcycle", "textile-waste"},
	}
)

// ConditionRule is one row of the condition table.
type ConditionRule struct {
	Tier   Tier
	Bucket Bucket
}

// conditions is the single condition table both recommendation views read.
// Conditions not listed use defaultCondition.
var conditions = map[string]ConditionRule{
	"excellent": {Tier: resaleTier, Bucket: BucketNone},
	"good":      {Tier: resaleTier, Bucket: BucketReuse},
	"new":       {Tier: recycleTier, Bucket: BucketReuse},
	"fair":      {Tier: repairTier, Bucket: BucketMend},
	"worn":      {Tier: recycleTier, Bucket: BucketMend},
	"damaged":   {Tier: recycleTier, Bucket: BucketMend},
}

var defaultCondition = ConditionRule{Tier: recycleTier, Bucket: BucketNone}

// RuleFor returns the rule for condition, matched case-insensitively after
// trimming.
func RuleFor(condition string) ConditionRule {
	rule, ok := conditions[strings.ToLower(strings.TrimSpace(condition))]
	if !ok {
		rule = defaultCondition
	}
	rule.Tier.Priority = slices.Clone(rule.Tier.Priority)
	return rule
}

// Conditions lists the named conditions in the table, sorted.
func Conditions() []string {
	out := make([]string, 0, len(conditions))
	for c := range conditions {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}
