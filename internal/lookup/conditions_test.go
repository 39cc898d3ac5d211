package lookup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleFor_Tiers(t *testing.T) {
	tests := []struct {
		condition string
		action    string
		priority  []string
		bucket    Bucket
	}{
		{"excellent", ActionResale, []string{"resale", "donation", "keep"}, BucketNone},
		{"good", ActionResale, []string{"resale", "donation", "keep"}, BucketReuse},
		{"GOOD ", ActionResale, []string{"resale", "donation", "keep"}, BucketReuse},
		{"fair", ActionRepair, []string{"repair", "resale", "donation"}, BucketMend},
		{"new", ActionRecycle, []string{"recycle", "upcycle", "textile-waste"}, BucketReuse},
		{"worn", ActionRecycle, []string{"recycle", "upcycle", "textile-waste"}, BucketMend},
		{"damaged", ActionRecycle, []string{"recycle", "upcycle", "textile-waste"}, BucketMend},
		{"terrible", ActionRecycle, []string{"recycle", "upcycle", "textile-waste"}, BucketNone},
		{"", ActionRecycle, []string{"recycle", "upcycle", "textile-waste"}, BucketNone},
	}
	for _, tt := range tests {
		t.Run(tt.condition, func(t *testing.T) {
			rule := RuleFor(tt.condition)
			assert.Equal(t, tt.action, rule.Tier.Action)
			assert.Equal(t, tt.priority, rule.Tier.Priority)
			assert.Equal(t, tt.bucket, rule.Bucket)
		})
	}
}

func TestRuleFor_PriorityIsCopied(t *testing.T) {
	RuleFor("good").Tier.Priority[0] = "landfill"
	assert.Equal(t, "resale", RuleFor("good").Tier.Priority[0])
}

func TestEveryTierHasImpact(t *testing.T) {
	for _, c := range append(Conditions(), "unknown") {
		action := RuleFor(c).Tier.Action
		_, ok := impacts[action]
		assert.True(t, ok, "no impact record for %s (condition %s)", action, c)
	}
}
