package configcat

import (
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/configcat/go-sdk/v9/internal/wireconfig"
)

func targetedEntry() *wireconfig.Entry {
	return &wireconfig.Entry{
		VariationID: "default-id",
		Value:       "default",
		Type:        wireconfig.StringEntry,
		RolloutRules: []*wireconfig.RolloutRule{
			nil,
			{
				VariationID:         "semver-id",
				Value:               "semver",
				ComparisonAttribute: "Version",
				ComparisonValue:     "2.0.0",
				Comparator:          wireconfig.OpGreaterEqSemver,
			},
			{
				VariationID:         "email-id",
				Value:               "email",
				ComparisonAttribute: "Email",
				ComparisonValue:     "@example.com",
				Comparator:          wireconfig.OpContains,
			},
		},
		PercentageRules: []wireconfig.PercentageRule{
			{VariationID: "low-id", Value: "low", Percentage: 30},
			{VariationID: "high-id", Value: "high", Percentage: 70},
		},
	}
}

func TestRolloutEvaluator(t *testing.T) {
	tests := []struct {
		testName string
		user     *User
		want     interface{}
		wantID   string
	}{{
		testName: "nil-user",
		want:     "default",
		wantID:   "default-id",
	}, {
		testName: "first-matching-rule",
		user:     NewUserWithAdditionalAttributes("user-1", "a@example.com", "", map[string]string{"Version": "2.1.0"}),
		want:     "semver",
		wantID:   "semver-id",
	}, {
		testName: "invalid-semver-skips-rule",
		user:     NewUserWithAdditionalAttributes("user-1", "a@example.com", "", map[string]string{"Version": "two"}),
		want:     "email",
		wantID:   "email-id",
	}, {
		testName: "percentage-low",
		user:     NewUser("user-5"),
		want:     "low",
		wantID:   "low-id",
	}, {
		testName: "percentage-high",
		user:     NewUser("user-1"),
		want:     "high",
		wantID:   "high-id",
	}}
	c := qt.New(t)
	for _, test := range tests {
		c.Run(test.testName, func(c *qt.C) {
			evaluator := newRolloutEvaluator(newLeveledLogger(newTestLogger(t)))
			value, id := evaluator.evaluate(targetedEntry(), "pct", test.user)
			c.Assert(value, qt.Equals, test.want)
			c.Assert(id, qt.Equals, test.wantID)
		})
	}
}

func TestRolloutEvaluatorWarnsWithoutUser(t *testing.T) {
	c := qt.New(t)
	logger := newTestLogger(t)
	evaluator := newRolloutEvaluator(newLeveledLogger(logger))
	evaluator.evaluate(targetedEntry(), "pct", nil)

	warned := false
	for _, line := range logger.Logs() {
		if strings.HasPrefix(line, "WARN: ") && strings.Contains(line, "UserObject missing") {
			warned = true
		}
	}
	c.Assert(warned, qt.IsTrue)
}

func TestRolloutEvaluatorPercentagesAreStable(t *testing.T) {
	c := qt.New(t)
	evaluator := newRolloutEvaluator(newLeveledLogger(newTestLogger(t)))
	user := NewUser("user-3")
	first, _ := evaluator.evaluate(targetedEntry(), "pct", user)
	for i := 0; i < 10; i++ {
		value, _ := evaluator.evaluate(targetedEntry(), "pct", user)
		c.Assert(value, qt.Equals, first)
	}
}
