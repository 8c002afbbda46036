package configcat

import (
	"crypto/sha1"
	"encoding/binary"

	"github.com/configcat/go-sdk/v9/internal/wireconfig"
)

type rolloutEvaluator struct {
	logger *leveledLogger
}

func newRolloutEvaluator(logger *leveledLogger) *rolloutEvaluator {
	return &rolloutEvaluator{logger: logger}
}

// evaluate returns the raw value and variation ID that entry yields for user.
func (evaluator *rolloutEvaluator) evaluate(node *wireconfig.Entry, key string, user *User) (interface{}, string) {
	evaluator.logger.Infof("Evaluating GetValue(%s).", key)

	if user == nil {
		if len(node.RolloutRules) > 0 || len(node.PercentageRules) > 0 {
			evaluator.logger.Warnf("Evaluating GetValue(%s). UserObject missing! You should pass a "+
				"UserObject to GetValueForUser() in order to make targeting work properly. "+
				"Read more: https://configcat.com/docs/advanced/user-object.", key)
		}
		evaluator.logger.Infof("Returning %v.", node.Value)
		return node.Value, node.VariationID
	}

	evaluator.logger.Infof("User object: %v", user)

	for _, rule := range node.RolloutRules {
		if rule == nil {
			continue
		}
		matched, err := matchRolloutRule(rule, user)
		if err != nil {
			evaluator.logger.Infof("Evaluating rule: [%s:%s] [%s] [%s] => SKIP rule. Validation error: %v",
				rule.ComparisonAttribute, user.GetAttribute(rule.ComparisonAttribute), rule.Comparator, rule.ComparisonValue, err)
			continue
		}
		if matched {
			evaluator.logger.Infof("Evaluating rule: [%s:%s] [%s] [%s] => match, returning: %v",
				rule.ComparisonAttribute, user.GetAttribute(rule.ComparisonAttribute), rule.Comparator, rule.ComparisonValue, rule.Value)
			return rule.Value, rule.VariationID
		}
		evaluator.logger.Infof("Evaluating rule: [%s:%s] [%s] [%s] => no match",
			rule.ComparisonAttribute, user.GetAttribute(rule.ComparisonAttribute), rule.Comparator, rule.ComparisonValue)
	}

	if len(node.PercentageRules) > 0 {
		sum := sha1.Sum([]byte(key + user.identifier))
		// The first 7 hex digits of the sum, as a number.
		num := int64(binary.BigEndian.Uint32(sum[:4])) >> 4
		scaled := num % 100
		bucket := int64(0)
		for _, rule := range node.PercentageRules {
			bucket += rule.Percentage
			if scaled < bucket {
				evaluator.logger.Infof("Evaluating %% options. Returning %v", rule.Value)
				return rule.Value, rule.VariationID
			}
		}
	}

	evaluator.logger.Infof("Returning %v.", node.Value)
	return node.Value, node.VariationID
}
