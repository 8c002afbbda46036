package configcat

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/blang/semver/v4"

	"github.com/configcat/go-sdk/v9/internal/wireconfig"
)

func matchRolloutRule(rule *wireconfig.RolloutRule, user *User) (bool, error) {
	userValue := user.GetAttribute(rule.ComparisonAttribute)
	if userValue == "" {
		return false, nil
	}

	switch rule.Comparator {
	case wireconfig.OpOneOf, wireconfig.OpNotOneOf:
		for _, item := range strings.Split(rule.ComparisonValue, ",") {
			if strings.TrimSpace(item) == userValue {
				return rule.Comparator == wireconfig.OpOneOf, nil
			}
		}
		return rule.Comparator == wireconfig.OpNotOneOf, nil
	case wireconfig.OpContains:
		return strings.Contains(userValue, rule.ComparisonValue), nil
	case wireconfig.OpNotContains:
		return !strings.Contains(userValue, rule.ComparisonValue), nil
	case wireconfig.OpOneOfSemver, wireconfig.OpNotOneOfSemver:
		userVersion, err := semver.Make(userValue)
		if err != nil {
			return false, err
		}
		matched := false
		for _, item := range strings.Split(rule.ComparisonValue, ",") {
			cmpItem := strings.TrimSpace(item)
			if len(cmpItem) == 0 {
				continue
			}
			semVer, err := semver.Make(cmpItem)
			if err != nil {
				return false, err
			}
			if userVersion.EQ(semVer) {
				matched = true
				// Note: we can't break out early here because
				// that would influence the result when a later
				// item being compared against is an invalid
				// semver.
			}
		}
		if rule.Comparator == wireconfig.OpNotOneOfSemver {
			matched = !matched
		}
		return matched, nil
	case wireconfig.OpLessSemver, wireconfig.OpLessEqSemver, wireconfig.OpGreaterSemver, wireconfig.OpGreaterEqSemver:
		userVersion, err := semver.Make(userValue)
		if err != nil {
			return false, err
		}
		cmpVersion, err := semver.Make(strings.TrimSpace(rule.ComparisonValue))
		if err != nil {
			return false, err
		}
		switch rule.Comparator {
		case wireconfig.OpLessSemver:
			return userVersion.LT(cmpVersion), nil
		case wireconfig.OpLessEqSemver:
			return userVersion.LTE(cmpVersion), nil
		case wireconfig.OpGreaterSemver:
			return userVersion.GT(cmpVersion), nil
		default:
			return userVersion.GTE(cmpVersion), nil
		}
	case wireconfig.OpEqNum, wireconfig.OpNotEqNum, wireconfig.OpLessNum, wireconfig.OpLessEqNum, wireconfig.OpGreaterNum, wireconfig.OpGreaterEqNum:
		userDouble, err := strconv.ParseFloat(strings.Replace(userValue, ",", ".", -1), 64)
		if err != nil {
			return false, err
		}
		cmpDouble, err := strconv.ParseFloat(strings.Replace(rule.ComparisonValue, ",", ".", -1), 64)
		if err != nil {
			return false, err
		}
		switch rule.Comparator {
		case wireconfig.OpEqNum:
			return userDouble == cmpDouble, nil
		case wireconfig.OpNotEqNum:
			return userDouble != cmpDouble, nil
		case wireconfig.OpLessNum:
			return userDouble < cmpDouble, nil
		case wireconfig.OpLessEqNum:
			return userDouble <= cmpDouble, nil
		case wireconfig.OpGreaterNum:
			return userDouble > cmpDouble, nil
		default:
			return userDouble >= cmpDouble, nil
		}
	case wireconfig.OpOneOfSensitive, wireconfig.OpNotOneOfSensitive:
		sum := sha1.Sum([]byte(userValue))
		hash := hex.EncodeToString(sum[:])
		for _, item := range strings.Split(rule.ComparisonValue, ",") {
			if strings.TrimSpace(item) == hash {
				return rule.Comparator == wireconfig.OpOneOfSensitive, nil
			}
		}
		return rule.Comparator == wireconfig.OpNotOneOfSensitive, nil
	default:
		return false, nil
	}
}
