// Package wireconfig defines the config.json document served by the
// ConfigCat CDN. Keys are single letters to keep the payload small.
package wireconfig

// RootNode is the whole document.
type RootNode struct {
	Entries     map[string]*Entry `json:"f"`
	Preferences *Preferences      `json:"p,omitempty"`
}

// Entry is a single setting with its targeting rules.
type Entry struct {
	VariationID     string           `json:"i"`
	Value           interface{}      `json:"v"`
	Type            EntryType        `json:"t"`
	RolloutRules    []*RolloutRule   `json:"r"`
	PercentageRules []PercentageRule `json:"p"`
}

// RolloutRule compares one user attribute against ComparisonValue.
type RolloutRule struct {
	VariationID         string      `json:"i"`
	Value               interface{} `json:"v"`
	ComparisonAttribute string      `json:"a"`
	ComparisonValue     string      `json:"c"`
	Comparator          Operator    `json:"t"`
}

// PercentageRule serves Value to Percentage percent of users.
type PercentageRule struct {
	VariationID string      `json:"i"`
	Value       interface{} `json:"v"`
	Percentage  int64       `json:"p"`
}

// Preferences tells the client where the configuration for its
// data governance region lives.
type Preferences struct {
	URL      string           `json:"u"`
	Redirect *RedirectionKind `json:"r"`
}

// Redirection returns the base URL and redirect kind the server asked
// for. ok is false when the document carries no redirect.
func (p *Preferences) Redirection() (url string, kind RedirectionKind, ok bool) {
	if p == nil || p.URL == "" || p.Redirect == nil {
		return "", NoRedirect, false
	}
	return p.URL, *p.Redirect, true
}

type RedirectionKind int

const (
	// NoRedirect serves the configuration from this response and
	// moves later requests to the new address.
	NoRedirect RedirectionKind = 0

	// ShouldRedirect carries no configuration. The client follows it
	// unless it was given a custom URL.
	ShouldRedirect RedirectionKind = 1

	// ForceRedirect carries no configuration and is followed even
	// with a custom URL.
	ForceRedirect RedirectionKind = 2
)

type EntryType int

const (
	BoolEntry   EntryType = 0
	StringEntry EntryType = 1
	IntEntry    EntryType = 2
	FloatEntry  EntryType = 3
)

type Operator int

const (
	OpOneOf             Operator = 0
	OpNotOneOf          Operator = 1
	OpContains          Operator = 2
	OpNotContains       Operator = 3
	OpOneOfSemver       Operator = 4
	OpNotOneOfSemver    Operator = 5
	OpLessSemver        Operator = 6
	OpLessEqSemver      Operator = 7
	OpGreaterSemver     Operator = 8
	OpGreaterEqSemver   Operator = 9
	OpEqNum             Operator = 10
	OpNotEqNum          Operator = 11
	OpLessNum           Operator = 12
	OpLessEqNum         Operator = 13
	OpGreaterNum        Operator = 14
	OpGreaterEqNum      Operator = 15
	OpOneOfSensitive    Operator = 16
	OpNotOneOfSensitive Operator = 17
)

// String returns the operator as the dashboard shows it, which is
// also how evaluation logs print it.
func (op Operator) String() string {
	switch op {
	case OpOneOf:
		return "IS ONE OF"
	case OpNotOneOf:
		return "IS NOT ONE OF"
	case OpContains:
		return "CONTAINS"
	case OpNotContains:
		return "DOES NOT CONTAIN"
	case OpOneOfSemver:
		return "IS ONE OF (SemVer)"
	case OpNotOneOfSemver:
		return "IS NOT ONE OF (SemVer)"
	case OpLessSemver:
		return "< (SemVer)"
	case OpLessEqSemver:
		return "<= (SemVer)"
	case OpGreaterSemver:
		return "> (SemVer)"
	case OpGreaterEqSemver:
		return ">= (SemVer)"
	case OpEqNum:
		return "= (Number)"
	case OpNotEqNum:
		return "<> (Number)"
	case OpLessNum:
		return "< (Number)"
	case OpLessEqNum:
		return "<= (Number)"
	case OpGreaterNum:
		return "> (Number)"
	case OpGreaterEqNum:
		return ">= (Number)"
	case OpOneOfSensitive:
		return "IS ONE OF (Sensitive)"
	case OpNotOneOfSensitive:
		return "IS NOT ONE OF (Sensitive)"
	}
	return ""
}
