package configcat

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/configcat/go-sdk/v9/internal/wireconfig"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type parseError struct {
	msg string
}

func (p *parseError) Error() string {
	return p.msg
}

// ErrKeyNotFound is returned when a requested setting is not present in the configuration.
var ErrKeyNotFound = errors.New("key not found in configuration")

// parseRootNode decodes a configuration document. It is also used to
// validate bodies before they are accepted into the cache.
func parseRootNode(data []byte) (*wireconfig.RootNode, error) {
	var root wireconfig.RootNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	return &root, nil
}

type configParser struct {
	evaluator *rolloutEvaluator

	// The last decoded document is kept because the same body
	// is usually evaluated many times between refreshes.
	mu       sync.Mutex
	lastBody string
	lastRoot *wireconfig.RootNode
}

func newParser(logger *leveledLogger) *configParser {
	return &configParser{evaluator: newRolloutEvaluator(logger)}
}

func (parser *configParser) parse(jsonBody string, key string, user *User) (Value, error) {
	value, _, err := parser.parseInternal(jsonBody, key, user)
	return value, err
}

func (parser *configParser) parseVariationID(jsonBody string, key string, user *User) (string, error) {
	_, variationID, err := parser.parseInternal(jsonBody, key, user)
	return variationID, err
}

// getAllKeys returns the setting keys of the configuration in sorted order.
func (parser *configParser) getAllKeys(jsonBody string) ([]string, error) {
	entries, err := parser.getEntries(jsonBody)
	if err != nil {
		return nil, err
	}
	return sortedKeys(entries), nil
}

// parseKeyValue finds the setting and value that carry the given variation ID.
func (parser *configParser) parseKeyValue(jsonBody string, variationID string) (string, Value, error) {
	entries, err := parser.getEntries(jsonBody)
	if err != nil {
		return "", Value{}, err
	}

	for _, key := range sortedKeys(entries) {
		entry := entries[key]
		raw, found := entry.Value, entry.VariationID == variationID
		for _, rule := range entry.RolloutRules {
			if !found && rule != nil && rule.VariationID == variationID {
				raw, found = rule.Value, true
			}
		}
		for _, rule := range entry.PercentageRules {
			if !found && rule.VariationID == variationID {
				raw, found = rule.Value, true
			}
		}
		if found {
			value, err := valueFromWire(raw, entry.Type)
			if err != nil {
				return "", Value{}, &parseError{"invalid value for key " + key + ": " + err.Error()}
			}
			return key, value, nil
		}
	}
	return "", Value{}, &parseError{"variation ID " + variationID + " not found"}
}

func (parser *configParser) parseInternal(jsonBody string, key string, user *User) (Value, string, error) {
	if len(key) == 0 {
		panic("Key cannot be empty")
	}

	entries, err := parser.getEntries(jsonBody)
	if err != nil {
		return Value{}, "", err
	}

	entry := entries[key]
	if entry == nil {
		return Value{}, "", fmt.Errorf("%w: %q; available keys: %s", ErrKeyNotFound, key, strings.Join(sortedKeys(entries), ", "))
	}

	raw, variationID := parser.evaluator.evaluate(entry, key, user)
	if raw == nil {
		return Value{}, "", &parseError{"null evaluated for key " + key}
	}
	value, err := valueFromWire(raw, entry.Type)
	if err != nil {
		return Value{}, "", &parseError{"invalid value for key " + key + ": " + err.Error()}
	}
	return value, variationID, nil
}

func (parser *configParser) getEntries(jsonBody string) (map[string]*wireconfig.Entry, error) {
	if jsonBody == "" {
		return nil, &parseError{"config JSON is not present"}
	}

	parser.mu.Lock()
	defer parser.mu.Unlock()
	if parser.lastRoot != nil && parser.lastBody == jsonBody {
		return parser.lastRoot.Entries, nil
	}
	root, err := parseRootNode([]byte(jsonBody))
	if err != nil {
		return nil, &parseError{"JSON parsing failed: " + err.Error()}
	}
	parser.lastBody, parser.lastRoot = jsonBody, root
	return root.Entries, nil
}

func sortedKeys(entries map[string]*wireconfig.Entry) []string {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
