package checks

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"docaudit/internal/rules"
)

// checkManifestKey evaluates cargo_key_exists and cargo_key_matches against
// the rule's TOML manifest.
func checkManifestKey(c *collector, files Files, rule *rules.Rule) {
	manifest := rule.Manifest()
	data, err := files.Read(manifest)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.add(manifest, 0, "manifest not found")
		} else {
			c.add(manifest, 0, "cannot read manifest: %v", err)
		}
		return
	}

	var doc map[string]interface{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		line := 0
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			line, _ = decodeErr.Position()
		}
		c.add(manifest, line, "invalid TOML: %v", err)
		return
	}

	value, found := LookupKey(doc, rule.Key)
	if !found {
		c.add(manifest, 0, "key %s not found", rule.Key)
		return
	}
	if rule.Type == rules.CargoKeyExists {
		return
	}

	s, ok := scalarString(value)
	if !ok {
		c.add(manifest, 0, "key %s holds %s, not a scalar value", rule.Key, kindOf(value))
		return
	}
	if !rule.Regexp().MatchString(s) {
		c.add(manifest, 0, "key %s = %q does not match %q", rule.Key, s, rule.Pattern)
	}
}

// LookupKey resolves a dotted key path in a decoded TOML document.
func LookupKey(doc map[string]interface{}, key string) (interface{}, bool) {
	var cur interface{} = doc
	for _, part := range strings.Split(key, ".") {
		table, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		if cur, ok = table[strings.TrimSpace(part)]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func scalarString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case map[string]interface{}, []interface{}:
		return "", false
	default:
		return fmt.Sprint(t), true
	}
}

func kindOf(v interface{}) string {
	switch v.(type) {
	case map[string]interface{}:
		return "a table"
	case []interface{}:
		return "an array"
	}
	return fmt.Sprintf("a %T", v)
}
