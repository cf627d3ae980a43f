package report

import (
	"bytes"
	"encoding/json"
	"strings"
)

// VolatileFields differ between two scans of an unchanged project.
var VolatileFields = []string{
	"scanId",
	"startedAt",
}

// Normalize removes volatile fields and re-encodes deterministically.
func Normalize(data []byte) ([]byte, error) {
	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}
	for _, field := range VolatileFields {
		removeNestedField(parsed, field)
	}
	return DeterministicEncode(parsed)
}

// Compare reports whether two encoded reports describe the same results,
// ignoring volatile fields.
func Compare(a, b []byte) (bool, string) {
	normalizedA, err := Normalize(a)
	if err != nil {
		return false, "failed to normalize first report: " + err.Error()
	}
	normalizedB, err := Normalize(b)
	if err != nil {
		return false, "failed to normalize second report: " + err.Error()
	}
	if !bytes.Equal(normalizedA, normalizedB) {
		return false, "reports differ"
	}
	return true, ""
}

// removeNestedField removes a field addressed with dot notation,
// e.g. "summary.failed".
func removeNestedField(data map[string]interface{}, path string) {
	parts := strings.Split(path, ".")
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]interface{})
		if !ok {
			return
		}
		current = next
	}
	delete(current, parts[len(parts)-1])
}
