// Package project classifies a project by its manifest files. Rules filter on
// the classification through applies_to.
package project

import "strings"

// Classification is the project type tag matched by applies_to.
type Classification string

const (
	Rust    Classification = "rust"
	Go      Classification = "go"
	Node    Classification = "node"
	Python  Classification = "python"
	Java    Classification = "java"
	Generic Classification = "generic"
)

// Known lists every classification.
var Known = []Classification{Rust, Go, Node, Python, Java, Generic}

// manifests are checked in order; the first present file decides.
var manifests = []struct {
	path  string
	class Classification
}{
	{"Cargo.toml", Rust},
	{"go.mod", Go},
	{"package.json", Node},
	{"pyproject.toml", Python},
	{"setup.py", Python},
	{"requirements.txt", Python},
	{"pom.xml", Java},
	{"build.gradle", Java},
	{"build.gradle.kts", Java},
}

// FileChecker is the part of the project listing classification needs.
type FileChecker interface {
	HasFile(path string) bool
}

// Detection is the result of classifying a project.
type Detection struct {
	Class Classification `json:"class"`
	// Manifest is the file that decided the class; empty for generic or
	// overridden projects.
	Manifest string `json:"manifest,omitempty"`
	// Overridden is true when the class came from configuration.
	Overridden bool `json:"overridden,omitempty"`
}

// Detect classifies a project from the manifests at its root.
func Detect(files FileChecker) Detection {
	for _, m := range manifests {
		if files.HasFile(m.path) {
			return Detection{Class: m.class, Manifest: m.path}
		}
	}
	return Detection{Class: Generic}
}

// Classify returns the configured override when set, otherwise the detected
// classification.
func Classify(files FileChecker, override string) Detection {
	if override = strings.ToLower(strings.TrimSpace(override)); override != "" {
		return Detection{Class: Classification(override), Overridden: true}
	}
	return Detect(files)
}

// ParseClassification validates a classification name.
func ParseClassification(s string) (Classification, bool) {
	c := Classification(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range Known {
		if c == k {
			return c, true
		}
	}
	return "", false
}

// DisplayName returns a human-readable name for the classification.
func DisplayName(c Classification) string {
	switch c {
	case Rust:
		return "Rust"
	case Go:
		return "Go"
	case Node:
		return "Node.js"
	case Python:
		return "Python"
	case Java:
		return "Java"
	case Generic:
		return "Generic"
	default:
		return string(c)
	}
}
