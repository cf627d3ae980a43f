package project

import (
	"testing"

	"docaudit/internal/scanner"
	"docaudit/internal/testutil"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name         string
		files        []string
		wantClass    Classification
		wantManifest string
	}{
		{
			name:         "Rust crate",
			files:        []string{"Cargo.toml", "src/lib.rs"},
			wantClass:    Rust,
			wantManifest: "Cargo.toml",
		},
		{
			name:         "Go module",
			files:        []string{"go.mod", "main.go"},
			wantClass:    Go,
			wantManifest: "go.mod",
		},
		{
			name:         "Node package",
			files:        []string{"package.json", "src/index.ts"},
			wantClass:    Node,
			wantManifest: "package.json",
		},
		{
			name:         "Python with requirements.txt",
			files:        []string{"requirements.txt", "app.py"},
			wantClass:    Python,
			wantManifest: "requirements.txt",
		},
		{
			name:         "Gradle Kotlin DSL",
			files:        []string{"build.gradle.kts"},
			wantClass:    Java,
			wantManifest: "build.gradle.kts",
		},
		{
			name:         "Cargo wins over go.mod",
			files:        []string{"go.mod", "Cargo.toml"},
			wantClass:    Rust,
			wantManifest: "Cargo.toml",
		},
		{
			name:      "Nested manifest does not count",
			files:     []string{"tools/go.mod", "README.md"},
			wantClass: Generic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := map[string]string{}
			for _, f := range tt.files {
				files[f] = ""
			}
			got := Detect(scanner.NewMemory(files))
			if got.Class != tt.wantClass {
				t.Errorf("Detect() class = %v, want %v", got.Class, tt.wantClass)
			}
			if got.Manifest != tt.wantManifest {
				t.Errorf("Detect() manifest = %q, want %q", got.Manifest, tt.wantManifest)
			}
		})
	}
}

func TestDetectOnDisk(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{"pom.xml": "<project/>"})
	set, err := scanner.Walk(root, scanner.Options{})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if got := Detect(set).Class; got != Java {
		t.Errorf("Detect() = %v, want java", got)
	}
}

func TestClassifyOverride(t *testing.T) {
	set := scanner.NewMemory(map[string]string{"Cargo.toml": ""})

	got := Classify(set, " Python ")
	if got.Class != Python || !got.Overridden {
		t.Errorf("Classify() = %+v, want overridden python", got)
	}
	if got := Classify(set, ""); got.Class != Rust || got.Overridden {
		t.Errorf("Classify() without override = %+v, want detected rust", got)
	}
}

func TestParseClassification(t *testing.T) {
	if c, ok := ParseClassification("GO"); !ok || c != Go {
		t.Errorf("ParseClassification(GO) = %v, %v", c, ok)
	}
	if _, ok := ParseClassification("cobol"); ok {
		t.Error("ParseClassification(cobol) should fail")
	}
	if DisplayName(Node) != "Node.js" {
		t.Errorf("DisplayName(node) = %q", DisplayName(Node))
	}
}
