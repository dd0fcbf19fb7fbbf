package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// e2eTestSpec is one golden lowering scenario: a fixture file run through
// --dmach, with substring checks against the captured stdout dump.
type e2eTestSpec struct {
	Name        string   `yaml:"name"`
	Fixture     string   `yaml:"fixture"`
	Expect      []string `yaml:"expect"`
	ExpectOrder []string `yaml:"expect_order"`
	Skip        string   `yaml:"skip,omitempty"`
}

type e2eTestFile struct {
	Tests []e2eTestSpec `yaml:"tests"`
}

// TestE2EGoldenFixtures drives every fixture under testdata/e2e through
// necromachc's --dmach flag and checks the printed Mach IR against the
// substrings named in testdata/e2e/e2e.yaml.
func TestE2EGoldenFixtures(t *testing.T) {
	data, err := os.ReadFile("../../testdata/e2e/e2e.yaml")
	if err != nil {
		t.Fatalf("e2e.yaml not found: %v", err)
	}

	var testFile e2eTestFile
	if err := yaml.Unmarshal(data, &testFile); err != nil {
		t.Fatalf("failed to parse e2e.yaml: %v", err)
	}

	for _, tc := range testFile.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			if tc.Skip != "" {
				t.Skip(tc.Skip)
			}

			fixturePath := filepath.Join("../../testdata/e2e", tc.Fixture)

			resetDebugFlags()
			var out, errOut bytes.Buffer
			cmd := newRootCmd(&out, &errOut)
			cmd.SetArgs([]string{"--dmach", fixturePath})
			if err := cmd.Execute(); err != nil {
				t.Fatalf("necromachc failed: %v\nStderr: %s", err, errOut.String())
			}

			output := out.String()
			for _, exp := range tc.Expect {
				if !strings.Contains(output, exp) {
					t.Errorf("expected output to contain %q\nGot:\n%s", exp, output)
				}
			}

			if len(tc.ExpectOrder) > 0 {
				lastIdx := -1
				for _, exp := range tc.ExpectOrder {
					idx := strings.Index(output, exp)
					if idx == -1 {
						t.Errorf("expected output to contain %q for order check\nGot:\n%s", exp, output)
						continue
					}
					if idx <= lastIdx {
						t.Errorf("expected %q to appear after previous pattern (position %d vs %d)\nGot:\n%s", exp, idx, lastIdx, output)
					}
					lastIdx = idx
				}
			}
		})
	}
}
