package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidate(t *testing.T) {
	good := filepath.Join("..", "..", "test_scenarios", "two_robot.txt")
	bad := writeFile(t, "bad.txt", "2 1\n0 0 0\n")

	cmd := validateCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{good, bad})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error for the truncated scenario")
	}
	if !strings.Contains(stdout.String(), "two_robot.txt: ok (2 robots, 1 operations, min separation 0.800 m)") {
		t.Errorf("stdout = %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "bad.txt") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestInspect(t *testing.T) {
	schedule := "4000.000000\nR1 2\n0.000000 0.000000 0.000000 0.000000\n4000.000000 1.000000 0.000000 0.000000\nR2 1\n0.000000 5.000000 0.000000 0.000000\n"
	path := writeFile(t, "out.txt", schedule)

	cmd := inspectCmd()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("inspect failed: %v", err)
	}

	out := stdout.String()
	if !strings.HasPrefix(out, "makespan 4.000 s\n") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "R1      2 waypoints, ends at 4.000 s") {
		t.Errorf("output = %q", out)
	}
}
