package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	runVersion := func(t *testing.T) string {
		t.Helper()
		var buf bytes.Buffer
		cmd := newCmdVersion()
		cmd.SetOut(&buf)
		cmd.SetArgs(nil)
		if err := cmd.Execute(); err != nil {
			t.Fatalf("version command failed: %v", err)
		}
		return buf.String()
	}

	t.Run("default_build", func(t *testing.T) {
		out := runVersion(t)
		if !strings.HasPrefix(out, "aksmesh version latest\n") {
			t.Errorf("unexpected output: %q", out)
		}
		if strings.Contains(out, "commit") {
			t.Errorf("build details printed for dev build: %q", out)
		}
	})

	t.Run("release_build", func(t *testing.T) {
		origCommit, origDate := commit, date
		t.Cleanup(func() { commit, date = origCommit, origDate })
		commit, date = "abc1234", "2026-08-26"

		out := runVersion(t)
		if !strings.Contains(out, "commit abc1234, built 2026-08-26") {
			t.Errorf("build details missing: %q", out)
		}
	})
}
