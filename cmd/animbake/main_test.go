package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/binzume/animbake/internal/testsupport"
)

func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommandBakes(t *testing.T) {
	base := t.TempDir()
	animDir := filepath.Join(base, "assets", "animations", "glb")
	if err := os.MkdirAll(animDir, 0755); err != nil {
		t.Fatal(err)
	}
	testsupport.Character().WriteGLB(t, filepath.Join(base, "assets", "RCS-walking-seperated.glb"))
	testsupport.Animation(1, 24).WriteGLB(t, filepath.Join(animDir, "Running.glb"))

	stdout, stderr, err := runCommand(t, "--base-dir", base, "--summary")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(stdout, "✓ Done!") != 1 || strings.Count(stdout, "  ERROR: Animation file not found: ") != 5 {
		t.Error("stdout:\n", stdout)
	}
	if !strings.Contains(stdout, "file not found") || !strings.Contains(stdout, "RCS-run.glb") {
		t.Error("summary missing:\n", stdout)
	}
	if !strings.Contains(stderr, "animation skipped") {
		t.Error("stderr:\n", stderr)
	}
	if _, err := os.Stat(filepath.Join(base, "assets", "animations", "baked", "RCS-run.glb")); err != nil {
		t.Error(err)
	}
}

func TestRootCommandConfig(t *testing.T) {
	base := t.TempDir()
	testsupport.Character().WriteGLB(t, filepath.Join(base, "hero.glb"))
	testsupport.Animation(0, 5).WriteGLB(t, filepath.Join(base, "Idle.glb"))
	conf := "label: Hero\nmodel: hero.glb\nanimation_dir: .\noutput_dir: out\nanimations:\n  - name: idle\n    file: Idle.glb\n"
	path := filepath.Join(base, "animbake.yaml")
	if err := os.WriteFile(path, []byte(conf), 0644); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := runCommand(t, "--config", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "Hero Animation Baker") || !strings.Contains(stdout, "  Animation frames: 0.0 to 5.0\n") {
		t.Error("stdout:\n", stdout)
	}
	if _, err := os.Stat(filepath.Join(base, "out", "Hero-idle.glb")); err != nil {
		t.Error(err)
	}
}

func TestRootCommandErrors(t *testing.T) {
	if _, _, err := runCommand(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing config should fail")
	}
	if _, _, err := runCommand(t, "extra"); err == nil {
		t.Error("positional arguments should fail")
	}

	base := t.TempDir()
	// A file where the output directory should be.
	if err := os.MkdirAll(filepath.Join(base, "assets", "animations"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(base, "assets", "animations", "baked"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := runCommand(t, "--base-dir", base); err == nil {
		t.Error("output directory failure should fail the run")
	}
}
