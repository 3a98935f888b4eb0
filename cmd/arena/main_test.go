package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nathoo/arena/config"
)

func TestParseArgs(t *testing.T) {
	f, err := parseArgs([]string{
		"--plain", "--quiet", "--config", "a.toml", "--scenario", "dir",
		"--load", "in.txt", "--save", "out.txt", "--duration", "2s",
		"--seed", "42", "--listen", ":9000",
	})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	want := flags{
		configPath: "a.toml", scenario: "dir", load: "in.txt", save: "out.txt",
		plain: true, quiet: true, duration: 2 * time.Second,
		seed: 42, seedSet: true, listen: ":9000",
	}
	if f != want {
		t.Errorf("flags = %+v, want %+v", f, want)
	}
}

func TestParseArgs_Errors(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"--config"}, "--config requires a value"},
		{[]string{"--duration", "soon"}, "invalid duration"},
		{[]string{"--seed", "x"}, "invalid syntax"},
		{[]string{"extra"}, "unknown argument"},
	}
	for _, tt := range tests {
		_, err := parseArgs(tt.args)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("parseArgs(%v) = %v, want %q", tt.args, err, tt.want)
		}
	}
	if _, err := parseArgs([]string{"--version"}); !errors.Is(err, errVersion) {
		t.Errorf("--version err = %v", err)
	}
}

func TestApplyFlags(t *testing.T) {
	cfg := config.Default()
	if err := applyFlags(cfg, flags{duration: time.Second, seed: 0, seedSet: true, listen: ":1"}); err != nil {
		t.Fatal(err)
	}
	if cfg.Simulation.Duration != time.Second || cfg.Simulation.Seed != 0 || cfg.Feed.Listen != ":1" {
		t.Errorf("cfg = %+v", cfg)
	}

	cfg = config.Default()
	if err := applyFlags(cfg, flags{duration: -time.Second}); err == nil {
		t.Error("negative duration should fail validation")
	}
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "arena.toml")
	content := `
[simulation]
move_interval = "1ms"
fight_interval = "1ms"
render_interval = "10ms"
random_npcs = 12
events_per_tick = 10

[logging]
level = "debug"
output = ["` + filepath.ToSlash(filepath.Join(dir, "arena.log")) + `"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_RandomThenLoad(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)
	roster := filepath.Join(dir, "npc.txt")

	var out bytes.Buffer
	err := run([]string{"--plain", "--config", cfgPath, "--duration", "30ms", "--seed", "5", "--save", roster}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{"Generating initial NPCs...", "Initial list of NPCs:", "Survivors:", "[fights resolved:"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q", want)
		}
	}

	data, err := os.ReadFile(roster)
	if err != nil {
		t.Fatalf("roster not saved: %v", err)
	}
	if !strings.HasPrefix(string(data), "12\n") {
		t.Errorf("roster header = %q", strings.SplitN(string(data), "\n", 2)[0])
	}

	out.Reset()
	err = run([]string{"--plain", "--quiet", "--config", cfgPath, "--duration", "20ms", "--load", roster}, &out)
	if err != nil {
		t.Fatalf("run with --load: %v", err)
	}
	if strings.Contains(out.String(), "Generating initial NPCs") {
		t.Error("loaded run should not generate NPCs")
	}
	if strings.Contains(out.String(), "Fight Details") {
		t.Error("quiet run should not print fight details")
	}

	logData, _ := os.ReadFile(filepath.Join(dir, "arena.log"))
	if !strings.Contains(string(logData), "simulation started") {
		t.Error("log file missing engine lifecycle entries")
	}
}

func TestRun_Scenario(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	err := run([]string{
		"--plain", "--config", writeConfig(t, dir), "--duration", "20ms",
		"--scenario", filepath.Join("..", "..", "loader", "testdata", "minimal"),
	}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "knight #0 at (0, 0)") {
		t.Errorf("scenario roster missing:\n%s", out.String())
	}
}

func TestRun_BadScenario(t *testing.T) {
	dir := t.TempDir()
	err := run([]string{"--plain", "--config", writeConfig(t, dir), "--scenario", filepath.Join(dir, "missing")}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "loading scenario") {
		t.Errorf("err = %v", err)
	}
}

func TestRun_BadArgs(t *testing.T) {
	err := run([]string{"--bogus"}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "Usage:") {
		t.Errorf("err = %v, want usage", err)
	}
}
