package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func resetFlags() {
	flagSources = "sources.json"
	flagConfig = "config.yaml"
	flagOutput = ""
	flagVerbose = false
}

func TestRootCmdMissingRegistry(t *testing.T) {
	resetFlags()
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"--sources", filepath.Join(t.TempDir(), "absent.json")})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))

	if err := cmd.Execute(); err == nil {
		t.Fatal("Execute() error = nil, want failure for missing registry")
	}
}

func TestExportNoDataset(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	sources := writeFile(t, dir, "sources.json", `{
		"sources": [{"name": "s", "type": "custom", "url": "https://example.test"}]
	}`)

	cmd := NewRootCmd()
	cmd.SetArgs([]string{"export",
		"--sources", sources,
		"--output", filepath.Join(dir, "events.json"),
	})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))

	if err := cmd.Execute(); err == nil {
		t.Fatal("export with no published dataset should fail")
	}
}

func TestExportWritesCalendar(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	sources := writeFile(t, dir, "sources.json", `{
		"sources": [{"name": "s", "type": "custom", "url": "https://example.test"}]
	}`)
	dataset := writeFile(t, dir, "events.json", `{
		"lastUpdated": "2026-06-15T10:00:00Z",
		"events": [{
			"id": "evt-1",
			"title": "Pitch Night",
			"description": "",
			"date": "2026-07-10T18:00:00-04:00",
			"location": {"name": "The Union", "address": ""},
			"features": {"free": true, "food": false, "appetizers": false,
				"nonAlcoholDrinks": false, "alcoholDrinks": false},
			"source": "s"
		}]
	}`)

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"export", "--sources", sources, "--output", dataset})
	cmd.SetOut(&out)
	cmd.SetErr(new(bytes.Buffer))

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out.String(), "BEGIN:VCALENDAR") {
		t.Errorf("stdout missing calendar output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "SUMMARY:Pitch Night") {
		t.Errorf("calendar missing event summary:\n%s", out.String())
	}
}
