package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/go-movie-catalog/internal/config"
	"github.com/tbourn/go-movie-catalog/internal/ingest"
)

func sampleReport() ingest.Report {
	return ingest.Report{
		StartedAt: time.Date(2026, 1, 5, 6, 0, 0, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
		Scraped:   2,
		Inserted:  1,
		Failed:    1,
		Outcomes: []ingest.ItemResult{
			{IMDbID: "tt0137523", Title: "Fight Club", ReleaseWeek: "January 6, 2026", TMDbID: 550, Outcome: ingest.OutcomeInserted},
			{IMDbID: "tt0133093", Title: "The Matrix", ReleaseWeek: "January 6, 2026", Outcome: ingest.OutcomeLookupFailed, Error: "timeout"},
		},
	}
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"serve", "ingest", "migrate"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("missing subcommand %q: %v", name, err)
		}
	}
	if f := root.PersistentFlags().Lookup("env-file"); f == nil || f.DefValue != ".env" {
		t.Fatalf("env-file flag missing or wrong default")
	}
}

func TestRenderReport_Table(t *testing.T) {
	var buf bytes.Buffer
	renderReport(&buf, sampleReport())
	out := buf.String()
	for _, want := range []string{"Fight Club", "tt0133093", "550", "lookup_failed", "timeout", "1 inserted, 0 skipped, 1 failed", "1.5s"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table misses %q:\n%s", want, out)
		}
	}
}

func TestWriteJSON_Report(t *testing.T) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, sampleReport()); err != nil {
		t.Fatalf("writeJSON: %v", err)
	}
	var got struct {
		Scraped  int `json:"scraped"`
		Outcomes []struct {
			Outcome string `json:"outcome"`
		} `json:"outcomes"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, buf.String())
	}
	if got.Scraped != 2 || len(got.Outcomes) != 2 || got.Outcomes[1].Outcome != "lookup_failed" {
		t.Fatalf("report = %+v", got)
	}
}

func TestIsTerminal_NonFileWriters(t *testing.T) {
	if isTerminal(&bytes.Buffer{}) {
		t.Fatalf("a buffer is not a terminal")
	}
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if isTerminal(f) {
		t.Fatalf("a regular file is not a terminal")
	}
}

func TestLoadEnvFile(t *testing.T) {
	if err := loadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
	if err := loadEnvFile(""); err != nil {
		t.Fatalf("empty path: %v", err)
	}

	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("MOVIECATALOG_TEST_VAR=from-file\nMOVIECATALOG_TEST_KEEP=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MOVIECATALOG_TEST_KEEP", "from-env")
	t.Setenv("MOVIECATALOG_TEST_VAR", "")
	os.Unsetenv("MOVIECATALOG_TEST_VAR")

	if err := loadEnvFile(path); err != nil {
		t.Fatalf("loadEnvFile: %v", err)
	}
	if got := os.Getenv("MOVIECATALOG_TEST_VAR"); got != "from-file" {
		t.Fatalf("VAR = %q", got)
	}
	if got := os.Getenv("MOVIECATALOG_TEST_KEEP"); got != "from-env" {
		t.Fatalf("existing variables must win, got %q", got)
	}
}

func TestNewProvider_NoKey(t *testing.T) {
	p, err := newProvider(config.TMDBConfig{})
	if err != nil || p != nil {
		t.Fatalf("newProvider without key = %v, %v", p, err)
	}
	if _, err := newPipeline(config.Config{}, nil, nil); err == nil {
		t.Fatalf("pipeline without provider should fail")
	}
}

func TestNewProvider_WithKey(t *testing.T) {
	p, err := newProvider(config.TMDBConfig{APIKey: "k", BaseURL: "https://api.example.test/3", Timeout: time.Second})
	if err != nil || p == nil {
		t.Fatalf("newProvider = %v, %v", p, err)
	}
}

func TestMigrateCommand_SQLite(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", filepath.Join(dir, "movies.db"))
	t.Setenv("AUTH_JWT_SECRET", strings.Repeat("s", 32))

	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"migrate", "--env-file", ""})
	if err := root.Execute(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out.String(), "schema up to date (sqlite)") {
		t.Fatalf("output = %q", out.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "movies.db")); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
}
