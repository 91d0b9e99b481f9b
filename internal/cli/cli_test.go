package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lazypower/reprise/internal/engine"
	"github.com/lazypower/reprise/internal/fsrs"
	"github.com/lazypower/reprise/internal/leech"
)

// setup points the CLI at a fresh database and an empty config dir.
func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("REPRISE_DB_PATH", filepath.Join(dir, "reprise.db"))
	t.Cleanup(func() {
		configPath = ""
		addQuestion, addAnswer, addCategory, addTags = "", "", "", nil
		dueCategory, dueTags = "", nil
		leechesApply, leechesThreshold = false, 0
		importNoDedupe = false
		reviewResponseMs = 0
	})
	return dir
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, err := run(t, args...)
	if err != nil {
		t.Fatalf("%v: %v\nstderr: %s", args, err, errOut)
	}
	return out
}

func addItem(t *testing.T, question string) string {
	t.Helper()
	out := mustRun(t, "add", "-q", question, "-a", "answer", "-c", "geo")
	fields := strings.Fields(out)
	if len(fields) < 2 || fields[0] != "added" {
		t.Fatalf("unexpected add output: %q", out)
	}
	return fields[1]
}

func TestVersion(t *testing.T) {
	setup(t)
	out := mustRun(t, "version")
	if !strings.HasPrefix(out, "reprise dev") {
		t.Errorf("version output = %q", out)
	}
}

func TestAddDueReviewStats(t *testing.T) {
	setup(t)
	id := addItem(t, "Capital of France?")

	out := mustRun(t, "due")
	if !strings.Contains(out, "Capital of France?") || !strings.Contains(out, "(new)") {
		t.Errorf("due output = %q", out)
	}

	out = mustRun(t, "review", id, "good", "--response-ms", "2500")
	if !strings.HasPrefix(out, "good: next review") {
		t.Errorf("review output = %q", out)
	}

	out = mustRun(t, "due")
	if !strings.Contains(out, "Nothing due.") {
		t.Errorf("due after review = %q", out)
	}

	out = mustRun(t, "stats", id)
	if !strings.Contains(out, "reviews:          1") {
		t.Errorf("item stats = %q", out)
	}

	out = mustRun(t, "stats")
	if !strings.Contains(out, "## Queue") || !strings.Contains(out, "items:         1") {
		t.Errorf("queue stats = %q", out)
	}
}

func TestReviewErrors(t *testing.T) {
	setup(t)

	if _, _, err := run(t, "review", "whatever", "meh"); !errors.Is(err, fsrs.ErrInvalidRating) {
		t.Errorf("bad rating err = %v, want ErrInvalidRating", err)
	}
	if _, _, err := run(t, "review", "missing", "good"); !errors.Is(err, engine.ErrNotFound) {
		t.Errorf("missing item err = %v, want ErrNotFound", err)
	}
	if _, _, err := run(t, "add"); err == nil {
		t.Error("add without --question should fail")
	}
}

func TestTreatAndLeeches(t *testing.T) {
	setup(t)
	id := addItem(t, "Spelling of onomatopoeia")

	if _, _, err := run(t, "treat", id, "yell"); !errors.Is(err, leech.ErrUnknownStrategy) {
		t.Errorf("unknown strategy err = %v", err)
	}

	out := mustRun(t, "treat", id, "hint")
	if !strings.Contains(out, "hint applied") {
		t.Errorf("treat output = %q", out)
	}

	out = mustRun(t, "leeches")
	if !strings.Contains(out, "No leeches found.") {
		t.Errorf("leeches output = %q", out)
	}

	for i := 0; i < 5; i++ {
		mustRun(t, "review", id, "again")
	}
	out = mustRun(t, "leeches", "--apply")
	if !strings.Contains(out, id) || !strings.Contains(out, "applied") {
		t.Errorf("leeches --apply output = %q", out)
	}
}

func TestMaintain(t *testing.T) {
	setup(t)
	addItem(t, "q")
	out := mustRun(t, "maintain")
	if !strings.HasPrefix(out, "scanned 1,") {
		t.Errorf("maintain output = %q", out)
	}
}

func TestImport(t *testing.T) {
	dir := setup(t)
	path := filepath.Join(dir, "cards.csv")
	csv := "question,answer,category\nHola,Hello,spanish\nGracias,Thank you,spanish\nhola,Hello,spanish\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	out := mustRun(t, "import", path)
	if !strings.Contains(out, "processed 3, created 2, skipped 1") {
		t.Errorf("import output = %q", out)
	}

	if _, _, err := run(t, "import", filepath.Join(dir, "cards.pdf")); err == nil {
		t.Error("expected error for unsupported file")
	}
}

func TestConfigFlag(t *testing.T) {
	dir := setup(t)
	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("[server]\nport = 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := run(t, "--config", bad, "version"); err == nil {
		t.Error("expected invalid config to fail")
	}

	good := filepath.Join(dir, "good.toml")
	if err := os.WriteFile(good, []byte("[log]\nformat = \"json\"\nlevel = \"debug\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	mustRun(t, "--config", good, "version")
	if cfg.Log.Format != "json" {
		t.Errorf("log format = %q, want json", cfg.Log.Format)
	}
}
