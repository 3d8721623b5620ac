package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/michaelscutari/zrewrite/internal/entry"
)

func openTestJournal(t *testing.T) (*Journal, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal", "runs.db")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	return j, path
}

func TestJournalRoundTrip(t *testing.T) {
	j, path := openTestJournal(t)

	start := time.Unix(1_700_000_000, 0)
	meta := &entry.RunMeta{RootPath: "/tank/data", StatePath: "/var/lib/rewritten.txt", StartTime: start}
	if err := j.BeginRun(meta); err != nil {
		t.Fatalf("begin run: %v", err)
	}
	if meta.ID == "" {
		t.Fatalf("expected run id to be assigned")
	}

	for i, p := range []string{"/tank/data/a", "/tank/data/c"} {
		err := j.RecordRewrite(entry.Rewrite{
			RunID:    meta.ID,
			Path:     p,
			DevID:    42,
			Inode:    uint64(100 + i),
			Duration: 250 * time.Millisecond,
			Time:     start.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("record rewrite: %v", err)
		}
	}
	if err := j.RecordScanErrors(meta.ID, []entry.ScanError{{Path: "/tank/data/locked", Message: "permission denied"}}); err != nil {
		t.Fatalf("record scan errors: %v", err)
	}

	meta.EndTime = start.Add(time.Minute)
	meta.Status = entry.RunCompleted
	meta.Candidates, meta.Processed, meta.Rewritten = 2, 2, 2
	if err := j.FinishRun(meta); err != nil {
		t.Fatalf("finish run: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	database, err := OpenReadOnly(path)
	if err != nil {
		t.Fatalf("open read-only: %v", err)
	}
	defer database.Close()

	runs, err := ListRuns(database, 10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	got := runs[0]
	if got.ID != meta.ID || got.Status != entry.RunCompleted || got.Rewritten != 2 || got.RootPath != "/tank/data" {
		t.Fatalf("unexpected run: %+v", got)
	}
	if !got.StartTime.Equal(start) || !got.EndTime.Equal(start.Add(time.Minute)) {
		t.Fatalf("unexpected times: %v - %v", got.StartTime, got.EndTime)
	}
	if got.Error != "" {
		t.Fatalf("expected empty error, got %q", got.Error)
	}

	rewrites, err := LoadRewrites(database, meta.ID, 0)
	if err != nil {
		t.Fatalf("load rewrites: %v", err)
	}
	if len(rewrites) != 2 || rewrites[0].Path != "/tank/data/a" || rewrites[1].Inode != 101 {
		t.Fatalf("unexpected rewrites: %+v", rewrites)
	}
	if rewrites[0].Duration != 250*time.Millisecond || rewrites[0].DevID != 42 {
		t.Fatalf("unexpected rewrite fields: %+v", rewrites[0])
	}

	scanErrs, err := LoadScanErrors(database, meta.ID)
	if err != nil {
		t.Fatalf("load scan errors: %v", err)
	}
	if len(scanErrs) != 1 || scanErrs[0].Message != "permission denied" {
		t.Fatalf("unexpected scan errors: %+v", scanErrs)
	}
}

func TestListRunsNewestFirstAndGetRunByPrefix(t *testing.T) {
	j, path := openTestJournal(t)

	first := &entry.RunMeta{ID: "aaaa-1111", RootPath: "/a", StatePath: "/s", StartTime: time.Unix(100, 0)}
	second := &entry.RunMeta{ID: "aaab-2222", RootPath: "/b", StatePath: "/s", StartTime: time.Unix(200, 0)}
	for _, m := range []*entry.RunMeta{first, second} {
		if err := j.BeginRun(m); err != nil {
			t.Fatalf("begin run: %v", err)
		}
	}
	second.Status = entry.RunFailed
	second.Error = "rewrite /b/x failed (exit 1)"
	second.EndTime = time.Unix(260, 0)
	if err := j.FinishRun(second); err != nil {
		t.Fatalf("finish run: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	database, err := OpenReadOnly(path)
	if err != nil {
		t.Fatalf("open read-only: %v", err)
	}
	defer database.Close()

	runs, err := ListRuns(database, 0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != second.ID || runs[1].ID != first.ID {
		t.Fatalf("unexpected order: %+v", runs)
	}
	if runs[0].Error != second.Error || runs[1].Status != entry.RunRunning {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	if !runs[1].EndTime.IsZero() {
		t.Fatalf("expected unfinished run to have no end time")
	}

	limited, err := ListRuns(database, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("limit: %v %d", err, len(limited))
	}

	m, err := GetRun(database, "aaab")
	if err != nil || m == nil || m.ID != second.ID {
		t.Fatalf("get by prefix: %v %+v", err, m)
	}
	if _, err := GetRun(database, "aaa"); err == nil {
		t.Fatalf("expected ambiguous prefix error")
	}
	m, err = GetRun(database, "zzz")
	if err != nil || m != nil {
		t.Fatalf("expected no match, got %v %+v", err, m)
	}
	m, err = GetRun(database, "aaa_")
	if err != nil || m != nil {
		t.Fatalf("expected literal underscore match to fail, got %v %+v", err, m)
	}
}

func TestFinishUnknownRun(t *testing.T) {
	j, _ := openTestJournal(t)
	defer j.Close()

	err := j.FinishRun(&entry.RunMeta{ID: "missing", EndTime: time.Now(), Status: entry.RunCompleted})
	if err == nil {
		t.Fatalf("expected error for unknown run")
	}
}

func TestOpenReadOnlyMissing(t *testing.T) {
	if _, err := OpenReadOnly(filepath.Join(t.TempDir(), "nope.db")); err == nil {
		t.Fatalf("expected error for missing journal")
	}
}
