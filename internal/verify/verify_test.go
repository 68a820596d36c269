package verify

import (
	"strings"
	"testing"

	"github.com/mijuny/pacs-agent/internal/keyfile"
)

func TestLoadPartitionsExactly(t *testing.T) {
	results := []LoadResult{
		{Status: "ok", Accession: "A1", CaseID: "case0001", ImageCount: 150},
		{Status: "skipped"},
		{Status: "dry-run"},
		{Status: "error", Error: "C-MOVE failed: timeout"},
		{Status: "error", Error: "not found on PACS"},
	}
	s := Load(results)
	if got := s.Loaded + s.Skipped + s.Failed + s.NotFound + 1; got != s.TotalRequested {
		t.Errorf("partition does not sum to total: loaded=%d skipped=%d failed=%d not_found=%d dry-run=1 total=%d",
			s.Loaded, s.Skipped, s.Failed, s.NotFound, s.TotalRequested)
	}
	if s.Loaded != 1 || s.Skipped != 1 || s.Failed != 1 || s.NotFound != 1 {
		t.Errorf("unexpected counts: %+v", s)
	}
}

func TestLoadNotFoundClassification(t *testing.T) {
	results := []LoadResult{{Status: "error", Error: "not found on PACS"}}
	s := Load(results)
	if s.NotFound != 1 || s.Failed != 0 {
		t.Errorf("expected not_found=1 failed=0, got %+v", s)
	}
	if s.OK {
		t.Error("expected ok=false when not_found > 0")
	}
}

func TestLoadImageCountWarnings(t *testing.T) {
	results := []LoadResult{
		{Status: "ok", Accession: "A1", CaseID: "case0001", ImageCount: 2},
		{Status: "ok", Accession: "A2", CaseID: "case0002", ImageCount: 6000},
	}
	s := Load(results)
	if len(s.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d: %v", len(s.Warnings), s.Warnings)
	}
	if !strings.Contains(s.Warnings[0], "unusually low") {
		t.Errorf("expected low-count warning, got %q", s.Warnings[0])
	}
	if !strings.Contains(s.Warnings[1], "unusually high") {
		t.Errorf("expected high-count warning, got %q", s.Warnings[1])
	}
	if s.OK {
		t.Error("expected ok=false when warnings are present")
	}
}

func TestProjectTooFewEntries(t *testing.T) {
	s := Project([]keyfile.Entry{{CaseID: "case0001"}, {CaseID: "case0002"}})
	if !s.OK || s.Note == "" {
		t.Errorf("expected ok with note for < 3 entries, got %+v", s)
	}
}

func TestProjectCohortOutlier(t *testing.T) {
	entries := []keyfile.Entry{
		{CaseID: "case0001", SeriesCount: 5, ImageCount: 300, Modality: "CT"},
		{CaseID: "case0002", SeriesCount: 5, ImageCount: 300, Modality: "CT"},
		{CaseID: "case0003", SeriesCount: 5, ImageCount: 300, Modality: "CT"},
		{CaseID: "case0004", SeriesCount: 20, ImageCount: 300, Modality: "CT"},
	}
	s := Project(entries)
	if s.OK {
		t.Error("expected ok=false with a series-count outlier")
	}
	found := false
	for _, w := range s.Warnings {
		if strings.Contains(w, "case0004") && strings.Contains(w, "series") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a warning mentioning case0004 and series, got %v", s.Warnings)
	}
}

func TestProjectMinorityModality(t *testing.T) {
	entries := []keyfile.Entry{
		{CaseID: "case0001", SeriesCount: 5, ImageCount: 300, Modality: "CT"},
		{CaseID: "case0002", SeriesCount: 5, ImageCount: 300, Modality: "CT"},
		{CaseID: "case0003", SeriesCount: 5, ImageCount: 300, Modality: "MR"},
	}
	s := Project(entries)
	found := false
	for _, w := range s.Warnings {
		if strings.Contains(w, "case0003") && strings.Contains(w, "differs from majority") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a minority-modality warning, got %v", s.Warnings)
	}
}
