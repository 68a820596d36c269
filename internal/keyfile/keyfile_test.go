package keyfile

import (
	"path/filepath"
	"testing"
)

func TestReadMissingFileReturnsEmpty(t *testing.T) {
	entries, err := Read(filepath.Join(t.TempDir(), "key.csv"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.csv")
	want := []Entry{
		{CaseID: "case0001", Accession: "ACC1", StudyDate: "20260101", Modality: "CT", Description: "chest", SeriesCount: 2, ImageCount: 120},
		{CaseID: "case0002", Accession: "ACC2", StudyDate: "20260102", Modality: "MR", Description: "brain", SeriesCount: 5, ImageCount: 900},
	}
	if err := Write(path, want); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestNextCaseIDEmpty(t *testing.T) {
	if got := NextCaseID(nil); got != "case0001" {
		t.Errorf("NextCaseID(nil) = %q, want case0001", got)
	}
}

func TestNextCaseIDIncrements(t *testing.T) {
	entries := []Entry{
		{CaseID: "case0001"},
		{CaseID: "case0007"},
		{CaseID: "case0003"},
	}
	if got := NextCaseID(entries); got != "case0008" {
		t.Errorf("NextCaseID = %q, want case0008", got)
	}
}

func TestNextCaseIDIgnoresMalformed(t *testing.T) {
	entries := []Entry{
		{CaseID: "case0002"},
		{CaseID: "caseXYZ"},
		{CaseID: "not-a-case"},
	}
	if got := NextCaseID(entries); got != "case0003" {
		t.Errorf("NextCaseID = %q, want case0003", got)
	}
}
