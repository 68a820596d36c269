package dicomtag

import (
	"testing"

	"github.com/suyashkumar/dicom/pkg/tag"
)

func TestIsPrivate(t *testing.T) {
	cases := []struct {
		tag  tag.Tag
		want bool
	}{
		{tag.Tag{Group: 0x0010, Element: 0x0010}, false},
		{tag.Tag{Group: 0x0009, Element: 0x0001}, true},
		{tag.Tag{Group: 0x7FE0, Element: 0x0010}, false},
	}
	for _, c := range cases {
		if got := IsPrivate(c.tag); got != c.want {
			t.Errorf("IsPrivate(%v) = %v, want %v", c.tag, got, c.want)
		}
	}
}

func TestPHIAndKeepDisjointWhereExpected(t *testing.T) {
	// PatientName/PatientID are PHI and must never also be kept —
	// otherwise anonymization would both delete and retain them.
	patientName := tag.Tag{Group: 0x0010, Element: 0x0010}
	patientID := tag.Tag{Group: 0x0010, Element: 0x0020}

	if !IsPHI(patientName) {
		t.Error("PatientName should be PHI")
	}
	if IsKept(patientName) {
		t.Error("PatientName should not be on the allowlist")
	}
	if !IsPHI(patientID) {
		t.Error("PatientID should be PHI")
	}
	if IsKept(patientID) {
		t.Error("PatientID should not be on the allowlist")
	}
}

func TestKeepTagsIncludeStudyIdentifiers(t *testing.T) {
	for _, tg := range []tag.Tag{
		{Group: 0x0020, Element: 0x000D}, // StudyInstanceUID
		{Group: 0x0020, Element: 0x000E}, // SeriesInstanceUID
		{Group: 0x0008, Element: 0x0018}, // SOPInstanceUID
		{Group: 0x7FE0, Element: 0x0010}, // PixelData
	} {
		if !IsKept(tg) {
			t.Errorf("expected %v on the allowlist", tg)
		}
	}
}

func TestStudyIDDeliberatelyExcluded(t *testing.T) {
	studyID := tag.Tag{Group: 0x0020, Element: 0x0010}
	if IsKept(studyID) {
		t.Error("StudyID can mirror PatientID at some sites and must not be kept")
	}
}
