package anonymize

import (
	"testing"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

func mustElement(t *testing.T, tg tag.Tag, value string) *dicom.Element {
	t.Helper()
	elem, err := dicom.NewElement(tg, []string{value})
	if err != nil {
		t.Fatalf("NewElement: %v", err)
	}
	return elem
}

func sampleDataset(t *testing.T) *dicom.Dataset {
	t.Helper()
	return &dicom.Dataset{
		Elements: []*dicom.Element{
			mustElement(t, tag.PatientName, "CompressedSamples^CT1"),
			mustElement(t, tag.PatientID, "1234567"),
			mustElement(t, tag.InstitutionName, "JFK IMAGING CENTER"),
			mustElement(t, tag.StudyInstanceUID, "1.2.3"),
			mustElement(t, tag.Modality, "CT"),
			mustElement(t, tag.Tag{Group: 0x0009, Element: 0x0001}, "vendor-private"),
		},
	}
}

func findElement(ds *dicom.Dataset, tg tag.Tag) *dicom.Element {
	for _, e := range ds.Elements {
		if e.Tag == tg {
			return e
		}
	}
	return nil
}

func TestDatasetDeletesPHIAndPrivateTags(t *testing.T) {
	ds := sampleDataset(t)
	Dataset(ds, "case0001")

	if findElement(ds, tag.InstitutionName) != nil {
		t.Error("InstitutionName should have been deleted")
	}
	if findElement(ds, tag.Tag{Group: 0x0009, Element: 0x0001}) != nil {
		t.Error("private tag should have been deleted")
	}
}

func TestDatasetKeepsAllowlistedTags(t *testing.T) {
	ds := sampleDataset(t)
	Dataset(ds, "case0001")

	if findElement(ds, tag.StudyInstanceUID) == nil {
		t.Error("StudyInstanceUID should survive")
	}
	if findElement(ds, tag.Modality) == nil {
		t.Error("Modality should survive")
	}
}

func TestDatasetRestampsIdentity(t *testing.T) {
	ds := sampleDataset(t)
	Dataset(ds, "case0001")

	name := findElement(ds, tag.PatientName)
	if name == nil {
		t.Fatal("PatientName should be re-stamped, not absent")
	}
	if got := name.Value.String(); got != "[case0001]" && got != "case0001" {
		t.Errorf("PatientName = %q, want case0001", got)
	}

	id := findElement(ds, tag.PatientID)
	if id == nil {
		t.Fatal("PatientID should be re-stamped, not absent")
	}
}

func TestDatasetIsIdempotent(t *testing.T) {
	ds := sampleDataset(t)
	Dataset(ds, "case0001")
	first := len(ds.Elements)

	Dataset(ds, "case0001")
	second := len(ds.Elements)

	if first != second {
		t.Errorf("second pass changed element count: %d vs %d", first, second)
	}
}

func TestDatasetDeidentificationMarkers(t *testing.T) {
	ds := sampleDataset(t)
	Dataset(ds, "case0001")

	removed := findElement(ds, tagPatientIdentityRemoved)
	if removed == nil {
		t.Fatal("expected PatientIdentityRemoved to be set")
	}
	method := findElement(ds, tagDeidentificationMethod)
	if method == nil {
		t.Fatal("expected DeidentificationMethod to be set")
	}
}
