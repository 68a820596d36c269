// Package anonymize implements the allowlist-based tag filter that
// every received dataset passes through before it is written to disk.
package anonymize

import (
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/mijuny/pacs-agent/internal/dicomtag"
)

const deidentificationMethod = "pacs-agent allowlist v1"

var (
	tagPatientIdentityRemoved = tag.Tag{Group: 0x0012, Element: 0x0062}
	tagDeidentificationMethod = tag.Tag{Group: 0x0012, Element: 0x0063}
	fileMetaGroup             = uint16(0x0002)
)

// Dataset applies the filter to ds in place and returns it for
// convenience. It is idempotent: applying it twice yields the same
// result as applying it once, since the second pass finds nothing left
// to delete and re-stamps the same identity fields.
//
// Order matters: PatientName and PatientID are first deleted along
// with every other PHI tag, then re-inserted with the case ID. An
// implementation that tried to overwrite the original elements in
// place would carry forward a non-standard VR if the archive emitted
// one, which would defeat the allowlist guarantee.
func Dataset(ds *dicom.Dataset, caseID string) *dicom.Dataset {
	kept := ds.Elements[:0:0]
	for _, elem := range ds.Elements {
		if elem.Tag.Group == fileMetaGroup {
			kept = append(kept, elem)
			continue
		}
		if shouldDelete(elem) {
			continue
		}
		kept = append(kept, elem)
	}
	ds.Elements = kept

	setString(ds, tag.PatientName, caseID)
	setString(ds, tag.PatientID, caseID)
	setString(ds, tagPatientIdentityRemoved, "YES")
	setString(ds, tagDeidentificationMethod, deidentificationMethod)

	return ds
}

func shouldDelete(elem *dicom.Element) bool {
	if dicomtag.IsPrivate(elem.Tag) {
		return true
	}
	if dicomtag.IsPHI(elem.Tag) {
		return true
	}
	if isSequence(elem) && !dicomtag.IsKept(elem.Tag) {
		return true
	}
	return !dicomtag.IsKept(elem.Tag)
}

func isSequence(elem *dicom.Element) bool {
	return elem.RawValueRepresentation == "SQ"
}

// setString replaces (or inserts) an element with a single string
// value, the DICOM library's usual shape for the identity fields we
// re-stamp.
func setString(ds *dicom.Dataset, t tag.Tag, value string) {
	elem, err := dicom.NewElement(t, []string{value})
	if err != nil {
		// Identity fields use well-known tags with a fixed string VR;
		// construction cannot fail for values of this shape.
		panic(err)
	}
	for i, e := range ds.Elements {
		if e.Tag == t {
			ds.Elements[i] = elem
			return
		}
	}
	ds.Elements = append(ds.Elements, elem)
}
