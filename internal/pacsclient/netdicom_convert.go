package pacsclient

import (
	godicom "github.com/grailbio/go-dicom"
	"github.com/grailbio/go-dicom/dicomtag"
)

// queryToElements builds the DIMSE query/retrieve element list the
// underlying library expects from our plain field-name/value map. A
// blank value means "return this field", matching the C-FIND
// convention of blanking requested attributes.
func queryToElements(query map[string]string) ([]*godicom.Element, error) {
	elements := make([]*godicom.Element, 0, len(query))
	for name, value := range query {
		info, err := dicomtag.FindByName(name)
		if err != nil {
			continue
		}
		var values []interface{}
		if value != "" {
			values = []interface{}{value}
		}
		elements = append(elements, &godicom.Element{
			Tag:   info.Tag,
			Value: values,
		})
	}
	return elements, nil
}

// elementsToMap flattens a response's elements into a plain
// field-name/value map for the rest of the package to filter through
// the safe-fields allowlist.
func elementsToMap(elements []*godicom.Element) map[string]string {
	out := make(map[string]string, len(elements))
	for _, e := range elements {
		info, err := dicomtag.Find(e.Tag)
		if err != nil {
			continue
		}
		if len(e.Value) == 0 {
			continue
		}
		if s, ok := e.Value[0].(string); ok {
			out[info.Name] = s
		}
	}
	return out
}
