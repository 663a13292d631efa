package citygml

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/c360studio/citybridge/mapping"
)

const indentSpaces = 2

// Encode builds the XML tree for rec. Building content is emitted in the
// order name, storey names, generic attributes.
func Encode(rec mapping.Record) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("CityModel")
	root.CreateAttr("xmlns", NamespaceCityGML)
	root.CreateAttr("xmlns:gml", NamespaceGML)

	bounded := root.CreateElement("gml:boundedBy")
	null := bounded.CreateElement("gml:Null")
	null.CreateAttr("reason", "unknown")
	null.SetText("unknown")

	for _, b := range rec.Buildings {
		building := root.CreateElement("cityObjectMember").CreateElement("Building")
		building.CreateAttr("gml:id", b.ID)
		building.CreateElement("gml:name").SetText(b.Name)
		for _, storey := range b.StoreyNames {
			building.CreateElement("gml:name").SetText(mapping.StoreyMarker + storey)
		}
		for _, attr := range b.Attributes {
			ga := building.CreateElement("genericAttribute")
			ga.CreateAttr("name", attr.Name)
			ga.CreateAttr("value", attr.Value)
		}
	}

	doc.Indent(indentSpaces)
	return doc
}

// Marshal renders rec as UTF-8 XML. The output is a pure function of rec.
func Marshal(rec mapping.Record) ([]byte, error) {
	data, err := Encode(rec).WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serialize citygml: %w", err)
	}
	return data, nil
}
