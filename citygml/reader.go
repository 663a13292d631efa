package citygml

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/c360studio/citybridge/mapping"
)

// ErrNotCityGML is returned when the document root is not a CityGML 2.0
// CityModel.
var ErrNotCityGML = errors.New("not a CityGML 2.0 CityModel")

// UnknownName is reported for buildings without a gml:name child.
const UnknownName = "Unknown"

// Document is the building content extracted from a CityGML file.
type Document struct {
	Buildings []Building

	// StoreyNames holds every storey annotation in the document, marker
	// prefix removed, in document order.
	StoreyNames []string
}

// Building is one Building element.
type Building struct {
	ID          string
	Name        string
	StoreyNames []string
	Attributes  []mapping.GenericAttribute
}

// Read parses data and extracts its buildings. Elements are matched by
// namespace URI, so documents using other prefixes are read the same way.
func Read(data []byte) (*Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}

	root := doc.Root()
	if root == nil || root.Tag != "CityModel" || root.NamespaceURI() != NamespaceCityGML {
		return nil, ErrNotCityGML
	}

	out := &Document{}
	walk(root, func(e *etree.Element) {
		switch {
		case isCity(e, "Building"):
			out.Buildings = append(out.Buildings, readBuilding(e))
		case isGML(e, "name"):
			if name, ok := storeyName(e); ok {
				out.StoreyNames = append(out.StoreyNames, name)
			}
		}
	})
	return out, nil
}

func readBuilding(e *etree.Element) Building {
	b := Building{Name: UnknownName}
	for _, a := range e.Attr {
		if a.Key == "id" && a.NamespaceURI() == NamespaceGML {
			b.ID = a.Value
			break
		}
	}

	named := false
	for _, child := range e.ChildElements() {
		switch {
		case isGML(child, "name"):
			if !named {
				b.Name = child.Text()
				named = true
				continue
			}
			if name, ok := storeyName(child); ok {
				b.StoreyNames = append(b.StoreyNames, name)
			}
		case isCity(child, "genericAttribute"):
			b.Attributes = append(b.Attributes, mapping.GenericAttribute{
				Name:  child.SelectAttrValue("name", ""),
				Value: child.SelectAttrValue("value", ""),
			})
		}
	}
	return b
}

func storeyName(e *etree.Element) (string, bool) {
	text := e.Text()
	if !strings.HasPrefix(text, mapping.StoreyMarker) {
		return "", false
	}
	return strings.TrimPrefix(text, mapping.StoreyMarker), true
}

func isCity(e *etree.Element, tag string) bool {
	return e.Tag == tag && e.NamespaceURI() == NamespaceCityGML
}

func isGML(e *etree.Element, tag string) bool {
	return e.Tag == tag && e.NamespaceURI() == NamespaceGML
}

func walk(e *etree.Element, fn func(*etree.Element)) {
	for _, child := range e.ChildElements() {
		fn(child)
		walk(child, fn)
	}
}
