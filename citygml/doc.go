// Package citygml writes conversion records as CityGML 2.0 documents and
// reads the building content of such documents back.
//
// Only the semantic subset produced by this module is covered: buildings
// with gml:id, gml:name annotations and generic attributes. Geometry and
// schema validation are not.
package citygml

// XML namespaces used by the produced documents.
const (
	NamespaceCityGML = "http://www.opengis.net/citygml/2.0"
	NamespaceGML     = "http://www.opengis.net/gml"
)
