// Package mapping projects IFC building entities into a schema-agnostic
// conversion record that the CityGML writer renders.
package mapping

import "fmt"

// Attribute names emitted as generic attributes.
const (
	AttrStoreyElevation = "storey_elevation"
	AttrDescription     = "description"
	AttrGlobalID        = "global_id"
	AttrObjectType      = "object_type"
	AttrClassification  = "classification"
)

// StoreyMarker prefixes the name annotation emitted for each storey.
const StoreyMarker = "Storey::"

// UnknownClassification is used when a classification has no name.
const UnknownClassification = "Unknown"

// BuildingFact is the semantic content extracted for one IfcBuilding.
type BuildingFact struct {
	// Index is the building's zero-based position in source order.
	Index          int
	Name           string
	GlobalID       string
	Description    *string
	ObjectType     *string
	Classification *string
	Storeys        []StoreyFact
}

// StoreyFact is the semantic content extracted for one IfcBuildingStorey.
// It belongs to exactly one BuildingFact.
type StoreyFact struct {
	Name        string
	Elevation   float64
	GlobalID    string
	Description *string
}

// Record is the conversion record: a tree mirroring the target document
// without depending on any XML library.
type Record struct {
	Buildings []BuildingNode
}

// BuildingNode is one building feature of the target document.
type BuildingNode struct {
	// ID is the file-scoped target identifier, "b-{index}".
	ID          string
	Name        string
	StoreyNames []string
	Attributes  []GenericAttribute
}

// GenericAttribute is a name/value pair for data without a dedicated
// target element.
type GenericAttribute struct {
	Name  string
	Value string
}

// Result is the outcome of mapping one source model. Each call to
// Mapper.Map returns a fresh Result.
type Result struct {
	Record             Record
	Buildings          []BuildingFact
	BuildingsProcessed int
	Errors             []string
	Warnings           []string
}

// HasErrors reports whether any building failed to map.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}
