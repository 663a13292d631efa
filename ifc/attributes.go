package ifc

import "fmt"

// Attributes are the optional descriptive attributes of an entity. A nil
// pointer means the attribute is unset ($) or absent from the entity type.
type Attributes struct {
	GlobalID    string
	Name        *string
	Description *string
	ObjectType  *string
	Elevation   *float64
}

// layout holds parameter positions; -1 marks an attribute the type lacks.
type layout struct {
	globalID    int
	name        int
	description int
	objectType  int
	elevation   int
}

var (
	rootLayout   = layout{globalID: 0, name: 2, description: 3, objectType: -1, elevation: -1}
	objectLayout = layout{globalID: 0, name: 2, description: 3, objectType: 4, elevation: -1}
)

var layouts = map[EntityType]layout{
	TypeProject:        objectLayout,
	TypeSite:           objectLayout,
	TypeBuilding:       objectLayout,
	TypeSpace:          objectLayout,
	TypeBuildingStorey: {globalID: 0, name: 2, description: 3, objectType: 4, elevation: 9},

	TypeRelAggregates:               rootLayout,
	TypeRelAssociatesClassification: rootLayout,

	// IFC2x3 (Source, Edition, EditionDate, Name); IFC4 appends Description.
	TypeClassification: {globalID: -1, name: 3, description: 4, objectType: -1, elevation: -1},
	// IFC2x3 (Location, ItemReference, Name, ReferencedSource); IFC4 appends Description.
	TypeClassificationReference: {globalID: -1, name: 2, description: 4, objectType: -1, elevation: -1},
}

// Attributes reads the descriptive attributes of e according to its type's
// layout. A value of the wrong kind is an error.
func (e *Entity) Attributes() (Attributes, error) {
	l, ok := layouts[e.Type]
	if !ok {
		return Attributes{}, fmt.Errorf("%s: %w", e, ErrNoLayout)
	}

	var (
		attrs Attributes
		err   error
	)
	if l.globalID >= 0 {
		id, err := e.stringAt(l.globalID, "GlobalId")
		if err != nil {
			return Attributes{}, err
		}
		if id != nil {
			attrs.GlobalID = *id
		}
	}
	if attrs.Name, err = e.stringAt(l.name, "Name"); err != nil {
		return Attributes{}, err
	}
	if attrs.Description, err = e.stringAt(l.description, "Description"); err != nil {
		return Attributes{}, err
	}
	if attrs.ObjectType, err = e.stringAt(l.objectType, "ObjectType"); err != nil {
		return Attributes{}, err
	}
	if attrs.Elevation, err = e.realAt(l.elevation, "Elevation"); err != nil {
		return Attributes{}, err
	}
	return attrs, nil
}

func (e *Entity) stringAt(i int, attr string) (*string, error) {
	if i < 0 {
		return nil, nil
	}
	v, ok := e.Param(i)
	if !ok {
		return nil, nil
	}
	v = v.Unwrap()
	switch {
	case v.IsUnset():
		return nil, nil
	case v.Kind == KindString:
		s := v.Str
		return &s, nil
	default:
		return nil, fmt.Errorf("%s: attribute %s: expected string, got %s", e, attr, v.Kind)
	}
}

func (e *Entity) realAt(i int, attr string) (*float64, error) {
	if i < 0 {
		return nil, nil
	}
	v, ok := e.Param(i)
	if !ok {
		return nil, nil
	}
	v = v.Unwrap()
	switch {
	case v.IsUnset():
		return nil, nil
	case v.Kind == KindReal:
		f := v.Real
		return &f, nil
	case v.Kind == KindInteger:
		f := float64(v.Int)
		return &f, nil
	default:
		return nil, fmt.Errorf("%s: attribute %s: expected real, got %s", e, attr, v.Kind)
	}
}
