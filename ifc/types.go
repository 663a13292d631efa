package ifc

import "errors"

// EntityType is an upper-case STEP entity keyword such as IFCBUILDING.
type EntityType string

// Entity types used by the conversion pipeline.
const (
	TypeProject                     EntityType = "IFCPROJECT"
	TypeSite                        EntityType = "IFCSITE"
	TypeBuilding                    EntityType = "IFCBUILDING"
	TypeBuildingStorey              EntityType = "IFCBUILDINGSTOREY"
	TypeSpace                       EntityType = "IFCSPACE"
	TypeRelAggregates               EntityType = "IFCRELAGGREGATES"
	TypeRelAssociatesClassification EntityType = "IFCRELASSOCIATESCLASSIFICATION"
	TypeClassification              EntityType = "IFCCLASSIFICATION"
	TypeClassificationReference     EntityType = "IFCCLASSIFICATIONREFERENCE"
)

// RelationshipKind selects the relationship traversed by Model.FindRelated.
type RelationshipKind string

const (
	// RelAggregates follows IfcRelAggregates from the relating (whole)
	// object to its related (part) objects.
	RelAggregates RelationshipKind = "aggregates"

	// RelAssociatesClassification follows IfcRelAssociatesClassification
	// from a classified object to its classification.
	RelAssociatesClassification RelationshipKind = "associates-classification"
)

// Errors returned by the entity graph.
var (
	// ErrDanglingReference is returned when an instance references an
	// entity id that the file does not define.
	ErrDanglingReference = errors.New("dangling entity reference")

	// ErrUnknownRelationship is returned for unsupported relationship kinds.
	ErrUnknownRelationship = errors.New("unknown relationship kind")

	// ErrNoLayout is returned when attributes are requested for an entity
	// type without a known attribute layout.
	ErrNoLayout = errors.New("no attribute layout for entity type")
)
