// Package ifc reads IFC building models stored as ISO 10303-21 (STEP)
// physical files and exposes them as a read-only entity graph.
//
// The graph offers three capabilities used by the conversion pipeline:
//
//   - ByType lists the instances of an entity type in file order.
//   - FindRelated answers typed relationship queries, e.g. the storeys
//     aggregated under a building, or the classification associated with it.
//   - Entity.Attributes returns the optional root attributes (name,
//     description, object type, elevation) as explicit nil-able values.
//
// Only the subset of the IFC2x3/IFC4 schemas needed for building and storey
// extraction carries attribute layouts; every instance is still parsed and
// indexed so that relationships can be traversed.
package ifc
