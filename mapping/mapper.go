package mapping

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/c360studio/citybridge/ifc"
)

// StoreyOrder selects the order in which storeys are emitted.
type StoreyOrder string

const (
	// StoreyOrderSource keeps the order returned by the relationship query.
	StoreyOrderSource StoreyOrder = "source"

	// StoreyOrderName sorts storeys by resolved name, ties by entity id.
	StoreyOrderName StoreyOrder = "name"
)

// Options tunes the mapping.
type Options struct {
	StoreyOrder StoreyOrder

	// IncludeGlobalID additionally emits each building's GlobalId as a
	// generic attribute. Existing consumers expect it to be absent.
	IncludeGlobalID bool
}

// Source is the read-only view of an entity graph the mapper needs.
// *ifc.Model satisfies it.
type Source interface {
	ByType(t ifc.EntityType) []*ifc.Entity
	FindRelated(e *ifc.Entity, kind ifc.RelationshipKind) ([]*ifc.Entity, error)
}

// Mapper converts IFC buildings into conversion records. It holds no
// per-call state and is safe for concurrent use.
type Mapper struct {
	opts   Options
	logger *slog.Logger
}

// NewMapper creates a Mapper.
func NewMapper(opts Options, logger *slog.Logger) *Mapper {
	if opts.StoreyOrder == "" {
		opts.StoreyOrder = StoreyOrderSource
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Mapper{opts: opts, logger: logger}
}

// Map walks every building in src and returns the record together with the
// diagnostics collected for this call. A failing building is reported and
// skipped; the remaining buildings are still mapped.
func (m *Mapper) Map(src Source) *Result {
	result := &Result{}

	buildings := src.ByType(ifc.TypeBuilding)
	if len(buildings) == 0 {
		result.addWarning("no IfcBuilding entities found")
		if storeys := src.ByType(ifc.TypeBuildingStorey); len(storeys) > 0 {
			result.addWarning("found %d building storeys without building entity", len(storeys))
		}
	}

	for idx, building := range buildings {
		fact, warnings, err := m.mapBuilding(src, building, idx)
		if err != nil {
			result.addError("error processing building %d: %v", idx, err)
			m.logger.Error("Building mapping failed", "index", idx, "entity", building.ID, "error", err)
			continue
		}
		result.Warnings = append(result.Warnings, warnings...)
		result.Buildings = append(result.Buildings, fact)
		result.Record.Buildings = append(result.Record.Buildings, m.node(fact))
		result.BuildingsProcessed++

		m.logger.Debug("Mapped building", "index", idx, "name", fact.Name, "storeys", len(fact.Storeys))
	}

	return result
}

func (m *Mapper) mapBuilding(src Source, building *ifc.Entity, idx int) (fact BuildingFact, warnings []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	attrs, err := building.Attributes()
	if err != nil {
		return BuildingFact{}, nil, err
	}
	fact = BuildingFact{
		Index:       idx,
		Name:        BuildingName(attrs.Name, idx),
		GlobalID:    attrs.GlobalID,
		Description: attrs.Description,
		ObjectType:  attrs.ObjectType,
	}

	fact.Storeys, err = m.storeys(src, building)
	if err != nil {
		return BuildingFact{}, nil, fmt.Errorf("resolve storeys: %w", err)
	}
	if len(fact.Storeys) == 0 {
		warnings = append(warnings, fmt.Sprintf("building %d (%s) has no storeys", idx, fact.Name))
	}

	classification, warning, err := classificationName(src, building)
	if err != nil {
		return BuildingFact{}, nil, fmt.Errorf("resolve classification: %w", err)
	}
	if warning != "" {
		warnings = append(warnings, fmt.Sprintf("building %d (%s): %s", idx, fact.Name, warning))
	}
	fact.Classification = classification

	if err := m.checkFact(fact); err != nil {
		return BuildingFact{}, nil, err
	}
	return fact, warnings, nil
}

// checkFact rejects text that the target document could not hold
// unchanged.
func (m *Mapper) checkFact(fact BuildingFact) error {
	type text struct{ field, value string }
	texts := []text{{"name", fact.Name}}
	for _, s := range fact.Storeys {
		texts = append(texts, text{"storey name", s.Name})
	}
	if fact.Description != nil {
		texts = append(texts, text{AttrDescription, *fact.Description})
	}
	if fact.ObjectType != nil {
		texts = append(texts, text{AttrObjectType, *fact.ObjectType})
	}
	if fact.Classification != nil {
		texts = append(texts, text{AttrClassification, *fact.Classification})
	}
	if m.opts.IncludeGlobalID {
		texts = append(texts, text{AttrGlobalID, fact.GlobalID})
	}
	for _, t := range texts {
		if err := checkText(t.field, t.value); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mapper) storeys(src Source, building *ifc.Entity) ([]StoreyFact, error) {
	related, err := src.FindRelated(building, ifc.RelAggregates)
	if err != nil {
		return nil, err
	}

	type entry struct {
		id   int
		fact StoreyFact
	}
	var entries []entry
	for _, e := range related {
		if !e.Is(ifc.TypeBuildingStorey) {
			continue
		}
		attrs, err := e.Attributes()
		if err != nil {
			return nil, err
		}
		fact := StoreyFact{
			Name:        StoreyName(attrs.Name, e.ID),
			GlobalID:    attrs.GlobalID,
			Description: attrs.Description,
		}
		if attrs.Elevation != nil {
			fact.Elevation = *attrs.Elevation
		}
		entries = append(entries, entry{id: e.ID, fact: fact})
	}

	if m.opts.StoreyOrder == StoreyOrderName {
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].fact.Name != entries[j].fact.Name {
				return entries[i].fact.Name < entries[j].fact.Name
			}
			return entries[i].id < entries[j].id
		})
	}

	storeys := make([]StoreyFact, len(entries))
	for i, e := range entries {
		storeys[i] = e.fact
	}
	return storeys, nil
}

// classificationName resolves the name of the first classification
// associated with building. It returns nil when none is associated, and a
// warning when the classification cannot be named.
func classificationName(src Source, building *ifc.Entity) (*string, string, error) {
	related, err := src.FindRelated(building, ifc.RelAssociatesClassification)
	if err != nil {
		return nil, "", err
	}
	if len(related) == 0 {
		return nil, "", nil
	}

	var warning string
	if len(related) > 1 {
		warning = fmt.Sprintf("%d classifications associated, using %s", len(related), related[0])
	}

	name := UnknownClassification
	attrs, err := related[0].Attributes()
	switch {
	case err != nil:
		warning = joinWarning(warning, fmt.Sprintf("classification unresolved: %v", err))
	case attrs.Name == nil || *attrs.Name == "":
		warning = joinWarning(warning, fmt.Sprintf("classification %s has no name", related[0]))
	default:
		name = *attrs.Name
	}
	return &name, warning, nil
}

func joinWarning(a, b string) string {
	if a == "" {
		return b
	}
	return a + "; " + b
}

// node builds the record node for a fact. Storey elevations come first,
// then description, object type and classification.
func (m *Mapper) node(fact BuildingFact) BuildingNode {
	node := BuildingNode{
		ID:          BuildingID(fact.Index),
		Name:        fact.Name,
		StoreyNames: make([]string, 0, len(fact.Storeys)),
	}
	for _, s := range fact.Storeys {
		node.StoreyNames = append(node.StoreyNames, s.Name)
	}
	for _, s := range fact.Storeys {
		node.Attributes = append(node.Attributes, GenericAttribute{Name: AttrStoreyElevation, Value: FormatElevation(s.Elevation)})
	}

	if fact.Description != nil && *fact.Description != "" {
		node.Attributes = append(node.Attributes, GenericAttribute{Name: AttrDescription, Value: *fact.Description})
	}
	if m.opts.IncludeGlobalID && fact.GlobalID != "" {
		node.Attributes = append(node.Attributes, GenericAttribute{Name: AttrGlobalID, Value: fact.GlobalID})
	}
	if fact.ObjectType != nil && *fact.ObjectType != "" {
		node.Attributes = append(node.Attributes, GenericAttribute{Name: AttrObjectType, Value: *fact.ObjectType})
	}
	if fact.Classification != nil {
		node.Attributes = append(node.Attributes, GenericAttribute{Name: AttrClassification, Value: *fact.Classification})
	}
	return node
}
