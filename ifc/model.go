package ifc

import (
	"context"
	"fmt"
	"slices"
	"sort"
)

// Entity is one instance from the DATA section.
type Entity struct {
	ID     int
	Type   EntityType
	Params []Value
}

// Param returns the i-th parameter, or false when the instance has fewer.
func (e *Entity) Param(i int) (Value, bool) {
	if i < 0 || i >= len(e.Params) {
		return Value{}, false
	}
	return e.Params[i], true
}

// Is reports whether e has type t.
func (e *Entity) Is(t EntityType) bool {
	return e.Type == t
}

func (e *Entity) String() string {
	return fmt.Sprintf("#%d=%s", e.ID, e.Type)
}

// Model is a parsed IFC file. It is immutable once Parse returns and safe
// for concurrent reads.
type Model struct {
	// Schema is the first schema named in the FILE_SCHEMA header, e.g. IFC2X3.
	Schema string

	entities map[int]*Entity
	ordered  []*Entity
	byType   map[EntityType][]*Entity
	inverse  map[int][]*Entity
}

func newModel() *Model {
	return &Model{
		entities: make(map[int]*Entity),
		byType:   make(map[EntityType][]*Entity),
		inverse:  make(map[int][]*Entity),
	}
}

// index builds the type and inverse-reference indexes in instance-id order.
func (m *Model) index() {
	m.ordered = make([]*Entity, 0, len(m.entities))
	for _, e := range m.entities {
		m.ordered = append(m.ordered, e)
	}
	sort.Slice(m.ordered, func(i, j int) bool { return m.ordered[i].ID < m.ordered[j].ID })

	for _, e := range m.ordered {
		m.byType[e.Type] = append(m.byType[e.Type], e)

		var refs []int
		for _, param := range e.Params {
			refs = param.refs(refs)
		}
		slices.Sort(refs)
		for _, ref := range slices.Compact(refs) {
			m.inverse[ref] = append(m.inverse[ref], e)
		}
	}
}

// Open reads and parses the IFC file at location.
func Open(ctx context.Context, r Reader, location string) (*Model, error) {
	data, err := r.Read(ctx, location)
	if err != nil {
		return nil, err
	}
	model, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", location, err)
	}
	return model, nil
}

// Reader loads file contents. storage.Store satisfies it.
type Reader interface {
	Read(ctx context.Context, location string) ([]byte, error)
}

// Len returns the number of entity instances.
func (m *Model) Len() int {
	return len(m.ordered)
}

// Entity returns the instance with the given id.
func (m *Model) Entity(id int) (*Entity, bool) {
	e, ok := m.entities[id]
	return e, ok
}

// ByType returns the instances of exactly type t in instance-id order.
func (m *Model) ByType(t EntityType) []*Entity {
	return m.byType[t]
}

// Inverse returns the instances that reference e, in instance-id order.
func (m *Model) Inverse(e *Entity) []*Entity {
	return m.inverse[e.ID]
}

// FindRelated returns the entities related to e through relationships of
// the given kind. Relationships are visited in instance-id order, and the
// related objects of each relationship in their listed order.
func (m *Model) FindRelated(e *Entity, kind RelationshipKind) ([]*Entity, error) {
	var (
		relType   EntityType
		selfIdx   int
		targetIdx int
	)
	switch kind {
	case RelAggregates:
		relType, selfIdx, targetIdx = TypeRelAggregates, 4, 5
	case RelAssociatesClassification:
		relType, selfIdx, targetIdx = TypeRelAssociatesClassification, 4, 5
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownRelationship, kind)
	}

	var related []*Entity
	for _, rel := range m.Inverse(e) {
		if rel.Type != relType {
			continue
		}
		self, ok := rel.Param(selfIdx)
		if !ok || !containsRef(self, e.ID) {
			continue
		}
		target, ok := rel.Param(targetIdx)
		if !ok {
			return nil, fmt.Errorf("%s: missing related objects", rel)
		}
		for _, ref := range target.refs(nil) {
			entity, ok := m.entities[ref]
			if !ok {
				return nil, fmt.Errorf("%s references #%d: %w", rel, ref, ErrDanglingReference)
			}
			related = append(related, entity)
		}
	}
	return related, nil
}

// containsRef reports whether v is, or directly lists, a reference to id.
func containsRef(v Value, id int) bool {
	switch v.Kind {
	case KindRef:
		return v.Ref == id
	case KindList:
		for _, item := range v.List {
			if item.Kind == KindRef && item.Ref == id {
				return true
			}
		}
	}
	return false
}
