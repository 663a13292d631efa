package ifc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(entities []*Entity) []int {
	out := make([]int, len(entities))
	for i, e := range entities {
		out[i] = e.ID
	}
	return out
}

func TestModel_ByType(t *testing.T) {
	model := loadFixture(t)

	assert.Equal(t, []int{10, 11}, ids(model.ByType(TypeBuilding)))
	assert.Equal(t, []int{20, 21, 22}, ids(model.ByType(TypeBuildingStorey)))
	assert.Empty(t, model.ByType(TypeSpace))
}

func TestModel_Inverse(t *testing.T) {
	model := loadFixture(t)
	building, _ := model.Entity(10)

	// Referenced as a part by #31, as a whole by #32, and classified by #42.
	assert.Equal(t, []int{31, 32, 42}, ids(model.Inverse(building)))
}

func TestModel_FindRelated(t *testing.T) {
	model := loadFixture(t)
	tower, _ := model.Entity(10)
	annex, _ := model.Entity(11)
	site, _ := model.Entity(2)

	t.Run("aggregated storeys in listed order", func(t *testing.T) {
		related, err := model.FindRelated(tower, RelAggregates)
		require.NoError(t, err)
		assert.Equal(t, []int{20, 21}, ids(related))
	})

	t.Run("aggregation is directional", func(t *testing.T) {
		related, err := model.FindRelated(site, RelAggregates)
		require.NoError(t, err)
		assert.Equal(t, []int{10, 11}, ids(related))

		storey, _ := model.Entity(20)
		related, err = model.FindRelated(storey, RelAggregates)
		require.NoError(t, err)
		assert.Empty(t, related)
	})

	t.Run("classification", func(t *testing.T) {
		related, err := model.FindRelated(tower, RelAssociatesClassification)
		require.NoError(t, err)
		assert.Equal(t, []int{41}, ids(related))

		related, err = model.FindRelated(annex, RelAssociatesClassification)
		require.NoError(t, err)
		assert.Empty(t, related)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := model.FindRelated(tower, RelationshipKind("bogus"))
		assert.ErrorIs(t, err, ErrUnknownRelationship)
	})
}

func TestModel_FindRelatedDangling(t *testing.T) {
	input := `ISO-10303-21;
HEADER;
ENDSEC;
DATA;
#1=IFCBUILDING('g1',$,'B',$,$,$,$,$,.ELEMENT.,$,$,$);
#2=IFCRELAGGREGATES('g2',$,$,$,#1,(#99));
ENDSEC;
END-ISO-10303-21;
`
	model, err := Parse([]byte(input))
	require.NoError(t, err)
	building, _ := model.Entity(1)

	_, err = model.FindRelated(building, RelAggregates)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDanglingReference)
	assert.Contains(t, err.Error(), "#99")
}

type fakeReader map[string][]byte

func (f fakeReader) Read(_ context.Context, location string) ([]byte, error) {
	data, ok := f[location]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	reader := fakeReader{
		"good.ifc": []byte("ISO-10303-21;\nHEADER;\nENDSEC;\nDATA;\nENDSEC;\nEND-ISO-10303-21;\n"),
		"bad.ifc":  []byte("not a step file"),
	}

	model, err := Open(ctx, reader, "good.ifc")
	require.NoError(t, err)
	assert.Equal(t, 0, model.Len())

	_, err = Open(ctx, reader, "bad.ifc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse bad.ifc")

	_, err = Open(ctx, reader, "missing.ifc")
	assert.Error(t, err)
}
