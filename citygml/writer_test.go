package citygml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/citybridge/mapping"
)

func sampleRecord() mapping.Record {
	return mapping.Record{Buildings: []mapping.BuildingNode{
		{
			ID:          "b-0",
			Name:        "Tower A",
			StoreyNames: []string{"L1"},
			Attributes: []mapping.GenericAttribute{
				{Name: mapping.AttrStoreyElevation, Value: "3.5"},
				{Name: mapping.AttrDescription, Value: "Main & tall"},
			},
		},
		{ID: "b-1", Name: "Building_1"},
	}}
}

func TestMarshal(t *testing.T) {
	data, err := Marshal(sampleRecord())
	require.NoError(t, err)

	want := `<?xml version="1.0" encoding="UTF-8"?>
<CityModel xmlns="http://www.opengis.net/citygml/2.0" xmlns:gml="http://www.opengis.net/gml">
  <gml:boundedBy>
    <gml:Null reason="unknown">unknown</gml:Null>
  </gml:boundedBy>
  <cityObjectMember>
    <Building gml:id="b-0">
      <gml:name>Tower A</gml:name>
      <gml:name>Storey::L1</gml:name>
      <genericAttribute name="storey_elevation" value="3.5"/>
      <genericAttribute name="description" value="Main &amp; tall"/>
    </Building>
  </cityObjectMember>
  <cityObjectMember>
    <Building gml:id="b-1">
      <gml:name>Building_1</gml:name>
    </Building>
  </cityObjectMember>
</CityModel>`
	assert.Equal(t, want, strings.TrimSpace(string(data)))
}

func TestMarshal_Deterministic(t *testing.T) {
	first, err := Marshal(sampleRecord())
	require.NoError(t, err)
	second, err := Marshal(sampleRecord())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMarshal_Empty(t *testing.T) {
	data, err := Marshal(mapping.Record{})
	require.NoError(t, err)

	doc, err := Read(data)
	require.NoError(t, err)
	assert.Empty(t, doc.Buildings)
	assert.Empty(t, doc.StoreyNames)
	assert.Contains(t, string(data), `<gml:Null reason="unknown">unknown</gml:Null>`)
}
