package mapping

import (
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/citybridge/ifc"
)

func parseStep(t *testing.T, data ...string) *ifc.Model {
	t.Helper()
	src := "ISO-10303-21;\nHEADER;\nFILE_SCHEMA(('IFC4'));\nENDSEC;\nDATA;\n" +
		strings.Join(data, "\n") + "\nENDSEC;\nEND-ISO-10303-21;\n"
	model, err := ifc.Parse([]byte(src))
	require.NoError(t, err)
	return model
}

func loadCampus(t *testing.T) *ifc.Model {
	t.Helper()
	data, err := os.ReadFile("../ifc/testdata/campus.ifc")
	require.NoError(t, err)
	model, err := ifc.Parse(data)
	require.NoError(t, err)
	return model
}

func TestMapper_Campus(t *testing.T) {
	result := NewMapper(Options{}, nil).Map(loadCampus(t))

	assert.False(t, result.HasErrors())
	assert.Equal(t, 2, result.BuildingsProcessed)
	require.Len(t, result.Record.Buildings, 2)

	tower := result.Record.Buildings[0]
	assert.Equal(t, "b-0", tower.ID)
	assert.Equal(t, "Tower A", tower.Name)
	assert.Equal(t, []string{"L1", "L2"}, tower.StoreyNames)
	assert.Equal(t, []GenericAttribute{
		{Name: AttrStoreyElevation, Value: "3.5"},
		{Name: AttrStoreyElevation, Value: "7.0"},
		{Name: AttrDescription, Value: "Main tower"},
		{Name: AttrObjectType, Value: "Office"},
		{Name: AttrClassification, Value: "Office buildings"},
	}, tower.Attributes)

	annex := result.Record.Buildings[1]
	assert.Equal(t, "b-1", annex.ID)
	assert.Equal(t, "Building_1", annex.Name)
	assert.Equal(t, []string{"Storey_22"}, annex.StoreyNames)
	assert.Equal(t, []GenericAttribute{{Name: AttrStoreyElevation, Value: "0.0"}}, annex.Attributes)

	require.Len(t, result.Buildings, 2)
	assert.Equal(t, "2FCZDorxHDT8NI01kdXi8P", result.Buildings[0].GlobalID)
	assert.Equal(t, "Ground floor", *result.Buildings[0].Storeys[0].Description)
}

func TestMapper_IncludeGlobalID(t *testing.T) {
	result := NewMapper(Options{IncludeGlobalID: true}, nil).Map(loadCampus(t))
	require.Len(t, result.Record.Buildings, 2)

	names := make([]string, 0)
	for _, a := range result.Record.Buildings[0].Attributes {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{
		AttrStoreyElevation, AttrStoreyElevation,
		AttrDescription, AttrGlobalID, AttrObjectType, AttrClassification,
	}, names)
}

func TestMapper_BuildingIDs(t *testing.T) {
	model := parseStep(t,
		"#1=IFCBUILDING('a',$,'A',$,$,$,$,$,.ELEMENT.,$,$,$);",
		"#2=IFCBUILDING('b',$,'B',$,$,$,$,$,.ELEMENT.,$,$,$);",
		"#3=IFCBUILDING('c',$,'C',$,$,$,$,$,.ELEMENT.,$,$,$);",
	)
	result := NewMapper(Options{}, nil).Map(model)

	var got []string
	for _, b := range result.Record.Buildings {
		got = append(got, b.ID)
	}
	assert.Equal(t, []string{"b-0", "b-1", "b-2"}, got)
	assert.Len(t, result.Warnings, 3)
}

func TestMapper_NameDefaulting(t *testing.T) {
	model := parseStep(t,
		"#1=IFCBUILDING('a',$,'Tower A',$,$,$,$,$,.ELEMENT.,$,$,$);",
		"#2=IFCBUILDING('b',$,'',$,$,$,$,$,.ELEMENT.,$,$,$);",
	)
	result := NewMapper(Options{}, nil).Map(model)

	require.Len(t, result.Record.Buildings, 2)
	assert.Equal(t, "Tower A", result.Record.Buildings[0].Name)
	assert.Equal(t, "Building_1", result.Record.Buildings[1].Name)
}

func TestMapper_Storeys(t *testing.T) {
	model := parseStep(t,
		"#1=IFCBUILDING('a',$,'Tower',$,$,$,$,$,.ELEMENT.,$,$,$);",
		"#2=IFCBUILDINGSTOREY('s',$,'L1',$,$,$,$,$,.ELEMENT.,3.5);",
		"#3=IFCRELAGGREGATES('r',$,$,$,#1,(#2));",
	)
	result := NewMapper(Options{}, nil).Map(model)

	require.Len(t, result.Record.Buildings, 1)
	b := result.Record.Buildings[0]
	assert.Equal(t, []string{"L1"}, b.StoreyNames)
	assert.Equal(t, []GenericAttribute{{Name: AttrStoreyElevation, Value: "3.5"}}, b.Attributes)
	assert.Empty(t, result.Warnings)
}

func TestMapper_StoreyOrder(t *testing.T) {
	model := parseStep(t,
		"#1=IFCBUILDING('a',$,'Tower',$,$,$,$,$,.ELEMENT.,$,$,$);",
		"#2=IFCBUILDINGSTOREY('s2',$,'Roof',$,$,$,$,$,.ELEMENT.,9.);",
		"#3=IFCBUILDINGSTOREY('s1',$,'Basement',$,$,$,$,$,.ELEMENT.,-3.);",
		"#4=IFCBUILDINGSTOREY('s3',$,'Basement',$,$,$,$,$,.ELEMENT.,-6.);",
		"#5=IFCRELAGGREGATES('r',$,$,$,#1,(#2,#4,#3));",
	)

	tests := []struct {
		name       string
		order      StoreyOrder
		storeys    []string
		elevations []string
	}{
		{"source", StoreyOrderSource, []string{"Roof", "Basement", "Basement"}, []string{"9.0", "-6.0", "-3.0"}},
		{"name", StoreyOrderName, []string{"Basement", "Basement", "Roof"}, []string{"-3.0", "-6.0", "9.0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewMapper(Options{StoreyOrder: tt.order}, nil).Map(model)
			require.Len(t, result.Record.Buildings, 1)
			b := result.Record.Buildings[0]
			assert.Equal(t, tt.storeys, b.StoreyNames)

			var elevations []string
			for _, a := range b.Attributes {
				elevations = append(elevations, a.Value)
			}
			assert.Equal(t, tt.elevations, elevations)
		})
	}
}

func TestMapper_NoBuildings(t *testing.T) {
	t.Run("empty model", func(t *testing.T) {
		result := NewMapper(Options{}, nil).Map(parseStep(t))
		assert.Empty(t, result.Record.Buildings)
		assert.Zero(t, result.BuildingsProcessed)
		assert.False(t, result.HasErrors())
		assert.Equal(t, []string{"no IfcBuilding entities found"}, result.Warnings)
	})

	t.Run("orphan storeys", func(t *testing.T) {
		model := parseStep(t,
			"#1=IFCBUILDINGSTOREY('s1',$,'L1',$,$,$,$,$,.ELEMENT.,0.);",
			"#2=IFCBUILDINGSTOREY('s2',$,'L2',$,$,$,$,$,.ELEMENT.,3.);",
		)
		result := NewMapper(Options{}, nil).Map(model)
		assert.Empty(t, result.Record.Buildings)
		assert.Equal(t, []string{
			"no IfcBuilding entities found",
			"found 2 building storeys without building entity",
		}, result.Warnings)
	})
}

func TestMapper_BuildingWithoutStoreys(t *testing.T) {
	model := parseStep(t, "#1=IFCBUILDING('a',$,'Shed',$,$,$,$,$,.ELEMENT.,$,$,$);")
	result := NewMapper(Options{}, nil).Map(model)

	assert.Equal(t, []string{"building 0 (Shed) has no storeys"}, result.Warnings)
	require.Len(t, result.Record.Buildings, 1)
	assert.Empty(t, result.Record.Buildings[0].StoreyNames)
}

func TestMapper_BuildingFailureIsIsolated(t *testing.T) {
	model := parseStep(t,
		"#1=IFCBUILDING('a',$,42,$,$,$,$,$,.ELEMENT.,$,$,$);",
		"#2=IFCBUILDING('b',$,'Good',$,$,$,$,$,.ELEMENT.,$,$,$);",
		"#3=IFCBUILDINGSTOREY('s',$,'L1',$,$,$,$,$,.ELEMENT.,1.);",
		"#4=IFCRELAGGREGATES('r',$,$,$,#2,(#3));",
	)
	result := NewMapper(Options{}, nil).Map(model)

	require.True(t, result.HasErrors())
	require.Len(t, result.Errors, 1)
	assert.True(t, strings.HasPrefix(result.Errors[0], "error processing building 0: "))
	assert.Equal(t, 1, result.BuildingsProcessed)
	require.Len(t, result.Record.Buildings, 1)
	assert.Equal(t, "b-1", result.Record.Buildings[0].ID)
	assert.Equal(t, "Good", result.Record.Buildings[0].Name)
}

func TestMapper_TextNotAllowedInXML(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
		want    string
	}{
		{
			name:    "control character in building name",
			entries: []string{`#1=IFCBUILDING('a',$,'A\X\01B',$,$,$,$,$,.ELEMENT.,$,$,$);`},
			want:    `name "A\x01B" contains character U+0001 not allowed in XML`,
		},
		{
			name: "control character in storey name",
			entries: []string{
				"#1=IFCBUILDING('a',$,'Tower',$,$,$,$,$,.ELEMENT.,$,$,$);",
				`#2=IFCBUILDINGSTOREY('s',$,'L\X\1F',$,$,$,$,$,.ELEMENT.,1.);`,
				"#3=IFCRELAGGREGATES('r',$,$,$,#1,(#2));",
			},
			want: "storey name",
		},
		{
			name:    "control character in description",
			entries: []string{`#1=IFCBUILDING('a',$,'Tower','x\X\07',$,$,$,$,.ELEMENT.,$,$,$);`},
			want:    AttrDescription,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewMapper(Options{}, nil).Map(parseStep(t, tt.entries...))

			require.Len(t, result.Errors, 1)
			assert.Contains(t, result.Errors[0], "error processing building 0: ")
			assert.Contains(t, result.Errors[0], tt.want)
			assert.Empty(t, result.Record.Buildings)
		})
	}
}

func TestMapper_Latin1Names(t *testing.T) {
	model := parseStep(t,
		"#1=IFCBUILDING('a',$,'Caf\xe9',$,$,$,$,$,.ELEMENT.,$,$,$);",
		`#2=IFCBUILDINGSTOREY('s',$,'\S\Ttage',$,$,$,$,$,.ELEMENT.,1.);`,
		"#3=IFCRELAGGREGATES('r',$,$,$,#1,(#2));",
	)
	result := NewMapper(Options{}, nil).Map(model)

	require.False(t, result.HasErrors(), "errors: %v", result.Errors)
	require.Len(t, result.Record.Buildings, 1)
	assert.Equal(t, "Café", result.Record.Buildings[0].Name)
	assert.Equal(t, []string{"Ôtage"}, result.Record.Buildings[0].StoreyNames)
}

func TestMapper_DanglingStoreyReference(t *testing.T) {
	model := parseStep(t,
		"#1=IFCBUILDING('a',$,'Tower',$,$,$,$,$,.ELEMENT.,$,$,$);",
		"#2=IFCRELAGGREGATES('r',$,$,$,#1,(#99));",
	)
	result := NewMapper(Options{}, nil).Map(model)

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "error processing building 0: resolve storeys")
	assert.Empty(t, result.Record.Buildings)
}

func TestMapper_Classification(t *testing.T) {
	t.Run("unnamed classification", func(t *testing.T) {
		model := parseStep(t,
			"#1=IFCBUILDING('a',$,'Tower',$,$,$,$,$,.ELEMENT.,$,$,$);",
			"#2=IFCCLASSIFICATIONREFERENCE($,'X',$,$);",
			"#3=IFCRELASSOCIATESCLASSIFICATION('r',$,$,$,(#1),#2);",
		)
		result := NewMapper(Options{}, nil).Map(model)
		require.Len(t, result.Record.Buildings, 1)
		attrs := result.Record.Buildings[0].Attributes
		assert.Equal(t, GenericAttribute{Name: AttrClassification, Value: UnknownClassification}, attrs[len(attrs)-1])
		assert.Contains(t, strings.Join(result.Warnings, "\n"), "has no name")
	})

	t.Run("classification system", func(t *testing.T) {
		model := parseStep(t,
			"#1=IFCBUILDING('a',$,'Tower',$,$,$,$,$,.ELEMENT.,$,$,$);",
			"#2=IFCCLASSIFICATION('CSI','2004',$,'Uniclass');",
			"#3=IFCRELASSOCIATESCLASSIFICATION('r',$,$,$,(#1),#2);",
		)
		result := NewMapper(Options{}, nil).Map(model)
		require.Len(t, result.Record.Buildings, 1)
		attrs := result.Record.Buildings[0].Attributes
		assert.Equal(t, GenericAttribute{Name: AttrClassification, Value: "Uniclass"}, attrs[len(attrs)-1])
	})
}

func TestMapper_ConcurrentUse(t *testing.T) {
	model := loadCampus(t)
	mapper := NewMapper(Options{}, nil)
	want := mapper.Map(model)

	var wg sync.WaitGroup
	results := make([]*Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = mapper.Map(model)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, want, r)
	}
}
