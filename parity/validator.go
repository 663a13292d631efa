// Package parity checks that CityGML output preserves the buildings,
// storeys and building names of its IFC source.
//
// Both files are re-read from storage and recounted independently of the
// conversion that produced them.
package parity

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/c360studio/citybridge/citygml"
	"github.com/c360studio/citybridge/ifc"
	"github.com/c360studio/citybridge/mapping"
	"github.com/c360studio/citybridge/storage"
)

// Validator compares one IFC file with its CityGML counterpart. It holds
// no per-call state.
type Validator struct {
	store  *storage.Store
	logger *slog.Logger
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithValidatorLogger sets the logger.
func WithValidatorLogger(logger *slog.Logger) ValidatorOption {
	return func(v *Validator) {
		v.logger = logger
	}
}

// NewValidator creates a Validator.
func NewValidator(store *storage.Store, opts ...ValidatorOption) *Validator {
	v := &Validator{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type sourceFacts struct {
	buildings int
	storeys   int
	names     []string
	warnings  []string
	errors    []string
}

type targetFacts struct {
	buildings int
	storeys   int
	names     []string
}

// Validate runs the three parity checks. The checks are independent: a
// count mismatch does not prevent the name comparison.
func (v *Validator) Validate(ctx context.Context, ifcPath, targetPath string) Result {
	result := newResult(ifcPath, targetPath)

	src, err := v.readSource(ctx, ifcPath)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Error reading IFC file %s: %v", ifcPath, err))
		return result
	}
	dst, err := v.readTarget(ctx, targetPath)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Error reading CityGML file %s: %v", targetPath, err))
		return result
	}

	result.SourceBuildings, result.TargetBuildings = src.buildings, dst.buildings
	result.SourceStoreys, result.TargetStoreys = src.storeys, dst.storeys
	result.Errors = append(result.Errors, src.errors...)
	result.Warnings = append(result.Warnings, src.warnings...)

	result.BuildingsParity = src.buildings == dst.buildings
	if !result.BuildingsParity {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Building count mismatch: IFC=%d, CityGML=%d", src.buildings, dst.buildings))
	}

	result.StoreysParity = src.storeys == dst.storeys
	if !result.StoreysParity {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Storeys count mismatch: IFC=%d, CityGML=%d", src.storeys, dst.storeys))
	}

	result.PropertiesParity = true
	if src.buildings > 0 && dst.buildings > 0 {
		result.MissingNames, result.ExtraNames = compareNames(src.names, dst.names)
		for _, name := range result.MissingNames {
			result.Errors = append(result.Errors, "building name missing in target: "+name)
		}
		for _, name := range result.ExtraNames {
			result.Errors = append(result.Errors, "unexpected building name in target: "+name)
		}
		result.PropertiesParity = len(result.MissingNames) == 0 && len(result.ExtraNames) == 0
	}

	if src.buildings == 0 {
		result.Warnings = append(result.Warnings, "no buildings found in IFC file")
	}
	if dst.buildings == 0 {
		result.Warnings = append(result.Warnings, "no buildings found in CityGML file")
	}
	if src.storeys == 0 && dst.storeys > 0 {
		result.Warnings = append(result.Warnings, "no storeys found in IFC file")
	}
	if dst.storeys == 0 && src.storeys > 0 {
		result.Warnings = append(result.Warnings, "no storeys found in CityGML file")
	}

	v.logger.Debug("Validated pair", "file", ifcPath, "target", targetPath,
		"buildings", src.buildings, "storeys", src.storeys, "passed", result.Passed())
	return result
}

func (v *Validator) readSource(ctx context.Context, location string) (sourceFacts, error) {
	model, err := ifc.Open(ctx, v.store, location)
	if err != nil {
		return sourceFacts{}, err
	}

	var facts sourceFacts
	buildings := model.ByType(ifc.TypeBuilding)
	facts.buildings = len(buildings)

	storeys := make(map[int]struct{})
	for idx, b := range buildings {
		var declared *string
		attrs, err := b.Attributes()
		if err != nil {
			facts.warnings = append(facts.warnings, fmt.Sprintf("building %d: %v", idx, err))
		} else {
			declared = attrs.Name
		}
		facts.names = append(facts.names, mapping.BuildingName(declared, idx))

		related, err := model.FindRelated(b, ifc.RelAggregates)
		if err != nil {
			facts.errors = append(facts.errors, fmt.Sprintf("Error reading IFC storeys %s: %v", location, err))
			continue
		}
		for _, e := range related {
			if e.Is(ifc.TypeBuildingStorey) {
				storeys[e.ID] = struct{}{}
			}
		}
	}
	facts.storeys = len(storeys)
	return facts, nil
}

func (v *Validator) readTarget(ctx context.Context, location string) (targetFacts, error) {
	data, err := v.store.Read(ctx, location)
	if err != nil {
		return targetFacts{}, err
	}
	doc, err := citygml.Read(data)
	if err != nil {
		return targetFacts{}, err
	}

	facts := targetFacts{
		buildings: len(doc.Buildings),
		storeys:   len(doc.StoreyNames),
	}
	for _, b := range doc.Buildings {
		facts.names = append(facts.names, b.Name)
	}
	return facts, nil
}

// compareNames returns the sorted names present only in source and only in
// target. Names are compared as sets.
func compareNames(source, target []string) (missing, extra []string) {
	inSource := toSet(source)
	inTarget := toSet(target)
	for name := range inSource {
		if _, ok := inTarget[name]; !ok {
			missing = append(missing, name)
		}
	}
	for name := range inTarget {
		if _, ok := inSource[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return missing, extra
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
