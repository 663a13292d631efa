package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/c360studio/citybridge/convert"
	"github.com/c360studio/citybridge/parity"
)

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// WriteConversionResult writes the report block for one converted file.
func WriteConversionResult(w io.Writer, r convert.Result) {
	fmt.Fprintf(w, "\nProcessing: %s\n", filepath.Base(r.InputPath))
	if r.Success {
		fmt.Fprintf(w, "✅ Success: %d buildings processed\n", r.BuildingsProcessed)
	} else {
		fmt.Fprintf(w, "❌ Failed: %d errors\n", len(r.Errors))
		writeItems(w, r.Errors)
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "⚠️  Warnings: %d\n", len(r.Warnings))
		writeItems(w, r.Warnings)
	}
}

// WriteConversionReport writes the operator report for a conversion run.
func WriteConversionReport(w io.Writer, s *convert.Summary) {
	fmt.Fprintf(w, "Found %d IFC files to process\n", len(s.Results))
	for _, r := range s.Results {
		WriteConversionResult(w, r)
	}

	fmt.Fprintf(w, "\n=== Conversion Summary ===\n")
	fmt.Fprintf(w, "Files processed: %d\n", len(s.Results))
	fmt.Fprintf(w, "Successful conversions: %d\n", s.Succeeded)
	fmt.Fprintf(w, "Total buildings processed: %d\n", s.TotalBuildings)
	fmt.Fprintf(w, "Output directory: %s\n", s.OutputDir)

	if s.AllSucceeded() {
		fmt.Fprintln(w, "✅ All conversions completed successfully")
	} else {
		fmt.Fprintf(w, "❌ %d conversions failed\n", s.Failed)
	}
}

// WriteValidationReport writes the operator report for a validation run.
func WriteValidationReport(w io.Writer, s *parity.Summary) {
	fmt.Fprintf(w, "Found %d IFC files to validate\n", len(s.Results))
	for _, r := range s.Results {
		fmt.Fprintf(w, "\nValidating: %s <-> %s\n", filepath.Base(r.IFCPath), filepath.Base(r.TargetPath))
		if r.MissingTarget {
			fmt.Fprintf(w, "❌ Missing CityGML file: %s\n", r.TargetPath)
			continue
		}
		if r.Passed() {
			fmt.Fprintln(w, "✅ Validation passed")
		} else {
			fmt.Fprintf(w, "❌ Validation failed: %d errors\n", len(r.Errors))
			writeItems(w, r.Errors)
		}
		if len(r.Warnings) > 0 {
			fmt.Fprintf(w, "⚠️  Warnings: %d\n", len(r.Warnings))
			writeItems(w, r.Warnings)
		}
		fmt.Fprintf(w, "  Buildings: IFC=%d, CityGML=%d\n", r.SourceBuildings, r.TargetBuildings)
		fmt.Fprintf(w, "  Storeys: IFC=%d, CityGML=%d\n", r.SourceStoreys, r.TargetStoreys)
	}

	fmt.Fprintf(w, "\n=== Validation Summary ===\n")
	fmt.Fprintf(w, "Files validated: %d\n", len(s.Results))
	fmt.Fprintf(w, "Successful validations: %d\n", s.Passed)
	fmt.Fprintf(w, "Total errors: %d\n", s.TotalErrors)

	if s.AllPassed() {
		fmt.Fprintln(w, "✅ All validations passed - semantic parity preserved")
	} else {
		fmt.Fprintf(w, "❌ %d validations failed\n", s.Failed)
	}
}

func writeItems(w io.Writer, items []string) {
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", strings.TrimSpace(item))
	}
}
