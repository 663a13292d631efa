package mapping

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// BuildingName returns the declared name, or "Building_{idx}" when it is
// nil or empty.
func BuildingName(declared *string, idx int) string {
	if declared != nil && *declared != "" {
		return *declared
	}
	return "Building_" + strconv.Itoa(idx)
}

// StoreyName returns the declared name, or "Storey_{id}" using the source
// entity id when it is nil or empty.
func StoreyName(declared *string, entityID int) string {
	if declared != nil && *declared != "" {
		return *declared
	}
	return "Storey_" + strconv.Itoa(entityID)
}

// BuildingID returns the file-scoped target identifier for a building.
func BuildingID(idx int) string {
	return "b-" + strconv.Itoa(idx)
}

// FormatElevation renders an elevation as its shortest decimal form,
// keeping a ".0" suffix on integral values: 3.5 -> "3.5", 3 -> "3.0".
func FormatElevation(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// checkText returns an error when value holds a character that XML 1.0
// cannot carry, or bytes that are not UTF-8.
func checkText(field, value string) error {
	for i := 0; i < len(value); {
		r, size := utf8.DecodeRuneInString(value[i:])
		if r == utf8.RuneError && size == 1 {
			return fmt.Errorf("%s %q is not valid UTF-8", field, value)
		}
		if !xmlChar(r) {
			return fmt.Errorf("%s %q contains character %U not allowed in XML", field, value, r)
		}
		i += size
	}
	return nil
}

func xmlChar(r rune) bool {
	return r == '\t' || r == '\n' || r == '\r' ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= utf8.MaxRune
}
