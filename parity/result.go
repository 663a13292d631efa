package parity

import "time"

// Result is the parity verdict for one source/target pair. It is built once
// by Validate or Runner.Run and not modified afterwards.
type Result struct {
	IFCPath          string   `json:"ifc_path"`
	TargetPath       string   `json:"target_path"`
	BuildingsParity  bool     `json:"buildings_parity"`
	StoreysParity    bool     `json:"storeys_parity"`
	PropertiesParity bool     `json:"properties_parity"`
	SourceBuildings  int      `json:"source_buildings"`
	TargetBuildings  int      `json:"target_buildings"`
	SourceStoreys    int      `json:"source_storeys"`
	TargetStoreys    int      `json:"target_storeys"`
	MissingNames     []string `json:"missing_names,omitempty"`
	ExtraNames       []string `json:"extra_names,omitempty"`
	MissingTarget    bool     `json:"missing_target"`
	Errors           []string `json:"errors"`
	Warnings         []string `json:"warnings"`
}

// newResult returns a Result for the pair whose diagnostic lists are empty
// rather than nil, so they encode as JSON arrays.
func newResult(ifcPath, targetPath string) Result {
	return Result{IFCPath: ifcPath, TargetPath: targetPath, Errors: []string{}, Warnings: []string{}}
}

// Passed reports whether every parity check held and no error was recorded.
func (r Result) Passed() bool {
	return r.BuildingsParity && r.StoreysParity && r.PropertiesParity && len(r.Errors) == 0
}

// Summary aggregates the results of one validation run.
type Summary struct {
	RunID       string        `json:"run_id"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration_ns"`
	Results     []Result      `json:"results"`
	Passed      int           `json:"passed"`
	Failed      int           `json:"failed"`
	Missing     int           `json:"missing_targets"`
	TotalErrors int           `json:"total_errors"`
}

func (s *Summary) add(r Result) {
	s.Results = append(s.Results, r)
	s.TotalErrors += len(r.Errors)
	switch {
	case r.Passed():
		s.Passed++
	default:
		s.Failed++
		if r.MissingTarget {
			s.Missing++
		}
	}
}

// AllPassed reports whether every pair passed.
func (s *Summary) AllPassed() bool {
	return s.Failed == 0
}

// ExitCode returns 0 when every pair passed and 1 otherwise.
func (s *Summary) ExitCode() int {
	if s.AllPassed() {
		return 0
	}
	return 1
}
