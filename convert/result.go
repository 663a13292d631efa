package convert

import (
	"time"
)

// Result is the outcome of converting one input file. It is built once by
// ConvertFile and not modified afterwards.
type Result struct {
	Success            bool          `json:"success"`
	InputPath          string        `json:"input_path"`
	OutputPath         string        `json:"output_path,omitempty"`
	BuildingsProcessed int           `json:"buildings_processed"`
	Errors             []string      `json:"errors"`
	Warnings           []string      `json:"warnings"`
	Duration           time.Duration `json:"duration_ns"`
}

// newResult returns a Result for inputPath whose diagnostic lists are
// empty rather than nil, so they encode as JSON arrays.
func newResult(inputPath string) Result {
	return Result{InputPath: inputPath, Errors: []string{}, Warnings: []string{}}
}

// Summary aggregates the results of one batch run.
type Summary struct {
	RunID          string        `json:"run_id"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration_ns"`
	OutputDir      string        `json:"output_dir"`
	Results        []Result      `json:"results"`
	Succeeded      int           `json:"succeeded"`
	Failed         int           `json:"failed"`
	TotalBuildings int           `json:"total_buildings"`
}

// add folds r into the summary counters.
func (s *Summary) add(r Result) {
	s.Results = append(s.Results, r)
	s.TotalBuildings += r.BuildingsProcessed
	if r.Success {
		s.Succeeded++
	} else {
		s.Failed++
	}
}

// AllSucceeded reports whether every file converted without errors.
func (s *Summary) AllSucceeded() bool {
	return s.Failed == 0
}

// ExitCode returns 0 when every file succeeded and 1 otherwise.
func (s *Summary) ExitCode() int {
	if s.AllSucceeded() {
		return 0
	}
	return 1
}
