// Package doctor runs diagnostic checks against the config, the spot server,
// the display port and the radio backend.
package doctor

import (
	"fmt"
	"strings"
	"sync"
)

// CheckStatus is the outcome of one check.
type CheckStatus int

const (
	StatusPass CheckStatus = iota
	StatusWarn
	StatusFail
)

var statusNames = [...]string{StatusPass: "pass", StatusWarn: "warn", StatusFail: "fail"}

func (s CheckStatus) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// MarshalText renders the status by name in JSON output.
func (s CheckStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *CheckStatus) UnmarshalText(b []byte) error {
	for i, name := range statusNames {
		if name == string(b) {
			*s = CheckStatus(i)
			return nil
		}
	}
	return fmt.Errorf("unknown check status %q", b)
}

// Categories, in the order the suite emits them.
const (
	CategoryConfig  = "CONFIG"
	CategoryNetwork = "NETWORK"
	CategoryDisplay = "DISPLAY"
	CategoryRadio   = "RADIO"
)

// CheckResult is what a check reports.
type CheckResult struct {
	Name       string      `json:"name"`
	Status     CheckStatus `json:"status"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// Check is a single diagnostic.
type Check interface {
	Name() string
	Category() string
	Run() CheckResult
}

// RunAll runs checks one after another.
func RunAll(checks []Check) []CheckResult {
	results := make([]CheckResult, 0, len(checks))
	for _, c := range checks {
		results = append(results, c.Run())
	}
	return results
}

// RunAllParallel runs checks concurrently. Results keep the order of checks,
// so the network probes overlap without reshuffling the report.
func RunAllParallel(checks []Check) []CheckResult {
	results := make([]CheckResult, len(checks))
	var wg sync.WaitGroup
	for i := range checks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = checks[i].Run()
		}(i)
	}
	wg.Wait()
	return results
}

// CountByStatus tallies results per status.
func CountByStatus(results []CheckResult) map[CheckStatus]int {
	counts := make(map[CheckStatus]int, len(statusNames))
	for _, r := range results {
		counts[r.Status]++
	}
	return counts
}

func HasFailures(results []CheckResult) bool {
	return CountByStatus(results)[StatusFail] > 0
}

// HasIssues reports any warning or failure.
func HasIssues(results []CheckResult) bool {
	counts := CountByStatus(results)
	return counts[StatusFail]+counts[StatusWarn] > 0
}

// Summary is the one-line verdict printed under the report.
func Summary(results []CheckResult) string {
	counts := CountByStatus(results)
	var parts []string
	if n := counts[StatusFail]; n > 0 {
		parts = append(parts, plural(n, "failure"))
	}
	if n := counts[StatusWarn]; n > 0 {
		parts = append(parts, plural(n, "warning"))
	}
	if len(parts) == 0 {
		return "Everything looks good"
	}
	return strings.Join(parts, ", ")
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
