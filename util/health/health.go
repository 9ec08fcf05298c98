// Package health aggregates per-dependency probes into a single readiness
// or liveness verdict for the HTTP health endpoints.
package health

import (
	"context"
	"encoding/json"
	"net/http"
)

// Check pairs a dependency name with its probe. The probe receives the
// liveness flag: liveness probes must not fan out to other services, so a
// crash-looping dependency cannot take the whole process down with it.
type Check struct {
	Name  string
	Check func(context.Context, bool) (int, string, error)
}

type dependencyStatus struct {
	Resource string `json:"resource"`
	Status   int    `json:"status"`
	Error    string `json:"error,omitempty"`
	Message  string `json:"message,omitempty"`
}

type healthReport struct {
	Status       int                `json:"status"`
	Dependencies []dependencyStatus `json:"dependencies"`
}

// CheckAll runs every check and reduces them to a single HTTP status plus a
// JSON report. Any non-OK dependency makes the whole verdict 503; the report
// still lists every dependency so the failing one can be identified.
func CheckAll(ctx context.Context, checkLiveness bool, checks []Check) (int, string, error) {
	report := healthReport{
		Status:       http.StatusOK,
		Dependencies: make([]dependencyStatus, 0, len(checks)),
	}

	for _, check := range checks {
		status, message, err := check.Check(ctx, checkLiveness)
		if err != nil || status != http.StatusOK {
			report.Status = http.StatusServiceUnavailable
		}

		dep := dependencyStatus{
			Resource: check.Name,
			Status:   status,
			Message:  message,
		}
		if err != nil {
			dep.Error = err.Error()
		}

		report.Dependencies = append(report.Dependencies, dep)
	}

	body, err := json.Marshal(report)
	if err != nil {
		return http.StatusInternalServerError, "", err
	}

	return report.Status, string(body), nil
}
