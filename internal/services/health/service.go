package health

import (
	"context"
	"time"
)

const defaultTimeout = 2 * time.Second

// Check pings one dependency. A nil error means healthy.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Report is the outcome of running every check.
type Report struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Service encapsulates health-related checks.
type Service struct {
	checks  []Check
	timeout time.Duration
}

// NewService constructs a new health service.
func NewService(checks ...Check) *Service {
	return &Service{checks: checks, timeout: defaultTimeout}
}

// Status runs every check under a shared deadline.
func (s *Service) Status(ctx context.Context) Report {
	report := Report{OK: true}
	if s == nil || len(s.checks) == 0 {
		return report
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	report.Checks = make(map[string]string, len(s.checks))
	for _, c := range s.checks {
		if err := c.Ping(ctx); err != nil {
			report.OK = false
			report.Checks[c.Name] = err.Error()
			continue
		}
		report.Checks[c.Name] = "ok"
	}
	return report
}
