package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional provider is failing; reads still work.
	Degraded Status = "degraded"
	// Unhealthy indicates the database is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

const defaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db       DBPinger
	names    []string
	checkers map[string]Checker
	timeout  time.Duration
}

// New creates a Service with the mandatory database check.
func New(db DBPinger) *Service {
	return &Service{
		db:       db,
		checkers: make(map[string]Checker),
		timeout:  defaultCheckTimeout,
	}
}

// WithChecker registers an optional component. A nil checker is ignored.
func (s *Service) WithChecker(name string, c Checker) *Service {
	if c == nil {
		return s
	}
	if _, ok := s.checkers[name]; !ok {
		s.names = append(s.names, name)
	}
	s.checkers[name] = c
	return s
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.names)+1)

	status := Healthy
	if err := s.run(ctx, s.db.Ping); err != nil {
		checks["database"] = CheckError
		status = Unhealthy
	} else {
		checks["database"] = CheckOK
	}

	for _, name := range s.names {
		if err := s.run(ctx, s.checkers[name].HealthCheck); err != nil {
			checks[name] = CheckError
			if status == Healthy {
				status = Degraded
			}
			continue
		}
		checks[name] = CheckOK
	}

	return Report{Status: status, Checks: checks}
}

func (s *Service) run(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return fn(ctx)
}
