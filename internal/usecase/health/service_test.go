package health

import (
	"context"
	"errors"
	"testing"
)

type pinger struct{ err error }

func (p pinger) Ping(_ context.Context) error { return p.err }

type checker struct{ err error }

func (c checker) HealthCheck(_ context.Context) error { return c.err }

func TestCheckAllHealthy(t *testing.T) {
	svc := New(pinger{}, pinger{}, checker{})

	report := svc.Check(context.Background())

	if report.Status != Healthy {
		t.Errorf("Status = %q, want %q", report.Status, Healthy)
	}
	for name, result := range report.Checks {
		if result != CheckOK {
			t.Errorf("check %q = %q, want ok", name, result)
		}
	}
	if len(report.Checks) != 3 {
		t.Errorf("got %d checks, want 3", len(report.Checks))
	}
}

func TestCheckDatabaseDown(t *testing.T) {
	svc := New(pinger{err: errors.New("refused")}, pinger{}, checker{})

	report := svc.Check(context.Background())

	if report.Status != Degraded {
		t.Errorf("Status = %q, want %q", report.Status, Degraded)
	}
	if report.Checks["database"] != CheckError {
		t.Errorf("database check = %q", report.Checks["database"])
	}
	if report.Checks["history"] != CheckOK {
		t.Errorf("history check = %q", report.Checks["history"])
	}
}

func TestCheckProviderDown(t *testing.T) {
	svc := New(pinger{}, pinger{}, checker{err: errors.New("401")})

	report := svc.Check(context.Background())

	if report.Status != Degraded {
		t.Errorf("Status = %q, want %q", report.Status, Degraded)
	}
	if report.Checks["provider"] != CheckError {
		t.Errorf("provider check = %q", report.Checks["provider"])
	}
}

func TestCheckOptionalComponentsNil(t *testing.T) {
	svc := New(pinger{}, nil, nil)

	report := svc.Check(context.Background())

	if report.Status != Healthy {
		t.Errorf("Status = %q", report.Status)
	}
	if len(report.Checks) != 1 {
		t.Errorf("got %d checks, want database only", len(report.Checks))
	}
}
