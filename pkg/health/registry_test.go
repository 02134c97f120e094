package health

import (
	"context"
	"errors"
	"testing"
)

type stubChecker struct {
	name   string
	status Status
}

func (s stubChecker) Check(context.Context) CheckResult {
	return CheckResult{Name: s.name, Status: s.status}
}

func (s stubChecker) Name() string { return s.name }

type maintenanceFlag bool

func (m maintenanceFlag) MaintenanceEnabled(context.Context) bool { return bool(m) }

type fixedLen int

func (n fixedLen) Len() int { return int(n) }

func TestRegistry_Aggregation(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{name: "empty registry is healthy", want: StatusHealthy},
		{name: "all healthy", statuses: []Status{StatusHealthy, StatusHealthy}, want: StatusHealthy},
		{name: "degraded wins over healthy", statuses: []Status{StatusHealthy, StatusDegraded}, want: StatusDegraded},
		{name: "unhealthy wins over degraded", statuses: []Status{StatusDegraded, StatusUnhealthy, StatusHealthy}, want: StatusUnhealthy},
		{name: "missing status counts as unhealthy", statuses: []Status{""}, want: StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			for i, s := range tt.statuses {
				r.Register(stubChecker{name: string(rune('a' + i)), status: s})
			}
			res := r.Check(context.Background())
			if res.Status != tt.want {
				t.Fatalf("Check().Status = %s, want %s", res.Status, tt.want)
			}
			if len(res.Checks) != len(tt.statuses) {
				t.Fatalf("got %d results, want %d", len(res.Checks), len(tt.statuses))
			}
		})
	}
}

func TestRegistry_ResultsSortedByName(t *testing.T) {
	r := NewRegistry()
	r.Register(stubChecker{name: "zeta", status: StatusHealthy})
	r.Register(stubChecker{name: "alpha", status: StatusHealthy})
	r.RegisterFunc("mid", func(context.Context) CheckResult { return CheckResult{Status: StatusHealthy} })

	res := r.Check(context.Background())
	got := []string{res.Checks[0].Name, res.Checks[1].Name, res.Checks[2].Name}
	want := []string{"alpha", "mid", "zeta"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
	if names := r.List(); len(names) != 3 || names[0] != "alpha" {
		t.Fatalf("List() = %v", names)
	}
}

func TestRegistry_ReplaceAndUnregister(t *testing.T) {
	r := NewRegistry()
	r.Register(stubChecker{name: "db", status: StatusUnhealthy})
	r.Register(stubChecker{name: "db", status: StatusHealthy})
	if res := r.Check(context.Background()); res.Status != StatusHealthy || len(res.Checks) != 1 {
		t.Fatalf("replacement not applied: %+v", res)
	}

	r.Unregister("db")
	if _, err := r.CheckOne(context.Background(), "db"); err == nil {
		t.Fatal("expected error for unregistered check")
	}
}

func TestAggregatedResult_IsServing(t *testing.T) {
	if !(AggregatedResult{Status: StatusDegraded}).IsServing() {
		t.Fatal("degraded should still serve")
	}
	if (AggregatedResult{Status: StatusUnhealthy}).IsServing() {
		t.Fatal("unhealthy should not serve")
	}
	if (AggregatedResult{Status: StatusDegraded}).IsHealthy() {
		t.Fatal("degraded is not healthy")
	}
}

func TestMaintenanceChecker(t *testing.T) {
	on := NewMaintenanceChecker(maintenanceFlag(true)).Check(context.Background())
	if on.Status != StatusDegraded {
		t.Fatalf("maintenance on = %s, want degraded", on.Status)
	}
	off := NewMaintenanceChecker(maintenanceFlag(false)).Check(context.Background())
	if off.Status != StatusHealthy {
		t.Fatalf("maintenance off = %s, want healthy", off.Status)
	}
}

func TestCollectionChecker(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		require bool
		want    Status
	}{
		{name: "seeded", size: 4, require: true, want: StatusHealthy},
		{name: "empty but required", size: 0, require: true, want: StatusDegraded},
		{name: "empty and optional", size: 0, require: false, want: StatusHealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCollectionChecker("plans", fixedLen(tt.size), tt.require)
			res := c.Check(context.Background())
			if res.Status != tt.want {
				t.Fatalf("status = %s, want %s", res.Status, tt.want)
			}
			if res.Name != "store.plans" || res.Metadata["records"] != tt.size {
				t.Fatalf("result = %+v", res)
			}
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if res := NewCollectionChecker("plans", fixedLen(1), true).Check(ctx); res.Status != StatusUnhealthy {
		t.Fatalf("cancelled check = %s, want unhealthy", res.Status)
	}
}

func TestCustomChecker(t *testing.T) {
	c := NewCustomChecker("backend", func(context.Context) (Status, string, error) {
		return StatusUnhealthy, "down", errors.New("connection refused")
	})
	res := c.Check(context.Background())
	if res.Status != StatusUnhealthy || res.Error != "connection refused" || res.Message != "down" {
		t.Fatalf("result = %+v", res)
	}
	if NewPingChecker("ping").Check(context.Background()).Status != StatusHealthy {
		t.Fatal("ping should be healthy")
	}
}
