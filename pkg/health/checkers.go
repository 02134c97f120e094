package health

import (
	"context"
	"fmt"
	"time"
)

// PingChecker always reports healthy. It backs the liveness probe.
type PingChecker struct {
	name string
}

// NewPingChecker creates a new ping checker
func NewPingChecker(name string) *PingChecker {
	return &PingChecker{name: name}
}

// Check always returns healthy status
func (c *PingChecker) Check(context.Context) CheckResult {
	return CheckResult{
		Name:      c.name,
		Status:    StatusHealthy,
		Message:   "service is alive",
		Timestamp: time.Now(),
	}
}

// Name returns the name of the health check
func (c *PingChecker) Name() string {
	return c.name
}

// MaintenanceSource reports whether maintenance mode is on.
type MaintenanceSource interface {
	MaintenanceEnabled(ctx context.Context) bool
}

// MaintenanceChecker reports degraded while maintenance mode is on, since
// reads are still served but mutations are refused.
type MaintenanceChecker struct {
	source MaintenanceSource
}

// NewMaintenanceChecker creates a checker over source.
func NewMaintenanceChecker(source MaintenanceSource) *MaintenanceChecker {
	return &MaintenanceChecker{source: source}
}

// Name returns the name of the health check
func (c *MaintenanceChecker) Name() string {
	return "maintenance"
}

// Check reports degraded while maintenance mode is on.
func (c *MaintenanceChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: c.Name(), Timestamp: time.Now()}
	if c.source.MaintenanceEnabled(ctx) {
		res.Status = StatusDegraded
		res.Message = "maintenance mode is on, mutations are rejected"
		return res
	}
	res.Status = StatusHealthy
	res.Message = "OK"
	return res
}

// Counter is a collection that reports how many records it holds.
type Counter interface {
	Len() int
}

// CollectionChecker reports the size of a record collection. An empty
// collection is degraded when the collection is expected to be seeded.
type CollectionChecker struct {
	name          string
	collection    Counter
	requireRecord bool
}

// NewCollectionChecker creates a checker named "store.<name>".
func NewCollectionChecker(name string, collection Counter, requireRecord bool) *CollectionChecker {
	return &CollectionChecker{
		name:          "store." + name,
		collection:    collection,
		requireRecord: requireRecord,
	}
}

// Name returns the name of the health check
func (c *CollectionChecker) Name() string {
	return c.name
}

// Check reports the record count.
func (c *CollectionChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: c.name, Timestamp: time.Now()}
	if err := ctx.Err(); err != nil {
		res.Status = StatusUnhealthy
		res.Error = err.Error()
		return res
	}
	n := c.collection.Len()
	res.Metadata = map[string]any{"records": n}
	if n == 0 && c.requireRecord {
		res.Status = StatusDegraded
		res.Message = "collection is empty"
		return res
	}
	res.Status = StatusHealthy
	res.Message = fmt.Sprintf("%d records", n)
	return res
}

// CustomChecker turns a function into a named check.
type CustomChecker struct {
	name string
	fn   func(ctx context.Context) (Status, string, error)
}

// NewCustomChecker creates a checker from fn, which returns the status, a
// message and an optional error.
func NewCustomChecker(name string, fn func(ctx context.Context) (Status, string, error)) *CustomChecker {
	return &CustomChecker{name: name, fn: fn}
}

// Check executes the custom check function
func (c *CustomChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	status, message, err := c.fn(ctx)
	res := CheckResult{
		Name:      c.name,
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
		Duration:  time.Since(start),
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

// Name returns the name of the health check
func (c *CustomChecker) Name() string {
	return c.name
}
