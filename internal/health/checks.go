package health

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DependencyCheck is a named probe against an external dependency.
type DependencyCheck struct {
	name     string
	checkFn  func(ctx context.Context) error
	critical bool
	timeout  time.Duration
}

// DependencyCheckOption configures a DependencyCheck.
type DependencyCheckOption func(*DependencyCheck)

// WithCritical marks the dependency as critical. A failing non-critical
// dependency degrades readiness without failing it.
func WithCritical(critical bool) DependencyCheckOption {
	return func(d *DependencyCheck) {
		d.critical = critical
	}
}

// WithCheckTimeout overrides DefaultCheckTimeout.
func WithCheckTimeout(timeout time.Duration) DependencyCheckOption {
	return func(d *DependencyCheck) {
		d.timeout = timeout
	}
}

// NewDependencyCheck creates a critical dependency check.
func NewDependencyCheck(
	name string,
	checkFn func(ctx context.Context) error,
	opts ...DependencyCheckOption,
) *DependencyCheck {
	d := &DependencyCheck{
		name:     name,
		checkFn:  checkFn,
		critical: true,
		timeout:  DefaultCheckTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the name of the dependency check.
func (d *DependencyCheck) Name() string {
	return d.name
}

// IsCritical returns true if the dependency is critical.
func (d *DependencyCheck) IsCritical() bool {
	return d.critical
}

// Check runs the probe under the check timeout.
func (d *DependencyCheck) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	err := d.checkFn(ctx)
	GetHealthMetrics().setStatus(d.name, err == nil)
	return err
}

// Pinger is implemented by clients that can verify connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck checks a dependency through its Ping method.
func PingCheck(name string, p Pinger, opts ...DependencyCheckOption) *DependencyCheck {
	return NewDependencyCheck(name, func(ctx context.Context) error {
		if p == nil {
			return errors.New("client is nil")
		}
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("%s ping failed: %w", name, err)
		}
		return nil
	}, opts...)
}
