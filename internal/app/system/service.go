package system

import "context"

// Service represents a lifecycle-managed component. All application modules
// must implement this interface so the system manager can start and stop them
// deterministically.
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// NoopService satisfies Service without doing anything. It lets a component
// appear in the lifecycle order before it has background work.
type NoopService struct {
	ServiceName string
}

// Name returns the configured name.
func (s NoopService) Name() string {
	return s.ServiceName
}

// Start does nothing.
func (NoopService) Start(context.Context) error {
	return nil
}

// Stop does nothing.
func (NoopService) Stop(context.Context) error {
	return nil
}
