package mocks

import (
	"context"

	"github.com/phrazzld/pgfixture/internal/migrate"
)

// MockUpgrader is a mock implementation of schema.Upgrader.
type MockUpgrader struct {
	Log       *CallLog
	UpgradeFn func(ctx context.Context, target migrate.Target) error
}

// Upgrade records "upgrade <target>".
func (m *MockUpgrader) Upgrade(ctx context.Context, target migrate.Target) error {
	m.Log.Add("upgrade " + target.String())
	if m.UpgradeFn != nil {
		return m.UpgradeFn(ctx, target)
	}
	return nil
}
