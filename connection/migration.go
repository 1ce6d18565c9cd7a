package connection

import (
	"context"
	"fmt"

	"github.com/satishbabariya/relorm/internal/debug"
)

// MigrationTagPrefix prefixes the tag marking an applied migration.
const MigrationTagPrefix = "migration:"

// Migration is a reversible schema or data change.
type Migration interface {
	Identifier() string
	Up(ctx context.Context, c *Connection) error
	Down(ctx context.Context, c *Connection) error
}

// MigrationTag returns the tag marking m as applied.
func MigrationTag(m Migration) string {
	return MigrationTagPrefix + m.Identifier()
}

// Contains reports whether m has been applied.
func (c *Connection) Contains(ctx context.Context, m Migration) (bool, error) {
	return c.tags.Contains(ctx, MigrationTag(m))
}

// Apply runs m.Up and tags m as applied. An applied migration is skipped.
func (c *Connection) Apply(ctx context.Context, m Migration) error {
	applied, err := c.Contains(ctx, m)
	if err != nil {
		return err
	}
	if applied {
		debug.Debug("migration already applied", "migration", m.Identifier())
		return nil
	}

	if err := m.Up(ctx, c); err != nil {
		return fmt.Errorf("migration %s up: %w", m.Identifier(), err)
	}
	return c.tags.Tag(ctx, MigrationTag(m))
}

// Rollback runs m.Down and removes m's tag. A migration that is not applied
// is skipped.
func (c *Connection) Rollback(ctx context.Context, m Migration) error {
	applied, err := c.Contains(ctx, m)
	if err != nil {
		return err
	}
	if !applied {
		debug.Debug("migration not applied", "migration", m.Identifier())
		return nil
	}

	if err := m.Down(ctx, c); err != nil {
		return fmt.Errorf("migration %s down: %w", m.Identifier(), err)
	}
	return c.tags.Untag(ctx, MigrationTag(m))
}
