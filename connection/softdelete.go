package connection

import (
	"context"
	"time"

	"github.com/satishbabariya/relorm/internal/assert"
	"github.com/satishbabariya/relorm/schema"
)

// SoftDelete returns a BeforeDelete listener that stamps field with the
// clock's time through an update and cancels the delete. A nil clock uses
// time.Now.
func SoftDelete(l *schema.Layout, field string, clock func() time.Time) Listener {
	assert.That(l.HasField(field), "soft delete field %s not in layout %s", field, l.Name())
	if clock == nil {
		clock = time.Now
	}
	return func(ctx context.Context, ev *WriteEvent) Verdict {
		if ev.Kind != BeforeDelete {
			return Continue
		}
		ev.Record.Set(field, clock())
		if _, err := ev.Connection.Update(ctx, ev.Layout, ev.Record); err != nil {
			ev.Err = err
		}
		return Cancel
	}
}
