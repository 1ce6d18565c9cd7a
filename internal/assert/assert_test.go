package assert

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThat(t *testing.T) {
	require.NotPanics(t, func() { That(true, "never") })

	defer func() {
		r := recover()
		v, ok := r.(*Violation)
		require.True(t, ok)
		require.Equal(t, "invariant violated: field name missing", v.Error())
	}()
	That(false, "field %s missing", "name")
}

func TestFail(t *testing.T) {
	require.PanicsWithError(t, "invariant violated: boom 1", func() {
		Fail("boom %d", 1)
	})
}
