package extract

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	text := "On 12 March 2024 Jane Smith, of Acme Widgets Inc, signed. " +
		"The renewal is due 2025-01-31; notice goes to Bob, and Globex Corp, on 3/4/25."

	got, err := New().Extract(context.Background(), text)
	require.NoError(t, err)

	assert.Equal(t, []string{"12 March 2024", "2025-01-31", "3/4/25"}, got[KindDates])
	assert.Contains(t, got[KindOrganizations], "Acme Widgets Inc")
	assert.Contains(t, got[KindOrganizations], "Globex Corp")
	assert.Contains(t, got[KindNames], "Jane Smith")
	assert.Contains(t, got[KindNames], "Bob")
	assert.NotContains(t, got[KindNames], "The")
}

func TestExtract_EmptyText(t *testing.T) {
	got, err := New().Extract(context.Background(), "")
	require.NoError(t, err)

	for _, kind := range []string{KindNames, KindDates, KindOrganizations} {
		assert.NotNil(t, got[kind], kind)
		assert.Empty(t, got[kind], kind)
	}
}

func TestExtract_SortedAndCapped(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 80; i++ {
		fmt.Fprintf(&b, "2024-01-%02d ", i%28+1)
		fmt.Fprintf(&b, "19%02d-06-15. ", i)
	}

	got, err := New().Extract(context.Background(), b.String())
	require.NoError(t, err)

	dates := got[KindDates]
	assert.Len(t, dates, MaxPerKind)
	assert.IsIncreasing(t, dates)
}

func TestExtract_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Extract(ctx, "Jane Smith")
	assert.ErrorIs(t, err, context.Canceled)
}
