package normalisers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
)

type fakeNormaliser struct {
	formats  []string
	priority int
	out      string
	err      error
}

func (f *fakeNormaliser) SupportedFormats() []string { return f.formats }
func (f *fakeNormaliser) Priority() int              { return f.priority }
func (f *fakeNormaliser) Normalise(_ context.Context, _ []byte) (string, error) {
	return f.out, f.err
}

func TestRegistry_HighestPriorityWins(t *testing.T) {
	r := NewRegistry(
		&fakeNormaliser{formats: []string{"txt"}, priority: 5, out: "fallback"},
		&fakeNormaliser{formats: []string{"txt"}, priority: 80, out: "specific"},
	)

	got, err := r.Parse(context.Background(), []byte("x"), "txt")
	require.NoError(t, err)
	assert.Equal(t, "specific", got)
}

func TestRegistry_FormatIsCaseInsensitive(t *testing.T) {
	r := Default()
	got, err := r.Parse(context.Background(), []byte("hello"), ".TXT")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
	assert.True(t, r.Supports("Md"))
}

func TestRegistry_UnsupportedFormat(t *testing.T) {
	r := Default()
	_, err := r.Parse(context.Background(), []byte("x"), "xlsx")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	assert.False(t, r.Supports("xlsx"))
	assert.False(t, r.Supports(""))
}

func TestRegistry_WrapsNormaliserErrors(t *testing.T) {
	r := NewRegistry(&fakeNormaliser{formats: []string{"bin"}, priority: 50, err: errors.New("boom")})

	_, err := r.Parse(context.Background(), nil, "bin")
	assert.ErrorIs(t, err, domain.ErrCorruptInput)
	assert.Contains(t, err.Error(), "boom")
}

func TestRegistry_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Default().Parse(ctx, []byte("x"), "txt")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegistry_SupportedFormats(t *testing.T) {
	formats := Default().SupportedFormats()
	for _, f := range []string{"pdf", "docx", "html", "md", "txt"} {
		assert.Contains(t, formats, f)
	}
	assert.IsIncreasing(t, formats)
}

func TestRegistry_DocxCorruptInput(t *testing.T) {
	_, err := Default().Parse(context.Background(), []byte("not a zip"), "docx")
	assert.ErrorIs(t, err, domain.ErrCorruptInput)
}
