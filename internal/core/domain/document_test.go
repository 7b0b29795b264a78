package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []Status{StatusPending, StatusParsing, StatusIndexing, StatusReady, StatusFailed}

func TestNewDocument(t *testing.T) {
	now := time.Now()
	doc := NewDocument("doc-1", "Report.PDF", now)

	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, "Report.PDF", doc.Filename)
	assert.Equal(t, "pdf", doc.Format)
	assert.Equal(t, StatusPending, doc.Status)
	assert.Equal(t, -1, doc.Current)
	assert.Empty(t, doc.Versions)
	assert.Empty(t, doc.Error)
	assert.Equal(t, now, doc.CreatedAt)
}

func TestCanTransition(t *testing.T) {
	legal := map[[2]Status]bool{
		{StatusPending, StatusParsing}:  true,
		{StatusPending, StatusFailed}:   true,
		{StatusParsing, StatusIndexing}: true,
		{StatusParsing, StatusFailed}:   true,
		{StatusIndexing, StatusReady}:   true,
		{StatusIndexing, StatusFailed}:  true,
		{StatusReady, StatusIndexing}:   true,
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				assert.Equal(t, legal[[2]Status{from, to}], CanTransition(from, to))
			})
		}
	}
}

func TestDocument_Advance_IllegalLeavesStatusUnchanged(t *testing.T) {
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			if CanTransition(from, to) {
				continue
			}
			doc := NewDocument("d", "a.txt", time.Now())
			doc.Status = from
			before := doc.UpdatedAt

			err := doc.Advance(to, "x", time.Now().Add(time.Second))

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTransition))
			assert.Equal(t, from, doc.Status)
			assert.Equal(t, before, doc.UpdatedAt)
		}
	}
}

func TestDocument_Advance_FullLifecycle(t *testing.T) {
	doc := NewDocument("d", "a.txt", time.Now())

	require.NoError(t, doc.Advance(StatusParsing, "", time.Now()))
	require.NoError(t, doc.Advance(StatusIndexing, "", time.Now()))
	require.NoError(t, doc.Advance(StatusReady, "", time.Now()))
	assert.True(t, doc.Status.IsTerminal())

	// explicit re-index
	require.NoError(t, doc.Advance(StatusIndexing, "", time.Now()))
	assert.True(t, doc.Status.InFlight())
}

func TestDocument_Advance_FailedDetail(t *testing.T) {
	doc := NewDocument("d", "a.txt", time.Now())
	require.NoError(t, doc.Advance(StatusParsing, "ignored", time.Now()))
	assert.Empty(t, doc.Error)

	require.NoError(t, doc.Advance(StatusFailed, "parse: corrupt input", time.Now()))
	assert.Equal(t, "parse: corrupt input", doc.Error)

	err := doc.Advance(StatusParsing, "", time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusFailed, doc.Status)
}

func TestDocument_RollbackLaw(t *testing.T) {
	const n = 5
	for i := 0; i < n; i++ {
		doc := NewDocument("d", "a.txt", time.Now())
		for v := 0; v < n; v++ {
			got := doc.AppendVersion("v", SummaryGenerated, "", nil, time.Now())
			assert.Equal(t, v, got.Index)
		}

		require.NoError(t, doc.SetCurrent(i, time.Now()))
		assert.Len(t, doc.Versions, n)
		assert.Equal(t, i, doc.Current)
	}
}

func TestDocument_SetCurrent_OutOfRange(t *testing.T) {
	doc := NewDocument("d", "a.txt", time.Now())
	doc.AppendVersion("first", SummaryGenerated, "", nil, time.Now())
	doc.AppendVersion("second", SummaryUserEdited, "", nil, time.Now())

	for _, idx := range []int{-1, 2, 100} {
		err := doc.SetCurrent(idx, time.Now())
		assert.ErrorIs(t, err, ErrVersionOutOfRange)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, 1, doc.Current)
		assert.Len(t, doc.Versions, 2)
	}
}

func TestDocument_AppendAfterRollbackKeepsHistory(t *testing.T) {
	doc := NewDocument("d", "a.txt", time.Now())
	doc.AppendVersion("draft", SummaryGenerated, "", nil, time.Now())
	doc.AppendVersion("edit", SummaryUserEdited, "", nil, time.Now())
	require.NoError(t, doc.SetCurrent(0, time.Now()))
	assert.Equal(t, "draft", doc.SummaryText())

	v := doc.AppendVersion("edit 2", SummaryUserEdited, "", nil, time.Now())

	assert.Equal(t, 2, v.Index)
	assert.Len(t, doc.Versions, 3)
	assert.Equal(t, "edit 2", doc.SummaryText())
}

func TestDocument_CurrentSummary_Empty(t *testing.T) {
	doc := NewDocument("d", "a.txt", time.Now())

	_, ok := doc.CurrentSummary()
	assert.False(t, ok)
	assert.Empty(t, doc.SummaryText())
}

func TestDocument_ReplaceEntities(t *testing.T) {
	doc := NewDocument("d", "a.txt", time.Now())
	doc.ReplaceEntities(Entities{"names": {"Ada Lovelace"}, "dates": {"1843"}}, time.Now())

	in := Entities{"organizations": {"Acme Inc"}}
	doc.ReplaceEntities(in, time.Now())
	in["organizations"][0] = "mutated"

	assert.Equal(t, Entities{"organizations": {"Acme Inc"}}, doc.Entities)
}

func TestDocument_Clone_IsDeep(t *testing.T) {
	doc := NewDocument("d", "a.txt", time.Now())
	doc.AppendVersion("s", SummaryGenerated, "", &Validation{Score: 1, Reasons: []string{"ok"}}, time.Now())
	doc.ReplaceEntities(Entities{"names": {"A"}}, time.Now())

	c := doc.Clone()
	c.Versions[0].Text = "changed"
	c.Versions[0].Validation.Reasons[0] = "changed"
	c.Entities["names"][0] = "changed"

	assert.Equal(t, "s", doc.Versions[0].Text)
	assert.Equal(t, "ok", doc.Versions[0].Validation.Reasons[0])
	assert.Equal(t, "A", doc.Entities["names"][0])
}

func TestFormatFromFilename(t *testing.T) {
	assert.Equal(t, "docx", FormatFromFilename("/tmp/Contract.DOCX"))
	assert.Equal(t, "htm", FormatFromFilename("page.htm"))
	assert.Equal(t, "", FormatFromFilename("README"))
}

func TestEntities_Kinds(t *testing.T) {
	e := Entities{"orgs": {"ACME"}, "dates": {"2024"}, "names": nil}

	assert.Equal(t, []string{"dates", "names", "orgs"}, e.Kinds())
	assert.Empty(t, Entities(nil).Kinds())
}
