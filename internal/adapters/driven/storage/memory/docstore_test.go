package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
)

func TestNewDocumentStore(t *testing.T) {
	store := NewDocumentStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.documents)
	assert.NotNil(t, store.chunks)
}

func TestDocumentStore_SaveAndGet(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	now := time.Now()
	doc := domain.NewDocument("doc-1", "report.pdf", now)
	doc.AppendVersion("first", domain.SummaryGenerated, "ingest_summary", &domain.Validation{Score: 0.9, OK: true}, now)
	doc.ReplaceEntities(domain.Entities{"names": {"Ada Lovelace"}}, now)

	require.NoError(t, store.SaveDocument(ctx, doc))

	saved, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", saved.Filename)
	assert.Equal(t, "pdf", saved.Format)
	assert.Equal(t, "first", saved.SummaryText())
	assert.Equal(t, []string{"Ada Lovelace"}, saved.Entities["names"])
}

func TestDocumentStore_ReturnsCopies(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := domain.NewDocument("doc-1", "a.txt", time.Now())
	require.NoError(t, store.SaveDocument(ctx, doc))

	// Mutating the original or a read copy must not leak into the store.
	doc.Status = domain.StatusFailed
	got, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	got.Filename = "changed"

	again, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, again.Status)
	assert.Equal(t, "a.txt", again.Filename)
}

func TestDocumentStore_GetDocument_NotFound(t *testing.T) {
	_, err := NewDocumentStore().GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_SaveDocument_Invalid(t *testing.T) {
	store := NewDocumentStore()
	assert.ErrorIs(t, store.SaveDocument(context.Background(), nil), domain.ErrValidation)
	assert.ErrorIs(t, store.SaveDocument(context.Background(), &domain.Document{}), domain.ErrValidation)
}

func TestDocumentStore_ListDocuments_OrderedByCreation(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, store.SaveDocument(ctx, domain.NewDocument("b", "b.txt", base.Add(time.Second))))
	require.NoError(t, store.SaveDocument(ctx, domain.NewDocument("a", "a.txt", base)))
	require.NoError(t, store.SaveDocument(ctx, domain.NewDocument("c", "c.txt", base.Add(2*time.Second))))

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "b", docs[1].ID)
	assert.Equal(t, "c", docs[2].ID)
}

func TestDocumentStore_ListIDsByStatus(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	base := time.Now()

	for i, id := range []string{"c", "a", "b"} {
		doc := domain.NewDocument(id, id+".txt", base.Add(time.Duration(i)*time.Second))
		if id != "a" {
			doc.Status = domain.StatusReady
		}
		require.NoError(t, store.SaveDocument(ctx, doc))
	}

	ids, err := store.ListIDsByStatus(ctx, domain.StatusReady)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, ids)

	ids, err = store.ListIDsByStatus(ctx, domain.StatusFailed)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDocumentStore_Chunks(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	chunks := []domain.Chunk{
		{ID: "c1", DocumentID: "doc-1", Sequence: 1, Text: "second"},
		{ID: "c0", DocumentID: "doc-1", Sequence: 0, Text: "first"},
	}
	require.NoError(t, store.SaveChunks(ctx, "doc-1", chunks))

	got, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Text)

	// Replacing drops the old set.
	require.NoError(t, store.SaveChunks(ctx, "doc-1", chunks[:1]))
	got, err = store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	none, err := store.GetChunks(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDocumentStore_SaveChunks_ForeignChunk(t *testing.T) {
	store := NewDocumentStore()
	err := store.SaveChunks(context.Background(), "doc-1", []domain.Chunk{{ID: "c", DocumentID: "doc-2"}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDocumentStore_DeleteDocument(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, domain.NewDocument("doc-1", "a.txt", time.Now())))
	require.NoError(t, store.SaveChunks(ctx, "doc-1", []domain.Chunk{{ID: "c", DocumentID: "doc-1"}}))

	require.NoError(t, store.DeleteDocument(ctx, "doc-1"))

	_, err := store.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	chunks, _ := store.GetChunks(ctx, "doc-1")
	assert.Empty(t, chunks)
}

func TestDocumentStore_ConcurrentAccess(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i))
			_ = store.SaveDocument(ctx, domain.NewDocument(id, id+".txt", time.Now()))
			_, _ = store.GetDocument(ctx, id)
			_, _ = store.ListDocuments(ctx)
		}(i)
	}
	wg.Wait()

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 20)
}
