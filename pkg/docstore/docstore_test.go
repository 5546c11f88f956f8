package docstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/analysis"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "docs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedTestDocs(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()
	docs := []analysis.Document{
		{ID: "m1", Title: "Mumbai property price trends", Content: "Residential prices in Mumbai rose 8% driven by metro expansion and infrastructure.", Category: analysis.DocMarket, City: "Mumbai"},
		{ID: "m2", Title: "Pune rental market report", Content: "Pune rental yields remain strong near IT corridors.", Category: analysis.DocMarket, City: "Pune"},
		{ID: "m3", Title: "National housing outlook", Content: "Housing demand across Indian metros continues to grow with infrastructure spending.", Category: analysis.DocMarket},
		{ID: "r1", Title: "MahaRERA registration rules", Content: "All Mumbai projects require MahaRERA registration and compliance before sale.", Category: analysis.DocRegulatory, City: "Mumbai"},
		{ID: "r2", Title: "RERA compliance checklist", Content: "RERA approval and regulation requirements for residential projects.", Category: analysis.DocRegulatory},
	}
	for _, doc := range docs {
		require.NoError(t, store.Put(ctx, doc))
	}
}

func TestStore_PutAndCount(t *testing.T) {
	store := openTestStore(t)
	seedTestDocs(t, store)

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestStore_PutRequiresID(t *testing.T) {
	store := openTestStore(t)
	err := store.Put(context.Background(), analysis.Document{Title: "no id"})
	assert.Error(t, err)
}

func TestStore_PutReplaces(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, analysis.Document{ID: "d1", Title: "v1", Content: "old", Category: analysis.DocMarket}))
	require.NoError(t, store.Put(ctx, analysis.Document{ID: "d1", Title: "v2", Content: "new", Category: analysis.DocMarket}))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_Query(t *testing.T) {
	store := openTestStore(t)
	seedTestDocs(t, store)

	docs, err := store.Query(context.Background(), "Mumbai price trends infrastructure", 5, Filters{})
	require.NoError(t, err)
	require.NotEmpty(t, docs)

	assert.Equal(t, "m1", docs[0].ID, "the Mumbai trends document should rank first")
	for _, doc := range docs {
		assert.Greater(t, doc.Relevance, 0.0)
		assert.LessOrEqual(t, doc.Relevance, 1.0)
	}
	for i := 1; i < len(docs); i++ {
		assert.GreaterOrEqual(t, docs[i-1].Relevance, docs[i].Relevance, "results must be ordered by relevance")
	}
}

func TestStore_QueryCategoryFilter(t *testing.T) {
	store := openTestStore(t)
	seedTestDocs(t, store)

	docs, err := store.Query(context.Background(), "Mumbai RERA compliance regulation", 5, Filters{Category: analysis.DocRegulatory})
	require.NoError(t, err)
	require.NotEmpty(t, docs)
	for _, doc := range docs {
		assert.Equal(t, analysis.DocRegulatory, doc.Category)
	}
}

// City filtering keeps city-tagged matches plus untagged national documents.
func TestStore_QueryCityFilter(t *testing.T) {
	store := openTestStore(t)
	seedTestDocs(t, store)

	docs, err := store.Query(context.Background(), "property market housing", 10, Filters{City: "Mumbai", Category: analysis.DocMarket})
	require.NoError(t, err)
	for _, doc := range docs {
		assert.NotEqual(t, "Pune", doc.City)
	}
}

func TestStore_QueryLimit(t *testing.T) {
	store := openTestStore(t)
	seedTestDocs(t, store)

	docs, err := store.Query(context.Background(), "Mumbai Pune housing market RERA", 2, Filters{})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(docs), 2)
}

func TestStore_QueryEmptyText(t *testing.T) {
	store := openTestStore(t)
	seedTestDocs(t, store)

	docs, err := store.Query(context.Background(), "   ", 5, Filters{})
	require.NoError(t, err)
	assert.Nil(t, docs)
}

func TestStore_QuotesHostileInput(t *testing.T) {
	store := openTestStore(t)
	seedTestDocs(t, store)

	// FTS5 operators in user input must not break the query.
	_, err := store.Query(context.Background(), `Mumbai AND NOT "price OR (trends`, 5, Filters{})
	assert.NoError(t, err)
}

func TestStore_QueryDocumentsAdapter(t *testing.T) {
	store := openTestStore(t)
	seedTestDocs(t, store)

	docs, err := store.QueryDocuments(context.Background(), "RERA regulation", 3, "Mumbai", analysis.DocRegulatory)
	require.NoError(t, err)
	require.NotEmpty(t, docs)
	assert.Equal(t, analysis.DocRegulatory, docs[0].Category)
}

func TestSeedFromDir(t *testing.T) {
	dir := t.TempDir()
	corpus := `documents:
  - id: s1
    title: Mumbai market snapshot
    content: Prices stable across western suburbs.
    category: market
    city: Mumbai
  - id: s2
    title: RERA notification
    content: New compliance norms for ongoing projects.
    category: regulatory
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "corpus.yaml"), []byte(corpus), 0644))

	store := openTestStore(t)
	n, err := store.SeedFromDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSeedFromFile_RejectsUnknownCategory(t *testing.T) {
	dir := t.TempDir()
	corpus := `documents:
  - id: bad1
    title: Mystery doc
    content: Uncategorized.
    category: gossip
`
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(corpus), 0644))

	store := openTestStore(t)
	_, err := store.SeedFromFile(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category")
}
