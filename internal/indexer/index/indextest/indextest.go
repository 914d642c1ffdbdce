// Package indextest provides fixtures shared by the storage and searcher
// tests.
package indextest

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer/index"
)

// Corpus is a small Persian news corpus with a few Arabic-script variants
// that fold onto the same keys.
func Corpus() []index.Document {
	return []index.Document{
		{ID: 1, Content: "تیم ملی فوتبال ایران در جام جهانی", URL: "https://news.example/1"},
		{ID: 2, Content: "تيم ملي واليبال ايران قهرمان شد", URL: "https://news.example/2"},
		{ID: 3, Content: "شاخص بورس تهران امروز افزایش یافت", URL: "https://news.example/3"},
		{ID: 4, Content: "بازار بورس و قیمت‌ها در تهران", URL: "https://news.example/4"},
		{ID: 5, Content: "جام جهانی فوتبال و بازار بلیت", URL: "https://news.example/5"},
	}
}

// Build indexes Corpus without pruning.
func Build(t testing.TB) (*index.Index, *index.Directory) {
	t.Helper()
	idx, dir, report := index.NewBuilder(nil).Build(Corpus())
	require.Empty(t, report.Skipped)
	return idx, dir
}

// FromPostings builds an index where each term occurs once in the listed
// documents, and a directory with a URL for every id seen.
func FromPostings(t testing.TB, postings map[string][]index.DocID) (*index.Index, *index.Directory) {
	t.Helper()
	idx := index.New()
	dir := index.NewDirectory()
	for term, ids := range postings {
		for _, id := range ids {
			require.NoError(t, idx.AppendPosting(term, index.Posting{DocID: id, Frequency: 1}))
			dir.Put(id, URL(id))
		}
	}
	return idx, dir
}

// URL is the directory URL FromPostings assigns to id.
func URL(id index.DocID) string {
	return "https://corpus.example/doc/" + strconv.FormatUint(uint64(id), 10)
}
