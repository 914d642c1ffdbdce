package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_AppendAndLookup(t *testing.T) {
	idx := New()
	require.NoError(t, idx.AppendPosting("a", Posting{DocID: 1, Frequency: 1}))
	require.NoError(t, idx.AppendPosting("a", Posting{DocID: 2, Frequency: 3}))
	require.NoError(t, idx.AppendPosting("b", Posting{DocID: 2, Frequency: 1}))

	list, ok := idx.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, 2, list.DocumentFrequency())

	_, ok = idx.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, []string{"a", "b"}, idx.Terms())
}

func TestIndex_FailedAppendDoesNotCreateTerm(t *testing.T) {
	idx := New()
	require.Error(t, idx.AppendPosting("a", Posting{DocID: 1, Frequency: 0}))
	assert.Equal(t, 0, idx.Len())
}

func TestIndex_Delete(t *testing.T) {
	idx := New()
	require.NoError(t, idx.AppendPosting("a", Posting{DocID: 1, Frequency: 1}))

	assert.True(t, idx.Delete("a"))
	assert.False(t, idx.Delete("a"))
	assert.Equal(t, 0, idx.Len())
}

func TestIndex_SnapshotRoundTrip(t *testing.T) {
	idx := New()
	require.NoError(t, idx.AppendPosting("z", Posting{DocID: 3, Frequency: 2}))
	require.NoError(t, idx.AppendPosting("m", Posting{DocID: 1, Frequency: 1}))
	require.NoError(t, idx.AppendPosting("m", Posting{DocID: 3, Frequency: 4}))

	snap := idx.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "m", snap[0].Term)
	assert.Equal(t, []Posting{{DocID: 1, Frequency: 1}, {DocID: 3, Frequency: 4}}, snap[0].Postings)

	restored, err := FromEntries(snap)
	require.NoError(t, err)
	assert.True(t, idx.Equal(restored))
}

func TestFromEntries_RejectsDuplicates(t *testing.T) {
	_, err := FromEntries([]TermEntry{
		{Term: "a", Postings: []Posting{{DocID: 1, Frequency: 1}}},
		{Term: "a", Postings: []Posting{{DocID: 2, Frequency: 1}}},
	})
	require.Error(t, err)

	_, err = FromEntries([]TermEntry{
		{Term: "a", Postings: []Posting{{DocID: 1, Frequency: 1}, {DocID: 1, Frequency: 2}}},
	})
	require.Error(t, err)
}

func TestIndex_Equal(t *testing.T) {
	a := New()
	b := New()
	require.NoError(t, a.AppendPosting("x", Posting{DocID: 1, Frequency: 1}))
	require.NoError(t, b.AppendPosting("x", Posting{DocID: 1, Frequency: 2}))
	assert.False(t, a.Equal(b))

	c := New()
	require.NoError(t, c.AppendPosting("y", Posting{DocID: 1, Frequency: 1}))
	assert.False(t, a.Equal(c))
}

func TestDirectory(t *testing.T) {
	d := NewDirectory()
	d.Put(9, "https://example.com/9")
	d.Put(2, "https://example.com/2")

	url, ok := d.URL(9)
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/9", url)

	_, ok = d.URL(3)
	assert.False(t, ok)
	assert.Equal(t, []DocID{2, 9}, d.IDs())

	other := NewDirectory()
	other.Put(2, "https://example.com/2")
	assert.False(t, d.Equal(other))
	other.Put(9, "https://example.com/9")
	assert.True(t, d.Equal(other))
}

func TestDirectory_EntriesRoundTrip(t *testing.T) {
	d := NewDirectory()
	d.Put(5, "u5")
	d.Put(1, "u1")

	entries := d.Entries()
	assert.Equal(t, []DirectoryEntry{{ID: 1, URL: "u1"}, {ID: 5, URL: "u5"}}, entries)

	restored, err := DirectoryFromEntries(entries)
	require.NoError(t, err)
	assert.True(t, d.Equal(restored))

	_, err = DirectoryFromEntries([]DirectoryEntry{{ID: 1, URL: "a"}, {ID: 1, URL: "b"}})
	assert.Error(t, err)
}
