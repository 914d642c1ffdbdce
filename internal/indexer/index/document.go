package index

import (
	"sort"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/errors"
)

// DocID identifies a corpus document. Ids are positive; zero means unset.
type DocID uint64

// Document is one corpus record.
type Document struct {
	ID      DocID
	Content string
	URL     string
}

// Validate reports ErrMalformedRecord when a required field is missing.
func (d Document) Validate() error {
	var missing []string
	if d.ID == 0 {
		missing = append(missing, "id")
	}
	if strings.TrimSpace(d.Content) == "" {
		missing = append(missing, "content")
	}
	if strings.TrimSpace(d.URL) == "" {
		missing = append(missing, "url")
	}
	if len(missing) > 0 {
		return apperrors.Newf(apperrors.ErrMalformedRecord, "document %d: missing %s", d.ID, strings.Join(missing, ", "))
	}
	return nil
}

// Directory maps document ids to their display URL. It replaces any
// assumption that an id is a position in the corpus slice.
type Directory struct {
	urls map[DocID]string
}

func NewDirectory() *Directory {
	return &Directory{urls: make(map[DocID]string)}
}

func (d *Directory) Put(id DocID, url string) {
	d.urls[id] = url
}

func (d *Directory) URL(id DocID) (string, bool) {
	url, ok := d.urls[id]
	return url, ok
}

func (d *Directory) Len() int {
	return len(d.urls)
}

// IDs returns every id in ascending order.
func (d *Directory) IDs() []DocID {
	ids := make([]DocID, 0, len(d.urls))
	for id := range d.urls {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (d *Directory) Equal(other *Directory) bool {
	if len(d.urls) != len(other.urls) {
		return false
	}
	for id, url := range d.urls {
		if o, ok := other.urls[id]; !ok || o != url {
			return false
		}
	}
	return true
}

// DirectoryEntry is one persisted directory row.
type DirectoryEntry struct {
	ID  DocID  `json:"i"`
	URL string `json:"u"`
}

// Entries returns the directory rows in ascending id order.
func (d *Directory) Entries() []DirectoryEntry {
	ids := d.IDs()
	entries := make([]DirectoryEntry, len(ids))
	for i, id := range ids {
		entries[i] = DirectoryEntry{ID: id, URL: d.urls[id]}
	}
	return entries
}

// DirectoryFromEntries rebuilds a directory from persisted rows.
func DirectoryFromEntries(entries []DirectoryEntry) (*Directory, error) {
	d := NewDirectory()
	for _, e := range entries {
		if _, dup := d.urls[e.ID]; dup {
			return nil, apperrors.Newf(apperrors.ErrDuplicateDocument, "directory entry %d", e.ID)
		}
		d.urls[e.ID] = e.URL
	}
	return d, nil
}
