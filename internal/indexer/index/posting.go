package index

import (
	"sort"

	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/errors"
)

// Posting records how often one term occurs in one document.
type Posting struct {
	DocID     DocID `json:"d"`
	Frequency int   `json:"f"`
}

// PostingsList holds the postings of one term in ascending DocID order.
// Its document frequency is the number of postings; Append is the only
// mutator, so the two can never disagree.
type PostingsList struct {
	postings []Posting
}

// NewPostingsList builds a list from postings in any order.
func NewPostingsList(postings ...Posting) (*PostingsList, error) {
	l := &PostingsList{postings: make([]Posting, 0, len(postings))}
	for _, p := range postings {
		if err := l.Append(p); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Append adds p, keeping the list sorted by DocID. Appending in ascending
// order is O(1); an out-of-order id is inserted at its sorted position.
func (l *PostingsList) Append(p Posting) error {
	if p.Frequency < 1 {
		return apperrors.Newf(apperrors.ErrInvalidInput, "posting for doc %d has frequency %d", p.DocID, p.Frequency)
	}
	n := len(l.postings)
	if n == 0 || l.postings[n-1].DocID < p.DocID {
		l.postings = append(l.postings, p)
		return nil
	}
	i := sort.Search(n, func(i int) bool { return l.postings[i].DocID >= p.DocID })
	if l.postings[i].DocID == p.DocID {
		return apperrors.Newf(apperrors.ErrDuplicateDocument, "doc %d already has a posting", p.DocID)
	}
	l.postings = append(l.postings, Posting{})
	copy(l.postings[i+1:], l.postings[i:])
	l.postings[i] = p
	return nil
}

func (l *PostingsList) DocumentFrequency() int {
	return len(l.postings)
}

// Postings returns a copy of the postings in ascending DocID order.
func (l *PostingsList) Postings() []Posting {
	out := make([]Posting, len(l.postings))
	copy(out, l.postings)
	return out
}

// DocIDs returns the ids of the postings in ascending order.
func (l *PostingsList) DocIDs() []DocID {
	ids := make([]DocID, len(l.postings))
	for i, p := range l.postings {
		ids[i] = p.DocID
	}
	return ids
}

func (l *PostingsList) Equal(other *PostingsList) bool {
	if len(l.postings) != len(other.postings) {
		return false
	}
	for i := range l.postings {
		if l.postings[i] != other.postings[i] {
			return false
		}
	}
	return true
}
