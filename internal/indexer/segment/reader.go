package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"

	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer/index"
)

// Reader holds one validated segment file in memory. Index files expose
// their terms through Entries; directory files through DirectoryEntries.
type Reader struct {
	filePath string
	header   SegmentHeader
	dictData []byte
	postings []byte
	dict     []DictEntry
}

// OpenReader reads path, checks its header bounds and both checksums and
// parses the dictionary section.
func OpenReader(path string, wantMagic uint32) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening segment file: %w", err)
	}
	return parse(data, path, wantMagic)
}

func parse(data []byte, path string, wantMagic uint32) (*Reader, error) {
	size := int64(len(data))
	if size < int64(HeaderSize+FooterSize) {
		return nil, fmt.Errorf("invalid segment file: %d bytes is too short", size)
	}
	headerBytes := data[:HeaderSize]
	magic := binary.LittleEndian.Uint32(headerBytes[0:4])
	if magic != wantMagic {
		return nil, fmt.Errorf("invalid segment file: bad magic bytes %x", magic)
	}
	header := SegmentHeader{
		Magic:      magic,
		Version:    binary.LittleEndian.Uint32(headerBytes[4:8]),
		TermCount:  binary.LittleEndian.Uint32(headerBytes[8:12]),
		DocCount:   binary.LittleEndian.Uint32(headerBytes[12:16]),
		DictOffset: int64(binary.LittleEndian.Uint64(headerBytes[16:24])),
		DictSize:   int64(binary.LittleEndian.Uint64(headerBytes[24:32])),
		PostOffset: int64(binary.LittleEndian.Uint64(headerBytes[32:40])),
		PostSize:   int64(binary.LittleEndian.Uint64(headerBytes[40:48])),
		CreatedAt:  int64(binary.LittleEndian.Uint64(headerBytes[48:56])),
	}
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported segment version %d", header.Version)
	}
	if err := header.checkBounds(size); err != nil {
		return nil, fmt.Errorf("invalid segment file: %w", err)
	}
	footer := data[size-int64(FooterSize):]
	dictData := data[header.DictOffset : header.DictOffset+header.DictSize]
	if got, want := crc32.ChecksumIEEE(dictData), binary.LittleEndian.Uint32(footer[0:4]); got != want {
		return nil, fmt.Errorf("dictionary checksum mismatch: got %08x want %08x", got, want)
	}
	postings := data[header.PostOffset : header.PostOffset+header.PostSize]
	if got, want := crc32.ChecksumIEEE(postings), binary.LittleEndian.Uint32(footer[4:8]); got != want {
		return nil, fmt.Errorf("postings checksum mismatch: got %08x want %08x", got, want)
	}
	r := &Reader{
		filePath: path,
		header:   header,
		dictData: dictData,
		postings: postings,
	}
	if magic == IndexMagic {
		if err := json.Unmarshal(dictData, &r.dict); err != nil {
			return nil, fmt.Errorf("parsing dictionary: %w", err)
		}
	}
	return r, nil
}

// checkBounds requires header | postings | dictionary | footer to fit in a
// file of size bytes, in that order. Every comparison subtracts from a
// known non-negative bound so corrupt sizes cannot overflow.
func (h SegmentHeader) checkBounds(size int64) error {
	if h.DictOffset < 0 || h.DictSize < 0 || h.PostOffset < 0 || h.PostSize < 0 {
		return fmt.Errorf("negative section offset or size")
	}
	if h.PostOffset < int64(HeaderSize) || h.PostOffset > h.DictOffset {
		return fmt.Errorf("postings offset %d out of range", h.PostOffset)
	}
	if h.PostSize > h.DictOffset-h.PostOffset {
		return fmt.Errorf("postings section of %d bytes overlaps the dictionary", h.PostSize)
	}
	limit := size - int64(FooterSize)
	if h.DictOffset > limit || h.DictSize > limit-h.DictOffset {
		return fmt.Errorf("dictionary exceeds file size")
	}
	return nil
}

func (r *Reader) readPostings(entry DictEntry) ([]index.Posting, error) {
	n := int64(len(r.postings))
	if entry.PostOffset < 0 || entry.PostLen < 0 || entry.PostOffset > n || int64(entry.PostLen) > n-entry.PostOffset {
		return nil, fmt.Errorf("term %q: postings out of range", entry.Term)
	}
	var postings []index.Posting
	if err := json.Unmarshal(r.postings[entry.PostOffset:entry.PostOffset+int64(entry.PostLen)], &postings); err != nil {
		return nil, fmt.Errorf("parsing postings: %w", err)
	}
	if len(postings) != entry.DocFreq {
		return nil, fmt.Errorf("term %q: %d postings, dictionary says %d", entry.Term, len(postings), entry.DocFreq)
	}
	return postings, nil
}

// Entries decodes every term of an index file in dictionary order.
func (r *Reader) Entries() ([]index.TermEntry, error) {
	entries := make([]index.TermEntry, 0, len(r.dict))
	for _, d := range r.dict {
		postings, err := r.readPostings(d)
		if err != nil {
			return nil, err
		}
		entries = append(entries, index.TermEntry{Term: d.Term, Postings: postings})
	}
	return entries, nil
}

// DirectoryEntries decodes a directory file.
func (r *Reader) DirectoryEntries() ([]index.DirectoryEntry, error) {
	if r.header.Magic != DirectoryMagic {
		return nil, fmt.Errorf("%s is not a directory file", r.filePath)
	}
	var entries []index.DirectoryEntry
	if err := json.Unmarshal(r.dictData, &entries); err != nil {
		return nil, fmt.Errorf("parsing directory: %w", err)
	}
	return entries, nil
}

func (r *Reader) Terms() int {
	return len(r.dict)
}

func (r *Reader) DocCount() uint32 {
	return r.header.DocCount
}
