package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"time"

	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer/index"
)

// Magic bytes identify the two file kinds: "SPDX" for the term index and
// "SPDD" for the document directory.
const (
	IndexMagic     uint32 = 0x53504458
	DirectoryMagic uint32 = 0x53504444
	FormatVersion  uint32 = 2
	HeaderSize     int    = 64
	FooterSize     int    = 32

	IndexFile     = "index.spdx"
	DirectoryFile = "directory.spdd"
)

// SegmentHeader is the 64-byte header written at the start of every file.
type SegmentHeader struct {
	Magic      uint32
	Version    uint32
	TermCount  uint32
	DocCount   uint32
	DictOffset int64
	DictSize   int64
	PostOffset int64
	PostSize   int64
	CreatedAt  int64
}

// DictEntry maps a term to its postings offset, length, and document frequency
// in the segment file.
type DictEntry struct {
	Term       string `json:"t"`
	PostOffset int64  `json:"o"`
	PostLen    int    `json:"l"`
	DocFreq    int    `json:"d"`
}

// Writer serialises an index or a directory into files under one directory.
type Writer struct {
	dataDir string
}

// NewWriter creates a Writer that writes into the given directory.
func NewWriter(dataDir string) *Writer {
	return &Writer{dataDir: dataDir}
}

// WriteIndex atomically replaces the index file with the given term
// entries. It writes to a .tmp file first and renames on success.
func (w *Writer) WriteIndex(entries []index.TermEntry) error {
	postings := make([]byte, 0, 64*len(entries))
	dict := make([]DictEntry, 0, len(entries))
	docIDs := make(map[index.DocID]struct{})
	for _, entry := range entries {
		data, err := json.Marshal(entry.Postings)
		if err != nil {
			return fmt.Errorf("marshaling postings for term %q: %w", entry.Term, err)
		}
		dict = append(dict, DictEntry{
			Term:       entry.Term,
			PostOffset: int64(len(postings)),
			PostLen:    len(data),
			DocFreq:    len(entry.Postings),
		})
		postings = append(postings, data...)
		for _, p := range entry.Postings {
			docIDs[p.DocID] = struct{}{}
		}
	}
	dictData, err := json.Marshal(dict)
	if err != nil {
		return fmt.Errorf("marshaling dictionary: %w", err)
	}
	return w.write(IndexFile, IndexMagic, uint32(len(entries)), uint32(len(docIDs)), postings, dictData)
}

// WriteDirectory atomically replaces the directory file.
func (w *Writer) WriteDirectory(entries []index.DirectoryEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling directory: %w", err)
	}
	return w.write(DirectoryFile, DirectoryMagic, 0, uint32(len(entries)), nil, data)
}

// write lays out header | postings | dictionary | footer.
func (w *Writer) write(name string, magic, termCount, docCount uint32, postings, dictData []byte) error {
	if err := os.MkdirAll(w.dataDir, 0755); err != nil {
		return fmt.Errorf("creating segment directory: %w", err)
	}
	finalPath := filepath.Join(w.dataDir, name)
	tmpPath := finalPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp segment file: %w", err)
	}
	defer f.Close()

	postOffset := int64(HeaderSize)
	dictOffset := postOffset + int64(len(postings))
	header := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(header[0:4], magic)
	binary.LittleEndian.PutUint32(header[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(header[8:12], termCount)
	binary.LittleEndian.PutUint32(header[12:16], docCount)
	binary.LittleEndian.PutUint64(header[16:24], uint64(dictOffset))
	binary.LittleEndian.PutUint64(header[24:32], uint64(len(dictData)))
	binary.LittleEndian.PutUint64(header[32:40], uint64(postOffset))
	binary.LittleEndian.PutUint64(header[40:48], uint64(len(postings)))
	binary.LittleEndian.PutUint64(header[48:56], uint64(time.Now().Unix()))

	footer := make([]byte, FooterSize)
	binary.LittleEndian.PutUint32(footer[0:4], crc32.ChecksumIEEE(dictData))
	binary.LittleEndian.PutUint32(footer[4:8], crc32.ChecksumIEEE(postings))
	binary.LittleEndian.PutUint64(footer[8:16], uint64(dictOffset))
	binary.LittleEndian.PutUint64(footer[16:24], uint64(len(dictData)))
	binary.LittleEndian.PutUint64(footer[24:32], uint64(len(postings)))

	for _, part := range [][]byte{header, postings, dictData, footer} {
		if _, err := f.Write(part); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing segment file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing segment file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("renaming segment file: %w", err)
	}
	return nil
}
