package litescan

import (
	"io"
	"os"

	"github.com/lindeneg/litescan/internal/scanerr"
)

// pager is a random-access, paged view over an open database file. Pages
// are 1-indexed; page 1 spans the 100-byte file header followed by the
// root page of the schema catalog. The pager caches only the most
// recently read page buffer - no caching policy beyond that is required,
// so keeping one buffer around is enough to avoid rereading a page across
// the header-then-cells decode that every caller performs.
type pager struct {
	file       *os.File
	pageSize   uint32
	numPages   uint32
	cachedNum  uint32
	cachedData []byte
}

func openPager(path string) (*pager, *FileHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, scanerr.Wrap(scanerr.KindIo, "open database file", err)
	}

	headerBuf := make([]byte, FileHeaderSize)
	if _, err := f.ReadAt(headerBuf, 0); err != nil {
		f.Close()
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, nil, scanerr.Wrap(scanerr.KindTruncated, "file shorter than header", err)
		}
		return nil, nil, scanerr.Wrap(scanerr.KindIo, "read file header", err)
	}

	header, err := parseFileHeader(headerBuf)
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, scanerr.Wrap(scanerr.KindIo, "stat database file", err)
	}
	numPages := uint32(info.Size() / int64(header.PageSize))

	p := &pager{file: f, pageSize: uint32(header.PageSize), numPages: numPages}
	return p, header, nil
}

func (p *pager) close() error {
	return p.file.Close()
}

// readPage returns the byte buffer for the 1-indexed page n, of length
// pageSize. For page 1 the buffer includes the 100-byte file header; a
// decoder beginning at page 1 must start at offset FileHeaderSize.
func (p *pager) readPage(n uint32) ([]byte, error) {
	if n < 1 {
		return nil, scanerr.New(scanerr.KindIo, "page numbers are 1-indexed")
	}
	if p.numPages != 0 && n > p.numPages {
		return nil, scanerr.New(scanerr.KindIo, "page out of range")
	}
	if n == p.cachedNum && p.cachedData != nil {
		return p.cachedData, nil
	}
	offset := int64(n-1) * int64(p.pageSize)
	buf := make([]byte, p.pageSize)
	if _, err := p.file.ReadAt(buf, offset); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, scanerr.Wrap(scanerr.KindTruncated, "page out of range", err)
		}
		return nil, scanerr.Wrap(scanerr.KindIo, "read page", err)
	}
	p.cachedNum = n
	p.cachedData = buf
	return buf, nil
}
