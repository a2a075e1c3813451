package gazette

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// memoryDocument holds a fully parsed gazette: one slice of text lines per page.
type memoryDocument struct {
	pages [][]string
}

func (d *memoryDocument) NumPages() int { return len(d.pages) }

func (d *memoryDocument) PageLines(page int) []string {
	if page < 0 || page >= len(d.pages) {
		return nil
	}
	return d.pages[page]
}

// HttpFetcher downloads gazette documents and parses them into text pages.
// Documents are kept in memory only for the duration of one reconcile call.
type HttpFetcher struct {
	client *gazetteClient
}

func NewHttpFetcher() *HttpFetcher {
	return &HttpFetcher{client: newGazetteClient()}
}

func (f *HttpFetcher) FetchDocument(ctx context.Context, url string) (Document, error) {
	body, err := f.client.get(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := parsePdf(body)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing document from %s: %v", ErrSourceUnavailable, url, err)
	}
	return doc, nil
}

func parsePdf(data []byte) (*memoryDocument, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	totalPages := reader.NumPage()
	pages := make([][]string, 0, totalPages)
	for pageNo := 1; pageNo <= totalPages; pageNo++ {
		page := reader.Page(pageNo)
		if page.V.IsNull() {
			pages = append(pages, nil)
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			// Pages that fail text extraction are treated as empty rather
			// than failing the whole document.
			pages = append(pages, nil)
			continue
		}
		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			var sb strings.Builder
			for _, word := range row.Content {
				sb.WriteString(word.S)
			}
			lines = append(lines, sb.String())
		}
		pages = append(pages, lines)
	}
	return &memoryDocument{pages: pages}, nil
}

// NewDocumentFromPages builds a Document from pre-split text pages.
func NewDocumentFromPages(pages [][]string) Document {
	return &memoryDocument{pages: pages}
}
