package gazette

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/PedroPPVM/Intelectus-Api/models"
	"github.com/PuerkitoBio/goquery"
)

// Index-page column positions for each category's anchor in the first data
// row. Fixed by the publisher's layout.
var categoryCellIndex = map[models.ProcessType]int{
	models.ProcessTypeDesign:   3,
	models.ProcessTypeBrand:    5,
	models.ProcessTypePatent:   7,
	models.ProcessTypeSoftware: 9,
}

// identifierPattern matches a year+sequence token in a filename,
// e.g. "Marcas2845" in "Marcas 2845.pdf" or "Patentes_2845".
var identifierPattern = regexp.MustCompile(`(?i)(\d{4})[ _]?(\d{3})`)

var publicationDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(\d{2})/(\d{2})/(\d{4})\b`),
	regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`),
}

// HttpLocator scrapes the published index page for the latest issue links.
type HttpLocator struct {
	baseURL string
	client  *gazetteClient
}

func NewHttpLocator() *HttpLocator {
	baseURL := strings.TrimSpace(os.Getenv("RPI_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://revistas.inpi.gov.br/rpi/"
	}
	return &HttpLocator{
		baseURL: baseURL,
		client:  newGazetteClient(),
	}
}

func (l *HttpLocator) LatestIssues(ctx context.Context) (map[models.ProcessType]IssueRef, error) {
	body, err := l.client.get(ctx, l.baseURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing index page: %v", ErrSourceUnavailable, err)
	}

	// First non-header row of the listing table.
	row := doc.Find("table tr").Eq(1)
	if row.Length() == 0 {
		return nil, fmt.Errorf("%w: index page has no listing rows", ErrSourceUnavailable)
	}
	anchors := row.Find("a")
	rowText := row.Text()

	refs := make(map[models.ProcessType]IssueRef, len(categoryCellIndex))
	for processType, cell := range categoryCellIndex {
		anchor := anchors.Eq(cell)
		href, ok := anchor.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return nil, fmt.Errorf("%w: index page row missing link for %s", ErrSourceUnavailable, processType)
		}
		absolute := l.resolveURL(strings.TrimSpace(href))
		refs[processType] = IssueRef{
			ProcessType:     processType,
			Url:             absolute,
			Identifier:      DeriveIdentifier(absolute),
			PublicationDate: extractPublicationDate(rowText),
		}
	}
	return refs, nil
}

func (l *HttpLocator) LatestIssue(ctx context.Context, processType models.ProcessType) (IssueRef, error) {
	if _, ok := categoryCellIndex[processType]; !ok {
		return IssueRef{}, fmt.Errorf("%w: %s", ErrCategoryNotSupported, processType)
	}
	refs, err := l.LatestIssues(ctx)
	if err != nil {
		return IssueRef{}, err
	}
	return refs[processType], nil
}

func (l *HttpLocator) resolveURL(href string) string {
	base, err := url.Parse(l.baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// DeriveIdentifier produces a stable issue identifier from a download URL.
// The filename's year+sequence token, separators stripped, is preferred;
// URLs without one fall back to a truncated hash of the full URL string.
func DeriveIdentifier(rawURL string) string {
	filename := rawURL
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Path != "" {
		filename = path.Base(parsed.Path)
	}

	if m := identifierPattern.FindStringSubmatch(filename); m != nil {
		return m[1] + m[2]
	}

	sum := sha256.Sum256([]byte(rawURL))
	return "hash_" + hex.EncodeToString(sum[:])[:16]
}

// extractPublicationDate scans index-row text for a date token. Advisory
// only; returns nil on any failure.
func extractPublicationDate(text string) *time.Time {
	for i, pattern := range publicationDatePatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		var parsed time.Time
		var err error
		if i == 0 {
			parsed, err = time.Parse("02/01/2006", m[0])
		} else {
			parsed, err = time.Parse("2006-01-02", m[0])
		}
		if err != nil {
			continue
		}
		return &parsed
	}
	return nil
}
