package gazette

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PedroPPVM/Intelectus-Api/models"
)

func TestDeriveIdentifierStability(t *testing.T) {
	url := "https://revistas.example.gov.br/rpi/Marcas_2024 001.pdf"
	first := DeriveIdentifier(url)
	second := DeriveIdentifier(url)
	if first != second {
		t.Fatalf("identifier not stable: %q vs %q", first, second)
	}
	if first != "2024001" {
		t.Errorf("identifier = %q, want 2024001", first)
	}
}

func TestDeriveIdentifierIgnoresHostAndQuery(t *testing.T) {
	a := DeriveIdentifier("https://host-a.example/dl/Patentes2024_001.pdf?session=abc")
	b := DeriveIdentifier("https://host-b.example/other/Patentes2024_001.pdf")
	if a != b {
		t.Errorf("same embedded pattern should yield same identifier: %q vs %q", a, b)
	}
}

func TestDeriveIdentifierHashFallback(t *testing.T) {
	url := "https://revistas.example.gov.br/rpi/sem-padrao.pdf"
	id := DeriveIdentifier(url)
	if !strings.HasPrefix(id, "hash_") {
		t.Fatalf("identifier = %q, want hash_ prefix", id)
	}
	if len(id) != len("hash_")+16 {
		t.Errorf("identifier = %q, want 16 hex chars after prefix", id)
	}
	if id != DeriveIdentifier(url) {
		t.Error("hash fallback must be deterministic for the same URL")
	}
}

const indexPageHTML = `
<html><body><table>
<tr><th>Secao</th></tr>
<tr>
  <td>10/06/2025</td>
  <td><a href="/rpi/comunicados.pdf">Comunicados</a> <a href="/rpi/indice.pdf">Indice</a>
      <a href="/rpi/contratos.pdf">Contratos</a> <a href="/rpi/Desenhos_Industriais2845_001.pdf">Desenhos</a>
      <a href="/rpi/extra1.pdf">x</a> <a href="/rpi/Marcas2845_001.pdf">Marcas</a>
      <a href="/rpi/extra2.pdf">x</a> <a href="/rpi/Patentes2845_001.pdf">Patentes</a>
      <a href="/rpi/extra3.pdf">x</a> <a href="/rpi/Programa_de_computador2845_001.pdf">Programas</a></td>
</tr>
</table></body></html>`

func TestLatestIssuesParsesIndexRow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(indexPageHTML))
	}))
	defer server.Close()

	locator := &HttpLocator{baseURL: server.URL + "/", client: newGazetteClient()}

	refs, err := locator.LatestIssues(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(refs) != 4 {
		t.Fatalf("got %d refs, want 4", len(refs))
	}

	brand := refs[models.ProcessTypeBrand]
	if !strings.HasSuffix(brand.Url, "/rpi/Marcas2845_001.pdf") {
		t.Errorf("brand url = %q", brand.Url)
	}
	if brand.Identifier != "2845001" {
		t.Errorf("brand identifier = %q, want 2845001", brand.Identifier)
	}
	if brand.PublicationDate == nil {
		t.Error("expected publication date from index row")
	} else if got := brand.PublicationDate.Format("2006-01-02"); got != "2025-06-10" {
		t.Errorf("publication date = %s, want 2025-06-10", got)
	}

	patent := refs[models.ProcessTypePatent]
	if !strings.HasSuffix(patent.Url, "/rpi/Patentes2845_001.pdf") {
		t.Errorf("patent url = %q", patent.Url)
	}
}

func TestLatestIssueUnsupportedCategory(t *testing.T) {
	locator := NewHttpLocator()
	_, err := locator.LatestIssue(context.Background(), models.ProcessType("OTHER"))
	if err == nil {
		t.Fatal("expected an error for unmapped category")
	}
}

func TestLatestIssuesSourceUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	locator := &HttpLocator{baseURL: server.URL + "/", client: newGazetteClient()}
	_, err := locator.LatestIssues(context.Background())
	if err == nil {
		t.Fatal("expected an error for unavailable index page")
	}
}

func TestExtractPublicationDateFormats(t *testing.T) {
	if d := extractPublicationDate("revista de 10/06/2025 publicada"); d == nil || d.Format("2006-01-02") != "2025-06-10" {
		t.Errorf("dd/mm/yyyy parse failed: %v", d)
	}
	if d := extractPublicationDate("published 2025-06-10"); d == nil || d.Format("2006-01-02") != "2025-06-10" {
		t.Errorf("yyyy-mm-dd parse failed: %v", d)
	}
	if d := extractPublicationDate("sem data aqui"); d != nil {
		t.Errorf("expected nil for text without date, got %v", d)
	}
}
