package gazette

import (
	"testing"

	"github.com/PedroPPVM/Intelectus-Api/models"
)

func TestExtractBrand(t *testing.T) {
	doc := NewDocumentFromPages([][]string{
		{
			"some unrelated header",
			"501554355",
			"ATIVO",
			"Detalhes da marca",
			"123456789",
			"OUTRO STATUS",
		},
	})

	record, err := Extract("501554355", models.ProcessTypeBrand, doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record == nil {
		t.Fatal("expected a record")
	}
	if record.ProcessNumber != "501554355" {
		t.Errorf("process number = %q, want 501554355", record.ProcessNumber)
	}
	if record.Status != "ATIVO" {
		t.Errorf("status = %q, want ATIVO", record.Status)
	}
}

func TestExtractPatent(t *testing.T) {
	doc := NewDocumentFromPages([][]string{
		{
			"(21) BR 11 2025 013613-5",
			"EM EXAME",
			"(21) BR 10 2024 000001-1",
			"ARQUIVADO",
		},
	})

	record, err := Extract("(21) BR 11 2025 013613-5", models.ProcessTypePatent, doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record == nil {
		t.Fatal("expected a record")
	}
	if record.ProcessNumber != "BR 11 2025 013613-5" {
		t.Errorf("process number = %q, want BR 11 2025 013613-5", record.ProcessNumber)
	}
	if record.Status != "EM EXAME" {
		t.Errorf("status = %q, want EM EXAME", record.Status)
	}
}

func TestExtractSoftware(t *testing.T) {
	doc := NewDocumentFromPages([][]string{
		{
			"Processo: BR 51 2025 001727-8",
			"DEFERIDO",
			"Sistema de Gestao Empresarial",
			"mais detalhes",
			"Processo: BR 51 2025 001728-6",
		},
	})

	record, err := Extract("BR 51 2025 001727-8", models.ProcessTypeSoftware, doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record == nil {
		t.Fatal("expected a record")
	}
	if record.ProcessNumber != "BR 51 2025 001727-8" {
		t.Errorf("process number = %q, want BR 51 2025 001727-8", record.ProcessNumber)
	}
	if record.Status != "DEFERIDO" {
		t.Errorf("status = %q, want DEFERIDO", record.Status)
	}
	if record.Title != "Sistema de Gestao Empresarial" {
		t.Errorf("title = %q", record.Title)
	}
}

// The design layout places an intermediate line between number and status:
// the status must come from block index 2, not 1.
func TestExtractDesign(t *testing.T) {
	doc := NewDocumentFromPages([][]string{
		{
			"BR302025003653-4",
			"(15) 10/06/2025",
			"CONCEDIDO",
			"titular: Fulano",
			"BR302025003700-0",
		},
	})

	record, err := Extract("BR302025003653-4", models.ProcessTypeDesign, doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record == nil {
		t.Fatal("expected a record")
	}
	if record.ProcessNumber != "BR302025003653-4" {
		t.Errorf("process number = %q, want BR302025003653-4", record.ProcessNumber)
	}
	if record.Status != "CONCEDIDO" {
		t.Errorf("status = %q, want CONCEDIDO (block index 2)", record.Status)
	}
}

func TestExtractDesignPicksStopPatternFromInputShape(t *testing.T) {
	// DI-shaped input must use the DI stop pattern: the BR-shaped line below
	// the match must not terminate the block.
	doc := NewDocumentFromPages([][]string{
		{
			"DI7502345-6",
			"(15) 01/02/2025",
			"REGISTRADO",
			"BR302025003653-4",
		},
	})

	record, err := Extract("DI7502345-6", models.ProcessTypeDesign, doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record == nil {
		t.Fatal("expected a record")
	}
	if record.Status != "REGISTRADO" {
		t.Errorf("status = %q, want REGISTRADO", record.Status)
	}
}

func TestExtractNotFoundReturnsNil(t *testing.T) {
	doc := NewDocumentFromPages([][]string{
		{"111111111", "ATIVO"},
		{"222222222", "EXTINTO"},
	})

	record, err := Extract("999999999", models.ProcessTypeBrand, doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record != nil {
		t.Fatalf("expected nil for a number absent from the document, got %+v", record)
	}
}

func TestExtractUsesFirstOccurrenceOnly(t *testing.T) {
	doc := NewDocumentFromPages([][]string{
		{"501554355", "ATIVO", "999999999"},
		{"501554355", "EXTINTO", "999999999"},
	})

	record, err := Extract("501554355", models.ProcessTypeBrand, doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Status != "ATIVO" {
		t.Errorf("status = %q, want first occurrence's ATIVO", record.Status)
	}
}

func TestExtractUnsupportedCategory(t *testing.T) {
	doc := NewDocumentFromPages(nil)
	_, err := Extract("501554355", models.ProcessType("OTHER"), doc)
	if err == nil {
		t.Fatal("expected an error for unsupported category")
	}
}
