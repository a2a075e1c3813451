package gazette

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/PedroPPVM/Intelectus-Api/models"
)

type fakeLocator struct {
	ref   IssueRef
	err   error
	calls int
}

func (l *fakeLocator) LatestIssues(ctx context.Context) (map[models.ProcessType]IssueRef, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return map[models.ProcessType]IssueRef{l.ref.ProcessType: l.ref}, nil
}

func (l *fakeLocator) LatestIssue(ctx context.Context, processType models.ProcessType) (IssueRef, error) {
	l.calls++
	if l.err != nil {
		return IssueRef{}, l.err
	}
	ref := l.ref
	ref.ProcessType = processType
	return ref, nil
}

type fakeFetcher struct {
	doc       Document
	downloads int
}

func (f *fakeFetcher) FetchDocument(ctx context.Context, url string) (Document, error) {
	f.downloads++
	return f.doc, nil
}

type appliedUpdate struct {
	processId  string
	status     string
	magazineId string
}

type fakeProcessStore struct {
	processes []*models.Process
	applied   []appliedUpdate
}

func (s *fakeProcessStore) Get(ctx context.Context, companyId string, processNumber string) (*models.Process, error) {
	for _, p := range s.processes {
		if p.CompanyId == companyId && p.ProcessNumber == processNumber {
			return p, nil
		}
	}
	return nil, nil
}

func (s *fakeProcessStore) List(ctx context.Context, companyId string, processType *models.ProcessType) ([]*models.Process, error) {
	var out []*models.Process
	for _, p := range s.processes {
		if p.CompanyId != companyId {
			continue
		}
		if processType != nil && p.ProcessType != *processType {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *fakeProcessStore) ApplyGazetteUpdate(ctx context.Context, processId string, status string, magazineId string) error {
	s.applied = append(s.applied, appliedUpdate{processId, status, magazineId})
	for _, p := range s.processes {
		if p.ID == processId {
			p.Status = status
			p.MagazineId = &magazineId
			edited := false
			p.IsEdited = &edited
		}
	}
	return nil
}

type fakeIssueStore struct {
	issues  map[string]*models.RPIMagazine
	creates int
	marks   int
}

func newFakeIssueStore() *fakeIssueStore {
	return &fakeIssueStore{issues: make(map[string]*models.RPIMagazine)}
}

func issueKey(processType models.ProcessType, identifier string) string {
	return string(processType) + "/" + identifier
}

func (s *fakeIssueStore) Get(ctx context.Context, processType models.ProcessType, identifier string) (*models.RPIMagazine, error) {
	return s.issues[issueKey(processType, identifier)], nil
}

func (s *fakeIssueStore) GetOrCreate(ctx context.Context, ref IssueRef) (*models.RPIMagazine, bool, error) {
	key := issueKey(ref.ProcessType, ref.Identifier)
	if existing, ok := s.issues[key]; ok {
		return existing, false, nil
	}
	s.creates++
	magazine := &models.RPIMagazine{
		ID:                 fmt.Sprintf("issue-%d", s.creates),
		ProcessType:        ref.ProcessType,
		MagazineIdentifier: ref.Identifier,
		Url:                ref.Url,
		PublicationDate:    ref.PublicationDate,
	}
	s.issues[key] = magazine
	return magazine, true, nil
}

func (s *fakeIssueStore) MarkProcessed(ctx context.Context, issueId string) error {
	s.marks++
	now := time.Now()
	for _, magazine := range s.issues {
		if magazine.ID == issueId {
			magazine.ProcessedAt = &now
		}
	}
	return nil
}

type notifyCall struct {
	processNumber string
	oldStatus     string
	newStatus     string
}

type fakeNotifier struct {
	calls []notifyCall
}

func (n *fakeNotifier) Notify(ctx context.Context, process *models.Process, oldStatus string, newStatus string, issueIdentifier string) error {
	n.calls = append(n.calls, notifyCall{process.ProcessNumber, oldStatus, newStatus})
	return nil
}

func brandProcess(id string, number string, status string) *models.Process {
	edited := false
	return &models.Process{
		ID:            id,
		CompanyId:     "company-1",
		ProcessType:   models.ProcessTypeBrand,
		ProcessNumber: number,
		Title:         "Marca de teste",
		Status:        status,
		IsEdited:      &edited,
	}
}

// brandIssueDoc builds a one-page document carrying a brand entry per
// number/status pair, each block closed by an unrelated nine digit line.
func brandIssueDoc(entries map[string]string) Document {
	lines := []string{"Revista da Propriedade Industrial"}
	for number, status := range entries {
		lines = append(lines, number, status, "999999999")
	}
	return NewDocumentFromPages([][]string{lines})
}

func newTestEngine(doc Document, processes ...*models.Process) (*Engine, *fakeLocator, *fakeFetcher, *fakeProcessStore, *fakeIssueStore, *fakeNotifier) {
	locator := &fakeLocator{ref: IssueRef{
		ProcessType: models.ProcessTypeBrand,
		Url:         "https://revista.example/Marcas2845_001.pdf",
		Identifier:  "2845001",
	}}
	fetcher := &fakeFetcher{doc: doc}
	store := &fakeProcessStore{processes: processes}
	issues := newFakeIssueStore()
	notifier := &fakeNotifier{}
	engine := NewEngine(locator, fetcher, store, issues, notifier)
	return engine, locator, fetcher, store, issues, notifier
}

func TestReconcileOneAppliesUpdateAndNotifies(t *testing.T) {
	process := brandProcess("p1", "501554355", "FILED")
	doc := brandIssueDoc(map[string]string{"501554355": "GRANTED"})
	engine, _, fetcher, store, issues, notifier := newTestEngine(doc, process)

	result, err := engine.ReconcileOne(context.Background(), "company-1", "501554355", models.ProcessTypeBrand)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Skipped || !result.FoundInIssue || !result.Updated {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Status != "GRANTED" {
		t.Errorf("status = %q, want GRANTED", result.Status)
	}
	if fetcher.downloads != 1 {
		t.Errorf("downloads = %d, want 1", fetcher.downloads)
	}
	if len(store.applied) != 1 {
		t.Fatalf("applied updates = %d, want 1", len(store.applied))
	}
	if store.applied[0].status != "GRANTED" {
		t.Errorf("applied status = %q", store.applied[0].status)
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifier.calls))
	}
	if notifier.calls[0].oldStatus != "FILED" || notifier.calls[0].newStatus != "GRANTED" {
		t.Errorf("notification = %+v", notifier.calls[0])
	}
	if issues.marks != 1 {
		t.Errorf("mark processed calls = %d, want 1", issues.marks)
	}
}

func TestReconcileOneSecondCallIsSkipped(t *testing.T) {
	process := brandProcess("p1", "501554355", "FILED")
	doc := brandIssueDoc(map[string]string{"501554355": "GRANTED"})
	engine, _, fetcher, store, _, notifier := newTestEngine(doc, process)

	ctx := context.Background()
	if _, err := engine.ReconcileOne(ctx, "company-1", "501554355", models.ProcessTypeBrand); err != nil {
		t.Fatalf("first call: %v", err)
	}

	result, err := engine.ReconcileOne(ctx, "company-1", "501554355", models.ProcessTypeBrand)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !result.Skipped {
		t.Fatal("second call against an unchanged issue should be skipped")
	}
	if fetcher.downloads != 1 {
		t.Errorf("downloads = %d, want 1 (no re-download on skip)", fetcher.downloads)
	}
	if len(store.applied) != 1 {
		t.Errorf("applied updates = %d, want 1 (no re-write on skip)", len(store.applied))
	}
	if len(notifier.calls) != 1 {
		t.Errorf("notifications = %d, want 1", len(notifier.calls))
	}
}

func TestReconcileOneManualEditDefeatsSkip(t *testing.T) {
	process := brandProcess("p1", "501554355", "FILED")
	doc := brandIssueDoc(map[string]string{"501554355": "GRANTED"})
	engine, _, fetcher, store, _, notifier := newTestEngine(doc, process)

	ctx := context.Background()
	if _, err := engine.ReconcileOne(ctx, "company-1", "501554355", models.ProcessTypeBrand); err != nil {
		t.Fatalf("first call: %v", err)
	}

	// a human touched the record: the skip rule must not apply anymore
	edited := true
	process.IsEdited = &edited
	process.Status = "FILED"

	result, err := engine.ReconcileOne(ctx, "company-1", "501554355", models.ProcessTypeBrand)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if result.Skipped {
		t.Fatal("edited record must be re-reconciled")
	}
	if fetcher.downloads != 2 {
		t.Errorf("downloads = %d, want 2", fetcher.downloads)
	}
	if len(store.applied) != 2 {
		t.Fatalf("applied updates = %d, want 2", len(store.applied))
	}
	if process.IsEdited == nil || *process.IsEdited {
		t.Error("reconcile must clear the edited flag")
	}
	// FILED -> GRANTED again, so a second notification is correct
	if len(notifier.calls) != 2 {
		t.Errorf("notifications = %d, want 2", len(notifier.calls))
	}
}

func TestReconcileOneEqualStatusWritesLinkWithoutNotification(t *testing.T) {
	process := brandProcess("p1", "501554355", "GRANTED")
	doc := brandIssueDoc(map[string]string{"501554355": "GRANTED"})
	engine, _, _, store, _, notifier := newTestEngine(doc, process)

	result, err := engine.ReconcileOne(context.Background(), "company-1", "501554355", models.ProcessTypeBrand)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Updated {
		t.Error("equal status must not count as an update")
	}
	if len(store.applied) != 1 {
		t.Fatalf("applied updates = %d, want 1 (issue link still written)", len(store.applied))
	}
	if len(notifier.calls) != 0 {
		t.Errorf("notifications = %d, want 0", len(notifier.calls))
	}
}

func TestReconcileOneUnknownProcess(t *testing.T) {
	doc := brandIssueDoc(nil)
	engine, _, _, _, _, _ := newTestEngine(doc)

	_, err := engine.ReconcileOne(context.Background(), "company-1", "000000000", models.ProcessTypeBrand)
	if !errors.Is(err, ErrProcessNotFound) {
		t.Fatalf("err = %v, want ErrProcessNotFound", err)
	}
}

func TestReconcileOneAbsentFromIssueLeavesIssueUnprocessed(t *testing.T) {
	process := brandProcess("p1", "501554355", "FILED")
	doc := brandIssueDoc(map[string]string{"111222333": "ATIVO"})
	engine, _, _, store, issues, notifier := newTestEngine(doc, process)

	result, err := engine.ReconcileOne(context.Background(), "company-1", "501554355", models.ProcessTypeBrand)
	if err != nil {
		t.Fatalf("absence is not an error: %v", err)
	}
	if result.FoundInIssue || result.Updated {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(store.applied) != 0 {
		t.Errorf("applied updates = %d, want 0", len(store.applied))
	}
	if len(notifier.calls) != 0 {
		t.Errorf("notifications = %d, want 0", len(notifier.calls))
	}
	// issue stays unprocessed so the next call re-checks it
	if issues.marks != 0 {
		t.Errorf("mark processed calls = %d, want 0", issues.marks)
	}
}

func TestReconcileCompanySharesOneDownloadPerCategory(t *testing.T) {
	processes := []*models.Process{
		brandProcess("p1", "501554355", "FILED"),
		brandProcess("p2", "600000001", "FILED"),
		brandProcess("p3", "600000002", "PUBLISHED"),
	}
	doc := brandIssueDoc(map[string]string{
		"501554355": "GRANTED",
		"600000001": "FILED",
	})
	engine, _, fetcher, _, _, notifier := newTestEngine(doc, processes...)

	summary, err := engine.ReconcileCompany(context.Background(), "company-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetcher.downloads != 1 {
		t.Errorf("downloads = %d, want 1 shared download", fetcher.downloads)
	}
	if summary.TotalProcesses != 3 {
		t.Errorf("total = %d, want 3", summary.TotalProcesses)
	}
	if summary.TotalUpdated != 1 {
		t.Errorf("updated = %d, want 1 (p2 unchanged, p3 absent)", summary.TotalUpdated)
	}
	if summary.TotalNotFound != 1 {
		t.Errorf("not found = %d, want 1", summary.TotalNotFound)
	}
	if summary.NewIssues != 1 {
		t.Errorf("new issues = %d, want 1", summary.NewIssues)
	}
	if len(notifier.calls) != 1 {
		t.Errorf("notifications = %d, want 1", len(notifier.calls))
	}
}

func TestReconcileCompanySkipsFullySyncedCategory(t *testing.T) {
	processes := []*models.Process{
		brandProcess("p1", "501554355", "GRANTED"),
		brandProcess("p2", "600000001", "FILED"),
	}
	doc := brandIssueDoc(map[string]string{
		"501554355": "GRANTED",
		"600000001": "FILED",
	})
	engine, _, fetcher, store, _, _ := newTestEngine(doc, processes...)

	ctx := context.Background()
	if _, err := engine.ReconcileCompany(ctx, "company-1", nil); err != nil {
		t.Fatalf("first run: %v", err)
	}
	appliedAfterFirst := len(store.applied)

	summary, err := engine.ReconcileCompany(ctx, "company-1", nil)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(summary.Categories) != 1 || !summary.Categories[0].Skipped {
		t.Fatalf("expected the whole category skipped, got %+v", summary.Categories)
	}
	if fetcher.downloads != 1 {
		t.Errorf("downloads = %d, want 1 (no download on group skip)", fetcher.downloads)
	}
	if len(store.applied) != appliedAfterFirst {
		t.Errorf("applied updates grew from %d to %d on a skipped run", appliedAfterFirst, len(store.applied))
	}
}

func TestReconcileCompanyIsolatesLocatorFailure(t *testing.T) {
	process := brandProcess("p1", "501554355", "FILED")
	engine, locator, _, _, _, _ := newTestEngine(brandIssueDoc(nil), process)
	locator.err = fmt.Errorf("%w: index page unreachable", ErrSourceUnavailable)

	summary, err := engine.ReconcileCompany(context.Background(), "company-1", nil)
	if err != nil {
		t.Fatalf("category failure must not abort the run: %v", err)
	}
	if summary.ErrorCount != 1 {
		t.Errorf("error count = %d, want 1", summary.ErrorCount)
	}
	if len(summary.Categories) != 1 || summary.Categories[0].Error == "" {
		t.Errorf("expected the category to carry the error, got %+v", summary.Categories)
	}
}

func typedProcess(id string, processType models.ProcessType, number string, status string) *models.Process {
	edited := false
	return &models.Process{
		ID:            id,
		CompanyId:     "company-1",
		ProcessType:   processType,
		ProcessNumber: number,
		Title:         "Processo de teste",
		Status:        status,
		IsEdited:      &edited,
	}
}

func TestReconcileCompanyTypesRestrictsCategories(t *testing.T) {
	brand := brandProcess("p1", "501554355", "FILED")
	patent := typedProcess("p2", models.ProcessTypePatent, "BR 10 2023 001234-5", "FILED")
	software := typedProcess("p3", models.ProcessTypeSoftware, "BR512023000100-0", "FILED")
	doc := brandIssueDoc(map[string]string{"501554355": "GRANTED"})
	engine, _, fetcher, _, _, _ := newTestEngine(doc, brand, patent, software)

	summary, err := engine.ReconcileCompanyTypes(context.Background(), "company-1",
		[]models.ProcessType{models.ProcessTypeBrand, models.ProcessTypePatent})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summary.Categories) != 2 {
		t.Fatalf("categories = %d, want 2: %+v", len(summary.Categories), summary.Categories)
	}
	if summary.Categories[0].ProcessType != models.ProcessTypeBrand ||
		summary.Categories[1].ProcessType != models.ProcessTypePatent {
		t.Errorf("unexpected category order: %+v", summary.Categories)
	}
	if fetcher.downloads != 2 {
		t.Errorf("downloads = %d, want 2 (one per requested category)", fetcher.downloads)
	}
	if summary.TotalProcesses != 2 {
		t.Errorf("total processes = %d, want 2", summary.TotalProcesses)
	}
	if brand.Status != "GRANTED" {
		t.Errorf("brand status = %q, want GRANTED", brand.Status)
	}
	if software.Status != "FILED" || software.MagazineId != nil {
		t.Errorf("software process touched despite the restriction: %+v", software)
	}
}

func TestReconcileCompanyTypesEmptySetCoversAllCategories(t *testing.T) {
	brand := brandProcess("p1", "501554355", "FILED")
	patent := typedProcess("p2", models.ProcessTypePatent, "BR 10 2023 001234-5", "FILED")
	software := typedProcess("p3", models.ProcessTypeSoftware, "BR512023000100-0", "FILED")
	engine, _, fetcher, _, _, _ := newTestEngine(brandIssueDoc(map[string]string{"501554355": "GRANTED"}), brand, patent, software)

	summary, err := engine.ReconcileCompanyTypes(context.Background(), "company-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summary.Categories) != 3 {
		t.Fatalf("categories = %d, want 3: %+v", len(summary.Categories), summary.Categories)
	}
	if fetcher.downloads != 3 {
		t.Errorf("downloads = %d, want 3", fetcher.downloads)
	}
	if summary.TotalProcesses != 3 {
		t.Errorf("total processes = %d, want 3", summary.TotalProcesses)
	}
}
