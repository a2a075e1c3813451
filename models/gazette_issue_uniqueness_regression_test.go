package models_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/PedroPPVM/Intelectus-Api/config"
	"github.com/PedroPPVM/Intelectus-Api/models"
	"github.com/PedroPPVM/Intelectus-Api/utils"
	"github.com/google/uuid"
)

// Regression: the issue table must hold at most one row per
// (process_type, magazine_identifier), and re-seeing a known issue must not
// rewrite its stored url.
func TestGazetteIssueGetOrCreateKeepsSingleRow(t *testing.T) {
	ctx := setupIntegrationDB(t)

	const identifier = "2845001"
	urlFirst := "https://revista.example/Marcas2845_001.pdf"
	urlLater := "https://revista.example/mirror/Marcas2845_001.pdf"

	first, err := models.GetOrCreateMagazine(ctx, models.ProcessTypeBrand, identifier, urlFirst)
	if err != nil {
		t.Fatalf("GetOrCreateMagazine (create): %v", err)
	}

	second, err := models.GetOrCreateMagazine(ctx, models.ProcessTypeBrand, identifier, urlLater)
	if err != nil {
		t.Fatalf("GetOrCreateMagazine (existing): %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("got a second row %s for the same issue, want %s", second.ID, first.ID)
	}

	stored, err := models.GetMagazine(ctx, models.ProcessTypeBrand, identifier)
	if err != nil {
		t.Fatalf("GetMagazine: %v", err)
	}
	if stored.Url != urlFirst {
		t.Errorf("stored url = %q, want the first-located %q", stored.Url, urlFirst)
	}
	if stored.LastCheckedAt == nil {
		t.Errorf("last_checked_at not refreshed")
	}

	// a racing insert must hit the unique constraint, not create a duplicate
	db := config.GetDB()
	dup := models.RPIMagazine{
		ID:                 models.NewId(),
		ProcessType:        models.ProcessTypeBrand,
		MagazineIdentifier: identifier,
		Url:                urlLater,
	}
	if err := db.WithContext(ctx).Create(&dup).Error; err == nil {
		t.Fatalf("duplicate (process_type, magazine_identifier) insert succeeded")
	}
}

// Regression: process numbers are unique per company, not globally; two
// companies may track the same number.
func TestProcessNumberUniquePerCompany(t *testing.T) {
	ctx := setupIntegrationDB(t)

	companyA, err := models.CreateCompany(ctx, &models.NewCompany{
		Name:     "Empresa A",
		Document: "11111111000101",
	})
	if err != nil {
		t.Fatalf("CreateCompany A: %v", err)
	}
	companyB, err := models.CreateCompany(ctx, &models.NewCompany{
		Name:     "Empresa B",
		Document: "22222222000102",
	})
	if err != nil {
		t.Fatalf("CreateCompany B: %v", err)
	}

	input := func() *models.NewProcess {
		return &models.NewProcess{
			ProcessType:   models.ProcessTypeBrand,
			ProcessNumber: "905123456",
			Title:         "Marca compartilhada",
		}
	}

	ctxA := utils.SetCompanyIdInContext(ctx, companyA.ID)
	if _, err := models.CreateProcess(ctxA, input()); err != nil {
		t.Fatalf("CreateProcess in company A: %v", err)
	}
	if _, err := models.CreateProcess(ctxA, input()); err == nil {
		t.Fatalf("duplicate number inside one company must be rejected")
	}

	ctxB := utils.SetCompanyIdInContext(ctx, companyB.ID)
	if _, err := models.CreateProcess(ctxB, input()); err != nil {
		t.Fatalf("same number in another company must be allowed: %v", err)
	}
}

// setupIntegrationDB boots a throwaway MySQL container, connects the config
// singletons against it and migrates the schema. Tests using it are gated on
// INTEGRATION_TESTS=1 because they need docker.
func setupIntegrationDB(t *testing.T) context.Context {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "intelectus_test")

	config.ConnectDatabaseWithRetry()
	if err := models.MigrateTable(); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}

	ctx := context.Background()
	ctx = utils.SetUserIdInContext(ctx, uuid.NewString())
	ctx = utils.SetUserNameInContext(ctx, "Test")
	ctx = utils.SetUserEmailInContext(ctx, "test@local")
	return ctx
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("intelectus-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=intelectus_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
