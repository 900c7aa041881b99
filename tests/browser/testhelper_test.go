package browser_test

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	_ "modernc.org/sqlite"

	web "parish/internal/adapters/http"
	"parish/internal/adapters/http/middleware"
	"parish/internal/adapters/http/perf"
	"parish/internal/adapters/storage"
	accountStore "parish/internal/adapters/storage/account"
	auditStorePkg "parish/internal/adapters/storage/audit"
	categoryStore "parish/internal/adapters/storage/category"
	eventStorePkg "parish/internal/adapters/storage/event"
	featureFlagStorePkg "parish/internal/adapters/storage/featureflag"
	memberStorePkg "parish/internal/adapters/storage/member"
	messageStorePkg "parish/internal/adapters/storage/message"
	outboxStorePkg "parish/internal/adapters/storage/outbox"
	postStorePkg "parish/internal/adapters/storage/post"
	registrationStorePkg "parish/internal/adapters/storage/registration"
	tenantStorePkg "parish/internal/adapters/storage/tenant"
	"parish/internal/application/orchestrators"
)

// testApp holds the running test server and Playwright handles.
type testApp struct {
	BaseURL  string
	DB       *sql.DB
	Server   *http.Server
	PW       *playwright.Playwright
	Stores   *web.Stores
	TenantID string
}

// newTestApp creates a fully wired app with a temp SQLite DB and starts an HTTP server.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := storage.InitDB(db); err != nil {
		t.Fatalf("failed to initialize test DB: %v", err)
	}

	stores := &web.Stores{
		TenantStore:       tenantStorePkg.NewSQLiteStore(db),
		AccountStore:      accountStore.NewSQLiteStore(db),
		FeatureFlagStore:  featureFlagStorePkg.NewSQLiteStore(db),
		MemberStore:       memberStorePkg.NewSQLiteStore(db),
		CategoryStore:     categoryStore.NewSQLiteStore(db),
		SubcategoryStore:  categoryStore.NewSQLiteSubcategoryStore(db),
		DefinitionStore:   eventStorePkg.NewSQLiteDefinitionStore(db),
		InstanceStore:     eventStorePkg.NewSQLiteInstanceStore(db),
		RegistrationStore: registrationStorePkg.NewSQLiteStore(db),
		MessageStore:      messageStorePkg.NewSQLiteStore(db),
		PostStore:         postStorePkg.NewSQLiteStore(db),
		OutboxStore:       outboxStorePkg.NewSQLiteStore(db),
		AuditStore:        auditStorePkg.NewSQLiteStore(db),
	}

	seedDeps := orchestrators.SeedDemoDeps{
		TenantStore:      stores.TenantStore,
		AccountStore:     stores.AccountStore,
		MemberStore:      stores.MemberStore,
		CategoryStore:    stores.CategoryStore,
		SubcategoryStore: stores.SubcategoryStore,
		FlagStore:        stores.FeatureFlagStore,
	}
	tenantID, err := orchestrators.ExecuteSeedDemo(context.Background(), seedDeps)
	if err != nil {
		t.Fatalf("failed to seed demo data: %v", err)
	}

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	// Add test port to CSRF trusted origins before creating mux
	middleware.ExtraTrustedOrigins = append(middleware.ExtraTrustedOrigins,
		fmt.Sprintf("127.0.0.1:%d", port),
		fmt.Sprintf("localhost:%d", port),
	)

	web.RateLimitPerSecond = 100000
	mux := web.NewMux(tmpDir, stores, perf.NewCollector(perf.DefaultRingSize))
	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: mux,
	}
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("test server error: %v", err)
		}
	}()

	// Wait for server to be ready
	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	for i := 0; i < 50; i++ {
		resp, err := http.Get(baseURL + "/healthz")
		if err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}

	app := &testApp{
		BaseURL:  baseURL,
		DB:       db,
		Server:   srv,
		PW:       pw,
		Stores:   stores,
		TenantID: tenantID,
	}

	t.Cleanup(func() {
		pw.Stop()
		srv.Close()
		db.Close()
	})

	return app
}

// newAPIContext creates an API request context with its own cookie jar.
func (a *testApp) newAPIContext(t *testing.T) playwright.APIRequestContext {
	t.Helper()
	ctx, err := a.PW.Request.NewContext(playwright.APIRequestNewContextOptions{
		BaseURL: playwright.String(a.BaseURL),
	})
	if err != nil {
		t.Fatalf("failed to create API context: %v", err)
	}
	t.Cleanup(func() { ctx.Dispose() })
	return ctx
}

// login authenticates the API context as the given demo account.
func (a *testApp) login(t *testing.T, ctx playwright.APIRequestContext, email, password string) {
	t.Helper()
	resp, err := ctx.Post("/api/login", playwright.APIRequestContextPostOptions{
		Data: map[string]any{"Email": email, "Password": password},
	})
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	if resp.Status() != http.StatusOK {
		body, _ := resp.Text()
		t.Fatalf("login for %s: status %d: %s", email, resp.Status(), body)
	}
}
