package web

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"time"

	"parish/internal/adapters/email"
	"parish/internal/adapters/http/middleware"
	"parish/internal/adapters/http/perf"
	"parish/internal/adapters/objstore"
	accountStore "parish/internal/adapters/storage/account"
	auditStore "parish/internal/adapters/storage/audit"
	categoryStore "parish/internal/adapters/storage/category"
	eventStore "parish/internal/adapters/storage/event"
	featureFlagStore "parish/internal/adapters/storage/featureflag"
	memberStore "parish/internal/adapters/storage/member"
	messageStore "parish/internal/adapters/storage/message"
	outboxStore "parish/internal/adapters/storage/outbox"
	postStore "parish/internal/adapters/storage/post"
	registrationStore "parish/internal/adapters/storage/registration"
	tenantStore "parish/internal/adapters/storage/tenant"
	"parish/internal/application/orchestrators"
)

// Stores holds all storage dependencies.
type Stores struct {
	TenantStore       tenantStore.Store
	AccountStore      accountStore.Store
	FeatureFlagStore  featureFlagStore.Store
	MemberStore       memberStore.Store
	CategoryStore     categoryStore.Store
	SubcategoryStore  categoryStore.SubcategoryStore
	DefinitionStore   eventStore.DefinitionStore
	InstanceStore     eventStore.InstanceStore
	RegistrationStore registrationStore.Store
	MessageStore      messageStore.Store
	PostStore         postStore.Store
	OutboxStore       outboxStore.Store
	AuditStore        auditStore.Store
}

// loadCSRFKey reads the CSRF secret from PARISH_CSRF_KEY (hex-encoded, 32 bytes).
// In production, the key MUST be set. In development, a random key is generated per startup.
func loadCSRFKey() []byte {
	if keyHex := os.Getenv("PARISH_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			log.Fatal("PARISH_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key
	}
	if os.Getenv("PARISH_ENV") == "production" {
		log.Fatal("PARISH_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	log.Println("WARNING: using random CSRF key (sessions won't survive restart). Set PARISH_CSRF_KEY for production.")
	return key
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global session store instance
var sessions *middleware.SessionStore

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// Global email sender instance (set by SetEmailSender)
var emailSender email.Sender

// Email configuration
var emailFromAddress string
var emailReplyTo string

// SetEmailSender sets the global email sender for the application.
func SetEmailSender(sender email.Sender, from, replyTo string) {
	emailSender = sender
	emailFromAddress = from
	emailReplyTo = replyTo
}

// Global object store for uploaded images (set by SetObjectStore)
var objectStore objstore.Store

// SetObjectStore sets the global object store for image uploads.
func SetObjectStore(store objstore.Store) {
	objectStore = store
}

// Global outbox processor used by the admin retry endpoints (set by
// SetOutboxProcessor).
var outboxProcessor *orchestrators.OutboxProcessor

// SetOutboxProcessor sets the processor used for manual outbox retries.
func SetOutboxProcessor(p *orchestrators.OutboxProcessor) {
	outboxProcessor = p
}

// NewMux wires HTTP handlers for the app.
func NewMux(staticDir string, s *Stores, collector *perf.Collector) http.Handler {
	stores = s
	perfCollector = collector
	sessions = middleware.NewSessionStore()
	middleware.SecureCookies = os.Getenv("PARISH_ENV") == "production"

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	registerRoutes(mux)

	// CSRF key: 32-byte hex-encoded secret from env var
	csrfKey := loadCSRFKey()

	// Rate limiter: configurable requests per second per IP (OWASP A04)
	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Apply middleware: Timing -> Auth -> CSRF -> SecurityHeaders -> RateLimit -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey),
		middleware.Auth(sessions),
		middleware.RateLimit(limiter),
		middleware.Timing(collector),
	)
}
