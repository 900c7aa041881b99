package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/robfig/cron/v3"
	_ "modernc.org/sqlite"

	emailPkg "parish/internal/adapters/email"
	web "parish/internal/adapters/http"
	"parish/internal/adapters/http/perf"
	"parish/internal/adapters/objstore"
	"parish/internal/adapters/social"
	"parish/internal/adapters/storage"
	accountStore "parish/internal/adapters/storage/account"
	auditStorePkg "parish/internal/adapters/storage/audit"
	categoryStore "parish/internal/adapters/storage/category"
	eventStorePkg "parish/internal/adapters/storage/event"
	featureFlagStorePkg "parish/internal/adapters/storage/featureflag"
	memberStore "parish/internal/adapters/storage/member"
	messageStore "parish/internal/adapters/storage/message"
	outboxStorePkg "parish/internal/adapters/storage/outbox"
	postStore "parish/internal/adapters/storage/post"
	registrationStore "parish/internal/adapters/storage/registration"
	tenantStorePkg "parish/internal/adapters/storage/tenant"
	"parish/internal/application/orchestrators"
	"parish/internal/config"
	"parish/internal/domain/outbox"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load(os.Getenv("PARISH_CONFIG"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize database with WAL mode, foreign keys, and busy timeout
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.InitDB(db); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// Performance instrumentation: wrap DB with timing, create collector
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector)

	tenants := tenantStorePkg.NewSQLiteStore(timedDB)
	accounts := accountStore.NewSQLiteStore(timedDB)
	stores := &web.Stores{
		TenantStore:       tenants,
		AccountStore:      accounts,
		FeatureFlagStore:  featureFlagStorePkg.NewSQLiteStore(timedDB),
		MemberStore:       memberStore.NewSQLiteStore(timedDB),
		CategoryStore:     categoryStore.NewSQLiteStore(timedDB),
		SubcategoryStore:  categoryStore.NewSQLiteSubcategoryStore(timedDB),
		DefinitionStore:   eventStorePkg.NewSQLiteDefinitionStore(timedDB),
		InstanceStore:     eventStorePkg.NewSQLiteInstanceStore(timedDB),
		RegistrationStore: registrationStore.NewSQLiteStore(timedDB),
		MessageStore:      messageStore.NewSQLiteStore(timedDB),
		PostStore:         postStore.NewSQLiteStore(timedDB),
		OutboxStore:       outboxStorePkg.NewSQLiteStore(timedDB),
		AuditStore:        auditStorePkg.NewSQLiteStore(timedDB),
	}

	// Seed a demo tenant with accounts, catalog, and feature flags when the
	// database is empty. Idempotent across restarts.
	seedDeps := orchestrators.SeedDemoDeps{
		TenantStore:      tenants,
		AccountStore:     accounts,
		MemberStore:      stores.MemberStore,
		CategoryStore:    stores.CategoryStore,
		SubcategoryStore: stores.SubcategoryStore,
		FlagStore:        stores.FeatureFlagStore,
	}
	if _, err := orchestrators.ExecuteSeedDemo(context.Background(), seedDeps); err != nil {
		log.Fatalf("failed to seed demo data: %v", err)
	}

	// Configure email sender
	emailReply := envOrDefault("PARISH_REPLY_TO", cfg.EmailFrom)
	var sender emailPkg.Sender
	if cfg.ResendAPIKey != "" {
		sender = emailPkg.NewResendSender(cfg.ResendAPIKey, cfg.EmailFrom)
		log.Println("Email sender configured (Resend)")
	} else {
		sender = emailPkg.NewNoopSender()
		if os.Getenv("PARISH_ENV") == "production" {
			log.Println("WARNING: PARISH_RESEND_API_KEY is not set, email delivery is DISABLED in production")
		} else {
			log.Println("Email sender configured (noop, set PARISH_RESEND_API_KEY for real delivery)")
		}
	}
	web.SetEmailSender(sender, cfg.EmailFrom, emailReply)

	// Configure object storage for uploaded images
	if cfg.S3.Bucket != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(cfg.S3.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, "")),
		)
		if err != nil {
			log.Fatalf("failed to load aws config: %v", err)
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.S3.Endpoint != "" {
				o.BaseEndpoint = &cfg.S3.Endpoint
			}
		})
		web.SetObjectStore(&objstore.S3Store{
			Client:        client,
			Bucket:        cfg.S3.Bucket,
			PublicBaseURL: cfg.S3.Endpoint + "/" + cfg.S3.Bucket,
		})
		log.Println("Object store configured (S3)")
	} else {
		web.SetObjectStore(&objstore.LocalStore{Dir: cfg.UploadDir, BaseURL: "/uploads"})
		log.Printf("Object store configured (local dir %s)", cfg.UploadDir)
	}

	// Social post delivery: webhook when configured, logging otherwise
	var poster orchestrators.SocialPoster = social.LogPoster{}
	if cfg.SocialWebhookURL != "" {
		poster = social.NewWebhookPoster(cfg.SocialWebhookURL)
		log.Println("Social poster configured (webhook)")
	}

	// Outbox processor delivers emails and social posts with retry.
	// Permanently failed social posts roll their post back to failed.
	executors := map[string]orchestrators.ActionExecutor{
		outbox.ActionTypeEmail:      &orchestrators.EmailExecutor{Sender: sender, From: cfg.EmailFrom},
		outbox.ActionTypeSocialPost: &orchestrators.SocialPostExecutor{Poster: poster},
	}
	processor := orchestrators.NewOutboxProcessor(stores.OutboxStore, executors)
	processor.OnTerminalFailure = func(ctx context.Context, entry outbox.Entry) {
		if entry.ActionType != outbox.ActionTypeSocialPost {
			return
		}
		var payload orchestrators.SocialPostPayload
		if err := json.Unmarshal([]byte(entry.Payload), &payload); err != nil {
			slog.Error("post_fail_rollback_failed", "error", err.Error(), "entry_id", entry.ID)
			return
		}
		deps := orchestrators.SchedulePostDeps{PostStore: stores.PostStore, Now: time.Now}
		if err := orchestrators.ExecuteFailPost(ctx, payload.PostID, entry.ErrorMessage, deps); err != nil {
			slog.Error("post_fail_rollback_failed", "error", err.Error(), "post_id", payload.PostID)
		}
	}
	web.SetOutboxProcessor(processor)

	// Scheduled jobs run in the tenant-facing timezone so daily boundaries
	// match what admins expect.
	cronRunner := newCron(cfg)
	mustSchedule(cronRunner, cfg.OutboxCron, func() {
		if err := processor.ProcessPending(context.Background()); err != nil {
			slog.Error("outbox_job_failed", "error", err.Error())
		}
	})
	mustSchedule(cronRunner, cfg.PublishCron, func() {
		count, err := orchestrators.ExecutePublishDuePosts(context.Background(), orchestrators.PublishDuePostsDeps{
			PostStore:   stores.PostStore,
			OutboxStore: stores.OutboxStore,
			GenerateID:  newID,
			Now:         time.Now,
		})
		if err != nil {
			slog.Error("publish_job_failed", "error", err.Error())
		} else if count > 0 {
			slog.Info("publish_job_completed", "published", count)
		}
	})
	mustSchedule(cronRunner, cfg.ContinuationCron, func() {
		continueOpenSeries(context.Background(), stores)
	})
	cronRunner.Start()
	defer cronRunner.Stop()

	mux := web.NewMux("static", stores, collector)

	log.Printf("Parish %s starting on %s (env=%s)", version, cfg.Listen, envOrDefault("PARISH_ENV", "development"))
	if err := http.ListenAndServe(cfg.Listen, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// newCron builds the job runner in the configured timezone, falling back to
// the host timezone when the name does not resolve.
func newCron(cfg *config.Config) *cron.Cron {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Printf("invalid timezone %q, using local time: %v", cfg.Timezone, err)
		return cron.New()
	}
	return cron.New(cron.WithLocation(loc))
}

func mustSchedule(c *cron.Cron, spec string, job func()) {
	if _, err := c.AddFunc(spec, job); err != nil {
		log.Fatalf("invalid cron spec %q: %v", spec, err)
	}
}

// continueOpenSeries extends every open-ended recurring series so the
// forward horizon stays filled as time passes.
func continueOpenSeries(ctx context.Context, stores *web.Stores) {
	tenants, err := stores.TenantStore.List(ctx)
	if err != nil {
		slog.Error("continuation_job_failed", "error", err.Error())
		return
	}
	for _, t := range tenants {
		defs, err := stores.DefinitionStore.ListByTenant(ctx, t.ID)
		if err != nil {
			slog.Error("continuation_job_failed", "error", err.Error(), "tenant_id", t.ID)
			continue
		}
		for _, def := range defs {
			if !def.IsRecurring || !def.RecurrenceEndDate.IsZero() {
				continue
			}
			added, err := orchestrators.ExecuteContinueSeries(ctx, def.ID, orchestrators.ContinueSeriesDeps{
				DefinitionStore: stores.DefinitionStore,
				InstanceStore:   stores.InstanceStore,
			})
			if err != nil {
				slog.Error("continuation_failed", "error", err.Error(), "event_id", def.ID)
				continue
			}
			if len(added) > 0 {
				slog.Info("series_continued", "event_id", def.ID, "added", len(added))
			}
		}
	}
}

// newID creates a UUID for background jobs outside the HTTP layer.
func newID() string {
	return uuid.New().String()
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
