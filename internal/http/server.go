package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/nan5895/church-budget-app/internal/blob"
	"github.com/nan5895/church-budget-app/internal/cache"
	"github.com/nan5895/church-budget-app/internal/core"
	"github.com/nan5895/church-budget-app/internal/log"
	"github.com/nan5895/church-budget-app/internal/middleware/ratelimit"
	"github.com/nan5895/church-budget-app/internal/middleware/security"
	"github.com/nan5895/church-budget-app/internal/middleware/trace"
	"github.com/nan5895/church-budget-app/internal/ocr"
	"github.com/nan5895/church-budget-app/internal/sheets"
	appweb "github.com/nan5895/church-budget-app/web"
)

const snapshotKey = "snapshot"

// Options carries the optional collaborators and tunables of the server.
// Recognizer and Uploader may be nil: receipt scanning then reports a
// service-unavailable state and uploads degrade to an empty URL, but
// expense entry keeps working.
type Options struct {
	Recognizer ocr.TextRecognizer
	Uploader   blob.Uploader
	Logger     *log.Logger

	RateLimitPerMinute int
	CacheTTL           time.Duration
	TrustedProxies     []string
}

// appMetrics tracks application-level counters exposed on /metrics.
type appMetrics struct {
	transactionsCreated int64
	cacheHits           int64
	cacheMisses         int64
	startedAt           time.Time
}

// snapshot is one consistent read of both worksheets. Every dashboard,
// list and report figure derives from a snapshot, never from per-row
// reads.
type snapshot struct {
	Transactions []core.Transaction
	Budgets      []core.BudgetEntry
}

type Server struct {
	http.Server
	templates  *template.Template
	store      sheets.Store
	recognizer ocr.TextRecognizer
	uploader   blob.Uploader
	logger     *log.Logger

	tracer   *trace.Middleware
	detector *security.Detector
	limiter  *ratelimit.Limiter

	snapshotCache *cache.LRUCache[snapshot]
	overviewCache *cache.LRUCache[core.MonthOverview]
	cacheManager  *cache.Manager
	loads         singleflight.Group

	metrics      appMetrics
	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server. The middleware chain is trace (request ID and
// request logs), then security headers plus suspicion detection, then
// rate limiting on mutating methods.
func NewServer(addr string, store sheets.Store, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	cacheTTL := opts.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 3 * time.Minute
	}

	mux := http.NewServeMux()

	s := &Server{
		Server:        http.Server{Addr: addr},
		store:         store,
		recognizer:    opts.Recognizer,
		uploader:      opts.Uploader,
		logger:        logger.WithComponent(log.ComponentHTTP),
		detector:      security.NewDetector(),
		limiter:       ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		snapshotCache: cache.NewLRUCache[snapshot](4, cacheTTL),
		overviewCache: cache.NewLRUCache[core.MonthOverview](100, cacheTTL),
		cacheManager:  cache.NewManager(),
		metrics:       appMetrics{startedAt: time.Now()},
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, logger)

	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring invalid trusted proxy", "cidr", cidr, log.FieldError, err.Error())
		}
	}

	s.cacheManager.Register(s.snapshotCache)
	s.cacheManager.Register(s.overviewCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed to parse templates", log.FieldError, err.Error())
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static assets", log.FieldError, err.Error())
	}

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	mux.HandleFunc("/ui/dashboard", s.handleDashboard)
	mux.HandleFunc("/ui/transactions", s.handleTransactionList)
	mux.HandleFunc("/ui/budgets", s.handleBudgetList)

	mux.HandleFunc("/transactions", s.handleCreateTransaction)
	mux.HandleFunc("/transactions/update", s.handleUpdateTransaction)
	mux.HandleFunc("/transactions/delete", s.handleDeleteTransaction)
	mux.HandleFunc("/receipts/scan", s.handleScanReceipt)
	mux.HandleFunc("/budgets", s.handleCreateBudget)
	mux.HandleFunc("/budgets/update", s.handleUpdateBudget)
	mux.HandleFunc("/budgets/delete", s.handleDeleteBudget)
	mux.HandleFunc("/budgets/migrate", s.handleMigrateBudget)

	mux.HandleFunc("/reports/excel", s.handleExcelReport)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit)(handler)
	handler = s.suspicionMiddleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)
	s.Handler = handler

	return s
}

// suspicionMiddleware flags scanner-looking requests without blocking
// them; the counter surfaces on /metrics and the log line carries the
// resolved client IP.
func (s *Server) suspicionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			s.logger.WarnContext(r.Context(), "Suspicious request detected",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, s.detector.ExtractClientIP(r))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	w.Header().Set("Retry-After", "60")
	http.Error(w, "요청이 너무 많습니다. 잠시 후 다시 시도해 주세요.", http.StatusTooManyRequests)
}

// Shutdown stops background cache cleanup and the rate limiter before
// the HTTP listener drains.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// loadSnapshot returns the cached worksheet snapshot, fetching both
// lists concurrently on a miss. Concurrent misses share one fetch,
// and the fetch runs detached from the requesting context so one
// cancelled request cannot fail the other waiters.
func (s *Server) loadSnapshot(ctx context.Context) (snapshot, error) {
	if snap, found := s.snapshotCache.Get(snapshotKey); found {
		atomic.AddInt64(&s.metrics.cacheHits, 1)
		return snap, nil
	}
	atomic.AddInt64(&s.metrics.cacheMisses, 1)

	v, err, _ := s.loads.Do(snapshotKey, func() (any, error) {
		cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var snap snapshot
		g, gctx := errgroup.WithContext(cctx)
		g.Go(func() error {
			txs, err := s.store.ListTransactions(gctx)
			if err != nil {
				return fmt.Errorf("list transactions: %w", err)
			}
			snap.Transactions = txs
			return nil
		})
		g.Go(func() error {
			entries, err := s.store.ListBudgets(gctx)
			if err != nil {
				return fmt.Errorf("list budgets: %w", err)
			}
			snap.Budgets = entries
			return nil
		})
		if err := g.Wait(); err != nil {
			return snapshot{}, err
		}
		s.snapshotCache.Set(snapshotKey, snap)
		return snap, nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Snapshot load failed", log.FieldError, err.Error())
		return snapshot{}, err
	}
	return v.(snapshot), nil
}

// getOverview returns the dashboard aggregation for one year and
// month, cached per period.
func (s *Server) getOverview(ctx context.Context, year, month int) (core.MonthOverview, error) {
	key := strconv.Itoa(year) + "-" + strconv.Itoa(month)
	if ov, found := s.overviewCache.Get(key); found {
		atomic.AddInt64(&s.metrics.cacheHits, 1)
		return ov, nil
	}
	atomic.AddInt64(&s.metrics.cacheMisses, 1)

	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return core.MonthOverview{}, err
	}
	ov := core.BuildOverview(snap.Transactions, snap.Budgets, year, month)
	s.overviewCache.Set(key, ov)
	return ov, nil
}

// invalidate drops every cached read. Writes are rare next to reads
// here, so clearing both caches wholesale keeps invalidation correct
// without key bookkeeping.
func (s *Server) invalidate() {
	s.snapshotCache.Clear()
	s.overviewCache.Clear()
}
