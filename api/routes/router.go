package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Digigit24/kumsserpbackend-sub001/api/controllers"
	"github.com/Digigit24/kumsserpbackend-sub001/api/middleware"
	"github.com/Digigit24/kumsserpbackend-sub001/internal/indents"
	"github.com/Digigit24/kumsserpbackend-sub001/internal/inventory"
	"github.com/Digigit24/kumsserpbackend-sub001/internal/issues"
	"github.com/Digigit24/kumsserpbackend-sub001/internal/receipts"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/config"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/db"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/logger"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/redis"
)

// Services are the core components the HTTP adapter exposes.
type Services struct {
	Indents  indents.Service
	Issues   issues.Service
	Receipts receipts.Service
	Ledger   inventory.Service
}

// NewRouter wires the HTTP surface. A nil idempotency store disables replay
// protection; the redis pinger is then skipped by readiness.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	idempotencyStore redis.ReplayStore,
	redisP redis.Pinger,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	deps := map[string]controllers.Pinger{"database": dbP}
	if redisP != nil {
		deps["redis"] = redisP
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/api/public/ping", controllers.PublicPing())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/indents", func(r chi.Router) {
			r.Post("/", controllers.IndentCreate(svc.Indents, logg))
			r.Get("/", controllers.IndentList(svc.Indents, logg))
			r.Route("/{indentId}", func(r chi.Router) {
				r.Get("/", controllers.IndentDetail(svc.Indents, logg))
				r.Get("/history", controllers.IndentHistory(svc.Indents, logg))
				r.Post("/submit", controllers.IndentTransition(svc.Indents.Submit, logg))
				r.Post("/college-decision", controllers.IndentDecision(svc.Indents.CollegeAdminDecide, logg))
				r.Post("/super-admin-decision", controllers.IndentDecision(svc.Indents.SuperAdminDecide, logg))
				r.Post("/cancel", controllers.IndentTransition(svc.Indents.Cancel, logg))
				r.Post("/deactivate", controllers.IndentTransition(svc.Indents.Deactivate, logg))
				r.Post("/issues", controllers.IssueMaterials(svc.Issues, logg))
				r.Get("/issues", controllers.IndentIssues(svc.Issues, logg))
			})
		})

		r.Route("/issues/{issueId}", func(r chi.Router) {
			r.Get("/", controllers.IssueDetail(svc.Issues, logg))
			r.Post("/dispatch", controllers.IssueDispatch(svc.Issues, logg))
			r.Post("/in-transit", controllers.IssueInTransit(svc.Issues, logg))
			r.Post("/cancel", controllers.IssueCancel(svc.Issues, logg))
			r.Post("/receipt", controllers.IssueReceipt(svc.Receipts, logg))
		})

		r.Route("/inventory/{storeId}", func(r chi.Router) {
			r.Get("/", controllers.InventoryList(svc.Ledger, logg))
			r.Get("/low-stock", controllers.InventoryLowStock(svc.Ledger, logg))
			r.Route("/items/{itemId}", func(r chi.Router) {
				r.Get("/", controllers.InventoryRecord(svc.Ledger, logg))
				r.Get("/transactions", controllers.InventoryTransactions(svc.Ledger, logg))
				r.Post("/adjust", controllers.InventoryAdjust(svc.Ledger, logg))
				r.Put("/thresholds", controllers.InventoryThresholds(svc.Ledger, logg))
			})
		})
	})

	return r
}
