package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/medstore/pos-backend/internal/db"
	"github.com/medstore/pos-backend/internal/modules/audit"
	"github.com/medstore/pos-backend/internal/modules/auth"
	"github.com/medstore/pos-backend/internal/modules/billing"
	"github.com/medstore/pos-backend/internal/modules/catalog"
	"github.com/medstore/pos-backend/internal/modules/inventory"
	"github.com/medstore/pos-backend/internal/modules/report"
	"github.com/medstore/pos-backend/internal/modules/returns"
	"github.com/medstore/pos-backend/internal/modules/user"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	pool, err := sql.Open("postgres", os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	if err := pool.Ping(); err != nil {
		log.Fatal(err)
	}
	if err := db.Migrate(pool); err != nil {
		log.Fatal(err)
	}
	fmt.Println("Successfully connected to the database!")

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)

	// ── Audit trail (everything else records into it) ───────
	auditRepo := audit.NewPostgresRepository(pool)
	auditService := audit.NewService(auditRepo)
	audit.NewHandler(auditService).RegisterRoutes(router)

	// ── Identity ────────────────────────────────────────────
	userRepo := user.NewPostgresRepository(pool)
	userService := user.NewService(userRepo, auditService)
	user.NewHandler(userService).RegisterRoutes(router)

	authService := auth.NewService(userService, auditService)
	auth.NewHandler(authService).RegisterRoutes(router)

	// ── Catalog & Inventory ─────────────────────────────────
	inventoryRepo := inventory.NewPostgresRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo, auditService)
	inventory.NewHandler(inventoryService).RegisterRoutes(router)

	catalogRepo := catalog.NewPostgresRepository(pool)
	catalogService := catalog.NewService(catalogRepo, inventoryService, auditService)
	catalog.NewHandler(catalogService).RegisterRoutes(router)

	// ── Billing & Returns ───────────────────────────────────
	billingRepo := billing.NewPostgresRepository(pool)
	billingService := billing.NewService(billingRepo, catalogService, inventoryService, auditService)
	billing.NewHandler(billingService).RegisterRoutes(router)

	returnsRepo := returns.NewPostgresRepository(pool)
	returnsService := returns.NewService(returnsRepo, billingService, auditService)
	returns.NewHandler(returnsService).RegisterRoutes(router)

	// ── Reporting ───────────────────────────────────────────
	reportRepo := report.NewPostgresRepository(pool)
	reportService := report.NewService(reportRepo)
	report.NewHandler(reportService).RegisterRoutes(router)

	// ── Start Server ────────────────────────────────────────
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	fmt.Printf("Medstore POS API server starting on :%s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, router))
}
