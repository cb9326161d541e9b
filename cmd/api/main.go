package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/tu-usuario/pos-backend/internal/application/inventory"
	"github.com/tu-usuario/pos-backend/internal/application/sales"
	"github.com/tu-usuario/pos-backend/internal/application/usecase"
	"github.com/tu-usuario/pos-backend/internal/domain/repository"
	"github.com/tu-usuario/pos-backend/internal/infrastructure/memory"
	"github.com/tu-usuario/pos-backend/internal/infrastructure/postgres"
	httpRouter "github.com/tu-usuario/pos-backend/internal/interfaces/http"
	"github.com/tu-usuario/pos-backend/pkg/config"
	"github.com/tu-usuario/pos-backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("backend", cfg.App.StoreBackend).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var (
		warehouseRepo repository.WarehouseRepository
		levelRepo     repository.StockLevelRepository
		movRepo       repository.StockMovementRepository
		saleRepo      repository.SaleRepository
		invTx         inventory.TxRunner
		checkoutTx    sales.CheckoutTxRunner
	)

	switch cfg.App.StoreBackend {
	case config.StoreBackendMemory:
		// Desarrollo y demos: store en memoria con datos semilla
		store := memory.NewSeeded()
		warehouseRepo = store.WarehouseRepository()
		levelRepo = store.StockLevelRepository()
		movRepo = store.StockMovementRepository()
		saleRepo = store.SaleRepository()
		invTx = store
		checkoutTx = store
		log.Warn().Msg("usando backend en memoria, los datos no persisten")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()

		warehouseRepo = postgres.NewWarehouseRepository(pool)
		levelRepo = postgres.NewStockLevelRepository(pool)
		movRepo = postgres.NewStockMovementRepository(pool)
		saleRepo = postgres.NewSaleRepository(pool)
		txRunner := postgres.NewTxRunner(pool, cfg.DB.LockTimeoutMS)
		invTx = txRunner
		checkoutTx = txRunner
	}

	registerMovementUC := inventory.NewRegisterMovementUseCase(invTx, warehouseRepo)
	stockQueryUC := inventory.NewStockQueryUseCase(levelRepo, movRepo)
	checkoutUC := sales.NewCheckoutUseCase(checkoutTx, registerMovementUC, warehouseRepo)
	salesQueryUC := sales.NewSalesQueryUseCase(saleRepo)
	warehouseUC := usecase.NewWarehouseUseCase(warehouseRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "POS Backend API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		WarehouseUC:      warehouseUC,
		RegisterMovement: registerMovementUC,
		StockQuery:       stockQueryUC,
		Checkout:         checkoutUC,
		SalesQuery:       salesQueryUC,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
