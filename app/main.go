// Файл: main.go

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"operator-console/internal/infrastructure/migrations"
	"operator-console/internal/integrations/backend"
	"operator-console/internal/listeners"
	"operator-console/internal/repositories"
	"operator-console/internal/routes"
	"operator-console/internal/services"
	"operator-console/pkg/api"
	"operator-console/pkg/config"
	"operator-console/pkg/database/postgresql"
	apperrors "operator-console/pkg/errors"
	"operator-console/pkg/eventbus"
	"operator-console/pkg/filestorage"
	applogger "operator-console/pkg/logger"
	"operator-console/pkg/middleware"
	"operator-console/pkg/service"
	"operator-console/pkg/validation"
)

func main() {
	// 1. Конфиг и логгер
	cfg := config.New()
	logger := applogger.NewLogger(cfg.Log.Level, cfg.Log.File)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()

	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("!!! ОБНАРУЖЕНА ПАНИКА (PANIC) !!!",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.String("stack", string(stack)),
			)
			if !c.Response().Committed {
				httpErr := apperrors.NewHttpError(http.StatusInternalServerError, "Внутренняя ошибка сервера", err, nil)
				_ = api.ErrorResponse(c, httpErr, logger)
			}
			return err
		},
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		ExposeHeaders:    []string{"Content-Disposition"},
	}))
	e.Use(middleware.RequestLogger(logger.Named("http")))

	// 2. Хранилища
	dbConn, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN, logger)
	if err != nil {
		logger.Fatal("не удалось подключиться к PostgreSQL", zap.Error(err))
	}
	defer dbConn.Close()

	if err := migrations.Up(ctx, dbConn); err != nil {
		logger.Fatal("не удалось применить миграции", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		logger.Fatal("не удалось подключиться к Redis", zap.Error(err), zap.String("address", cfg.Redis.Address))
	}

	cacheRepo := repositories.NewRedisCacheRepository(redisClient)
	tokenRepo := repositories.NewSessionTokenRepository(cacheRepo, cfg.Console.TokenSecret, cfg.Console.SessionTTL)
	importedRepo := repositories.NewImportedRecordRepository(dbConn, logger.Named("imported"))
	servicedRepo := repositories.NewServicedCallRepository(dbConn)

	archive, err := filestorage.NewLocalFileStorage(cfg.Console.ImportArchiveDir)
	if err != nil {
		logger.Fatal("не удалось подготовить архив импорта", zap.Error(err))
	}

	// 3. Бэкенд
	client := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, tokenRepo, logger.Named("backend"))
	registry, err := client.Registry()
	if err != nil {
		logger.Fatal("не удалось зарегистрировать коллекции", zap.Error(err))
	}

	// 4. Сервисы и шина событий
	bus := eventbus.New(logger.Named("eventbus"))
	jwtSvc := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL, logger.Named("jwt"))

	searchSvc, err := services.NewSearchService(client, registry, cacheRepo, cfg.Console, logger.Named("search"))
	if err != nil {
		logger.Fatal("не удалось создать сервис поиска", zap.Error(err))
	}
	servicedPrefs := services.NewServicedPreferencesService(cacheRepo, cfg.Console, logger.Named("preferences"))
	servicedSvc, err := services.NewServicedService(registry, servicedPrefs, logger.Named("serviced"))
	if err != nil {
		logger.Fatal("не удалось создать сервис обслуженных", zap.Error(err))
	}
	journalSvc := services.NewJournalService(servicedRepo, logger.Named("journal"))
	listeners.NewJournalListener(journalSvc, logger.Named("journal")).Register(bus)

	svc := routes.Services{
		Session:             services.NewSessionService(client, jwtSvc, cacheRepo, logger.Named("session")),
		Search:              searchSvc,
		Preferences:         services.NewPreferencesService(cacheRepo, cfg.Console, logger.Named("preferences")),
		Serviced:            servicedSvc,
		ServicedPreferences: servicedPrefs,
		Card:                services.NewCardService(registry, cacheRepo, bus, cfg.Console.SaveCooldown, cfg.Console.SessionTTL, logger.Named("card")),
		Importer:            services.NewImporterService(importedRepo, cacheRepo, client, archive, cfg.Console, logger.Named("importer")),
		Journal:             journalSvc,
	}

	// 5. Роуты
	routes.InitRouter(e, svc, jwtSvc, cfg.Console, &routes.Loggers{
		Main:      logger,
		Auth:      logger.Named("auth"),
		Workspace: logger.Named("workspace"),
		Card:      logger.Named("card"),
		Admin:     logger.Named("admin"),
	})

	// 6. Запуск и остановка
	go func() {
		logger.Info("🚀 Сервер запущен", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Ошибка запуска сервера", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Остановка сервера")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка остановки сервера", zap.Error(err))
	}
	bus.Wait()
}
