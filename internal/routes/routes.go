package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"operator-console/internal/controllers"
	"operator-console/internal/services"
	"operator-console/pkg/config"
	"operator-console/pkg/middleware"
	"operator-console/pkg/service"
)

type Loggers struct {
	Main      *zap.Logger
	Auth      *zap.Logger
	Workspace *zap.Logger
	Card      *zap.Logger
	Admin     *zap.Logger
}

// Services - всё, что нужно маршрутам; собирается в main.
type Services struct {
	Session             services.SessionServiceInterface
	Search              services.SearchServiceInterface
	Preferences         services.PreferencesServiceInterface
	Serviced            services.ServicedServiceInterface
	ServicedPreferences services.PreferencesServiceInterface
	Card                services.CardServiceInterface
	Importer            services.ImporterServiceInterface
	Journal             services.JournalServiceInterface
}

func InitRouter(e *echo.Echo, svc Services, jwtSvc service.JWTService, cfg config.ConsoleConfig, loggers *Loggers) {
	loggers.Main.Info("InitRouter: Начало создания маршрутов")

	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(jwtSvc, loggers.Auth)

	runAuthRouter(api, controllers.NewAuthController(svc.Session, loggers.Auth), authMW)

	secureGroup := api.Group("", authMW.Auth)

	runWorkspaceRouter(secureGroup,
		controllers.NewWorkspaceController(svc.Search, svc.Preferences, cfg, loggers.Workspace),
		controllers.NewPreferencesController(svc.Preferences, loggers.Workspace),
		controllers.NewServicedController(svc.Serviced, svc.ServicedPreferences, loggers.Workspace),
		controllers.NewPreferencesController(svc.ServicedPreferences, loggers.Workspace))
	runCardRouter(secureGroup, controllers.NewCardController(svc.Card, loggers.Card))
	runAdminRouter(secureGroup,
		controllers.NewImportController(svc.Importer, loggers.Admin),
		controllers.NewJournalController(svc.Journal, loggers.Admin))

	loggers.Main.Info("INIT_ROUTER: Создание маршрутов завершено")
}
