package routes

import (
	"github.com/labstack/echo/v4"

	"operator-console/internal/controllers"
)

func runWorkspaceRouter(
	secureGroup *echo.Group,
	workspaceCtrl *controllers.WorkspaceController,
	prefsCtrl *controllers.PreferencesController,
	servicedCtrl *controllers.ServicedController,
	servicedPrefsCtrl *controllers.PreferencesController,
) {
	workspace := secureGroup.Group("/workspace")
	workspace.GET("/search", workspaceCtrl.Search)
	workspace.GET("/stale", workspaceCtrl.Stale)
	workspace.GET("/serviced", servicedCtrl.List)

	prefs := secureGroup.Group("/preferences")
	prefs.GET("/columns", prefsCtrl.GetColumns)
	prefs.PUT("/columns", prefsCtrl.PutColumns)
	prefs.DELETE("/columns", prefsCtrl.DeleteColumns)
	prefs.GET("/search", workspaceCtrl.SearchState)

	prefs.GET("/serviced/columns", servicedPrefsCtrl.GetColumns)
	prefs.PUT("/serviced/columns", servicedPrefsCtrl.PutColumns)
	prefs.DELETE("/serviced/columns", servicedPrefsCtrl.DeleteColumns)
	prefs.GET("/serviced/search", servicedCtrl.State)
}
