package routes

import (
	"github.com/labstack/echo/v4"

	"operator-console/internal/controllers"
)

func runAdminRouter(secureGroup *echo.Group, importCtrl *controllers.ImportController, journalCtrl *controllers.JournalController) {
	admin := secureGroup.Group("/admin")
	admin.POST("/import", importCtrl.Import)
	admin.GET("/records", importCtrl.Records)
	admin.DELETE("/records", importCtrl.Clear)

	secureGroup.GET("/stats", journalCtrl.Stats)
	secureGroup.GET("/serviced", journalCtrl.Serviced)
}
