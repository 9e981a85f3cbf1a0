package routes

import (
	"github.com/labstack/echo/v4"

	"operator-console/internal/controllers"
)

func runCardRouter(secureGroup *echo.Group, cardCtrl *controllers.CardController) {
	cards := secureGroup.Group("/cards")
	cards.POST("/disposition/status", cardCtrl.StatusChanged)
	cards.GET("/:id", cardCtrl.GetCard)
	cards.PUT("/:id", cardCtrl.SaveCard)
}
