package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pachinko/internal/game"
)

// GetConfig returns the machine profile and the layout it produces, which is
// everything a renderer needs to draw the static board.
func GetConfig(machine game.Config, field *game.Field) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"machine":     machine,
			"field":       field,
			"launch_cost": machine.LaunchCost,
			"top_up":      game.TopUpAmount,
		})
	}
}
