package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garpunkal/ColourWang-sub000/services"
)

type GameHandler struct {
	gameService *services.GameService
	registry    *services.Registry
}

func NewGameHandler(gameService *services.GameService, registry *services.Registry) *GameHandler {
	return &GameHandler{
		gameService: gameService,
		registry:    registry,
	}
}

// ListRooms returns summaries of every live room.
func (h *GameHandler) ListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, h.registry.Summaries())
}

// GetRoom returns a full room snapshot, served from the Redis mirror when it
// has one.
func (h *GameHandler) GetRoom(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room code required"})
		return
	}

	game, err := h.gameService.MirroredGame(code)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	c.JSON(http.StatusOK, game)
}
