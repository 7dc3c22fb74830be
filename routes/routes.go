package routes

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/garpunkal/ColourWang-sub000/handlers"
	"github.com/garpunkal/ColourWang-sub000/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

func SetupRoutes(
	router *gin.Engine,
	gameHandler *handlers.GameHandler,
	contentHandler *handlers.ContentHandler,
	hub *services.Hub,
) {
	api := router.Group("/api")
	{
		api.GET("/topics", contentHandler.ListTopics)

		rooms := api.Group("/rooms")
		{
			rooms.GET("", gameHandler.ListRooms)
			rooms.GET("/:code", gameHandler.GetRoom)
		}
	}

	// All game events flow over this socket; the hub dispatches them.
	router.GET("/ws", func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}
		hub.RegisterClient(conn)
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
