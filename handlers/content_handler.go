package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garpunkal/ColourWang-sub000/services"
)

type ContentHandler struct {
	content services.ContentStore
}

func NewContentHandler(content services.ContentStore) *ContentHandler {
	return &ContentHandler{content: content}
}

// ListTopics returns the topic catalog, which create-game UIs offer as the
// selectable topic list.
func (h *ContentHandler) ListTopics(c *gin.Context) {
	topics, err := h.content.Topics()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load topics"})
		return
	}
	c.JSON(http.StatusOK, topics)
}
