// Package handler serves the liveness endpoints used by the hosting platform.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const aliveMessage = "Bot is alive"

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// Alive answers GET /.
func (h *Handler) Alive(c *gin.Context) {
	c.String(http.StatusOK, aliveMessage)
}

// Health answers GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// NewRouter registers the liveness routes. Nothing else is exposed.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/", h.Alive)
	r.GET("/health", h.Health)
	return r
}
