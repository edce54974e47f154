package api

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.Engine, h *Handlers) {
	api := r.Group("/api")
	{
		api.GET("/health", health)
		api.GET("/qr", qrHandler)
		api.POST("/banner", h.bannerHandler)
	}
}

// NewRouter returns a gin engine with the preview routes and gin's
// recovery middleware.
func NewRouter(h *Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	RegisterRoutes(r, h)
	return r
}
