package v1

import (
	_ "codewhisperer/docs"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RegisterMetricsRoutes exposes the prometheus registry at /metrics
func RegisterMetricsRoutes(r *gin.RouterGroup) {
	handler := promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{EnableOpenMetrics: true})
	r.GET("/metrics", gin.WrapH(handler))
}

// RegisterSwaggerRoutes serves the generated API documentation
func RegisterSwaggerRoutes(r *gin.RouterGroup) {
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
