package api

import (
	"github.com/ankitarsangwan-bit/misrecon/config"

	"github.com/ankitarsangwan-bit/misrecon/api/middleware"

	"github.com/ankitarsangwan-bit/misrecon"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Api struct {
	misrecon *misrecon.Misrecon
	router   *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	router.POST("/uploads", a.UploadMISData)
	router.POST("/mappings/suggest", a.SuggestMapping)

	router.POST("/reconciliations", a.StartReconciliation)
	router.POST("/reconciliations/preview", a.PreviewReconciliation)
	router.GET("/reconciliations/:id", a.GetReconciliationRun)

	router.GET("/records/:id", a.GetApplicationRecord)
	router.GET("/conflicts/pending", a.GetPendingConflicts)

	router.GET("/reports/lead-quality", a.GetLeadQualityReport)
	router.GET("/reports/kyc", a.GetKYCReport)
	router.GET("/reports/funnel", a.GetStageFunnelReport)
	return a.router
}

func NewAPI(m *misrecon.Misrecon) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	r.Use(otelgin.Middleware("misrecon"))
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}
	r.Use(middleware.RateLimitMiddleware(conf))

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	return &Api{misrecon: m, router: r}
}
