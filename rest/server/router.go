package server

import (
	"github.com/gin-gonic/gin"

	"github.com/mensylisir/hostboard/pkg/logger"
	"github.com/mensylisir/hostboard/rest/server/handler"
)

// SetupRouter builds the gin engine and mounts every API route. Fact
// reads and actions sit behind the session middleware; login itself and
// the health probe do not.
func SetupRouter(log *logger.Logger, factsH *handler.FactsHandler, actionH *handler.ActionHandler, authH *handler.AuthHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	v1.POST("/auth/login", authH.Login)
	v1.POST("/auth/logout", authH.Logout)

	authed := v1.Group("", authH.Middleware())
	{
		network := authed.Group("/network")
		network.GET("/interfaces", factsH.GetInterfaces)
		network.POST("/interfaces", actionH.PostInterfaceAction)
		network.GET("/connections", factsH.GetConnections)
		network.GET("/ports", factsH.GetPorts)

		firewall := authed.Group("/firewall")
		firewall.GET("/rules", factsH.GetFirewallRules)
		firewall.POST("/rules", actionH.PostRuleAction)
		firewall.POST("/ports", actionH.PostPortAction)

		authed.GET("/storage/volumes", factsH.GetVolumes)

		compute := authed.Group("/compute")
		compute.GET("/units", factsH.GetComputeUnits)
		compute.POST("/units", actionH.PostUnitAction)

		system := authed.Group("/system")
		system.GET("/load", factsH.GetLoad)
		system.GET("/snapshot", factsH.GetSnapshot)
		system.POST("/execute", actionH.PostExecute)
	}

	return router
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Debugf("http: %s %s -> %d", c.Request.Method, c.Request.URL.Path, c.Writer.Status())
	}
}
