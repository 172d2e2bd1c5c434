package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mensylisir/hostboard/pkg/logger"
	"github.com/mensylisir/hostboard/rest/app"
)

// FactsHandler serves the read-only fact endpoints. The engine's
// degradation contract means these handlers always answer 200 with
// data; only a cancelled request context can cut a response short.
type FactsHandler struct {
	service *app.SnapshotService
	log     *logger.Logger
}

// NewFactsHandler creates a FactsHandler.
func NewFactsHandler(service *app.SnapshotService, log *logger.Logger) *FactsHandler {
	return &FactsHandler{
		service: service,
		log:     log.With("component", "facts-handler"),
	}
}

// GetInterfaces godoc
// @Summary List network interfaces
// @Produce json
// @Success 200 {object} Envelope
// @Router /api/v1/network/interfaces [get]
func (h *FactsHandler) GetInterfaces(c *gin.Context) {
	respondOK(c, h.service.Interfaces(c.Request.Context()))
}

// GetConnections godoc
// @Summary List active socket connections
// @Produce json
// @Success 200 {object} Envelope
// @Router /api/v1/network/connections [get]
func (h *FactsHandler) GetConnections(c *gin.Context) {
	respondOK(c, h.service.Connections(c.Request.Context()))
}

// GetPorts godoc
// @Summary List listening ports
// @Produce json
// @Success 200 {object} Envelope
// @Router /api/v1/network/ports [get]
func (h *FactsHandler) GetPorts(c *gin.Context) {
	respondOK(c, h.service.Ports(c.Request.Context()))
}

// GetFirewallRules godoc
// @Summary List normalized firewall rules
// @Produce json
// @Success 200 {object} Envelope
// @Router /api/v1/firewall/rules [get]
func (h *FactsHandler) GetFirewallRules(c *gin.Context) {
	respondOK(c, h.service.FirewallRules(c.Request.Context()))
}

// GetVolumes godoc
// @Summary List storage volumes
// @Produce json
// @Success 200 {object} Envelope
// @Router /api/v1/storage/volumes [get]
func (h *FactsHandler) GetVolumes(c *gin.Context) {
	respondOK(c, h.service.Volumes(c.Request.Context()))
}

// GetComputeUnits godoc
// @Summary List VMs, containers or fallback processes
// @Produce json
// @Success 200 {object} Envelope
// @Router /api/v1/compute/units [get]
func (h *FactsHandler) GetComputeUnits(c *gin.Context) {
	respondOK(c, h.service.ComputeUnits(c.Request.Context()))
}

// GetLoad godoc
// @Summary Get system load and memory
// @Produce json
// @Success 200 {object} Envelope
// @Router /api/v1/system/load [get]
func (h *FactsHandler) GetLoad(c *gin.Context) {
	respondOK(c, h.service.Load(c.Request.Context()))
}

// GetSnapshot godoc
// @Summary Get a full host snapshot across all fact families
// @Produce json
// @Success 200 {object} Envelope
// @Router /api/v1/system/snapshot [get]
func (h *FactsHandler) GetSnapshot(c *gin.Context) {
	respondOK(c, h.service.Snapshot(c.Request.Context()))
}
