package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/mensylisir/hostboard/pkg/logger"
	"github.com/mensylisir/hostboard/rest/app"
)

// ActionHandler serves the mutating action endpoints.
type ActionHandler struct {
	service *app.ActionService
	log     *logger.Logger
}

// NewActionHandler creates an ActionHandler.
func NewActionHandler(service *app.ActionService, log *logger.Logger) *ActionHandler {
	return &ActionHandler{
		service: service,
		log:     log.With("component", "action-handler"),
	}
}

// InterfaceActionRequest selects an interface and a desired state.
type InterfaceActionRequest struct {
	Action string `json:"action" binding:"required"`
	Name   string `json:"name" binding:"required"`
}

// PostInterfaceAction godoc
// @Summary Bring a network interface up or down
// @Accept json
// @Produce json
// @Success 200 {object} Envelope
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/network/interfaces [post]
func (h *ActionHandler) PostInterfaceAction(c *gin.Context) {
	var req InterfaceActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, errors.Wrap(err, "invalid request payload"))
		return
	}
	if req.Action != "up" && req.Action != "down" {
		respondError(c, http.StatusBadRequest, errors.Errorf("unsupported interface action '%s'", req.Action))
		return
	}
	if err := h.service.SetInterfaceState(c.Request.Context(), req.Name, req.Action == "up"); err != nil {
		h.log.Errorf("interface action failed: %v", err)
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondOK(c, gin.H{"name": req.Name, "action": req.Action})
}

// PortActionRequest opens or closes a firewall port.
type PortActionRequest struct {
	Action   string `json:"action" binding:"required"`
	Port     int    `json:"port" binding:"required"`
	Protocol string `json:"protocol"`
}

// PostPortAction godoc
// @Summary Open or close a port in the firewall
// @Accept json
// @Produce json
// @Success 200 {object} Envelope
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/firewall/ports [post]
func (h *ActionHandler) PostPortAction(c *gin.Context) {
	var req PortActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, errors.Wrap(err, "invalid request payload"))
		return
	}
	if req.Protocol == "" {
		req.Protocol = "tcp"
	}
	var err error
	switch req.Action {
	case "open":
		err = h.service.OpenPort(c.Request.Context(), req.Port, req.Protocol)
	case "close":
		err = h.service.ClosePort(c.Request.Context(), req.Port, req.Protocol)
	default:
		respondError(c, http.StatusBadRequest, errors.Errorf("unsupported port action '%s'", req.Action))
		return
	}
	if err != nil {
		h.log.Errorf("port action failed: %v", err)
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondOK(c, gin.H{"port": req.Port, "protocol": req.Protocol, "action": req.Action})
}

// RuleActionRequest describes a firewall rule to append.
type RuleActionRequest struct {
	Chain           string `json:"chain" binding:"required"`
	Action          string `json:"action" binding:"required"`
	Protocol        string `json:"protocol"`
	Source          string `json:"source"`
	Destination     string `json:"destination"`
	DestinationPort int    `json:"destinationPort"`
}

// PostRuleAction godoc
// @Summary Append a firewall rule
// @Accept json
// @Produce json
// @Success 200 {object} Envelope
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/firewall/rules [post]
func (h *ActionHandler) PostRuleAction(c *gin.Context) {
	var req RuleActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, errors.Wrap(err, "invalid request payload"))
		return
	}
	if req.Protocol == "" {
		req.Protocol = "any"
	}
	spec := app.FirewallRuleSpec{
		Chain:           req.Chain,
		Action:          req.Action,
		Protocol:        req.Protocol,
		Source:          req.Source,
		Destination:     req.Destination,
		DestinationPort: req.DestinationPort,
	}
	if err := h.service.AddRule(c.Request.Context(), spec); err != nil {
		h.log.Errorf("rule action failed: %v", err)
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondOK(c, gin.H{"chain": req.Chain, "action": req.Action, "protocol": req.Protocol})
}

// UnitActionRequest controls a compute unit lifecycle.
type UnitActionRequest struct {
	Action  string `json:"action" binding:"required"`
	Backend string `json:"backend" binding:"required"`
	Name    string `json:"name" binding:"required"`
}

// PostUnitAction godoc
// @Summary Start, stop, pause or resume a compute unit
// @Accept json
// @Produce json
// @Success 200 {object} Envelope
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/compute/units [post]
func (h *ActionHandler) PostUnitAction(c *gin.Context) {
	var req UnitActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, errors.Wrap(err, "invalid request payload"))
		return
	}
	if err := h.service.ControlUnit(c.Request.Context(), req.Backend, req.Name, req.Action); err != nil {
		if errors.Is(err, app.ErrNotAllowed) {
			respondError(c, http.StatusBadRequest, err)
			return
		}
		h.log.Errorf("unit action failed: %v", err)
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondOK(c, gin.H{"backend": req.Backend, "name": req.Name, "action": req.Action})
}

// ExecuteRequest runs an allow-listed command.
type ExecuteRequest struct {
	Argv []string `json:"argv" binding:"required"`
}

// PostExecute godoc
// @Summary Execute an allow-listed command as an argument vector
// @Accept json
// @Produce json
// @Success 200 {object} Envelope
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/system/execute [post]
func (h *ActionHandler) PostExecute(c *gin.Context) {
	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, errors.Wrap(err, "invalid request payload"))
		return
	}
	output, err := h.service.Execute(c.Request.Context(), req.Argv)
	if err != nil {
		if errors.Is(err, app.ErrNotAllowed) {
			respondError(c, http.StatusBadRequest, err)
			return
		}
		h.log.Errorf("execute action failed: %v", err)
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondOK(c, gin.H{"output": output})
}
