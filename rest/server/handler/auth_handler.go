package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/mensylisir/hostboard/pkg/logger"
	"github.com/mensylisir/hostboard/pkg/session"
)

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "hostboard_session"

// AuthHandler serves login/logout and the verification middleware.
type AuthHandler struct {
	store *session.Store
	log   *logger.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(store *session.Store, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		store: store,
		log:   log.With("component", "auth-handler"),
	}
}

// LoginRequest carries credentials for session creation.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login godoc
// @Summary Create a session
// @Accept json
// @Produce json
// @Success 200 {object} Envelope
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, errors.Wrap(err, "invalid request payload"))
		return
	}
	token, err := h.store.Login(req.Username, req.Password)
	if err != nil {
		h.log.Warnf("auth: failed login for user %s", req.Username)
		respondError(c, http.StatusUnauthorized, session.ErrInvalidCredentials)
		return
	}
	c.SetCookie(SessionCookie, token, 0, "/", "", false, true)
	h.log.Successf("auth: user %s logged in", req.Username)
	respondOK(c, gin.H{"token": token})
}

// Logout godoc
// @Summary Destroy the current session
// @Produce json
// @Success 200 {object} Envelope
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := extractToken(c); token != "" {
		if err := h.store.Logout(token); err != nil {
			h.log.Warnf("auth: logout failed: %v", err)
		}
	}
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
	respondOK(c, gin.H{"loggedOut": true})
}

// Middleware rejects requests without a valid session.
func (h *AuthHandler) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			respondError(c, http.StatusUnauthorized, errors.New("missing session token"))
			c.Abort()
			return
		}
		user, err := h.store.Verify(token)
		if err != nil {
			respondError(c, http.StatusUnauthorized, err)
			c.Abort()
			return
		}
		c.Set("user", user)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if token, err := c.Cookie(SessionCookie); err == nil && token != "" {
		return token
	}
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
