package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"modelgallery/internal/domain"
	"modelgallery/internal/service/account"
)

type signupRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"displayName"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"`
	User        userResponse `json:"user"`
}

func toUserResponse(u domain.User) userResponse {
	created := u.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   created,
	}
}

func (h *handlers) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "email and password are required")
		return
	}
	u, err := h.deps.Accounts.Signup(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(c, http.StatusConflict, "an account with this email already exists")
		return
	case errors.Is(err, account.ErrInvalidSignup):
		writeError(c, http.StatusBadRequest, strings.TrimPrefix(err.Error(), account.ErrInvalidSignup.Error()+": "))
		return
	default:
		h.logger.Printf("httpserver: signup email=%s err=%v", req.Email, err)
		writeError(c, http.StatusInternalServerError, "signup failed")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": toUserResponse(*u)})
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "email and password are required")
		return
	}
	u, token, err := h.deps.Accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			writeError(c, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.logger.Printf("httpserver: login email=%s err=%v", req.Email, err)
		writeError(c, http.StatusInternalServerError, "login failed")
		return
	}
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   h.deps.Accounts.AccessTTLSeconds(),
		User:        toUserResponse(*u),
	})
}

func (h *handlers) logout(c *gin.Context) {
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		writeError(c, http.StatusUnauthorized, "missing bearer token")
		return
	}
	if err := h.deps.Accounts.Logout(c.Request.Context(), token); err != nil {
		if errors.Is(err, account.ErrInvalidToken) {
			writeError(c, http.StatusUnauthorized, "invalid token")
			return
		}
		h.logger.Printf("httpserver: logout err=%v", err)
		writeError(c, http.StatusInternalServerError, "logout failed")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) me(c *gin.Context) {
	u, ok := userFromContext(c.Request.Context())
	if !ok {
		writeError(c, http.StatusUnauthorized, "invalid token")
		return
	}
	c.JSON(http.StatusOK, toUserResponse(*u))
}
