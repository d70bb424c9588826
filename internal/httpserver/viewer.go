package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"modelgallery/internal/viewer"
)

type productSelection struct {
	ProductID int64 `json:"product_id" binding:"required"`
}

type sessionResponse struct {
	SessionID string       `json:"session_id"`
	State     viewer.State `json:"state"`
}

func (h *handlers) openSession(c *gin.Context) {
	var req productSelection
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductID <= 0 {
		writeError(c, http.StatusBadRequest, "product_id must be a positive integer")
		return
	}
	token := bearerToken(c.GetHeader("Authorization"))
	sess := h.deps.Viewer.Open(token, req.ProductID)
	h.respondSettled(c, sess, http.StatusCreated)
}

func (h *handlers) getSession(c *gin.Context) {
	sess, ok := h.lookupSession(c)
	if !ok {
		return
	}
	h.respondState(c, sess, sess.Controller.State(), http.StatusOK)
}

func (h *handlers) switchProduct(c *gin.Context) {
	var req productSelection
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductID <= 0 {
		writeError(c, http.StatusBadRequest, "product_id must be a positive integer")
		return
	}
	sess, ok := h.lookupSession(c)
	if !ok {
		return
	}
	sess.Auth.Refresh(bearerToken(c.GetHeader("Authorization")))
	if _, err := h.deps.Viewer.SwitchProduct(sess.ID, req.ProductID); err != nil {
		h.sessionError(c, err)
		return
	}
	h.respondSettled(c, sess, http.StatusOK)
}

func (h *handlers) retrySession(c *gin.Context) {
	sess, ok := h.lookupSession(c)
	if !ok {
		return
	}
	sess.Auth.Refresh(bearerToken(c.GetHeader("Authorization")))
	if _, err := h.deps.Viewer.Retry(sess.ID); err != nil {
		h.sessionError(c, err)
		return
	}
	h.respondSettled(c, sess, http.StatusOK)
}

func (h *handlers) closeSession(c *gin.Context) {
	if err := h.deps.Viewer.Close(c.Param("sid")); err != nil {
		h.sessionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) lookupSession(c *gin.Context) (*viewer.Session, bool) {
	sess, err := h.deps.Viewer.Get(c.Param("sid"))
	if err != nil {
		h.sessionError(c, err)
		return nil, false
	}
	return sess, true
}

func (h *handlers) sessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, viewer.ErrSessionNotFound):
		writeError(c, http.StatusNotFound, "viewer session not found")
	case errors.Is(err, viewer.ErrNotStarted):
		writeError(c, http.StatusConflict, "viewer session has no product")
	default:
		h.logger.Printf("httpserver: viewer session=%s err=%v", c.Param("sid"), err)
		writeError(c, http.StatusInternalServerError, "viewer session failed")
	}
}

// respondSettled waits for the session to leave Loading. A session still
// loading when the wait ends is reported with 202.
func (h *handlers) respondSettled(c *gin.Context, sess *viewer.Session, status int) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.deps.SettleTimeout)
	defer cancel()
	state, err := sess.Controller.Wait(ctx)
	if err != nil {
		h.respondState(c, sess, state, http.StatusAccepted)
		return
	}
	h.respondState(c, sess, state, status)
}

func (h *handlers) respondState(c *gin.Context, sess *viewer.Session, state viewer.State, status int) {
	if state.LoginRequired {
		status = http.StatusUnauthorized
	}
	c.JSON(status, sessionResponse{SessionID: sess.ID, State: state})
}
