package handler

import (
	"context"
	"net/http"
	"time"

	"aviaskill/internal/model"
	"aviaskill/internal/repository"
	"aviaskill/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// WebhookHandler handles inbound Yandex.Dialogs requests
type WebhookHandler struct {
	dialog *service.DialogService
	turns  *repository.PostgresRepository // nil when turn logging is disabled
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(dialog *service.DialogService, turns *repository.PostgresRepository) *WebhookHandler {
	return &WebhookHandler{
		dialog: dialog,
		turns:  turns,
	}
}

// Handle handles POST /post
func (h *WebhookHandler) Handle(c *gin.Context) {
	var req model.WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	requestID := uuid.NewString()
	start := time.Now()

	logrus.WithFields(logrus.Fields{
		"request_id":  requestID,
		"command":     req.Request.Command,
		"tokens":      len(req.Request.NLU.Tokens),
		"new_session": req.NewSession(),
	}).Info("Dialog turn received")

	result := h.dialog.HandleTurn(c.Request.Context(), service.Turn{
		NewSession: req.NewSession(),
		Command:    req.Request.Command,
		Tokens:     req.Request.NLU.Tokens,
	})

	latency := time.Since(start)
	logrus.WithFields(logrus.Fields{
		"request_id": requestID,
		"intent":     string(result.Intent),
		"buttons":    len(result.Payload.Buttons),
		"latency_ms": latency.Milliseconds(),
	}).Info("Dialog turn handled")

	if h.turns != nil {
		// Fire-and-forget: a failed insert must not fail the turn.
		rec := &repository.TurnRecord{
			RequestID: requestID,
			Command:   req.Request.Command,
			Intent:    string(result.Intent),
			ReplyText: result.Payload.Text,
			LatencyMs: latency.Milliseconds(),
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := h.turns.SaveTurn(ctx, rec); err != nil {
				logrus.WithError(err).WithField("request_id", rec.RequestID).Warn("Failed to save turn record")
			}
		}()
	}

	c.JSON(http.StatusOK, model.WebhookResponse{
		Session:  req.Session,
		Version:  req.Version,
		Response: result.Payload,
	})
}
