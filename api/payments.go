package api

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/Hanafy91/buddytour/internal/domain"
	"github.com/Hanafy91/buddytour/internal/paymob"
	"github.com/Hanafy91/buddytour/internal/service/payment"
	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	service    payment.PaymentUseCase
	hmacSecret string
}

func NewPaymentHandler(service payment.PaymentUseCase, hmacSecret string) *PaymentHandler {
	return &PaymentHandler{service: service, hmacSecret: hmacSecret}
}

func (h *PaymentHandler) Register(router *gin.RouterGroup) {
	router.POST("/initiate/:ref", h.initiate)
	router.POST("/callback", h.webhook)
	router.GET("/callback", h.redirect)
	router.GET("/status/:orderId", h.paymentStatus)
}

func (h *PaymentHandler) initiate(c *gin.Context) {
	result, err := h.service.InitiatePayment(c.Request.Context(), c.Param("ref"))
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"iframe_url":        result.IframeURL,
		"merchant_order_id": result.MerchantOrderID,
		"amount_cents":      result.AmountCents,
	})
}

// webhook handles the gateway's server-to-server POST. Anything verified and
// structurally valid is acknowledged with 200, business failures included;
// a non-2xx here only makes the gateway redeliver.
func (h *PaymentHandler) webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	if h.hmacSecret != "" {
		values, err := paymob.WebhookHMACValues(body)
		if err != nil || !paymob.VerifyHMAC(h.hmacSecret, c.Query("hmac"), values) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "hmac verification failed"})
			return
		}
	}

	event, err := payment.NormalizeWebhook(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
		return
	}

	h.dispatch(c, event)
}

// redirect handles the browser returning from the gateway's payment page.
// The gateway repeats the transaction outcome as query parameters, so it is
// processed like a webhook; reconciliation dedups when both channels arrive.
func (h *PaymentHandler) redirect(c *gin.Context) {
	query := c.Request.URL.Query()

	if h.hmacSecret != "" {
		if !paymob.VerifyHMAC(h.hmacSecret, query.Get("hmac"), paymob.RedirectHMACValues(query)) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "hmac verification failed"})
			return
		}
	}

	h.dispatch(c, payment.NormalizeRedirect(query))
}

func (h *PaymentHandler) dispatch(c *gin.Context, event payment.Notification) {
	err := h.service.HandleNotification(c.Request.Context(), event)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "processed"})
	case errors.Is(err, domain.ErrDuplicateNotification):
		c.JSON(http.StatusOK, gin.H{"status": "already processed"})
	case errors.Is(err, domain.ErrUnresolvableNotification),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrAmbiguousSession),
		errors.Is(err, domain.ErrInvalidTransition):
		// Acknowledged so the gateway stops redelivering; the engine already
		// logged the payload for manual reconciliation.
		c.JSON(http.StatusOK, gin.H{"status": "acknowledged"})
	default:
		log.Printf("notification processing error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *PaymentHandler) paymentStatus(c *gin.Context) {
	result, err := h.service.PaymentStatus(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         result.Status,
		"payment_status": result.PaymentStatus,
		"session_status": result.SessionStatus,
		"amount_cents":   result.AmountCents,
	})
}
