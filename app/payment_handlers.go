// Package app handles the payment flow: order creation and signature
// verification. The provider's checkout UI runs on the frontend; this side
// only records the order and consumes the signed pass/fail outcome.
package app

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/dexten32/accuscanner/app/config"
	"github.com/dexten32/accuscanner/app/models"
	"github.com/dexten32/accuscanner/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const proSubscriptionDays = 30

// CreateOrder opens a pending payment for the PRO upgrade and returns the
// order details the frontend checkout needs.
func CreateOrder(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("payment config load failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	orderID := "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	receipt := "receipt_" + uuid.NewString()

	if err := createPayment(c.Request.Context(), claims.UserID, orderID, cfg.Payment.AmountPaise, "INR"); err != nil {
		log.Printf("payment record create failed user=%s: %v", claims.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       orderID,
		"amount":   cfg.Payment.AmountPaise,
		"currency": "INR",
		"receipt":  receipt,
		"key_id":   cfg.Payment.KeyID,
	})
}

type verifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// VerifyPayment checks the provider signature over "orderID|paymentID" and,
// on success, marks the payment and upgrades the subscription to PRO for 30
// days.
func VerifyPayment(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing payment details"})
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("payment config load failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	if !verifySignature(cfg.Payment.KeySecret, req.OrderID, req.PaymentID, req.Signature) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Signature"})
		return
	}

	if err := markPaymentSuccess(c.Request.Context(), req.OrderID, req.PaymentID); err != nil {
		log.Printf("payment update failed order=%s: %v", req.OrderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	endsAt := time.Now().Add(proSubscriptionDays * 24 * time.Hour)
	if err := upsertSubscription(c.Request.Context(), claims.UserID, models.PlanPro, endsAt); err != nil {
		log.Printf("subscription upgrade failed user=%s: %v", claims.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Payment verified and Plan Upgraded"})
}

// verifySignature recomputes the provider's HMAC-SHA256 over
// "orderID|paymentID" and compares in constant time.
func verifySignature(secret, orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
