// Package app provides registration, login and session endpoints.
package app

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/dexten32/accuscanner/app/config"
	"github.com/dexten32/accuscanner/app/models"
	"github.com/dexten32/accuscanner/auth"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Health is a public health check endpoint.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Register creates a user on the FREE plan and logs them in immediately.
func Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password required"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		log.Printf("bcrypt hash failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	user, err := createUser(c.Request.Context(), req.Email, string(hash))
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
			return
		}
		log.Printf("register failed email=%s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	if err := setSessionCookie(c, user); err != nil {
		log.Printf("register cookie failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registered successfully",
		"user":    gin.H{"email": user.Email, "plan": user.Plan},
	})
}

// Login checks credentials, requires an ACTIVE subscription and sets the
// session cookie.
func Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password required"})
		return
	}

	user, hash, err := getUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("login lookup failed email=%s: %v", req.Email, err)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if user.Status != models.SubscriptionActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Subscription is not active."})
		return
	}

	if err := setSessionCookie(c, user); err != nil {
		log.Printf("login cookie failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    gin.H{"email": user.Email, "plan": user.Plan},
	})
}

// Logout clears the session cookie.
func Logout(c *gin.Context) {
	cfg, err := config.LoadConfig()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}
	c.SetCookie(auth.SessionCookie, "", -1, "/", cfg.Auth.CookieDomain, cfg.Auth.SecureCookies, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me returns the authenticated user's identity and current plan. The plan is
// read fresh from the store so an upgrade shows up without re-login.
func Me(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Access denied, token missing"})
		return
	}

	if db == nil {
		c.JSON(http.StatusOK, gin.H{"user": gin.H{
			"userId": claims.UserID,
			"email":  claims.Email,
			"plan":   claims.Plan,
		}})
		return
	}

	user, err := getUserByID(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusOK, gin.H{"user": nil})
			return
		}
		log.Printf("me lookup failed sub=%s: %v", claims.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": gin.H{
		"userId": user.ID,
		"email":  user.Email,
		"plan":   user.Plan,
	}})
}

func setSessionCookie(c *gin.Context, user models.User) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	token, err := auth.SignToken(cfg.Auth.JWTSecret, user.ID, user.Email, user.Plan)
	if err != nil {
		return err
	}

	if cfg.Auth.SecureCookies {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(
		auth.SessionCookie,
		token,
		int(auth.TokenTTL/time.Second),
		"/",
		cfg.Auth.CookieDomain,
		cfg.Auth.SecureCookies,
		true,
	)
	return nil
}
