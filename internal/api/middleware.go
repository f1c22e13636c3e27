package api

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Open-Course-Factory/ocf-coursegen/internal/validation"
	"github.com/Open-Course-Factory/ocf-coursegen/pkg/models"

	"github.com/gin-gonic/gin"
)

// ValidationMiddleware injecte l'APIValidator dans le contexte
func ValidationMiddleware(validator *validation.APIValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(validation.ValidatorKey, validator)
		c.Next()
	}
}

// ValidationErrorLogger middleware pour logger les erreurs de validation
func ValidationErrorLogger() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		// Logger spécifiquement les erreurs de validation (400)
		if param.StatusCode == http.StatusBadRequest {
			return fmt.Sprintf("[VALIDATION] %v | %3d | %13v | %15s | %-7s %#v\n",
				param.TimeStamp.Format("2006/01/02 - 15:04:05"),
				param.StatusCode,
				param.Latency,
				param.ClientIP,
				param.Method,
				param.Path,
			)
		}
		return ""
	})
}

// RateLimitMiddleware limite le nombre de requêtes par IP sur une fenêtre glissante d'une minute
func RateLimitMiddleware(requestsPerMinute int) gin.HandlerFunc {
	var mu sync.Mutex
	clients := make(map[string][]time.Time)

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		now := time.Now()

		mu.Lock()
		var recent []time.Time
		for _, timestamp := range clients[clientIP] {
			if now.Sub(timestamp) < time.Minute {
				recent = append(recent, timestamp)
			}
		}

		if len(recent) >= requestsPerMinute {
			clients[clientIP] = recent
			mu.Unlock()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": "60 seconds",
			})
			c.Abort()
			return
		}

		clients[clientIP] = append(recent, now)
		mu.Unlock()
		c.Next()
	}
}

// SecurityHeadersMiddleware ajoute des headers de sécurité et gère le CORS
func SecurityHeadersMiddleware(environment string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// L'origine exacte n'est renvoyée qu'en production
		if environment == "production" {
			if origin := c.GetHeader("Origin"); origin != "" {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
		} else {
			c.Header("Access-Control-Allow-Origin", "*")
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// respondError écrit une ErrorResponse standard
func respondError(c *gin.Context, status int, message string, err error) {
	resp := models.ErrorResponse{
		Error:     message,
		Timestamp: time.Now().UTC(),
		Path:      c.Request.URL.Path,
	}
	if err != nil {
		resp.Message = err.Error()
	}
	c.JSON(status, resp)
}

// respondValidation écrit les erreurs d'un ValidationResult
func respondValidation(c *gin.Context, message string, result *validation.ValidationResult) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":             message,
		"validation_errors": result.Errors,
	})
}
