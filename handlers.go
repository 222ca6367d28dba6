package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"cortex/models"
	"cortex/pkg/review"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const sessionCookie = "token"

func setupRoutes(r *gin.Engine) {
	r.Use(corsMiddleware())
	r.Use(requestIDMiddleware())
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	auth := r.Group("/api/auth")
	auth.POST("/signup", signupHandler)
	auth.POST("/login", loginHandler)
	auth.POST("/logout", logoutHandler)
	rev := r.Group("/api/review")
	rev.Use(sessionAuthMiddleware())
	rev.POST("", createReviewHandler)
	rev.GET("", listReviewsHandler)
}

// corsMiddleware allows the browser client to send the session cookie
// cross-origin. Only allow-listed origins (CORS_ORIGINS, comma separated)
// are accepted.
func corsMiddleware() gin.HandlerFunc {
	allowed := strings.Split(getenv("CORS_ORIGINS", "http://localhost:5173"), ",")
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}
		for _, a := range allowed {
			if strings.TrimSpace(a) == origin {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
				c.Header("Access-Control-Allow-Credentials", "true")
				c.Header("Access-Control-Max-Age", "86400")
				break
			}
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// requestIDMiddleware tags every request so provider and persistence
// failures can be correlated in the logs.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func requestID(c *gin.Context) string {
	if v, ok := c.Get("requestID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// sessionAuthMiddleware resolves the caller from the session cookie (or a
// Bearer header for non-browser clients) and puts the user id in the
// request context. Stateless: nothing is looked up or refreshed.
func sessionAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(sessionCookie)
		if err != nil || tokenString == "" {
			if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
				tokenString = authHeader[7:]
			}
		}
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}
		claims, err := ParseSessionToken(tokenString, jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}
		c.Set("userID", claims.UserID)
		c.Next()
	}
}

// callerID returns the authenticated user id set by sessionAuthMiddleware.
func callerID(c *gin.Context) (uint, bool) {
	v, ok := c.Get("userID")
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

func signupHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	user, err := RegisterUser(req.Username, req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "user created successfully",
		"user":    gin.H{"id": user.ID, "username": user.Username, "email": user.Email},
	})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	user, err := Authenticate(req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid credentials"})
		return
	}
	tokenString, err := GenerateSessionToken(user.ID, jwtSecret, sessionTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to generate token"})
		return
	}
	setSessionCookie(c, tokenString, int(sessionTTL.Seconds()))
	c.JSON(http.StatusOK, gin.H{"message": "login successful"})
}

// logoutHandler only clears the cookie; tokens are stateless so there is
// nothing server-side to revoke.
func logoutHandler(c *gin.Context) {
	setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

func setSessionCookie(c *gin.Context, token string, maxAge int) {
	secure := os.Getenv("APP_ENV") == "production"
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, maxAge, "/", "", secure, true)
}

// createReviewHandler runs one review: validate input, build the prompt,
// call the provider once, normalize whatever came back, archive best-effort
// and respond.
func createReviewHandler(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	var req struct {
		Code     string `json:"code" binding:"required"`
		Language string `json:"language" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code and language are required"})
		return
	}
	lang := strings.ToLower(strings.TrimSpace(req.Language))
	if !review.Languages[lang] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported language"})
		return
	}

	prompt := review.BuildPrompt(req.Code, lang)
	raw, err := completion.Complete(c.Request.Context(), prompt)
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID(c)).Str("provider", completion.Name()).Msg("provider call failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get response from AI provider"})
		return
	}

	parsed := review.Normalize(raw, req.Code)

	// Best-effort archive: delivering the review wins over audit-trail
	// completeness, so a failed insert is logged and swallowed.
	if buf, err := json.Marshal(parsed); err == nil {
		rec := models.Review{UserID: userID, Code: req.Code, Language: lang, Result: string(buf)}
		if err := db.Create(&rec).Error; err != nil {
			log.Warn().Err(err).Str("request_id", requestID(c)).Msg("review archive write failed")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"parsed":         parsed,
		"issues":         parsed.Issues,
		"refactoredCode": parsed.RefactoredCode,
		"raw":            raw,
	})
}

// listReviewsHandler returns the caller's archived reviews, newest first.
func listReviewsHandler(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	items := []models.Review{}
	if err := db.Where("user_id = ?", userID).Order("created_at desc").Limit(200).Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch reviews"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reviews": items})
}
