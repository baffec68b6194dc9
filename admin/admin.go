package admin

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"folio/config"
)

// Session value keys. The session itself lives in the database-backed
// session store configured in main, referenced by the cookie token; the
// store tracks creation and expiry on the row.
const (
	sessionKeyAuthenticated = "authenticated"
	sessionKeyUsername      = "username"
)

// AdminModule validates the configured admin credentials and drives the
// session lifecycle. There is exactly one admin identity, supplied through
// the environment at deployment time.
type AdminModule struct {
	cfg *config.Config
}

func NewAdminModule(cfg *config.Config) *AdminModule {
	return &AdminModule{cfg: cfg}
}

func (a *AdminModule) RegisterRoutes(router *gin.Engine) {
	router.POST("/api/admin/login", a.login)
	router.POST("/api/admin/logout", a.RequireAuth, a.logout)
	router.GET("/api/admin/session", a.currentSession)
}

// RequireAuth short-circuits any request whose session does not carry the
// authenticated flag. Expired or destroyed sessions read as empty, so they
// fail the check the same way a missing cookie does.
func (a *AdminModule) RequireAuth(c *gin.Context) {
	session := sessions.Default(c)
	authenticated, _ := session.Get(sessionKeyAuthenticated).(bool)

	if !authenticated {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	c.Set(sessionKeyUsername, session.Get(sessionKeyUsername))
	c.Next()
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *AdminModule) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Username and password are required"})
		return
	}

	if a.cfg.AdminUsername == "" || a.cfg.AdminPassword == "" {
		log.Println("login attempted but ADMIN_USERNAME/ADMIN_PASSWORD are not configured")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Admin credentials are not configured"})
		return
	}

	// Evaluate both comparisons before branching so a wrong username costs
	// the same as a wrong password.
	usernameOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(a.cfg.AdminUsername)) == 1
	passwordOK := checkPassword(req.Password, a.cfg.AdminPassword)
	if !usernameOK || !passwordOK {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	session := sessions.Default(c)
	session.Set(sessionKeyAuthenticated, true)
	session.Set(sessionKeyUsername, req.Username)
	if err := session.Save(); err != nil {
		log.Printf("Error saving session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "username": req.Username})
}

func (a *AdminModule) logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		log.Printf("Error destroying session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to log out"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (a *AdminModule) currentSession(c *gin.Context) {
	session := sessions.Default(c)
	authenticated, _ := session.Get(sessionKeyAuthenticated).(bool)

	if !authenticated {
		c.JSON(http.StatusOK, gin.H{"isAuthenticated": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"isAuthenticated": true,
		"username":        session.Get(sessionKeyUsername),
	})
}

// checkPassword compares the supplied password against the configured admin
// password. A bcrypt-shaped configured value is treated as a hash; anything
// else is compared in constant time as plaintext. One strategy per
// deployment, decided by the shape of the configured value.
func checkPassword(password, configured string) bool {
	if isBcryptHash(configured) {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(configured)) == 1
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
