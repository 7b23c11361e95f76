package devserver

import (
	"fmt"
	"math/rand/v2"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ceremonyCookie = "webauthn_session"
	ceremonyTTL    = 5 * time.Minute
)

type ceremony struct {
	email     string
	challenge string
	expires   time.Time
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
	Mode  string `json:"mode"`
}

type beginRegistrationRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

type credentialRequest struct {
	ID   string `json:"id" binding:"required"`
	Type string `json:"type"`
}

// VerificationCode returns the last code issued for email
func (s *Server) VerificationCode(email string) string {
	return s.store.code(email)
}

func (s *Server) RefreshTokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req refreshTokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token required"})
			return
		}
		if s.hooks.renewalsFail() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
			return
		}

		claims, err := s.tokens.Parse(req.RefreshToken, tokenTypeRefresh)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
			return
		}
		user, err := s.store.user(claims.UserID)
		if err != nil || !user.IsActive {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found or inactive"})
			return
		}

		access, refresh, err := s.tokens.Issue(user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue tokens"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"access_token": access, "refresh_token": refresh})
	}
}

// DevLoginHandler logs in by email alone, creating the account when needed
func (s *Server) DevLoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req emailRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		user, err := s.store.userByEmail(req.Email, true)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
			return
		}
		s.loginReply(c, user)
	}
}

func (s *Server) VerificationCodeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req emailRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		code := fmt.Sprintf("%06d", rand.IntN(1_000_000))
		s.store.setCode(req.Email, code)
		s.logger.Info().Str("email", req.Email).Str("code", code).Msg("verification code issued")
		c.JSON(http.StatusOK, gin.H{"message": "Verification code sent"})
	}
}

func (s *Server) BeginRegistrationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req beginRegistrationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !s.store.takeCode(req.Email, req.Code) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired verification code"})
			return
		}
		user, err := s.store.userByEmail(req.Email, true)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
			return
		}

		challenge := s.startCeremony(c, user.Email)
		c.JSON(http.StatusOK, gin.H{"publicKey": gin.H{
			"challenge": challenge,
			"rp":        gin.H{"name": "Shop", "id": "localhost"},
			"user":      gin.H{"id": fmt.Sprint(user.ID), "name": user.Email, "displayName": user.Email},
			"pubKeyCredParams": []gin.H{
				{"type": "public-key", "alg": -7},
			},
		}})
	}
}

func (s *Server) FinishRegistrationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := s.finishCeremony(c)
		if !ok {
			return
		}
		var req credentialRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.store.addPasskey(user.ID, req.ID)
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Passkey registered"})
	}
}

func (s *Server) BeginLoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.store.userByEmail(c.Query("email"), false)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		passkeys := s.store.userPasskeys(user.ID)
		if len(passkeys) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no passkey registered"})
			return
		}

		allow := make([]gin.H, 0, len(passkeys))
		for _, id := range passkeys {
			allow = append(allow, gin.H{"type": "public-key", "id": id})
		}
		challenge := s.startCeremony(c, user.Email)
		c.JSON(http.StatusOK, gin.H{"publicKey": gin.H{
			"challenge":        challenge,
			"rpId":             "localhost",
			"allowCredentials": allow,
		}})
	}
}

func (s *Server) FinishLoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := s.finishCeremony(c)
		if !ok {
			return
		}
		var req credentialRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !slices.Contains(s.store.userPasskeys(user.ID), req.ID) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown credential"})
			return
		}
		if !user.IsActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "account disabled"})
			return
		}
		s.loginReply(c, user)
	}
}

func (s *Server) loginReply(c *gin.Context, user *User) {
	access, refresh, err := s.tokens.Issue(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue tokens"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"access_token":  access,
		"refresh_token": refresh,
		"user":          user,
	})
}

func (s *Server) startCeremony(c *gin.Context, email string) string {
	id := uuid.NewString()
	challenge := uuid.NewString()

	s.ceremoniesLock.Lock()
	s.ceremonies[id] = ceremony{email: email, challenge: challenge, expires: NowTimeFunc().Add(ceremonyTTL)}
	s.ceremoniesLock.Unlock()

	c.SetCookie(ceremonyCookie, id, int(ceremonyTTL.Seconds()), "/", "", false, true)
	return challenge
}

// finishCeremony consumes the caller's ceremony and checks it belongs to the email in the query
func (s *Server) finishCeremony(c *gin.Context) (*User, bool) {
	id, err := c.Cookie(ceremonyCookie)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no ceremony in progress"})
		return nil, false
	}

	s.ceremoniesLock.Lock()
	cer, ok := s.ceremonies[id]
	delete(s.ceremonies, id)
	s.ceremoniesLock.Unlock()

	if !ok || NowTimeFunc().After(cer.expires) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ceremony expired"})
		return nil, false
	}

	user, err := s.store.userByEmail(c.Query("email"), false)
	if err != nil || user.Email != cer.email {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ceremony does not match user"})
		return nil, false
	}
	return user, true
}
