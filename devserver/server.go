// Package devserver is an in-memory implementation of the shop backend's REST contract, used for local
// development and for end-to-end tests of the client.
package devserver

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-shop-client/internal/config"
)

// DefaultAdminEmail is the account seeded with admin rights
const DefaultAdminEmail = "admin@shop.local"

type Options struct {
	Env             string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	AdminEmail      string
	Logger          zerolog.Logger
}

// OptionsFromConfig reads the dev server settings from c
func OptionsFromConfig(c config.Config, logger zerolog.Logger) Options {
	return Options{
		Env:             c.GetEnv(),
		JWTSecret:       c.GetJWTSecret(),
		AccessTokenTTL:  c.GetAccessTokenTTL(),
		RefreshTokenTTL: c.GetRefreshTokenTTL(),
		AdminEmail:      DefaultAdminEmail,
		Logger:          logger,
	}
}

type Server struct {
	env    string
	engine *gin.Engine
	routes []string
	tokens *TokenIssuer
	store  *store
	hooks  *hooks
	logger zerolog.Logger

	ceremonies     map[string]ceremony
	ceremoniesLock sync.Mutex
}

func New(opts Options) (*Server, error) {
	secret := []byte(opts.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("[devserver New] failed to generate signing secret: %w", err)
		}
		opts.Logger.Warn().Msg("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}
	if opts.AccessTokenTTL <= 0 {
		opts.AccessTokenTTL = 15 * time.Minute
	}
	if opts.RefreshTokenTTL <= 0 {
		opts.RefreshTokenTTL = 7 * 24 * time.Hour
	}

	if opts.Env != "DEV" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		env:        opts.Env,
		engine:     gin.New(),
		tokens:     NewTokenIssuer(secret, opts.AccessTokenTTL, opts.RefreshTokenTTL),
		store:      newStore(),
		hooks:      newHooks(),
		logger:     opts.Logger,
		ceremonies: make(map[string]ceremony),
	}

	if opts.AdminEmail != "" {
		admin, err := s.store.userByEmail(opts.AdminEmail, true)
		if err != nil {
			return nil, fmt.Errorf("[devserver New] failed to seed admin: %w", err)
		}
		if err := s.store.updateUser(admin.ID, true, true); err != nil {
			return nil, fmt.Errorf("[devserver New] failed to seed admin: %w", err)
		}
	}

	s.engine.Use(gin.Recovery(), s.CountingMiddleware(), s.LoggingMiddleware(), s.CorsMiddleware())
	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

// Tokens exposes the issuer so tests can mint tokens directly
func (s *Server) Tokens() *TokenIssuer {
	return s.tokens
}

// Login issues a token pair for email, creating the account if needed
func (s *Server) Login(email string) (access, refresh string, user *User, err error) {
	user, err = s.store.userByEmail(email, true)
	if err != nil {
		return "", "", nil, err
	}
	access, refresh, err = s.tokens.Issue(user)
	if err != nil {
		return "", "", nil, err
	}
	return access, refresh, user, nil
}

func (s *Server) handle(method, path string, handlers ...gin.HandlerFunc) {
	s.routes = append(s.routes, method+" "+path)
	s.engine.Handle(method, path, handlers...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		s.logger.Debug().Msg(route)
	}
}
