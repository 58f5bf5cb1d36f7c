package api

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iulianpascalau/dashboard-metrics/services/metrics/common"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("api")

type server struct {
	router         *gin.Engine
	httpServer     *http.Server
	storage        Storage
	aggregator     Aggregator
	serviceKey     string
	username       string
	password       string
	listenAddr     string
	staticDir      string
	jwtSecret      []byte
	generalHandler func(http.Handler) http.Handler
	wg             sync.WaitGroup
}

// CacheReportPayload represents the incoming JSON body on /api/cache/:domain
type CacheReportPayload struct {
	SubjectKey string `json:"subjectKey"`
	Rows       []struct {
		Dimension string          `json:"dimension"`
		Payload   json.RawMessage `json:"payload"`
		FetchedAt int64           `json:"fetchedAt"`
	} `json:"rows"`
}

// ArgsWebServer defines the web server arguments
type ArgsWebServer struct {
	ServiceKeyApi  string
	AuthUsername   string
	AuthPassword   string
	ListenAddress  string
	StaticDir      string
	Storage        Storage
	Aggregator     Aggregator
	GeneralHandler func(http.Handler) http.Handler
}

// NewServer initializes the Gin engine and mounts all routes
func NewServer(args ArgsWebServer) (*server, error) {
	if check.IfNil(args.Storage) {
		return nil, errors.New("storage is required")
	}
	if check.IfNil(args.Aggregator) {
		return nil, errors.New("aggregator is required")
	}
	if args.GeneralHandler == nil {
		return nil, errors.New("nil http handler")
	}

	// Derive JWT secret from ServiceApiKey + random salt
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	h := hmac.New(sha256.New, []byte(args.ServiceKeyApi))
	h.Write(salt)
	jwtSecret := h.Sum(nil)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(gin.Recovery())

	s := &server{
		router:         router,
		storage:        args.Storage,
		aggregator:     args.Aggregator,
		serviceKey:     args.ServiceKeyApi,
		username:       args.AuthUsername,
		password:       args.AuthPassword,
		listenAddr:     args.ListenAddress,
		staticDir:      args.StaticDir,
		generalHandler: args.GeneralHandler,
		jwtSecret:      jwtSecret,
	}

	s.setupRoutes()
	return s, nil
}

func (s *server) setupRoutes() {
	api := s.router.Group("/api")

	// Write path used by the acquisition jobs
	api.POST("/cache/:domain", s.authAPIKey(), s.handleIngestRows)

	// Frontend authentication
	api.POST("/auth/login", s.handleLogin)

	// Protected frontend endpoints
	protected := api.Group("/")
	protected.Use(s.authJWT())
	{
		protected.GET("/metrics/:subject", s.handleGetAggregate)
		protected.GET("/metrics/:subject/:adapter", s.handleGetAdapterResult)
		protected.DELETE("/cache/:domain/:subject", s.handleDeleteSubjectRows)
	}

	// Serve static files from the frontend build if configured
	if s.staticDir != "" {
		log.Info("serving static files", "dir", s.staticDir)
		s.router.Static("/static", path.Join(s.staticDir, "static"))
		s.router.StaticFile("/favicon.ico", path.Join(s.staticDir, "favicon.ico"))

		// NoRoute for SPA fallback
		s.router.NoRoute(func(c *gin.Context) {
			// If request is for an /api route that doesn't exist, return 404
			if strings.HasPrefix(c.Request.URL.Path, "/api") {
				c.JSON(http.StatusNotFound, gin.H{"error": "api route not found"})
				return
			}
			// Otherwise serve index.html for CSR
			c.File(path.Join(s.staticDir, "index.html"))
		})
	}
}

// Start listens and serves connections
func (s *server) Start() {
	handler := s.generalHandler(s.router)

	s.httpServer = &http.Server{
		Addr:    s.listenAddr,
		Handler: handler,
	}

	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		log.Error("failed to listen", "error", err)
		return
	}
	s.listenAddr = ln.Addr().String()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Info("starting HTTP server", "address", s.listenAddr)

		err := s.httpServer.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
		}
	}()
}

// Address returns the actual listen address
func (s *server) Address() string {
	return s.listenAddr
}

// Close gracefully stops the server
func (s *server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}
	s.wg.Wait()
	return s.storage.Close()
}

// --- Middlewares ---

func (s *server) authAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Api-Key")
		if key != s.serviceKey {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// VERY basic JWT implementation for frontend session based on HS256
func (s *server) authJWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		parts := strings.Split(tokenStr, ".")
		if len(parts) != 3 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		// Verify signature
		message := parts[0] + "." + parts[1]
		sig, err := base64.RawURLEncoding.DecodeString(parts[2])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token sign"})
			c.Abort()
			return
		}

		macd := hmac.New(sha256.New, s.jwtSecret)
		macd.Write([]byte(message))
		expectedSig := macd.Sum(nil)

		if !hmac.Equal(sig, expectedSig) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		// Verify expiration
		var claims struct {
			Exp int64 `json:"exp"`
		}
		payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
		if err == nil {
			_ = json.Unmarshal(payloadBytes, &claims)
		}

		if time.Now().Unix() > claims.Exp {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// --- Handlers ---

func (s *server) handleIngestRows(c *gin.Context) {
	domain := c.Param("domain")
	if !common.IsKnownDomain(domain) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown domain"})
		return
	}

	var payload CacheReportPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if payload.SubjectKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing subject key"})
		return
	}

	now := time.Now().Unix()
	ctx := c.Request.Context()

	log.Debug("received cache rows", "sender", c.Request.RemoteAddr, "domain", domain, "num rows", len(payload.Rows))

	numSaved := 0
	for _, row := range payload.Rows {
		fetchedAt := row.FetchedAt
		if fetchedAt == 0 {
			fetchedAt = now
		}

		err := s.storage.SaveRow(ctx, domain, common.CacheRow{
			SubjectKey: payload.SubjectKey,
			Dimension:  row.Dimension,
			Payload:    row.Payload,
			FetchedAt:  fetchedAt,
		})
		if err != nil {
			log.Warn("failed to save cache row", "domain", domain, "dimension", row.Dimension, "error", err)
			// Continue with others
			continue
		}

		numSaved++
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "saved": numSaved})
}

func (s *server) handleLogin(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if req.Username != s.username || req.Password != s.password {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	// Generate basic JWT (Header.Payload.Signature)
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	claims := fmt.Sprintf(`{"sub":"%s","exp":%d}`, req.Username, time.Now().Add(24*time.Hour).Unix())
	payload := base64.RawURLEncoding.EncodeToString([]byte(claims))

	msg := header + "." + payload
	macd := hmac.New(sha256.New, s.jwtSecret)
	macd.Write([]byte(msg))
	sig := base64.RawURLEncoding.EncodeToString(macd.Sum(nil))

	token := msg + "." + sig
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// handleGetAggregate runs every adapter for the subject and returns the merged
// view. The path subject is used as the key for every adapter; callers that need
// a different key type for a specific adapter pass ?<adapter>_key=<value>.
func (s *server) handleGetAggregate(c *gin.Context) {
	subject := c.Param("subject")

	keys := make(map[string]string)
	for _, name := range s.aggregator.AdapterNames() {
		keys[name] = subject

		override := c.Query(name + "_key")
		if override != "" {
			keys[name] = override
		}
	}

	result := s.aggregator.Aggregate(c.Request.Context(), keys)
	c.JSON(http.StatusOK, result)
}

func (s *server) handleGetAdapterResult(c *gin.Context) {
	subject := c.Param("subject")
	adapterName := c.Param("adapter")

	key := subject
	override := c.Query("key")
	if override != "" {
		key = override
	}

	result, err := s.aggregator.GetAdapterResult(c.Request.Context(), adapterName, key)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *server) handleDeleteSubjectRows(c *gin.Context) {
	domain := c.Param("domain")
	if !common.IsKnownDomain(domain) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown domain"})
		return
	}

	err := s.storage.DeleteSubjectRows(c.Request.Context(), domain, c.Param("subject"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
