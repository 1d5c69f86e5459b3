// Package mockserver is an in-process test server implementing the control
// protocol wire contract over in-memory state. It backs client integration
// tests and local smoke runs; it is not a real database under test.
package mockserver

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/tsctl/internal/observability"
	"github.com/danmuck/tsctl/internal/protocol"
	v1 "github.com/danmuck/tsctl/internal/protocol/v1"
)

// LibraryVersion is reported as the remote library version on GET /.
const LibraryVersion = "3.2.1-mock"

// Server is one mock test server instance.
type Server struct {
	ID       uuid.UUID
	Appeared time.Time

	router *gin.Engine
	state  *store
}

// New builds a mock server with the full route table registered.
func New(corsOrigins ...string) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware())
	if len(corsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: corsOrigins,
			AllowMethods: []string{"GET", "POST"},
			AllowHeaders: []string{"Origin", "Content-Type", protocol.HeaderAPIVersion, protocol.HeaderClientID},
			MaxAge:       12 * time.Hour,
		}))
	}
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		ID:       uuid.New(),
		Appeared: time.Now(),
		router:   r,
		state:    newStore(),
	}
	s.registerRoutes()
	return s
}

// Handler exposes the router for httptest and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	log.Info().Str("addr", addr).Str("server_id", s.ID.String()).Msg("mock test server listening")
	return s.router.Run(addr)
}

func (s *Server) registerRoutes() {
	s.router.GET("/", s.handleRoot)
	s.router.POST("/"+v1.OpReset, s.handleReset)
	s.router.POST("/"+v1.OpGetAllDocumentIDs, s.handleGetAllDocumentIDs)
	s.router.POST("/"+v1.OpUpdateDatabase, s.handleUpdateDatabase)
	s.router.POST("/"+v1.OpSnapshotDocuments, s.handleSnapshotDocuments)
	s.router.POST("/"+v1.OpVerifyDocuments, s.handleVerifyDocuments)
	s.router.POST("/"+v1.OpStartReplicator, s.handleStartReplicator)
	s.router.POST("/"+v1.OpGetReplicatorStatus, s.handleGetReplicatorStatus)
}

func (s *Server) identify(c *gin.Context) {
	c.Header(protocol.HeaderServerID, s.ID.String())
	c.Header(protocol.HeaderAPIVersion, strconv.Itoa(v1.Version))
}

func (s *Server) respondError(c *gin.Context, status int, domain protocol.ErrorDomain, code int, message string) {
	s.identify(c)
	c.JSON(status, gin.H{
		"domain":  domain.String(),
		"code":    code,
		"message": message,
	})
}

func (s *Server) handleRoot(c *gin.Context) {
	s.identify(c)
	c.JSON(http.StatusOK, gin.H{
		"version":    LibraryVersion,
		"apiVersion": v1.Version,
		"cbl":        "couchbase-lite-mock",
		"device": gin.H{
			"model":         "mock",
			"systemName":    runtime.GOOS,
			"systemVersion": runtime.Version(),
		},
		"additionalInfo": "in-memory mock test server",
	})
}

func (s *Server) handleReset(c *gin.Context) {
	var body struct {
		Datasets map[string][]string `json:"datasets"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		s.respondError(c, http.StatusBadRequest, protocol.DomainTestServer, 400, "malformed reset body: "+err.Error())
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	s.state.resetAll()
	for dataset, dbNames := range body.Datasets {
		for _, dbName := range dbNames {
			s.state.seedDataset(dataset, dbName)
		}
	}
	s.identify(c)
	c.JSON(http.StatusOK, gin.H{})
}

func (s *Server) handleGetAllDocumentIDs(c *gin.Context) {
	var body struct {
		Database    string   `json:"database"`
		Collections []string `json:"collections"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		s.respondError(c, http.StatusBadRequest, protocol.DomainTestServer, 400, "malformed getAllDocumentIDs body: "+err.Error())
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	ids, err := s.state.documentIDs(body.Database, body.Collections)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, protocol.DomainTestServer, 404, err.Error())
		return
	}
	s.identify(c)
	c.JSON(http.StatusOK, ids)
}

func (s *Server) handleUpdateDatabase(c *gin.Context) {
	var body struct {
		Database string        `json:"database"`
		Updates  []updateEntry `json:"updates"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		s.respondError(c, http.StatusBadRequest, protocol.DomainTestServer, 400, "malformed updateDatabase body: "+err.Error())
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	if err := s.state.applyUpdates(body.Database, body.Updates); err != nil {
		s.respondError(c, http.StatusBadRequest, protocol.DomainTestServer, 404, err.Error())
		return
	}
	s.identify(c)
	c.JSON(http.StatusOK, gin.H{})
}

func (s *Server) handleSnapshotDocuments(c *gin.Context) {
	var targets []snapshotTarget
	if err := c.ShouldBindJSON(&targets); err != nil {
		s.respondError(c, http.StatusBadRequest, protocol.DomainTestServer, 400, "malformed snapshotDocuments body: "+err.Error())
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	id := s.state.takeSnapshot(targets)
	s.identify(c)
	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (s *Server) handleVerifyDocuments(c *gin.Context) {
	var body struct {
		Database string        `json:"database"`
		Snapshot string        `json:"snapshot"`
		Changes  []updateEntry `json:"changes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		s.respondError(c, http.StatusBadRequest, protocol.DomainTestServer, 400, "malformed verifyDocuments body: "+err.Error())
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	ok, description, err := s.state.verify(body.Database, body.Snapshot, body.Changes)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, protocol.DomainTestServer, 404, err.Error())
		return
	}
	s.identify(c)
	resp := gin.H{"result": ok}
	if description != "" {
		resp["description"] = description
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleStartReplicator(c *gin.Context) {
	var body struct {
		Database   string `json:"database"`
		Endpoint   string `json:"endpoint"`
		Continuous bool   `json:"continuous"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		s.respondError(c, http.StatusBadRequest, protocol.DomainTestServer, 400, "malformed startReplicator body: "+err.Error())
		return
	}
	if body.Endpoint == "" {
		s.respondError(c, http.StatusBadRequest, protocol.DomainTestServer, 400, "endpoint is required")
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	id, err := s.state.startReplicator(body.Database, body.Continuous)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, protocol.DomainTestServer, 404, err.Error())
		return
	}
	s.identify(c)
	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (s *Server) handleGetReplicatorStatus(c *gin.Context) {
	var body struct {
		ID string `json:"id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		s.respondError(c, http.StatusBadRequest, protocol.DomainTestServer, 400, "malformed getReplicatorStatus body: "+err.Error())
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	activity, completed, err := s.state.replicatorStatus(body.ID)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, protocol.DomainTestServer, 404, err.Error())
		return
	}
	s.identify(c)
	c.JSON(http.StatusOK, gin.H{
		"activity":  activity,
		"progress":  gin.H{"completed": completed},
		"documents": []gin.H{},
	})
}
