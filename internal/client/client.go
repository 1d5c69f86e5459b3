package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/tsctl/internal/observability"
	"github.com/danmuck/tsctl/internal/protocol"
	v1 "github.com/danmuck/tsctl/internal/protocol/v1"
)

// ErrNotConnected is returned when a versioned operation is issued before
// Connect has negotiated an api version.
var ErrNotConnected = errors.New("client: not connected")

const defaultTimeout = 30 * time.Second

// Client drives one remote test server through the versioned control
// protocol. It is a thin transport collaborator: no retries, no ordering
// beyond what HTTP provides.
type Client struct {
	baseURL  string
	http     *http.Client
	clientID uuid.UUID
	resolver *protocol.Resolver
	log      zerolog.Logger

	version  int
	serverID string
}

// Option customizes a Client at construction.
type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.log = logger }
}

// New constructs a client bound to one test server base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:     &http.Client{Timeout: defaultTimeout},
		clientID: uuid.New(),
		resolver: protocol.NewResolver(v1.Contracts()...),
		log:      log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientID is the identity this client presents on every request.
func (c *Client) ClientID() uuid.UUID { return c.clientID }

// Version is the api version negotiated by Connect, 0 before that.
func (c *Client) Version() int { return c.version }

// ServerID is the remote server identity learned from the last reply.
func (c *Client) ServerID() string { return c.serverID }

// Connect performs GET / and pins the api version and server identity all
// later requests use.
func (c *Client) Connect(ctx context.Context) (*protocol.RootResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return nil, fmt.Errorf("client: build root request: %w", err)
	}
	httpReq.Header.Set(protocol.HeaderClientID, c.clientID.String())

	start := time.Now()
	status, serverID, _, body, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}
	observability.RecordClientRequest("root", "get", status, time.Since(start))

	root, err := protocol.ParseRoot(status, serverID, body)
	if err != nil {
		return nil, err
	}

	c.version = root.Version
	c.serverID = root.ServerID
	c.log.Info().
		Str("server", c.baseURL).
		Str("server_id", root.ServerID).
		Int("api_version", root.Version).
		Str("cbl", root.CBL).
		Str("library_version", root.LibraryVersion).
		Msg("connected to test server")
	return root, nil
}

// send resolves the operation at the negotiated version, serializes the body
// and returns the parsed response envelope. Remote-reported errors come back
// as data on the envelope, never as a Go error.
func (c *Client) send(ctx context.Context, operation string, body protocol.Body) (*protocol.Response, error) {
	if c.version == 0 {
		return nil, ErrNotConnected
	}
	contract, err := c.resolver.Resolve(c.version, operation)
	if err != nil {
		return nil, err
	}
	req, err := protocol.NewRequest(contract, uuid.New(), body)
	if err != nil {
		return nil, err
	}
	payload, err := req.MarshalBody()
	if err != nil {
		return nil, err
	}
	c.log.Debug().Str("request", req.String()).Msg("sending")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+operation, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("client: build %s request: %w", operation, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(protocol.HeaderAPIVersion, strconv.Itoa(req.Version))
	httpReq.Header.Set(protocol.HeaderClientID, c.clientID.String())

	start := time.Now()
	status, serverID, echoedVersion, respBody, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}
	observability.RecordClientRequest(operation, contract.Method, status, time.Since(start))

	if serverID == "" {
		serverID = c.serverID
	}
	// Trust the version the server echoes; older servers omit the header.
	if echoedVersion == 0 {
		echoedVersion = c.version
	}
	resp, err := protocol.ParseResponse(status, serverID, echoedVersion, respBody, operation, contract.Method)
	if err != nil {
		return nil, err
	}
	c.log.Debug().Str("response", resp.String()).Msg("received")
	if resp.Err != nil {
		observability.RecordRemoteError(operation, resp.Err.Domain.String())
		c.log.Warn().
			Str("operation", operation).
			Str("domain", resp.Err.Domain.String()).
			Int("code", resp.Err.Code).
			Str("message", resp.Err.Message).
			Msg("test server reported error")
	}
	return resp, nil
}

func (c *Client) do(req *http.Request) (status int, serverID string, version int, body map[string]any, err error) {
	httpResp, err := c.http.Do(req)
	if err != nil {
		return 0, "", 0, nil, fmt.Errorf("client: %s /%s: %w", strings.ToLower(req.Method), strings.TrimPrefix(req.URL.Path, "/"), err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return 0, "", 0, nil, fmt.Errorf("client: read response body: %w", err)
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			return 0, "", 0, nil, fmt.Errorf("client: decode response body: %w", err)
		}
	}
	if raw := httpResp.Header.Get(protocol.HeaderAPIVersion); raw != "" {
		if v, convErr := strconv.Atoi(raw); convErr == nil {
			version = v
		}
	}
	return httpResp.StatusCode, httpResp.Header.Get(protocol.HeaderServerID), version, body, nil
}
