package v1

import (
	"strings"

	"github.com/danmuck/tsctl/internal/protocol"
)

// ReplicatorType is the direction of a replication.
type ReplicatorType string

const (
	ReplicatorPush        ReplicatorType = "push"
	ReplicatorPull        ReplicatorType = "pull"
	ReplicatorPushAndPull ReplicatorType = "pushAndPull"
)

// Authenticator configures replicator authentication. The set is closed:
// basic and session are the only kinds the protocol defines.
type Authenticator interface {
	authPayload() map[string]any
}

// BasicAuthenticator performs HTTP basic authentication.
type BasicAuthenticator struct {
	Username string
	Password string
}

func (a BasicAuthenticator) authPayload() map[string]any {
	return map[string]any{
		"type":     "basic",
		"username": a.Username,
		"password": a.Password,
	}
}

// DefaultSessionCookie is the cookie name used when none is given.
const DefaultSessionCookie = "SyncGatewaySession"

// SessionAuthenticator authenticates with a sync gateway session cookie.
type SessionAuthenticator struct {
	SessionID  string
	CookieName string
}

// NewSessionAuthenticator builds a session authenticator with the default
// cookie name.
func NewSessionAuthenticator(sessionID string) SessionAuthenticator {
	return SessionAuthenticator{SessionID: sessionID, CookieName: DefaultSessionCookie}
}

func (a SessionAuthenticator) authPayload() map[string]any {
	cookie := a.CookieName
	if cookie == "" {
		cookie = DefaultSessionCookie
	}
	return map[string]any{
		"type":       "session",
		"sessionID":  a.SessionID,
		"cookieName": cookie,
	}
}

// PushFilterParameters carries the parameters passed to a push filter. In
// practice this has always been just document IDs.
type PushFilterParameters struct {
	DocumentIDs []string
}

// PushFilter limits the documents a replication pushes from local to remote.
type PushFilter struct {
	Name       string
	Parameters *PushFilterParameters
}

// The remote distinguishes "no filter params" from "params with an empty id
// list", so the params key is emitted only when at least one id is set.
func (f PushFilter) encode() map[string]any {
	raw := map[string]any{"name": f.Name}
	if f.Parameters != nil && len(f.Parameters.DocumentIDs) > 0 {
		raw["params"] = map[string]any{"documentIDs": f.Parameters.DocumentIDs}
	}
	return raw
}

// ReplicatorCollection configures one collection inside a replication.
type ReplicatorCollection struct {
	Collection  string
	Channels    []string
	DocumentIDs []string
	PushFilter  *PushFilter
}

func (c ReplicatorCollection) encode() map[string]any {
	raw := map[string]any{
		"collection":  c.Collection,
		"channels":    emptyIfNil(c.Channels),
		"documentIDs": emptyIfNil(c.DocumentIDs),
	}
	if c.PushFilter != nil {
		raw["pushFilter"] = c.PushFilter.encode()
	}
	return raw
}

// StartReplicatorBody is the payload of POST /startReplicator. Database and
// endpoint are fixed at construction; everything else is a recognized option.
type StartReplicatorBody struct {
	database       string
	endpoint       string
	replicatorType ReplicatorType
	continuous     bool
	reset          bool
	authenticator  Authenticator
	collections    []ReplicatorCollection
}

// ReplicatorOption customizes a StartReplicatorBody at construction.
type ReplicatorOption func(*StartReplicatorBody)

func WithReplicatorType(t ReplicatorType) ReplicatorOption {
	return func(b *StartReplicatorBody) { b.replicatorType = t }
}

func WithContinuous(continuous bool) ReplicatorOption {
	return func(b *StartReplicatorBody) { b.continuous = continuous }
}

func WithReset(reset bool) ReplicatorOption {
	return func(b *StartReplicatorBody) { b.reset = reset }
}

func WithAuthenticator(a Authenticator) ReplicatorOption {
	return func(b *StartReplicatorBody) { b.authenticator = a }
}

func WithCollections(collections ...ReplicatorCollection) ReplicatorOption {
	return func(b *StartReplicatorBody) { b.collections = collections }
}

// NewStartReplicatorBody builds a replicator start request. Defaults:
// pushAndPull, one-shot, no checkpoint reset, no authenticator.
func NewStartReplicatorBody(database, endpoint string, opts ...ReplicatorOption) *StartReplicatorBody {
	b := &StartReplicatorBody{
		database:       database,
		endpoint:       endpoint,
		replicatorType: ReplicatorPushAndPull,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *StartReplicatorBody) Kind() protocol.Kind { return protocol.KindStartReplicator }

func (b *StartReplicatorBody) Validate() error {
	if strings.TrimSpace(b.database) == "" {
		return protocol.ValidationError{Field: "database", Reason: "required"}
	}
	if strings.TrimSpace(b.endpoint) == "" {
		return protocol.ValidationError{Field: "endpoint", Reason: "required"}
	}
	switch b.replicatorType {
	case ReplicatorPush, ReplicatorPull, ReplicatorPushAndPull:
	default:
		return protocol.ValidationError{Field: "replicatorType", Reason: "unrecognized replicator type"}
	}
	return nil
}

func (b *StartReplicatorBody) Payload() any {
	raw := map[string]any{
		"database":       b.database,
		"endpoint":       b.endpoint,
		"replicatorType": string(b.replicatorType),
		"continuous":     b.continuous,
		"reset":          b.reset,
	}
	if b.collections != nil {
		encoded := make([]any, 0, len(b.collections))
		for _, c := range b.collections {
			encoded = append(encoded, c.encode())
		}
		raw["collections"] = encoded
	}
	if b.authenticator != nil {
		raw["authenticator"] = b.authenticator.authPayload()
	}
	return raw
}

// GetReplicatorStatusBody is the payload of POST /getReplicatorStatus.
type GetReplicatorStatusBody struct {
	ReplicatorID string
}

func (b *GetReplicatorStatusBody) Kind() protocol.Kind { return protocol.KindGetReplicatorStatus }

func (b *GetReplicatorStatusBody) Validate() error {
	if strings.TrimSpace(b.ReplicatorID) == "" {
		return protocol.ValidationError{Field: "id", Reason: "required"}
	}
	return nil
}

func (b *GetReplicatorStatusBody) Payload() any {
	return map[string]any{"id": b.ReplicatorID}
}
