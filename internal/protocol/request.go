package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Request headers carried on every versioned call.
const (
	HeaderAPIVersion = "CBLTest-API-Version"
	HeaderClientID   = "CBLTest-Client-ID"
	HeaderServerID   = "CBLTest-Server-ID"
)

// Request is the envelope for one outgoing call: request identity, resolved
// operation contract and the concrete body.
type Request struct {
	ID        uuid.UUID
	Operation string
	Method    string
	Version   int
	body      Body
}

// NewRequest pairs a body with a resolved contract. The body's dynamic kind
// must equal the contract's declared kind; a mismatch is a construction-time
// failure, never a silent coercion.
func NewRequest(c Contract, id uuid.UUID, body Body) (*Request, error) {
	kind := KindNone
	if body != nil {
		kind = body.Kind()
	}
	if kind != c.Kind {
		return nil, fmt.Errorf("%w: operation %q accepts %s, got %s",
			ErrBodyTypeMismatch, c.Operation, c.Kind, kind)
	}
	return &Request{
		ID:        id,
		Operation: c.Operation,
		Method:    c.Method,
		Version:   c.Version,
		body:      body,
	}, nil
}

// MarshalBody validates the body and serializes its canonical payload.
func (r *Request) MarshalBody() ([]byte, error) {
	if r.body == nil {
		return nil, nil
	}
	if err := r.body.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(r.body.Payload())
}

func (r *Request) String() string {
	return fmt.Sprintf("-> %s v%d %s /%s", r.ID, r.Version, strings.ToUpper(r.Method), r.Operation)
}
