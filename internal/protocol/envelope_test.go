package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type fakeBody struct {
	kind    Kind
	invalid bool
}

func (b fakeBody) Kind() Kind { return b.kind }

func (b fakeBody) Validate() error {
	if b.invalid {
		return ValidationError{Field: "database", Reason: "required"}
	}
	return nil
}

func (b fakeBody) Payload() any {
	return map[string]any{"kind": b.kind.String()}
}

func testResolver() *Resolver {
	return NewResolver(
		Contract{Version: 1, Operation: "reset", Method: "post", Kind: KindReset},
		Contract{Version: 1, Operation: "startReplicator", Method: "post", Kind: KindStartReplicator},
	)
}

func TestResolveUnknownOperation(t *testing.T) {
	_, err := testResolver().Resolve(1, "teleport")
	if !errors.Is(err, ErrUnsupportedOperation) {
		t.Fatalf("expected ErrUnsupportedOperation, got %v", err)
	}
}

func TestResolveUnknownVersion(t *testing.T) {
	_, err := testResolver().Resolve(9, "reset")
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestNewRequestChecksBodyKind(t *testing.T) {
	r := testResolver()
	c, err := r.Resolve(1, "reset")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if _, err := NewRequest(c, uuid.New(), fakeBody{kind: KindStartReplicator}); !errors.Is(err, ErrBodyTypeMismatch) {
		t.Fatalf("expected ErrBodyTypeMismatch, got %v", err)
	}
	if _, err := NewRequest(c, uuid.New(), nil); !errors.Is(err, ErrBodyTypeMismatch) {
		t.Fatalf("nil body: expected ErrBodyTypeMismatch, got %v", err)
	}
	if _, err := NewRequest(c, uuid.New(), fakeBody{kind: KindReset}); err != nil {
		t.Fatalf("matching kind: %v", err)
	}
}

func TestRequestMarshalValidatesFirst(t *testing.T) {
	c, err := testResolver().Resolve(1, "reset")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	req, err := NewRequest(c, uuid.New(), fakeBody{kind: KindReset, invalid: true})
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	_, err = req.MarshalBody()
	var vErr ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Field != "database" {
		t.Fatalf("unexpected field: %q", vErr.Field)
	}
}

func TestRequestMarshalEmitsPayload(t *testing.T) {
	c, err := testResolver().Resolve(1, "startReplicator")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	req, err := NewRequest(c, uuid.New(), fakeBody{kind: KindStartReplicator})
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	raw, err := req.MarshalBody()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["kind"] != "startReplicator" {
		t.Fatalf("unexpected payload: %v", decoded)
	}
}

func TestResolverTableShape(t *testing.T) {
	r := testResolver()
	versions := r.Versions()
	if len(versions) != 1 || versions[0] != 1 {
		t.Fatalf("unexpected versions: %v", versions)
	}
	ops := r.Operations(1)
	if len(ops) != 2 || ops[0] != "reset" || ops[1] != "startReplicator" {
		t.Fatalf("unexpected operations: %v", ops)
	}
}
