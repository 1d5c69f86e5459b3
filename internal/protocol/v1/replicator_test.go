package v1

import (
	"errors"
	"reflect"
	"testing"

	"github.com/danmuck/tsctl/internal/protocol"
)

func TestStartReplicatorDefaults(t *testing.T) {
	body := NewStartReplicatorBody("db1", "wss://localhost:4985/db")

	got := payloadJSON(t, body)
	want := map[string]any{
		"database":       "db1",
		"endpoint":       "wss://localhost:4985/db",
		"replicatorType": "pushAndPull",
		"continuous":     false,
		"reset":          false,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected wire shape: %v", got)
	}
}

func TestStartReplicatorOptions(t *testing.T) {
	body := NewStartReplicatorBody("db1", "wss://localhost:4985/db",
		WithReplicatorType(ReplicatorPull),
		WithContinuous(true),
		WithReset(true),
		WithAuthenticator(BasicAuthenticator{Username: "user1", Password: "p@ssw0rd"}),
	)

	got := payloadJSON(t, body).(map[string]any)
	if got["replicatorType"] != "pull" || got["continuous"] != true || got["reset"] != true {
		t.Fatalf("unexpected options: %v", got)
	}
	auth := got["authenticator"].(map[string]any)
	want := map[string]any{"type": "basic", "username": "user1", "password": "p@ssw0rd"}
	if !reflect.DeepEqual(auth, want) {
		t.Fatalf("unexpected authenticator: %v", auth)
	}
}

func TestSessionAuthenticatorDefaultCookie(t *testing.T) {
	body := NewStartReplicatorBody("db1", "wss://localhost:4985/db",
		WithAuthenticator(NewSessionAuthenticator("abc")),
	)

	got := payloadJSON(t, body).(map[string]any)
	auth := got["authenticator"].(map[string]any)
	want := map[string]any{
		"type":       "session",
		"sessionID":  "abc",
		"cookieName": "SyncGatewaySession",
	}
	if !reflect.DeepEqual(auth, want) {
		t.Fatalf("unexpected authenticator: %v", auth)
	}
}

func TestStartReplicatorValidation(t *testing.T) {
	var vErr protocol.ValidationError

	if err := NewStartReplicatorBody("", "wss://x").Validate(); !errors.As(err, &vErr) || vErr.Field != "database" {
		t.Fatalf("expected database ValidationError, got %v", err)
	}
	if err := NewStartReplicatorBody("db1", "").Validate(); !errors.As(err, &vErr) || vErr.Field != "endpoint" {
		t.Fatalf("expected endpoint ValidationError, got %v", err)
	}
	bad := NewStartReplicatorBody("db1", "wss://x", WithReplicatorType("sideways"))
	if err := bad.Validate(); !errors.As(err, &vErr) || vErr.Field != "replicatorType" {
		t.Fatalf("expected replicatorType ValidationError, got %v", err)
	}
}

func TestPushFilterParamsOnlyWithDocumentIDs(t *testing.T) {
	collections := []ReplicatorCollection{
		{
			Collection: "store.cloths",
			Channels:   []string{"A", "B"},
			PushFilter: &PushFilter{
				Name:       "documentIDs",
				Parameters: &PushFilterParameters{DocumentIDs: []string{"doc1", "doc2"}},
			},
		},
		{
			Collection: "store.shoes",
			PushFilter: &PushFilter{Name: "deletedDocumentsOnly"},
		},
	}
	body := NewStartReplicatorBody("db1", "wss://x", WithCollections(collections...))

	got := payloadJSON(t, body).(map[string]any)
	encoded := got["collections"].([]any)

	first := encoded[0].(map[string]any)
	filter := first["pushFilter"].(map[string]any)
	params := filter["params"].(map[string]any)
	if !reflect.DeepEqual(params, map[string]any{"documentIDs": []any{"doc1", "doc2"}}) {
		t.Fatalf("unexpected filter params: %v", params)
	}
	if !reflect.DeepEqual(first["channels"], []any{"A", "B"}) {
		t.Fatalf("unexpected channels: %v", first["channels"])
	}
	if !reflect.DeepEqual(first["documentIDs"], []any{}) {
		t.Fatalf("unset document ids should serialize empty: %v", first["documentIDs"])
	}

	second := encoded[1].(map[string]any)
	filter = second["pushFilter"].(map[string]any)
	if _, ok := filter["params"]; ok {
		t.Fatalf("filter without document ids must omit params: %v", filter)
	}
	if filter["name"] != "deletedDocumentsOnly" {
		t.Fatalf("unexpected filter name: %v", filter["name"])
	}
}

func TestGetReplicatorStatusWireShape(t *testing.T) {
	got := payloadJSON(t, &GetReplicatorStatusBody{ReplicatorID: "repl-1"})
	want := map[string]any{"id": "repl-1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected wire shape: %v", got)
	}

	var vErr protocol.ValidationError
	if err := (&GetReplicatorStatusBody{}).Validate(); !errors.As(err, &vErr) || vErr.Field != "id" {
		t.Fatalf("expected id ValidationError, got %v", err)
	}
}
