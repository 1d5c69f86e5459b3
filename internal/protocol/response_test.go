package protocol

import (
	"errors"
	"testing"
)

func TestParseResponseRejectsUnsupportedVersion(t *testing.T) {
	for _, version := range []int{0, -1, MaxAPIVersion + 1} {
		_, err := ParseResponse(200, "srv-1", version, nil, "reset", "post")
		if !errors.Is(err, ErrUnsupportedVersion) {
			t.Fatalf("version %d: expected ErrUnsupportedVersion, got %v", version, err)
		}
	}
}

func TestParseResponseSurfacesRemoteError(t *testing.T) {
	body := map[string]any{
		"domain":  "NETWORK",
		"code":    float64(17),
		"message": "timeout",
	}
	resp, err := ParseResponse(400, "srv-1", 1, body, "startReplicator", "post")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if resp.Err == nil {
		t.Fatalf("expected remote error on envelope")
	}
	if resp.Err.Domain != DomainNetwork || resp.Err.Code != 17 {
		t.Fatalf("unexpected error info: %v", resp.Err)
	}
	if resp.String() != "<- srv-1 v1 POST /startReplicator 400" {
		t.Fatalf("unexpected string form: %q", resp.String())
	}
}

func TestParseRootRequiredFields(t *testing.T) {
	full := func() map[string]any {
		return map[string]any{
			"version":    "3.2.1",
			"apiVersion": float64(1),
			"cbl":        "couchbase-lite-c",
			"device":     map[string]any{"model": "emulator"},
		}
	}

	root, err := ParseRoot(200, "srv-1", full())
	if err != nil {
		t.Fatalf("parse root: %v", err)
	}
	if root.LibraryVersion != "3.2.1" || root.CBL != "couchbase-lite-c" || root.Version != 1 {
		t.Fatalf("unexpected root fields: %+v", root)
	}

	for _, key := range []string{"version", "apiVersion", "cbl", "device"} {
		body := full()
		delete(body, key)
		if _, err := ParseRoot(200, "srv-1", body); !errors.Is(err, ErrMalformedRoot) {
			t.Fatalf("missing %q: expected ErrMalformedRoot, got %v", key, err)
		}
	}

	body := full()
	body["device"] = "not an object"
	if _, err := ParseRoot(200, "srv-1", body); !errors.Is(err, ErrMalformedRoot) {
		t.Fatalf("ill-typed device: expected ErrMalformedRoot, got %v", err)
	}
}

func TestParseRootOptionalInfo(t *testing.T) {
	body := map[string]any{
		"version":        "3.2.1",
		"apiVersion":     float64(1),
		"cbl":            "couchbase-lite-jak",
		"device":         map[string]any{},
		"additionalInfo": "debug build",
	}
	root, err := ParseRoot(200, "srv-1", body)
	if err != nil {
		t.Fatalf("parse root: %v", err)
	}
	if root.AdditionalInfo != "debug build" {
		t.Fatalf("unexpected additional info: %q", root.AdditionalInfo)
	}
}

func TestParseRootRejectsUnsupportedAPIVersion(t *testing.T) {
	body := map[string]any{
		"version":    "4.0.0",
		"apiVersion": float64(MaxAPIVersion + 1),
		"cbl":        "couchbase-lite-net",
		"device":     map[string]any{},
	}
	_, err := ParseRoot(200, "srv-1", body)
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
}
