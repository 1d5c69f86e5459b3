package mockserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmuck/tsctl/internal/protocol"
	"github.com/danmuck/tsctl/internal/testutil/testlog"
)

func doJSON(t *testing.T, srv *Server, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	assert.Equal(t, srv.ID.String(), rec.Header().Get(protocol.HeaderServerID))
	return rec.Code, decoded
}

func TestRootCapabilityShape(t *testing.T) {
	testlog.Start(t)
	srv := New()

	status, body := doJSON(t, srv, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, status)

	root, err := protocol.ParseRoot(status, srv.ID.String(), body)
	require.NoError(t, err)
	assert.Equal(t, 1, root.Version)
	assert.Equal(t, LibraryVersion, root.LibraryVersion)
	assert.Equal(t, "couchbase-lite-mock", root.CBL)
	assert.NotEmpty(t, root.Device)
}

func TestResetSeedsDatasets(t *testing.T) {
	testlog.Start(t)
	srv := New()

	status, _ := doJSON(t, srv, http.MethodPost, "/reset", map[string]any{
		"datasets": map[string][]string{"travel": {"db1", "db2"}},
	})
	require.Equal(t, http.StatusOK, status)

	status, body := doJSON(t, srv, http.MethodPost, "/getAllDocumentIDs", map[string]any{
		"database": "db2",
	})
	require.Equal(t, http.StatusOK, status)
	ids := body[DefaultCollection].([]any)
	assert.Len(t, ids, seededDocsPerDataset)
	assert.Contains(t, ids, "travel_1")
}

func TestUnknownDatabaseReportsErrorTriple(t *testing.T) {
	testlog.Start(t)
	srv := New()

	status, body := doJSON(t, srv, http.MethodPost, "/getAllDocumentIDs", map[string]any{
		"database": "nosuchdb",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	info, err := protocol.DetectError(body)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, protocol.DomainTestServer, info.Domain)
	assert.Contains(t, info.Message, "nosuchdb")
}

func TestUpdateDeleteAndPurge(t *testing.T) {
	testlog.Start(t)
	srv := New()

	status, _ := doJSON(t, srv, http.MethodPost, "/reset", map[string]any{
		"datasets": map[string][]string{"travel": {"db1"}},
	})
	require.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, srv, http.MethodPost, "/updateDatabase", map[string]any{
		"database": "db1",
		"updates": []map[string]any{
			{
				"type":              "UPDATE",
				"collection":        DefaultCollection,
				"documentID":        "travel_1",
				"updatedProperties": map[string]any{"name": "fleece"},
				"removedProperties": map[string]any{"seq": nil},
			},
			{"type": "DELETE", "collection": DefaultCollection, "documentID": "travel_2"},
			{"type": "PURGE", "collection": DefaultCollection, "documentID": "travel_3"},
		},
	})
	require.Equal(t, http.StatusOK, status)

	status, body := doJSON(t, srv, http.MethodPost, "/getAllDocumentIDs", map[string]any{
		"database": "db1",
	})
	require.Equal(t, http.StatusOK, status)
	ids := body[DefaultCollection].([]any)
	assert.Len(t, ids, seededDocsPerDataset-2)
	assert.NotContains(t, ids, "travel_2")
	assert.NotContains(t, ids, "travel_3")

	srv.state.mu.Lock()
	doc := srv.state.databases["db1"].collections[DefaultCollection]["travel_1"]
	srv.state.mu.Unlock()
	assert.Equal(t, "fleece", doc["name"])
	assert.NotContains(t, doc, "seq")
}

func TestSnapshotAndVerifyDetectUnexpectedDocument(t *testing.T) {
	testlog.Start(t)
	srv := New()

	status, _ := doJSON(t, srv, http.MethodPost, "/reset", map[string]any{
		"datasets": map[string][]string{"travel": {"db1"}},
	})
	require.Equal(t, http.StatusOK, status)

	req := httptest.NewRequest(http.MethodPost, "/snapshotDocuments", bytes.NewReader([]byte(
		`[{"collection":"`+DefaultCollection+`","id":"travel_1"}]`,
	)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var snap map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	snapID := snap["id"].(string)

	// Claim travel_1 was deleted without actually deleting it.
	status, body := doJSON(t, srv, http.MethodPost, "/verifyDocuments", map[string]any{
		"database": "db1",
		"snapshot": snapID,
		"changes": []map[string]any{
			{"type": "DELETE", "collection": DefaultCollection, "documentID": "travel_1"},
		},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["result"])
	assert.Contains(t, body["description"], "should not exist")

	// No claimed changes and no actual changes verifies clean.
	status, body = doJSON(t, srv, http.MethodPost, "/verifyDocuments", map[string]any{
		"database": "db1",
		"snapshot": snapID,
		"changes":  []map[string]any{},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["result"])
}

func TestReplicatorUnknownIDFails(t *testing.T) {
	testlog.Start(t)
	srv := New()

	status, body := doJSON(t, srv, http.MethodPost, "/getReplicatorStatus", map[string]any{
		"id": "missing",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	info, err := protocol.DetectError(body)
	require.NoError(t, err)
	require.NotNil(t, info)
}
