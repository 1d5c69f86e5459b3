package v1

import (
	"encoding/json"
	"fmt"

	"github.com/danmuck/tsctl/internal/protocol"
)

// ReplicatorActivity is the activity level reported for a replicator.
type ReplicatorActivity string

const (
	ActivityStopped    ReplicatorActivity = "STOPPED"
	ActivityOffline    ReplicatorActivity = "OFFLINE"
	ActivityConnecting ReplicatorActivity = "CONNECTING"
	ActivityIdle       ReplicatorActivity = "IDLE"
	ActivityBusy       ReplicatorActivity = "BUSY"
)

// ReplicatorProgress describes how far a replication has come.
type ReplicatorProgress struct {
	Completed bool `json:"completed"`
}

// ReplicatedDocument is one document event observed by the replicator's
// document listener.
type ReplicatedDocument struct {
	Collection string              `json:"collection"`
	DocumentID string              `json:"documentID"`
	IsPush     bool                `json:"isPush"`
	Flags      []string            `json:"flags,omitempty"`
	Error      *protocol.ErrorInfo `json:"error,omitempty"`
}

// ReplicatorStatus is the typed payload of a getReplicatorStatus reply.
type ReplicatorStatus struct {
	Activity  ReplicatorActivity   `json:"activity"`
	Progress  ReplicatorProgress   `json:"progress"`
	Documents []ReplicatedDocument `json:"documents,omitempty"`
	Error     *protocol.ErrorInfo  `json:"error,omitempty"`
}

// VerifyResult is the typed payload of a verifyDocuments reply.
type VerifyResult struct {
	Result      bool   `json:"result"`
	Description string `json:"description,omitempty"`
}

// DocumentIDs maps a fully qualified collection name to the document ids it
// holds, as returned by getAllDocumentIDs.
type DocumentIDs map[string][]string

// DecodeBody re-marshals a response payload into a typed v1 result.
func DecodeBody(resp *protocol.Response, out any) error {
	raw, err := json.Marshal(resp.Body)
	if err != nil {
		return fmt.Errorf("v1: encode response payload: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("v1: decode %s payload: %w", resp.Operation, err)
	}
	return nil
}

// ResultID extracts the "id" field used by snapshotDocuments and
// startReplicator replies.
func ResultID(resp *protocol.Response) (string, error) {
	raw, ok := resp.Body["id"]
	if !ok {
		return "", fmt.Errorf("v1: %s reply missing id", resp.Operation)
	}
	id, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("v1: %s reply id is not a string", resp.Operation)
	}
	return id, nil
}
