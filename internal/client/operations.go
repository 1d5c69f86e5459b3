package client

import (
	"context"

	"github.com/danmuck/tsctl/internal/protocol"
	v1 "github.com/danmuck/tsctl/internal/protocol/v1"
)

// Reset wipes remote state and seeds databases from datasets.
func (c *Client) Reset(ctx context.Context, body *v1.ResetBody) (*protocol.Response, error) {
	return c.send(ctx, v1.OpReset, body)
}

// GetAllDocumentIDs lists document ids per collection. The typed result is
// nil when the server reported an error; inspect resp.Err.
func (c *Client) GetAllDocumentIDs(ctx context.Context, database string, collections ...string) (v1.DocumentIDs, *protocol.Response, error) {
	body := &v1.GetAllDocumentIDsBody{Database: database, Collections: collections}
	resp, err := c.send(ctx, v1.OpGetAllDocumentIDs, body)
	if err != nil || resp.Err != nil {
		return nil, resp, err
	}
	var ids v1.DocumentIDs
	if err := v1.DecodeBody(resp, &ids); err != nil {
		return nil, resp, err
	}
	return ids, resp, nil
}

// UpdateDatabase applies a batch of document changes.
func (c *Client) UpdateDatabase(ctx context.Context, body *v1.UpdateDatabaseBody) (*protocol.Response, error) {
	return c.send(ctx, v1.OpUpdateDatabase, body)
}

// SnapshotDocuments captures a baseline of the named documents and returns
// the snapshot id for later verification.
func (c *Client) SnapshotDocuments(ctx context.Context, entries ...v1.SnapshotTarget) (string, *protocol.Response, error) {
	body := &v1.SnapshotDocumentsBody{Entries: entries}
	resp, err := c.send(ctx, v1.OpSnapshotDocuments, body)
	if err != nil || resp.Err != nil {
		return "", resp, err
	}
	id, err := v1.ResultID(resp)
	if err != nil {
		return "", resp, err
	}
	return id, resp, nil
}

// VerifyDocuments checks expected deltas against a snapshot.
func (c *Client) VerifyDocuments(ctx context.Context, body *v1.VerifyDocumentsBody) (*v1.VerifyResult, *protocol.Response, error) {
	resp, err := c.send(ctx, v1.OpVerifyDocuments, body)
	if err != nil || resp.Err != nil {
		return nil, resp, err
	}
	var result v1.VerifyResult
	if err := v1.DecodeBody(resp, &result); err != nil {
		return nil, resp, err
	}
	return &result, resp, nil
}

// StartReplicator starts a replication and returns its id.
func (c *Client) StartReplicator(ctx context.Context, body *v1.StartReplicatorBody) (string, *protocol.Response, error) {
	resp, err := c.send(ctx, v1.OpStartReplicator, body)
	if err != nil || resp.Err != nil {
		return "", resp, err
	}
	id, err := v1.ResultID(resp)
	if err != nil {
		return "", resp, err
	}
	return id, resp, nil
}

// ReplicatorStatus polls one replicator.
func (c *Client) ReplicatorStatus(ctx context.Context, replicatorID string) (*v1.ReplicatorStatus, *protocol.Response, error) {
	body := &v1.GetReplicatorStatusBody{ReplicatorID: replicatorID}
	resp, err := c.send(ctx, v1.OpGetReplicatorStatus, body)
	if err != nil || resp.Err != nil {
		return nil, resp, err
	}
	var status v1.ReplicatorStatus
	if err := v1.DecodeBody(resp, &status); err != nil {
		return nil, resp, err
	}
	return &status, resp, nil
}
