package v1

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/tsctl/internal/protocol"
)

// GetAllDocumentIDsBody is the payload of POST /getAllDocumentIDs.
type GetAllDocumentIDsBody struct {
	Database    string
	Collections []string
}

func (b *GetAllDocumentIDsBody) Kind() protocol.Kind { return protocol.KindGetAllDocumentIDs }

func (b *GetAllDocumentIDsBody) Validate() error {
	if strings.TrimSpace(b.Database) == "" {
		return protocol.ValidationError{Field: "database", Reason: "required"}
	}
	return nil
}

func (b *GetAllDocumentIDsBody) Payload() any {
	return map[string]any{
		"database":    b.Database,
		"collections": emptyIfNil(b.Collections),
	}
}

// UpdateType selects the kind of change one DocumentUpdate applies.
type UpdateType string

const (
	UpdateTypeUpdate UpdateType = "UPDATE"
	UpdateTypeDelete UpdateType = "DELETE"
	UpdateTypePurge  UpdateType = "PURGE"
)

// DocumentUpdate is a single change to one document, batched through
// UpdateDatabaseBody or VerifyDocumentsBody.
type DocumentUpdate struct {
	Type              UpdateType
	Collection        string
	DocumentID        string
	UpdatedProperties map[string]any
	RemovedProperties map[string]any
}

// IsValid reports whether the entry may be serialized. An UPDATE must carry
// at least one updated or removed property; DELETE and PURGE always pass.
func (u DocumentUpdate) IsValid() bool {
	if u.Type != UpdateTypeUpdate {
		return true
	}
	return len(u.UpdatedProperties) > 0 || len(u.RemovedProperties) > 0
}

func (u DocumentUpdate) encode() map[string]any {
	raw := map[string]any{
		"type":       string(u.Type),
		"collection": u.Collection,
		"documentID": u.DocumentID,
	}
	if u.Type != UpdateTypeUpdate {
		return raw
	}
	if len(u.UpdatedProperties) > 0 {
		raw["updatedProperties"] = u.UpdatedProperties
	}
	if len(u.RemovedProperties) > 0 {
		raw["removedProperties"] = u.RemovedProperties
	}
	return raw
}

// encodeUpdates emits valid entries only. Invalid entries are dropped with a
// warning; one bad entry never aborts the batch.
func encodeUpdates(updates []DocumentUpdate) []any {
	raw := make([]any, 0, len(updates))
	for _, u := range updates {
		if !u.IsValid() {
			log.Warn().
				Str("collection", u.Collection).
				Str("document_id", u.DocumentID).
				Msg("skipping invalid document update in batch serialization")
			continue
		}
		raw = append(raw, u.encode())
	}
	return raw
}

// UpdateDatabaseBody is the payload of POST /updateDatabase.
type UpdateDatabaseBody struct {
	Database string
	Updates  []DocumentUpdate
}

func (b *UpdateDatabaseBody) Kind() protocol.Kind { return protocol.KindUpdateDatabase }

func (b *UpdateDatabaseBody) Validate() error {
	if strings.TrimSpace(b.Database) == "" {
		return protocol.ValidationError{Field: "database", Reason: "required"}
	}
	return nil
}

func (b *UpdateDatabaseBody) Payload() any {
	return map[string]any{
		"database": b.Database,
		"updates":  encodeUpdates(b.Updates),
	}
}

// SnapshotTarget names one document to capture in a snapshot.
type SnapshotTarget struct {
	Collection string
	ID         string
}

// SnapshotDocumentsBody is the payload of POST /snapshotDocuments. Unlike the
// other operations its wire shape is a JSON array.
type SnapshotDocumentsBody struct {
	Entries []SnapshotTarget
}

func (b *SnapshotDocumentsBody) Kind() protocol.Kind { return protocol.KindSnapshotDocuments }

func (b *SnapshotDocumentsBody) Validate() error {
	for _, e := range b.Entries {
		if strings.TrimSpace(e.Collection) == "" {
			return protocol.ValidationError{Field: "collection", Reason: "required"}
		}
		if strings.TrimSpace(e.ID) == "" {
			return protocol.ValidationError{Field: "id", Reason: "required"}
		}
	}
	return nil
}

func (b *SnapshotDocumentsBody) Payload() any {
	raw := make([]any, 0, len(b.Entries))
	for _, e := range b.Entries {
		raw = append(raw, map[string]any{"collection": e.Collection, "id": e.ID})
	}
	return raw
}

// VerifyDocumentsBody is the payload of POST /verifyDocuments: the expected
// deltas of a database compared against a previously taken snapshot.
type VerifyDocumentsBody struct {
	Database string
	Snapshot string
	Changes  []DocumentUpdate
}

func (b *VerifyDocumentsBody) Kind() protocol.Kind { return protocol.KindVerifyDocuments }

func (b *VerifyDocumentsBody) Validate() error {
	if strings.TrimSpace(b.Database) == "" {
		return protocol.ValidationError{Field: "database", Reason: "required"}
	}
	if strings.TrimSpace(b.Snapshot) == "" {
		return protocol.ValidationError{Field: "snapshot", Reason: "required"}
	}
	return nil
}

func (b *VerifyDocumentsBody) Payload() any {
	return map[string]any{
		"snapshot": b.Snapshot,
		"database": b.Database,
		"changes":  encodeUpdates(b.Changes),
	}
}

func emptyIfNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
