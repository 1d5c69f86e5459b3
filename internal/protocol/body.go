package protocol

import "fmt"

// Kind tags each operation body variant. The request envelope checks a body's
// kind against the resolved contract before anything is serialized.
type Kind uint8

const (
	KindNone Kind = iota
	KindReset
	KindGetAllDocumentIDs
	KindUpdateDatabase
	KindSnapshotDocuments
	KindVerifyDocuments
	KindStartReplicator
	KindGetReplicatorStatus
)

var kindNames = [...]string{
	KindNone:                "none",
	KindReset:               "reset",
	KindGetAllDocumentIDs:   "getAllDocumentIDs",
	KindUpdateDatabase:      "updateDatabase",
	KindSnapshotDocuments:   "snapshotDocuments",
	KindVerifyDocuments:     "verifyDocuments",
	KindStartReplicator:     "startReplicator",
	KindGetReplicatorStatus: "getReplicatorStatus",
}

func (k Kind) String() string {
	if int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// Body is one operation payload. Validate runs before serialization; Payload
// returns the canonical JSON value for the wire (an object for most
// operations, an array for snapshotDocuments).
type Body interface {
	Kind() Kind
	Validate() error
	Payload() any
}

// ValidationError reports one field that fails a body's completeness rules.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("protocol: field %q: %s", e.Field, e.Reason)
}
