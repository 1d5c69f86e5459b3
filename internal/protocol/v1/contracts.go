package v1

import "github.com/danmuck/tsctl/internal/protocol"

// Version is the api version this package implements.
const Version = 1

// Operation names defined at v1.
const (
	OpReset               = "reset"
	OpGetAllDocumentIDs   = "getAllDocumentIDs"
	OpUpdateDatabase      = "updateDatabase"
	OpSnapshotDocuments   = "snapshotDocuments"
	OpVerifyDocuments     = "verifyDocuments"
	OpStartReplicator     = "startReplicator"
	OpGetReplicatorStatus = "getReplicatorStatus"
)

// Contracts returns the v1 operation table for the resolver.
func Contracts() []protocol.Contract {
	ops := []struct {
		name string
		kind protocol.Kind
	}{
		{OpReset, protocol.KindReset},
		{OpGetAllDocumentIDs, protocol.KindGetAllDocumentIDs},
		{OpUpdateDatabase, protocol.KindUpdateDatabase},
		{OpSnapshotDocuments, protocol.KindSnapshotDocuments},
		{OpVerifyDocuments, protocol.KindVerifyDocuments},
		{OpStartReplicator, protocol.KindStartReplicator},
		{OpGetReplicatorStatus, protocol.KindGetReplicatorStatus},
	}

	contracts := make([]protocol.Contract, 0, len(ops))
	for _, op := range ops {
		contracts = append(contracts, protocol.Contract{
			Version:   Version,
			Operation: op.name,
			Method:    "post",
			Kind:      op.kind,
		})
	}
	return contracts
}
