package protocol

import (
	"fmt"
	"sort"
)

// MaxAPIVersion is the newest protocol version this client build understands.
const MaxAPIVersion = 1

// AcceptVersion checks a server-declared api version against the set of
// versions this build supports.
func AcceptVersion(version int) error {
	if version < 1 || version > MaxAPIVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	return nil
}

// Contract binds an operation name at one api version to its HTTP method and
// the body kind it accepts.
type Contract struct {
	Version   int
	Operation string
	Method    string
	Kind      Kind
}

// Resolver maps (api version, operation name) to the concrete wire contract.
// Call sites never construct contracts directly, so a future version can add
// or reshape an operation behind a new table entry.
type Resolver struct {
	table map[int]map[string]Contract
}

// NewResolver builds a resolver from per-version contract tables.
func NewResolver(contracts ...Contract) *Resolver {
	table := make(map[int]map[string]Contract)
	for _, c := range contracts {
		byOp, ok := table[c.Version]
		if !ok {
			byOp = make(map[string]Contract)
			table[c.Version] = byOp
		}
		byOp[c.Operation] = c
	}
	return &Resolver{table: table}
}

// Resolve returns the contract for one operation at one api version.
func (r *Resolver) Resolve(version int, operation string) (Contract, error) {
	byOp, ok := r.table[version]
	if !ok {
		return Contract{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	c, ok := byOp[operation]
	if !ok {
		return Contract{}, fmt.Errorf("%w: %q at v%d", ErrUnsupportedOperation, operation, version)
	}
	return c, nil
}

// Operations lists the operation names defined at one api version, sorted.
func (r *Resolver) Operations(version int) []string {
	byOp := r.table[version]
	ops := make([]string, 0, len(byOp))
	for op := range byOp {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// Versions lists the api versions the resolver holds tables for, sorted.
func (r *Resolver) Versions() []int {
	versions := make([]int, 0, len(r.table))
	for v := range r.table {
		versions = append(versions, v)
	}
	sort.Ints(versions)
	return versions
}
