package v1

import (
	"strings"

	"github.com/danmuck/tsctl/internal/protocol"
)

// ResetBody is the payload of POST /reset: a mapping from dataset name to the
// databases to populate from that dataset.
type ResetBody struct {
	datasets map[string][]string
}

func NewResetBody() *ResetBody {
	return &ResetBody{datasets: make(map[string][]string)}
}

// AddDataset registers one dataset and the databases it seeds. Safe on a
// zero-value ResetBody.
func (b *ResetBody) AddDataset(name string, targetDatabases []string) {
	if b.datasets == nil {
		b.datasets = make(map[string][]string)
	}
	b.datasets[name] = targetDatabases
}

// Datasets exposes the registered dataset mapping.
func (b *ResetBody) Datasets() map[string][]string {
	return b.datasets
}

func (b *ResetBody) Kind() protocol.Kind { return protocol.KindReset }

func (b *ResetBody) Validate() error {
	for name := range b.datasets {
		if strings.TrimSpace(name) == "" {
			return protocol.ValidationError{Field: "datasets", Reason: "dataset name must not be empty"}
		}
	}
	return nil
}

func (b *ResetBody) Payload() any {
	datasets := b.datasets
	if datasets == nil {
		datasets = map[string][]string{}
	}
	return map[string]any{"datasets": datasets}
}
