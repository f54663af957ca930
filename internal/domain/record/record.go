package record

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/fuzzysuggest/internal/domain"
)

// Size limits for record fields.
const (
	MaxNameSize = 256
	MaxIDSize   = 512
)

// Record is a short text entry in the catalog (immutable value object).
// Identity is the id; names may repeat across records.
type Record struct {
	id   string
	name string
}

// New validates and creates a Record. An empty id means the store assigns one.
func New(id, name string) (Record, error) {
	if strings.TrimSpace(name) == "" {
		return Record{}, fmt.Errorf("%w: name is required", domain.ErrInvalidRecord)
	}
	if len(name) > MaxNameSize {
		return Record{}, fmt.Errorf("%w: name too long (max %d bytes)", domain.ErrInvalidRecord, MaxNameSize)
	}
	if len(id) > MaxIDSize {
		return Record{}, fmt.Errorf("%w: id too long (max %d bytes)", domain.ErrInvalidRecord, MaxIDSize)
	}
	if strings.ContainsAny(id, "/\\") {
		return Record{}, fmt.Errorf("%w: id must not contain path separators", domain.ErrInvalidRecord)
	}
	return Record{id: id, name: name}, nil
}

// Reconstruct creates a Record without validation (storage hydration).
func Reconstruct(id, name string) Record {
	return Record{id: id, name: name}
}

// ID returns the record identifier.
func (r Record) ID() string { return r.id }

// Name returns the record text.
func (r Record) Name() string { return r.name }

// WithID returns a copy carrying the given id.
func (r Record) WithID(id string) Record {
	return Record{id: id, name: r.name}
}

// Names projects records to their names, preserving order.
func Names(rs []Record) []string {
	out := make([]string, len(rs))
	for i := range rs {
		out[i] = rs[i].name
	}
	return out
}
