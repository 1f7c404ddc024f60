package activity

import (
	"reflect"
	"sort"
)

// Change is one field that differs between the before and after images.
type Change struct {
	Field string `json:"field"`
	Old   any    `json:"old"`
	New   any    `json:"new"`
}

// Metadata is the optional before/after diff attached to a record.
type Metadata struct {
	OldData map[string]any `json:"oldData,omitempty"`
	NewData map[string]any `json:"newData,omitempty"`
	Changes []Change       `json:"changes,omitempty"`
}

// NewMetadata computes the field-level changes between before and after.
// Either side may be nil.
func NewMetadata(before, after map[string]any) Metadata {
	return Metadata{
		OldData: before,
		NewData: after,
		Changes: ComputeChanges(before, after),
	}
}

func (m Metadata) IsEmpty() bool {
	return len(m.OldData) == 0 && len(m.NewData) == 0 && len(m.Changes) == 0
}

// ComputeChanges returns the fields whose values differ, sorted by name.
func ComputeChanges(before, after map[string]any) []Change {
	fields := make(map[string]struct{}, len(before)+len(after))
	for k := range before {
		fields[k] = struct{}{}
	}
	for k := range after {
		fields[k] = struct{}{}
	}

	var changes []Change
	for f := range fields {
		o, n := before[f], after[f]
		if !reflect.DeepEqual(o, n) {
			changes = append(changes, Change{Field: f, Old: o, New: n})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Field < changes[j].Field })
	return changes
}
