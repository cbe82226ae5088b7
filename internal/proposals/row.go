package proposals

import (
	"fmt"
	"strings"
)

// Row is one canonical proposal. Every attribute is independently nullable.
type Row struct {
	values []*string
}

// NewRow returns a row with every attribute null.
func NewRow() Row {
	return Row{values: make([]*string, len(Columns))}
}

// Get returns the value of col, or nil when null or unknown.
func (r Row) Get(col string) *string {
	i, ok := columnIndex[col]
	if !ok || i >= len(r.values) {
		return nil
	}
	return r.values[i]
}

// Set assigns col. Unknown columns are rejected.
func (r *Row) Set(col string, v *string) error {
	i, ok := columnIndex[col]
	if !ok {
		return fmt.Errorf("unknown column %q", col)
	}
	if r.values == nil {
		r.values = make([]*string, len(Columns))
	}
	r.values[i] = v
	return nil
}

// Values returns the attributes in Columns order, nulls as nil.
func (r Row) Values() []any {
	out := make([]any, len(Columns))
	for i := range Columns {
		if i < len(r.values) && r.values[i] != nil {
			out[i] = *r.values[i]
		}
	}
	return out
}

// Clone returns a deep copy of r.
func (r Row) Clone() Row {
	c := NewRow()
	for i, v := range r.values {
		if v != nil {
			s := *v
			c.values[i] = &s
		}
	}
	return c
}

// Key returns the normalized merge key of r.
func (r Row) Key() MergeKey {
	var k MergeKey
	for i, col := range MergeKeyColumns {
		k[i] = NormalizeKeyPart(r.Get(col))
	}
	return k
}

// MergeKey is the normalized identity tuple of a proposal.
type MergeKey [6]string

// String renders the key for logs.
func (k MergeKey) String() string {
	return strings.Join(k[:], "|")
}

// KeyTrimSet is the padding ignored around merge key parts. The SQL merge
// and the target index trim the same set.
const KeyTrimSet = " \t\r\n"

// NormalizeKeyPart applies the merge comparison: null equals empty,
// surrounding padding is ignored and case does not matter.
func NormalizeKeyPart(v *string) string {
	if v == nil {
		return ""
	}
	return strings.ToLower(strings.Trim(*v, KeyTrimSet))
}
