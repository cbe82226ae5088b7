// Package normalize turns raw partner payloads into canonical proposal rows.
//
// Every canonical column is described by a Field: an ordered list of
// (location, key) candidates plus a coercion Kind. A single generic resolver
// walks the candidates, and each coercion returns an optional result, so a
// field that cannot be resolved or coerced is simply null.
package normalize

import (
	"proposal_sync/internal/proposals"
)

// Normalizer converts raw payloads using a field table.
type Normalizer struct {
	fields []Field
}

// New returns a Normalizer over the canonical field table.
func New() *Normalizer {
	return &Normalizer{fields: Fields}
}

// Normalize builds the canonical row for one raw payload of partnerID.
func (n *Normalizer) Normalize(partnerID string, raw map[string]any) proposals.Row {
	row := proposals.NewRow()
	if p, ok := BoundedText(partnerID, proposals.TextMaxLen); ok {
		_ = row.Set(proposals.ColPartner, &p)
	}

	src := Locate(raw)
	for _, f := range n.fields {
		if v, ok := resolve(src, f); ok {
			_ = row.Set(f.Column, &v)
		}
	}
	return row
}

func resolve(src *Sources, f Field) (string, bool) {
	if v, ok := src.First(f.From); ok {
		if out, ok := coerce(f, v); ok {
			return out, true
		}
	}
	if f.Derive != nil {
		if v, ok := f.Derive(src); ok {
			if out, ok := coerce(f, v); ok {
				return out, true
			}
		}
	}
	if f.Default != "" {
		return f.Default, true
	}
	return "", false
}

// coerce applies the column's own length limit only to digit fields. Free
// text is bounded by TextMaxLen alone.
func coerce(f Field, v any) (string, bool) {
	switch f.Kind {
	case KindDate:
		return Date(v)
	case KindFlag:
		return Flag(v)
	case KindDigits:
		return Digits(v, proposals.MaxLen(f.Column))
	case KindUF:
		return UF(v)
	case KindID:
		return BoundedText(v, proposals.KeyMaxLen)
	default:
		return BoundedText(v, proposals.TextMaxLen)
	}
}
