package normalize

import (
	"sort"
	"strings"
)

// Location names one known sub-object of a raw partner payload.
type Location int

const (
	LocItem Location = iota
	LocDates
	LocAPI
	LocBank
	LocProposal
	LocClient
	LocAddress
	LocPhone
	numLocations
)

var locationNames = [...]string{"item", "datas", "api", "averbacao", "proposta", "cliente", "endereco", "telefone"}

func (l Location) String() string {
	if l < 0 || l >= numLocations {
		return "unknown"
	}
	return locationNames[l]
}

// Candidate is one place a canonical attribute may be found. Key may be a
// dotted path into nested objects.
type Candidate struct {
	Loc Location
	Key string
}

// At builds candidates probing every key in each location, location-major.
func At(locs []Location, keys ...string) []Candidate {
	out := make([]Candidate, 0, len(locs)*len(keys))
	for _, l := range locs {
		for _, k := range keys {
			out = append(out, Candidate{Loc: l, Key: k})
		}
	}
	return out
}

// Sources holds the sub-objects of one payload, resolved once.
type Sources struct {
	maps [numLocations]map[string]any
}

// Locate splits a raw payload into its known sub-objects. Missing or
// malformed sub-objects resolve to empty maps.
func Locate(item map[string]any) *Sources {
	s := &Sources{}
	s.maps[LocItem] = item
	s.maps[LocDates] = asMap(item["datas"])
	s.maps[LocAPI] = asMap(item["api"])
	s.maps[LocBank] = asMap(item["averbacao"])
	s.maps[LocProposal] = asMap(item["proposta"])
	cli := asMap(item["cliente"])
	s.maps[LocClient] = cli
	s.maps[LocAddress] = asMap(cli["endereco"])
	s.maps[LocPhone] = pickPhoneEntry(cli)
	return s
}

// Map returns the sub-object at l.
func (s *Sources) Map(l Location) map[string]any {
	if l < 0 || l >= numLocations {
		return nil
	}
	return s.maps[l]
}

// First returns the first present, non-empty value among cands.
func (s *Sources) First(cands []Candidate) (any, bool) {
	for _, c := range cands {
		v, ok := lookup(s.Map(c.Loc), c.Key)
		if ok && !isEmpty(v) {
			return v, true
		}
	}
	return nil, false
}

func lookup(m map[string]any, path string) (any, bool) {
	if m == nil {
		return nil, false
	}
	parts := strings.Split(path, ".")
	var cur any = m
	for _, p := range parts {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// pickPhoneEntry selects the client's telephone: the entry matching
// telefone_id when present, else the first object entry. Map-shaped
// telephone sets have no order, so the first entry by key is used.
func pickPhoneEntry(cli map[string]any) map[string]any {
	telID, hasID := Text(cli["telefone_id"])

	switch tels := cli["telefones"].(type) {
	case map[string]any:
		if hasID {
			if e, ok := tels[telID].(map[string]any); ok {
				return e
			}
		}
		keys := make([]string, 0, len(tels))
		for k := range tels {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if e, ok := tels[k].(map[string]any); ok {
				return e
			}
		}
	case []any:
		var first map[string]any
		for _, raw := range tels {
			e, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if first == nil {
				first = e
			}
			if !hasID {
				break
			}
			for _, k := range []string{"telefone_id", "id", "telefoneId"} {
				if id, ok := Text(e[k]); ok {
					if id == telID {
						return e
					}
					break
				}
			}
		}
		if first != nil {
			return first
		}
	}
	return map[string]any{}
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}
