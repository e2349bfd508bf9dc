package types

import "strings"

// Entity is implemented by every record kept in an entity collection.
// Implementations must tolerate a nil receiver.
type Entity interface {
	EntityID() string
	SearchFields() []string
	FieldValue(name string) (string, bool)
}

const FilterAll = "all"

// IsFilterAll reports whether a filter value places no constraint.
func IsFilterAll(value string) bool {
	value = strings.TrimSpace(value)
	return value == "" || strings.EqualFold(value, FilterAll)
}

// Matches reports whether e passes the free-text term and every
// constraining filter. An unknown filter field never matches.
func Matches(e Entity, term string, filters map[string]string) bool {
	if e == nil || e.EntityID() == "" {
		return false
	}
	if !MatchesTerm(e, term) {
		return false
	}
	for field, want := range filters {
		if IsFilterAll(want) {
			continue
		}
		got, ok := e.FieldValue(field)
		if !ok || got != want {
			return false
		}
	}
	return true
}

func MatchesTerm(e Entity, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, field := range e.SearchFields() {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// CloneFilters returns a copy of filters with keys normalized.
func CloneFilters(filters map[string]string) map[string]string {
	out := make(map[string]string, len(filters))
	for key, value := range filters {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(value)
	}
	return out
}
