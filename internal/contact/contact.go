// Package contact defines the record type flowing through the pipeline.
// Contacts are open maps: enrichment strategies read the fields they need
// and pass everything else through untouched.
package contact

import "strings"

// Record is one contact as submitted by the client.
type Record map[string]any

// StringField returns the named field as a trimmed string. The second return
// is false when the field is absent, not a string, or blank.
func (r Record) StringField(name string) (string, bool) {
	v, ok := r[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// Clone returns a shallow copy of the record, so strategies can add derived
// fields without mutating the input.
func (r Record) Clone() Record {
	out := make(Record, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	return out
}
