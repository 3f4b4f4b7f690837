package types

// Record is one Deb822 stanza: an ordered set of fields plus their raw
// string values, exactly as read from a Packages/Sources/Release file.
// Binary and source package models carry a Record alongside their typed
// view so that fields the typed model doesn't promote remain inspectable.
type Record struct {
	Fields []string
	Values map[string]string
}

// Get returns a field's value and whether it was present.
func (r Record) Get(field string) (string, bool) {
	if r.Values == nil {
		return "", false
	}
	v, ok := r.Values[field]
	return v, ok
}

// GetDefault returns a field's value or def if the field is absent.
func (r Record) GetDefault(field, def string) string {
	if v, ok := r.Get(field); ok {
		return v
	}
	return def
}
