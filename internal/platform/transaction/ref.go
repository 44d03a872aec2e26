package transaction

import (
	"encoding/json"
	"fmt"
)

// Ref is a reference to another record that the API sometimes carries as a
// bare identifier and sometimes as an expanded object. All consumers go
// through Key() instead of inspecting the wire shape themselves.
type Ref struct {
	ID    string
	Name  string
	Email string

	// Expanded marks refs that carry the full record, not just the id
	Expanded bool
}

// RefID builds a bare identifier reference
func RefID(id string) Ref {
	return Ref{ID: id}
}

// ExpandedRef builds a reference carrying the full record
func ExpandedRef(id, name, email string) Ref {
	return Ref{ID: id, Name: name, Email: email, Expanded: true}
}

// IsZero reports whether the reference is absent
func (r Ref) IsZero() bool {
	return r.ID == ""
}

// Key returns the normalized identifier regardless of wire shape
func (r Ref) Key() string {
	return r.ID
}

// expandedRef is the wire shape of an expanded reference
type expandedRef struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// MarshalJSON encodes a bare ref as a string and an expanded ref as an object
func (r Ref) MarshalJSON() ([]byte, error) {
	if r.IsZero() {
		return []byte("null"), nil
	}
	if r.Expanded {
		return json.Marshal(expandedRef{ID: r.ID, Name: r.Name, Email: r.Email})
	}
	return json.Marshal(r.ID)
}

// UnmarshalJSON accepts null, a bare id string, or an expanded object
func (r *Ref) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Ref{}
		return nil
	}

	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*r = RefID(id)
		return nil
	}

	var obj expandedRef
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid reference: %w", err)
	}
	*r = ExpandedRef(obj.ID, obj.Name, obj.Email)
	return nil
}
