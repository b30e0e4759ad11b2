package request

// AddPlayerRequest is the request body for adding a player to the roster
type AddPlayerRequest struct {
	Name string `json:"name"`
}

// UpdateSettingsRequest is the request body for changing setup options.
// Omitted fields are left unchanged.
type UpdateSettingsRequest struct {
	ImpostorCount *int  `json:"impostor_count,omitempty"`
	HideCategory  *bool `json:"hide_category,omitempty"`
	HideHint      *bool `json:"hide_hint,omitempty"`
}

// IsEmpty reports whether the request changes nothing
func (r UpdateSettingsRequest) IsEmpty() bool {
	return r.ImpostorCount == nil && r.HideCategory == nil && r.HideHint == nil
}
