package models

import "slices"

// FormState is an immutable snapshot of the order form. Mutations always
// produce a new value; holders of an older snapshot never observe changes.
type FormState struct {
	Establishments        []string `json:"establishments"`
	SelectedEstablishment *string  `json:"selected_establishment"`
	Order                 string   `json:"order"`
	Comment               string   `json:"comment"`
	IsExistingOrderToday  bool     `json:"is_existing_order_today"`
	IsLoading             bool     `json:"is_loading"`
}

// Initial returns the loading state every session starts from.
func Initial() FormState {
	return FormState{
		Establishments: []string{},
		IsLoading:      true,
	}
}

// Clone deep-copies the snapshot so the copy shares no memory with s.
func (s FormState) Clone() FormState {
	out := s
	out.Establishments = slices.Clone(s.Establishments)
	if out.Establishments == nil {
		out.Establishments = []string{}
	}
	if s.SelectedEstablishment != nil {
		v := *s.SelectedEstablishment
		out.SelectedEstablishment = &v
	}
	return out
}

// Establishment returns the selected establishment or an empty string.
func (s FormState) Establishment() string {
	if s.SelectedEstablishment == nil {
		return ""
	}
	return *s.SelectedEstablishment
}

// HasEstablishment reports whether name is one of the selectable options.
func (s FormState) HasEstablishment(name string) bool {
	return slices.Contains(s.Establishments, name)
}

// Equal compares two snapshots by value.
func (s FormState) Equal(o FormState) bool {
	if s.Order != o.Order || s.Comment != o.Comment ||
		s.IsExistingOrderToday != o.IsExistingOrderToday || s.IsLoading != o.IsLoading {
		return false
	}
	if (s.SelectedEstablishment == nil) != (o.SelectedEstablishment == nil) {
		return false
	}
	if s.SelectedEstablishment != nil && *s.SelectedEstablishment != *o.SelectedEstablishment {
		return false
	}
	return slices.Equal(s.Establishments, o.Establishments)
}
