package clinic

// Record is one clinic's raw data as parsed from JSON.
// Keys and value types are not known in advance; resolution never mutates it.
type Record map[string]any

// Contact holds the optional contact channels of a clinic.
// A nil field means the record had no usable value for it.
type Contact struct {
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Website *string `json:"website,omitempty"`
}

// Profile is the canonical, fully defaulted set of clinic attributes.
// Every string field is non-empty after ResolveProfile.
type Profile struct {
	Name           string  `json:"name"`
	MainSpecialty  string  `json:"main_specialty"`
	SubSpecialties string  `json:"sub_specialties"`
	About          string  `json:"about"`
	Location       string  `json:"location"`
	Contact        Contact `json:"contact"`
}
