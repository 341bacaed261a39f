package clinic

import "strings"

// Profile defaults applied when no candidate key resolves.
const (
	DefaultName          = "Clinic"
	DefaultMainSpecialty = "Healthcare"
	DefaultAbout         = "Not provided"
	DefaultLocation      = "Kenya"
)

// Candidate keys per attribute, in priority order.
var (
	NameKeys           = []string{"name", "Name", "clinicName"}
	SpecialtyKeys      = []string{"specialty", "Specialty", "mainSpecialty"}
	SubSpecialtiesKeys = []string{"subSpecialties", "SubSpecialties"}
	AboutKeys          = []string{"about", "About", "description", "Description"}
	LocationKeys       = []string{"location", "city", "county", "country", "address"}

	EmailKeys   = []string{"email", "Email", "contact_email", "contactEmail"}
	PhoneKeys   = []string{"phone", "Phone", "phoneNumber", "mobile"}
	WebsiteKeys = []string{"website", "Website", "url", "URL"}
)

// ResolveField returns the value of the first key in keys that is present in r,
// holds a string, and is non-blank. The value is returned untrimmed.
func ResolveField(r Record, keys []string) (string, bool) {
	for _, key := range keys {
		v, ok := r[key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		return s, true
	}
	return "", false
}

// resolveOr resolves keys and falls back to def.
func resolveOr(r Record, keys []string, def string) string {
	if v, ok := ResolveField(r, keys); ok {
		return v
	}
	return def
}

// resolveOptional resolves keys into a pointer, nil when absent.
func resolveOptional(r Record, keys []string) *string {
	if v, ok := ResolveField(r, keys); ok {
		return &v
	}
	return nil
}

// ResolveContact resolves email, phone and website independently.
func ResolveContact(r Record) Contact {
	return Contact{
		Email:   resolveOptional(r, EmailKeys),
		Phone:   resolveOptional(r, PhoneKeys),
		Website: resolveOptional(r, WebsiteKeys),
	}
}

// ResolveProfile maps any record to a complete Profile. It never fails:
// missing or malformed fields take their defaults. SubSpecialties falls back
// to the resolved main specialty, defaulted or not.
func ResolveProfile(r Record) Profile {
	specialty := resolveOr(r, SpecialtyKeys, DefaultMainSpecialty)
	return Profile{
		Name:           resolveOr(r, NameKeys, DefaultName),
		MainSpecialty:  specialty,
		SubSpecialties: resolveOr(r, SubSpecialtiesKeys, specialty),
		About:          resolveOr(r, AboutKeys, DefaultAbout),
		Location:       resolveOr(r, LocationKeys, DefaultLocation),
		Contact:        ResolveContact(r),
	}
}
