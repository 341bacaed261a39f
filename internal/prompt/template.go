package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hpungsan/clinicseo/internal/clinic"
)

// Variables is the placeholder vocabulary accepted by FromTemplate, in order.
var Variables = []string{
	"clinic_name",
	"main_specialty",
	"sub_specialties",
	"about",
	"location",
	"word_count",
	"email",
	"phone",
	"website",
}

// Compose modes.
const (
	ModeFixed    = "fixed"
	ModeTemplate = "template"
)

// TemplateError reports a placeholder outside the vocabulary.
type TemplateError struct {
	Variable string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("unknown template variable %q", e.Variable)
}

// Hint is the correction text shown to the user in place of a prompt.
func (e *TemplateError) Hint() string {
	return fmt.Sprintf("Error: Missing variable in prompt template: '%s'. Available variables: %s",
		e.Variable, strings.Join(Variables, ", "))
}

// Values builds the substitution mapping. Absent contact fields map to "".
func Values(p clinic.Profile, wordCount int) map[string]string {
	return map[string]string{
		"clinic_name":     p.Name,
		"main_specialty":  p.MainSpecialty,
		"sub_specialties": p.SubSpecialties,
		"about":           p.About,
		"location":        p.Location,
		"word_count":      strconv.Itoa(wordCount),
		"email":           deref(p.Contact.Email),
		"phone":           deref(p.Contact.Phone),
		"website":         deref(p.Contact.Website),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// FromTemplate substitutes {name} placeholders in tmpl. "{{" and "}}" are
// literal braces, and a "{" with no closing brace is kept as is. The first
// unknown name fails with *TemplateError.
func FromTemplate(p clinic.Profile, wordCount int, tmpl string) (string, error) {
	values := Values(p, wordCount)

	var b strings.Builder
	b.Grow(len(tmpl))
	err := scan(tmpl, func(lit string) {
		b.WriteString(lit)
	}, func(name string) error {
		v, ok := values[name]
		if !ok {
			return &TemplateError{Variable: name}
		}
		b.WriteString(v)
		return nil
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// scan walks tmpl, passing literal runs to lit and placeholder names to
// field. It stops at the first error returned by field.
func scan(tmpl string, lit func(string), field func(string) error) error {
	start := 0
	i := 0
	for i < len(tmpl) {
		c := tmpl[i]
		switch {
		case c == '{' && i+1 < len(tmpl) && tmpl[i+1] == '{':
			lit(tmpl[start:i] + "{")
			i += 2
			start = i
		case c == '}' && i+1 < len(tmpl) && tmpl[i+1] == '}':
			lit(tmpl[start:i] + "}")
			i += 2
			start = i
		case c == '{':
			end := strings.IndexAny(tmpl[i+1:], "{}")
			if end < 0 || tmpl[i+1+end] != '}' {
				// unmatched, keep literally
				i++
				continue
			}
			lit(tmpl[start:i])
			if err := field(tmpl[i+1 : i+1+end]); err != nil {
				return err
			}
			i += end + 2
			start = i
		default:
			i++
		}
	}
	lit(tmpl[start:])
	return nil
}

// Result is the outcome of Compose. When Err is set, Text holds the
// correction hint instead of a prompt.
type Result struct {
	Text string
	Mode string
	Err  *TemplateError
}

// Compose uses the fixed prompt when tmpl is empty and the template otherwise.
// Template failures are returned in the Result, never as a panic or error.
func Compose(p clinic.Profile, wordCount int, tmpl string) Result {
	if tmpl == "" {
		return Result{Text: Fixed(p, wordCount), Mode: ModeFixed}
	}

	text, err := FromTemplate(p, wordCount, tmpl)
	if err != nil {
		te := err.(*TemplateError)
		return Result{Text: te.Hint(), Mode: ModeTemplate, Err: te}
	}
	return Result{Text: text, Mode: ModeTemplate}
}

// DefaultTemplate is the editable starting template. It mirrors the fixed
// prompt using placeholders, with the contact fields listed plainly since a
// template cannot branch on absence.
const DefaultTemplate = `Consider yourself as a professional medical SEO content writer. Create an SEO-optimized content about {clinic_name} strictly based on the following data. Do not cook and fabricate details beyond logical extensions of specialties explicitly tied to the data. Use only the provided data with reference to the context below.

Clinic Data:
Clinic Name: {clinic_name}
Location: {location}
Main Specialty: {main_specialty}
Subspecialties: {sub_specialties}
About: {about}
- Email: {email}
- Phone: {phone}
- Website: {website}

STRICT Requirements:
Word Count: The content MUST be exactly {word_count} words.
Structure: Distribute words exactly (~140 intro, ~140 expertise, ~140 services, ~80 booking).

Writing Style Rules:
Always write in 3rd person.
Do NOT use "we", "us", "our".
Do NOT introduce with “Here’s the SEO content…” or “Welcome to…”.
Maintain neutral, factual tone.

Keyword Frequency, Highlighting & Linking:
Limit each key term ("{main_specialty}", "NHIF") to 4–5 uses.
Use <strong> ONLY for: "{clinic_name}", "{main_specialty}", "NHIF", "maternity", "Caesarean", "Obstetrics", "pregnancy", "delivery", "contraception", "menopause", "prenatal care", "family planning", "cervical screening", "Maternal and Child Health", "Reproductive Health".
Do NOT bold unlisted terms.

Hyperlinking Rules:
- Link “aesthetic EMR software” → https://www.easyclinic.io/aesthetic-emr-software/
- Link “clinic software features” → https://www.easyclinic.io/features/
- Link “EasyClinic” → https://www.easyclinic.io/
- Link “pricing plans” → https://www.easyclinic.io/pricing/
Use each link once only.

Integration of Generic Queries:
Intro: Answer “Which is the best clinic near me?” and “Where can I find a trusted clinic in {location}?” Include EasyClinic link.
Expertise: Answer “What clinic offers affordable treatment in {main_specialty}?” Include clinic software features link.
Services: Answer “Clinics offering <strong>{main_specialty}</strong> in {location}” Include aesthetic EMR software link.
Booking: Answer “Best private clinic near me” Include pricing plans link. End with the contact details of {clinic_name}.

Section Breakdown:
Introduction (~140 words) <p>...</p>
Expertise (~140 words) <h2>Expertise and Facilities</h2><ul><li>...</li></ul>
Services (~140 words) <h2>{main_specialty} Services Offered by {clinic_name}</h2><ul><li>...</li></ul>
Booking (~80 words) <h2>Book an Appointment with {clinic_name}</h2><p>... end with the contact details</p>
`
