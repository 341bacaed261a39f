package prompt

import (
	"fmt"

	"github.com/hpungsan/clinicseo/internal/clinic"
)

// ContactSection renders the closing contact sentence for a profile.
// Precedence: email, then phone, then a placeholder anchor. Exactly one
// branch is emitted.
func ContactSection(p clinic.Profile) string {
	switch {
	case p.Contact.Email != nil:
		email := *p.Contact.Email
		return fmt.Sprintf("<p>For inquiries, please contact <strong>%s</strong> at <a href='mailto:%s'>%s</a></p>", p.Name, email, email)
	case p.Contact.Phone != nil:
		return fmt.Sprintf("<p>For inquiries, please contact <strong>%s</strong> at %s</p>", p.Name, *p.Contact.Phone)
	default:
		return fmt.Sprintf("<p>For inquiries, please contact <strong>%s</strong> <a href='#contact'>here</a></p>", p.Name)
	}
}
