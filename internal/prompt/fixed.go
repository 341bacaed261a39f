package prompt

import (
	"fmt"
	"strings"

	"github.com/hpungsan/clinicseo/internal/clinic"
)

// Section word budgets. These are literal and are not scaled to the
// requested total.
const (
	IntroWords     = 140
	ExpertiseWords = 140
	ServicesWords  = 140
	BookingWords   = 80
)

// Link is an anchor phrase the model must hyperlink exactly once.
type Link struct {
	Anchor string
	URL    string
}

// Fixed hyperlink directives, in the order they are listed in the prompt.
var (
	LinkAestheticEMR = Link{Anchor: "aesthetic EMR software", URL: "https://www.easyclinic.io/aesthetic-emr-software/"}
	LinkFeatures     = Link{Anchor: "clinic software features", URL: "https://www.easyclinic.io/features/"}
	LinkEasyClinic   = Link{Anchor: "EasyClinic", URL: "https://www.easyclinic.io/"}
	LinkPricing      = Link{Anchor: "pricing plans", URL: "https://www.easyclinic.io/pricing/"}

	Links = []Link{LinkAestheticEMR, LinkFeatures, LinkEasyClinic, LinkPricing}
)

// BoldTerms are the clinical terms that may be bolded besides the clinic
// name and its main specialty.
var BoldTerms = []string{
	"NHIF",
	"maternity",
	"Caesarean",
	"Obstetrics",
	"pregnancy",
	"delivery",
	"contraception",
	"menopause",
	"prenatal care",
	"family planning",
	"cervical screening",
	"Maternal and Child Health",
	"Reproductive Health",
}

// Fixed builds the built-in prompt for a profile. The output depends only on
// its arguments.
func Fixed(p clinic.Profile, wordCount int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Consider yourself as a professional medical SEO content writer. Create an SEO-optimized content about %s strictly based on the following data. Do not cook and fabricate details beyond logical extensions of specialties explicitly tied to the data. Use only the provided data with reference to the context below.\n\n", p.Name)

	writeDataBlock(&b, p)

	b.WriteString("STRICT Requirements:\n")
	fmt.Fprintf(&b, "Word Count: The content MUST be exactly %d words.\n", wordCount)
	fmt.Fprintf(&b, "Structure: Distribute words exactly (~%d intro, ~%d expertise, ~%d services, ~%d booking).\n\n",
		IntroWords, ExpertiseWords, ServicesWords, BookingWords)

	b.WriteString("Writing Style Rules:\n")
	b.WriteString("Always write in 3rd person.\n")
	b.WriteString("Do NOT use \"we\", \"us\", \"our\".\n")
	b.WriteString("Do NOT introduce with “Here’s the SEO content…” or “Welcome to…”.\n")
	b.WriteString("Maintain neutral, factual tone.\n\n")

	b.WriteString("Keyword Frequency, Highlighting & Linking:\n")
	fmt.Fprintf(&b, "Limit each key term (\"%s\", \"NHIF\") to 4–5 uses.\n", p.MainSpecialty)
	fmt.Fprintf(&b, "Use <strong> ONLY for: %s.\n", quoteList(append([]string{p.Name, p.MainSpecialty}, BoldTerms...)))
	b.WriteString("Do NOT bold unlisted terms.\n\n")

	b.WriteString("Hyperlinking Rules:\n")
	for _, l := range Links {
		fmt.Fprintf(&b, "- Link “%s” → %s\n", l.Anchor, l.URL)
	}
	b.WriteString("Use each link once only.\n\n")

	contact := ContactSection(p)

	b.WriteString("Integration of Generic Queries:\n")
	fmt.Fprintf(&b, "Intro: Answer “Which is the best clinic near me?” and “Where can I find a trusted clinic in %s?” Include %s link.\n", p.Location, LinkEasyClinic.Anchor)
	fmt.Fprintf(&b, "Expertise: Answer “What clinic offers affordable treatment in %s?” Include %s link.\n", p.MainSpecialty, LinkFeatures.Anchor)
	fmt.Fprintf(&b, "Services: Answer “Clinics offering <strong>%s</strong> in %s” Include %s link.\n", p.MainSpecialty, p.Location, LinkAestheticEMR.Anchor)
	fmt.Fprintf(&b, "Booking: Answer “Best private clinic near me” Include %s link. End with %s.\n\n", LinkPricing.Anchor, contact)

	b.WriteString("Section Breakdown:\n")
	fmt.Fprintf(&b, "Introduction (~%d words) <p>...</p>\n", IntroWords)
	fmt.Fprintf(&b, "Expertise (~%d words) <h2>Expertise and Facilities</h2><ul><li>...</li></ul>\n", ExpertiseWords)
	fmt.Fprintf(&b, "Services (~%d words) <h2>%s Services Offered by %s</h2><ul><li>...</li></ul>\n", ServicesWords, p.MainSpecialty, p.Name)
	fmt.Fprintf(&b, "Booking (~%d words) <h2>Book an Appointment with %s</h2><p>... end with %s</p>\n", BookingWords, p.Name, contact)

	return b.String()
}

// writeDataBlock lists the resolved attributes. Contact lines appear only
// for fields that are present.
func writeDataBlock(b *strings.Builder, p clinic.Profile) {
	b.WriteString("Clinic Data:\n")
	fmt.Fprintf(b, "Clinic Name: %s\n", p.Name)
	fmt.Fprintf(b, "Location: %s\n", p.Location)
	fmt.Fprintf(b, "Main Specialty: %s\n", p.MainSpecialty)
	fmt.Fprintf(b, "Subspecialties: %s\n", p.SubSpecialties)
	fmt.Fprintf(b, "About: %s\n", p.About)
	if p.Contact.Email != nil {
		fmt.Fprintf(b, "- Email: %s\n", *p.Contact.Email)
	}
	if p.Contact.Phone != nil {
		fmt.Fprintf(b, "- Phone: %s\n", *p.Contact.Phone)
	}
	if p.Contact.Website != nil {
		fmt.Fprintf(b, "- Website: %s\n", *p.Contact.Website)
	}
	b.WriteString("\n")
}

func quoteList(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + t + `"`
	}
	return strings.Join(quoted, ", ")
}
