package content

// Summary is a generation without its prompt and HTML.
// Used by list operations to keep responses small.
type Summary struct {
	ID            string `json:"id"`
	Session       string `json:"session"`
	ClinicName    string `json:"clinic_name"`
	MainSpecialty string `json:"main_specialty"`
	Location      string `json:"location"`
	Slug          string `json:"slug"`
	WordCount     int    `json:"word_count"`
	ContentWords  int    `json:"content_words"`
	PromptMode    string `json:"prompt_mode"`
	Provider      string `json:"provider"`
	Model         string `json:"model"`
	CreatedAt     int64  `json:"created_at"`
	DeletedAt     *int64 `json:"deleted_at,omitempty"`
}
