package web

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"html/template"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/clinicseo/internal/config"
	"github.com/hpungsan/clinicseo/internal/errors"
	"github.com/hpungsan/clinicseo/internal/llm"
	"github.com/hpungsan/clinicseo/internal/logging"
	"github.com/hpungsan/clinicseo/internal/ops"
	"github.com/hpungsan/clinicseo/internal/prompt"
)

const (
	// sessionCookie holds the browser's session key (a ULID).
	sessionCookie = "clinicseo_session"

	// multipartMemory is how much of an upload is kept in memory before spilling to disk.
	multipartMemory = 1 << 20

	// formSlack covers form fields other than the record and template.
	formSlack = 64 << 10
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	gen      llm.Generator
	log      *logging.Logger
	renderer *Renderer
}

// session returns the caller's session key, minting one and setting the
// cookie when it is missing or malformed.
func (h *Handlers) session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if _, err := ulid.ParseStrict(c.Value); err == nil {
			return c.Value
		}
	}

	id, err := ops.NewSessionID()
	if err != nil {
		h.log.Warn("session id generation failed; using shared session", "error", err)
		return ops.DefaultSession
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// HandleForm handles GET /generate: the record, word count and template form.
func (h *Handlers) HandleForm(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)

	data, err := h.formData(r, session)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	switch r.URL.Query().Get("notice") {
	case "saved":
		data.Notice = "Template saved."
	case "reset":
		data.Notice = "Template reset to the default."
	}

	h.renderer.renderPage(w, r, "generate", data)
}

// HandleGenerate handles POST /generate: compose, call the model, show the result.
func (h *Handlers) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)

	if err := h.parseForm(w, r); err != nil {
		h.renderFormError(w, r, session, err)
		return
	}

	record, err := h.readRecord(r)
	if err != nil {
		h.renderFormError(w, r, session, err)
		return
	}

	wordCount, err := parseFormInt(r, "word_count")
	if err != nil {
		h.renderFormError(w, r, session, err)
		return
	}

	input := ops.GenerateInput{
		RecordJSON: record,
		WordCount:  wordCount,
		Mode:       r.FormValue("mode"),
		Session:    session,
	}
	if strings.EqualFold(input.Mode, prompt.ModeTemplate) {
		if text := r.FormValue("template"); strings.TrimSpace(text) != "" {
			input.Template = &text
		}
	}

	result, err := ops.Generate(r.Context(), h.db, h.cfg, h.gen, input)
	if err != nil {
		h.log.Warn("generation failed", "session", session, "error", err)
		h.renderFormError(w, r, session, err)
		return
	}

	h.log.Info("generation finished",
		"session", session,
		"generated", result.Generated,
		"id", result.ID,
		"mode", result.Mode,
		"words", result.ContentWords,
	)

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	data := ResultPageData{
		PageData: PageData{
			Title:   result.Profile.Name,
			Version: h.renderer.version,
			Nav:     "generate",
		},
		Result: result,
	}
	if result.Generated {
		data.Preview = renderPreview(result.Content)
	}
	h.renderer.renderPage(w, r, "result", data)
}

// HandleTemplateSave handles POST /template: store the session's template.
func (h *Handlers) HandleTemplateSave(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)

	if err := h.parseForm(w, r); err != nil {
		h.renderFormError(w, r, session, err)
		return
	}

	result, err := ops.SaveTemplate(r.Context(), h.db, h.cfg, ops.SaveTemplateInput{
		Session: session,
		Text:    r.FormValue("template"),
	})
	if err != nil {
		h.renderFormError(w, r, session, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	h.redirect(w, r, "/generate?notice=saved")
}

// HandleTemplateReset handles POST /template/reset: return to the default template.
func (h *Handlers) HandleTemplateReset(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)

	result, err := ops.ResetTemplate(r.Context(), h.db, ops.ResetTemplateInput{Session: session})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	h.redirect(w, r, "/generate?notice=reset")
}

// HandleHistory handles GET /generations: this session's generations, or all with ?all=true.
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	all := parseBoolParam(r, "all")

	input := ops.ListInput{
		Limit:          parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:         parseIntParam(r, "offset", 0),
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	}
	if !all {
		input.Session = session
	}

	result, err := ops.List(r.Context(), h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "history", HistoryPageData{
		PageData: PageData{
			Title:   "History",
			Version: h.renderer.version,
			Nav:     "history",
		},
		Items:      result.Items,
		Pagination: result.Pagination,
		All:        all,
		Deleted:    input.IncludeDeleted,
	})
}

// HandleDetail handles GET /generations/{id}: view a stored generation.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("generation ID is required"))
		return
	}

	g, err := ops.Fetch(r.Context(), h.db, ops.FetchInput{
		ID:             id,
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
		IncludePrompt:  true,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData: PageData{
			Title:   g.Profile.Name,
			Version: h.renderer.version,
			Nav:     "history",
		},
		Generation: g,
		Preview:    renderPreview(g.Content),
	})
}

// HandleDownload handles GET /generations/{id}/download: the HTML as an attachment.
func (h *Handlers) HandleDownload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("generation ID is required"))
		return
	}

	g, err := ops.Fetch(r.Context(), h.db, ops.FetchInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{
		"filename": ops.SanitizeForFilename(g.Filename),
	})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Length", strconv.Itoa(len(g.Content)))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, g.Content)
}

// HandleDelete handles DELETE /generations/{id} and POST /generations/{id}/delete.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("generation ID is required"))
		return
	}

	result, err := ops.Delete(r.Context(), h.db, ops.DeleteInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	h.redirect(w, r, "/generations")
}

// HandlePurge handles POST /generations/purge: permanently delete soft-deleted generations.
// Only the caller's session is purged unless all=true.
func (h *Handlers) HandlePurge(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)

	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	if r.FormValue("confirm") != "true" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("confirm parameter must be \"true\""))
		return
	}

	var input ops.PurgeInput
	if r.FormValue("all") != "true" {
		input.Session = &session
	}

	if days := r.FormValue("older_than_days"); days != "" {
		d, err := strconv.Atoi(days)
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("older_than_days must be an integer"))
			return
		}
		input.OlderThanDays = &d
	}

	result, err := ops.Purge(r.Context(), h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `<div class="purge-result">%s</div>`, template.HTMLEscapeString(result.Message))
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.redirect(w, r, "/generations?include_deleted=true")
}

// formData builds the generation form for a session.
func (h *Handlers) formData(r *http.Request, session string) (*GeneratePageData, error) {
	current, err := ops.GetTemplate(r.Context(), h.db, ops.GetTemplateInput{Session: session})
	if err != nil {
		return nil, err
	}

	return &GeneratePageData{
		PageData: PageData{
			Title:   "Generate",
			Version: h.renderer.version,
			Nav:     "generate",
		},
		WordCount:         h.cfg.DefaultWordCount,
		MinWords:          h.cfg.MinWordCount,
		MaxWords:          h.cfg.MaxWordCount,
		WordStep:          h.cfg.WordCountStep,
		Mode:              prompt.ModeFixed,
		Template:          current.Text,
		TemplateIsDefault: current.IsDefault,
		Variables:         current.Variables,
	}, nil
}

// renderFormError re-renders the form with the submitted values and the
// error message for client errors. Other errors get the regular error page.
func (h *Handlers) renderFormError(w http.ResponseWriter, r *http.Request, session string, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) || appErr.Status >= 500 || wantsJSON(r) || r.Header.Get("HX-Request") == "true" {
		h.renderer.renderError(w, r, err)
		return
	}

	data, ferr := h.formData(r, session)
	if ferr != nil {
		h.renderer.renderError(w, r, ferr)
		return
	}

	data.Error = appErr.Message
	data.Record = r.FormValue("record")
	if mode := r.FormValue("mode"); mode != "" {
		data.Mode = strings.ToLower(mode)
	}
	if n, perr := strconv.Atoi(r.FormValue("word_count")); perr == nil {
		data.WordCount = n
	}
	if text := r.FormValue("template"); text != "" {
		data.Template = text
		data.TemplateIsDefault = false
	}

	h.renderer.renderPageStatus(w, r, appErr.Status, "generate", data)
}

// parseForm parses a urlencoded or multipart body within the size budget
// for one record and one template.
func (h *Handlers) parseForm(w http.ResponseWriter, r *http.Request) error {
	limit := int64(formSlack)
	if h.cfg.RecordMaxBytes > 0 {
		limit += int64(h.cfg.RecordMaxBytes)
	}
	if h.cfg.TemplateMaxChars > 0 {
		limit += int64(h.cfg.TemplateMaxChars) * 4
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	err := r.ParseMultipartForm(multipartMemory)
	if err == nil || stderrors.Is(err, http.ErrNotMultipart) {
		return nil
	}

	var tooBig *http.MaxBytesError
	if stderrors.As(err, &tooBig) {
		return errors.NewInvalidRequest(fmt.Sprintf("request body exceeds %d bytes", tooBig.Limit))
	}
	return errors.NewInvalidRequest("invalid form data")
}

// readRecord returns the uploaded record file, or the pasted record text.
func (h *Handlers) readRecord(r *http.Request) (string, error) {
	f, hdr, err := r.FormFile("record_file")
	if err != nil || hdr.Size == 0 {
		if f != nil {
			f.Close()
		}
		return r.FormValue("record"), nil
	}
	defer f.Close()

	// One byte over the limit is enough for the size check downstream
	limit := int64(h.cfg.RecordMaxBytes) + 1
	if h.cfg.RecordMaxBytes <= 0 {
		limit = hdr.Size
	}
	data, err := io.ReadAll(io.LimitReader(f, limit))
	if err != nil {
		return "", errors.NewInvalidRequest("failed to read uploaded record")
	}
	return string(data), nil
}

// redirect sends a post/redirect/get response, using HX-Redirect for htmx.
func (h *Handlers) redirect(w http.ResponseWriter, r *http.Request, target string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// parseFormInt parses an optional integer form field; empty means 0.
func parseFormInt(r *http.Request, name string) (int, error) {
	s := strings.TrimSpace(r.FormValue(name))
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.NewInvalidRequest(fmt.Sprintf("%s must be a whole number", name))
	}
	return v, nil
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}
