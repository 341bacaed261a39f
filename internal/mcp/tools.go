package mcp

import "github.com/mark3labs/mcp-go/mcp"

const recordDescription = "Clinic record as JSON: an object, or an array whose first object is used. " +
	"May be passed as a JSON string or inline."

var resolveToolDef = mcp.NewTool("clinic_resolve",
	mcp.WithDescription("Resolve a loose clinic record into a complete profile with defaults applied. "+
		"Returns the profile and the download file name."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("record", mcp.Required(), mcp.Description(recordDescription)),
)

var composeToolDef = mcp.NewTool("prompt_compose",
	mcp.WithDescription("Build the content-generation prompt for a clinic without calling the model. "+
		"In template mode an unknown placeholder returns a correction hint instead of a prompt."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("record", mcp.Required(), mcp.Description(recordDescription)),
	mcp.WithNumber("word_count", mcp.Description("Target article length in words (default from config)")),
	mcp.WithString("mode", mcp.Enum("fixed", "template"), mcp.Description("Prompt mode (default fixed)")),
	mcp.WithString("session", mcp.Description("Session whose saved template is used in template mode")),
	mcp.WithString("template", mcp.Description("Explicit template text; overrides the session template")),
)

var templateGetToolDef = mcp.NewTool("prompt_template_get",
	mcp.WithDescription("Get a session's prompt template, or the built-in default when none is saved."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("session", mcp.Description("Session name (default \"default\")")),
)

var templateSaveToolDef = mcp.NewTool("prompt_template_save",
	mcp.WithDescription("Save a session's prompt template. Placeholders use {name} syntax; "+
		"unknown names are rejected. Variables: clinic_name, main_specialty, sub_specialties, "+
		"about, location, word_count, email, phone, website."),
	mcp.WithString("session", mcp.Description("Session name (default \"default\")")),
	mcp.WithString("text", mcp.Required(), mcp.Description("Template text")),
)

var templateResetToolDef = mcp.NewTool("prompt_template_reset",
	mcp.WithDescription("Discard a session's saved template so the default applies again."),
	mcp.WithString("session", mcp.Description("Session name (default \"default\")")),
)

var generateToolDef = mcp.NewTool("content_generate",
	mcp.WithDescription("Generate SEO HTML content for a clinic and store it. "+
		"Calls the configured model once; template errors return a hint without calling it."),
	mcp.WithString("record", mcp.Required(), mcp.Description(recordDescription)),
	mcp.WithNumber("word_count", mcp.Description("Target article length in words (default from config)")),
	mcp.WithString("mode", mcp.Enum("fixed", "template"), mcp.Description("Prompt mode (default fixed)")),
	mcp.WithString("session", mcp.Description("Session the generation belongs to")),
	mcp.WithString("template", mcp.Description("Explicit template text; overrides the session template")),
)

var fetchToolDef = mcp.NewTool("content_fetch",
	mcp.WithDescription("Fetch a stored generation by ID."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("id", mcp.Required(), mcp.Description("Generation ID")),
	mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted generations")),
	mcp.WithBoolean("include_prompt", mcp.Description("Include the prompt that was sent")),
)

var listToolDef = mcp.NewTool("content_list",
	mcp.WithDescription("List stored generations, newest first."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("session", mcp.Description("Only this session's generations")),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
	mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted generations")),
)

var deleteToolDef = mcp.NewTool("content_delete",
	mcp.WithDescription("Soft-delete a stored generation."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithString("id", mcp.Required(), mcp.Description("Generation ID")),
)

var exportToolDef = mcp.NewTool("content_export",
	mcp.WithDescription("Write a generation's HTML to a file. "+
		"Default path: ~/.clinicseo/exports/<clinic-slug>-seo.html."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Generation ID")),
	mcp.WithString("path", mcp.Description("Destination .html path")),
)

var purgeToolDef = mcp.NewTool("content_purge",
	mcp.WithDescription("Permanently delete soft-deleted generations."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithString("session", mcp.Description("Only this session's generations")),
	mcp.WithNumber("older_than_days", mcp.Description("Only generations deleted more than N days ago")),
)
