package main

import (
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/clinicseo/internal/config"
	"github.com/hpungsan/clinicseo/internal/errors"
	"github.com/hpungsan/clinicseo/internal/llm"
	"github.com/hpungsan/clinicseo/internal/logging"
	"github.com/hpungsan/clinicseo/internal/ops"
	"github.com/hpungsan/clinicseo/internal/web"
)

// generatorFunc builds the text generator on demand, so commands that never
// call the model work without an API key.
type generatorFunc func() (llm.Generator, error)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config, log *logging.Logger, newGen generatorFunc) *cli.App {
	if log == nil {
		log = logging.Nop()
	}
	app := &cli.App{
		Name:    "clinicseo",
		Usage:   "SEO content for clinic profiles",
		Version: Version,
		Commands: []*cli.Command{
			resolveCmd(cfg),
			composeCmd(db, cfg),
			generateCmd(db, cfg, log, newGen),
			templateCmd(db, cfg),
			fetchCmd(db),
			listCmd(db),
			deleteCmd(db),
			exportCmd(db, cfg),
			purgeCmd(db),
			serveCmd(db, cfg, log, newGen),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func sessionFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "session",
		Aliases: []string{"s"},
		Value:   ops.DefaultSession,
		Usage:   "Session key (templates and history are kept per session)",
	}
}

// resolveCmd creates the resolve command.
func resolveCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Resolve a clinic record into a profile (reads the record from stdin)",
		Action: func(c *cli.Context) error {
			record, err := readRecord(cfg)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Resolve(c.Context, cfg, ops.ResolveInput{RecordJSON: record})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// composeCmd creates the compose command.
func composeCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "compose",
		Usage: "Build the prompt for a clinic record without calling the model (reads the record from stdin)",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "words", Aliases: []string{"n"}, Usage: "Target word count (default from config)"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "fixed", Usage: "Prompt mode: fixed|template"},
			&cli.StringFlag{Name: "template", Aliases: []string{"t"}, Usage: "Template text (template mode; overrides the session's)"},
			sessionFlag(),
		},
		Action: func(c *cli.Context) error {
			record, err := readRecord(cfg)
			if err != nil {
				return outputError(err)
			}

			input := ops.ComposeInput{
				RecordJSON: record,
				WordCount:  c.Int("words"),
				Mode:       c.String("mode"),
				Session:    c.String("session"),
			}
			if c.IsSet("template") {
				text := c.String("template")
				input.Template = &text
			}

			output, err := ops.Compose(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// generateCmd creates the generate command.
func generateCmd(db *sql.DB, cfg *config.Config, log *logging.Logger, newGen generatorFunc) *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Generate SEO content for a clinic record (reads the record from stdin)",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "words", Aliases: []string{"n"}, Usage: "Target word count (default from config)"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "fixed", Usage: "Prompt mode: fixed|template"},
			&cli.StringFlag{Name: "template", Aliases: []string{"t"}, Usage: "Template text (template mode; overrides the session's)"},
			&cli.StringFlag{Name: "export", Aliases: []string{"o"}, Usage: "Also write the HTML to this path (.html)"},
			sessionFlag(),
		},
		Action: func(c *cli.Context) error {
			record, err := readRecord(cfg)
			if err != nil {
				return outputError(err)
			}

			gen, err := newGen()
			if err != nil {
				return outputError(err)
			}

			input := ops.GenerateInput{
				RecordJSON: record,
				WordCount:  c.Int("words"),
				Mode:       c.String("mode"),
				Session:    c.String("session"),
			}
			if c.IsSet("template") {
				text := c.String("template")
				input.Template = &text
			}

			output, err := ops.Generate(c.Context, db, cfg, gen, input)
			if err != nil {
				return outputError(err)
			}
			log.Debug("generation finished", "id", output.ID, "generated", output.Generated, "words", output.ContentWords)

			if output.Generated && c.IsSet("export") {
				if _, err := ops.Export(c.Context, db, cfg, ops.ExportInput{ID: output.ID, Path: c.String("export")}); err != nil {
					return outputError(err)
				}
			}
			return outputJSON(output)
		},
	}
}

// templateCmd creates the template command group.
func templateCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "template",
		Usage: "Show, save or reset a session's prompt template",
		Subcommands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Show the session's current template",
				Flags: []cli.Flag{sessionFlag()},
				Action: func(c *cli.Context) error {
					output, err := ops.GetTemplate(c.Context, db, ops.GetTemplateInput{Session: c.String("session")})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "set",
				Usage: "Save a template for the session (reads the template from stdin)",
				Flags: []cli.Flag{sessionFlag()},
				Action: func(c *cli.Context) error {
					if !stdinHasData() {
						return outputError(errors.NewInvalidRequest("template text must be piped via stdin"))
					}
					limit := int64(0)
					if cfg != nil && cfg.TemplateMaxChars > 0 {
						// Characters can take up to 4 bytes in UTF-8
						limit = int64(cfg.TemplateMaxChars) * 4
					}
					text, err := readStdin(limit)
					if err != nil {
						return outputError(err)
					}

					output, err := ops.SaveTemplate(c.Context, db, cfg, ops.SaveTemplateInput{
						Session: c.String("session"),
						Text:    text,
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "reset",
				Usage: "Return the session to the default template",
				Flags: []cli.Flag{sessionFlag()},
				Action: func(c *cli.Context) error {
					output, err := ops.ResetTemplate(c.Context, db, ops.ResetTemplateInput{Session: c.String("session")})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
		},
	}
}

// fetchCmd creates the fetch command.
func fetchCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch a stored generation by ID",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted generations"},
			&cli.BoolFlag{Name: "prompt", Usage: "Include the prompt that was sent"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Fetch(c.Context, db, ops.FetchInput{
				ID:             c.Args().First(),
				IncludeDeleted: c.Bool("include-deleted"),
				IncludePrompt:  c.Bool("prompt"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List stored generations, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "session", Aliases: []string{"s"}, Usage: "Filter by session (default: all sessions)"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted generations"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(c.Context, db, ops.ListInput{
				Session:        c.String("session"),
				Limit:          c.Int("limit"),
				Offset:         c.Int("offset"),
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Soft-delete a generation",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Delete(c.Context, db, ops.DeleteInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write a generation's HTML to a file",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.clinicseo/exports/<slug>-seo.html)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, db, cfg, ops.ExportInput{
				ID:   c.Args().First(),
				Path: c.String("path"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// purgeCmd creates the purge command.
func purgeCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Permanently delete soft-deleted generations",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "session", Aliases: []string{"s"}, Usage: "Filter by session"},
			&cli.StringFlag{Name: "older-than", Usage: "Only purge if deleted more than N days ago (e.g., 7d)"},
		},
		Action: func(c *cli.Context) error {
			input := ops.PurgeInput{}
			if session := c.String("session"); session != "" {
				input.Session = &session
			}
			if olderThan := c.String("older-than"); olderThan != "" {
				days, err := parseDuration(olderThan)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				input.OlderThanDays = &days
			}

			output, err := ops.Purge(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// serveCmd creates the serve command (web UI).
func serveCmd(db *sql.DB, cfg *config.Config, log *logging.Logger, newGen generatorFunc) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8080, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			port := c.Int("port")
			if port <= 0 || port > 65535 {
				return outputError(errors.NewInvalidRequest("port must be between 1 and 65535"))
			}

			gen, err := newGen()
			if err != nil {
				// The form still serves templates and history without a model.
				log.Warn("text generation unavailable", "provider", cfg.LLM.Provider, "error", err)
				gen = nil
			}

			srv, err := web.NewServer(db, cfg, gen, log, web.Options{
				Version: Version,
				Bind:    c.String("bind"),
				Port:    port,
			})
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return web.Run(srv, log)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", appErr.Code, appErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// readRecord reads a clinic record from stdin. Input is capped just past
// cfg.RecordMaxBytes so the size check in ops reports RECORD_TOO_LARGE.
func readRecord(cfg *config.Config) (string, error) {
	if !stdinHasData() {
		return "", errors.NewInvalidRequest("clinic record must be piped via stdin")
	}
	var r io.Reader = os.Stdin
	if cfg != nil && cfg.RecordMaxBytes > 0 {
		r = io.LimitReader(os.Stdin, int64(cfg.RecordMaxBytes)+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return string(data), nil
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin. A positive limit caps the number of bytes accepted.
func readStdin(limit int64) (string, error) {
	var r io.Reader = os.Stdin
	if limit > 0 {
		r = io.LimitReader(os.Stdin, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return "", errors.NewInvalidRequest(fmt.Sprintf("stdin exceeds %d bytes", limit))
	}
	return strings.TrimSpace(string(data)), nil
}

// parseDuration parses "7d" format to days.
func parseDuration(s string) (int, error) {
	if numStr, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		if days < 0 {
			return 0, fmt.Errorf("duration must be non-negative")
		}
		return days, nil
	}
	return 0, fmt.Errorf("duration must end with 'd' (days), e.g., 7d")
}
