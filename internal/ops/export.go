package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hpungsan/clinicseo/internal/config"
	"github.com/hpungsan/clinicseo/internal/errors"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	ID   string // required
	Path string // optional, default: ~/.clinicseo/exports/<slug>-seo.html
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	ID         string `json:"id"`
	Path       string `json:"path"`
	Bytes      int    `json:"bytes"`
	ExportedAt int64  `json:"exported_at"`
}

// Export writes a generation's HTML fragment to a file.
func Export(ctx context.Context, database *sql.DB, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	fetched, err := Fetch(ctx, database, FetchInput{ID: input.ID})
	if err != nil {
		return nil, err
	}

	exportPath := input.Path
	if exportPath == "" {
		exportPath, err = defaultExportPath(fetched.Filename)
		if err != nil {
			return nil, err
		}
	}

	// Default paths are validated too; the slug comes from user data
	if err := ValidatePath(exportPath, cfg); err != nil {
		return nil, err
	}

	if ctx.Err() != nil {
		return nil, errors.NewCancelled("export")
	}

	data := []byte(fetched.Content)
	if err := writeFileAtomic(exportPath, data); err != nil {
		return nil, err
	}

	return &ExportOutput{
		ID:         fetched.ID,
		Path:       exportPath,
		Bytes:      len(data),
		ExportedAt: time.Now().Unix(),
	}, nil
}

// writeFileAtomic writes to a temp file and renames it into place so an
// existing file survives a failed write.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}

	// Close before rename (required on Windows)
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlink at the destination
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("export path must not be a symlink")
	}

	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return errors.NewInvalidRequest("export destination already exists; overwriting is not supported on Windows (choose a new path or delete the existing file)")
			}
		}
		return errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return nil
}

// defaultExportPath places the download file name in the exports directory.
func defaultExportPath(filename string) (string, error) {
	dir, err := DefaultExportsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SanitizeForFilename(filename)), nil
}
