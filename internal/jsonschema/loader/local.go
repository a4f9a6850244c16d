package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// readLocal reads name from files when it is non-nil, else from disk using
// the absolute path.
func readLocal(ctx context.Context, files fs.FS, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errors.New("jsonschema loader: document name is required")
	}
	if files != nil {
		data, err := fs.ReadFile(files, name)
		if err != nil {
			return nil, fmt.Errorf("jsonschema loader: read %s: %w", name, err)
		}
		return data, nil
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("jsonschema loader: read %s: %w", abs, err)
	}
	return data, nil
}
