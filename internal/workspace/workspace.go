package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/logfields"
)

const dirPrefix = "export-"

// Manager handles one scratch directory below baseDir.
type Manager struct {
	baseDir string
	token   string
	path    string
}

// NewManager creates a workspace manager rooted at baseDir (os.TempDir when empty).
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir}
}

// Create makes a fresh, uniquely named directory and returns its path.
func (m *Manager) Create() (string, error) {
	if m.path != "" {
		return "", fmt.Errorf("workspace already created: %s", m.path)
	}
	token := uuid.NewString()
	dir := filepath.Join(m.baseDir, dirPrefix+token)

	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create workspace base directory: %w", err)
	}
	// Mkdir, not MkdirAll: an existing directory means a token clash.
	if err := os.Mkdir(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create workspace directory: %w", err)
	}

	m.token = token
	m.path = dir
	slog.Debug("Created workspace", logfields.Path(dir))
	return dir, nil
}

// Token returns the random token embedded in the directory name.
func (m *Manager) Token() string {
	return m.token
}

// Cleanup removes the workspace directory. It is safe to call repeatedly.
func (m *Manager) Cleanup() error {
	if m.path == "" {
		return nil
	}
	if err := os.RemoveAll(m.path); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}
	slog.Debug("Cleaned up workspace", logfields.Path(m.path))
	m.path = ""
	m.token = ""
	return nil
}
