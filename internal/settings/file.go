package settings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/checklist/pkg/types"
	"github.com/mesh-intelligence/checklist/pkg/watch"
)

// FileName is the settings file inside the config directory.
const FileName = "settings.yaml"

// errMalformed marks a settings file that exists but does not parse.
var errMalformed = errors.New("parsing settings")

// Compile-time interface check.
var _ types.Settings = (*FileStore)(nil)

// FileStore keeps preferences in a YAML file. Subscribers in the same
// process see every change made through the store.
type FileStore struct {
	path   string
	hub    *watch.Hub
	logger *slog.Logger
	mu     sync.Mutex
}

// NewFileStore returns a store backed by settings.yaml in dir.
func NewFileStore(dir string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FileStore{
		path:   filepath.Join(dir, FileName),
		hub:    watch.NewHub(),
		logger: logger,
	}
}

func (s *FileStore) DarkMode(ctx context.Context) (*watch.Subscription[bool], error) {
	return watch.Watch(ctx, s.hub, s.darkMode, watch.TopicSettings), nil
}

func (s *FileStore) darkMode(context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.read()
	if err != nil {
		return false, err
	}
	on, _ := values[types.DarkModeKey].(bool)
	return on, nil
}

// SetDarkMode stores on. A settings file that does not parse is replaced.
func (s *FileStore) SetDarkMode(ctx context.Context, on bool) error {
	s.mu.Lock()
	values, err := s.read()
	if errors.Is(err, errMalformed) {
		s.logger.WarnContext(ctx, "replacing unreadable settings file", "path", s.path, "error", err)
		values, err = map[string]any{}, nil
	}
	if err == nil {
		values[types.DarkModeKey] = on
		err = s.write(values)
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.hub.Publish(watch.TopicSettings)
	return nil
}

// Close ends all subscriptions.
func (s *FileStore) Close() error {
	s.hub.Close()
	return nil
}

// read returns the stored values; a missing file holds none.
func (s *FileStore) read() (map[string]any, error) {
	values := map[string]any{}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w %s: %w", errMalformed, s.path, err)
	}
	if values == nil {
		values = map[string]any{}
	}
	return values, nil
}

// write replaces the file through a temp file and rename.
func (s *FileStore) write(values map[string]any) error {
	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
