package subjectstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"sync"

	"github.com/google/renameio/v2"
)

// File keeps every name in memory and rewrites a JSON object file on each
// insert.
type File struct {
	mu    sync.RWMutex
	path  string
	names map[string]string
}

func (s *File) Init(ctx context.Context, path string) error {
	if path == "" {
		return errors.New("file subject store needs a path")
	}

	names := make(map[string]string)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.InfoContext(ctx, "subject file does not exist yet", "path", path)
	case err != nil:
		return err
	default:
		if err := json.Unmarshal(data, &names); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = path
	s.names = names
	return nil
}

func (s *File) Insert(ctx context.Context, subjectId, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.names[subjectId]
	s.names[subjectId] = name
	if err := s.flush(); err != nil {
		if existed {
			s.names[subjectId] = previous
		} else {
			delete(s.names, subjectId)
		}
		return err
	}
	return nil
}

// flush atomically replaces the file with the current names, s.mu must be held.
func (s *File) flush() error {
	data, err := json.MarshalIndent(s.names, "", "  ")
	if err != nil {
		return err
	}

	pending, err := renameio.NewPendingFile(s.path, renameio.WithPermissions(0644))
	if err != nil {
		return fmt.Errorf("create pending subject file: %w", err)
	}
	defer pending.Cleanup()

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write subject file: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace subject file: %w", err)
	}
	return nil
}

func (s *File) Find(ctx context.Context, subjectId string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.names[subjectId]
	return name, ok, nil
}

func (s *File) FindAll(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.names), nil
}

func (s *File) Close() error {
	return nil
}
