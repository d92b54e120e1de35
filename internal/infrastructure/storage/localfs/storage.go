package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/nmorozov/docpipe/internal/core/domain"
	"github.com/nmorozov/docpipe/internal/core/ports"
)

// Storage is a filesystem blob store: one subdirectory per container. It is
// the development and test backend; MinIO is the deployed one.
type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/storage"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

func (s *Storage) Put(_ context.Context, container, key string, data io.Reader, _ int64, _ string) error {
	dir := filepath.Join(s.basePath, container)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create container dir: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, key))
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func (s *Storage) Get(_ context.Context, container, key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.basePath, container, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "open file", err)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

func (s *Storage) Exists(_ context.Context, container, key string) (bool, error) {
	_, err := os.Stat(filepath.Join(s.basePath, container, key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat file: %w", err)
}

// List enumerates a container. A container directory that was never written
// to is an empty listing, not an error. The filesystem has no creation
// timestamp, so ModTime stands in for both.
func (s *Storage) List(_ context.Context, container string) ([]ports.ObjectInfo, error) {
	dir := filepath.Join(s.basePath, container)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []ports.ObjectInfo{}, nil
		}
		return nil, fmt.Errorf("read container dir: %w", err)
	}

	infos := make([]ports.ObjectInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		infos = append(infos, ports.ObjectInfo{
			Key:          entry.Name(),
			Size:         fi.Size(),
			CreatedOn:    fi.ModTime(),
			LastModified: fi.ModTime(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}
