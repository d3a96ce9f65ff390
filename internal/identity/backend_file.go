package identity

import (
	"context"
	"os"
	"sync"

	"github.com/haierkeys/screen-connect-controller/pkg/fileurl"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FileBackend stores values as a yaml map in a single file
// FileBackend 以 yaml 映射保存到单个文件
type FileBackend struct {
	mu   sync.Mutex
	path string
}

// NewFileBackend creates a file backend, the file is created on first write
// NewFileBackend 创建文件后端，首次写入时创建文件
func NewFileBackend(path string) (*FileBackend, error) {
	if path == "" {
		return nil, errors.New("identity: file backend needs a path")
	}
	return &FileBackend{path: path}, nil
}

func (b *FileBackend) load() (map[string]string, error) {
	values := make(map[string]string)
	data, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", b.path)
	}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, errors.Wrapf(err, "parse %s", b.path)
	}
	return values, nil
}

func (b *FileBackend) Get(_ context.Context, key string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	values, err := b.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// Set rewrites the whole file atomically
// Set 原子地整体重写文件
func (b *FileBackend) Set(_ context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	values, err := b.load()
	if err != nil {
		return err
	}
	values[key] = value

	data, err := yaml.Marshal(values)
	if err != nil {
		return errors.Wrap(err, "encode identity file")
	}
	return fileurl.WriteFileAtomic(b.path, data, 0o600)
}

func (b *FileBackend) Name() string { return "file" }
