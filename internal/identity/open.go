package identity

import (
	"time"

	"github.com/haierkeys/screen-connect-controller/internal/domain"
	"github.com/pkg/errors"
)

// Config identity persistence settings
// Config 标识持久化配置
type Config struct {
	// Backend file / database / redis / memory / disabled
	Backend string `yaml:"backend" default:"file"`
	// File 文件后端路径
	File string `yaml:"file" default:"storage/identity.yaml"`
	// RedisURL redis 后端地址
	RedisURL string `yaml:"redis-url" default:"redis://localhost:6379/0"`
	// RedisPrefix redis 键前缀
	RedisPrefix string `yaml:"redis-prefix" default:"controller"`
	// Timeout 单次读写超时，如 2s
	Timeout string `yaml:"timeout" default:"2s"`
}

// TimeoutDuration parsed Timeout, 2s when unparsable
// TimeoutDuration 解析后的超时，无法解析时为 2s
func (c Config) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// OpenBackend builds the configured backend; openRepo is only called for the database backend
// OpenBackend 按配置构建后端，仅 database 后端会调用 openRepo
func OpenBackend(c Config, openRepo func() (domain.PreferenceRepository, error)) (Backend, error) {
	switch c.Backend {
	case "file":
		return NewFileBackend(c.File)
	case "redis":
		client, err := NewRedisUniversalClient(c.RedisURL)
		if err != nil {
			return nil, err
		}
		return NewRedisBackend(client, c.RedisPrefix), nil
	case "database":
		if openRepo == nil {
			return nil, errors.New("identity: database backend without repository")
		}
		repo, err := openRepo()
		if err != nil {
			return nil, err
		}
		return NewDatabaseBackend(repo), nil
	case "memory", "":
		return NewMemoryBackend(), nil
	case "disabled":
		return DisabledBackend{}, nil
	}
	return nil, errors.Errorf("identity: unknown backend %q", c.Backend)
}
