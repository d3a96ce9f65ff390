package fileurl

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// IsExist determines if the given path exists
// IsExist 判断所给路径是否存在
func IsExist(dst string) bool {
	_, err := os.Stat(dst) // os.Stat获取文件信息
	if err != nil {
		return os.IsExist(err)
	}
	return true
}

// CreatePath creates the parent directory of dst
// CreatePath 创建 dst 的父目录
func CreatePath(dst string, perm os.FileMode) error {
	dir := filepath.Dir(dst)
	return os.MkdirAll(dir, perm)
}

// WriteFileAtomic writes data next to dst and renames it into place, readers never see a partial file
// WriteFileAtomic 先写临时文件再重命名，读取方不会看到写了一半的文件
func WriteFileAtomic(dst string, data []byte, perm os.FileMode) error {
	if err := CreatePath(dst, 0o755); err != nil {
		return errors.Wrapf(err, "create directory of %s", dst)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "create temp file for %s", dst)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return errors.Wrapf(err, "write %s", name)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return errors.Wrapf(err, "close %s", name)
	}
	if err := os.Chmod(name, perm); err != nil {
		os.Remove(name)
		return errors.Wrapf(err, "chmod %s", name)
	}
	if err := os.Rename(name, dst); err != nil {
		os.Remove(name)
		return errors.Wrapf(err, "replace %s", dst)
	}
	return nil
}
