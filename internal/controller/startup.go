package controller

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const startupFile = "startup.cmdlist"

// EnsureRuntimeDir 创建运行目录；已存在但不是目录时报错
func EnsureRuntimeDir(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create runtime dir: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("stat runtime dir: %w", err)
	case !info.IsDir():
		return fmt.Errorf("runtime dir %s exists but is not a directory", dir)
	}
	return nil
}

// StartupStore 启动脚本存储（运行目录下的 startup.cmdlist）
type StartupStore struct {
	path string
}

// NewStartupStore 创建启动脚本存储
func NewStartupStore(dir string) *StartupStore {
	return &StartupStore{path: filepath.Join(dir, startupFile)}
}

// Save 原子保存脚本文本（不含结尾 0x00）
func (s *StartupStore) Save(script []byte) error {
	return writeFileAtomic(s.path, script)
}

// Load 读取脚本文本，文件不存在返回空
func (s *StartupStore) Load() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read startup: %w", err)
	}
	return data, nil
}
