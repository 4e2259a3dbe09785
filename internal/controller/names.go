package controller

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/taoyao-code/molecube/internal/protocol/molecube"
)

// NameTable 通道名表，持久化为 YAML 字符串列表（下标即通道号）
type NameTable struct {
	path  string
	names []string
}

// LoadNameTable 读取名表并调整到 size 项；长度变化时立即回写
// 文件不存在视为空表
func LoadNameTable(path string, size int) (*NameTable, error) {
	t := &NameTable{path: path}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read names %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &t.names); err != nil {
			return nil, fmt.Errorf("parse names %s: %w", path, err)
		}
	}

	if len(t.names) != size {
		resized := make([]string, size)
		copy(resized, t.names)
		t.names = resized
		if err := t.Save(); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Len 名表长度
func (t *NameTable) Len() int { return len(t.names) }

// Name 返回通道名，越界返回空串
func (t *NameTable) Name(id int) string {
	if id < 0 || id >= len(t.names) {
		return ""
	}
	return t.names[id]
}

// Apply 解析 set_*_names 载荷并写入名表
// 越界的通道号跳过；遇到未以 0x00 结尾的名字停止解析（stopped=true）
func (t *NameTable) Apply(payload []byte) (applied int, stopped bool) {
	p := payload
	for len(p) > 1 {
		id := int(p[0])
		p = p[1:]
		n := bytes.IndexByte(p, 0)
		if n < 0 {
			return applied, true
		}
		if id < len(t.names) {
			t.names[id] = string(p[:n])
			applied++
		}
		p = p[n+1:]
	}
	return applied, false
}

// Entries 返回非空名字，供 get_*_names 应答
func (t *NameTable) Entries() []molecube.NameEntry {
	entries := make([]molecube.NameEntry, 0, len(t.names))
	for i, name := range t.names {
		if name == "" {
			continue
		}
		entries = append(entries, molecube.NameEntry{ID: uint8(i), Name: name})
	}
	return entries
}

// Save 原子写回名表文件
func (t *NameTable) Save() error {
	data, err := yaml.Marshal(t.names)
	if err != nil {
		return fmt.Errorf("encode names: %w", err)
	}
	return writeFileAtomic(t.path, data)
}

// writeFileAtomic 先写临时文件再重命名
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", filepath.Base(tmp), err)
	}
	return nil
}
