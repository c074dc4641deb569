// Package fsx 提供基于 afero.Fs 的原子文件写入（临时文件 + rename）。
//
// 所有函数都接收 afero.Fs：生产环境用 afero.NewOsFs()，测试用 afero.NewMemMapFs()。
package fsx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/afero"
)

// 通过可替换的函数指针，让测试能稳定模拟 EXDEV 等错误。
var renameFunc = func(fs afero.Fs, src, dst string) error { return fs.Rename(src, dst) }

// PathTypeConflictError 表示目标路径类型冲突（例如期望文件但实际是目录）。
type PathTypeConflictError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("目标路径类型冲突：%q（期望 %s，实际 %s）", e.Path, e.Want, e.Got)
}

func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// CrossDeviceError 表示跨盘（EXDEV）导致的 rename 失败。
// 临时文件总是与目标同目录，出现该错误通常意味着目录本身是跨设备挂载点。
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("跨盘 rename 失败（EXDEV）：%q -> %q：%v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// IsCrossDevice 判断 err 是否为跨盘（EXDEV）错误。
func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}

// Rename 封装 fs.Rename，并把 EXDEV 显式标记为 CrossDeviceError。
func Rename(fs afero.Fs, src, dst string) error {
	if err := renameFunc(fs, src, dst); err != nil {
		if isEXDEV(err) {
			return &CrossDeviceError{Src: src, Dst: dst, Err: err}
		}
		return err
	}
	return nil
}

// WriteFileAtomic 在 dir 下原子写入 name（临时文件 + rename）。
//
// 语义：若目标已存在则覆盖（即 replace），用于缓存等内部状态。
func WriteFileAtomic(fs afero.Fs, dir, name string, data []byte) error {
	return writeFileAtomic(fs, dir, name, data, 0o644)
}

// WriteFileAtomicNoOverwrite 在 dir 下原子写入 name；目标已存在时返回 os.ErrExist。
//
// - 临时文件必须与目标文件在同目录，以保证 rename 的原子性
// - 目标路径是目录或非普通文件时返回 *PathTypeConflictError
//
// 下载的图片按约定“不允许覆盖”，必须使用该函数。
func WriteFileAtomicNoOverwrite(fs afero.Fs, dir, name string, data []byte) error {
	dst := filepath.Join(filepath.Clean(dir), name)
	if err := checkAbsent(fs, dst); err != nil {
		return err
	}
	return writeFileAtomic(fs, dir, name, data, 0o644)
}

// Exists 报告 path 是否已存在普通文件；目标是目录等其它类型时返回 *PathTypeConflictError。
func Exists(fs afero.Fs, path string) (bool, error) {
	err := checkAbsent(fs, path)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, os.ErrExist):
		return true, nil
	default:
		return false, err
	}
}

func checkAbsent(fs afero.Fs, dst string) error {
	fi, err := fs.Stat(dst)
	if err == nil {
		if fi.IsDir() {
			return &PathTypeConflictError{Path: dst, Want: "file", Got: "dir"}
		}
		if !fi.Mode().IsRegular() {
			return &PathTypeConflictError{Path: dst, Want: "regular file", Got: fi.Mode().Type().String()}
		}
		return os.ErrExist
	}
	if !os.IsNotExist(err) {
		return err
	}
	return nil
}

func writeFileAtomic(fs afero.Fs, dir, name string, data []byte, perm os.FileMode) error {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	dst := filepath.Join(dir, name)

	// 创建同目录临时文件（前缀带 '.'，避免污染图片目录视图）。
	tmp, err := afero.TempFile(fs, dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = fs.Remove(tmpName)
	}()

	if err := writeAll(tmp, data); err != nil {
		return err
	}
	if err := fs.Chmod(tmpName, perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// rename 原子替换到最终文件名。
	if err := Rename(fs, tmpName, dst); err != nil {
		return err
	}

	// 目录 fsync：best-effort（不同平台/文件系统的语义差异很大）。
	_ = syncDirBestEffort(fs, dir)

	// rename 成功后，不应删除最终文件（defer 中的 Remove 对已不存在的临时名是 no-op）。
	return nil
}

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func syncDirBestEffort(fs afero.Fs, dir string) error {
	// Windows 上目录 Sync 的语义与支持情况不稳定；内存文件系统无需 Sync。
	if runtime.GOOS == "windows" {
		return nil
	}
	if _, ok := fs.(*afero.OsFs); !ok {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
