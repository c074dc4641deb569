package cache

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/John-Robertt/artfinder/internal/infra/fsx"
)

// FileStore 把每个条目存为 <Dir>/responses/<key> 一个文件。
//
// 文件格式：第一行是过期时间（unix 秒），其后是原始数据。
// 写入使用 fsx 原子替换，读到半个文件的情况不会出现。
type FileStore struct {
	Fs  afero.Fs
	Dir string

	now func() time.Time
}

// NewFileStore 在 dir 下创建文件缓存；fs 为 nil 时使用真实文件系统。
func NewFileStore(fs afero.Fs, dir string) *FileStore {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FileStore{Fs: fs, Dir: filepath.Clean(strings.TrimSpace(dir)), now: time.Now}
}

func (s *FileStore) responsesDir() string { return filepath.Join(s.Dir, "responses") }

func (s *FileStore) Get(key string) ([]byte, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	path := filepath.Join(s.responsesDir(), key)
	b, err := afero.ReadFile(s.Fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		// 损坏的条目视为未命中，下次 Put 会覆盖。
		return nil, false, nil
	}
	exp, err := strconv.ParseInt(string(b[:i]), 10, 64)
	if err != nil {
		return nil, false, nil
	}
	if !s.clock().Before(time.Unix(exp, 0)) {
		_ = s.Fs.Remove(path)
		return nil, false, nil
	}
	return b[i+1:], true, nil
}

func (s *FileStore) Put(key string, data []byte, ttl time.Duration) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if ttl <= 0 {
		return nil
	}
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	fmt.Fprintf(w, "%d\n", s.clock().Add(ttl).Unix())
	_, _ = w.Write(data)
	if err := w.Flush(); err != nil {
		return err
	}
	return fsx.WriteFileAtomic(s.Fs, s.responsesDir(), key, buf.Bytes())
}

func (s *FileStore) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}
