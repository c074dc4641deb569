package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const responsesTable = `
  CREATE TABLE IF NOT EXISTS responses (
      key TEXT PRIMARY KEY,
      data BLOB NOT NULL,
      expiry INT NOT NULL
  )
`

// SQLiteStore 把条目存放在 <dir>/cache.db 的 responses 表中。
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite 打开（必要时创建）dir 下的 cache.db。
func OpenSQLite(dir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return openSQLiteDSN("file:" + filepath.Join(dir, "cache.db") + "?_busy_timeout=5000")
}

func openSQLiteDSN(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// sqlite 单写者：限制连接数避免 "database is locked"。
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(responsesTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("初始化 responses 表失败：%w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Get(key string) ([]byte, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	row := s.db.QueryRow("SELECT data, expiry FROM responses WHERE key = ?", key)
	var (
		data   []byte
		expiry int64
	)
	if err := row.Scan(&data, &expiry); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if s.now().Unix() >= expiry {
		_, _ = s.db.Exec("DELETE FROM responses WHERE key = ?", key)
		return nil, false, nil
	}
	return data, true, nil
}

func (s *SQLiteStore) Put(key string, data []byte, ttl time.Duration) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if ttl <= 0 {
		return nil
	}
	_, err := s.db.Exec("INSERT OR REPLACE INTO responses (key, data, expiry) VALUES (?, ?, ?)",
		key,
		data,
		s.now().Add(ttl).Unix(),
	)
	return err
}

// Purge 删除所有已过期条目，返回删除数量。
func (s *SQLiteStore) Purge() (int64, error) {
	res, err := s.db.Exec("DELETE FROM responses WHERE expiry <= ?", s.now().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
