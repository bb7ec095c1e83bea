// Package history は生成結果の境界付き履歴を単一キーのローカルストレージへ
// 永続化します。格納先にはバイト容量の上限があり、書き込みは容量超過で
// 失敗しうるという Web Storage 相当の契約を前提にします。
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrQuotaExceeded は格納先の容量上限を超えた書き込みを表します。
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// KV は同期的な単一キーの永続ストレージです。
type KV interface {
	// Get はキーの値を返します。キーが存在しない場合は ok=false です。
	Get(key string) (value []byte, ok bool, err error)
	// Set は値を不可分に書き込みます。容量超過時は ErrQuotaExceeded を返します。
	Set(key string, value []byte) error
	// Remove はキーを削除します。存在しないキーは成功扱いです。
	Remove(key string) error
}

// FileKV は1キー=1ファイルの KV 実装です。
// quota が正のとき、1値あたりの書き込みサイズをそのバイト数までに制限します。
type FileKV struct {
	dir   string
	quota int
}

// NewFileKV は格納ディレクトリを用意して FileKV を返します。
func NewFileKV(dir string, quota int) (*FileKV, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("ストレージディレクトリの作成に失敗しました: %w", err)
	}
	return &FileKV{dir: dir, quota: quota}, nil
}

func (s *FileKV) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get はキーに対応するファイルの中身を返します。
func (s *FileKV) Get(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set は一時ファイルへ書いてから rename することで不可分に書き込みます。
func (s *FileKV) Set(key string, value []byte) error {
	if s.quota > 0 && len(value) > s.quota {
		return fmt.Errorf("%d bytes > quota %d: %w", len(value), s.quota, ErrQuotaExceeded)
	}

	tmp, err := os.CreateTemp(s.dir, key+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path(key))
}

// Remove はキーのファイルを削除します。
func (s *FileKV) Remove(key string) error {
	err := os.Remove(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
