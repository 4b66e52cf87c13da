// Package blob はアップロードファイルのバイト列をディスクに永続化するブロブストアを提供する。
// 行メタデータとは独立しており、生成されたストレージキーのみで参照される。
package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore はローカルファイルシステム上のブロブストア。
// 書き込みは一時ファイルに行い、renameで原子的に確定する。
// 部分的に書き込まれたファイルが配信されることはない。
type DiskStore struct {
	root string
}

// NewDiskStore は指定ディレクトリをルートとするDiskStoreを生成する。
// ディレクトリが存在しない場合は作成する。
func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("ブロブディレクトリの作成に失敗しました: %w", err)
	}
	return &DiskStore{root: root}, nil
}

// Put はキーに対応するブロブを書き込み、書き込んだバイト数を返す。
// 一時ファイルへ書き込んでからrenameで確定する。
func (s *DiskStore) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	path, err := s.keyPath(key)
	if err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("一時ファイルの作成に失敗しました: %w", err)
	}
	tmpName := tmp.Name()

	written, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return 0, fmt.Errorf("ブロブの書き込みに失敗しました: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return 0, fmt.Errorf("ブロブの同期に失敗しました: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("一時ファイルのクローズに失敗しました: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("ブロブの確定に失敗しました: %w", err)
	}

	return written, nil
}

// Open はキーに対応するブロブの読み取りストリームを返す。
// 存在しない場合はos.ErrNotExistをラップしたエラーを返す。
func (s *DiskStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := s.keyPath(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ブロブのオープンに失敗しました: %w", err)
	}
	return f, nil
}

// Delete はキーに対応するブロブを削除する。
// ブロブが既に存在しない場合はエラーにしない（冪等）。
func (s *DiskStore) Delete(ctx context.Context, key string) error {
	path, err := s.keyPath(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ブロブの削除に失敗しました: %w", err)
	}
	return nil
}

// keyPath はストレージキーをルート配下のパスに解決する。
// パス区切りや相対参照を含むキーはルート外参照の可能性があるため拒否する。
func (s *DiskStore) keyPath(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return "", fmt.Errorf("不正なストレージキーです: %q", key)
	}
	return filepath.Join(s.root, key), nil
}
