package core

import (
	"errors"
	"fmt"

	"GoWallpaperGrabber/internal/config"
	"GoWallpaperGrabber/internal/network"
)

// NetworkError は、ギャラリーページまたは画像の取得自体に失敗したことを表します。致命的です。
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("取得に失敗しました (url=%s): %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// DownloadError は、画像のGETが2xx以外を返したことを表します。その壁紙だけをスキップします。
type DownloadError struct {
	Err *network.HTTPError
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("Error: HTTP %d %s. この壁紙はこの解像度では存在しない可能性があります (url=%s)",
		e.Err.StatusCode, e.Err.Message, e.Err.URL)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// StatusCode は、受け取ったHTTPステータスコードを返します。
func (e *DownloadError) StatusCode() int {
	return e.Err.StatusCode
}

// IOError は、保存ファイルの作成 (Op="create") または書き込み (Op="write") の失敗です。
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("ファイルの%sに失敗しました (path=%s): %v", ioOpLabel(e.Op), e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func ioOpLabel(op string) string {
	switch op {
	case "create":
		return "作成"
	case "write":
		return "書き込み"
	default:
		return op
	}
}

// InvariantViolation は、サーバー応答が前提を満たさない内部エラーです。
// 例: リダイレクト後の最終URLからファイル名を決定できない。
type InvariantViolation struct {
	URL    string
	Reason string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("内部エラー: %s (url=%s)", e.Reason, e.URL)
}

// IsFatal は、エラーが実行全体を中断すべきものかを判定します。
// DownloadError は常に回復可能、IOError は policy が skip のときのみ回復可能です。
func IsFatal(err error, policy config.WritePolicy) bool {
	if err == nil {
		return false
	}
	var dlErr *DownloadError
	if errors.As(err, &dlErr) {
		return false
	}
	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return policy != config.WritePolicySkip
	}
	return true
}
