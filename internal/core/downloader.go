package core

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"GoWallpaperGrabber/internal/model"
	"GoWallpaperGrabber/internal/network"

	"github.com/schollz/progressbar/v3"
)

// DownloadOptions は、単一ダウンロードの表示に関する設定です。
type DownloadOptions struct {
	// ProgressOut が nil でなければ、バイト数の進捗バーをここに描画します。
	ProgressOut io.Writer
}

// DownloadWallpaper は、フルサイズ画像を1件取得し、outputDir 直下に保存します。
// ファイル名はリダイレクト後の最終URLのパス末尾セグメントです。
// 書き込み途中で失敗したファイルは削除しません。
func DownloadWallpaper(ctx context.Context, client *network.Client, wp model.Wallpaper, outputDir string, opts DownloadOptions, logger *Logger) (*model.DownloadedFile, error) {
	resp, err := client.Open(ctx, wp.FullSizeURL)
	if err != nil {
		return nil, &NetworkError{URL: wp.FullSizeURL, Err: err}
	}
	defer resp.Close()

	if !resp.OK() {
		return nil, &DownloadError{Err: resp.HTTPError()}
	}

	fileName, err := fileNameFromURL(resp.FinalURL)
	if err != nil {
		return nil, err
	}
	savePath := filepath.Join(outputDir, fileName)
	logger.Printf("INFO: 保存先: %s", savePath)

	file, err := os.Create(savePath)
	if err != nil {
		return nil, &IOError{Op: "create", Path: savePath, Err: err}
	}
	defer file.Close()

	var dst io.Writer = file
	if opts.ProgressOut != nil {
		dst = io.MultiWriter(file, newProgressBar(opts.ProgressOut, resp.ContentLength, fileName))
	}

	written, err := io.Copy(dst, resp.Body)
	if err != nil {
		return nil, &IOError{Op: "write", Path: savePath, Err: err}
	}
	if err := file.Close(); err != nil {
		return nil, &IOError{Op: "write", Path: savePath, Err: err}
	}

	return &model.DownloadedFile{
		Name:      fileName,
		Path:      savePath,
		Bytes:     written,
		SourceURL: resp.FinalURL.String(),
	}, nil
}

// fileNameFromURL は、URLパスの最後のセグメントをファイル名として返します。
// セグメントが空、"."、".." の場合、またはパス区切りを含む場合は InvariantViolation です。
func fileNameFromURL(u *url.URL) (string, error) {
	escaped := u.EscapedPath()
	if escaped == "" || strings.HasSuffix(escaped, "/") {
		return "", &InvariantViolation{URL: u.String(), Reason: "最終URLにファイル名となるパスセグメントがありません"}
	}

	segment := escaped[strings.LastIndex(escaped, "/")+1:]
	name, err := url.PathUnescape(segment)
	if err != nil {
		name = segment
	}

	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", &InvariantViolation{URL: u.String(), Reason: fmt.Sprintf("ファイル名として使用できないパスセグメントです: %q", name)}
	}
	return name, nil
}

// newProgressBar は、バイト単位の進捗バーを生成します。サイズ不明 (-1) の場合はスピナー表示になります。
func newProgressBar(out io.Writer, size int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(10),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(out, "\n")
		}),
	)
}
