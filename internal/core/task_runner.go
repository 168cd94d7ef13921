// Package core は、GWGの中核となる処理 (ギャラリー取得から画像保存まで) を実装します。
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"GoWallpaperGrabber/internal/adapter"
	"GoWallpaperGrabber/internal/config"
	"GoWallpaperGrabber/internal/model"
	"GoWallpaperGrabber/internal/network"

	"golang.org/x/sync/errgroup"
)

// runner は1回の実行で共有される値をまとめたものです。
type runner struct {
	cfg         *config.Config
	client      *network.Client
	logger      *Logger
	stats       *SessionStats
	progressOut io.Writer
	total       int
}

// Run は、共有ページの取得からすべての壁紙の保存までを実行します。
// 個別の壁紙の失敗 (2xx以外、skip ポリシー下の書き込み失敗) は記録して続行し、
// 致命的なエラーの場合は残りの処理を中止してそのエラーを返します。
// 返される SessionStats はエラー時も nil になりません。
func Run(ctx context.Context, cfg *config.Config, logger *Logger) (*SessionStats, error) {
	stats := NewSessionStats()

	if !cfg.ShareURLLooksValid() {
		logger.Printf("WARNING: 共有URLが \"%s\" で始まっていません。処理は続行します。", config.ShareURLPrefix)
	}

	siteAdapter, err := adapter.GetAdapter(cfg.SiteAdapter)
	if err != nil {
		return stats, &config.ConfigurationError{Message: err.Error(), Err: err}
	}

	r := &runner{
		cfg:    cfg,
		client: network.NewClient(cfg.Network),
		logger: logger,
		stats:  stats,
	}
	if cfg.Progress {
		if cfg.Concurrency == 1 {
			r.progressOut = os.Stderr
		} else {
			logger.Debugf("同時ダウンロード数が %d のため進捗バーは表示しません", cfg.Concurrency)
		}
	}

	logger.Printf("INFO: %s から壁紙を取得し、%s に %s で保存します...", cfg.ShareURL, cfg.OutputDir, cfg.Resolution)

	wallpapers, err := r.collectWallpapers(ctx, siteAdapter)
	if err != nil {
		return stats, err
	}

	if len(wallpapers) == 0 {
		logger.Println("INFO: サムネイルは見つかりませんでした。")
		logger.Printf("INFO: %s", stats.FormatSessionInfo())
		return stats, nil
	}

	if cfg.DryRun {
		for _, wp := range wallpapers {
			logger.Printf("DRY-RUN: [%d/%d] %s -> %s", wp.Index, len(wallpapers), wp.ThumbnailURL, wp.FullSizeURL)
		}
		logger.Printf("INFO: %s", stats.FormatSessionInfo())
		return stats, nil
	}

	err = r.downloadAll(ctx, wallpapers)
	logger.Printf("INFO: %s", stats.FormatSessionInfo())
	return stats, err
}

// collectWallpapers は、共有ページを取得・解析し、フルサイズURLを導出した一覧を返します。
func (r *runner) collectWallpapers(ctx context.Context, siteAdapter adapter.SiteAdapter) ([]model.Wallpaper, error) {
	page, err := r.client.FetchPage(ctx, r.cfg.ShareURL)
	if err != nil {
		return nil, &NetworkError{URL: r.cfg.ShareURL, Err: err}
	}
	if page.StatusCode < 200 || page.StatusCode >= 300 {
		r.logger.Printf("WARNING: 共有ページが HTTP %d を返しました。そのまま解析します。", page.StatusCode)
	}
	r.logger.Debugf("共有ページを取得しました (url=%s, size=%d bytes)", page.URL, len(page.Body))

	doc, err := siteAdapter.ParseGallery(page.Body)
	if err != nil {
		return nil, fmt.Errorf("共有ページの解析に失敗しました (url=%s): %w", page.URL, err)
	}

	if siteAdapter.HasNextPage(doc) {
		r.stats.MorePages = true
		r.logger.Println("NOTE: 結果には続きのページがありますが、このツールはまだ取得しません。")
	}

	thumbnails := siteAdapter.ExtractThumbnails(doc, page.URL)
	r.stats.ThumbnailsFound = len(thumbnails)
	r.total = len(thumbnails)

	wallpapers := make([]model.Wallpaper, 0, len(thumbnails))
	for i, th := range thumbnails {
		wallpapers = append(wallpapers, model.Wallpaper{
			Index:        i + 1,
			ThumbnailURL: th.URL,
			FullSizeURL:  siteAdapter.FullSizeURL(th.URL, r.cfg.Resolution),
		})
	}
	return wallpapers, nil
}

// downloadAll は、壁紙を最大 Concurrency 件ずつダウンロードします。
// Concurrency が 1 の場合はドキュメント順に1件ずつ処理します。
func (r *runner) downloadAll(ctx context.Context, wallpapers []model.Wallpaper) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)

	for _, wp := range wallpapers {
		wp := wp
		g.Go(func() error {
			// 先行する致命的エラーやシグナルで中止済みなら開始しない
			if err := gctx.Err(); err != nil {
				return err
			}
			return r.processWallpaper(gctx, wp)
		})
	}
	return g.Wait()
}

// processWallpaper は1件の壁紙を処理し、致命的な場合のみエラーを返します。
func (r *runner) processWallpaper(ctx context.Context, wp model.Wallpaper) error {
	r.logger.Printf("INFO: [%d/%d] サムネイルを検出しました: %s", wp.Index, r.total, wp.ThumbnailURL)
	r.logger.Printf("INFO: [%d/%d] フルサイズを取得します: %s", wp.Index, r.total, wp.FullSizeURL)

	file, err := DownloadWallpaper(ctx, r.client, wp, r.cfg.OutputDir, DownloadOptions{ProgressOut: r.progressOut}, r.logger)
	if err == nil {
		r.stats.recordDownloaded(file.Bytes)
		r.logger.Printf("SUCCESS: ダウンロード完了: %s (%d bytes)", file.Name, file.Bytes)
		return nil
	}

	// 他の壁紙の致命的エラーやシグナルによる中断は失敗として数えない
	if errors.Is(err, context.Canceled) {
		r.logger.Printf("INFO: [%d/%d] 中断されました: %s", wp.Index, r.total, wp.FullSizeURL)
		return err
	}

	if !IsFatal(err, r.cfg.WritePolicy) {
		var dlErr *DownloadError
		if errors.As(err, &dlErr) {
			r.stats.recordSkipped()
			r.logger.Printf("WARNING: %v", err)
		} else {
			r.stats.recordFailed()
			r.logger.Printf("ERROR: %v。この壁紙をスキップします。", err)
		}
		return nil
	}

	r.stats.recordFailed()
	r.logger.Printf("FATAL: [%d/%d] %v", wp.Index, r.total, err)
	return err
}
