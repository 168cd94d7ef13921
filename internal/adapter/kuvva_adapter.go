package adapter

import (
	"fmt"
	"net/url"
	"strings"

	"GoWallpaperGrabber/internal/model"

	"github.com/PuerkitoBio/goquery"
)

const (
	// kuvvaThumbnailSelector は、サムネイルグリッド内のリンク付きサムネイル画像に一致します。
	kuvvaThumbnailSelector = ".thumb-grid li > a[href] > img[src]"
	// kuvvaNextPageSelector は、ページネーション内の「次へ」リンクに一致します。
	kuvvaNextPageSelector = ".pagination > a.next"
)

// KuvvaAdapter は、Kuvvaの共有ページ固有の解析ロジックを実装します。
type KuvvaAdapter struct{}

// NewKuvvaAdapter は、KuvvaAdapterの新しいインスタンスを返します。
func NewKuvvaAdapter() SiteAdapter {
	return &KuvvaAdapter{}
}

// ParseGallery は、共有ページのHTMLを解析します。
func (a *KuvvaAdapter) ParseGallery(htmlBody string) (*goquery.Document, error) {
	doc, err := NewDocumentFromString(htmlBody)
	if err != nil {
		return nil, fmt.Errorf("ギャラリーHTMLの解析に失敗しました: %w", err)
	}
	return doc, nil
}

// ExtractThumbnails は、サムネイル画像の src 属性をドキュメント順に返します。
// 相対URLはページURLを基準に絶対URLへ変換し、絶対URLはそのまま返します。
// src が空 (空白のみを含む) の画像は除外します。
func (a *KuvvaAdapter) ExtractThumbnails(doc *goquery.Document, pageURL string) []model.Thumbnail {
	base, _ := url.Parse(pageURL)

	var thumbnails []model.Thumbnail
	doc.Find(kuvvaThumbnailSelector).Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok || strings.TrimSpace(src) == "" {
			// 空の src はページ自身のURLに解決されてしまう
			return
		}
		thumbnails = append(thumbnails, model.Thumbnail{URL: resolveAgainst(base, src)})
	})
	return thumbnails
}

// HasNextPage は、ページネーションの「次へ」リンクが1件以上あるかを返します。
// サムネイル抽出とは独立したクエリです。
func (a *KuvvaAdapter) HasNextPage(doc *goquery.Document) bool {
	return doc.Find(kuvvaNextPageSelector).Length() > 0
}

// FullSizeURL は、サムネイルURLの解像度部分を置き換えてフルサイズURLを返します。
func (a *KuvvaAdapter) FullSizeURL(thumbnailURL, resolution string) string {
	return RewriteResolution(thumbnailURL, resolution)
}

func resolveAgainst(base *url.URL, raw string) string {
	ref, err := url.Parse(raw)
	if err != nil || ref.IsAbs() || base == nil {
		return raw
	}
	return base.ResolveReference(ref).String()
}
