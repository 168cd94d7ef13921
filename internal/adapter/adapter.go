// Package adapter は、壁紙共有サイト固有の処理を抽象化するインターフェースと、
// その具体的な実装を提供します。ギャラリーページの解析とフルサイズURLの導出は
// サイトごとにアダプタとして差し替えられます。
package adapter

import (
	"strings"

	"GoWallpaperGrabber/internal/model"

	"github.com/PuerkitoBio/goquery"
)

// SiteAdapter は、サイト固有の処理を抽象化するインターフェースです。
type SiteAdapter interface {
	// ParseGallery は、ギャラリーページのHTMLをドキュメントツリーに変換します。
	ParseGallery(htmlBody string) (*goquery.Document, error)
	// ExtractThumbnails は、ドキュメント順にサムネイルを抽出します。
	ExtractThumbnails(doc *goquery.Document, pageURL string) []model.Thumbnail
	// HasNextPage は、次ページへのリンクがあるかを返します。リンクを辿ることはしません。
	HasNextPage(doc *goquery.Document) bool
	// FullSizeURL は、サムネイルURLから指定解像度のフルサイズURLを導出します。
	FullSizeURL(thumbnailURL, resolution string) string
}

// NewDocumentFromString は、文字列からgoquery.Documentを生成するヘルパー関数です。
func NewDocumentFromString(htmlBody string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
}
