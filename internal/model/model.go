package model

// Thumbnail は、ギャラリーページから抽出されたサムネイル画像1件を表します。
type Thumbnail struct {
	URL string
}

// Wallpaper は、サムネイルとそこから導出したフルサイズ画像URLの組です。
type Wallpaper struct {
	Index        int    // ドキュメント内の出現順 (1始まり)
	ThumbnailURL string // サムネイル
	FullSizeURL  string // フルサイズ
}

// DownloadedFile は、保存に成功したフルサイズ画像の情報を保持します。
type DownloadedFile struct {
	Name      string // 最終URLのパス末尾セグメント
	Path      string // 出力ディレクトリ配下の保存先
	Bytes     int64
	SourceURL string // リダイレクト後の最終URL
}
