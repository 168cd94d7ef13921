package adapter

import "regexp"

// resolutionSegmentPattern は、URLに埋め込まれた "/幅x高さ_" 部分 (ASCII数字) に一致します。
var resolutionSegmentPattern = regexp.MustCompile(`/[0-9]+x[0-9]+_`)

// RewriteResolution は、rawURL 中の最初の "/幅x高さ_" を "/{resolution}_" に置き換えます。
// 一致がなければ rawURL をそのまま返します。それ以外の部分は一切変更しません。
func RewriteResolution(rawURL, resolution string) string {
	loc := resolutionSegmentPattern.FindStringIndex(rawURL)
	if loc == nil {
		return rawURL
	}
	return rawURL[:loc[0]] + "/" + resolution + "_" + rawURL[loc[1]:]
}
