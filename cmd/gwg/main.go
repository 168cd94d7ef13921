// Package main は GWG (GoWallpaperGrabber) のエントリーポイントです。
//
// Kuvva の共有ページに並んだサムネイルから、指定解像度のフルサイズ壁紙を
// ダウンロードして出力ディレクトリに保存します。
//
// 使い方:
//
//	gwg [flags] <share-url> [output-dir]
//	gwg version
package main

import "os"

func main() {
	os.Exit(Execute())
}
