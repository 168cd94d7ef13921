package core

import (
	"fmt"
	"sync"
	"time"
)

// SessionStats は1回の実行の統計情報を管理します。
type SessionStats struct {
	mu sync.Mutex

	StartTime         time.Time // 開始時刻
	ThumbnailsFound   int       // 検出したサムネイル数
	FilesDownloaded   int       // 保存したファイル数
	Skipped           int       // 2xx以外でスキップした数
	Failed            int       // 書き込み失敗などでスキップ・中断した数
	TotalBytesWritten int64     // 合計書き込みサイズ（バイト）
	MorePages         bool      // 取得しなかった続きのページがあるか
}

// NewSessionStats は現在時刻を開始時刻とする SessionStats を返します。
func NewSessionStats() *SessionStats {
	return &SessionStats{StartTime: time.Now()}
}

func (s *SessionStats) recordDownloaded(bytes int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FilesDownloaded++
	s.TotalBytesWritten += bytes
}

func (s *SessionStats) recordSkipped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Skipped++
}

func (s *SessionStats) recordFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Failed++
}

// FormatSessionInfo はセッション統計情報を文字列にフォーマットします。
func (s *SessionStats) FormatSessionInfo() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	elapsed := time.Since(s.StartTime).Round(time.Millisecond)

	// サイズをMB単位に変換
	sizeMB := float64(s.TotalBytesWritten) / (1024 * 1024)

	return fmt.Sprintf("経過: %s | サムネイル: %d | 保存: %d | スキップ: %d | 失敗: %d | %.1fMB",
		elapsed, s.ThumbnailsFound, s.FilesDownloaded, s.Skipped, s.Failed, sizeMB)
}
