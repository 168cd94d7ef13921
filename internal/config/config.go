// Package config は、壁紙取得の実行設定の構造定義と、コマンドライン引数・設定ファイル
// からの組み立て、およびネットワーク処理前の検証に関する機能を提供します。
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

const (
	// AppName は設定ファイルのXDGパスなどに使用するアプリケーション名です。
	AppName = "gwg"
	// DefaultResolution は --resolution 未指定時の解像度です。
	DefaultResolution = "2880x1800"
	// ShareURLPrefix は共有URLの想定プレフィックスです。検証はせず警告のみに使います。
	ShareURLPrefix = "https://www.kuvva.com/s/"
	// DefaultSiteAdapter は使用するサイトアダプタ名の既定値です。
	DefaultSiteAdapter = "kuvva"
	// DefaultConcurrency は同時ダウンロード数の既定値です。1 は逐次処理を意味します。
	DefaultConcurrency = 1
)

// resolutionPattern は "幅x高さ" 形式 (ASCII数字) の解像度文字列に一致します。
var resolutionPattern = regexp.MustCompile(`^[0-9]+x[0-9]+$`)

// WritePolicy は、ファイル作成・書き込み失敗時の振る舞いを表します。
type WritePolicy string

const (
	// WritePolicyAbort は実行全体を中断します (既定)。
	WritePolicyAbort WritePolicy = "abort"
	// WritePolicySkip はその壁紙をスキップして次に進みます。
	WritePolicySkip WritePolicy = "skip"
)

// NetworkSettings は、HTTPリクエストに関する設定を保持します。
// ゼロ値はすべて「クライアント既定のまま」を意味します。
type NetworkSettings struct {
	UserAgent               string         `yaml:"user_agent,omitempty"`
	PerDomainIntervalMillis map[string]int `yaml:"per_domain_interval_ms,omitempty"`
	RequestTimeoutMillis    int            `yaml:"request_timeout_ms,omitempty"`
}

// RequestTimeout は RequestTimeoutMillis を time.Duration で返します。0 はタイムアウトなしです。
func (n NetworkSettings) RequestTimeout() time.Duration {
	if n.RequestTimeoutMillis <= 0 {
		return 0
	}
	return time.Duration(n.RequestTimeoutMillis) * time.Millisecond
}

// Config は1回の実行に必要な設定全体です。Resolve の後は変更しません。
type Config struct {
	ShareURL    string
	OutputDir   string
	Resolution  string
	SiteAdapter string
	Verbose     bool
	Concurrency int
	WritePolicy WritePolicy
	DryRun      bool
	Progress    bool
	LogFile     string
	Network     NetworkSettings
}

// NewConfig は既定値で初期化された Config を返します。
func NewConfig() *Config {
	return &Config{
		Resolution:  DefaultResolution,
		SiteAdapter: DefaultSiteAdapter,
		Concurrency: DefaultConcurrency,
		WritePolicy: WritePolicyAbort,
	}
}

// ShareURLLooksValid は、共有URLが想定プレフィックスで始まっているかを返します。
func (c *Config) ShareURLLooksValid() bool {
	return strings.HasPrefix(c.ShareURL, ShareURLPrefix)
}

// Resolve は下書きの設定を検証し、確定した Config のコピーを返します。
// 出力ディレクトリが空の場合はカレントディレクトリを使用します。
// 検証はファイルシステムの存在・種別確認のみで、ネットワークには一切触れません。
func Resolve(draft Config) (*Config, error) {
	cfg := draft

	if strings.TrimSpace(cfg.ShareURL) == "" {
		return nil, newConfigurationError(ErrEmptyShareURL, "共有URLが指定されていません")
	}

	if cfg.OutputDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, newConfigurationError(err, fmt.Sprintf("カレントディレクトリの取得に失敗しました: %v", err))
		}
		cfg.OutputDir = cwd
	}

	info, err := os.Stat(cfg.OutputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, newConfigurationError(ErrOutputNotExist,
				fmt.Sprintf("指定された出力ディレクトリ \"%s\" は存在しないようです", cfg.OutputDir))
		}
		return nil, newConfigurationError(err,
			fmt.Sprintf("出力ディレクトリ \"%s\" の確認に失敗しました: %v", cfg.OutputDir, err))
	}
	if !info.IsDir() {
		return nil, newConfigurationError(ErrOutputNotDir,
			fmt.Sprintf("指定された出力ディレクトリ \"%s\" はディレクトリではないようです", cfg.OutputDir))
	}

	if !resolutionPattern.MatchString(cfg.Resolution) {
		return nil, newConfigurationError(ErrInvalidResolution,
			fmt.Sprintf("指定された解像度 \"%s\" は不正な形式です (例: %s)", cfg.Resolution, DefaultResolution))
	}

	if cfg.SiteAdapter == "" {
		cfg.SiteAdapter = DefaultSiteAdapter
	}

	if cfg.Concurrency < 1 {
		return nil, newConfigurationError(ErrInvalidConcurrency,
			fmt.Sprintf("同時ダウンロード数 %d は不正です (1以上を指定してください)", cfg.Concurrency))
	}

	switch cfg.WritePolicy {
	case "":
		cfg.WritePolicy = WritePolicyAbort
	case WritePolicyAbort, WritePolicySkip:
	default:
		return nil, newConfigurationError(ErrInvalidWritePolicy,
			fmt.Sprintf("書き込み失敗時の動作 \"%s\" は不正です (abort または skip)", cfg.WritePolicy))
	}

	// map はコピーして呼び出し側との共有を断つ
	if cfg.Network.PerDomainIntervalMillis != nil {
		intervals := make(map[string]int, len(cfg.Network.PerDomainIntervalMillis))
		for host, ms := range cfg.Network.PerDomainIntervalMillis {
			intervals[host] = ms
		}
		cfg.Network.PerDomainIntervalMillis = intervals
	}

	return &cfg, nil
}
