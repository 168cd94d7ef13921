package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseFileAndApply(t *testing.T) {
	// 1. Arrange (準備)
	testConfigPath := filepath.Join("testdata", "test_config.yaml")
	data, err := os.ReadFile(testConfigPath)
	if err != nil {
		t.Fatalf("テスト設定ファイル '%s' の読み込みに失敗しました: %v", testConfigPath, err)
	}
	cfg := NewConfig()

	// 2. Act (実行)
	f, err := ParseFile(data)
	if err != nil {
		t.Fatalf("ParseFileで予期せぬエラーが発生しました: %v", err)
	}
	f.Apply(cfg)

	// 3. Assert (検証)
	if cfg.Resolution != "1920x1080" {
		t.Errorf("Resolutionが期待値と異なります。期待値: 1920x1080, 実際値: %s", cfg.Resolution)
	}
	if cfg.Concurrency != 3 {
		t.Errorf("Concurrencyが期待値と異なります。期待値: 3, 実際値: %d", cfg.Concurrency)
	}
	if cfg.WritePolicy != WritePolicySkip {
		t.Errorf("WritePolicyが期待値と異なります。期待値: skip, 実際値: %s", cfg.WritePolicy)
	}
	if !cfg.Progress {
		t.Error("Progressがtrueになっていません。")
	}
	if cfg.Network.UserAgent != "gwg-test/1.0" {
		t.Errorf("UserAgentが期待値と異なります: %s", cfg.Network.UserAgent)
	}
	if got := cfg.Network.RequestTimeout(); got != 15*time.Second {
		t.Errorf("RequestTimeoutが期待値と異なります。期待値: 15s, 実際値: %v", got)
	}
	if cfg.Network.PerDomainIntervalMillis["www.kuvva.com"] != 500 {
		t.Errorf("PerDomainIntervalMillisが期待値と異なります: %v", cfg.Network.PerDomainIntervalMillis)
	}

	// ファイルに記述のない項目は既定値のまま
	if cfg.SiteAdapter != DefaultSiteAdapter {
		t.Errorf("SiteAdapterが既定値から変わっています: %s", cfg.SiteAdapter)
	}
	if cfg.Verbose {
		t.Error("Verboseは既定値のfalseであるべきです。")
	}
}

func TestParseFile_InvalidYAML(t *testing.T) {
	_, err := ParseFile([]byte("concurrency: [1, 2\n"))
	if err == nil {
		t.Fatal("不正なYAMLでエラーが返されませんでした。")
	}
}

func TestParseFile_TypeError(t *testing.T) {
	_, err := ParseFile([]byte("concurrency: many\n"))
	if err == nil {
		t.Fatal("型の誤りでエラーが返されませんでした。")
	}
}

func TestLoadFile_NotFound(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("ErrConfigNotFoundが期待されましたが、実際は: %v", err)
	}
}

func TestLoadForCLI_ExplicitMissing(t *testing.T) {
	_, _, err := LoadForCLI(filepath.Join(t.TempDir(), "missing.yaml"))

	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("ConfigurationErrorが期待されましたが、実際は: %v", err)
	}
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("ErrConfigNotFoundをラップしていません: %v", err)
	}
}

func TestLoadForCLI_Explicit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gwg.yaml")
	if err := os.WriteFile(path, []byte("resolution: 800x600\n"), 0644); err != nil {
		t.Fatalf("テスト用設定ファイルの作成に失敗しました: %v", err)
	}

	f, found, err := LoadForCLI(path)
	if err != nil {
		t.Fatalf("LoadForCLIで予期せぬエラーが発生しました: %v", err)
	}
	if found != path {
		t.Errorf("見つかったパスが期待値と異なります。期待値: %s, 実際値: %s", path, found)
	}
	if f.Resolution == nil || *f.Resolution != "800x600" {
		t.Errorf("Resolutionが読み込まれていません: %v", f.Resolution)
	}
}
