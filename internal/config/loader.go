package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile は、カレントディレクトリで探す設定ファイル名です。
const DefaultConfigFile = ".gwg.yaml"

// File は設定ファイル (YAML) の内容です。
// 指定されなかった項目を区別するため、すべてポインタで保持します。
type File struct {
	Resolution   *string          `yaml:"resolution,omitempty"`
	Output       *string          `yaml:"output,omitempty"`
	SiteAdapter  *string          `yaml:"site_adapter,omitempty"`
	Verbose      *bool            `yaml:"verbose,omitempty"`
	Concurrency  *int             `yaml:"concurrency,omitempty"`
	OnWriteError *string          `yaml:"on_write_error,omitempty"`
	Progress     *bool            `yaml:"progress,omitempty"`
	LogFile      *string          `yaml:"log_file,omitempty"`
	Network      *NetworkSettings `yaml:"network,omitempty"`
}

// XDGConfigPath は、XDG設定ディレクトリ内の設定ファイルのパスを返します。
// Linux: ~/.config/gwg/config.yaml
func XDGConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// FindConfigFile は設定ファイルを次の順で探し、見つかったパスを返します。
//  1. explicitPath が指定されていればそれ (存在しなければ空文字)
//  2. カレントディレクトリの .gwg.yaml
//  3. XDG設定ディレクトリの gwg/config.yaml
func FindConfigFile(explicitPath string) string {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err == nil {
			return explicitPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	if candidate := XDGConfigPath(); candidate != "" {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}

// LoadFile は、指定されたパスから設定ファイルを読み込みます。
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("設定ファイル '%s' の読み込みに失敗しました: %w", path, err)
	}
	return ParseFile(data)
}

// ParseFile は、設定ファイルのバイト列を解析します。
func ParseFile(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("設定ファイルの型エラー: %w", err)
		}
		return nil, fmt.Errorf("設定ファイルの解析に失敗しました: %w", err)
	}
	return &f, nil
}

// LoadForCLI は、CLIから渡された設定ファイルパスに従って設定ファイルを探し、読み込みます。
// 明示指定されたファイルが存在しない場合は ConfigurationError を返し、
// 未指定で見つからない場合は (nil, "", nil) を返します。
func LoadForCLI(explicitPath string) (*File, string, error) {
	path := FindConfigFile(explicitPath)
	if path == "" {
		if explicitPath != "" {
			return nil, "", newConfigurationError(ErrConfigNotFound,
				fmt.Sprintf("設定ファイル '%s' が見つかりません", explicitPath))
		}
		return nil, "", nil
	}

	f, err := LoadFile(path)
	if err != nil {
		return nil, path, newConfigurationError(err, err.Error())
	}
	return f, path, nil
}

// Apply は、ファイルに記述された項目だけを target に上書きします。
func (f *File) Apply(target *Config) {
	if f == nil {
		return
	}
	if f.Resolution != nil {
		target.Resolution = *f.Resolution
	}
	if f.Output != nil {
		target.OutputDir = *f.Output
	}
	if f.SiteAdapter != nil {
		target.SiteAdapter = *f.SiteAdapter
	}
	if f.Verbose != nil {
		target.Verbose = *f.Verbose
	}
	if f.Concurrency != nil {
		target.Concurrency = *f.Concurrency
	}
	if f.OnWriteError != nil {
		target.WritePolicy = WritePolicy(*f.OnWriteError)
	}
	if f.Progress != nil {
		target.Progress = *f.Progress
	}
	if f.LogFile != nil {
		target.LogFile = *f.LogFile
	}
	if f.Network != nil {
		if f.Network.UserAgent != "" {
			target.Network.UserAgent = f.Network.UserAgent
		}
		if f.Network.RequestTimeoutMillis != 0 {
			target.Network.RequestTimeoutMillis = f.Network.RequestTimeoutMillis
		}
		if f.Network.PerDomainIntervalMillis != nil {
			target.Network.PerDomainIntervalMillis = f.Network.PerDomainIntervalMillis
		}
	}
}
