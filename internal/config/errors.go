package config

import "errors"

// 設定検証のセンチネルエラーです。errors.Is で判定できます。
var (
	ErrEmptyShareURL      = errors.New("share url is empty")
	ErrOutputNotExist     = errors.New("output directory does not exist")
	ErrOutputNotDir       = errors.New("output path is not a directory")
	ErrInvalidResolution  = errors.New("resolution must match WIDTHxHEIGHT")
	ErrInvalidConcurrency = errors.New("concurrency must be positive")
	ErrInvalidWritePolicy = errors.New("write policy must be abort or skip")

	// ErrConfigNotFound は、明示的に指定された設定ファイルが存在しない場合に返されます。
	ErrConfigNotFound = errors.New("configuration file not found")
)

// ConfigurationError は、ネットワーク処理開始前に検出された設定の誤りです。
// コマンドは終了コード 1 で終了します。
type ConfigurationError struct {
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func newConfigurationError(err error, message string) *ConfigurationError {
	return &ConfigurationError{Message: message, Err: err}
}
