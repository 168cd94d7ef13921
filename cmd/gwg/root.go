package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"GoWallpaperGrabber/internal/config"
	"GoWallpaperGrabber/internal/core"

	"github.com/spf13/cobra"
)

// 終了コード
const (
	exitOK          = 0
	exitConfigError = 1
	exitFatal       = 2
)

// rootOptions はコマンドラインフラグの値を保持します。
// 設定ファイルより優先されるのは、明示的に指定されたフラグだけです。
type rootOptions struct {
	configPath   string
	resolution   string
	verbose      bool
	concurrency  int
	onWriteError string
	userAgent    string
	timeout      time.Duration
	dryRun       bool
	progress     bool
	logFile      string
}

// runtimeError は、設定確定後の実行中に発生したエラーを表します。
type runtimeError struct {
	err error
}

func (e *runtimeError) Error() string { return e.err.Error() }
func (e *runtimeError) Unwrap() error { return e.err }

// NewRootCmd は gwg のルートコマンドを生成します。
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "gwg [flags] <share-url> [output-dir]",
		Short: "Kuvva の共有ページから壁紙をダウンロードします",
		Long: `gwg は Kuvva の共有ページ (https://www.kuvva.com/s/...) を取得し、
サムネイルの URL を指定解像度のフルサイズ URL に書き換えて、
出力ディレクトリ (省略時はカレントディレクトリ) に保存します。

設定ファイルは --config、./.gwg.yaml、$XDG_CONFIG_HOME/gwg/config.yaml の順に探します。
明示的に指定したフラグは設定ファイルの値より優先されます。`,
		Version:       getVersion(),
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "設定ファイルのパス")
	flags.StringVarP(&opts.resolution, "resolution", "r", config.DefaultResolution, "ダウンロードする解像度 (幅x高さ)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "DEBUGログを出力します")
	flags.IntVarP(&opts.concurrency, "concurrency", "n", config.DefaultConcurrency, "同時ダウンロード数")
	flags.StringVar(&opts.onWriteError, "on-write-error", string(config.WritePolicyAbort), "ファイル書き込み失敗時の動作 (abort|skip)")
	flags.StringVar(&opts.userAgent, "user-agent", "", "HTTPリクエストの User-Agent")
	flags.DurationVar(&opts.timeout, "timeout", 0, "HTTPリクエストごとのタイムアウト (0 は無制限)")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "ダウンロードせずにフルサイズURLの一覧だけを表示します")
	flags.BoolVar(&opts.progress, "progress", false, "ダウンロードの進捗バーを表示します (逐次実行時のみ)")
	flags.StringVar(&opts.logFile, "log-file", "", "ログを追記するファイルのパス")

	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute はルートコマンドを実行し、終了コードを返します。
func Execute() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "終了シグナルを受信しました。処理を中断します...")
			cancel()
		case <-ctx.Done():
		}
	}()

	err := NewRootCmd().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return exitCode(err)
}

// exitCode はエラーの種類から終了コードを決定します。
// 引数やフラグの誤りは設定エラーと同じ扱いです。
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var cfgErr *config.ConfigurationError
	if errors.As(err, &cfgErr) {
		return exitConfigError
	}
	var rtErr *runtimeError
	if errors.As(err, &rtErr) {
		return exitFatal
	}
	return exitConfigError
}

// runRoot は設定を組み立て、壁紙の取得を実行します。
func runRoot(cmd *cobra.Command, opts *rootOptions, args []string) error {
	cfg, err := buildConfig(cmd, opts, args)
	if err != nil {
		return err
	}

	logOut, closeLog, err := openLogOutput(cmd.OutOrStdout(), cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	logger := core.NewLogger(logOut, cfg.Verbose)
	if cfg.LogFile != "" {
		logger.Printf("INFO: ログ出力をファイル '%s' に開始しました", cfg.LogFile)
	}

	if _, err := core.Run(cmd.Context(), cfg, logger); err != nil {
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			return err
		}
		return &runtimeError{err: err}
	}
	return nil
}

// buildConfig は 既定値 → 設定ファイル → 明示されたフラグ → 位置引数 の順に重ね、Resolve で確定します。
func buildConfig(cmd *cobra.Command, opts *rootOptions, args []string) (*config.Config, error) {
	draft := config.NewConfig()

	file, path, err := config.LoadForCLI(opts.configPath)
	if err != nil {
		return nil, err
	}
	file.Apply(draft)

	flags := cmd.Flags()
	if flags.Changed("resolution") {
		draft.Resolution = opts.resolution
	}
	if flags.Changed("verbose") {
		draft.Verbose = opts.verbose
	}
	if flags.Changed("concurrency") {
		draft.Concurrency = opts.concurrency
	}
	if flags.Changed("on-write-error") {
		draft.WritePolicy = config.WritePolicy(opts.onWriteError)
	}
	if flags.Changed("user-agent") {
		draft.Network.UserAgent = opts.userAgent
	}
	if flags.Changed("timeout") {
		draft.Network.RequestTimeoutMillis = int(opts.timeout.Milliseconds())
	}
	if flags.Changed("dry-run") {
		draft.DryRun = opts.dryRun
	}
	if flags.Changed("progress") {
		draft.Progress = opts.progress
	}
	if flags.Changed("log-file") {
		draft.LogFile = opts.logFile
	}

	draft.ShareURL = args[0]
	if len(args) > 1 {
		draft.OutputDir = args[1]
	}

	cfg, err := config.Resolve(*draft)
	if err != nil {
		return nil, err
	}
	if path != "" && cfg.Verbose {
		fmt.Fprintf(cmd.OutOrStdout(), "設定ファイル '%s' を読み込みました\n", path)
	}
	return cfg, nil
}

// openLogOutput は、path が指定されていれば stdout とファイルの両方に書き込む Writer を返します。
func openLogOutput(stdout io.Writer, path string) (io.Writer, func(), error) {
	if path == "" {
		return stdout, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, &config.ConfigurationError{
			Message: fmt.Sprintf("ログファイル '%s' を開けませんでした: %v", path, err),
			Err:     err,
		}
	}
	return io.MultiWriter(stdout, f), func() { f.Close() }, nil
}
