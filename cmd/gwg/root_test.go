package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"GoWallpaperGrabber/internal/config"
)

// shareServer は、サムネイル1件の共有ページとその画像を配信するダミーサーバーです。
type shareServer struct {
	*httptest.Server

	mu          sync.Mutex
	requests    []string // 画像へのリクエスト
	allRequests []string // 共有ページを含むすべてのリクエスト
}

func newShareServer(t *testing.T) *shareServer {
	t.Helper()
	s := &shareServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/s/someone", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<ul class="thumb-grid"><li><a href="/wallpapers/a"><img src="%s/w/300x200_a.jpg"></a></li></ul>`, s.URL)
	})
	mux.HandleFunc("/w/", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.URL.Path)
		s.mu.Unlock()
		fmt.Fprint(w, "image-bytes")
	})
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.allRequests = append(s.allRequests, r.URL.Path)
		s.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *shareServer) imageRequests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *shareServer) everyRequest() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.allRequests...)
}

// executeRoot はルートコマンドを args で実行し、出力とエラーを返します。
func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{name: "resolution", shorthand: "r", defValue: config.DefaultResolution},
		{name: "verbose", shorthand: "v", defValue: "false"},
		{name: "config", shorthand: "c", defValue: ""},
		{name: "concurrency", shorthand: "n", defValue: "1"},
		{name: "on-write-error", defValue: "abort"},
		{name: "user-agent", defValue: ""},
		{name: "timeout", defValue: "0s"},
		{name: "dry-run", defValue: "false"},
		{name: "progress", defValue: "false"},
		{name: "log-file", defValue: ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("フラグ %q が定義されていません", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("短縮形が期待値と異なります。期待値: %q, 実際値: %q", tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("既定値が期待値と異なります。期待値: %q, 実際値: %q", tt.defValue, flag.DefValue)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: exitOK},
		{name: "configuration error", err: &config.ConfigurationError{Message: "bad", Err: config.ErrInvalidResolution}, want: exitConfigError},
		{name: "usage error", err: errors.New("accepts between 1 and 2 arg(s), received 0"), want: exitConfigError},
		{name: "runtime error", err: &runtimeError{err: errors.New("boom")}, want: exitFatal},
		{name: "cancelled", err: &runtimeError{err: context.Canceled}, want: exitFatal},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("終了コードが期待値と異なります。期待値: %d, 実際値: %d", tt.want, got)
			}
		})
	}
}

func TestRootCmd_Downloads(t *testing.T) {
	// 1. Arrange (準備)
	server := newShareServer(t)
	outDir := t.TempDir()

	// 2. Act (実行)
	out, err := executeRoot(t, "-r", "1920x1080", server.URL+"/s/someone", outDir)

	// 3. Assert (検証)
	if err != nil {
		t.Fatalf("予期せぬエラーが発生しました: %v\n%s", err, out)
	}
	content, readErr := os.ReadFile(filepath.Join(outDir, "1920x1080_a.jpg"))
	if readErr != nil {
		t.Fatalf("保存ファイルが見つかりません: %v\n%s", readErr, out)
	}
	if string(content) != "image-bytes" {
		t.Errorf("保存内容が期待値と異なります: %q", content)
	}
	if !strings.Contains(out, "WARNING:") {
		t.Errorf("想定外の共有URLに対する警告が出力されていません:\n%s", out)
	}
}

func TestRootCmd_InvalidResolution(t *testing.T) {
	server := newShareServer(t)

	_, err := executeRoot(t, "-r", "big", server.URL+"/s/someone", t.TempDir())

	if !errors.Is(err, config.ErrInvalidResolution) {
		t.Fatalf("ErrInvalidResolutionが期待されましたが、実際は: %v", err)
	}
	if got := exitCode(err); got != exitConfigError {
		t.Errorf("終了コードが期待値と異なります: %d", got)
	}
	if reqs := server.everyRequest(); len(reqs) != 0 {
		t.Errorf("設定エラーなのにリクエストが発生しました: %v", reqs)
	}
}

func TestRootCmd_MissingOutputDir(t *testing.T) {
	server := newShareServer(t)
	missing := filepath.Join(t.TempDir(), "nope")

	_, err := executeRoot(t, server.URL+"/s/someone", missing)

	if !errors.Is(err, config.ErrOutputNotExist) {
		t.Fatalf("ErrOutputNotExistが期待されましたが、実際は: %v", err)
	}
	if !strings.Contains(err.Error(), missing) {
		t.Errorf("エラーメッセージにパスが含まれていません: %v", err)
	}
	if reqs := server.everyRequest(); len(reqs) != 0 {
		t.Errorf("設定エラーなのにリクエストが発生しました: %v", reqs)
	}
}

func TestRootCmd_ArgumentCount(t *testing.T) {
	for _, args := range [][]string{{}, {"a", "b", "c"}} {
		_, err := executeRoot(t, args...)
		if err == nil {
			t.Fatalf("引数 %v でエラーが返されませんでした", args)
		}
		if got := exitCode(err); got != exitConfigError {
			t.Errorf("引数 %v の終了コードが期待値と異なります: %d", args, got)
		}
	}
}

func TestRootCmd_PageFailureIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := server.URL + "/s/someone"
	server.Close()

	_, err := executeRoot(t, deadURL, t.TempDir())

	if got := exitCode(err); got != exitFatal {
		t.Errorf("終了コードが期待値と異なります。期待値: %d, 実際値: %d (err=%v)", exitFatal, got, err)
	}
}

func TestRootCmd_ConfigFilePrecedence(t *testing.T) {
	server := newShareServer(t)
	configPath := filepath.Join(t.TempDir(), "gwg.yaml")
	if err := os.WriteFile(configPath, []byte("resolution: 1280x800\nverbose: true\n"), 0644); err != nil {
		t.Fatalf("設定ファイルの作成に失敗しました: %v", err)
	}

	t.Run("file value is used when flag is not set", func(t *testing.T) {
		outDir := t.TempDir()
		out, err := executeRoot(t, "-c", configPath, server.URL+"/s/someone", outDir)
		if err != nil {
			t.Fatalf("予期せぬエラーが発生しました: %v", err)
		}
		if _, statErr := os.Stat(filepath.Join(outDir, "1280x800_a.jpg")); statErr != nil {
			t.Errorf("設定ファイルの解像度で保存されていません: %v", statErr)
		}
		if !strings.Contains(out, "DEBUG:") {
			t.Errorf("設定ファイルの verbose が反映されていません:\n%s", out)
		}
	})

	t.Run("explicit flag overrides file", func(t *testing.T) {
		outDir := t.TempDir()
		_, err := executeRoot(t, "-c", configPath, "-r", "1920x1080", server.URL+"/s/someone", outDir)
		if err != nil {
			t.Fatalf("予期せぬエラーが発生しました: %v", err)
		}
		if _, statErr := os.Stat(filepath.Join(outDir, "1920x1080_a.jpg")); statErr != nil {
			t.Errorf("フラグの解像度で保存されていません: %v", statErr)
		}
	})

	t.Run("missing explicit file is a configuration error", func(t *testing.T) {
		_, err := executeRoot(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"), server.URL+"/s/someone", t.TempDir())
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("ErrConfigNotFoundが期待されましたが、実際は: %v", err)
		}
	})
}

func TestRootCmd_LogFile(t *testing.T) {
	server := newShareServer(t)
	logPath := filepath.Join(t.TempDir(), "gwg.log")

	out, err := executeRoot(t, "--log-file", logPath, "--dry-run", server.URL+"/s/someone", t.TempDir())
	if err != nil {
		t.Fatalf("予期せぬエラーが発生しました: %v", err)
	}

	logged, readErr := os.ReadFile(logPath)
	if readErr != nil {
		t.Fatalf("ログファイルの読み込みに失敗しました: %v", readErr)
	}
	if !strings.Contains(string(logged), "DRY-RUN:") || !strings.Contains(out, "DRY-RUN:") {
		t.Errorf("ログが標準出力とファイルの両方に出力されていません:\nstdout:\n%s\nfile:\n%s", out, logged)
	}
	if reqs := server.imageRequests(); len(reqs) != 0 {
		t.Errorf("ドライランで画像リクエストが発生しました: %v", reqs)
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := executeRoot(t, "version")
	if err != nil {
		t.Fatalf("予期せぬエラーが発生しました: %v", err)
	}
	if !strings.HasPrefix(out, "gwg version ") {
		t.Errorf("出力が期待値と異なります: %q", out)
	}
}
