// Package network は、GWGのHTTP通信に関する機能を提供します。
// ギャラリーページの取得 (文字コード変換付き) と、画像本体のストリーム取得を
// 1つのクライアントにまとめています。
package network

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"GoWallpaperGrabber/internal/config"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/time/rate"
)

// HTTPError は、成功以外のHTTPステータスを受け取ったことを表します。
type HTTPError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// RequestError は、接続失敗や転送中断など、HTTPレスポンスを得られなかったエラーです。
type RequestError struct {
	URL string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("リクエストに失敗しました (URL: %s): %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Page は取得したギャラリーページです。
type Page struct {
	URL        string // リダイレクト後の最終URL
	StatusCode int
	Body       string // 宣言された文字コードからUTF-8へ変換済み
}

// Response はボディを開いたままのHTTPレスポンスです。呼び出し側が Close します。
type Response struct {
	StatusCode    int
	Status        string
	FinalURL      *url.URL
	ContentLength int64
	Body          io.ReadCloser
}

// OK は、ステータスが2xxかどうかを返します。
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// HTTPError は、レスポンスを HTTPError として表現します。
func (r *Response) HTTPError() *HTTPError {
	return &HTTPError{
		StatusCode: r.StatusCode,
		URL:        r.FinalURL.String(),
		Message:    http.StatusText(r.StatusCode),
	}
}

// Close はレスポンスボディを閉じます。
func (r *Response) Close() error {
	return r.Body.Close()
}

// Client は、1回の実行で共有されるHTTPクライアントです。
type Client struct {
	httpClient         *http.Client
	userAgent          string
	rateLimiters       map[string]*rate.Limiter // ホスト名ごとのレートリミッター
	rateLimitersMutex  sync.Mutex               // rateLimitersへのアクセスを保護するMutex
	perDomainIntervals map[string]int           // ドメインごとの設定間隔
}

// NewClient は NetworkSettings に基づいて HTTP クライアントを初期化します。
// タイムアウトとレートリミットは、設定された場合にのみ有効になります。
func NewClient(settings config.NetworkSettings) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: settings.RequestTimeout(),
		},
		userAgent:          settings.UserAgent,
		rateLimiters:       make(map[string]*rate.Limiter),
		perDomainIntervals: settings.PerDomainIntervalMillis,
	}
}

// FetchPage は、指定されたURLにGETリクエストを送信し、ボディを文字列として返します。
// ステータスコードは解釈せず、2xx以外でもボディをそのまま返します。
func (c *Client) FetchPage(ctx context.Context, pageURL string) (*Page, error) {
	resp, err := c.do(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	decoder := decoderFor(resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(transform.NewReader(resp.Body, decoder))
	if err != nil {
		return nil, &RequestError{URL: pageURL, Err: fmt.Errorf("レスポンスボディの読み込みに失敗しました: %w", err)}
	}

	return &Page{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}, nil
}

// Open は、指定されたURLにGETリクエストを送信し、ボディを開いたままのレスポンスを返します。
// ステータスの判定は呼び出し側で行います。
func (c *Client) Open(ctx context.Context, reqURL string) (*Response, error) {
	resp, err := c.do(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	return &Response{
		StatusCode:    resp.StatusCode,
		Status:        resp.Status,
		FinalURL:      resp.Request.URL,
		ContentLength: resp.ContentLength,
		Body:          resp.Body,
	}, nil
}

func (c *Client) do(ctx context.Context, reqURL string) (*http.Response, error) {
	parsedURL, err := url.Parse(reqURL)
	if err != nil {
		return nil, &RequestError{URL: reqURL, Err: fmt.Errorf("リクエストURLの解析に失敗しました: %w", err)}
	}

	if limiter := c.getLimiterForHost(parsedURL.Hostname()); limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, &RequestError{URL: reqURL, Err: fmt.Errorf("レートリミッター待機中にエラーが発生しました: %w", err)}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &RequestError{URL: reqURL, Err: fmt.Errorf("GETリクエストの作成に失敗しました: %w", err)}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{URL: reqURL, Err: err}
	}
	return resp, nil
}

// getLimiterForHost は、指定されたホスト名に対応するレートリミッターを返します。
// 間隔が設定されていないホストには nil を返し、待機しません。
func (c *Client) getLimiterForHost(host string) *rate.Limiter {
	intervalMillis, ok := c.perDomainIntervals[host]
	if !ok || intervalMillis <= 0 {
		return nil
	}

	c.rateLimitersMutex.Lock()
	defer c.rateLimitersMutex.Unlock()

	if limiter, exists := c.rateLimiters[host]; exists {
		return limiter
	}
	limiter := rate.NewLimiter(rate.Every(time.Duration(intervalMillis)*time.Millisecond), 1)
	c.rateLimiters[host] = limiter
	return limiter
}

// decoderFor は、Content-Type の charset に対応するデコーダを返します。
// 指定がない、または未知の文字コードの場合は UTF-8 として扱います。
func decoderFor(contentType string) transform.Transformer {
	var enc encoding.Encoding = unicode.UTF8
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		if label := strings.TrimSpace(params["charset"]); label != "" {
			if e, err := htmlindex.Get(label); err == nil && e != nil {
				enc = e
			}
		}
	}
	return enc.NewDecoder()
}
