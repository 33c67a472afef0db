package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
)

func TestFetchCapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte("<html><body>hello</body></html>"))
		case "/missing":
			http.NotFound(w, r)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	c := New()

	body, contentType, err := c.FetchCapped(context.Background(), server.URL+"/ok")
	if err != nil {
		t.Fatalf("FetchCapped: %v", err)
	}
	if !strings.Contains(string(body), "hello") {
		t.Errorf("body = %q, want it to contain hello", body)
	}
	if !strings.HasPrefix(contentType, "text/html") {
		t.Errorf("content type = %q, want text/html prefix", contentType)
	}

	_, _, err = c.FetchCapped(context.Background(), server.URL+"/missing")
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected HTTPStatusError, got %v", err)
	}
	if statusErr.Code != http.StatusNotFound {
		t.Errorf("status code = %d, want 404", statusErr.Code)
	}
}

func TestFetchCappedSkipsOversizedBodies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Declare a body far over the limit without sending it.
		w.Header().Set("Content-Length", "104857600")
		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	body, _, err := New().FetchCapped(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchCapped: %v", err)
	}
	if body != nil {
		t.Errorf("expected nil body for oversized response, got %d bytes", len(body))
	}
}

func TestGetBytesSetsBrowserHeaders(t *testing.T) {
	var gotUA, gotReferer string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	if _, err := New().GetBytes(context.Background(), server.URL); err != nil {
		t.Fatalf("GetBytes: %v", err)
	}
	if !strings.Contains(gotUA, "Mozilla/5.0") {
		t.Errorf("User-Agent = %q, want a browser string", gotUA)
	}
	if gotReferer != "https://www.google.com/" {
		t.Errorf("Referer = %q", gotReferer)
	}
}

func TestDecodeTextPassesThroughUTF8(t *testing.T) {
	in := "plain ascii and 한국어 텍스트"
	if got := DecodeText([]byte(in)); got != in {
		t.Errorf("DecodeText changed valid UTF-8: %q", got)
	}
}

func TestDecodeTextSniffsEUCKR(t *testing.T) {
	src := "오늘 서울 날씨는 맑고 따뜻합니다. 주말에는 공원에서 산책하는 사람들이 많았습니다. " +
		"정부는 새로운 경제 정책을 발표했으며 전문가들은 물가 안정에 도움이 될 것으로 전망했습니다. " +
		"한편 국내 연구진은 인공지능 기술을 활용한 번역 시스템을 공개했습니다."
	encoded, err := korean.EUCKR.NewEncoder().Bytes([]byte(src))
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	if got := DecodeText(encoded); got != src {
		t.Errorf("DecodeText(euc-kr) = %q, want original text", got)
	}
}

func TestDecodeTextNeverReturnsInvalidUTF8(t *testing.T) {
	got := DecodeText([]byte{0xff, 0xfe, 0xfd, 'a', 'b'})
	if !utf8.ValidString(got) {
		t.Errorf("DecodeText returned invalid UTF-8: %q", got)
	}
}

func TestKind(t *testing.T) {
	if got := Kind(&TimeoutError{Err: context.DeadlineExceeded}); got != "TimeoutError" {
		t.Errorf("Kind(timeout) = %q", got)
	}
	if got := Kind(&HTTPStatusError{Code: 503}); got != "HTTPStatusError" {
		t.Errorf("Kind(status) = %q", got)
	}
	if got := Kind(errors.New("misc")); got != "" {
		t.Errorf("Kind(untyped) = %q, want empty", got)
	}
}
