package sbom

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deepfence/trustier/utils"
	"github.com/klauspost/compress/gzip"
)

func newTestServer(t *testing.T, config utils.Config) *HTTPServer {
	t.Helper()
	s := NewHTTPServer(config)
	t.Cleanup(s.Close)
	return s
}

func post(s *HTTPServer, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHTTPServer_Health(t *testing.T) {
	s := newTestServer(t, utils.Config{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestHTTPServer_ScanSBOM(t *testing.T) {
	api, srv := newFakeTrustAPI(t)
	s := newTestServer(t, utils.Config{APIURL: srv.URL})

	rec := post(s, "/sbom?ratelimit=0", scenarioBOM)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var result ScanResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("response is not a scan result: %v", err)
	}
	if len(result.Results) != 3 || result.Summary == nil || result.Summary.Removed != 1 {
		t.Errorf("result = %+v", result)
	}
	if result.SerialNumber != "urn:uuid:3e671687-395b-41f5-a30f-a58921a69b79" {
		t.Errorf("SerialNumber = %q", result.SerialNumber)
	}
	if n := len(api.recorded()); n != 3 {
		t.Errorf("sent %d lookups, want 3", n)
	}
}

func TestHTTPServer_BadRequests(t *testing.T) {
	s := newTestServer(t, utils.Config{APIURL: "http://127.0.0.1:0"})

	tests := []struct {
		name   string
		target string
		body   string
	}{
		{"not an sbom", "/sbom", `{"hello": "world"}`},
		{"empty body", "/sbom", ``},
		{"bad ratelimit", "/sbom?ratelimit=fast", emptyBOM},
		{"negative ratelimit", "/sbom?ratelimit=-5", emptyBOM},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(s, tt.target, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), `"error"`) {
				t.Errorf("body = %s, want error field", rec.Body.String())
			}
		})
	}
}

func TestHTTPServer_UpstreamFailure(t *testing.T) {
	api, srv := newFakeTrustAPI(t)
	api.failing["left-pad"] = true

	s := newTestServer(t, utils.Config{APIURL: srv.URL, FailFast: true})
	if rec := post(s, "/sbom?ratelimit=0", scenarioBOM); rec.Code != http.StatusBadGateway {
		t.Errorf("fail-fast status = %d, want 502", rec.Code)
	}

	s = newTestServer(t, utils.Config{APIURL: srv.URL})
	rec := post(s, "/sbom?ratelimit=0", scenarioBOM)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var result ScanResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Failures) != 2 || len(result.Results) != 1 {
		t.Errorf("results = %d, failures = %d, want 1 and 2", len(result.Results), len(result.Failures))
	}
}

func TestHTTPServer_RejectsOversizedInflatedUpload(t *testing.T) {
	withMaxDocumentSize(t, 4096)
	s := newTestServer(t, utils.Config{APIURL: "http://127.0.0.1:0"})

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	if _, err := gw.Write(bytes.Repeat([]byte(" "), 1<<20)); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}

	rec := post(s, "/sbom", gz.String())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "maximum document size") {
		t.Errorf("body = %s, want the size error", rec.Body.String())
	}
}
