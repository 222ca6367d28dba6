package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"cortex/models"

	"github.com/gin-gonic/gin"
)

// stubProvider stands in for the Gemini call so integration runs are
// deterministic and offline.
type stubProvider struct {
	raw string
	err error
}

func (s stubProvider) Complete(ctx context.Context, prompt string) (string, error) {
	return s.raw, s.err
}

func (s stubProvider) Name() string { return "stub" }

const stubReviewPayload = "```json\n{\"issues\":[{\"type\":\"warning\",\"line\":1,\"message\":\"missing semicolon\",\"severity\":\"low\"}],\"refactoredCode\":\"x = 1;\"}\n```"

// helper to perform requests with an optional session cookie
func performRequest(r http.Handler, method, path string, body io.Reader, cookie string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: cookie})
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func setupTestServer(t *testing.T) *gin.Engine {
	// integration tests are opt-in. Set DB_DSN_TEST=1 and DB_DSN to run them.
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	gin.SetMode(gin.TestMode)
	jwtSecret = []byte("integration-secret")
	completion = stubProvider{raw: stubReviewPayload}
	initDB()
	r := gin.Default()
	setupRoutes(r)
	return r
}

// signupAndLogin provisions a fresh account and returns its session token.
func signupAndLogin(t *testing.T, r http.Handler, email string) string {
	t.Helper()
	regBody, _ := json.Marshal(map[string]string{"username": "tester", "email": email, "password": "pass123"})
	resp := performRequest(r, http.MethodPost, "/api/auth/signup", bytes.NewBuffer(regBody), "")
	if resp.Code != http.StatusCreated && resp.Code != http.StatusBadRequest {
		t.Fatalf("signup failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	loginBody, _ := json.Marshal(map[string]string{"email": email, "password": "pass123"})
	resp = performRequest(r, http.MethodPost, "/api/auth/login", bytes.NewBuffer(loginBody), "")
	if resp.Code != http.StatusOK {
		t.Fatalf("login failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	for _, ck := range resp.Result().Cookies() {
		if ck.Name == sessionCookie && ck.Value != "" {
			return ck.Value
		}
	}
	t.Fatalf("no session cookie in login response")
	return ""
}

func TestFullReviewFlow(t *testing.T) {
	r := setupTestServer(t)
	email := fmt.Sprintf("flow-%d@example.com", time.Now().UnixNano())
	token := signupAndLogin(t, r, email)

	// login with the right email but wrong password and with an unknown
	// email must be indistinguishable
	badBody, _ := json.Marshal(map[string]string{"email": email, "password": "wrong"})
	respBadPw := performRequest(r, http.MethodPost, "/api/auth/login", bytes.NewBuffer(badBody), "")
	noUserBody, _ := json.Marshal(map[string]string{"email": "nobody-" + email, "password": "wrong"})
	respNoUser := performRequest(r, http.MethodPost, "/api/auth/login", bytes.NewBuffer(noUserBody), "")
	if respBadPw.Code != http.StatusBadRequest || respNoUser.Code != http.StatusBadRequest {
		t.Fatalf("expected 400/400 got %d/%d", respBadPw.Code, respNoUser.Code)
	}
	if respBadPw.Body.String() != respNoUser.Body.String() {
		t.Fatalf("credential failures leak information: %q vs %q", respBadPw.Body.String(), respNoUser.Body.String())
	}

	// submit a review
	revBody, _ := json.Marshal(map[string]string{"code": "x=1", "language": "javascript"})
	resp := performRequest(r, http.MethodPost, "/api/review", bytes.NewBuffer(revBody), token)
	if resp.Code != http.StatusOK {
		t.Fatalf("review failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var revResp struct {
		Success        bool   `json:"success"`
		RefactoredCode string `json:"refactoredCode"`
		Raw            string `json:"raw"`
		Issues         []struct {
			ID   string `json:"id"`
			Line int    `json:"line"`
		} `json:"issues"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &revResp); err != nil {
		t.Fatalf("bad review response: %v", err)
	}
	if !revResp.Success || len(revResp.Issues) != 1 {
		t.Fatalf("unexpected review response: %s", resp.Body.String())
	}
	if revResp.Issues[0].ID != "issue-1" || revResp.Issues[0].Line != 1 {
		t.Fatalf("issue defaults not applied: %+v", revResp.Issues[0])
	}
	if revResp.RefactoredCode != "x = 1;" || revResp.Raw != stubReviewPayload {
		t.Fatalf("unexpected review content: %s", resp.Body.String())
	}

	// missing fields
	badRev, _ := json.Marshal(map[string]string{"code": "x=1"})
	resp = performRequest(r, http.MethodPost, "/api/review", bytes.NewBuffer(badRev), token)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing language got %d", resp.Code)
	}

	// list reviews, newest first, owned by the caller
	resp = performRequest(r, http.MethodGet, "/api/review", nil, token)
	if resp.Code != http.StatusOK {
		t.Fatalf("list failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var listResp struct {
		Success bool            `json:"success"`
		Reviews []models.Review `json:"reviews"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("bad list response: %v", err)
	}
	if !listResp.Success || len(listResp.Reviews) == 0 {
		t.Fatalf("expected at least one archived review: %s", resp.Body.String())
	}
	if listResp.Reviews[0].Language != "javascript" || listResp.Reviews[0].Code != "x=1" {
		t.Fatalf("archived review mismatch: %+v", listResp.Reviews[0])
	}

	// unauthenticated access is terminal
	resp = performRequest(r, http.MethodGet, "/api/review", nil, "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unauthenticated list got %d", resp.Code)
	}
}

func TestProviderFailureWritesNoRecord(t *testing.T) {
	r := setupTestServer(t)
	email := fmt.Sprintf("fail-%d@example.com", time.Now().UnixNano())
	token := signupAndLogin(t, r, email)

	completion = stubProvider{err: fmt.Errorf("upstream exploded")}
	defer func() { completion = stubProvider{raw: stubReviewPayload} }()

	revBody, _ := json.Marshal(map[string]string{"code": "x=1", "language": "go"})
	resp := performRequest(r, http.MethodPost, "/api/review", bytes.NewBuffer(revBody), token)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}

	resp = performRequest(r, http.MethodGet, "/api/review", nil, token)
	var listResp struct {
		Reviews []models.Review `json:"reviews"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &listResp)
	if len(listResp.Reviews) != 0 {
		t.Fatalf("record archived despite provider failure: %+v", listResp.Reviews)
	}
}

func TestConcurrentReviewsAreIndependentlyAttributed(t *testing.T) {
	r := setupTestServer(t)
	nano := time.Now().UnixNano()
	emails := []string{
		fmt.Sprintf("conc-a-%d@example.com", nano),
		fmt.Sprintf("conc-b-%d@example.com", nano),
	}
	tokens := make([]string, len(emails))
	for i, email := range emails {
		tokens[i] = signupAndLogin(t, r, email)
	}

	var wg sync.WaitGroup
	for i := range tokens {
		wg.Add(1)
		go func(tok string, n int) {
			defer wg.Done()
			body, _ := json.Marshal(map[string]string{"code": fmt.Sprintf("x=%d", n), "language": "python"})
			resp := performRequest(r, http.MethodPost, "/api/review", bytes.NewBuffer(body), tok)
			if resp.Code != http.StatusOK {
				t.Errorf("concurrent review failed status=%d body=%s", resp.Code, resp.Body.String())
			}
		}(tokens[i], i)
	}
	wg.Wait()

	seen := map[uint]bool{}
	for _, tok := range tokens {
		resp := performRequest(r, http.MethodGet, "/api/review", nil, tok)
		var listResp struct {
			Reviews []models.Review `json:"reviews"`
		}
		if err := json.Unmarshal(resp.Body.Bytes(), &listResp); err != nil {
			t.Fatalf("bad list response: %v", err)
		}
		if len(listResp.Reviews) != 1 {
			t.Fatalf("expected exactly one review per user, got %d", len(listResp.Reviews))
		}
		owner := listResp.Reviews[0].UserID
		if seen[owner] {
			t.Fatalf("two records attributed to user %d", owner)
		}
		seen[owner] = true
	}
}
