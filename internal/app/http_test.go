package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"sitewatch/api/internal/audit"
	"sitewatch/api/internal/authpw"
	"sitewatch/api/internal/clientstore"
	"sitewatch/api/internal/config"
	"sitewatch/api/internal/export"
	"sitewatch/api/internal/kv"
	"sitewatch/api/internal/search"
	"sitewatch/api/internal/session"
	"sitewatch/api/internal/store"
)

const testAdminEmail = "admin@example.com"

func newTestServer(t *testing.T) (*Server, *Service) {
	t.Helper()
	dir := t.TempDir()
	workbook, err := store.NewWorkbookStore(filepath.Join(dir, "projects.xlsx"))
	if err != nil {
		t.Fatalf("NewWorkbookStore: %v", err)
	}
	sidecar, err := store.NewSidecarStore(dir)
	if err != nil {
		t.Fatalf("NewSidecarStore: %v", err)
	}
	trail, err := audit.New(filepath.Join(dir, "audit"))
	if err != nil {
		t.Fatalf("audit.New: %v", err)
	}
	ns := clientstore.NewMemoryNamespace()
	svc := NewService(Options{
		Config: config.Config{
			AdminEmail: testAdminEmail,
			SessionTTL: time.Hour,
			CORSOrigin: "*",
		},
		Workbook:      workbook,
		Sidecar:       sidecar,
		ClientStorage: ns,
		Sessions:      session.NewMemoryStore(),
		Accounts:      authpw.NewService(ns, testAdminEmail),
		Search:        search.NewService(nil, search.NewMemory()),
		Trail:         trail,
		Exporter:      export.NewService(),
	})
	return NewServer(svc), svc
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return payload
}

// signUp registers an account and returns the session token, empty when the
// account is pending.
func signUp(t *testing.T, h http.Handler, name, email string) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name":     name,
		"email":    email,
		"section":  "Construction",
		"password": "secret123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	payload := decodeResponse(t, rec)
	token, _ := payload["token"].(string)
	return token
}

func signUpAdmin(t *testing.T, h http.Handler) string {
	t.Helper()
	token := signUp(t, h, "Office Admin", testAdminEmail)
	if token == "" {
		t.Fatal("admin signup did not return a token")
	}
	return token
}

// approveAndSignIn moves a pending account to approved and signs it in.
func approveAndSignIn(t *testing.T, h http.Handler, adminToken, email string) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/auth/approve", adminToken, map[string]string{"email": email})
	if rec.Code != http.StatusOK {
		t.Fatalf("approve %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	rec = doJSON(t, h, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"email":    email,
		"password": "secret123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("signin %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	token, _ := decodeResponse(t, rec)["token"].(string)
	if token == "" {
		t.Fatalf("signin %s returned no token", email)
	}
	return token
}

func TestHealth(t *testing.T) {
	server, _ := newTestServer(t)
	rec := doJSON(t, server.Handler(), http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	payload := decodeResponse(t, rec)
	if payload["success"] != true || payload["status"] != "ok" {
		t.Fatalf("payload = %v", payload)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestUnknownRoute(t *testing.T) {
	server, _ := newTestServer(t)
	rec := doJSON(t, server.Handler(), http.MethodGet, "/api/nope", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if decodeResponse(t, rec)["success"] != false {
		t.Error("error envelope should carry success=false")
	}
}

func TestCORSPreflight(t *testing.T) {
	server, _ := newTestServer(t)
	rec := doJSON(t, server.Handler(), http.MethodOptions, "/api/get-projects", "", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS origin header")
	}
}

func TestAuthLifecycle(t *testing.T) {
	server, _ := newTestServer(t)
	h := server.Handler()
	adminToken := signUpAdmin(t, h)

	// Regular signup lands pending and cannot sign in yet.
	token := signUp(t, h, "Juan Dela Cruz", "juan@example.com")
	if token != "" {
		t.Fatal("pending signup should not return a token")
	}
	rec := doJSON(t, h, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"email":    "juan@example.com",
		"password": "secret123",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("pending signin: status = %d", rec.Code)
	}

	userToken := approveAndSignIn(t, h, adminToken, "juan@example.com")

	// The session resolves back to the account.
	rec = doJSON(t, h, http.MethodGet, "/api/auth/me", userToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: status = %d", rec.Code)
	}
	user := decodeResponse(t, rec)["user"].(map[string]any)
	if user["name"] != "Juan Dela Cruz" || user["isAdmin"] != false {
		t.Fatalf("me = %v", user)
	}

	// Account admin surface is admin-only.
	if rec := doJSON(t, h, http.MethodGet, "/api/auth/accounts", userToken, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("accounts as user: status = %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/auth/accounts", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("accounts as admin: status = %d", rec.Code)
	}
	if total := decodeResponse(t, rec)["total"].(float64); total != 2 {
		t.Fatalf("total = %v", total)
	}

	// Blocking kills future sign-ins.
	if rec := doJSON(t, h, http.MethodPost, "/api/auth/block", adminToken, map[string]string{"email": "juan@example.com"}); rec.Code != http.StatusOK {
		t.Fatalf("block: status = %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"email":    "juan@example.com",
		"password": "secret123",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("blocked signin: status = %d", rec.Code)
	}

	// Logout revokes the session.
	if rec := doJSON(t, h, http.MethodPost, "/api/auth/logout", userToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("logout: status = %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodGet, "/api/auth/me", userToken, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout: status = %d", rec.Code)
	}
}

func TestPreApproveFlow(t *testing.T) {
	server, _ := newTestServer(t)
	h := server.Handler()
	adminToken := signUpAdmin(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/auth/pre-approve", adminToken, map[string]string{
		"name":    "Maria Santos",
		"email":   "maria@example.com",
		"section": "QA",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("pre-approve: status = %d body %s", rec.Code, rec.Body.String())
	}

	// The owner signs up and is approved in one step.
	token := signUp(t, h, "Maria Santos", "maria@example.com")
	if token == "" {
		t.Fatal("pre-approved signup should sign in immediately")
	}

	// A second signup against the same email is a conflict.
	rec = doJSON(t, h, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name":     "Impostor",
		"email":    "maria@example.com",
		"section":  "QA",
		"password": "secret123",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate signup: status = %d", rec.Code)
	}
}

func TestAccountDeleteAndReset(t *testing.T) {
	server, _ := newTestServer(t)
	h := server.Handler()
	adminToken := signUpAdmin(t, h)
	signUp(t, h, "Juan Dela Cruz", "juan@example.com")
	approveAndSignIn(t, h, adminToken, "juan@example.com")

	if rec := doJSON(t, h, http.MethodPost, "/api/auth/reset-password", adminToken, map[string]string{
		"email":    "juan@example.com",
		"password": "newsecret",
	}); rec.Code != http.StatusOK {
		t.Fatalf("reset-password: status = %d", rec.Code)
	}
	rec := doJSON(t, h, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"email":    "juan@example.com",
		"password": "newsecret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("signin after reset: status = %d", rec.Code)
	}

	if rec := doJSON(t, h, http.MethodDelete, "/api/auth/accounts/juan@example.com", adminToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("delete account: status = %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"email":    "juan@example.com",
		"password": "newsecret",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("signin after delete: status = %d", rec.Code)
	}
}

func TestClientStorageEndpoints(t *testing.T) {
	server, _ := newTestServer(t)
	h := server.Handler()

	rec := doJSON(t, h, http.MethodPut, "/api/client-storage/item", "", map[string]string{
		"key":   "projectUpdates",
		"value": `{"26AB0001":{"status":"Completed"}}`,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("set item: status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/client-storage", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get all: status = %d", rec.Code)
	}
	data := decodeResponse(t, rec)["data"].(map[string]any)
	if data["projectUpdates"] != `{"26AB0001":{"status":"Completed"}}` {
		t.Fatalf("data = %v", data)
	}

	// Missing key is a 400.
	rec = doJSON(t, h, http.MethodPut, "/api/client-storage/item", "", map[string]string{"value": "x"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("set without key: status = %d", rec.Code)
	}

	if rec := doJSON(t, h, http.MethodDelete, "/api/client-storage/item/projectUpdates", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("delete item: status = %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/client-storage", "", nil)
	if data := decodeResponse(t, rec)["data"].(map[string]any); len(data) != 0 {
		t.Fatalf("data after delete = %v", data)
	}

	doJSON(t, h, http.MethodPut, "/api/client-storage/item", "", map[string]string{"key": "a", "value": "1"})
	if rec := doJSON(t, h, http.MethodDelete, "/api/client-storage", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("clear: status = %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/client-storage", "", nil)
	if data := decodeResponse(t, rec)["data"].(map[string]any); len(data) != 0 {
		t.Fatalf("data after clear = %v", data)
	}
}

// The RemoteStore client and the server side of the namespace speak the same
// protocol end to end.
func TestClientStorageRemoteStoreIntegration(t *testing.T) {
	server, _ := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	remote := kv.NewRemoteStore(ts.URL)
	remote.Set("engineersDirectory", `[{"name":"Juan"}]`)
	remote.Flush()
	if pending, lastErr := remote.SyncState("engineersDirectory"); pending || lastErr != nil {
		t.Fatalf("sync state: pending=%v err=%v", pending, lastErr)
	}

	// A fresh mirror sees the pushed key.
	second := kv.NewRemoteStore(ts.URL)
	value, ok := second.Get("engineersDirectory")
	if !ok || value != `[{"name":"Juan"}]` {
		t.Fatalf("second mirror = %q, %v", value, ok)
	}

	remote.Remove("engineersDirectory")
	remote.Close()

	third := kv.NewRemoteStore(ts.URL)
	if _, ok := third.Get("engineersDirectory"); ok {
		t.Fatal("key should be gone after remote delete")
	}
}

func TestEngineersEndpoints(t *testing.T) {
	server, _ := newTestServer(t)
	h := server.Handler()
	adminToken := signUpAdmin(t, h)

	// Reads are open; writes need a session.
	rec := doJSON(t, h, http.MethodGet, "/api/engineers", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodPost, "/api/engineers", "", map[string]string{"name": "Juan"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated upsert: status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/engineers", adminToken, map[string]string{
		"name": "Juan Dela Cruz",
		"role": "Project Engineer",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("upsert: status = %d body %s", rec.Code, rec.Body.String())
	}
	if total := decodeResponse(t, rec)["total"].(float64); total != 1 {
		t.Fatalf("total = %v", total)
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/engineers?name=Juan+Dela+Cruz&role=Project+Engineer", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodDelete, "/api/engineers?name=Nobody", adminToken, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("delete unknown: status = %d", rec.Code)
	}
}

func TestStorageEndpointsUnconfigured(t *testing.T) {
	server, _ := newTestServer(t)
	h := server.Handler()
	adminToken := signUpAdmin(t, h)

	rec := doJSON(t, h, http.MethodGet, "/api/storage-status", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("storage-status: status = %d", rec.Code)
	}
	if decodeResponse(t, rec)["wasabiConfigured"] != false {
		t.Error("wasabiConfigured should be false")
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	_ = form.WriteField("contractId", "26AB0001")
	_ = form.WriteField("section", "contracts")
	_ = form.WriteField("docName", "Contract Agreement")
	part, _ := form.CreateFormFile("file", "agreement.pdf")
	fmt.Fprint(part, "pdf bytes")
	form.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload-document", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+adminToken)
	recUpload := httptest.NewRecorder()
	h.ServeHTTP(recUpload, req)
	if recUpload.Code != http.StatusServiceUnavailable {
		t.Fatalf("upload without storage: status = %d body %s", recUpload.Code, recUpload.Body.String())
	}
	if decodeResponse(t, recUpload)["error"] != "Wasabi storage is not configured." {
		t.Fatalf("error = %v", decodeResponse(t, recUpload)["error"])
	}

	for _, path := range []string{"/api/documents/26AB0001", "/api/documents-summary", "/api/gallery/26AB0001"} {
		if rec := doJSON(t, h, http.MethodGet, path, adminToken, nil); rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s without storage: status = %d", path, rec.Code)
		}
	}
}

func galleryUpload(t *testing.T, h http.Handler, token string, fileCount int) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	_ = form.WriteField("contractId", "26AB0001")
	for i := 0; i < fileCount; i++ {
		part, _ := form.CreateFormFile("files", fmt.Sprintf("photo-%d.jpg", i))
		fmt.Fprint(part, "jpeg bytes")
	}
	form.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload-gallery", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestUploadGalleryFormLimits(t *testing.T) {
	server, _ := newTestServer(t)
	h := server.Handler()
	adminToken := signUpAdmin(t, h)

	// Field checks run before storage is touched, so they answer even on a
	// deployment without Wasabi.
	rec := galleryUpload(t, h, adminToken, 0)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty gallery upload: status = %d body %s", rec.Code, rec.Body.String())
	}
	if decodeResponse(t, rec)["code"] != "missing_files" {
		t.Fatalf("code = %v", decodeResponse(t, rec)["code"])
	}

	rec = galleryUpload(t, h, adminToken, 31)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("oversized gallery upload: status = %d body %s", rec.Code, rec.Body.String())
	}
	if decodeResponse(t, rec)["code"] != "too_many_files" {
		t.Fatalf("code = %v", decodeResponse(t, rec)["code"])
	}
}
