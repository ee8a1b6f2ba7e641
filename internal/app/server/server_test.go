package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/cezi/internal/account"
	"github.com/louisbranch/cezi/internal/auth/token"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	server, err := New(Config{
		HTTPAddr: "127.0.0.1:0",
		DBPath:   filepath.Join(dir, "cezi.db"),
		BlobDir:  filepath.Join(dir, "blobs"),
		Tokens: token.Config{
			Issuer: "cezi",
			Secret: []byte("test-secret"),
			TTL:    time.Hour,
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		server.close()
		_ = server.listener.Close()
	})
	return server
}

func doJSON(t *testing.T, server *Server, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}
	request := httptest.NewRequest(method, path, &body)
	recorder := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(recorder, request)
	return recorder
}

func decode[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(recorder.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func register(t *testing.T, server *Server, email string) identityResponse {
	t.Helper()
	recorder := doJSON(t, server, http.MethodPost, "/api/register", credentialsRequest{
		Email:    email,
		Password: "passw0rd",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", recorder.Code, recorder.Body)
	}
	return decode[identityResponse](t, recorder)
}

func TestRegisterSignOutSession(t *testing.T) {
	server := testServer(t)

	identity := register(t, server, "diviner@example.com")
	if identity.Email != "diviner@example.com" || identity.Token == "" {
		t.Fatalf("register response = %+v", identity)
	}

	recorder := doJSON(t, server, http.MethodGet, "/api/session", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("session status = %d", recorder.Code)
	}

	recorder = doJSON(t, server, http.MethodPost, "/api/signout", nil)
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("signout status = %d", recorder.Code)
	}

	recorder = doJSON(t, server, http.MethodGet, "/api/session", nil)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("session after signout status = %d", recorder.Code)
	}
}

func TestSignInWrongPassword(t *testing.T) {
	server := testServer(t)
	register(t, server, "diviner@example.com")

	recorder := doJSON(t, server, http.MethodPost, "/api/signout", nil)
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("signout status = %d", recorder.Code)
	}

	recorder = doJSON(t, server, http.MethodPost, "/api/signin", credentialsRequest{
		Email:    "diviner@example.com",
		Password: "wrong-password",
	})
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("signin status = %d, body = %s", recorder.Code, recorder.Body)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	server := testServer(t)
	register(t, server, "diviner@example.com")

	recorder := doJSON(t, server, http.MethodPost, "/api/register", credentialsRequest{
		Email:    "diviner@example.com",
		Password: "different1",
	})
	if recorder.Code != http.StatusConflict {
		t.Fatalf("duplicate register status = %d", recorder.Code)
	}
}

func TestRestoreSession(t *testing.T) {
	server := testServer(t)
	identity := register(t, server, "diviner@example.com")

	recorder := doJSON(t, server, http.MethodPost, "/api/signout", nil)
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("signout status = %d", recorder.Code)
	}

	recorder = doJSON(t, server, http.MethodPost, "/api/session/restore", restoreRequest{Token: identity.Token})
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("restore of revoked session status = %d, body = %s", recorder.Code, recorder.Body)
	}

	fresh := register(t, server, "other@example.com")
	recorder = doJSON(t, server, http.MethodPost, "/api/session/restore", restoreRequest{Token: fresh.Token})
	if recorder.Code != http.StatusOK {
		t.Fatalf("restore status = %d, body = %s", recorder.Code, recorder.Body)
	}
	restored := decode[identityResponse](t, recorder)
	if restored.ID != fresh.ID {
		t.Fatalf("restored.ID = %q, want %q", restored.ID, fresh.ID)
	}
}

func TestSubmitAndListReadings(t *testing.T) {
	server := testServer(t)
	register(t, server, "diviner@example.com")

	recorder := doJSON(t, server, http.MethodPost, "/api/readings", submitRequest{Character: "安"})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("submit status = %d, body = %s", recorder.Code, recorder.Body)
	}
	created := decode[readingResponse](t, recorder)
	if created.Character != "安" || created.Interpretation == "" || created.ID == "" {
		t.Fatalf("submit response = %+v", created)
	}

	recorder = doJSON(t, server, http.MethodPost, "/api/readings", submitRequest{Character: "火"})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("second submit status = %d", recorder.Code)
	}

	recorder = doJSON(t, server, http.MethodGet, "/api/readings", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("list status = %d", recorder.Code)
	}
	list := decode[readingListResponse](t, recorder)
	if len(list.Readings) != 2 {
		t.Fatalf("len(readings) = %d, want 2", len(list.Readings))
	}
	if list.Readings[0].Character != "火" {
		t.Fatalf("readings[0].Character = %q, want latest first", list.Readings[0].Character)
	}
}

func TestSubmitBlankReading(t *testing.T) {
	server := testServer(t)
	register(t, server, "diviner@example.com")

	recorder := doJSON(t, server, http.MethodPost, "/api/readings", submitRequest{Character: "   "})
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("blank submit status = %d", recorder.Code)
	}
}

func TestSubmitMultipleCharacters(t *testing.T) {
	server := testServer(t)
	register(t, server, "diviner@example.com")

	recorder := doJSON(t, server, http.MethodPost, "/api/readings", submitRequest{Character: "安心"})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("multi-character submit status = %d", recorder.Code)
	}
}

func TestListReadingsWithFilter(t *testing.T) {
	server := testServer(t)
	register(t, server, "diviner@example.com")

	for _, character := range []string{"安", "火", "安"} {
		recorder := doJSON(t, server, http.MethodPost, "/api/readings", submitRequest{Character: character})
		if recorder.Code != http.StatusCreated {
			t.Fatalf("submit status = %d", recorder.Code)
		}
	}

	recorder := doJSON(t, server, http.MethodGet, "/api/readings?filter="+`character%20%3D%20%22安%22`, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("filtered list status = %d, body = %s", recorder.Code, recorder.Body)
	}
	list := decode[readingListResponse](t, recorder)
	if len(list.Readings) != 2 {
		t.Fatalf("len(readings) = %d, want 2", len(list.Readings))
	}

	recorder = doJSON(t, server, http.MethodGet, "/api/readings?filter=nonsense%20%3D%3D%3D", nil)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("invalid filter status = %d", recorder.Code)
	}
}

func TestReadingsRequireSession(t *testing.T) {
	server := testServer(t)

	recorder := doJSON(t, server, http.MethodPost, "/api/readings", submitRequest{Character: "安"})
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("submit status = %d", recorder.Code)
	}
	recorder = doJSON(t, server, http.MethodGet, "/api/readings", nil)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("list status = %d", recorder.Code)
	}
}

func TestProfileLifecycle(t *testing.T) {
	server := testServer(t)
	register(t, server, "diviner@example.com")

	recorder := doJSON(t, server, http.MethodGet, "/api/profile", nil)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("profile before edit status = %d", recorder.Code)
	}

	recorder = doJSON(t, server, http.MethodPut, "/api/profile", displayNameRequest{DisplayName: "Wanderer"})
	if recorder.Code != http.StatusOK {
		t.Fatalf("profile put status = %d, body = %s", recorder.Code, recorder.Body)
	}
	updated := decode[profileResponse](t, recorder)
	if updated.DisplayName != "Wanderer" {
		t.Fatalf("DisplayName = %q", updated.DisplayName)
	}

	recorder = doJSON(t, server, http.MethodGet, "/api/profile", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("profile get status = %d", recorder.Code)
	}
}

func TestAvatarUploadAndServe(t *testing.T) {
	server := testServer(t)
	register(t, server, "diviner@example.com")

	content := []byte("\x89PNG\r\n\x1a\nfake image bytes")
	request := httptest.NewRequest(http.MethodPost, "/api/profile/avatar?ext=.png", bytes.NewReader(content))
	recorder := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusOK {
		t.Fatalf("avatar upload status = %d, body = %s", recorder.Code, recorder.Body)
	}
	updated := decode[profileResponse](t, recorder)
	if updated.AvatarURL == "" {
		t.Fatal("avatar upload returned no URL")
	}

	recorder = doJSON(t, server, http.MethodGet, updated.AvatarURL, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("blob get status = %d for %s", recorder.Code, updated.AvatarURL)
	}
	if !bytes.Equal(recorder.Body.Bytes(), content) {
		t.Fatal("served blob differs from upload")
	}
}

func TestAvatarBadExtension(t *testing.T) {
	server := testServer(t)
	register(t, server, "diviner@example.com")

	request := httptest.NewRequest(http.MethodPost, "/api/profile/avatar?ext=.exe", bytes.NewReader([]byte("x")))
	recorder := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("avatar upload status = %d", recorder.Code)
	}
}

func TestAvatarTooLarge(t *testing.T) {
	server := testServer(t)
	register(t, server, "diviner@example.com")

	content := make([]byte, account.MaxAvatarBytes+2)
	request := httptest.NewRequest(http.MethodPost, "/api/profile/avatar?ext=.png", bytes.NewReader(content))
	recorder := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("avatar upload status = %d, want %d", recorder.Code, http.StatusRequestEntityTooLarge)
	}
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestAvatarBodyReadFailure(t *testing.T) {
	server := testServer(t)
	register(t, server, "diviner@example.com")

	request := httptest.NewRequest(http.MethodPost, "/api/profile/avatar?ext=.png", brokenReader{})
	recorder := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("avatar upload status = %d, want %d", recorder.Code, http.StatusBadRequest)
	}
}

func TestBlobMissing(t *testing.T) {
	server := testServer(t)

	recorder := doJSON(t, server, http.MethodGet, "/blobs/uploads/avatars/ghost.png", nil)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("blob get status = %d", recorder.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := testServer(t)

	recorder := doJSON(t, server, http.MethodGet, "/up", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("/up status = %d", recorder.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	server := testServer(t)

	paths := []string{"/api/register", "/api/signin", "/api/signout", "/api/session/restore", "/api/profile/avatar"}
	for _, path := range paths {
		recorder := doJSON(t, server, http.MethodGet, path, nil)
		if recorder.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s GET status = %d", path, recorder.Code)
		}
	}
	if got := doJSON(t, server, http.MethodDelete, "/api/readings", nil); got.Code != http.StatusMethodNotAllowed {
		t.Fatalf("/api/readings DELETE status = %d", got.Code)
	}
}

func TestHistoriesAreOwnerScoped(t *testing.T) {
	server := testServer(t)

	register(t, server, "first@example.com")
	recorder := doJSON(t, server, http.MethodPost, "/api/readings", submitRequest{Character: "安"})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("submit status = %d", recorder.Code)
	}
	if recorder := doJSON(t, server, http.MethodPost, "/api/signout", nil); recorder.Code != http.StatusNoContent {
		t.Fatalf("signout status = %d", recorder.Code)
	}

	register(t, server, "second@example.com")
	recorder = doJSON(t, server, http.MethodGet, "/api/readings", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("list status = %d", recorder.Code)
	}
	list := decode[readingListResponse](t, recorder)
	if len(list.Readings) != 0 {
		t.Fatalf("second owner sees %d readings, want 0", len(list.Readings))
	}
}

func TestServeStopsOnContextCancel(t *testing.T) {
	dir := t.TempDir()
	server, err := New(Config{
		HTTPAddr: "127.0.0.1:0",
		DBPath:   filepath.Join(dir, "cezi.db"),
		BlobDir:  filepath.Join(dir, "blobs"),
		Tokens: token.Config{
			Issuer: "cezi",
			Secret: []byte("test-secret"),
			TTL:    time.Hour,
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()

	waitForHealth(t, server.Addr())
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not stop after cancel")
	}
}

func waitForHealth(t *testing.T, addr string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		response, err := http.Get(fmt.Sprintf("http://%s/up", addr))
		if err == nil {
			_ = response.Body.Close()
			if response.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("server never became healthy")
}
