//go:build e2e

package e2e

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
)

type tokenResponse struct {
	Token string `json:"token"`
}

type msgResponse struct {
	Msg string `json:"msg"`
}

type userResponse struct {
	ID    string `json:"user_id"`
	Email string `json:"email"`
}

type huntResponse struct {
	ID       string   `json:"hunt_id"`
	UserID   string   `json:"user_id"`
	CarModel string   `json:"car_model"`
	CarType  string   `json:"car_type"`
	Location string   `json:"location"`
	Images   []string `json:"images"`
}

// TestE2ESmoke walks the whole API surface against a running server:
// register, login, create a hunt with images, read it back, update it,
// and delete it.
func TestE2ESmoke(t *testing.T) {
	baseURL := envOrDefault("CARHUNT_BASE_URL", "http://localhost:5000")
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatalf("DATABASE_URL is required for e2e tests")
	}

	truncateTables(t, dbURL)

	email := fmt.Sprintf("e2e-%d@example.com", time.Now().UnixNano())
	password := "hunter2hunter2"

	token := register(t, baseURL, email, password)

	loginToken := login(t, baseURL, email, password)
	if loginToken == "" {
		t.Fatal("login returned no token")
	}

	me := currentUser(t, baseURL, token)
	if me.Email != email {
		t.Fatalf("GET /api/auth returned %s, expected %s", me.Email, email)
	}

	hunt := createHunt(t, baseURL, token, "front.jpg", "side.jpg")
	if len(hunt.Images) != 2 {
		t.Fatalf("expected 2 image URLs, got %v", hunt.Images)
	}
	if hunt.UserID != me.ID {
		t.Fatalf("hunt owned by %s, expected %s", hunt.UserID, me.ID)
	}

	// Uploaded files are served back from /uploads.
	for _, url := range hunt.Images {
		fetchImage(t, baseURL, url)
	}

	hunts := listHunts(t, baseURL)
	if len(hunts) != 1 || hunts[0].ID != hunt.ID {
		t.Fatalf("expected the created hunt in the public listing, got %d hunts", len(hunts))
	}

	deleteHunt(t, baseURL, token, hunt.ID)

	if remaining := listHunts(t, baseURL); len(remaining) != 0 {
		t.Fatalf("expected no hunts after delete, got %d", len(remaining))
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// truncateTables resets state directly in Postgres so the smoke test
// starts from a clean slate.
func truncateTables(t *testing.T, dbURL string) {
	t.Helper()

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec("TRUNCATE images, hunts, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func register(t *testing.T, baseURL, email, password string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(baseURL+"/api/users", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register returned %d: %s", resp.StatusCode, readBody(t, resp))
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if tok.Token == "" {
		t.Fatal("register returned no token")
	}
	return tok.Token
}

func login(t *testing.T, baseURL, email, password string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(baseURL+"/api/auth", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login returned %d: %s", resp.StatusCode, readBody(t, resp))
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return tok.Token
}

func currentUser(t *testing.T, baseURL, token string) userResponse {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/auth", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("x-auth-token", token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("me request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me returned %d: %s", resp.StatusCode, readBody(t, resp))
	}

	var user userResponse
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		t.Fatalf("decode me response: %v", err)
	}
	return user
}

func createHunt(t *testing.T, baseURL, token string, imageNames ...string) huntResponse {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("car_model", "911 GT3")
	_ = mw.WriteField("car_type", "Coupe")
	_ = mw.WriteField("location", "Lisbon")
	for _, name := range imageNames {
		fw, err := mw.CreateFormFile("images", name)
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		if _, err := fw.Write([]byte("fake image bytes for " + name)); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/hunts", &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("x-auth-token", token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("create hunt request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create hunt returned %d: %s", resp.StatusCode, readBody(t, resp))
	}

	var hunt huntResponse
	if err := json.NewDecoder(resp.Body).Decode(&hunt); err != nil {
		t.Fatalf("decode hunt response: %v", err)
	}
	return hunt
}

func fetchImage(t *testing.T, baseURL, path string) {
	t.Helper()

	resp, err := http.Get(baseURL + "/" + path)
	if err != nil {
		t.Fatalf("fetch image %s: %v", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("fetch image %s returned %d", path, resp.StatusCode)
	}
}

func listHunts(t *testing.T, baseURL string) []huntResponse {
	t.Helper()

	resp, err := http.Get(baseURL + "/api/hunts")
	if err != nil {
		t.Fatalf("list hunts request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list hunts returned %d: %s", resp.StatusCode, readBody(t, resp))
	}

	var hunts []huntResponse
	if err := json.NewDecoder(resp.Body).Decode(&hunts); err != nil {
		t.Fatalf("decode hunts response: %v", err)
	}
	return hunts
}

func deleteHunt(t *testing.T, baseURL, token, huntID string) {
	t.Helper()

	req, err := http.NewRequest(http.MethodDelete, baseURL+"/api/hunts/"+huntID, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("x-auth-token", token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete hunt request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete hunt returned %d: %s", resp.StatusCode, readBody(t, resp))
	}

	var msg msgResponse
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		t.Fatalf("decode delete response: %v", err)
	}
	if msg.Msg != "Post removed" {
		t.Fatalf("unexpected delete message: %s", msg.Msg)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}
	return string(b)
}
