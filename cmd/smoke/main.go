package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
)

// End-to-end smoke against a running elogia-api: create a collaborator,
// send an elogio, redeem a catalog item and verify the balance math.
func main() {
	base := os.Getenv("ELOGIA_API_ADDR")
	if base == "" {
		base = "http://localhost:8080"
	}
	adminEmail := os.Getenv("ELOGIA_SMOKE_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@demo.elogia.app"
	}
	adminPassword := os.Getenv("ELOGIA_SMOKE_PASSWORD")
	if adminPassword == "" {
		adminPassword = "password"
	}

	c := &client{base: base, http: &http.Client{Timeout: 10 * time.Second}}

	adminToken := c.login(adminEmail, adminPassword)
	suffix := rand.New(rand.NewSource(time.Now().UnixNano())).Int63()

	var user struct {
		ID int64 `json:"id"`
	}
	c.do(adminToken, http.MethodPost, "/v1/users", map[string]any{
		"email":    fmt.Sprintf("smoke-%d@demo.elogia.app", suffix),
		"name":     "Smoke Collaborator",
		"role":     "collaborator",
		"password": "smoke-pass-1",
	}, http.StatusCreated, &user)

	var category struct {
		ID     int64 `json:"id"`
		Points int64 `json:"points"`
	}
	c.do(adminToken, http.MethodPost, "/v1/categories", map[string]any{
		"name":   fmt.Sprintf("Teamwork %d", suffix),
		"points": 100,
	}, http.StatusCreated, &category)

	var item struct {
		ID    int64 `json:"id"`
		Price int64 `json:"price"`
	}
	c.do(adminToken, http.MethodPost, "/v1/items", map[string]any{
		"name":  fmt.Sprintf("Coffee Mug %d", suffix),
		"price": 60,
		"stock": 1,
	}, http.StatusCreated, &item)

	c.do(adminToken, http.MethodPost, "/v1/elogios", map[string]any{
		"to_user_id":  user.ID,
		"category_id": category.ID,
		"message":     "great work on the smoke run",
	}, http.StatusCreated, nil)

	userToken := c.login(fmt.Sprintf("smoke-%d@demo.elogia.app", suffix), "smoke-pass-1")

	var balance struct {
		Balance int64 `json:"balance"`
	}
	c.do(userToken, http.MethodGet, "/v1/store/balance", nil, http.StatusOK, &balance)
	if balance.Balance != category.Points {
		log.Fatalf("expected balance %d after elogio, got %d", category.Points, balance.Balance)
	}

	idem := uuid.NewString()
	var redemption struct {
		ID int64 `json:"id"`
	}
	c.do(userToken, http.MethodPost, "/v1/store/redeem", map[string]any{
		"item_id":         item.ID,
		"idempotency_key": idem,
	}, http.StatusCreated, &redemption)

	// Retrying with the same key must replay, not charge again.
	var replay struct {
		ID int64 `json:"id"`
	}
	c.do(userToken, http.MethodPost, "/v1/store/redeem", map[string]any{
		"item_id":         item.ID,
		"idempotency_key": idem,
	}, http.StatusCreated, &replay)
	if replay.ID != redemption.ID {
		log.Fatalf("expected idempotent replay of transaction %d, got %d", redemption.ID, replay.ID)
	}

	c.do(userToken, http.MethodGet, "/v1/store/balance", nil, http.StatusOK, &balance)
	if want := category.Points - item.Price; balance.Balance != want {
		log.Fatalf("expected balance %d after redemption, got %d", want, balance.Balance)
	}

	fmt.Printf("✅ elogia smoke test passed: user=%d balance=%d\n", user.ID, balance.Balance)
}

type client struct {
	base string
	http *http.Client
}

func (c *client) login(email, password string) string {
	var resp struct {
		Token string `json:"token"`
	}
	c.do("", http.MethodPost, "/v1/auth/login", map[string]any{
		"email":    email,
		"password": password,
	}, http.StatusOK, &resp)
	return resp.Token
}

func (c *client) do(token, method, path string, body any, wantStatus int, out any) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			log.Fatalf("marshal %s %s: %v", method, path, err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		log.Fatalf("request %s %s: %v", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		var msg map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&msg)
		log.Fatalf("%s %s: expected %d, got %d (%v)", method, path, wantStatus, resp.StatusCode, msg)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			log.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
}
