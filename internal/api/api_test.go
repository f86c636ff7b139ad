// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gamevault/gamevault/internal/asset"
	"github.com/gamevault/gamevault/internal/auth"
	"github.com/gamevault/gamevault/internal/auth/authtest"
	"github.com/gamevault/gamevault/internal/catalog"
	"github.com/gamevault/gamevault/internal/catalog/catalogtest"
	"github.com/gamevault/gamevault/internal/logging"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type stubAssets struct {
	got    string
	result *asset.Asset
	err    error
}

func (s *stubAssets) Ingest(_ context.Context, imageData string) (*asset.Asset, error) {
	s.got = imageData
	return s.result, s.err
}

type fixture struct {
	router   http.Handler
	accounts *authtest.Store
	catalog  *catalog.Service
	store    *catalogtest.Store
	assets   *stubAssets
	clock    *testClock
	logs     *bytes.Buffer
}

type option func(*Deps)

func newFixture(t *testing.T, opts ...option) *fixture {
	t.Helper()
	accounts := authtest.NewStore()
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	hasher, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	registry, err := auth.NewRegistry(accounts, accounts.Transactor(), hasher,
		auth.NewTokenManager(time.Hour, auth.WithClock(clock.Now)))
	require.NoError(t, err)

	store := catalogtest.NewStore()
	svc := catalog.NewService(store, store)
	assets := &stubAssets{}
	logs := &bytes.Buffer{}

	deps := Deps{
		Accounts: registry,
		Catalog:  svc,
		Assets:   assets,
		Logger:   logging.Setup("gamevault", "test", "json", slog.LevelInfo, logs),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	return &fixture{
		router:   NewRouter(deps),
		accounts: accounts,
		catalog:  svc,
		store:    store,
		assets:   assets,
		clock:    clock,
		logs:     logs,
	}
}

func (f *fixture) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

type envelopeBody[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}
