// SPDX-License-Identifier: MIT
package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ManuGH/vidfetch/internal/config"
	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) config.AppConfig {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Version = "test-1.0.0"
	cfg.DataDir = dir
	cfg.Auth.JWTSecret = "bootstrap-test-secret"
	cfg.Auth.DBPath = filepath.Join(dir, "users.db")
	cfg.Extractor.Bin = "/bin/sh"
	cfg.Extractor.CookiesFile = filepath.Join(dir, "cookies.txt")
	return cfg
}

func bootstrap(t *testing.T, cfg config.AppConfig, loader *config.Loader) (*Runtime, *config.Holder) {
	t.Helper()
	if loader == nil {
		loader = config.NewLoader("", cfg.Version)
	}
	holder := config.NewHolder(cfg, loader)

	rt, err := Bootstrap(context.Background(), holder)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(context.Background()) })
	return rt, holder
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestBootstrap_WiresRoutes(t *testing.T) {
	rt, _ := bootstrap(t, testConfig(t), nil)
	require.NotNil(t, rt.Handler)
	require.NotNil(t, rt.MetricsHandler)

	rec := serve(rt.Handler, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(rt.Handler, http.MethodGet, "/readyz?verbose=true", "")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	creds := `{"email":"boot@example.com","password":"pw"}`
	rec = serve(rt.Handler, http.MethodPost, "/api/v1/user/signup", creds)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(rt.Handler, http.MethodPost, "/api/v1/user/signin", creds)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Token)

	rec = serve(rt.Handler, http.MethodPost, "/api/v1/video/info", `{"url":"https://example.com/v"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBootstrap_MetricsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Enabled = false

	rt, _ := bootstrap(t, cfg, nil)
	assert.Nil(t, rt.MetricsHandler)
}

func TestBootstrap_RedisRevocation(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig(t)
	cfg.Redis.Addr = mr.Addr()
	rt, _ := bootstrap(t, cfg, nil)

	creds := `{"email":"redis@example.com","password":"pw"}`
	require.Equal(t, http.StatusOK, serve(rt.Handler, http.MethodPost, "/api/v1/user/signup", creds).Code)
	rec := serve(rt.Handler, http.MethodPost, "/api/v1/user/signin", creds)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/user/signout", nil)
	req.Header.Set("Authorization", "Bearer "+body.Token)
	out := httptest.NewRecorder()
	rt.Handler.ServeHTTP(out, req)
	require.Equal(t, http.StatusOK, out.Code, out.Body.String())

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "vidfetch:revoked:"), keys[0])
}

func TestBootstrap_RedisUnreachable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Redis.Addr = reserveListenAddr(t)

	holder := config.NewHolder(cfg, config.NewLoader("", cfg.Version))
	rt, err := Bootstrap(context.Background(), holder)
	require.Error(t, err)
	assert.Nil(t, rt)
	assert.Contains(t, err.Error(), "revocation cache")
}

func TestBootstrap_ReloadAppliesLogLevel(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	cfg := testConfig(t)
	path := filepath.Join(cfg.DataDir, "config.yaml")
	require.NoError(t, config.WriteFile(path, cfg))

	_, holder := bootstrap(t, cfg, config.NewLoader(path, cfg.Version))

	cfg.LogLevel = "debug"
	require.NoError(t, config.WriteFile(path, cfg))
	require.NoError(t, holder.Reload(context.Background()))

	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}
