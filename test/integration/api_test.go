package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/configme/internal/api"
	"github.com/eugenenazirov/configme/internal/loader"
	"github.com/eugenenazirov/configme/internal/storage"
)

var settingsFiles = map[string]string{
	"options.yaml": `
common:
  option: 33
  deep:
    something: 66
    testing: this is a value
    extra:
      foo: bar
test:
  option: x
  unique: true
  deep:
    something: 133
    extra: false
`,
	"array-options.yaml": "- one\n- two\n",
	"env_options.toml":   "[common]\nshared = true\n",
	"README.md":          "not a settings file\n",
}

func newRouter(t *testing.T, environment string) (http.Handler, *storage.Store) {
	t.Helper()

	dir := t.TempDir()
	for name, content := range settingsFiles {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	logger := zaptest.NewLogger(t)
	store := storage.New(environment, storage.WithLoader(loader.YAML()), storage.WithLogger(logger))
	if err := store.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir returned error: %v", err)
	}

	handler := api.NewHandler(store)
	return api.NewRouter(handler, logger), store
}

func performRequest(t *testing.T, handler http.Handler, method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeValue(t *testing.T, rec *httptest.ResponseRecorder) any {
	t.Helper()

	var response struct {
		Value any `json:"value"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return response.Value
}

func TestIntegrationFlow(t *testing.T) {
	handler, store := newRouter(t, "test")
	jsonHeaders := map[string]string{"Content-Type": "application/json"}

	if keys := store.Keys(); len(keys) != 2 || keys[0] != "arrayOptions" || keys[1] != "options" {
		t.Fatalf("expected only YAML files to be loaded, got %v", keys)
	}

	rec := performRequest(t, handler, http.MethodGet, "/api/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", rec.Code)
	}

	rec = performRequest(t, handler, http.MethodGet, "/api/settings/options", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from options, got %d", rec.Code)
	}
	options := decodeValue(t, rec).(map[string]any)
	if options["option"] != "x" || options["unique"] != true {
		t.Fatalf("unexpected options: %v", options)
	}
	deep := options["deep"].(map[string]any)
	if deep["something"] != float64(133) || deep["extra"] != false || deep["testing"] != "this is a value" {
		t.Fatalf("unexpected deep options: %v", deep)
	}

	payload, _ := json.Marshal(map[string]any{"values": []any{"three"}})
	rec = performRequest(t, handler, http.MethodPost, "/api/settings/arrayOptions/items", payload, jsonHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from push, got %d", rec.Code)
	}
	if values := decodeValue(t, rec).([]any); len(values) != 3 || values[2] != "three" {
		t.Fatalf("unexpected array options: %v", values)
	}

	payload, _ = json.Marshal(map[string]any{"value": "overridden"})
	rec = performRequest(t, handler, http.MethodPut, "/api/settings/options", payload, jsonHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from set, got %d", rec.Code)
	}
	if got, _ := store.Get("options"); got != "overridden" {
		t.Fatalf("expected options to be replaced, got %v", got)
	}
}

func TestIntegrationOtherEnvironment(t *testing.T) {
	handler, _ := newRouter(t, "other-env")

	rec := performRequest(t, handler, http.MethodGet, "/api/settings/options", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from options, got %d", rec.Code)
	}

	options := decodeValue(t, rec).(map[string]any)
	if options["option"] != float64(33) {
		t.Fatalf("expected common option, got %v", options["option"])
	}
	if _, ok := options["unique"]; ok {
		t.Fatalf("expected unique to be absent")
	}
}

func TestIntegrationMissingSetting(t *testing.T) {
	handler, _ := newRouter(t, "test")

	rec := performRequest(t, handler, http.MethodGet, "/api/settings/envOptions", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a file in another format, got %d", rec.Code)
	}
}
