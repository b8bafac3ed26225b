package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/recipe-api/internal/config"
)

// A minimal PNG header; enough for content sniffing to report image/png.
const pngBytes = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01"

// =========================================================================
// HELPERS
// =========================================================================

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Path = ":memory:"
	cfg.Server.MediaRoot = t.TempDir()
	cfg.Auth.JWTSecret = "test-secret-at-least-16-chars!!"
	cfg.Auth.BcryptCost = 4
	return &cfg
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := New(testConfig(t), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	return srv
}

// do sends a JSON request (body may be nil) with an optional token.
func do(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

// registerUser creates an account through the API and returns its token.
func registerUser(t *testing.T, srv *Server, email string) string {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/user/create/", "", map[string]string{
		"email": email, "password": "testpass123", "name": "Test Name",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/user/token/", "", map[string]string{
		"email": email, "password": "testpass123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[map[string]string](t, rec)["token"]
}

func createLabel(t *testing.T, srv *Server, token, kind, name string) int64 {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/recipe/"+kind+"/", token, map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return int64(decode[map[string]any](t, rec)["id"].(float64))
}

func createRecipe(t *testing.T, srv *Server, token string, fields map[string]any) int64 {
	t.Helper()
	body := map[string]any{"title": "Sample recipe", "time_minutes": 10, "price": "5.00"}
	for k, v := range fields {
		body[k] = v
	}
	rec := do(t, srv, http.MethodPost, "/api/recipe/recipes/", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return int64(decode[map[string]any](t, rec)["id"].(float64))
}

func uploadImage(t *testing.T, srv *Server, token string, recipeID int64, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/recipe/recipes/%d/upload-image/", recipeID), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Token "+token)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

// =========================================================================
// AUTH
// =========================================================================

func TestProtectedRoutesRequireAuth(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{
		"/api/recipe/recipes/",
		"/api/recipe/recipes/1/",
		"/api/recipe/tags/",
		"/api/recipe/ingredients/",
		"/api/user/me/",
	} {
		rec := do(t, srv, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, "unauthorized", decode[map[string]string](t, rec)["error"], path)
	}

	rec := do(t, srv, http.MethodGet, "/api/recipe/recipes/", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateUser(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/user/create/", "", map[string]string{
		"email": "test@EXAMPLE.com", "password": "testpass123", "name": "Test Name",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"email": "test@example.com", "name": "Test Name"}`, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/user/create/", "", map[string]string{
		"email": "test@example.com", "password": "testpass123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/user/create/", "", map[string]string{
		"email": "short@example.com", "password": "pw",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "password", decode[map[string]string](t, rec)["field"])
}

func TestToken(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "test@example.com")
	assert.NotEmpty(t, token)

	rec := do(t, srv, http.MethodPost, "/api/user/token/", "", map[string]string{
		"email": "test@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unable to authenticate with provided credentials", decode[map[string]string](t, rec)["message"])
	assert.NotContains(t, rec.Body.String(), "token\":")

	rec = do(t, srv, http.MethodPost, "/api/user/token/", "", map[string]string{"email": "test@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMe(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "me@example.com")

	rec := do(t, srv, http.MethodGet, "/api/user/me/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"email": "me@example.com", "name": "Test Name"}`, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/user/me/", token, map[string]string{})
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(t, srv, http.MethodPatch, "/api/user/me/", token, map[string]string{
		"name": "Updated", "password": "newpassword123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"email": "me@example.com", "name": "Updated"}`, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/user/token/", "", map[string]string{
		"email": "me@example.com", "password": "newpassword123",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenCookieAccepted(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "cookie@example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

// =========================================================================
// RECIPES
// =========================================================================

func TestListRecipes_OwnNewestFirst(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "user@example.com")
	other := registerUser(t, srv, "other@example.com")

	tagID := createLabel(t, srv, token, "tags", "Vegan")
	first := createRecipe(t, srv, token, map[string]any{"tags": []int64{tagID}, "link": "https://example.com"})
	createRecipe(t, srv, other, map[string]any{"title": "Not mine"})
	second := createRecipe(t, srv, token, map[string]any{"title": "Second", "price": 7.5})

	rec := do(t, srv, http.MethodGet, "/api/recipe/recipes/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.JSONEq(t, fmt.Sprintf(`[
		{"id": %d, "title": "Second", "ingredients": [], "tags": [], "time_minutes": 10,
		 "price": "7.50", "link": "", "image": null},
		{"id": %d, "title": "Sample recipe", "ingredients": [], "tags": [%d], "time_minutes": 10,
		 "price": "5.00", "link": "https://example.com", "image": null}
	]`, second, first, tagID), rec.Body.String())
}

func TestListRecipes_Filters(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "user@example.com")

	vegan := createLabel(t, srv, token, "tags", "Vegan")
	feta := createLabel(t, srv, token, "ingredients", "Feta")
	curry := createRecipe(t, srv, token, map[string]any{"title": "Curry", "tags": []int64{vegan}})
	cheese := createRecipe(t, srv, token, map[string]any{"title": "Cheese", "ingredients": []int64{feta}})
	createRecipe(t, srv, token, map[string]any{"title": "Plain"})

	ids := func(path string) []int64 {
		rec := do(t, srv, http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var out []int64
		for _, r := range decode[[]map[string]any](t, rec) {
			out = append(out, int64(r["id"].(float64)))
		}
		return out
	}

	assert.Equal(t, []int64{curry}, ids(fmt.Sprintf("/api/recipe/recipes/?tags=%d", vegan)))
	assert.Equal(t, []int64{cheese}, ids(fmt.Sprintf("/api/recipe/recipes/?ingredients=%d", feta)))
	assert.Equal(t, []int64{curry}, ids(fmt.Sprintf("/api/recipe/recipes/?tags=%d,999", vegan)))
	assert.Empty(t, ids(fmt.Sprintf("/api/recipe/recipes/?tags=%d&ingredients=%d", vegan, feta)))
	assert.Len(t, ids("/api/recipe/recipes"), 3)

	rec := do(t, srv, http.MethodGet, "/api/recipe/recipes/?tags=abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecipeDetail(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "user@example.com")

	dinner := createLabel(t, srv, token, "tags", "Dinner")
	quick := createLabel(t, srv, token, "tags", "Quick")
	steak := createLabel(t, srv, token, "ingredients", "Steak")
	id := createRecipe(t, srv, token, map[string]any{
		"title":       "Steak",
		"tags":        []int64{quick, dinner},
		"ingredients": []int64{steak},
	})

	rec := do(t, srv, http.MethodGet, fmt.Sprintf("/api/recipe/recipes/%d/", id), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.JSONEq(t, fmt.Sprintf(`{
		"id": %d, "title": "Steak", "time_minutes": 10, "price": "5.00", "link": "", "image": null,
		"tags": [{"id": %d, "name": "Dinner"}, {"id": %d, "name": "Quick"}],
		"ingredients": [{"id": %d, "name": "Steak"}]
	}`, id, dinner, quick, steak), rec.Body.String())
}

func TestRecipeDetail_OtherUserIsNotFound(t *testing.T) {
	srv := newTestServer(t)
	owner := registerUser(t, srv, "owner@example.com")
	other := registerUser(t, srv, "other@example.com")
	id := createRecipe(t, srv, owner, nil)

	path := fmt.Sprintf("/api/recipe/recipes/%d/", id)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, path, other, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodPatch, path, other, map[string]any{"title": "x"}).Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodDelete, path, other, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/recipe/recipes/999999/", owner, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/recipe/recipes/abc/", owner, nil).Code)

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, path, owner, nil).Code)
}

func TestCreateRecipe_ForeignTagRejected(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "user@example.com")
	other := registerUser(t, srv, "other@example.com")
	theirs := createLabel(t, srv, other, "tags", "Theirs")

	rec := do(t, srv, http.MethodPost, "/api/recipe/recipes/", token, map[string]any{
		"title": "Sneaky", "time_minutes": 1, "price": "1.00", "tags": []int64{theirs},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "tags", decode[map[string]string](t, rec)["field"])

	rec = do(t, srv, http.MethodPost, "/api/recipe/recipes/", token, map[string]any{"title": "No price"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/recipe/recipes/", token, "not an object")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAndDeleteRecipe(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "user@example.com")
	tag := createLabel(t, srv, token, "tags", "Curry")
	id := createRecipe(t, srv, token, map[string]any{"tags": []int64{tag}, "link": "https://example.com"})
	path := fmt.Sprintf("/api/recipe/recipes/%d/", id)

	rec := do(t, srv, http.MethodPatch, path, token, map[string]any{"title": "Chicken tikka"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	patched := decode[map[string]any](t, rec)
	assert.Equal(t, "Chicken tikka", patched["title"])
	assert.Len(t, patched["tags"], 1)
	assert.Equal(t, "https://example.com", patched["link"])

	rec = do(t, srv, http.MethodPut, path, token, map[string]any{
		"title": "Spaghetti carbonara", "time_minutes": 25, "price": "5.00",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[map[string]any](t, rec)
	assert.Equal(t, "Spaghetti carbonara", updated["title"])
	assert.EqualValues(t, 25, updated["time_minutes"])
	assert.Empty(t, updated["tags"])
	assert.Equal(t, "", updated["link"])

	rec = do(t, srv, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, path, token, nil).Code)
}

// =========================================================================
// TAGS & INGREDIENTS
// =========================================================================

func TestTags_OwnOrderedByNameDesc(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "user@example.com")
	other := registerUser(t, srv, "other@example.com")

	dessert := createLabel(t, srv, token, "tags", "Dessert")
	vegan := createLabel(t, srv, token, "tags", "Vegan")
	createLabel(t, srv, other, "tags", "Fruity")

	rec := do(t, srv, http.MethodGet, "/api/recipe/tags/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, fmt.Sprintf(`[{"id": %d, "name": "Vegan"}, {"id": %d, "name": "Dessert"}]`, vegan, dessert),
		rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/recipe/tags/", token, map[string]string{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngredients_AssignedOnly(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "user@example.com")

	apples := createLabel(t, srv, token, "ingredients", "Apples")
	createLabel(t, srv, token, "ingredients", "Turkey")
	createRecipe(t, srv, token, map[string]any{"ingredients": []int64{apples}})
	createRecipe(t, srv, token, map[string]any{"ingredients": []int64{apples}})

	rec := do(t, srv, http.MethodGet, "/api/recipe/ingredients/?assigned_only=1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, fmt.Sprintf(`[{"id": %d, "name": "Apples"}]`, apples), rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/recipe/ingredients/?assigned_only=0", token, nil)
	assert.Len(t, decode[[]map[string]any](t, rec), 2)

	rec = do(t, srv, http.MethodGet, "/api/recipe/ingredients/?assigned_only=yes", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =========================================================================
// IMAGES
// =========================================================================

func TestUploadImage(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "user@example.com")
	id := createRecipe(t, srv, token, nil)

	rec := uploadImage(t, srv, token, id, "photo.png", pngBytes)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[map[string]any](t, rec)
	assert.EqualValues(t, id, body["id"])
	image, _ := body["image"].(string)
	require.True(t, strings.HasPrefix(image, "/media/uploads/recipe/"), image)
	assert.True(t, strings.HasSuffix(image, ".png"), image)

	stored := filepath.Join(srv.config.Server.MediaRoot, filepath.FromSlash(strings.TrimPrefix(image, "/media/")))
	assert.FileExists(t, stored)

	rec = do(t, srv, http.MethodGet, image, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pngBytes, rec.Body.String())

	rec = do(t, srv, http.MethodGet, fmt.Sprintf("/api/recipe/recipes/%d/", id), token, nil)
	assert.Equal(t, image, decode[map[string]any](t, rec)["image"])

	// A second upload replaces and removes the first file.
	rec = uploadImage(t, srv, token, id, "again.png", pngBytes)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NoFileExists(t, stored)
}

func TestUploadImage_Rejections(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "user@example.com")
	other := registerUser(t, srv, "other@example.com")
	id := createRecipe(t, srv, token, nil)

	rec := uploadImage(t, srv, token, id, "notimage.jpg", "notimage")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, fmt.Sprintf("/api/recipe/recipes/%d/upload-image/", id), token,
		map[string]string{"image": "notimage"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = uploadImage(t, srv, other, id, "photo.png", pngBytes)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadImage_HTMLDisguisedAsImage(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "user@example.com")
	id := createRecipe(t, srv, token, nil)
	payload := pngBytes + "<html><script>alert(document.domain)</script></html>"

	for _, name := range []string{"evil.html", "evil.svg", "evil.png.htm"} {
		rec := uploadImage(t, srv, token, id, name, payload)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		assert.Equal(t, "image", decode[map[string]string](t, rec)["field"], name)
	}

	rec := do(t, srv, http.MethodGet, fmt.Sprintf("/api/recipe/recipes/%d/", id), token, nil)
	assert.Nil(t, decode[map[string]any](t, rec)["image"])

	entries, err := filepath.Glob(filepath.Join(srv.config.Server.MediaRoot, "uploads", "recipe", "*"))
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected uploads must not reach the media root")
}

func TestMediaServedAsImage(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "user@example.com")
	id := createRecipe(t, srv, token, nil)

	// Same payload, but with an accepted name (and one with no extension at all).
	payload := pngBytes + "<html><script>alert(document.domain)</script></html>"
	for _, name := range []string{"photo.PNG", "photo"} {
		rec := uploadImage(t, srv, token, id, name, payload)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		image := decode[map[string]any](t, rec)["image"].(string)
		assert.True(t, strings.HasSuffix(image, ".png"), image)

		rec = do(t, srv, http.MethodGet, image, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	}
}

func TestUploadImage_SizeLimit(t *testing.T) {
	const limit = 10 << 20

	srv := newTestServer(t)
	token := registerUser(t, srv, "user@example.com")
	id := createRecipe(t, srv, token, nil)

	atLimit := pngBytes + strings.Repeat("\x00", limit-len(pngBytes))
	rec := uploadImage(t, srv, token, id, "big.png", atLimit)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = uploadImage(t, srv, token, id, "huge.png", atLimit+"\x00")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
	assert.Equal(t, "too_large", decode[map[string]string](t, rec)["error"])

	rec = uploadImage(t, srv, token, id, "huger.png", atLimit+strings.Repeat("\x00", 2<<20))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestMediaHidesDirectories(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "user@example.com")
	id := createRecipe(t, srv, token, nil)
	require.Equal(t, http.StatusOK, uploadImage(t, srv, token, id, "photo.png", pngBytes).Code)

	rec := do(t, srv, http.MethodGet, "/media/uploads/recipe/", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =========================================================================
// MISC
// =========================================================================

func TestMalformedJSONIsLogged(t *testing.T) {
	var logs bytes.Buffer
	srv, err := New(testConfig(t), slog.New(slog.NewTextHandler(&logs, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	token := registerUser(t, srv, "user@example.com")

	req := httptest.NewRequest(http.MethodPost, "/api/recipe/recipes", strings.NewReader(`{"title":`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+token)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, logs.String(), "invalid recipe JSON")
}

func TestOversizedJSONBody(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "user@example.com")

	body := `{"title":"` + strings.Repeat("a", 2<<20) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/recipe/recipes", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+token)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestTrailingSlashOptional(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "user@example.com")

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/recipe/recipes", token, nil).Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/recipe/recipes/", token, nil).Code)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestGitHubRoutesOnlyWhenConfigured(t *testing.T) {
	srv := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/auth/github/login", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/auth/logout", "", nil).Code)

	cfg := testConfig(t)
	cfg.GitHub.ClientID = "client-id"
	cfg.GitHub.ClientSecret = "client-secret"
	cfg.GitHub.CallbackURL = "http://localhost:8080/auth/github/callback"
	withGitHub, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { withGitHub.Close() })

	rec := do(t, withGitHub, http.MethodGet, "/auth/github/login", "", nil)
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "github.com/login/oauth/authorize")

	rec = do(t, withGitHub, http.MethodGet, "/auth/github/callback?state=x&code=y", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "callback without the state cookie must fail")
}

func TestDatabaseLock(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Path = filepath.Join(t.TempDir(), "recipes.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	first, err := New(cfg, logger)
	require.NoError(t, err)

	_, err = New(cfg, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "in use")

	require.NoError(t, first.Close())

	again, err := New(cfg, logger)
	require.NoError(t, err)
	require.NoError(t, again.Close())
}
