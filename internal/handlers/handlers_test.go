package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"geomark/internal/models"
	"geomark/internal/router"
	"geomark/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Setenv("JWT_SECRET_KEY", "handler-test-secret")
	os.Setenv("UPLOAD_DIR", os.TempDir())
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&models.User{}, &models.Comment{}, &models.Reply{}))

	s := store.New(gdb)
	r := gin.New()
	router.RegisterRoutes(r, s)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, s
}

type authResponse struct {
	Success      bool   `json:"success"`
	Msg          string `json:"msg"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, r io.Reader) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(r).Decode(&v))
	return v
}

func registerUser(t *testing.T, srv *httptest.Server, username, password string) authResponse {
	t.Helper()
	resp := postJSON(t, srv.URL+"/api/auth/register", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decode[authResponse](t, resp.Body)
	require.NotEmpty(t, out.AccessToken)
	return out
}

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func doRequest(t *testing.T, method, url, token string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func postComment(t *testing.T, srv *httptest.Server, token, text string, lat, lng string) map[string]any {
	t.Helper()
	body, ct := multipartBody(t, map[string]string{"text": text, "lat": lat, "lng": lng})
	resp := doRequest(t, http.MethodPost, srv.URL+"/api/comments", token, body, ct)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decode[map[string]any](t, resp.Body)
	require.Equal(t, true, out["success"])
	return out["comment"].(map[string]any)
}

func TestRegisterValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/auth/register", map[string]string{"username": "", "password": "secret123"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/auth/register", map[string]string{"username": "alice", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	registerUser(t, srv, "alice", "secret123")
	resp = postJSON(t, srv.URL+"/api/auth/register", map[string]string{"username": "alice", "password": "secret456"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLoginAndMe(t *testing.T) {
	srv, _ := newTestServer(t)
	registerUser(t, srv, "alice", "secret123")

	resp := postJSON(t, srv.URL+"/api/auth/login", map[string]string{"username": "alice", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/auth/login", map[string]string{"username": "nobody", "password": "secret123"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/auth/login", map[string]string{"username": "alice", "password": "secret123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decode[authResponse](t, resp.Body)
	require.NotEmpty(t, login.AccessToken)
	assert.NotEmpty(t, login.RefreshToken)

	me := doRequest(t, http.MethodGet, srv.URL+"/api/users/me", login.AccessToken, nil, "")
	require.Equal(t, http.StatusOK, me.StatusCode)
	out := decode[map[string]any](t, me.Body)
	user := out["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])

	unauth := doRequest(t, http.MethodGet, srv.URL+"/api/users/me", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, unauth.StatusCode)
}

func TestCreateCommentAnonymous(t *testing.T) {
	srv, _ := newTestServer(t)

	comment := postComment(t, srv, "", "hello from a guest", "31.23", "121.47")
	assert.Equal(t, "Guest", comment["name"])
	assert.Nil(t, comment["user_id"])
	assert.Nil(t, comment["img_url"])
	assert.Equal(t, 31.23, comment["lat"])
}

func TestCreateCommentAuthenticated(t *testing.T) {
	srv, _ := newTestServer(t)
	alice := registerUser(t, srv, "alice", "secret123")

	comment := postComment(t, srv, alice.AccessToken, "signed comment", "31.23", "121.47")
	assert.Equal(t, "alice", comment["name"])
	assert.EqualValues(t, alice.User.ID, comment["user_id"])
}

func TestCreateCommentValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	body, ct := multipartBody(t, map[string]string{"text": "no coordinates"})
	resp := doRequest(t, http.MethodPost, srv.URL+"/api/comments", "", body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, ct = multipartBody(t, map[string]string{"text": "bad floats", "lat": "north", "lng": "east"})
	resp = doRequest(t, http.MethodPost, srv.URL+"/api/comments", "", body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestImgURLNormalization(t *testing.T) {
	srv, s := newTestServer(t)

	ref := "abc123.png"
	_, err := s.CreateComment(context.Background(), "writer", "with image", 31.23, 121.47, nil, &ref)
	require.NoError(t, err)
	_, err = s.CreateComment(context.Background(), "writer", "without image", 31.23, 121.47, nil, nil)
	require.NoError(t, err)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/comments?lat=31.23&lng=121.47", "", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[map[string]any](t, resp.Body)
	comments := out["comments"].([]any)
	require.Len(t, comments, 2)

	withImage := comments[0].(map[string]any)
	assert.Equal(t, "/static/img/abc123.png", withImage["img_url"])

	withoutImage := comments[1].(map[string]any)
	value, present := withoutImage["img_url"]
	assert.True(t, present, "img_url must be present and null, not omitted")
	assert.Nil(t, value)
}

func TestListInBoundsValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/comments/all?sw_lat=30&sw_lng=120&ne_lat=32", "", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/comments/all?sw_lat=30&sw_lng=120&ne_lat=32&ne_lng=abc", "", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	postComment(t, srv, "", "inside the viewport", "31.0", "121.0")
	resp = doRequest(t, http.MethodGet, srv.URL+"/api/comments/all?sw_lat=30&sw_lng=120&ne_lat=32&ne_lng=122", "", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[map[string]any](t, resp.Body)
	assert.Len(t, out["comments"].([]any), 1)
}

func TestMarkersEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	postComment(t, srv, "", "old marker", "31.23", "121.47")
	postComment(t, srv, "", "new marker", "31.23", "121.47")
	postComment(t, srv, "", "other place", "39.90", "116.40")

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/comments/markers", "", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[map[string]any](t, resp.Body)
	comments := out["comments"].([]any)
	require.Len(t, comments, 2)

	texts := make([]string, 0, len(comments))
	for _, c := range comments {
		texts = append(texts, c.(map[string]any)["text"].(string))
	}
	assert.Contains(t, texts, "new marker")
	assert.NotContains(t, texts, "old marker")
}

func TestDeleteCommentOwnership(t *testing.T) {
	srv, _ := newTestServer(t)
	alice := registerUser(t, srv, "alice", "secret123")
	bob := registerUser(t, srv, "bob", "secret456")

	comment := postComment(t, srv, alice.AccessToken, "alice's comment", "31.23", "121.47")
	id := fmt.Sprintf("%v", comment["id"])

	// No token at all.
	resp := doRequest(t, http.MethodDelete, srv.URL+"/api/comments/"+id, "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Someone else's token: existence is confirmed, ownership is not.
	resp = doRequest(t, http.MethodDelete, srv.URL+"/api/comments/"+id, bob.AccessToken, nil, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Nonexistent comment.
	resp = doRequest(t, http.MethodDelete, srv.URL+"/api/comments/99999", bob.AccessToken, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// The owner succeeds and the comment becomes unreachable.
	resp = doRequest(t, http.MethodDelete, srv.URL+"/api/comments/"+id, alice.AccessToken, nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = doRequest(t, http.MethodGet, srv.URL+"/api/comments/"+id, "", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReplyLifecycle(t *testing.T) {
	srv, s := newTestServer(t)
	alice := registerUser(t, srv, "alice", "secret123")
	bob := registerUser(t, srv, "bob", "secret456")

	comment := postComment(t, srv, alice.AccessToken, "root comment", "31.23", "121.47")
	id := fmt.Sprintf("%v", comment["id"])

	// Replies require a token.
	body, ct := multipartBody(t, map[string]string{"comment_id": id, "text": "anonymous reply"})
	resp := doRequest(t, http.MethodPost, srv.URL+"/api/replies", "", body, ct)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Reply to a missing parent.
	body, ct = multipartBody(t, map[string]string{"comment_id": "99999", "text": "into the void"})
	resp = doRequest(t, http.MethodPost, srv.URL+"/api/replies", bob.AccessToken, body, ct)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// A valid reply shows up in the detail view.
	body, ct = multipartBody(t, map[string]string{"comment_id": id, "text": "bob's reply"})
	resp = doRequest(t, http.MethodPost, srv.URL+"/api/replies", bob.AccessToken, body, ct)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[map[string]any](t, resp.Body)
	reply := created["reply"].(map[string]any)
	assert.Equal(t, "bob", reply["name"])

	detail := doRequest(t, http.MethodGet, srv.URL+"/api/comments/"+id, "", nil, "")
	require.Equal(t, http.StatusOK, detail.StatusCode)
	out := decode[map[string]any](t, detail.Body)
	replies := out["replies"].([]any)
	require.Len(t, replies, 1)

	// Only the reply's owner can delete it.
	replyID := fmt.Sprintf("%v", reply["id"])
	resp = doRequest(t, http.MethodDelete, srv.URL+"/api/replies/"+replyID, alice.AccessToken, nil, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = doRequest(t, http.MethodDelete, srv.URL+"/api/replies/"+replyID, bob.AccessToken, nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Recreate a reply and verify comment deletion cascades into it.
	body, ct = multipartBody(t, map[string]string{"comment_id": id, "text": "doomed reply"})
	resp = doRequest(t, http.MethodPost, srv.URL+"/api/replies", bob.AccessToken, body, ct)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doRequest(t, http.MethodDelete, srv.URL+"/api/comments/"+id, alice.AccessToken, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	commentID := uint(comment["id"].(float64))
	left, err := s.GetRepliesByComment(context.Background(), commentID)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestAIRecommendStub(t *testing.T) {
	srv, _ := newTestServer(t)
	alice := registerUser(t, srv, "alice", "secret123")

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/ai/recommend", "", strings.NewReader(`{"location":"Shanghai"}`), "application/json")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doRequest(t, http.MethodPost, srv.URL+"/api/ai/recommend", alice.AccessToken, strings.NewReader(`{"location":""}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, http.MethodPost, srv.URL+"/api/ai/recommend", alice.AccessToken, strings.NewReader(`{"location":"Shanghai","interests":"history","budget":"100"}`), "application/json")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[map[string]any](t, resp.Body)
	assert.NotEmpty(t, out["recommendations"])
}
