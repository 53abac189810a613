package images

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"

	"github.com/File-Sharing-BondBridg/Image-Service/internal/apperrors"
	"github.com/File-Sharing-BondBridg/Image-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Image-Service/internal/services"
	"github.com/File-Sharing-BondBridg/Image-Service/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.GET("/", h.Root)
	r.GET("/api/health", h.Health)
	r.GET("/api/images", h.ListImages)
	r.POST("/api/upload", h.UploadImage)
	r.GET("/api/download/:id", h.DownloadImage)
	r.GET("/api/thumbnail/:id", h.GetThumbnail)
	r.DELETE("/api/images/:id", h.DeleteImage)
	return r
}

func newLocalHandler(t *testing.T, opts Options) (*gin.Engine, *services.Coordinator) {
	t.Helper()
	root := t.TempDir()
	store := storage.NewFileStore(filepath.Join(root, "data"), zerolog.Nop())
	disk, err := services.NewDiskBackend(filepath.Join(root, "uploads"), zerolog.Nop())
	require.NoError(t, err)
	coord := services.NewCoordinator(store, disk, nil, zerolog.Nop())
	return newRouter(NewHandler(coord, opts, zerolog.Nop())), coord
}

func multipartBody(t *testing.T, field, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func upload(t *testing.T, r *gin.Engine, filename, contentType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, "file", filename, contentType, content)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func do(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestUploadDownloadDelete(t *testing.T) {
	r, _ := newLocalHandler(t, Options{})
	content := []byte("0123456789")

	w := upload(t, r, "x.png", "image/png", content)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rec models.ImageRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, models.BackendLocal, rec.Backend)
	assert.Equal(t, "x.png", rec.Name)
	assert.Equal(t, "image/png", rec.MimeType)
	require.NotNil(t, rec.Size)
	assert.EqualValues(t, 10, *rec.Size)
	assert.NotEmpty(t, rec.LocalPath)

	w = do(r, http.MethodGet, "/api/download/"+rec.ID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, content, w.Body.Bytes())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=x.png`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "10", w.Header().Get("Content-Length"))

	w = do(r, http.MethodGet, "/api/images")
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.ImageRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, rec.ID, list[0].ID)

	w = do(r, http.MethodDelete, "/api/images/"+rec.ID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	w = do(r, http.MethodDelete, "/api/images/"+rec.ID)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"not found"}`, w.Body.String())

	w = do(r, http.MethodGet, "/api/download/"+rec.ID)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListEmptyIsArray(t *testing.T) {
	r, _ := newLocalHandler(t, Options{})
	w := do(r, http.MethodGet, "/api/images")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestUploadWithoutFile(t *testing.T) {
	r, _ := newLocalHandler(t, Options{})

	body, ct := multipartBody(t, "other", "x.png", "image/png", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"no file"}`, w.Body.String())

	w = do(r, http.MethodPost, "/api/upload")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadTooLarge(t *testing.T) {
	r, coord := newLocalHandler(t, Options{MaxUploadBytes: 8})

	w := upload(t, r, "big.png", "image/png", bytes.Repeat([]byte("a"), 9))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "file too large")

	records, err := coord.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestHideLocalPaths(t *testing.T) {
	r, _ := newLocalHandler(t, Options{HideLocalPaths: true})

	w := upload(t, r, "x.png", "image/png", []byte("x"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "localPath")

	w = do(r, http.MethodGet, "/api/images")
	assert.NotContains(t, w.Body.String(), "localPath")
}

func TestThumbnailLocalInline(t *testing.T) {
	r, _ := newLocalHandler(t, Options{})
	w := upload(t, r, "x.png", "image/png", []byte("pixels"))
	var rec models.ImageRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))

	w = do(r, http.MethodGet, "/api/thumbnail/"+rec.ID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pixels", w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Empty(t, w.Header().Get("Content-Disposition"))

	w = do(r, http.MethodGet, "/api/thumbnail/"+rec.ID+"?w=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// stubImages returns canned results.
type stubImages struct {
	thumb  *services.Thumbnail
	err    error
	remote bool
}

func (s *stubImages) List(context.Context) ([]models.ImageRecord, error) { return nil, s.err }
func (s *stubImages) Upload(context.Context, services.Upload) (models.ImageRecord, error) {
	return models.ImageRecord{}, s.err
}
func (s *stubImages) Download(context.Context, string) (*services.Download, error) {
	return nil, s.err
}
func (s *stubImages) Thumbnail(context.Context, string, int) (*services.Thumbnail, error) {
	return s.thumb, s.err
}
func (s *stubImages) Delete(context.Context, string) error { return s.err }
func (s *stubImages) RemoteAvailable() bool                 { return s.remote }

func TestThumbnailRedirect(t *testing.T) {
	h := NewHandler(&stubImages{thumb: &services.Thumbnail{RedirectURL: "https://cdn.example/x"}}, Options{}, zerolog.Nop())
	w := do(newRouter(h), http.MethodGet, "/api/thumbnail/k")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://cdn.example/x", w.Header().Get("Location"))
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		body   string
	}{
		{apperrors.NotFound("not found"), http.StatusNotFound, `{"error":"not found"}`},
		{apperrors.NotFound("file not found on remote storage"), http.StatusNotFound, `{"error":"file not found on remote storage"}`},
		{apperrors.UnsupportedSource("unsupported source"), http.StatusBadRequest, `{"error":"unsupported source"}`},
		{apperrors.Upstream("failed to download from remote storage"), http.StatusInternalServerError, `{"error":"failed to download from remote storage"}`},
		{apperrors.LocalIO("failed to read local file"), http.StatusInternalServerError, `{"error":"failed to read local file"}`},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			r := newRouter(NewHandler(&stubImages{err: tt.err}, Options{}, zerolog.Nop()))
			for _, path := range []string{"/api/download/k", "/api/thumbnail/k"} {
				w := do(r, http.MethodGet, path)
				assert.Equal(t, tt.status, w.Code, path)
				assert.JSONEq(t, tt.body, w.Body.String(), path)
			}
		})
	}
}

func TestUploadRejected(t *testing.T) {
	r := newRouter(NewHandler(&stubImages{err: apperrors.Rejected("upload rejected: malware detected (Eicar)")}, Options{}, zerolog.Nop()))
	w := upload(t, r, "x.png", "image/png", []byte("x"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "malware"))
}

func TestHealthAndRoot(t *testing.T) {
	r := newRouter(NewHandler(&stubImages{remote: true}, Options{}, zerolog.Nop()))

	w := do(r, http.MethodGet, "/api/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","remote":true}`, w.Body.String())

	w = do(r, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ImageVaultApp backend", w.Body.String())
}
