package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fekuna/catalog-storefront/internal/upload"
	"github.com/fekuna/catalog-storefront/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUseCase struct {
	folder string
	size   int64
	err    error
}

func (s *stubUseCase) Upload(_ context.Context, folder string, f *upload.File) (*upload.Result, error) {
	s.folder, s.size = folder, f.Size
	if s.err != nil {
		return nil, s.err
	}
	return &upload.Result{URL: "https://cdn.example.com/images/x.png", Path: "images/x.png"}, nil
}

func (s *stubUseCase) Delete(context.Context, string) error {
	return s.err
}

func newRouter(uc upload.UseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewUploadHandler(uc, 1<<20, logger.NewNop()).RegisterAdmin(r.Group("/api/admin"))
	return r
}

func multipartRequest(t *testing.T, folder string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if folder != "" {
		require.NoError(t, mw.WriteField("folder", folder))
	}
	if content != nil {
		fw, err := mw.CreateFormFile("file", "logo.png")
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadHandler(t *testing.T) {
	uc := &stubUseCase{}
	r := newRouter(uc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, "banners", []byte("png-bytes")))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"url":"https://cdn.example.com/images/x.png","path":"images/x.png"}`, w.Body.String())
	assert.Equal(t, "banners", uc.folder)
	assert.Equal(t, int64(9), uc.size)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, "", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadHandlerMapsErrors(t *testing.T) {
	cases := map[error]int{
		upload.ErrUnsupportedType: http.StatusBadRequest,
		upload.ErrFileTooLarge:    http.StatusRequestEntityTooLarge,
		assert.AnError:            http.StatusInternalServerError,
	}
	for err, status := range cases {
		w := httptest.NewRecorder()
		newRouter(&stubUseCase{err: err}).ServeHTTP(w, multipartRequest(t, "", []byte("x")))
		assert.Equal(t, status, w.Code, err.Error())
	}
}

func TestDeleteRequiresPath(t *testing.T) {
	r := newRouter(&stubUseCase{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/admin/upload", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/admin/upload?path=images/x.png", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
