package usecase

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/fekuna/catalog-storefront/internal/upload"
	"github.com/fekuna/catalog-storefront/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	objects     map[string][]byte
	contentType map[string]string
	deleted     []string
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, contentType: map[string]string{}}
}

func (m *memStore) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.objects[key] = b
	m.contentType[key] = contentType
	return "https://cdn.example.com/catalog/" + key, nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	return nil
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func file(name string, body []byte) *upload.File {
	return &upload.File{Filename: name, Size: int64(len(body)), Body: bytes.NewReader(body)}
}

func TestUploadKeyLayout(t *testing.T) {
	store := newMemStore()
	uc := NewUploadUseCase(store, 10<<20, logger.NewNop()).(*uploadUseCase)
	uc.now = func() time.Time { return time.UnixMilli(1717000000123) }

	res, err := uc.Upload(context.Background(), "", file("Logo.PNG", pngHeader))
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^images/general/1717000000123-[0-9a-f]{10}\.png$`), res.Path)
	assert.Equal(t, "https://cdn.example.com/catalog/"+res.Path, res.URL)
	assert.Equal(t, pngHeader, store.objects[res.Path], "sniffing must not consume the body")
	assert.Equal(t, "image/png", store.contentType[res.Path])

	res, err = uc.Upload(context.Background(), "product-sheets", file("sheet.pdf", []byte("%PDF-1.7\n...")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Path, "images/product-sheets/"))

	res, err = uc.Upload(context.Background(), "icons", file("arrow.svg", []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`)))
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", store.contentType[res.Path])
}

func TestUploadRejections(t *testing.T) {
	uc := NewUploadUseCase(newMemStore(), 1024, logger.NewNop())
	ctx := context.Background()

	_, err := uc.Upload(ctx, "../etc", file("a.png", pngHeader))
	assert.ErrorIs(t, err, upload.ErrInvalidFolder)

	_, err = uc.Upload(ctx, "Products", file("a.png", pngHeader))
	assert.ErrorIs(t, err, upload.ErrInvalidFolder)

	_, err = uc.Upload(ctx, "", file("a.exe", []byte("MZ")))
	assert.ErrorIs(t, err, upload.ErrUnsupportedType)

	_, err = uc.Upload(ctx, "", file("fake.png", []byte("<html><script>alert(1)</script>")))
	assert.ErrorIs(t, err, upload.ErrUnsupportedType)

	_, err = uc.Upload(ctx, "", file("big.png", append(pngHeader, make([]byte, 2048)...)))
	assert.ErrorIs(t, err, upload.ErrFileTooLarge)
}

func TestDeleteOnlyInsideImages(t *testing.T) {
	store := newMemStore()
	uc := NewUploadUseCase(store, 1024, logger.NewNop())
	ctx := context.Background()

	require.NoError(t, uc.Delete(ctx, "/images/general/1-abc.png"))
	assert.Equal(t, []string{"images/general/1-abc.png"}, store.deleted)

	for _, bad := range []string{"backups/db.sql", "images/../backups/db.sql", "images//x.png", ""} {
		assert.ErrorIs(t, uc.Delete(ctx, bad), upload.ErrInvalidPath, bad)
	}
}

func TestUploadRejectsActiveSVG(t *testing.T) {
	store := newMemStore()
	uc := NewUploadUseCase(store, 1024, logger.NewNop())
	ctx := context.Background()

	for name, body := range map[string]string{
		"script":        `<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`,
		"upper script":  `<SVG><SCRIPT src="//x.example/a.js"/></SVG>`,
		"event handler": `<svg onload="alert(1)"/>`,
		"handler space": "<svg>\n<rect\tonclick = \"x()\"/></svg>",
		"js href":       `<svg><a href="JavaScript:alert(1)"><text>x</text></a></svg>`,
		"foreignObject": `<svg><foreignObject><div>x</div></foreignObject></svg>`,
		"not svg":       `<html><body>hi</body></html>`,
	} {
		_, err := uc.Upload(ctx, "icons", file("icon.svg", []byte(body)))
		assert.ErrorIs(t, err, upload.ErrUnsupportedType, name)
	}
	assert.Empty(t, store.objects)

	big := `<svg xmlns="http://www.w3.org/2000/svg">` + strings.Repeat(" ", 1024) + `</svg>`
	_, err := uc.Upload(ctx, "icons", &upload.File{Filename: "big.svg", Size: 10, Body: strings.NewReader(big)})
	assert.ErrorIs(t, err, upload.ErrFileTooLarge, "declared size is not trusted")

	plain := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"><path d="M0 0h10v10z" fill="#0a0"/></svg>`
	res, err := uc.Upload(ctx, "icons", file("icon.svg", []byte(plain)))
	require.NoError(t, err)
	assert.Equal(t, plain, string(store.objects[res.Path]))
}
