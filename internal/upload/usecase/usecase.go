package usecase

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/fekuna/catalog-storefront/internal/upload"
	"github.com/fekuna/catalog-storefront/pkg/logger"
	"github.com/fekuna/catalog-storefront/pkg/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	keyPrefix     = "images/"
	defaultFolder = "general"
)

var folderPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// activeSVG matches markup that runs when an SVG is opened directly.
var activeSVG = regexp.MustCompile(`(?i)<script|<foreignobject|<iframe|<embed|javascript:|\son[a-z]+\s*=`)

// allowedTypes maps extension to the content type stored with the object.
var allowedTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".pdf":  "application/pdf",
}

type uploadUseCase struct {
	store    storage.ObjectStore
	maxBytes int64
	logger   logger.ZapLogger
	now      func() time.Time
}

func NewUploadUseCase(store storage.ObjectStore, maxBytes int64, log logger.ZapLogger) upload.UseCase {
	return &uploadUseCase{
		store:    store,
		maxBytes: maxBytes,
		logger:   log,
		now:      time.Now,
	}
}

func (uc *uploadUseCase) Upload(ctx context.Context, folder string, file *upload.File) (*upload.Result, error) {
	folder = strings.TrimSpace(folder)
	if folder == "" {
		folder = defaultFolder
	}
	if !folderPattern.MatchString(folder) {
		return nil, upload.ErrInvalidFolder
	}
	if file.Size > uc.maxBytes {
		return nil, upload.ErrFileTooLarge
	}

	ext := strings.ToLower(path.Ext(file.Filename))
	contentType, ok := allowedTypes[ext]
	if !ok {
		return nil, upload.ErrUnsupportedType
	}

	var body io.Reader
	size := file.Size
	if ext == ".svg" {
		data, err := uc.readSVG(file)
		if err != nil {
			return nil, err
		}
		body, size = bytes.NewReader(data), int64(len(data))
	} else {
		buffered := bufio.NewReaderSize(file.Body, 512)
		body = buffered
		head, _ := buffered.Peek(512)
		if sniffed := http.DetectContentType(head); sniffed != contentType {
			uc.logger.Warn("upload content does not match extension",
				zap.String("filename", file.Filename),
				zap.String("sniffed", sniffed),
			)
			return nil, upload.ErrUnsupportedType
		}
	}

	if ext == ".jpeg" {
		ext = ".jpg"
	}
	key := fmt.Sprintf("%s%s/%d-%s%s", keyPrefix, folder, uc.now().UnixMilli(), randomSuffix(), ext)

	url, err := uc.store.Put(ctx, key, body, size, contentType)
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", key, err)
	}

	uc.logger.Info("file uploaded", zap.String("path", key), zap.Int64("size", size))
	return &upload.Result{URL: url, Path: key}, nil
}

func (uc *uploadUseCase) Delete(ctx context.Context, key string) error {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if !strings.HasPrefix(key, keyPrefix) || path.Clean(key) != key || strings.Contains(key, "..") {
		return upload.ErrInvalidPath
	}
	if err := uc.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	uc.logger.Info("file deleted", zap.String("path", key))
	return nil
}

// readSVG loads an SVG upload whole and rejects it when it carries scripts
// or event handlers.
func (uc *uploadUseCase) readSVG(file *upload.File) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(file.Body, uc.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file.Filename, err)
	}
	if int64(len(data)) > uc.maxBytes {
		return nil, upload.ErrFileTooLarge
	}
	if !bytes.Contains(bytes.ToLower(data), []byte("<svg")) || activeSVG.Match(data) {
		uc.logger.Warn("svg upload rejected", zap.String("filename", file.Filename))
		return nil, upload.ErrUnsupportedType
	}
	return data, nil
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:10]
}
