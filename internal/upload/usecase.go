package upload

import (
	"context"
	"errors"
	"io"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds the upload size limit")
	ErrUnsupportedType = errors.New("file type is not allowed")
	ErrInvalidFolder   = errors.New("folder may only contain lowercase letters, digits and dashes")
	ErrInvalidPath     = errors.New("path must point inside images/")
)

type File struct {
	Filename string
	Size     int64
	Body     io.Reader
}

type Result struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

type UseCase interface {
	Upload(ctx context.Context, folder string, file *File) (*Result, error)
	Delete(ctx context.Context, path string) error
}
