package batch

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// Upload is one uploaded file handed to the batch adapter.
type Upload interface {
	// Name is the client-supplied file name, used for the scratch
	// extension and echoed back as original_filename.
	Name() string
	// Size is the upload size in bytes, or -1 when unknown.
	Size() int64
	// Open returns the upload contents.
	Open() (io.ReadCloser, error)
}

// FileUpload is an upload already on local disk.
type FileUpload struct {
	Path string
}

func (u FileUpload) Name() string { return filepath.Base(u.Path) }

func (u FileUpload) Size() int64 {
	info, err := os.Stat(u.Path)
	if err != nil {
		return -1
	}
	return info.Size()
}

func (u FileUpload) Open() (io.ReadCloser, error) {
	f, err := os.Open(u.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	return f, nil
}

// BytesUpload is an upload held in memory.
type BytesUpload struct {
	Filename string
	Data     []byte
}

func (u BytesUpload) Name() string { return u.Filename }
func (u BytesUpload) Size() int64  { return int64(len(u.Data)) }

func (u BytesUpload) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(u.Data)), nil
}

// MultipartUpload adapts a file part of a multipart/form-data request.
type MultipartUpload struct {
	Header *multipart.FileHeader
}

func (u MultipartUpload) Name() string { return u.Header.Filename }
func (u MultipartUpload) Size() int64  { return u.Header.Size }

func (u MultipartUpload) Open() (io.ReadCloser, error) {
	f, err := u.Header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	return f, nil
}
