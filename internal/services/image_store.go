package services

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrNotImage      = errors.New("only image files can be uploaded")
	ErrImageTooLarge = errors.New("image is too large")
)

// ImageStore 保存上传的图片并返回可访问路径
type ImageStore interface {
	Save(header *multipart.FileHeader) (string, error)
	Delete(publicPath string) error
}

// LocalImageStore writes images into a fixed server-local folder that is
// served under urlPrefix.
type LocalImageStore struct {
	dir       string
	urlPrefix string
	maxBytes  int64
}

func NewLocalImageStore(dir, urlPrefix string, maxBytes int64) (*LocalImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalImageStore{
		dir:       dir,
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
		maxBytes:  maxBytes,
	}, nil
}

// Save 校验文件类型和大小，写入上传目录，返回如 /static/images/1a2b3c4d-cafe.png 的路径
func (s *LocalImageStore) Save(header *multipart.FileHeader) (string, error) {
	if s.maxBytes > 0 && header.Size > s.maxBytes {
		return "", ErrImageTooLarge
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	// 按内容判断类型，不信任客户端的 Content-Type
	mt, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("detect image type: %w", err)
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", ErrNotImage
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	name := imageFileName(header.Filename, mt.Extension())
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write image file: %w", err)
	}

	return path.Join(s.urlPrefix, name), nil
}

// Delete removes a previously saved image. Paths outside the store are ignored.
func (s *LocalImageStore) Delete(publicPath string) error {
	if !strings.HasPrefix(publicPath, s.urlPrefix+"/") {
		return nil
	}
	name := path.Base(publicPath)
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// imageFileName 生成不会互相覆盖、且不含路径字符的文件名
func imageFileName(original, detectedExt string) string {
	base := filepath.Base(strings.ReplaceAll(original, `\`, "/"))
	ext := strings.ToLower(filepath.Ext(base))
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	stem = strings.Trim(unsafeFileChars.ReplaceAllString(stem, "_"), "_")
	if stem == "" {
		stem = "image"
	}
	if len(stem) > 48 {
		stem = stem[:48]
	}

	if ext == "" || unsafeFileChars.MatchString(strings.TrimPrefix(ext, ".")) {
		ext = detectedExt
	}

	return fmt.Sprintf("%s-%s%s", uuid.NewString()[:8], stem, ext)
}
