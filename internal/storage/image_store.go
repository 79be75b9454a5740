package storage

import (
	"errors"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	// 注册支持的栅格图片解码器
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/google/uuid"
)

var (
	ErrImageTooLarge    = errors.New("image exceeds maximum allowed size")
	ErrImageUnsupported = errors.New("unsupported image format")
)

// MaxImageSize 限制上传图片的体积上限。
const MaxImageSize = 2 << 20 // 2 MiB

var allowedFormats = map[string]struct{}{
	"jpeg": {},
	"png":  {},
	"gif":  {},
	"webp": {},
}

// ImageStore 将文章配图保存到本地磁盘，文件名使用日期加 UUID 避免冲突。
type ImageStore struct {
	dir     string
	urlPath string
}

// NewImageStore 构造 ImageStore。
func NewImageStore(dir, urlPath string) *ImageStore {
	return &ImageStore{dir: dir, urlPath: strings.TrimRight(urlPath, "/")}
}

// Save 校验并保存上传的图片，返回存储的相对文件名。
// 仅接受固定的栅格格式（jpeg/png/gif/webp）且不超过 MaxImageSize。
func (s *ImageStore) Save(file *multipart.FileHeader) (string, error) {
	if file.Size > MaxImageSize {
		return "", ErrImageTooLarge
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	_, format, err := image.DecodeConfig(src)
	if err != nil {
		return "", ErrImageUnsupported
	}
	if _, ok := allowedFormats[format]; !ok {
		return "", ErrImageUnsupported
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext == "" {
		ext = "." + format
	}
	name := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.New().String(), ext)

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", err
	}

	return name, nil
}

// Remove 删除已保存的图片，文件不存在时不视为错误。
func (s *ImageStore) Remove(name string) error {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// URL 返回图片的对外访问路径。
func (s *ImageStore) URL(name string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}
	return s.urlPath + "/" + filepath.Base(name)
}

// Dir 返回存储目录，用于静态路由挂载。
func (s *ImageStore) Dir() string {
	return s.dir
}
