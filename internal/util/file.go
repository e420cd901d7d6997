package util

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

// SniffMimeType 读取前 512 字节探测 MIME 类型，返回的 reader 仍包含完整内容
func SniffMimeType(reader io.Reader) (string, io.Reader, error) {
	buffer := make([]byte, 512)
	n, err := io.ReadFull(reader, buffer)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, err
	}
	mimeType := http.DetectContentType(buffer[:n])
	return mimeType, io.MultiReader(bytes.NewReader(buffer[:n]), reader), nil
}

// IsImage 检测是否为图片
func IsImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, MimeImage)
}

// IsVideo 检测是否为视频
func IsVideo(mimeType string) bool {
	return strings.HasPrefix(mimeType, MimeVideo) || mimeType == "application/x-mpegURL"
}

// SafeFilename 生成带时间戳前缀、可用作存储 key 的文件名
func SafeFilename(name string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(name))
	base := slug.Make(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
	if base == "" {
		base = "file"
	}
	return now.Format("20060102150405") + "_" + base + ext
}

// IsBlobURL 判断是否为尚未持久化的本地媒体引用
func IsBlobURL(url string) bool {
	return strings.HasPrefix(url, BlobScheme)
}
