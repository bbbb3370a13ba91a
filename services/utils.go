package services

import (
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

var allowedImageExtensions = []string{".jpg", ".jpeg", ".png", ".heic", ".heif", ".webp", ".gif"}

var allowedImageMimeTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/heic": ".heic",
}

// ImageExtension picks a file extension for uploaded image bytes, preferring the
// sniffed content type over the client supplied name.
func ImageExtension(fileName string, content []byte) string {
	if ext, ok := allowedImageMimeTypes[http.DetectContentType(content)]; ok {
		return ext
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if slices.Contains(allowedImageExtensions, ext) {
		return ext
	}
	return ".png"
}

func StrPointer(str string) *string {
	if str == "" {
		return nil
	}
	return &str
}

func GetEnv(key, fallback string) string {
	value := os.Getenv(key)
	if len(value) == 0 {
		return fallback
	}
	return value
}

func GetEnvBool(key string, fallback bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}

func GetEnvInt64(key string, fallback int64) int64 {
	value, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		return fallback
	}
	return value
}
