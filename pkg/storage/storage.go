package storage

import (
	"errors"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrEmptyObjectName is returned when a file is stored without a name
var ErrEmptyObjectName = errors.New("storage: object name cannot be empty")

// objectKey joins an optional prefix and the file name
func objectKey(prefix, name string) (string, error) {
	name = strings.TrimLeft(strings.TrimSpace(name), "/")
	if name == "" {
		return "", ErrEmptyObjectName
	}
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name, nil
	}
	return prefix + "/" + name, nil
}

// publicURL appends an escaped object key to base
func publicURL(base, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}

// contentType sniffs the stored bytes so the object is served with the right type
func contentType(data []byte) string {
	return mimetype.Detect(data).String()
}
