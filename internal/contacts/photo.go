package contacts

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// MaxPhotoBytes caps the size of a photo file accepted by EncodePhotoFile.
const MaxPhotoBytes = 5 << 20

// EncodePhotoFile reads an image file and returns it as a base64 photo field.
func EncodePhotoFile(path string) (Field, error) {
	path = strings.TrimSpace(path)
	info, err := os.Stat(path)
	if err != nil {
		return Field{}, NewError("photo", IOError, err)
	}
	if info.IsDir() {
		return Field{}, NewError("photo", InvalidArgumentError, fmt.Errorf("%s is a directory", path))
	}
	if info.Size() > MaxPhotoBytes {
		return Field{}, NewError("photo", InvalidArgumentError,
			fmt.Errorf("%s is %d bytes, limit is %d", path, info.Size(), MaxPhotoBytes))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Field{}, NewError("photo", IOError, err)
	}
	return EncodePhoto(data), nil
}

// EncodePhoto returns raw image bytes as a base64 photo field.
func EncodePhoto(data []byte) Field {
	return Field{Type: PhotoBase64, Value: base64.StdEncoding.EncodeToString(data)}
}

// DecodePhoto returns the image bytes of a base64 photo field and their
// sniffed media type.
func DecodePhoto(f Field) ([]byte, string, error) {
	if f.Type != PhotoBase64 {
		return nil, "", fmt.Errorf("unsupported photo type %q", f.Type)
	}
	data, err := base64.StdEncoding.DecodeString(f.Value)
	if err != nil {
		return nil, "", fmt.Errorf("decoding photo: %w", err)
	}
	return data, http.DetectContentType(data), nil
}
