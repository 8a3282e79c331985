package storage

import (
	"context"
	"errors"
	"fmt"
	"mime"

	"github.com/sirupsen/logrus"

	"logobanner/src/common"
	"logobanner/src/logging"
)

var log *logrus.Logger

func init() {
	log = logging.GetLogger()
}

// Uploader stores bytes under a key in a publicly readable bucket
type Uploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) error
}

// StorageUnavailableError wraps a transport or storage failure
type StorageUnavailableError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("storage unavailable: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageUnavailableError) Unwrap() error {
	return e.Err
}

// IsUnavailable reports whether err came from the storage backend
func IsUnavailable(err error) bool {
	var se *StorageUnavailableError
	return errors.As(err, &se)
}

// BuildPublicURL joins the bucket base URL and the key as-is
func BuildPublicURL(baseURL, key string) string {
	return baseURL + key
}

// Publisher uploads images and returns their public URLs
type Publisher struct {
	uploader Uploader
	baseURL  string
	names    common.NameGenerator
}

// NewPublisher creates a publisher. A nil names uses common.RandomNames.
func NewPublisher(uploader Uploader, baseURL string, names common.NameGenerator) *Publisher {
	if names == nil {
		names = common.RandomNames{}
	}
	return &Publisher{
		uploader: uploader,
		baseURL:  baseURL,
		names:    names,
	}
}

// UploadImageBase64 decodes payload and stores it under name, or under a
// generated "<random>.<ext>" name when name is empty. Storage errors are
// returned unchanged.
func (p *Publisher) UploadImageBase64(ctx context.Context, payload common.EncodedPayload, name string) (string, error) {
	data, generated, err := common.DecodePayload(payload, p.names)
	if err != nil {
		return "", err
	}

	key := name
	if key == "" {
		key = generated
	}
	return p.UploadBytes(ctx, key, data)
}

// UploadBytes stores data under key and returns the public URL
func (p *Publisher) UploadBytes(ctx context.Context, key string, data []byte) (string, error) {
	if err := p.uploader.Upload(ctx, key, data, contentTypeFor(key)); err != nil {
		return "", err
	}

	url := BuildPublicURL(p.baseURL, key)
	log.WithFields(logrus.Fields{"key": key, "bytes": len(data)}).Info("Image uploaded")
	return url, nil
}

func contentTypeFor(key string) string {
	for i := len(key) - 1; i >= 0 && key[i] != '/'; i-- {
		if key[i] == '.' {
			if ct := mime.TypeByExtension(key[i:]); ct != "" {
				return ct
			}
			break
		}
	}
	return "application/octet-stream"
}
