package common

import "errors"

// Error kinds returned by the banner pipeline. Callers match them with errors.Is;
// the wrapped message carries the detail.
var (
	ErrColorParse     = errors.New("color parse error")
	ErrImageDecode    = errors.New("image decode error")
	ErrImageEncode    = errors.New("image encode error")
	ErrMetadataFormat = errors.New("base64 metadata format error")
)
