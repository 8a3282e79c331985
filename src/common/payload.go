package common

import (
	"encoding/base64"
	"fmt"
	"math/rand"
	"strings"
)

// EncodedPayload is a base64 image carried with its data-URI prefix,
// e.g. "data:image/png;base64,iVBORw0...".
type EncodedPayload string

// NameGenerator produces file names for decoded payloads
type NameGenerator interface {
	NewName(extension string) string
}

// RandomNames names files "<random uint64>.<extension>"
type RandomNames struct{}

func (RandomNames) NewName(extension string) string {
	return fmt.Sprintf("%d.%s", rand.Uint64(), extension)
}

// ExtractExtension returns "png" from "data:image/png;base64,..."
func ExtractExtension(payload EncodedPayload) (string, error) {
	first := strings.Split(string(payload), ";")
	if len(first) < 2 {
		return "", fmt.Errorf("%w: no ';' in prefix", ErrMetadataFormat)
	}
	second := strings.Split(first[0], "/")
	if len(second) < 2 {
		return "", fmt.Errorf("%w: no '/' in prefix %q", ErrMetadataFormat, first[0])
	}
	return second[1], nil
}

// DecodePayload returns the raw bytes of payload and a file name built from
// its extension. A nil names uses RandomNames.
func DecodePayload(payload EncodedPayload, names NameGenerator) ([]byte, string, error) {
	ext, err := ExtractExtension(payload)
	if err != nil {
		return nil, "", err
	}

	data, err := decodeBase64(payloadBody(payload))
	if err != nil {
		return nil, "", fmt.Errorf("%w: invalid base64: %v", ErrImageDecode, err)
	}

	if names == nil {
		names = RandomNames{}
	}
	return data, names.NewName(ext), nil
}

// EncodePayload encodes raw bytes as padded standard base64 without a prefix.
func EncodePayload(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// EncodeDataURI wraps data in a "data:image/<ext>;base64," prefix so the
// result can be fed back to DecodePayload.
func EncodeDataURI(data []byte, extension string) EncodedPayload {
	return EncodedPayload("data:image/" + extension + ";base64," + EncodePayload(data))
}

// payloadBody strips everything up to and including the first comma.
func payloadBody(payload EncodedPayload) string {
	s := string(payload)
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}

func decodeBase64(s string) ([]byte, error) {
	// Unpadded input is accepted as well
	if strings.HasSuffix(s, "=") || len(s)%4 == 0 {
		return base64.StdEncoding.DecodeString(s)
	}
	return base64.RawStdEncoding.DecodeString(s)
}
