// Package charset detects and decodes the text encodings marketplace
// feed exports arrive in. Most feeds are UTF-8, but older export
// pipelines still produce Windows-1252 and Turkish sellers occasionally
// ship ISO-8859-9.
package charset

import (
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Encoding represents a text encoding
type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingWindows1252 Encoding = "windows-1252"
	EncodingISO88599    Encoding = "iso-8859-9"
)

// DetectEncoding detects the encoding of a byte buffer
func DetectEncoding(data []byte) Encoding {
	// Check for UTF-8 BOM
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return EncodingUTF8
	}

	if utf8.Valid(data) {
		return EncodingUTF8
	}

	// Not valid UTF-8; Windows-1252 decodes any byte sequence, so it is
	// the safest fallback.
	return EncodingWindows1252
}

// Decode converts a byte buffer from the specified encoding to a UTF-8
// string. Data that is already valid UTF-8 passes through untouched
// regardless of the declared encoding, which guards against feeds that
// label their files wrong.
func Decode(data []byte, enc Encoding) (string, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	if utf8.Valid(data) {
		return string(data), nil
	}

	var decoder *encoding.Decoder
	switch enc {
	case EncodingISO88599:
		decoder = charmap.ISO8859_9.NewDecoder()
	default:
		decoder = charmap.Windows1252.NewDecoder()
	}

	result, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", err
	}
	return string(result), nil
}

// ToUTF8Reader wraps a reader with a decoder to convert to UTF-8
func ToUTF8Reader(r io.Reader, enc Encoding) (io.Reader, error) {
	var decoder encoding.Encoding

	switch enc {
	case EncodingWindows1252:
		decoder = charmap.Windows1252
	case EncodingISO88599:
		decoder = charmap.ISO8859_9
	default:
		return r, nil
	}

	return transform.NewReader(r, decoder.NewDecoder()), nil
}
