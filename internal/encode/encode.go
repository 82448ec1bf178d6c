// Package encode turns clipboard payloads into upload bytes: raw RGBA images
// into PNG, file paths into their contents, and any payload into a sniffed
// content type.
package encode

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	// Register decoders for the formats platform clipboards hand out.
	_ "image/gif"
	_ "image/jpeg"

	"github.com/h2non/filetype"

	"go.klb.dev/nanoupload/internal/content"
	"go.klb.dev/nanoupload/internal/failure"
)

// DefaultExt is used when a path has no extension or a payload's type is unknown.
const DefaultExt = "bin"

const octetStream = "application/octet-stream"

// sniffLen is how many leading bytes filetype needs to recognize every
// matcher it ships with.
const sniffLen = 8192

// EncodeImage serializes img as PNG. The pixel buffer must hold exactly
// Width*Height*4 bytes.
func EncodeImage(img *content.Image) ([]byte, error) {
	if img == nil {
		return nil, failure.Errorf(failure.KindEncoding, "encode image", "no image")
	}
	if img.Width <= 0 || img.Height <= 0 {
		return nil, failure.Errorf(failure.KindEncoding, "encode image",
			"invalid dimensions %dx%d", img.Width, img.Height)
	}
	if want := img.Width * img.Height * 4; len(img.Pix) != want {
		return nil, failure.Errorf(failure.KindEncoding, "encode image",
			"pixel buffer is %d bytes, want %d for %dx%d", len(img.Pix), want, img.Width, img.Height)
	}

	nrgba := &image.NRGBA{
		Pix:    img.Pix,
		Stride: img.Width * 4,
		Rect:   image.Rect(0, 0, img.Width, img.Height),
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(&buf, nrgba); err != nil {
		return nil, failure.New(failure.KindEncoding, "encode image", err)
	}
	return buf.Bytes(), nil
}

// DecodeImage decodes a PNG (or any registered format) into a raw RGBA image.
func DecodeImage(data []byte) (*content.Image, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, failure.New(failure.KindEncoding, "decode image", err)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := &content.Image{Width: w, Height: h, Pix: make([]byte, w*h*4)}

	if n, ok := src.(*image.NRGBA); ok {
		for y := 0; y < h; y++ {
			row := n.Pix[y*n.Stride : y*n.Stride+w*4]
			copy(out.Pix[y*w*4:], row)
		}
		return out, nil
	}

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			out.Pix[i+0] = c.R
			out.Pix[i+1] = c.G
			out.Pix[i+2] = c.B
			out.Pix[i+3] = c.A
			i += 4
		}
	}
	return out, nil
}

// ReadFile reads the whole file at path and returns its bytes and extension.
// A path that vanished or became a directory since it was classified is an
// ordinary i/o failure.
func ReadFile(path string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", failure.New(failure.KindIO, "read file", err)
	}
	return data, Ext(path), nil
}

// Ext returns the lower-cased extension of path without the dot, or DefaultExt.
func Ext(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return DefaultExt
	}
	return ext
}

// Kind is a sniffed content type.
type Kind struct {
	Ext  string
	MIME string
}

func (k Kind) String() string { return fmt.Sprintf("%s (%s)", k.MIME, k.Ext) }

// Sniff detects the content type of data from its leading bytes.
// filetype is tried first; text and other formats it does not know fall back
// to http.DetectContentType, then to application/octet-stream.
func Sniff(data []byte) Kind {
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
		return Kind{Ext: kind.Extension, MIME: kind.MIME.Value}
	}
	if len(head) == 0 {
		return Kind{Ext: DefaultExt, MIME: octetStream}
	}
	mime := http.DetectContentType(head)
	if strings.HasPrefix(mime, "text/plain") {
		return Kind{Ext: "txt", MIME: mime}
	}
	return Kind{Ext: DefaultExt, MIME: mime}
}
