// Package content defines clipboard snapshots and their classification.
//
// A Snapshot is captured once per hotkey press. Classify maps it to exactly
// one Class in a fixed order: image, URL, file path, plain text, empty.
package content

import (
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
)

// Image is a raw clipboard image: non-premultiplied RGBA8, row-major,
// stride Width*4.
type Image struct {
	Width  int
	Height int
	Pix    []byte
}

// Snapshot is the clipboard state at one instant. At most one of Image and
// Text is set; neither means the clipboard is empty.
type Snapshot struct {
	Image   *Image
	Text    string
	HasText bool
}

// TextSnapshot returns a snapshot holding s.
func TextSnapshot(s string) Snapshot { return Snapshot{Text: s, HasText: true} }

// ImageSnapshot returns a snapshot holding img.
func ImageSnapshot(img *Image) Snapshot { return Snapshot{Image: img} }

func (s Snapshot) hasImage() bool { return s.Image != nil && len(s.Image.Pix) > 0 }

// Kind enumerates content classes.
type Kind int

const (
	KindEmpty Kind = iota
	KindImage
	KindURL
	KindFilePath
	KindPlainText
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindURL:
		return "url"
	case KindFilePath:
		return "file"
	case KindPlainText:
		return "text"
	default:
		return "empty"
	}
}

// Class is the result of classifying a snapshot. Value holds the URL, path
// or text for the string-carrying kinds.
type Class struct {
	Kind  Kind
	Value string
}

func (c Class) String() string {
	if c.Value == "" {
		return c.Kind.String()
	}
	return fmt.Sprintf("%s(%q)", c.Kind, c.Value)
}

// StatFunc reports file information for a path. os.Stat satisfies it.
type StatFunc func(name string) (fs.FileInfo, error)

// Classifier classifies snapshots. The zero value uses os.Stat.
type Classifier struct {
	Stat StatFunc
}

// Classify classifies s with the default Classifier.
func Classify(s Snapshot) Class { return Classifier{}.Classify(s) }

// Classify maps s to its class. First match wins:
//
//  1. image pixels present            → Image
//  2. text is an absolute URL         → URL
//  3. text names an existing file     → FilePath
//  4. text is non-empty               → PlainText
//  5. otherwise                       → Empty
//
// URL and path checks use the text trimmed of surrounding whitespace. A stat
// failure of any kind means "not a file path".
func (c Classifier) Classify(s Snapshot) Class {
	if s.hasImage() {
		return Class{Kind: KindImage}
	}
	if !s.HasText || s.Text == "" {
		return Class{Kind: KindEmpty}
	}

	trimmed := strings.TrimSpace(s.Text)
	if IsAbsoluteURL(trimmed) {
		return Class{Kind: KindURL, Value: trimmed}
	}
	if c.isFile(trimmed) {
		return Class{Kind: KindFilePath, Value: trimmed}
	}
	return Class{Kind: KindPlainText, Value: s.Text}
}

func (c Classifier) isFile(path string) bool {
	if path == "" || strings.ContainsRune(path, '\n') {
		return false
	}
	stat := c.Stat
	if stat == nil {
		stat = os.Stat
	}
	fi, err := stat(path)
	if err != nil {
		return false
	}
	return !fi.IsDir()
}

// IsAbsoluteURL reports whether s parses as a URL with both scheme and host.
func IsAbsoluteURL(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
