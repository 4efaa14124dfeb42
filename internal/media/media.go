package media

import (
	"path/filepath"
	"strings"
)

// QuarantineDirName is the reserved subdirectory that holds retained
// duplicates. It is excluded from every scan.
const QuarantineDirName = ".duplicates"

// Category classifies a file by its lowercase extension.
type Category int

const (
	CategoryUnsupported Category = iota
	CategoryImage
	CategoryVideo
)

func (c Category) String() string {
	switch c {
	case CategoryImage:
		return "image"
	case CategoryVideo:
		return "video"
	default:
		return "unsupported"
	}
}

var imageExtensions = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "tif": {},
	"tiff": {}, "bmp": {}, "webp": {}, "heic": {}, "heif": {},
}

var videoExtensions = map[string]struct{}{
	"mp4": {}, "mov": {}, "m4v": {}, "avi": {}, "mkv": {}, "3gp": {}, "webm": {},
}

// LowerExt returns the lowercase extension of path without the leading dot.
func LowerExt(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return ""
	}
	return strings.ToLower(ext[1:])
}

// Classify maps a lowercase extension to its media category.
func Classify(ext string) Category {
	if _, ok := imageExtensions[ext]; ok {
		return CategoryImage
	}
	if _, ok := videoExtensions[ext]; ok {
		return CategoryVideo
	}
	return CategoryUnsupported
}

// SupportedExt reports whether ext belongs to either extension set.
func SupportedExt(ext string) bool {
	return Classify(ext) != CategoryUnsupported
}

// Prefixes carries the configured naming prefixes for the two categories.
type Prefixes struct {
	Image string
	Video string
}

// For returns the prefix for a category, or "" when the category is
// unsupported.
func (p Prefixes) For(c Category) string {
	switch c {
	case CategoryImage:
		return p.Image
	case CategoryVideo:
		return p.Video
	default:
		return ""
	}
}

// File is a classified filesystem entry. Immutable once built.
type File struct {
	Path     string
	Ext      string
	Category Category
}

// ClassifyFile builds a File from a path.
func ClassifyFile(path string) File {
	ext := LowerExt(path)
	return File{Path: path, Ext: ext, Category: Classify(ext)}
}
