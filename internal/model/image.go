package model

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// RecipeImageDir is the media-relative directory recipe images are stored in.
const RecipeImageDir = "uploads/recipe"

// newImageID generates the unique part of an image file name.
// Tests swap it out to get a predictable path.
var newImageID = uuid.NewString

// ImageExtensions lists the file extensions accepted for recipe images.
//
// WHY AN ALLOWLIST?
// Media files are served from the API's own origin and the file server picks
// the Content-Type from the extension. A file that starts with a PNG header
// but is named "x.html" would be served as text/html, and any script in it
// would run with the user's token cookie. Only extensions that map to image
// types are ever written to disk.
var ImageExtensions = []string{"bmp", "gif", "jpeg", "jpg", "png", "webp"}

// sniffedExtensions maps the image types http.DetectContentType reports to the
// extension a file without one is stored under.
var sniffedExtensions = map[string]string{
	"image/bmp":  "bmp",
	"image/gif":  "gif",
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// ImageExtension returns the lowercased extension of filename without the
// dot, or "" when it has none. Directory parts (including Windows ones) are
// ignored.
func ImageExtension(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	dot := strings.LastIndex(base, ".")
	if dot < 0 || dot == len(base)-1 {
		return ""
	}
	return strings.ToLower(base[dot+1:])
}

// AllowedImageExtension reports whether ext (lowercase, no dot) is in
// ImageExtensions.
func AllowedImageExtension(ext string) bool {
	for _, allowed := range ImageExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// ExtensionForContentType returns the extension stored for a sniffed image
// type, and false for types that are not accepted.
func ExtensionForContentType(contentType string) (string, bool) {
	ext, ok := sniffedExtensions[contentType]
	return ext, ok
}

// RecipeImageFilePath returns the media-relative path an uploaded recipe image
// is stored at: uploads/recipe/<uuid>.<ext>.
//
// Only the lowercased extension of the original file name is kept; the rest
// is a fresh random identifier on every call. Callers validate the extension
// first (see AllowedImageExtension). The recipe argument is currently unused.
func RecipeImageFilePath(_ *Recipe, filename string) string {
	name := newImageID()
	if ext := ImageExtension(filename); ext != "" {
		name += "." + ext
	}
	return RecipeImageDir + "/" + name
}
