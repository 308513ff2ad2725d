package document

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Supported media types
const (
	MediaTypePDF    = "application/pdf"
	MediaTypeDOCX   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MediaTypeMSWord = "application/msword"
	MediaTypeText   = "text/plain"
)

var extensionTypes = map[string]string{
	".pdf":  MediaTypePDF,
	".docx": MediaTypeDOCX,
	".doc":  MediaTypeMSWord,
	".txt":  MediaTypeText,
}

// SupportedMediaTypes lists the media types Extract accepts.
func SupportedMediaTypes() []string {
	return []string{MediaTypePDF, MediaTypeDOCX, MediaTypeMSWord, MediaTypeText}
}

// IsSupported reports whether the media type has an extractor.
func IsSupported(mediaType string) bool {
	switch normalize(mediaType) {
	case MediaTypePDF, MediaTypeDOCX, MediaTypeMSWord, MediaTypeText:
		return true
	}
	return false
}

// MediaTypeForExtension maps a filename's extension to a media type, or "".
func MediaTypeForExtension(filename string) string {
	return extensionTypes[strings.ToLower(filepath.Ext(filename))]
}

// ResolveMediaType picks the media type used for extraction. A declared type is
// trusted as given; generic or missing declarations are resolved from the file
// extension and then by sniffing the content.
func ResolveMediaType(filename, declared string, content []byte) string {
	declared = normalize(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if mt := MediaTypeForExtension(filename); mt != "" {
		return mt
	}
	if len(content) == 0 {
		return declared
	}
	return normalize(mimetype.Detect(content).String())
}

func normalize(mediaType string) string {
	mediaType = strings.TrimSpace(mediaType)
	if mediaType == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(mediaType); err == nil {
		return mt
	}
	return strings.ToLower(mediaType)
}
