package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ImageOCR recognizes text in an image file. External collaborator; wire a
// real OCR engine in deployments that need it.
type ImageOCR interface {
	Recognize(path string) (string, error)
}

// PDFReader extracts text from a PDF file. External collaborator.
type PDFReader interface {
	ExtractText(path string) (string, error)
}

// Extractor turns an uploaded file into text for the model context. Extract
// never fails: anything that goes wrong is reported as a diagnostic string
// so a broken attachment cannot abort the surrounding request.
type Extractor struct {
	OCR ImageOCR
	PDF PDFReader
}

func New() *Extractor {
	return &Extractor{}
}

var textExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".py":   true,
	".js":   true,
	".json": true,
	".html": true,
	".go":   true,
	".css":  true,
	".csv":  true,
}

// Extract dispatches on the file extension of name and returns the file's
// text, or a bracketed diagnostic notice when it cannot be parsed.
func (e *Extractor) Extract(path, name string) string {
	ext := strings.ToLower(filepath.Ext(name))

	switch {
	case textExtensions[ext]:
		data, err := os.ReadFile(path)
		if err != nil {
			return failureNotice(err)
		}
		return string(data)

	case ext == ".png" || ext == ".jpg" || ext == ".jpeg" || ext == ".bmp":
		if e.OCR == nil {
			return "[system notice: OCR is not configured, image kept as attachment only]"
		}
		text, err := e.OCR.Recognize(path)
		if err != nil {
			return failureNotice(err)
		}
		if strings.TrimSpace(text) == "" {
			return "[OCR notice: no text recognized]"
		}
		return strings.TrimSpace(text)

	case ext == ".pdf":
		if e.PDF == nil {
			return "[system notice: PDF parsing is not configured, file kept as attachment only]"
		}
		text, err := e.PDF.ExtractText(path)
		if err != nil {
			return failureNotice(err)
		}
		if strings.TrimSpace(text) == "" {
			return "[PDF notice: no text extracted, possibly an image-only PDF]"
		}
		return text

	default:
		return fmt.Sprintf("[system notice: unsupported file format %s, kept as attachment only]", ext)
	}
}

func failureNotice(err error) string {
	return fmt.Sprintf("[system notice: file parsing failed - %v]", err)
}
