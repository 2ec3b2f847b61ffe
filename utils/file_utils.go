package utils

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	proofUploadDir = "uploads/proofs"
	maxProofWidth  = 1200
)

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// InitializeStorage ensures the upload directories exist
func InitializeStorage() error {
	return os.MkdirAll(proofUploadDir, 0755)
}

// ValidateImageFile checks the extension of an uploaded proof image
func ValidateImageFile(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedImageExtensions[ext] {
		return fmt.Errorf("unsupported file type %s: only jpg, jpeg and png are accepted", ext)
	}
	return nil
}

// SaveProofImage decodes, downscales and persists a proof-of-payment image.
// Images wider than maxProofWidth are resized to keep storage bounded.
// Returns the relative URL under which the file is served.
func SaveProofImage(fileData []byte, originalName string) (string, error) {
	if err := ValidateImageFile(originalName); err != nil {
		return "", err
	}

	img, err := imaging.Decode(bytes.NewReader(fileData))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	if img.Bounds().Dx() > maxProofWidth {
		img = imaging.Resize(img, maxProofWidth, 0, imaging.Lanczos)
	}

	filename := fmt.Sprintf("%d_%s.jpg", time.Now().Unix(), uuid.NewString()[:8])
	fullPath := filepath.Join(proofUploadDir, filename)

	if err := imaging.Save(img, fullPath, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}

	return "/" + filepath.ToSlash(fullPath), nil
}
