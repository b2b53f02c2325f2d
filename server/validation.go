package server

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxCaption = 500

// validatePostInput checks the create-post form: the image URL must be
// non-empty once trimmed, the caption is optional and capped at 500
// characters. Returns the cleaned values.
func validatePostInput(imageURL, caption string) (string, string, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return "", "", fmt.Errorf("please provide an image URL")
	}
	caption = strings.TrimSpace(caption)
	if utf8.RuneCountInString(caption) > maxCaption {
		return "", "", fmt.Errorf("caption cannot be longer than %d characters", maxCaption)
	}
	return imageURL, caption, nil
}
