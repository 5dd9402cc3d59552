package service

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"lsablog/internal/models"
)

const (
	maxTitleLen   = 300
	maxExcerptLen = 1000
	maxContentLen = 100000
	maxCommentLen = 5000
	maxAuthorLen  = 100
)

func requireText(field, label, value string, maxLen int) error {
	if strings.TrimSpace(value) == "" {
		return models.NewValidationError(field, label+" is required")
	}
	if utf8.RuneCountInString(value) > maxLen {
		return models.NewValidationError(field, label+" is too long")
	}
	return nil
}

// validCoverImage accepts an absolute http(s) URL or an inline data:image payload.
func validCoverImage(v string) bool {
	if v == "" || strings.HasPrefix(v, "data:image/") {
		return true
	}
	u, err := url.Parse(v)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// validatePost checks every editable field and reports the first failure.
func validatePost(p *models.Post) error {
	if err := requireText("title", "Title", p.Title, maxTitleLen); err != nil {
		return err
	}
	if err := requireText("excerpt", "Excerpt", p.Excerpt, maxExcerptLen); err != nil {
		return err
	}
	if err := requireText("content", "Content", p.Content, maxContentLen); err != nil {
		return err
	}
	if p.Category == "" {
		return models.NewValidationError("category", "Category is required")
	}
	if !p.Category.Valid() {
		return models.NewValidationError("category", "Unknown category")
	}
	if err := requireText("author.name", "Author name", p.Author.Name, maxAuthorLen); err != nil {
		return err
	}
	if !validCoverImage(p.CoverImage) {
		return models.NewValidationError("cover_image", "Cover image must be an http(s) URL or a data:image payload")
	}
	return nil
}
