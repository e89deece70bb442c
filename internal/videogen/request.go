package videogen

import (
	"net/http"
	"net/url"
	"strings"
)

// MaxImages is the number of valid image URLs kept from a request; extras are dropped.
const MaxImages = 15

// Request is the body of POST /video/generate.
type Request struct {
	Images  []string `json:"images"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	UserID  string   `json:"userId"`
	DraftID *string  `json:"draftId,omitempty"`
}

// Job is a validated request.
type Job struct {
	Images  []string
	Title   string
	Content string
	UserID  string
	DraftID *string
}

// Validate checks a request before any stage runs.
func Validate(req Request) (Job, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return Job{}, &ValidationError{Status: http.StatusUnauthorized, Message: "unauthorized"}
	}
	if strings.TrimSpace(req.Content) == "" {
		return Job{}, &ValidationError{Status: http.StatusBadRequest, Message: "content is required"}
	}
	images := FilterImages(req.Images)
	if len(images) == 0 {
		return Job{}, &ValidationError{Status: http.StatusBadRequest, Message: "at least one valid image URL is required"}
	}
	job := Job{
		Images:  images,
		Title:   strings.TrimSpace(req.Title),
		Content: req.Content,
		UserID:  userID,
	}
	if req.DraftID != nil {
		if d := strings.TrimSpace(*req.DraftID); d != "" {
			job.DraftID = &d
		}
	}
	return job, nil
}

// FilterImages keeps well-formed http(s) URLs in order, capped at MaxImages.
func FilterImages(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if len(out) == MaxImages {
			break
		}
		s = strings.TrimSpace(s)
		u, err := url.Parse(s)
		if err != nil || u.Host == "" {
			continue
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			out = append(out, s)
		}
	}
	return out
}
