package api

import (
	"errors"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"draftsmith/internal/draft"
	"draftsmith/internal/pathsafe"
)

var (
	dateRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	targetRe = regexp.MustCompile(`^[a-z0-9-]+$`)
)

// noTraversal rejects values that could break out of the workspace tree.
// The services re-check this; the DTO rule exists so bad requests fail with
// a field-level message before any service runs.
var noTraversal = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if pathsafe.HasTraversal(s) {
		return errors.New("must not contain path separators or '..'")
	}
	return nil
})

// GenerateRequest is the request body for POST /generate.
type GenerateRequest struct {
	Emoji      string   `json:"emoji"`
	Title      string   `json:"title"`
	Brief      string   `json:"brief"`
	Outline    []string `json:"outline"`
	Categories string   `json:"categories"`
	Date       string   `json:"date,omitempty"`
	Slug       string   `json:"slug,omitempty"`
}

// Validate validates the generate request.
func (r *GenerateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Emoji, validation.Required),
		validation.Field(&r.Title, validation.Required, noTraversal),
		validation.Field(&r.Brief, validation.Required, validation.Length(30, 0)),
		validation.Field(&r.Outline, validation.Required, validation.Length(3, 20), validation.Each(validation.Required)),
		validation.Field(&r.Categories, validation.Required, noTraversal),
		validation.Field(&r.Date, validation.Match(dateRe)),
		validation.Field(&r.Slug, noTraversal),
	)
}

// PatchRequest is the request body for POST /patch.
type PatchRequest struct {
	Date         string          `json:"date"`
	Categories   string          `json:"categories"`
	Title        string          `json:"title"`
	BodyMarkdown string          `json:"bodyMarkdown"`
	Mode         draft.PatchMode `json:"mode,omitempty"`
	Placeholder  string          `json:"placeholder,omitempty"`
}

// Validate validates the patch request.
func (r *PatchRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Date, validation.Required, validation.Match(dateRe)),
		validation.Field(&r.Categories, validation.Required, noTraversal),
		validation.Field(&r.Title, validation.Required, noTraversal),
		validation.Field(&r.BodyMarkdown, validation.Required),
		validation.Field(&r.Mode, validation.In(draft.PatchModeReplacePlaceholder, draft.PatchModeAppend)),
	)
}

// ImagesRequest is the request body for POST /images.
type ImagesRequest struct {
	Date                       string           `json:"date"`
	Categories                 string           `json:"categories"`
	Title                      string           `json:"title"`
	Targets                    []string         `json:"targets"`
	Mode                       draft.ImagesMode `json:"mode,omitempty"`
	SlotPrefix                 string           `json:"slotPrefix,omitempty"`
	ImageExt                   string           `json:"imageExt,omitempty"`
	BaseURL                    string           `json:"baseUrl,omitempty"`
	UpdateFrontmatterThumbnail *bool            `json:"updateFrontmatterThumbnail,omitempty"`
}

// Validate validates the images request.
func (r *ImagesRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Date, validation.Required, validation.Match(dateRe)),
		validation.Field(&r.Categories, validation.Required, noTraversal),
		validation.Field(&r.Title, validation.Required, noTraversal),
		validation.Field(&r.Targets, validation.Required, validation.Each(validation.Match(targetRe))),
		validation.Field(&r.Mode, validation.In(draft.ImagesModeReplaceSlots, draft.ImagesModeInsertSlots, draft.ImagesModeNoPatch)),
		validation.Field(&r.ImageExt, validation.In("png", "jpg", "webp")),
	)
}

// GitPushRequest is the request body for POST /git/push.
type GitPushRequest struct {
	BranchPrefix  string   `json:"branchPrefix,omitempty"`
	CommitMessage string   `json:"commitMessage"`
	Paths         []string `json:"paths"`
}

// Validate validates the git push request.
func (r *GitPushRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.BranchPrefix, noTraversal),
		validation.Field(&r.CommitMessage, validation.Required),
		validation.Field(&r.Paths, validation.Required, validation.Each(validation.Required)),
	)
}
