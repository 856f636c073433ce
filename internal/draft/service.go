// Package draft implements creation and mutation of Markdown post drafts
// under the workspace root: versioned exclusive creation, body patching,
// and image slot injection.
package draft

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"

	"draftsmith/internal/apperr"
	"draftsmith/internal/pathsafe"
	"draftsmith/internal/workspace"
)

const (
	// DefaultSlotPrefix is the marker prefix for illustration slots.
	DefaultSlotPrefix = "ILLUSTRATION"
	// DefaultImageExt is used when a request does not pick an extension.
	DefaultImageExt = "png"

	// maxVersionAttempts bounds the exclusive-create retry loop.
	maxVersionAttempts = 1000
)

// Date-partitioned directories must be stable regardless of the server's
// timezone, so "today" is always computed in KST.
var seoul = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}()

// Options configures a draft Service.
type Options struct {
	Author       string // frontmatter author value
	ImageBaseURL string // canonical image URL base
	SlotPrefix   string // slot marker prefix, DefaultSlotPrefix when empty
}

// Service coordinates draft operations over a workspace provider.
//
// Patch and image writes carry no optimistic-concurrency guard: concurrent
// writers to the same draft are a last-writer-wins race.
type Service struct {
	ws         *workspace.FS
	author     string
	baseURL    string
	slotPrefix string
	now        func() time.Time
}

// NewService creates a draft service rooted at the given workspace.
func NewService(ws *workspace.FS, opts Options) *Service {
	slotPrefix := opts.SlotPrefix
	if slotPrefix == "" {
		slotPrefix = DefaultSlotPrefix
	}
	return &Service{
		ws:         ws,
		author:     opts.Author,
		baseURL:    strings.TrimRight(opts.ImageBaseURL, "/"),
		slotPrefix: slotPrefix,
		now:        time.Now,
	}
}

// GenerateRequest describes a new draft.
type GenerateRequest struct {
	Emoji      string
	Title      string
	Brief      string
	Outline    []string
	Categories string
	Date       string // YYYY-MM-DD; today in KST when empty
	Slug       string // derived from title+categories when empty
}

// GenerateResult reports the created draft.
type GenerateResult struct {
	Slug       string   `json:"slug"`
	Date       string   `json:"date"`
	Categories string   `json:"categories"`
	FilePath   string   `json:"filePath"`
	FileName   string   `json:"fileName"`
	Brief      string   `json:"brief"`
	Outline    []string `json:"outline"`
}

// Generate creates a new draft file with exactly-once semantics: the target
// name is opened exclusively, and a name collision advances to the next
// version suffix instead of overwriting. Two simultaneous requests with the
// same title, date, and categories therefore end up in distinct files.
func (s *Service) Generate(_ context.Context, req GenerateRequest) (*GenerateResult, error) {
	if err := rejectTraversal(req.Title, "title"); err != nil {
		return nil, err
	}
	if err := rejectTraversal(req.Categories, "categories"); err != nil {
		return nil, err
	}
	if req.Slug != "" {
		if err := rejectTraversal(req.Slug, "slug"); err != nil {
			return nil, err
		}
	}
	if req.Date != "" {
		if err := rejectTraversal(req.Date, "date"); err != nil {
			return nil, err
		}
	}

	date := req.Date
	if date == "" {
		date = s.now().In(seoul).Format("2006-01-02")
	}

	base := pathsafe.NormalizeName(req.Title)
	if base == "" {
		return nil, fmt.Errorf("%w: file name could not be derived from title", apperr.ErrInvalid)
	}

	slugInput := req.Slug
	if strings.TrimSpace(slugInput) == "" {
		slugInput = req.Title + "-" + req.Categories
	}
	slug := pathsafe.Slugify(slugInput)
	if slug == "" {
		return nil, fmt.Errorf("%w: slug could not be derived", apperr.ErrInvalid)
	}

	dir := path.Join(date, req.Categories)
	if err := s.ws.MkdirAll(dir); err != nil {
		return nil, err
	}

	content := []byte(renderDraft(renderInput{
		Emoji:      req.Emoji,
		Title:      req.Title,
		Date:       date,
		Author:     s.author,
		Categories: req.Categories,
		Brief:      req.Brief,
		Outline:    req.Outline,
		BaseURL:    s.baseURL,
	}))

	fileName := ""
	for attempt := 0; attempt < maxVersionAttempts; attempt++ {
		name := VersionedName(base, attempt)
		err := s.ws.CreateExclusive(path.Join(dir, name), content)
		if err == nil {
			fileName = name
			break
		}
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		return nil, err
	}
	if fileName == "" {
		return nil, fmt.Errorf("%w: no free versioned name for %s", apperr.ErrConflict, base)
	}

	abs, err := s.ws.Abs(path.Join(dir, fileName))
	if err != nil {
		return nil, err
	}
	return &GenerateResult{
		Slug:       slug,
		Date:       date,
		Categories: req.Categories,
		FilePath:   abs,
		FileName:   fileName,
		Brief:      req.Brief,
		Outline:    req.Outline,
	}, nil
}

// PatchMode selects how bodyMarkdown lands in the draft.
type PatchMode string

const (
	// PatchModeReplacePlaceholder replaces the first occurrence of the
	// placeholder marker and conflicts when it is absent.
	PatchModeReplacePlaceholder PatchMode = "replacePlaceholder"
	// PatchModeAppend appends the body after a blank-line separator.
	PatchModeAppend PatchMode = "append"
)

// PatchRequest targets an existing draft's body.
type PatchRequest struct {
	Date         string
	Categories   string
	Title        string
	BodyMarkdown string
	Mode         PatchMode // PatchModeReplacePlaceholder when empty
	Placeholder  string    // DefaultPlaceholder when empty
}

// PatchResult reports a completed patch.
type PatchResult struct {
	OK       bool      `json:"ok"`
	FilePath string    `json:"filePath"`
	Mode     PatchMode `json:"mode"`
	Patched  bool      `json:"patched"`
}

// Patch rewrites the body of the unversioned draft the same title, date, and
// categories would have produced. The whole file is replaced; validation
// happens before any write so a rejected request never leaves a partial one.
func (s *Service) Patch(_ context.Context, req PatchRequest) (*PatchResult, error) {
	if err := rejectTraversalAll(req.Date, req.Categories, req.Title); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.BodyMarkdown) == "" {
		return nil, fmt.Errorf("%w: bodyMarkdown must not be empty", apperr.ErrInvalid)
	}

	mode := req.Mode
	if mode == "" {
		mode = PatchModeReplacePlaceholder
	}
	placeholder := req.Placeholder
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}

	rel, err := s.draftPath(req.Date, req.Categories, req.Title)
	if err != nil {
		return nil, err
	}
	data, err := s.ws.Read(rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: draft file %s", apperr.ErrNotFound, rel)
		}
		return nil, err
	}
	content := string(data)

	switch mode {
	case PatchModeAppend:
		content = content + "\n\n" + req.BodyMarkdown
	case PatchModeReplacePlaceholder:
		if !strings.Contains(content, placeholder) {
			return nil, fmt.Errorf("%w: placeholder not found", apperr.ErrConflict)
		}
		content = strings.Replace(content, placeholder, req.BodyMarkdown, 1)
	default:
		return nil, fmt.Errorf("%w: unknown patch mode %q", apperr.ErrInvalid, mode)
	}

	if err := s.ws.Write(rel, []byte(content)); err != nil {
		return nil, err
	}
	abs, err := s.ws.Abs(rel)
	if err != nil {
		return nil, err
	}
	return &PatchResult{OK: true, FilePath: abs, Mode: mode, Patched: true}, nil
}

// ImagesMode selects how computed image URLs are applied to the draft.
type ImagesMode string

const (
	// ImagesModeReplaceSlots requires a slot marker per target and
	// conflicts when one is missing.
	ImagesModeReplaceSlots ImagesMode = "replaceSlots"
	// ImagesModeInsertSlots falls back to best-effort placement for
	// targets without a marker.
	ImagesModeInsertSlots ImagesMode = "insertSlots"
	// ImagesModeNoPatch only computes the URL map; the draft is not
	// written.
	ImagesModeNoPatch ImagesMode = "noPatch"
)

// ImagesRequest names the image targets to apply to a draft.
type ImagesRequest struct {
	Date                       string
	Categories                 string
	Title                      string
	Targets                    []string
	Mode                       ImagesMode // ImagesModeReplaceSlots when empty
	SlotPrefix                 string     // service default when empty
	ImageExt                   string     // DefaultImageExt when empty
	BaseURL                    string     // service default when empty
	UpdateFrontmatterThumbnail *bool      // true when nil
}

// ImagesResult reports the computed URL map and what was rewritten.
type ImagesResult struct {
	OK                          bool              `json:"ok"`
	FilePath                    string            `json:"filePath"`
	Mode                        ImagesMode        `json:"mode"`
	UpdatedFrontmatterThumbnail bool              `json:"updatedFrontmatterThumbnail"`
	Applied                     map[string]string `json:"applied"`
}

// ApplyImages computes canonical image URLs for each target and, unless mode
// is noPatch, rewrites slot markers and the frontmatter thumbnail in the
// draft. Each marker occurrence is replaced with an <img> tag; a missing
// marker is a conflict in replaceSlots mode and a best-effort insertion in
// insertSlots mode (banner goes right after the frontmatter, everything else
// is appended).
func (s *Service) ApplyImages(_ context.Context, req ImagesRequest) (*ImagesResult, error) {
	if err := rejectTraversalAll(req.Date, req.Categories, req.Title); err != nil {
		return nil, err
	}

	mode := req.Mode
	if mode == "" {
		mode = ImagesModeReplaceSlots
	}
	slotPrefix := req.SlotPrefix
	if slotPrefix == "" {
		slotPrefix = s.slotPrefix
	}
	ext := req.ImageExt
	if ext == "" {
		ext = DefaultImageExt
	}
	baseURL := s.baseURL
	if req.BaseURL != "" {
		baseURL = strings.TrimRight(req.BaseURL, "/")
	}
	updateThumbnail := true
	if req.UpdateFrontmatterThumbnail != nil {
		updateThumbnail = *req.UpdateFrontmatterThumbnail
	}

	rel, err := s.draftPath(req.Date, req.Categories, req.Title)
	if err != nil {
		return nil, err
	}
	abs, err := s.ws.Abs(rel)
	if err != nil {
		return nil, err
	}

	targets := dedupe(req.Targets)
	applied := make(map[string]string, len(targets))
	for _, target := range targets {
		applied[target] = fmt.Sprintf("%s/%s/%s/%s.%s", baseURL, req.Date, req.Categories, target, ext)
	}

	if mode == ImagesModeNoPatch {
		ok, err := s.ws.Exists(rel)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: draft file %s", apperr.ErrNotFound, rel)
		}
		return &ImagesResult{OK: true, FilePath: abs, Mode: mode, Applied: applied}, nil
	}

	data, err := s.ws.Read(rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: draft file %s", apperr.ErrNotFound, rel)
		}
		return nil, err
	}
	content := string(data)

	updatedFrontmatter := false
	if thumbURL, ok := applied["thumbnail"]; ok && updateThumbnail {
		content, updatedFrontmatter = setThumbnail(content, thumbURL)
	}

	for _, target := range targets {
		if target == "thumbnail" {
			continue
		}
		slot := fmt.Sprintf("<!-- %s: %s -->", slotPrefix, target)
		imageTag := fmt.Sprintf("<img src=%q/>", applied[target])

		if strings.Contains(content, slot) {
			content = strings.ReplaceAll(content, slot, imageTag)
			continue
		}
		if mode == ImagesModeReplaceSlots {
			return nil, fmt.Errorf("%w: slot not found for target %q", apperr.ErrConflict, target)
		}
		if target == "banner" {
			content = insertBanner(content, imageTag)
			continue
		}
		content = content + "\n\n" + imageTag
	}

	if err := s.ws.Write(rel, []byte(content)); err != nil {
		return nil, err
	}
	return &ImagesResult{
		OK:                          true,
		FilePath:                    abs,
		Mode:                        mode,
		UpdatedFrontmatterThumbnail: updatedFrontmatter,
		Applied:                     applied,
	}, nil
}

// draftPath recomputes the version-0 path the writer would have used, so
// later requests can locate a draft without any stored mapping.
func (s *Service) draftPath(date, categories, title string) (string, error) {
	base := pathsafe.NormalizeName(title)
	if base == "" {
		return "", fmt.Errorf("%w: file name could not be derived from title", apperr.ErrInvalid)
	}
	return path.Join(date, categories, base+".md"), nil
}

func rejectTraversal(value, field string) error {
	if pathsafe.HasTraversal(value) {
		return fmt.Errorf("%w: %s contains path characters", apperr.ErrInvalid, field)
	}
	return nil
}

func rejectTraversalAll(date, categories, title string) error {
	if err := rejectTraversal(date, "date"); err != nil {
		return err
	}
	if err := rejectTraversal(categories, "categories"); err != nil {
		return err
	}
	return rejectTraversal(title, "title")
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
