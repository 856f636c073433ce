package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"draftsmith/internal/draft"
	"draftsmith/internal/gitflow"
	"draftsmith/internal/testutil"
	"draftsmith/internal/workspace"
)

// scriptedRunner answers git invocations from a map keyed by the joined
// argument list. Unscripted calls succeed with empty output, which makes
// status report a clean tree.
type scriptedRunner struct {
	responses map[string]scriptedResponse
}

type scriptedResponse struct {
	stdout string
	err    error
}

func (s *scriptedRunner) Run(_ context.Context, _ string, args ...string) (string, string, error) {
	if resp, ok := s.responses[strings.Join(args, " ")]; ok {
		return resp.stdout, "", resp.err
	}
	if len(args) > 0 && args[0] == "show-ref" {
		return "", "", &gitflow.CommandError{Args: args, ExitCode: 1}
	}
	return "", "", nil
}

// testEnv sets up a temp workspace, draft service, scripted git engine, and
// router. authToken="" means disabled mode.
func testEnv(t *testing.T, authToken string) (*workspace.FS, http.Handler) {
	t.Helper()
	ws, router, _ := testEnvWithGit(t, authToken, &scriptedRunner{})
	return ws, router
}

func testEnvWithGit(t *testing.T, authToken string, run gitflow.Runner) (*workspace.FS, http.Handler, *gitflow.Engine) {
	t.Helper()

	_, ws := testutil.TestWorkspace(t)
	drafts := draft.NewService(ws, draft.Options{
		Author:       "JH8459",
		ImageBaseURL: "https://cdn.example.com/blog",
	})
	git := gitflow.NewEngine(run, gitflow.Config{
		RepoRoot:  testutil.TestRepoRoot(t),
		UserName:  "JH8459",
		UserEmail: "jh8459@example.com",
	})

	router := NewRouter(drafts, git, authToken != "", authToken)
	return ws, router, git
}

func post(router http.Handler, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func generateBody() map[string]any {
	return map[string]any{
		"emoji":      "🚀",
		"title":      "Go Draft Server",
		"brief":      "A short brief that is comfortably longer than thirty characters.",
		"outline":    []string{"Intro", "Design", "Wrap-up"},
		"categories": "Backend",
		"date":       "2025-12-24",
	}
}

func TestGenerateDraft(t *testing.T) {
	ws, router := testEnv(t, "")

	w := post(router, "/generate", generateBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("generate status = %d, body = %s", w.Code, w.Body.String())
	}

	var res draft.GenerateResult
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.FileName != "go-draft-server.md" {
		t.Errorf("fileName = %q", res.FileName)
	}
	if res.Slug != "go-draft-server-backend" {
		t.Errorf("slug = %q", res.Slug)
	}

	data, err := ws.Read("2025-12-24/Backend/go-draft-server.md")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "title: Go Draft Server") {
		t.Error("frontmatter title missing")
	}

	// Same title again lands in a versioned sibling, never a 409.
	w = post(router, "/generate", generateBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("second generate status = %d", w.Code)
	}
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.FileName != "go-draft-server_1.md" {
		t.Errorf("second fileName = %q, want go-draft-server_1.md", res.FileName)
	}
}

func TestGenerateValidation(t *testing.T) {
	_, router := testEnv(t, "")

	body := generateBody()
	body["title"] = ""
	if w := post(router, "/generate", body); w.Code != http.StatusBadRequest {
		t.Errorf("missing title = %d, want 400", w.Code)
	}

	body = generateBody()
	body["title"] = "../escape"
	if w := post(router, "/generate", body); w.Code != http.StatusBadRequest {
		t.Errorf("traversal title = %d, want 400", w.Code)
	}

	body = generateBody()
	body["brief"] = "too short"
	if w := post(router, "/generate", body); w.Code != http.StatusBadRequest {
		t.Errorf("short brief = %d, want 400", w.Code)
	}

	body = generateBody()
	body["outline"] = []string{"only", "two"}
	if w := post(router, "/generate", body); w.Code != http.StatusBadRequest {
		t.Errorf("short outline = %d, want 400", w.Code)
	}
}

func TestGenerateInvalidJSON(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader("{nope"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestPatchDraft(t *testing.T) {
	ws, router := testEnv(t, "")
	post(router, "/generate", generateBody())

	w := post(router, "/patch", map[string]any{
		"date":         "2025-12-24",
		"categories":   "Backend",
		"title":        "Go Draft Server",
		"bodyMarkdown": "## Section\n\nReal content.",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body = %s", w.Code, w.Body.String())
	}

	data, err := ws.Read("2025-12-24/Backend/go-draft-server.md")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), draft.DefaultPlaceholder) {
		t.Error("placeholder survived the patch")
	}

	// Placeholder is consumed; a second replace conflicts.
	w = post(router, "/patch", map[string]any{
		"date":         "2025-12-24",
		"categories":   "Backend",
		"title":        "Go Draft Server",
		"bodyMarkdown": "again",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("second patch = %d, want 409", w.Code)
	}
}

func TestPatchNotFound(t *testing.T) {
	_, router := testEnv(t, "")

	w := post(router, "/patch", map[string]any{
		"date":         "2025-12-24",
		"categories":   "Backend",
		"title":        "Never Generated",
		"bodyMarkdown": "body",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	var res errResponse
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Error != "file not found" {
		t.Errorf("error = %q", res.Error)
	}
}

func TestImagesNoPatch(t *testing.T) {
	_, router := testEnv(t, "")
	post(router, "/generate", generateBody())

	w := post(router, "/images", map[string]any{
		"date":       "2025-12-24",
		"categories": "Backend",
		"title":      "Go Draft Server",
		"targets":    []string{"thumbnail", "banner"},
		"mode":       "noPatch",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("images status = %d, body = %s", w.Code, w.Body.String())
	}

	var res draft.ImagesResult
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	want := "https://cdn.example.com/blog/2025-12-24/Backend/thumbnail.png"
	if res.Applied["thumbnail"] != want {
		t.Errorf("thumbnail URL = %q, want %q", res.Applied["thumbnail"], want)
	}
}

func TestImagesSlotMissing(t *testing.T) {
	_, router := testEnv(t, "")
	post(router, "/generate", generateBody())

	w := post(router, "/images", map[string]any{
		"date":       "2025-12-24",
		"categories": "Backend",
		"title":      "Go Draft Server",
		"targets":    []string{"section-1"},
	})
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409, body = %s", w.Code, w.Body.String())
	}
}

func TestImagesValidation(t *testing.T) {
	_, router := testEnv(t, "")

	w := post(router, "/images", map[string]any{
		"date":       "2025-12-24",
		"categories": "Backend",
		"title":      "Go Draft Server",
		"targets":    []string{"Bad Target!"},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad target = %d, want 400", w.Code)
	}

	w = post(router, "/images", map[string]any{
		"date":       "2025-12-24",
		"categories": "Backend",
		"title":      "Go Draft Server",
		"targets":    []string{"thumbnail"},
		"imageExt":   "gif",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad ext = %d, want 400", w.Code)
	}
}

func TestGitPush(t *testing.T) {
	run := &scriptedRunner{responses: map[string]scriptedResponse{
		"status --porcelain -- posts/a.md":        {stdout: " M posts/a.md"},
		"diff --cached --name-only -- posts/a.md": {stdout: "posts/a.md"},
		"rev-parse HEAD":                          {stdout: "abc123"},
	}}
	_, router, _ := testEnvWithGit(t, "", run)

	w := post(router, "/git/push", map[string]any{
		"commitMessage": "draft: add post",
		"paths":         []string{"posts/a.md"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("push status = %d, body = %s", w.Code, w.Body.String())
	}

	var res gitflow.PushResult
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if !res.Pushed {
		t.Error("pushed = false, want true")
	}
	if res.CommitSha == nil || *res.CommitSha != "abc123" {
		t.Errorf("commitSha = %v", res.CommitSha)
	}
}

func TestGitPushNoChanges(t *testing.T) {
	_, router := testEnv(t, "")

	w := post(router, "/git/push", map[string]any{
		"commitMessage": "draft: add post",
		"paths":         []string{"posts/a.md"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("push status = %d, body = %s", w.Code, w.Body.String())
	}
	var res gitflow.PushResult
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Pushed {
		t.Error("pushed = true, want false")
	}
}

func TestGitPushFailure(t *testing.T) {
	run := &scriptedRunner{responses: map[string]scriptedResponse{
		"status --porcelain -- posts/a.md": {err: &gitflow.CommandError{
			Args: []string{"status"}, ExitCode: 128, Stderr: "fatal: not a git repository",
		}},
	}}
	_, router, _ := testEnvWithGit(t, "", run)

	w := post(router, "/git/push", map[string]any{
		"commitMessage": "draft: add post",
		"paths":         []string{"posts/a.md"},
	})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("push status = %d", w.Code)
	}
	var res errResponse
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Error != "git command failed" {
		t.Errorf("error = %q, want generic message", res.Error)
	}
	if strings.Contains(w.Body.String(), "fatal") {
		t.Error("git stderr leaked into the response")
	}
}

func TestGitPushValidation(t *testing.T) {
	_, router := testEnv(t, "")

	if w := post(router, "/git/push", map[string]any{"paths": []string{"a.md"}}); w.Code != http.StatusBadRequest {
		t.Errorf("missing message = %d, want 400", w.Code)
	}
	if w := post(router, "/git/push", map[string]any{"commitMessage": "m"}); w.Code != http.StatusBadRequest {
		t.Errorf("missing paths = %d, want 400", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret")

	data, _ := json.Marshal(generateBody())
	req := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewReader(data))
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret")

	if w := post(router, "/generate", generateBody()); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret")

	data, _ := json.Marshal(generateBody())
	req := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewReader(data))
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "")

	if w := post(router, "/generate", generateBody()); w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", w.Code)
	}
}
