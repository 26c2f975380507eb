package resumes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"careerpilot-backend/internal/queue"
	"careerpilot-backend/internal/shared/server/middleware"
	local "careerpilot-backend/internal/shared/storage/object/local"
)

type stubQueue struct {
	mu       sync.Mutex
	messages []queue.Message
}

func (q *stubQueue) Send(_ context.Context, msg queue.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.messages = append(q.messages, msg)
	return nil
}

func setupResumeRouter(t *testing.T) (*gin.Engine, *MemoryRepo, *stubQueue) {
	t.Helper()
	repo := NewMemoryRepo()
	store := local.New(t.TempDir())
	queueStub := &stubQueue{}
	svc := NewService(store, repo)
	svc.Queue = queueStub
	handler := NewHandler(svc)

	router := gin.New()
	api := router.Group("/api/v1")
	api.Use(middleware.Identity())
	handler.RegisterRoutes(api)

	return router, repo, queueStub
}

func uploadRequest(t *testing.T, fileName, content string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fileWriter, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fileWriter.Write([]byte(content)); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func addUserHeader(req *http.Request) {
	req.Header.Set("X-User-Id", "user-1")
}

func TestUploadAndGetResume(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router, _, queueStub := setupResumeRouter(t)

	req := uploadRequest(t, "jane.txt", "Jane Doe\nSoftware Engineer")
	addUserHeader(req)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created Response
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected resume id, got empty")
	}
	if created.ParseStatus != ParseStatusPending {
		t.Fatalf("expected status pending, got %q", created.ParseStatus)
	}
	if len(queueStub.messages) != 1 {
		t.Fatalf("expected 1 queued message, got %d", len(queueStub.messages))
	}
	if queueStub.messages[0].ResumeID != created.ID {
		t.Fatalf("queued message carries resume %q, want %q", queueStub.messages[0].ResumeID, created.ID)
	}

	reqGet := httptest.NewRequest(http.MethodGet, "/api/v1/resumes/"+created.ID, nil)
	addUserHeader(reqGet)
	respGet := httptest.NewRecorder()
	router.ServeHTTP(respGet, reqGet)

	if respGet.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", respGet.Code)
	}
	var fetched Response
	if err := json.NewDecoder(respGet.Body).Decode(&fetched); err != nil {
		t.Fatalf("decode get response: %v", err)
	}
	if fetched.FileName != "jane.txt" {
		t.Fatalf("expected fileName jane.txt, got %q", fetched.FileName)
	}
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router, repo, _ := setupResumeRouter(t)

	req := uploadRequest(t, "headshot.png", "not a resume")
	addUserHeader(req)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	list, err := repo.ListByUser(context.Background(), "user-1", 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no stored resumes, got %d", len(list))
	}
}

func TestUploadRequiresIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router, _, _ := setupResumeRouter(t)

	req := uploadRequest(t, "jane.txt", "Jane Doe")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}

func TestGetResumeOwnership(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router, repo, _ := setupResumeRouter(t)
	now := time.Now().UTC()
	resume := Resume{
		ID:          "resume-1",
		UserID:      "someone-else",
		FileName:    "jane.pdf",
		MimeType:    "application/pdf",
		SizeBytes:   100,
		StorageKey:  "key",
		ParseStatus: ParseStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.Create(context.Background(), resume); err != nil {
		t.Fatalf("create: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/resumes/resume-1", nil)
	addUserHeader(req)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.Code)
	}

	reqMissing := httptest.NewRequest(http.MethodGet, "/api/v1/resumes/missing", nil)
	addUserHeader(reqMissing)
	respMissing := httptest.NewRecorder()
	router.ServeHTTP(respMissing, reqMissing)

	if respMissing.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", respMissing.Code)
	}
}

func seedResume(t *testing.T, repo Repo, status string, parsed *ParsedRecord) {
	t.Helper()
	now := time.Now().UTC()
	resume := Resume{
		ID:          "resume-1",
		UserID:      "user-1",
		FileName:    "jane.pdf",
		MimeType:    "application/pdf",
		SizeBytes:   100,
		StorageKey:  "key",
		ParseStatus: status,
		Parsed:      parsed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.Create(context.Background(), resume); err != nil {
		t.Fatalf("create: %v", err)
	}
}

func TestReparseFailedResumeResubmits(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router, repo, queueStub := setupResumeRouter(t)
	seedResume(t, repo, ParseStatusFailed, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/resume-1/parse", nil)
	addUserHeader(req)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d", resp.Code)
	}
	stored, err := repo.GetByID(context.Background(), "user-1", "resume-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.ParseStatus != ParseStatusPending {
		t.Fatalf("expected status pending, got %q", stored.ParseStatus)
	}
	if len(queueStub.messages) != 1 {
		t.Fatalf("expected 1 queued message, got %d", len(queueStub.messages))
	}
}

func TestReparseCompletedResumeIsNoOp(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router, repo, queueStub := setupResumeRouter(t)
	seedResume(t, repo, ParseStatusCompleted, &ParsedRecord{Contact: Contact{Name: "Jane Doe"}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/resume-1/parse", nil)
	addUserHeader(req)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d", resp.Code)
	}
	stored, err := repo.GetByID(context.Background(), "user-1", "resume-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.ParseStatus != ParseStatusCompleted || stored.Parsed == nil {
		t.Fatalf("completed parse must stay stored: %+v", stored)
	}
	if len(queueStub.messages) != 0 {
		t.Fatalf("a completed parse must not submit a job, got %d messages", len(queueStub.messages))
	}
}
