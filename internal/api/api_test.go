package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/fihrist/internal/graph"
	"github.com/starford/fihrist/internal/quran"
	"github.com/starford/fihrist/internal/store"
	"github.com/starford/fihrist/internal/studyservice"
)

// testEnv sets up a temp SQLite DB, services, and router. tokens of nil means
// auth disabled; otherwise auth is enabled with the given token→user map.
func testEnv(t *testing.T, tokens map[string]string) http.Handler {
	t.Helper()
	router, _ := testEnvWithData(t, tokens, nil)
	return router
}

func testEnvWithData(t *testing.T, tokens map[string]string, sseHandler http.Handler) (http.Handler, string) {
	t.Helper()

	dataDir := t.TempDir()
	dbFile, err := os.CreateTemp("", "fihrist-api-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := studyservice.NewService(db, graph.NewService(db))
	captures := quran.NewService(db)
	router := NewRouter(svc, captures, tokens != nil, tokens, sseHandler, dataDir, nil)
	return router, dataDir
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSaveAndGetEntity(t *testing.T) {
	router := testEnv(t, nil)

	w := doJSON(t, router, http.MethodPost, "/entities", map[string]any{
		"kind": "word", "id": "w-kitab", "title": "kitab",
		"arabic": "كِتَاب", "transliteration": "kitab", "meanings": []string{"book"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/entities/word/w-kitab", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var detail EntityDetail
	_ = json.Unmarshal(w.Body.Bytes(), &detail)
	if detail.Title != "kitab" {
		t.Errorf("title = %q, want kitab", detail.Title)
	}
	if detail.Links == nil {
		t.Error("links should be present on detail")
	}
}

func TestSaveEntity_UnknownKind(t *testing.T) {
	router := testEnv(t, nil)

	w := doJSON(t, router, http.MethodPost, "/entities", map[string]any{
		"kind": "galaxy", "id": "x",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown kind = %d, want 400", w.Code)
	}
}

func TestGetEntity_NotFound(t *testing.T) {
	router := testEnv(t, nil)

	w := doJSON(t, router, http.MethodGet, "/entities/word/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing entity = %d, want 404", w.Code)
	}
}

func TestNoteSaveMaterializesBacklinks(t *testing.T) {
	router := testEnv(t, nil)

	doJSON(t, router, http.MethodPost, "/entities", map[string]any{
		"kind": "word", "id": "w-rahma", "title": "rahma", "arabic": "رحمة",
	})

	doc := map[string]any{
		"type": "doc",
		"content": []any{map[string]any{
			"type": "paragraph",
			"content": []any{map[string]any{
				"type": "text", "text": "mercy",
				"marks": []any{map[string]any{
					"type":  "entityReference",
					"attrs": map[string]any{"targetType": "word", "targetId": "w-rahma"},
				}},
			}},
		}},
	}
	w := doJSON(t, router, http.MethodPost, "/entities", map[string]any{
		"kind": "note", "id": "n1", "title": "tafsir note", "doc": doc,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("note create = %d, body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/entities/word/w-rahma/backlinks", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("backlinks = %d", w.Code)
	}
	var resp BacklinksResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 {
		t.Fatalf("backlinks total = %d, want 1", resp.Total)
	}
	if resp.Backlinks[0].NoteID != "n1" {
		t.Errorf("note id = %q, want n1", resp.Backlinks[0].NoteID)
	}
}

func TestDeleteEntityCascades(t *testing.T) {
	router := testEnv(t, nil)

	for _, id := range []string{"w-a", "w-b"} {
		doJSON(t, router, http.MethodPost, "/entities", map[string]any{"kind": "word", "id": id, "title": id})
	}
	w := doJSON(t, router, http.MethodPost, "/links", map[string]any{
		"source":       map[string]string{"kind": "word", "id": "w-a"},
		"target":       map[string]string{"kind": "word", "id": "w-b"},
		"relationship": "synonym",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("link create = %d, body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodDelete, "/entities/word/w-b", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/entities/word/w-a/links", nil)
	var links graph.Links
	_ = json.Unmarshal(w.Body.Bytes(), &links)
	if len(links.Outgoing) != 0 || len(links.Incoming) != 0 {
		t.Errorf("links survived cascade: %+v", links)
	}
}

func TestCreateLink_Conflicts(t *testing.T) {
	router := testEnv(t, nil)

	for _, id := range []string{"w-x", "w-y"} {
		doJSON(t, router, http.MethodPost, "/entities", map[string]any{"kind": "word", "id": id, "title": id})
	}
	body := map[string]any{
		"source":       map[string]string{"kind": "word", "id": "w-x"},
		"target":       map[string]string{"kind": "word", "id": "w-y"},
		"relationship": "related",
	}
	if w := doJSON(t, router, http.MethodPost, "/links", body); w.Code != http.StatusCreated {
		t.Fatalf("first link = %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodPost, "/links", body); w.Code != http.StatusConflict {
		t.Errorf("duplicate link = %d, want 409", w.Code)
	}

	self := map[string]any{
		"source":       map[string]string{"kind": "word", "id": "w-x"},
		"target":       map[string]string{"kind": "word", "id": "w-x"},
		"relationship": "related",
	}
	if w := doJSON(t, router, http.MethodPost, "/links", self); w.Code != http.StatusConflict {
		t.Errorf("self link = %d, want 409", w.Code)
	}
}

func TestUpdateAndDeleteLink(t *testing.T) {
	router := testEnv(t, nil)

	for _, id := range []string{"w-1", "w-2"} {
		doJSON(t, router, http.MethodPost, "/entities", map[string]any{"kind": "word", "id": id, "title": id})
	}
	w := doJSON(t, router, http.MethodPost, "/links", map[string]any{
		"source":       map[string]string{"kind": "word", "id": "w-1"},
		"target":       map[string]string{"kind": "word", "id": "w-2"},
		"relationship": "related",
	})
	var created struct {
		ID int64 `json:"id"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &created)

	w = doJSON(t, router, http.MethodPatch, fmt.Sprintf("/links/%d", created.ID),
		map[string]any{"relationship": "synonym"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("patch = %d, body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/links/%d", created.ID), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/links/%d", created.ID), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("delete missing = %d, want 404", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	router := testEnv(t, nil)

	doJSON(t, router, http.MethodPost, "/entities", map[string]any{
		"kind": "word", "id": "w-kitab", "title": "kitab", "arabic": "كِتَاب",
	})

	w := doJSON(t, router, http.MethodGet, "/search?q=%D9%83%D8%AA%D8%A7%D8%A8", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 {
		t.Fatalf("results = %d, want 1", len(resp.Results))
	}
	if resp.Results[0].Score != 1.0 {
		t.Errorf("score = %v, want 1.0", resp.Results[0].Score)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	router := testEnv(t, nil)

	w := doJSON(t, router, http.MethodGet, "/search", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestSearchUnknownKindFilter(t *testing.T) {
	router := testEnv(t, nil)

	w := doJSON(t, router, http.MethodGet, "/search?q=kitab&kinds=planet", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad kinds filter = %d, want 400", w.Code)
	}
}

func TestBacklinkCounts(t *testing.T) {
	router := testEnv(t, nil)

	w := doJSON(t, router, http.MethodGet, "/backlinks/counts?refs=word:w1,verse:v1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("counts = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Counts map[string]int `json:"counts"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Counts["word:w1"] != 0 || resp.Counts["verse:v1"] != 0 {
		t.Errorf("counts = %v, want zeros", resp.Counts)
	}

	w = doJSON(t, router, http.MethodGet, "/backlinks/counts?refs=wordw1", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed refs = %d, want 400", w.Code)
	}
}

func TestCapturesLifecycle(t *testing.T) {
	router := testEnv(t, nil)

	w := doJSON(t, router, http.MethodPost, "/captures", map[string]any{
		"surah": 2, "ayah_start": 255, "ayah_end": 257, "note": "ayat al-kursi passage",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create capture = %d, body = %s", w.Code, w.Body.String())
	}
	var created struct {
		ID int64 `json:"id"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &created)

	w = doJSON(t, router, http.MethodGet, "/captures/overlapping?surah=2&start=256", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("overlapping = %d", w.Code)
	}
	var resp CapturesResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Captures) != 1 {
		t.Fatalf("overlapping = %d captures, want 1", len(resp.Captures))
	}

	w = doJSON(t, router, http.MethodGet, "/captures/overlapping?surah=2&start=258", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Captures) != 0 {
		t.Errorf("adjacent range should not overlap, got %d", len(resp.Captures))
	}

	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/captures/%d", created.ID), nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete capture = %d", w.Code)
	}
}

func TestCreateCapture_InvalidRange(t *testing.T) {
	router := testEnv(t, nil)

	w := doJSON(t, router, http.MethodPost, "/captures", map[string]any{
		"surah": 115, "ayah_start": 1,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("surah 115 = %d, want 400", w.Code)
	}
}

// Auth tests. Writes without identity are rejected; reads pass through and
// the services degrade them to empty results.

func TestAuth_WriteRequiresToken(t *testing.T) {
	router := testEnv(t, map[string]string{"tok-a": "alice"})

	w := doJSON(t, router, http.MethodPost, "/entities", map[string]any{"kind": "word", "id": "w1"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed write = %d, want 401", w.Code)
	}
}

func TestAuth_ReadDegradesToEmpty(t *testing.T) {
	router := testEnv(t, map[string]string{"tok-a": "alice"})

	w := doJSON(t, router, http.MethodGet, "/entities?kind=word", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("unauthed read = %d, want 200", w.Code)
	}
	var resp EntityListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 0 {
		t.Errorf("unauthed list total = %d, want 0", resp.Total)
	}
}

func TestAuth_TokenMapsToUser(t *testing.T) {
	router := testEnv(t, map[string]string{"tok-a": "alice", "tok-b": "basim"})

	body, _ := json.Marshal(map[string]any{"kind": "word", "id": "w1", "title": "alice word"})
	req := httptest.NewRequest(http.MethodPost, "/entities", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer tok-a")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("authed create = %d, body = %s", w.Code, w.Body.String())
	}

	// Another user cannot see it.
	req = httptest.NewRequest(http.MethodGet, "/entities/word/w1", nil)
	req.Header.Set("Authorization", "Bearer tok-b")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign get = %d, want 404", w.Code)
	}
}

func TestAuth_Disabled(t *testing.T) {
	router := testEnv(t, nil)

	w := doJSON(t, router, http.MethodPost, "/entities", map[string]any{"kind": "word", "id": "w1"})
	if w.Code != http.StatusCreated {
		t.Errorf("disabled auth write = %d, want 201", w.Code)
	}
}

// SSE endpoint auth tests.

func TestSSEEvents_AuthProtectedWrite(t *testing.T) {
	sseHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		<-r.Context().Done()
	})
	router, _ := testEnvWithData(t, nil, sseHandler)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE = %d, want 200", w.Code)
	}
}

// Attachment tests.

func uploadFile(t *testing.T, router http.Handler, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.Copy(part, bytes.NewReader(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadAndServeAttachment(t *testing.T) {
	router, dataDir := testEnvWithData(t, nil, nil)

	w := uploadFile(t, router, "recitation.mp3", []byte("fake-audio-data"))
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	var resp AttachmentUploadResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Filename != "recitation.mp3" {
		t.Errorf("filename = %q", resp.Filename)
	}

	data, err := os.ReadFile(filepath.Join(dataDir, "attachments", "recitation.mp3"))
	if err != nil {
		t.Fatalf("file not on disk: %v", err)
	}
	if string(data) != "fake-audio-data" {
		t.Errorf("content mismatch")
	}
}

func TestServeAttachment_TraversalBlocked(t *testing.T) {
	ah := NewAttachmentHandler(t.TempDir())
	r := chi.NewRouter()
	r.Get("/attachments/{filename}", ah.ServeFile)

	for _, name := range []string{"../secret.db", "../../etc/passwd"} {
		req := httptest.NewRequest(http.MethodGet, "/attachments/"+name, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code == http.StatusOK {
			t.Errorf("traversal %q should not return 200", name)
		}
	}
}

func TestUploadAttachment_MissingFileField(t *testing.T) {
	router, _ := testEnvWithData(t, nil, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("wrong", "data")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing field = %d, want 400", w.Code)
	}
}
