package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"scribe/internal/api"
	"scribe/internal/paging"
	"scribe/internal/session"
	"scribe/internal/storage"
)

type fixture struct {
	server *httptest.Server
	mux    *http.ServeMux
	store  *session.Store
	client *Client

	mu   sync.Mutex
	hits []string
}

func newFixture(t *testing.T, credential string) *fixture {
	t.Helper()
	f := &fixture{mux: http.NewServeMux()}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.hits = append(f.hits, r.Method+" "+r.URL.RequestURI())
		f.mu.Unlock()
		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.server.Close)

	gw, err := api.NewGateway(f.server.URL + "/api")
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}
	f.store = session.New(storage.NewMemoryStorage())
	if credential != "" {
		if err := f.store.SetSession(&session.Identity{ID: 1, Email: "ada@example.com", Role: session.RoleUser}, credential); err != nil {
			t.Fatalf("SetSession: %v", err)
		}
	}
	f.client = New(api.NewPipeline(gw, f.store), f.store)
	return f
}

func (f *fixture) handle(pattern string, handler http.HandlerFunc) {
	f.mux.HandleFunc(pattern, handler)
}

func (f *fixture) requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.hits...)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestLoginStoresSession(t *testing.T) {
	f := newFixture(t, "")
	f.handle("POST /api/login/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("login must not carry a credential")
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"email":"ada@example.com"`) {
			t.Errorf("unexpected body %s", body)
		}
		writeJSON(w, http.StatusOK, `{"message":"ok","token":"tok-new","data":{"id":4,"email":"ada@example.com","name":"Ada","role":"admin","theme":"light"}}`)
	})

	resp, err := f.client.Auth.Login(context.Background(), " ada@example.com ", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Token != "tok-new" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if f.store.Credential() != "tok-new" || !f.store.IsAdmin() {
		t.Fatalf("session not stored: %+v", f.store.State())
	}
}

func TestLoginFailureIsBootstrapError(t *testing.T) {
	f := newFixture(t, "tok-old")
	f.handle("POST /api/login/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"error":"Invalid email or password"}`)
	})

	_, err := f.client.Auth.Login(context.Background(), "ada@example.com", "wrong")
	if !errors.Is(err, api.ErrAuthBootstrap) {
		t.Fatalf("expected ErrAuthBootstrap, got %v", err)
	}
	if api.Message(err) != "Invalid email or password" {
		t.Fatalf("Message = %q", api.Message(err))
	}
	if f.store.Credential() != "tok-old" {
		t.Fatal("failed login must not clear the existing session")
	}
}

func TestLogoutClearsSession(t *testing.T) {
	f := newFixture(t, "tok-1")
	f.handle("POST /api/logout/tok-1/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Token tok-1" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		writeJSON(w, http.StatusOK, `{"message":"logged out"}`)
	})

	if err := f.client.Auth.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if f.store.IsAuthenticated() {
		t.Fatal("expected anonymous session")
	}
}

func TestUpdateProfileRefreshesIdentity(t *testing.T) {
	f := newFixture(t, "tok-1")
	f.handle("PUT /api/profile/tok-1/", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"theme":"dark"}` {
			t.Errorf("unexpected body %s", body)
		}
		writeJSON(w, http.StatusOK, `{"id":1,"email":"ada@example.com","theme":"dark","role":"user"}`)
	})

	theme := "dark"
	if _, err := f.client.Auth.UpdateProfile(context.Background(), ProfileUpdate{Theme: &theme}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	st := f.store.State()
	if st.Credential != "tok-1" || st.Identity == nil || st.Identity.Theme != "dark" {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestFindRecordScansPages(t *testing.T) {
	f := newFixture(t, "tok-1")
	f.handle("GET /api/audio-records/tok-1/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			next := f.server.URL + "/api/audio-records/tok-1/?page=2"
			writeJSON(w, http.StatusOK, fmt.Sprintf(`{"count":3,"next":%q,"previous":null,"results":[{"id":"a","status":"completed"},{"id":"b","status":"pending"}]}`, next))
		case "2":
			writeJSON(w, http.StatusOK, `{"count":3,"next":null,"previous":"/api/audio-records/tok-1/?page=1","results":[{"id":"c","original_filename":"call.wav","status":"processing"}]}`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
			writeJSON(w, http.StatusNotFound, `{"detail":"Invalid page."}`)
		}
	})

	rec, err := f.client.Audio.FindRecord(context.Background(), "c")
	if err != nil {
		t.Fatalf("FindRecord: %v", err)
	}
	if rec.OriginalFilename != "call.wav" || rec.Status != AudioProcessing {
		t.Fatalf("unexpected record %+v", rec)
	}
	if got := len(f.requests()); got != 2 {
		t.Fatalf("expected 2 requests, got %v", f.requests())
	}

	_, err = f.client.Audio.FindRecord(context.Background(), "missing")
	if !errors.Is(err, paging.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}

	all, err := f.client.Audio.AllRecords(context.Background())
	if err != nil {
		t.Fatalf("AllRecords: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
}

func TestFindRecordPropagatesServerFailure(t *testing.T) {
	f := newFixture(t, "tok-1")
	f.handle("GET /api/audio-records/tok-1/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			writeJSON(w, http.StatusOK, `{"count":2,"next":"?page=2","previous":null,"results":[{"id":"a"}]}`)
			return
		}
		writeJSON(w, http.StatusBadGateway, `{"detail":"upstream down"}`)
	})

	_, err := f.client.Audio.FindRecord(context.Background(), "zzz")
	if errors.Is(err, paging.ErrRecordNotFound) {
		t.Fatal("server failure reported as not found")
	}
	if api.StatusCode(err) != http.StatusBadGateway {
		t.Fatalf("expected 502 to propagate, got %v", err)
	}
}

func TestUploadSendsForm(t *testing.T) {
	f := newFixture(t, "tok-1")
	f.handle("POST /api/upload/tok-1/", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
			return
		}
		if r.FormValue("document_type") != "sop" || r.FormValue("existing_document_id") != "" {
			t.Errorf("unexpected fields %v", r.MultipartForm.Value)
		}
		file, header, err := r.FormFile("audio_file")
		if err != nil {
			t.Errorf("audio_file: %v", err)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "call.wav" || string(data) != "RIFF" {
			t.Errorf("unexpected file %s %q", header.Filename, data)
		}
		if _, _, err := r.FormFile("text_file"); err != nil {
			t.Errorf("text_file: %v", err)
		}
		writeJSON(w, http.StatusOK, `{"session_id":"s-9","matched_words":8,"total_words":10,"coverage":0.8}`)
	})

	result, err := f.client.Audio.Upload(context.Background(), UploadAudio{
		AudioName:    "call.wav",
		Audio:        strings.NewReader("RIFF"),
		TextName:     "script.txt",
		Text:         strings.NewReader("hello"),
		DocumentType: "sop",
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if result.SessionID != "s-9" || result.Coverage != 0.8 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestSpeakerEndpoints(t *testing.T) {
	f := newFixture(t, "tok-1")
	f.handle("POST /api/audio/tok-1/diarization/run/", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"audio_id":"a1"}` {
			t.Errorf("unexpected body %s", body)
		}
		writeJSON(w, http.StatusAccepted, `{"status":"queued"}`)
	})
	f.handle("GET /api/audio/tok-1/a1/diarization/map/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[{"audio_id":"a1","speaker_label":"SPEAKER_00","name":"Ada"}]`)
	})

	out, err := f.client.Audio.RunDiarization(context.Background(), "a1")
	if err != nil {
		t.Fatalf("RunDiarization: %v", err)
	}
	if string(out) != `{"status":"queued"}` {
		t.Fatalf("unexpected run response %s", out)
	}
	mappings, err := f.client.Audio.SpeakerMappings(context.Background(), "a1")
	if err != nil {
		t.Fatalf("SpeakerMappings: %v", err)
	}
	if len(mappings) != 1 || mappings[0].Name != "Ada" {
		t.Fatalf("unexpected mappings %+v", mappings)
	}
	if _, err := f.client.Audio.MapSpeaker(context.Background(), SpeakerMapping{AudioID: "a1"}); err == nil {
		t.Fatal("expected validation error for incomplete mapping")
	}
}

func TestDownloadURLs(t *testing.T) {
	f := newFixture(t, "tok-1")
	got, err := f.client.Audio.DownloadURL("s-9")
	if err != nil {
		t.Fatalf("DownloadURL: %v", err)
	}
	if want := f.server.URL + "/api/download/tok-1/s-9/"; got != want {
		t.Fatalf("DownloadURL = %q, want %q", got, want)
	}
	got, err = f.client.Audio.DiarizedDownloadURL("s-9")
	if err != nil {
		t.Fatalf("DiarizedDownloadURL: %v", err)
	}
	if want := f.server.URL + "/api/download/with-diarization/tok-1/s-9/"; got != want {
		t.Fatalf("DiarizedDownloadURL = %q, want %q", got, want)
	}

	anon := newFixture(t, "")
	if _, err := anon.client.Audio.DownloadURL("s-9"); !errors.Is(err, session.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestAnonymousCallsFailBeforeDispatch(t *testing.T) {
	f := newFixture(t, "")
	if _, err := f.client.Dashboard.Summary(context.Background()); !errors.Is(err, session.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if len(f.requests()) != 0 {
		t.Fatalf("unexpected requests %v", f.requests())
	}
}

func TestDashboardInvalidationClearsSession(t *testing.T) {
	f := newFixture(t, "tok-1")
	f.handle("GET /api/dashboard/summary/tok-1/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"detail":"Invalid token."}`)
	})

	_, err := f.client.Dashboard.Summary(context.Background())
	if !errors.Is(err, api.ErrSessionInvalidated) {
		t.Fatalf("expected ErrSessionInvalidated, got %v", err)
	}
	if f.store.IsAuthenticated() {
		t.Fatal("expected session cleared")
	}
}

func TestDocumentsListAndDelete(t *testing.T) {
	f := newFixture(t, "tok-1")
	f.handle("GET /api/documents/tok-1/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"documents":[{"id":"d1","name":"SOP","document_type":"sop"}],"audio_files":[{}],"total_documents":1,"total_audio_files":1}`)
	})
	f.handle("DELETE /api/documents/d1/tok-1/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	docs, err := f.client.Documents.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if docs.TotalDocuments != 1 || docs.Documents[0].DocumentType != DocumentSOP {
		t.Fatalf("unexpected docs %+v", docs)
	}
	if err := f.client.Documents.Delete(context.Background(), "d1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestAdminAndSettingsPaths(t *testing.T) {
	f := newFixture(t, "tok-1")
	f.handle("GET /api/admin/users/tok-1/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[{"id":1,"email":"a@example.com","role":"admin"},{"id":2,"email":"b@example.com","role":"reviewer"}]`)
	})
	f.handle("DELETE /api/admin/user/2/tok-1/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	f.handle("GET /api/settings/system/tok-1/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"default_sop_version":"v3","timeout_threshold":30}`)
	})
	f.handle("GET /api/audit-logs/tok-1/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[{"id":9,"action":"login","object_type":"user"}]`)
	})

	users, err := f.client.Admin.Users(context.Background())
	if err != nil || len(users) != 2 || users[1].Role != session.RoleReviewer {
		t.Fatalf("Users = %+v, %v", users, err)
	}
	if err := f.client.Admin.DeleteUser(context.Background(), 2); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	sys, err := f.client.Settings.SystemSettings(context.Background())
	if err != nil || sys.DefaultSOPVersion != "v3" {
		t.Fatalf("SystemSettings = %+v, %v", sys, err)
	}
	logs, err := f.client.Settings.AuditLogs(context.Background())
	if err != nil || len(logs) != 1 || logs[0].Action != "login" {
		t.Fatalf("AuditLogs = %+v, %v", logs, err)
	}
}
