package portal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseBaseURL_Normalizes(t *testing.T) {
	u, err := parseBaseURL("portal.example.org")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "https" || u.Host != "portal.example.org" {
		t.Fatalf("url = %q, want https://portal.example.org", u.String())
	}

	u, err = parseBaseURL("http://example.com:1234/portal/?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "/portal" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	if _, err := parseBaseURL("   "); err == nil {
		t.Fatalf("parseBaseURL(empty) returned nil error")
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c, err := NewClient(server.URL+"/portal", StaticToken("secret"))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return c
}

func writeEnvelope(w http.ResponseWriter, success bool, records []QueueRecord) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(Envelope{Success: &success, Data: records})
}

func TestClient_FetchConsultationQueue(t *testing.T) {
	t.Parallel()

	var gotPath, gotAgenda, gotAuth, gotRequestID, gotUA string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAgenda = r.URL.Query().Get("agendaId")
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		gotUA = r.Header.Get("User-Agent")
		writeEnvelope(w, true, []QueueRecord{
			{AttendanceID: "10", ClientID: "c1", PatientName: "Ana", StatusDescription: "Aguardando", ArrivalDate: "16/10/2026", ArrivalTime: "08:00"},
			{AttendanceID: "11", ClientID: "c2", PatientName: "Bruno", StatusDescription: "Em atendimento"},
		})
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	snap, err := c.FetchQueue(ctx, Query{Screen: ScreenConsultation, AgendaID: "42"})
	if err != nil {
		t.Fatalf("FetchQueue returned error: %v", err)
	}
	if gotPath != "/portal/api/queue/consultation" || gotAgenda != "42" {
		t.Fatalf("request = %s agendaId=%s, want consultation path with agenda 42", gotPath, gotAgenda)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("Authorization = %q, want bearer token", gotAuth)
	}
	if gotRequestID == "" {
		t.Fatalf("X-Request-ID header missing")
	}
	if !strings.HasPrefix(gotUA, "portalwatch/") {
		t.Fatalf("User-Agent = %q, want portalwatch/*", gotUA)
	}
	if snap.Len() != 2 {
		t.Fatalf("snapshot len = %d, want 2", snap.Len())
	}
	first := snap.Entries[0]
	if first.ID != "c1:10" || first.OwnerID != "c1" || first.Fields.Arrival != "16/10/2026 08:00" {
		t.Fatalf("first entry = %#v", first)
	}
}

func TestClient_FetchPatientQueuesPostsIDs(t *testing.T) {
	t.Parallel()

	for _, screen := range []Screen{ScreenEmergency, ScreenTelemedicine} {
		screen := screen
		t.Run(string(screen), func(t *testing.T) {
			t.Parallel()
			var gotMethod, gotPath string
			var gotBody struct {
				PatientIDs []string `json:"patientIds"`
			}
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				gotMethod = r.Method
				gotPath = r.URL.Path
				_ = json.NewDecoder(r.Body).Decode(&gotBody)
				writeEnvelope(w, true, nil)
			})

			_, err := c.FetchQueue(context.Background(), Query{Screen: screen, PatientIDs: []string{" 7 ", "", "8"}})
			if err != nil {
				t.Fatalf("FetchQueue returned error: %v", err)
			}
			if gotMethod != http.MethodPost || gotPath != "/portal/api/queue/"+string(screen) {
				t.Fatalf("request = %s %s", gotMethod, gotPath)
			}
			if len(gotBody.PatientIDs) != 2 || gotBody.PatientIDs[0] != "7" || gotBody.PatientIDs[1] != "8" {
				t.Fatalf("patientIds = %v, want [7 8]", gotBody.PatientIDs)
			}
		})
	}
}

func TestClient_EmptyDataIsAValidSnapshot(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, true, []QueueRecord{})
	})
	snap, err := c.FetchQueue(context.Background(), Query{Screen: ScreenConsultation, AgendaID: "1"})
	if err != nil {
		t.Fatalf("FetchQueue returned error for empty queue: %v", err)
	}
	if snap.Len() != 0 {
		t.Fatalf("snapshot len = %d, want 0", snap.Len())
	}
	if snap.CapturedAt.IsZero() {
		t.Fatalf("CapturedAt not set on empty snapshot")
	}
}

func TestClient_FailuresAreFetchErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		kind    ErrorKind
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusInternalServerError)
		}, KindServer},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("{not-json"))
		}, KindEnvelope},
		{"success false", func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, false, []QueueRecord{{AttendanceID: "1", ClientID: "c"}})
		}, KindEnvelope},
		{"success absent", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data":[]}`))
		}, KindEnvelope},
		{"duplicate identity", func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, true, []QueueRecord{{AttendanceID: "1", ClientID: "c"}, {AttendanceID: "1", ClientID: "c"}})
		}, KindEnvelope},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, tt.handler)
			snap, err := c.FetchQueue(context.Background(), Query{Screen: ScreenConsultation, AgendaID: "1"})
			var fe *FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("error = %v, want *FetchError", err)
			}
			if fe.Kind != tt.kind {
				t.Fatalf("Kind = %s, want %s", fe.Kind, tt.kind)
			}
			if snap.Len() != 0 {
				t.Fatalf("partial data returned with error: %#v", snap)
			}
		})
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c, err := NewClient(url, nil)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.FetchQueue(context.Background(), Query{Screen: ScreenConsultation, AgendaID: "1"})
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Kind != KindNetwork {
		t.Fatalf("error = %v, want network FetchError", err)
	}
}

func TestClient_MissingContextFailsBeforeRequest(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	_, err := c.FetchQueue(context.Background(), Query{Screen: ScreenEmergency})
	if !errors.Is(err, ErrMissingContext) {
		t.Fatalf("error = %v, want ErrMissingContext", err)
	}
	if called {
		t.Fatalf("request sent despite missing context")
	}
}

func TestFileToken_RereadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("first\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	src := FileToken(path)
	if tok, err := src.Token(); err != nil || tok != "first" {
		t.Fatalf("Token = %q, %v; want first", tok, err)
	}
	if err := os.WriteFile(path, []byte("second"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if tok, _ := src.Token(); tok != "second" {
		t.Fatalf("Token = %q after rotation, want second", tok)
	}
	if _, err := FileToken("").Token(); err == nil {
		t.Fatalf("empty FileToken returned nil error")
	}
}

func TestAuthHeaders(t *testing.T) {
	h := AuthHeaders("  tok ", "ua/1")
	if h.Get("Authorization") != "Bearer tok" || h.Get("User-Agent") != "ua/1" || h.Get("Accept") != "application/json" {
		t.Fatalf("headers = %v", h)
	}
	if AuthHeaders("", "").Get("Authorization") != "" {
		t.Fatalf("empty token produced an Authorization header")
	}
}
