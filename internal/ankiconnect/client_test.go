package ankiconnect

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/starford/cardsmith/internal/models"
	"github.com/starford/cardsmith/internal/testutil"
)

func TestNew_AddsScheme(t *testing.T) {
	if got := New("localhost:8765").Endpoint(); got != "http://localhost:8765" {
		t.Errorf("endpoint = %q", got)
	}
	if got := New("https://anki.example:443").Endpoint(); got != "https://anki.example:443" {
		t.Errorf("endpoint = %q", got)
	}
}

func TestInvoke_Envelope(t *testing.T) {
	fake := testutil.NewFakeAnki(t)
	c := New(fake.URL())

	if _, err := c.RequestPermission(context.Background()); err != nil {
		t.Fatalf("RequestPermission: %v", err)
	}
	calls := fake.Calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %d", len(calls))
	}
	if calls[0].Action != "requestPermission" || calls[0].Version != APIVersion {
		t.Errorf("call = %+v", calls[0])
	}
	if len(calls[0].Params) != 0 {
		t.Errorf("requestPermission should carry no params, got %s", calls[0].Params)
	}
}

func TestRequestPermission(t *testing.T) {
	fake := testutil.NewFakeAnki(t)
	c := New(fake.URL())

	p, err := c.RequestPermission(context.Background())
	if err != nil {
		t.Fatalf("RequestPermission: %v", err)
	}
	if !p.Granted() {
		t.Error("expected granted")
	}

	fake.Handle("requestPermission", func(json.RawMessage) testutil.Reply {
		return testutil.Reply{Result: map[string]any{"permission": "denied"}}
	})
	p, err = c.RequestPermission(context.Background())
	if err != nil {
		t.Fatalf("RequestPermission: %v", err)
	}
	if p.Granted() {
		t.Error("denied permission reported as granted")
	}
}

func TestCreateModel_Params(t *testing.T) {
	fake := testutil.NewFakeAnki(t)
	c := New(fake.URL())

	err := c.CreateModel(context.Background(), Model{
		Name:      "basic-media",
		Fields:    []string{"Question", "picture_front"},
		CSS:       ".card{}",
		Templates: []CardTemplate{{Name: "Basic", Front: "F", Back: "B"}},
	})
	if err != nil {
		t.Fatalf("CreateModel: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(fake.CallsFor("createModel")[0].Params, &got); err != nil {
		t.Fatal(err)
	}
	if got["modelName"] != "basic-media" || got["css"] != ".card{}" || got["isCloze"] != false {
		t.Errorf("params = %v", got)
	}
	tmpl := got["cardTemplates"].([]any)[0].(map[string]any)
	if tmpl["Name"] != "Basic" || tmpl["Front"] != "F" || tmpl["Back"] != "B" {
		t.Errorf("template = %v", tmpl)
	}
}

func TestIsAlreadyExists(t *testing.T) {
	fake := testutil.NewFakeAnki(t)
	c := New(fake.URL())
	fake.Handle("createModel", func(json.RawMessage) testutil.Reply {
		return testutil.ErrReply("Model name already exists")
	})

	err := c.CreateModel(context.Background(), Model{Name: "m"})
	if !IsAlreadyExists(err) {
		t.Fatalf("IsAlreadyExists(%v) = false", err)
	}
	var re *RemoteError
	if !errors.As(err, &re) || re.Action != "createModel" {
		t.Errorf("expected RemoteError for createModel, got %v", err)
	}

	if IsAlreadyExists(errors.New("name already exists")) {
		t.Error("plain errors are not remote errors")
	}
	if IsAlreadyExists(&RemoteError{Action: "createModel", Message: "field names must be unique"}) {
		t.Error("unrelated remote error matched")
	}
}

func TestAddNotes_WireShapeAndNulls(t *testing.T) {
	fake := testutil.NewFakeAnki(t)
	c := New(fake.URL())
	fake.Handle("addNotes", func(json.RawMessage) testutil.Reply {
		return testutil.Reply{Result: []any{11, nil, 13}}
	})

	notes := []models.NotePayload{
		{
			DeckName:  "Lang::verbs",
			ModelName: "m",
			Fields:    map[string]string{"Question": "q1"},
			Media: map[models.MediaKind][]models.MediaReference{
				models.MediaPicture: {{URL: "http://x/a.png", Filename: "a.png", Field: "picture_front"}},
				models.MediaAudio:   {{URL: "http://x/a.mp3", Filename: "a.mp3", Field: "audio_front"}},
			},
		},
		{DeckName: "Lang::verbs", ModelName: "m"},
		{DeckName: "Lang::verbs", ModelName: "m", Fields: map[string]string{"Question": "q3"}},
	}
	ids, err := c.AddNotes(context.Background(), notes)
	if err != nil {
		t.Fatalf("AddNotes: %v", err)
	}
	if len(ids) != 3 || ids[0] == nil || *ids[0] != 11 || ids[1] != nil || ids[2] == nil {
		t.Errorf("ids = %v", ids)
	}

	wire := testutil.DecodeNotes(t, fake.CallsFor("addNotes")[0].Params)
	if len(wire) != 3 {
		t.Fatalf("wire notes = %d", len(wire))
	}
	if len(wire[0].Picture) != 1 || wire[0].Picture[0].Fields[0] != "picture_front" {
		t.Errorf("picture = %+v", wire[0].Picture)
	}
	if len(wire[0].Audio) != 1 || wire[0].Audio[0].Filename != "a.mp3" {
		t.Errorf("audio = %+v", wire[0].Audio)
	}
	if wire[1].Fields == nil {
		t.Error("fields must be sent as an object even when empty")
	}
	if len(wire[2].Picture) != 0 {
		t.Errorf("note without media sent media: %+v", wire[2].Picture)
	}
}

func TestAddNotes_ErrorWithResults(t *testing.T) {
	fake := testutil.NewFakeAnki(t)
	c := New(fake.URL())
	fake.Handle("addNotes", func(json.RawMessage) testutil.Reply {
		msg := "cannot create note because it is a duplicate"
		return testutil.Reply{Result: []any{nil, 2}, Error: &msg}
	})

	ids, err := c.AddNotes(context.Background(), make([]models.NotePayload, 2))
	if err == nil {
		t.Fatal("expected remote error")
	}
	if len(ids) != 2 || ids[0] != nil || ids[1] == nil {
		t.Errorf("ids = %v", ids)
	}
}

func TestAddNotes_ErrorWithoutResults(t *testing.T) {
	fake := testutil.NewFakeAnki(t)
	c := New(fake.URL())
	fake.Handle("addNotes", func(json.RawMessage) testutil.Reply {
		return testutil.ErrReply("collection is not available")
	})

	ids, err := c.AddNotes(context.Background(), make([]models.NotePayload, 1))
	if err == nil || ids != nil {
		t.Fatalf("ids = %v, err = %v", ids, err)
	}
}

func TestExportPackage(t *testing.T) {
	fake := testutil.NewFakeAnki(t)
	c := New(fake.URL())

	ok, err := c.ExportPackage(context.Background(), "Lang", "/export/out.apkg", false)
	if err != nil || !ok {
		t.Fatalf("ExportPackage = %v, %v", ok, err)
	}
	var got exportParams
	if err := json.Unmarshal(fake.CallsFor("exportPackage")[0].Params, &got); err != nil {
		t.Fatal(err)
	}
	if got.Deck != "Lang" || got.Path != "/export/out.apkg" || got.IncludeSched {
		t.Errorf("params = %+v", got)
	}

	fake.Handle("exportPackage", func(json.RawMessage) testutil.Reply { return testutil.Reply{Result: false} })
	ok, err = c.ExportPackage(context.Background(), "Lang", "/x", false)
	if err != nil || ok {
		t.Errorf("falsy export = %v, %v", ok, err)
	}
}

func TestInvoke_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Version(context.Background())
	var he *HTTPError
	if !errors.As(err, &he) || he.StatusCode != http.StatusForbidden {
		t.Fatalf("expected HTTPError 403, got %v", err)
	}
}

func TestInvoke_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if _, err := New(url).CreateDeck(context.Background(), "x"); err == nil {
		t.Fatal("expected transport error")
	}
}
