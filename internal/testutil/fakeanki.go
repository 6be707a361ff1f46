package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Call is one request received by FakeAnki.
type Call struct {
	Action  string
	Version int
	Params  json.RawMessage
}

// Reply is the response FakeAnki sends for a call.
type Reply struct {
	Result any
	Error  *string
}

// ErrReply returns a Reply with a null result and the given error message.
func ErrReply(msg string) Reply {
	return Reply{Error: &msg}
}

// HandlerFunc produces the reply for one call.
type HandlerFunc func(params json.RawMessage) Reply

// FakeAnki is an httptest server speaking the control API. By default it
// grants permission, accepts every model, deck and note, and exports
// successfully. Individual actions can be overridden with Handle.
type FakeAnki struct {
	Server *httptest.Server

	mu       sync.Mutex
	calls    []Call
	handlers map[string]HandlerFunc
	nextID   int64
}

// NewFakeAnki starts a FakeAnki that is closed when the test ends.
func NewFakeAnki(t *testing.T) *FakeAnki {
	t.Helper()
	f := &FakeAnki{handlers: map[string]HandlerFunc{}, nextID: 1000}
	f.handlers["requestPermission"] = func(json.RawMessage) Reply {
		return Reply{Result: map[string]any{"permission": "granted", "requireApikey": false, "version": 6}}
	}
	f.handlers["version"] = func(json.RawMessage) Reply { return Reply{Result: 6} }
	f.handlers["createModel"] = func(json.RawMessage) Reply { return Reply{Result: map[string]any{"id": 1}} }
	f.handlers["createDeck"] = func(json.RawMessage) Reply { return Reply{Result: 1} }
	f.handlers["exportPackage"] = func(json.RawMessage) Reply { return Reply{Result: true} }
	f.handlers["addNotes"] = func(params json.RawMessage) Reply {
		notes := DecodeNotes(t, params)
		ids := make([]any, len(notes))
		f.mu.Lock()
		for i := range notes {
			f.nextID++
			ids[i] = f.nextID
		}
		f.mu.Unlock()
		return Reply{Result: ids}
	}

	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the endpoint URL.
func (f *FakeAnki) URL() string {
	return f.Server.URL
}

// Handle overrides the reply for action.
func (f *FakeAnki) Handle(action string, fn HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[action] = fn
}

// Calls returns a copy of every call received so far.
func (f *FakeAnki) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// Actions returns the action names received so far, in order.
func (f *FakeAnki) Actions() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Action
	}
	return out
}

// CallsFor returns the calls for one action.
func (f *FakeAnki) CallsFor(action string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Action == action {
			out = append(out, c)
		}
	}
	return out
}

func (f *FakeAnki) serve(w http.ResponseWriter, r *http.Request) {
	var envelope struct {
		Action  string          `json:"action"`
		Version int             `json:"version"`
		Params  json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	call := Call{Action: envelope.Action, Version: envelope.Version, Params: envelope.Params}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	h, ok := f.handlers[call.Action]
	f.mu.Unlock()

	reply := ErrReply("unsupported action")
	if ok {
		reply = h(call.Params)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"result": reply.Result, "error": reply.Error})
}

// WireNote is the addNotes note shape as received by the endpoint.
type WireNote struct {
	DeckName  string            `json:"deckName"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Picture   []WireMedia       `json:"picture"`
	Audio     []WireMedia       `json:"audio"`
}

// WireMedia is one media item of a WireNote.
type WireMedia struct {
	URL      string   `json:"url"`
	Filename string   `json:"filename"`
	Fields   []string `json:"fields"`
}

// DecodeNotes decodes addNotes params into notes.
func DecodeNotes(t *testing.T, params json.RawMessage) []WireNote {
	t.Helper()
	var p struct {
		Notes []WireNote `json:"notes"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		t.Errorf("decode addNotes params: %v", err)
	}
	return p.Notes
}
