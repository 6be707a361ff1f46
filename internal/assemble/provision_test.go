package assemble

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/cardsmith/internal/ankiconnect"
	"github.com/starford/cardsmith/internal/apperr"
	"github.com/starford/cardsmith/internal/storage"
	"github.com/starford/cardsmith/internal/testutil"
)

func newProvisioner(t *testing.T, files map[string]string) (*Provisioner, *testutil.FakeAnki) {
	t.Helper()
	store, err := storage.NewFS(testutil.WriteDeckTree(t, files))
	if err != nil {
		t.Fatal(err)
	}
	fake := testutil.NewFakeAnki(t)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewProvisioner(ankiconnect.New(fake.URL()), store, testCfg(), logger), fake
}

func TestProvisioner_Model(t *testing.T) {
	p, _ := newProvisioner(t, map[string]string{"card/front.html": "<b>{{Question}}</b>"})
	m, err := p.Model()
	if err != nil {
		t.Fatalf("Model: %v", err)
	}
	if m.Name != "basic-media" || len(m.Fields) != 2 {
		t.Errorf("model = %+v", m)
	}
	if m.Templates[0].Front != "<b>{{Question}}</b>" || m.Templates[0].Back != testutil.DefaultCard["card/back.html"] {
		t.Errorf("templates = %+v", m.Templates)
	}
}

func TestProvisioner_MissingCardAsset(t *testing.T) {
	p, fake := newProvisioner(t, nil)
	if err := os.Remove(filepath.Join(p.store.(*storage.FS).Root(), "card", storage.Stylesheet)); err != nil {
		t.Fatal(err)
	}
	err := p.EnsureModel(context.Background())
	if !errors.Is(err, apperr.ErrModelCreate) {
		t.Fatalf("err = %v, want ErrModelCreate", err)
	}
	if len(fake.Calls()) != 0 {
		t.Errorf("createModel issued without assets: %v", fake.Actions())
	}
}

func TestProvisioner_EnsureModelNullError(t *testing.T) {
	p, fake := newProvisioner(t, nil)
	fake.Handle("createModel", func(json.RawMessage) testutil.Reply { return testutil.Reply{} })
	if err := p.EnsureModel(context.Background()); err != nil {
		t.Fatalf("EnsureModel: %v", err)
	}
}

func TestProvisioner_EnsureDeck(t *testing.T) {
	p, fake := newProvisioner(t, nil)
	if err := p.EnsureDeck(context.Background(), "Lang::verbs"); err != nil {
		t.Fatalf("EnsureDeck: %v", err)
	}
	var params struct {
		Deck string `json:"deck"`
	}
	if err := json.Unmarshal(fake.CallsFor("createDeck")[0].Params, &params); err != nil {
		t.Fatal(err)
	}
	if params.Deck != "Lang::verbs" {
		t.Errorf("deck = %q", params.Deck)
	}

	fake.Handle("createDeck", func(json.RawMessage) testutil.Reply { return testutil.ErrReply("boom") })
	if err := p.EnsureDeck(context.Background(), "Lang::x"); err == nil {
		t.Fatal("expected error")
	}
}
