package assemble

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/cardsmith/internal/ankiconnect"
	"github.com/starford/cardsmith/internal/apperr"
	"github.com/starford/cardsmith/internal/models"
	"github.com/starford/cardsmith/internal/storage"
)

// Provisioner makes sure the model and decks exist remotely.
type Provisioner struct {
	remote Remote
	store  storage.Provider
	cfg    models.DeckConfig
	logger *slog.Logger
}

// NewProvisioner creates a Provisioner.
func NewProvisioner(remote Remote, store storage.Provider, cfg models.DeckConfig, logger *slog.Logger) *Provisioner {
	return &Provisioner{remote: remote, store: store, cfg: cfg, logger: logger}
}

// Model builds the model definition from the configuration and card assets.
func (p *Provisioner) Model() (ankiconnect.Model, error) {
	assets := make(map[string]string, 3)
	for _, name := range []string{storage.FrontTemplate, storage.BackTemplate, storage.Stylesheet} {
		data, err := p.store.ReadCardAsset(name)
		if err != nil {
			return ankiconnect.Model{}, err
		}
		assets[name] = string(data)
	}
	return ankiconnect.Model{
		Name:   p.cfg.ModelName,
		Fields: p.cfg.Fields,
		CSS:    assets[storage.Stylesheet],
		Templates: []ankiconnect.CardTemplate{{
			Name:  p.cfg.ModelNameDescriptive,
			Front: assets[storage.FrontTemplate],
			Back:  assets[storage.BackTemplate],
		}},
	}, nil
}

// EnsureModel creates the model. A model that already exists counts as
// success; any other failure wraps apperr.ErrModelCreate.
func (p *Provisioner) EnsureModel(ctx context.Context) error {
	model, err := p.Model()
	if err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrModelCreate, err)
	}
	err = p.remote.CreateModel(ctx, model)
	switch {
	case err == nil:
		p.logger.Info("Model created", slog.String("model", model.Name))
	case ankiconnect.IsAlreadyExists(err):
		p.logger.Info("Model already exists", slog.String("model", model.Name))
	default:
		return fmt.Errorf("%w: %w", apperr.ErrModelCreate, err)
	}
	return nil
}

// EnsureDeck creates the deck with the given qualified name. The remote
// side treats an existing deck as success.
func (p *Provisioner) EnsureDeck(ctx context.Context, deckName string) error {
	if _, err := p.remote.CreateDeck(ctx, deckName); err != nil {
		return fmt.Errorf("create deck %s: %w", deckName, err)
	}
	return nil
}
