package assemble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/starford/cardsmith/internal/apperr"
	"github.com/starford/cardsmith/internal/deck"
	"github.com/starford/cardsmith/internal/models"
	"github.com/starford/cardsmith/internal/storage"
	"github.com/starford/cardsmith/internal/transform"
)

// State is a stage of an assembly run.
type State string

const (
	StateInit              State = "init"
	StatePermissionChecked State = "permission_checked"
	StateModelReady        State = "model_ready"
	StateDeckReady         State = "deck_ready"
	StateNotesSubmitted    State = "notes_submitted"
	StateExported          State = "exported"
	StateDone              State = "done"
	StateFailed            State = "failed"
)

// Report summarises one run.
type Report struct {
	RunID      string                     `json:"run_id"`
	State      State                      `json:"state"`
	ExportPath string                     `json:"export_path"`
	Decks      []models.SubmissionOutcome `json:"decks"`
}

// Submitted returns the number of notes sent across all decks.
func (r *Report) Submitted() int {
	n := 0
	for _, d := range r.Decks {
		n += d.Submitted
	}
	return n
}

// Failed returns the number of notes the application rejected.
func (r *Report) Failed() int {
	n := 0
	for _, d := range r.Decks {
		n += d.Failed
	}
	return n
}

// FailedDecks returns the decks whose processing stopped with an error.
func (r *Report) FailedDecks() []models.SubmissionOutcome {
	var out []models.SubmissionOutcome
	for _, d := range r.Decks {
		if d.Err != nil {
			out = append(out, d)
		}
	}
	return out
}

// Clean reports whether every deck was processed and every note accepted.
func (r *Report) Clean() bool {
	for _, d := range r.Decks {
		if !d.Succeeded() {
			return false
		}
	}
	return true
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStrict makes a run whose decks were not all fully submitted return
// apperr.ErrDeckFailures after a successful export.
func WithStrict(strict bool) Option {
	return func(p *Pipeline) {
		p.strict = strict
	}
}

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// Pipeline runs the assembly sequence. Every step is sequential.
type Pipeline struct {
	remote      Remote
	store       storage.Provider
	cfg         models.DeckConfig
	transformer *transform.Transformer
	logger      *slog.Logger
	strict      bool
}

// New creates a Pipeline. prober validates media URLs when the URL check
// is enabled in cfg.
func New(remote Remote, store storage.Provider, cfg models.DeckConfig, prober transform.Prober, opts ...Option) *Pipeline {
	p := &Pipeline{
		remote:      remote,
		store:       store,
		cfg:         cfg,
		transformer: transform.New(cfg, prober),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run performs one best-effort pass and returns its report. The returned
// error is non-nil only for run-fatal conditions: permission refused, model
// creation failure, export failure, a deck listing error, cancellation, or
// (strict mode) any deck not fully submitted.
func (p *Pipeline) Run(ctx context.Context, exportPath string) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), State: StateInit, ExportPath: exportPath}
	logger := p.logger.With(slog.String("run_id", report.RunID))
	provisioner := NewProvisioner(p.remote, p.store, p.cfg, logger)

	fail := func(err error) (*Report, error) {
		report.State = StateFailed
		logger.Error("Run failed", slog.String("error", err.Error()))
		return report, err
	}

	logger.Info("Checking for control API permissions")
	perm, err := p.remote.RequestPermission(ctx)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", apperr.ErrPermissionDenied, err))
	}
	if !perm.Granted() {
		return fail(fmt.Errorf("%w: permission %q", apperr.ErrPermissionDenied, perm.Permission))
	}
	report.State = StatePermissionChecked
	logger.Info("Permissions have been granted")

	if v, err := p.remote.Version(ctx); err != nil {
		logger.Warn("Could not read control API version", slog.String("error", err.Error()))
	} else {
		logger.Info("Control API version", slog.Int("api_version", v))
	}

	sources, err := p.store.ListDecks()
	if err != nil {
		return fail(err)
	}

	logger.Info("Creating base data", slog.String("model", p.cfg.ModelName))
	if err := provisioner.EnsureModel(ctx); err != nil {
		return fail(err)
	}
	report.State = StateModelReady

	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		report.Decks = append(report.Decks, p.processDeck(ctx, provisioner, logger, report, source))
	}

	logger.Info("Exporting deck",
		slog.String("deck", p.cfg.MasterDeckName),
		slog.String("path", exportPath))
	ok, err := p.remote.ExportPackage(ctx, p.cfg.MasterDeckName, exportPath, false)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", apperr.ErrExportFailed, err))
	}
	if !ok {
		return fail(fmt.Errorf("%w: application reported failure for %s", apperr.ErrExportFailed, exportPath))
	}
	report.State = StateExported

	logger.Info("Run finished",
		slog.Int("decks", len(report.Decks)),
		slog.Int("submitted", report.Submitted()),
		slog.Int("rejected", report.Failed()),
		slog.Int("failed_decks", len(report.FailedDecks())))
	report.State = StateDone

	if p.strict && !report.Clean() {
		return report, fmt.Errorf("%w: %d rejected notes, %d failed decks",
			apperr.ErrDeckFailures, report.Failed(), len(report.FailedDecks()))
	}
	return report, nil
}

// processDeck is the failure boundary for one deck: any error is recorded
// on the outcome and never escapes.
func (p *Pipeline) processDeck(ctx context.Context, provisioner *Provisioner, logger *slog.Logger, report *Report, source string) models.SubmissionOutcome {
	deckName := p.cfg.QualifiedDeckName(storage.DeckID(source))
	out := models.SubmissionOutcome{Deck: deckName}
	logger = logger.With(slog.String("deck", deckName))

	logger.Info("Processing deck", slog.String("source", source))
	if err := provisioner.EnsureDeck(ctx, deckName); err != nil {
		out.Err = err
		logger.Error("Deck failed", slog.String("error", err.Error()))
		return out
	}
	report.State = StateDeckReady

	unit, _, err := p.buildDeck(ctx, source, logger)
	if err != nil {
		out.Err = err
		logger.Error("Deck failed", slog.String("error", err.Error()))
		return out
	}
	if len(unit.Notes) == 0 {
		logger.Warn("Deck source has no rows")
		return out
	}

	logger.Info("Creating notes", slog.Int("notes", len(unit.Notes)))
	ids, err := p.remote.AddNotes(ctx, unit.Notes)
	if ids == nil {
		if err == nil {
			err = errors.New("addNotes returned no result")
		}
		out.Err = fmt.Errorf("add notes: %w", err)
		logger.Error("Deck failed", slog.String("error", out.Err.Error()))
		return out
	}
	if err != nil {
		logger.Warn("addNotes reported an error", slog.String("error", err.Error()))
	}

	report.State = StateNotesSubmitted
	out.Submitted = len(unit.Notes)
	out.Failed = countRejected(ids, len(unit.Notes))
	if out.Failed > 0 {
		logger.Warn("Notes were not created",
			slog.Int("rejected", out.Failed),
			slog.Int("submitted", out.Submitted))
	}
	return out
}

// countRejected counts null entries and entries missing from a result
// shorter than the submitted batch.
func countRejected(ids []*int64, submitted int) int {
	rejected := 0
	for i := 0; i < submitted; i++ {
		if i >= len(ids) || ids[i] == nil {
			rejected++
		}
	}
	return rejected
}

// BuildDeck reads and transforms one deck source without touching the
// remote side.
func (p *Pipeline) BuildDeck(ctx context.Context, source string) (models.DeckUnit, []transform.Diagnostic, error) {
	return p.buildDeck(ctx, source, p.logger)
}

func (p *Pipeline) buildDeck(ctx context.Context, source string, logger *slog.Logger) (models.DeckUnit, []transform.Diagnostic, error) {
	id := storage.DeckID(source)
	unit := models.DeckUnit{Source: source, ID: id, DeckName: p.cfg.QualifiedDeckName(id)}

	rc, err := p.store.OpenDeck(source)
	if err != nil {
		return unit, nil, err
	}
	defer rc.Close()

	src, err := deck.Read(rc)
	if err != nil {
		return unit, nil, fmt.Errorf("%s: %w", source, err)
	}

	notes, diags, err := p.transformer.TransformDeck(ctx, src, unit.DeckName, logger)
	if err != nil {
		return unit, nil, fmt.Errorf("%s: %w", source, err)
	}
	unit.Notes = notes
	return unit, diags, nil
}

// ListDecks returns the deck sources available to the pipeline.
func (p *Pipeline) ListDecks() ([]string, error) {
	return p.store.ListDecks()
}
