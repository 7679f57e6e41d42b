// Command variantctl replays one product-editing session from a YAML draft and prints the
// resulting save payload and validation state as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/hanko-field/product-editor/internal/catalog"
	"github.com/hanko-field/product-editor/internal/domain"
	"github.com/hanko-field/product-editor/internal/media"
	"github.com/hanko-field/product-editor/internal/platform/config"
	"github.com/hanko-field/product-editor/internal/platform/observability"
	"github.com/hanko-field/product-editor/internal/services"
	"github.com/hanko-field/product-editor/internal/variants"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitBlocked = 2
)

type report struct {
	Payload    *domain.SavePayload       `json:"payload,omitempty"`
	Validation variants.ValidationResult `json:"validation"`
	Warnings   []string                  `json:"warnings"`
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, opts ...config.Option) int {
	flags := flag.NewFlagSet("variantctl", flag.ContinueOnError)
	flags.SetOutput(stderr)
	draftPath := flags.String("draft", "", "YAML draft describing the editing session (required)")
	catalogPath := flags.String("catalog", "", "catalog YAML; overrides EDITOR_CATALOG_FILE")
	categoryPath := flags.String("categories", "", "category tree YAML; overrides EDITOR_CATEGORY_FILE")
	if err := flags.Parse(args); err != nil {
		return exitFailure
	}
	if strings.TrimSpace(*draftPath) == "" {
		fmt.Fprintln(stderr, "variantctl: -draft is required")
		return exitFailure
	}

	cfg, err := config.Load(opts...)
	if err != nil {
		fmt.Fprintf(stderr, "variantctl: load configuration: %v\n", err)
		return exitFailure
	}

	baseLogger, err := observability.NewLogger(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(stderr, "variantctl: initialise logger: %v\n", err)
		return exitFailure
	}
	defer func() {
		_ = baseLogger.Sync()
	}()
	logger := baseLogger.Named("variantctl")
	ctx = observability.WithLogger(ctx, logger)

	metrics, err := observability.NewEditorMetrics(nil)
	if err != nil {
		logger.Warn("metrics disabled", zap.Error(err))
	}

	data, err := os.ReadFile(*draftPath)
	if err != nil {
		logger.Error("failed to read draft", zap.String("path", *draftPath), zap.Error(err))
		return exitFailure
	}
	draft, err := parseDraft(data)
	if err != nil {
		logger.Error("failed to parse draft", zap.String("path", *draftPath), zap.Error(err))
		return exitFailure
	}

	source := catalog.NewFileSource(
		firstNonEmpty(*catalogPath, cfg.Sources.CatalogFile),
		firstNonEmpty(*categoryPath, cfg.Sources.CategoryFile),
	)
	session, err := services.NewEditorSession(services.EditorSessionDeps{
		Catalog:                   source,
		Categories:                source,
		Engine:                    newEngine(cfg.Engine),
		Reconciler:                media.NewReconciler(cfg.Editor.TempMediaPrefix),
		DisableCategoryAutoSelect: !cfg.Editor.AutoSelectCategories,
		Logger:                    observability.EventLogger(logger),
		Metrics:                   metrics,
	})
	if err != nil {
		logger.Error("failed to start editing session", zap.Error(err))
		return exitFailure
	}

	out, err := replay(ctx, session, source, draft)
	if err != nil {
		logger.Error("editing session failed", zap.String("sessionId", session.ID()), zap.Error(err))
		return exitFailure
	}

	code := exitOK
	payload, err := session.BuildSavePayload(ctx)
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		out.Validation = validationErr.Result
		code = exitBlocked
	case err != nil:
		logger.Error("failed to build save payload", zap.Error(err))
		return exitFailure
	default:
		out.Payload = &payload
		out.Validation = session.State().Validation
	}

	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		logger.Error("failed to write report", zap.Error(err))
		return exitFailure
	}
	return code
}

// replay applies the draft to the session: the optional product load first, then the matrix
// edit, category selection, media transitions and default switch.
func replay(ctx context.Context, session *services.EditorSession, source *catalog.FileSource, draft draftFile) (report, error) {
	out := report{Warnings: []string{}}

	ctx, span := observability.StartSpan(ctx, "variantctl.replay")
	defer span.End()

	lookup, err := source.Lookup(ctx)
	if err != nil {
		lookup = nil
		out.Warnings = append(out.Warnings, fmt.Sprintf("catalog unavailable: %v", err))
	}

	if draft.Product != nil {
		snapshot, err := draft.Product.toSnapshot(lookup)
		if err != nil {
			return report{}, err
		}
		if _, err := session.LoadProduct(ctx, snapshot); err != nil {
			return report{}, fmt.Errorf("load product: %w", err)
		}
	}

	if draft.Edit.requested() {
		input, err := draft.Edit.toMatrixInput(lookup, session.State())
		if err != nil {
			return report{}, err
		}
		state, err := session.OnMatrixInputChanged(ctx, input)
		if err != nil {
			return report{}, fmt.Errorf("apply matrix edit: %w", err)
		}
		if !state.CatalogAvailable {
			out.Warnings = append(out.Warnings, "combinations cleared because the catalog is unavailable")
		}
	}

	if draft.Edit.Categories != nil {
		update, err := session.OnCategorySelectionChanged(ctx, draft.Edit.Categories)
		if err != nil {
			return report{}, fmt.Errorf("apply category selection: %w", err)
		}
		if update.Warning != "" {
			out.Warnings = append(out.Warnings, update.Warning)
		}
	}

	for _, step := range draft.Edit.Media {
		previous, current := step.references()
		session.OnMediaTransition(ctx, previous, current)
	}

	if key := strings.TrimSpace(draft.Edit.Default); key != "" {
		if _, err := session.SetDefaultCombination(ctx, key); err != nil {
			return report{}, fmt.Errorf("set default %q: %w", key, err)
		}
	}
	return out, nil
}

func newEngine(cfg config.EngineConfig) *variants.Engine {
	return variants.NewEngine(variants.EngineOptions{
		DefaultStockQuantity: cfg.DefaultStockQuantity,
		MinimumPrice:         cfg.MinimumPrice,
		DefaultStockStatus:   domain.StockStatus(cfg.DefaultStockStatus),
		SKU:                  variants.NewSKUSynthesizer(cfg.SKUTokenLimit),
	})
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
