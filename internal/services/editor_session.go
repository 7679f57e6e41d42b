package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/hanko-field/product-editor/internal/categories"
	"github.com/hanko-field/product-editor/internal/domain"
	"github.com/hanko-field/product-editor/internal/media"
	"github.com/hanko-field/product-editor/internal/platform/observability"
	"github.com/hanko-field/product-editor/internal/platform/requestctx"
	"github.com/hanko-field/product-editor/internal/platform/textutil"
	"github.com/hanko-field/product-editor/internal/variants"
)

const (
	eventLoadBegin          = "editor.load.begin"
	eventLoadCommit         = "editor.load.commit"
	eventLoadAbort          = "editor.load.abort"
	eventMatrixRegenerated  = "editor.matrix.regenerated"
	eventMatrixSuppressed   = "editor.matrix.suppressed"
	eventCatalogUnavailable = "editor.catalog.unavailable"
	eventCategoriesFallback = "editor.categories.fallback"
	eventMediaReconciled    = "editor.media.reconciled"
)

// Mode is the state of an editing session.
type Mode string

const (
	// ModeIdle is a fresh session with nothing loaded or edited.
	ModeIdle Mode = "idle"
	// ModeLoading means an existing product is being replayed into the session. Regeneration and
	// category auto-completion are suppressed.
	ModeLoading Mode = "loading"
	// ModeInteractive means edits come from the merchandiser and drive regeneration.
	ModeInteractive Mode = "interactive"
)

// EditorSessionDeps bundles the collaborators of an editing session.
type EditorSessionDeps struct {
	Catalog    CatalogSource
	Categories CategoryTreeSource
	Engine     *variants.Engine
	Reconciler media.Reconciler
	// DisableCategoryAutoSelect stores category selections as given.
	DisableCategoryAutoSelect bool
	IDGen                     func() string
	Logger                    func(ctx context.Context, event string, fields map[string]any)
	Metrics                   *observability.EditorMetrics
}

// MatrixInput is the snapshot of the fields that drive regeneration. Attributes should be
// round-tripped from State so that temp ids assigned by the session stay stable.
type MatrixInput struct {
	Name        string
	Description string
	BasePrice   decimal.Decimal
	Attributes  []domain.AttributeDefinition
}

// EditorState is a deep copy of the session state.
type EditorState struct {
	Mode             Mode
	ProductID        string
	Name             string
	Description      string
	BasePrice        decimal.Decimal
	Attributes       []domain.AttributeDefinition
	Combinations     []domain.Combination
	CategoryIDs      []string
	MediaIDs         []string
	Validation       variants.ValidationResult
	CatalogAvailable bool
	Dirty            bool
}

// CategoryUpdate is the outcome of a category selection change.
type CategoryUpdate struct {
	CategoryIDs []string
	// Added lists the ancestor ids that were not part of the selection.
	Added []string
	// Suppressed is set when the selection was stored without expansion because a load is in
	// progress.
	Suppressed bool
	// Warning is non-empty when the tree could not be fetched and the selection was kept as is.
	Warning string
}

// CombinationPatch updates the editable fields of one combination. Nil fields are left alone.
type CombinationPatch struct {
	SKU                *string
	Price              *decimal.Decimal
	OriginalPrice      *decimal.Decimal
	ClearOriginalPrice bool
	StockQuantity      *int
	StockStatus        *domain.StockStatus
	IsActive           *bool
	MediaIDs           []string
}

// BulkEdit applies the same values to many combinations. An empty Keys list targets every
// combination.
type BulkEdit struct {
	Keys          []string
	Price         *decimal.Decimal
	StockQuantity *int
	StockStatus   *domain.StockStatus
	IsActive      *bool
}

// EditorSession drives the variant matrix of one product-editing session.
type EditorSession struct {
	id                string
	catalog           CatalogSource
	categorySource    CategoryTreeSource
	engine            *variants.Engine
	reconciler        media.Reconciler
	autoSelectParents bool
	newID             func() string
	logger            func(context.Context, string, map[string]any)
	metrics           *observability.EditorMetrics

	mu         sync.Mutex
	state      EditorState
	beforeLoad *EditorState
	resolver   *categories.Resolver
}

// NewEditorSession wires dependencies into an idle session.
func NewEditorSession(deps EditorSessionDeps) (*EditorSession, error) {
	if deps.Catalog == nil {
		return nil, errors.New("editor session: catalog source is required")
	}

	engine := deps.Engine
	if engine == nil {
		engine = variants.NewEngine(variants.DefaultEngineOptions())
	}

	reconciler := deps.Reconciler
	if reconciler.TempPrefix == "" {
		reconciler = media.NewReconciler("")
	}

	idGen := deps.IDGen
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &EditorSession{
		id:                uuid.NewString(),
		catalog:           deps.Catalog,
		categorySource:    deps.Categories,
		engine:            engine,
		reconciler:        reconciler,
		autoSelectParents: !deps.DisableCategoryAutoSelect,
		newID:             idGen,
		logger:            logger,
		metrics:           deps.Metrics,
		state:             emptyState(),
	}, nil
}

func emptyState() EditorState {
	return EditorState{
		Mode:         ModeIdle,
		Attributes:   []domain.AttributeDefinition{},
		Combinations: []domain.Combination{},
		CategoryIDs:  []string{},
		MediaIDs:     []string{},
	}
}

// ID returns the session identifier attached to logs and spans.
func (s *EditorSession) ID() string {
	return s.id
}

// Mode returns the current session mode.
func (s *EditorSession) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Mode
}

// State returns a deep copy of the session state.
func (s *EditorSession) State() EditorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneState(s.state)
}

func (s *EditorSession) scoped(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return requestctx.WithSessionID(ctx, s.id)
}

// BeginLoad enters loading mode. Regeneration and category auto-completion stay suppressed until
// CommitLoad or AbortLoad.
func (s *EditorSession) BeginLoad(ctx context.Context) error {
	ctx = s.scoped(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Mode == ModeLoading {
		return ErrEditorLoadInProgress
	}
	previous := cloneState(s.state)
	s.beforeLoad = &previous
	s.state.Mode = ModeLoading
	s.logger(ctx, eventLoadBegin, map[string]any{"previousMode": string(previous.Mode)})
	return nil
}

// PatchProduct replays a persisted product into the session. Combinations are taken as they are;
// nothing is regenerated.
func (s *EditorSession) PatchProduct(ctx context.Context, snapshot domain.ProductSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Mode != ModeLoading {
		return ErrEditorNotLoading
	}
	if snapshot.BasePrice.IsNegative() {
		return fmt.Errorf("%w: base price must not be negative", ErrEditorInvalidInput)
	}

	combos := domain.CloneCombinations(snapshot.Combinations)
	if combos == nil {
		combos = []domain.Combination{}
	}
	for i := range combos {
		combo := &combos[i]
		if combo.StockQuantity < 0 {
			return fmt.Errorf("%w: combination %d has negative stock", ErrEditorInvalidInput, i)
		}
		combo.Key = variants.KeyOf(*combo)
		if !combo.StockStatus.Valid() {
			combo.StockStatus = domain.StockStatusInStock
		}
		if combo.MediaIDs == nil {
			combo.MediaIDs = []string{}
		}
	}

	s.state.ProductID = strings.TrimSpace(snapshot.ID)
	s.state.Name = textutil.CollapseWhitespace(snapshot.Name, " ")
	s.state.Description = strings.TrimSpace(snapshot.Description)
	s.state.BasePrice = snapshot.BasePrice
	s.state.Attributes = s.prepareAttributes(snapshot.Attributes)
	s.state.Combinations = combos
	s.state.CategoryIDs = nonNil(cloneStrings(snapshot.CategoryIDs))
	s.state.MediaIDs = nonNil(cloneStrings(snapshot.MediaIDs))
	return nil
}

// CommitLoad leaves loading mode and validates the loaded matrix.
func (s *EditorSession) CommitLoad(ctx context.Context) (EditorState, error) {
	ctx = s.scoped(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Mode != ModeLoading {
		return EditorState{}, ErrEditorNotLoading
	}
	s.state.Mode = ModeInteractive
	s.state.Dirty = false
	s.beforeLoad = nil
	s.state.Validation = variants.Validate(s.state.Combinations, s.state.Attributes)
	s.logger(ctx, eventLoadCommit, map[string]any{
		"productId":    s.state.ProductID,
		"attributes":   len(s.state.Attributes),
		"combinations": len(s.state.Combinations),
	})
	return cloneState(s.state), nil
}

// AbortLoad discards everything patched since BeginLoad.
func (s *EditorSession) AbortLoad(ctx context.Context) error {
	ctx = s.scoped(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Mode != ModeLoading {
		return ErrEditorNotLoading
	}
	if s.beforeLoad != nil {
		s.state = *s.beforeLoad
	} else {
		s.state = emptyState()
	}
	s.beforeLoad = nil
	s.logger(ctx, eventLoadAbort, map[string]any{"mode": string(s.state.Mode)})
	return nil
}

// LoadProduct runs BeginLoad, PatchProduct and CommitLoad. A failed patch restores the previous
// state.
func (s *EditorSession) LoadProduct(ctx context.Context, snapshot domain.ProductSnapshot) (EditorState, error) {
	if err := s.BeginLoad(ctx); err != nil {
		return EditorState{}, err
	}
	if err := s.PatchProduct(ctx, snapshot); err != nil {
		if abortErr := s.AbortLoad(ctx); abortErr != nil {
			return EditorState{}, errors.Join(err, abortErr)
		}
		return EditorState{}, err
	}
	return s.CommitLoad(ctx)
}

// OnMatrixInputChanged stores the matrix fields and, outside loading mode, regenerates the
// combinations, fills blank SKUs and revalidates. A catalog that cannot be fetched clears the
// matrix; the failure is logged and reported through EditorState.CatalogAvailable.
func (s *EditorSession) OnMatrixInputChanged(ctx context.Context, input MatrixInput) (EditorState, error) {
	ctx = s.scoped(ctx)
	if input.BasePrice.IsNegative() {
		return EditorState{}, fmt.Errorf("%w: base price must not be negative", ErrEditorInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Name = textutil.CollapseWhitespace(input.Name, " ")
	s.state.Description = strings.TrimSpace(input.Description)
	s.state.BasePrice = input.BasePrice
	s.state.Attributes = s.prepareAttributes(input.Attributes)

	if s.state.Mode == ModeLoading {
		s.logger(ctx, eventMatrixSuppressed, map[string]any{"attributes": len(s.state.Attributes)})
		return cloneState(s.state), nil
	}
	s.state.Mode = ModeInteractive
	s.state.Dirty = true

	ctx, span := observability.StartSpan(ctx, "editor.regenerate",
		attribute.Int("editor.attributes", len(s.state.Attributes)))
	defer span.End()

	lookup, err := s.catalog.Lookup(ctx)
	if err != nil {
		lookup = nil
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog unavailable")
		s.logger(ctx, eventCatalogUnavailable, map[string]any{"error": err.Error()})
	}
	s.state.CatalogAvailable = lookup != nil

	combos := s.engine.Regenerate(variants.RegenerateInput{
		Attributes:  s.state.Attributes,
		Existing:    s.state.Combinations,
		BasePrice:   s.state.BasePrice,
		ProductName: s.state.Name,
		Catalog:     lookup,
	})
	combos = s.engine.FillMissingSKUs(s.state.Name, s.state.Attributes, combos)
	s.state.Combinations = combos
	s.state.Validation = variants.Validate(combos, s.state.Attributes)

	span.SetAttributes(attribute.Int("editor.combinations", len(combos)))
	s.metrics.RecordRegeneration(ctx, len(combos), lookup != nil)
	s.logger(ctx, eventMatrixRegenerated, map[string]any{
		"attributes":   len(s.state.Attributes),
		"combinations": len(combos),
		"valid":        s.state.Validation.Valid(),
	})
	return cloneState(s.state), nil
}

// OnCategorySelectionChanged stores the selection extended with every ancestor of the selected
// categories. While loading, or when auto-selection is disabled, the selection is stored as is.
// When the tree cannot be fetched the original selection is kept and a warning is returned.
func (s *EditorSession) OnCategorySelectionChanged(ctx context.Context, ids []string) (CategoryUpdate, error) {
	ctx = s.scoped(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	selection := nonNil(cloneStrings(ids))
	if s.state.Mode == ModeLoading {
		s.state.CategoryIDs = selection
		return CategoryUpdate{CategoryIDs: cloneStrings(selection), Added: []string{}, Suppressed: true}, nil
	}
	if s.state.Mode == ModeIdle {
		s.state.Mode = ModeInteractive
	}
	s.state.Dirty = true

	if !s.autoSelectParents || s.categorySource == nil {
		s.state.CategoryIDs = selection
		return CategoryUpdate{CategoryIDs: cloneStrings(selection), Added: []string{}}, nil
	}

	ctx, span := observability.StartSpan(ctx, "editor.categories.expand",
		attribute.Int("editor.categories.selected", len(selection)))
	defer span.End()

	resolver, err := s.categoryResolver(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "category tree unavailable")
		s.logger(ctx, eventCategoriesFallback, map[string]any{"error": err.Error(), "selected": len(selection)})
		s.state.CategoryIDs = selection
		return CategoryUpdate{
			CategoryIDs: cloneStrings(selection),
			Added:       []string{},
			Warning:     "category tree unavailable; parent categories were not added",
		}, nil
	}

	expanded := resolver.EnsureParentsSelected(selection)
	added := difference(expanded, selection)
	s.state.CategoryIDs = expanded
	span.SetAttributes(attribute.Int("editor.categories.added", len(added)))
	return CategoryUpdate{CategoryIDs: cloneStrings(expanded), Added: added}, nil
}

func (s *EditorSession) categoryResolver(ctx context.Context) (*categories.Resolver, error) {
	if s.resolver != nil {
		return s.resolver, nil
	}
	tree, err := s.categorySource.CategoryTree(ctx)
	if err != nil {
		return nil, fmt.Errorf("editor: fetch category tree: %w", err)
	}
	s.resolver = categories.NewResolver(tree)
	return s.resolver, nil
}

// InvalidateCategoryTree drops the cached resolver so the next selection change refetches the
// tree.
func (s *EditorSession) InvalidateCategoryTree() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolver = nil
}

// OnMediaTransition replaces placeholder media ids that finished uploading in the root media
// list and in every combination. Lists without placeholders are left untouched.
func (s *EditorSession) OnMediaTransition(ctx context.Context, previous, current []domain.MediaReference) media.Result {
	ctx = s.scoped(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := observability.StartSpan(ctx, "editor.media.reconcile")
	defer span.End()

	result := s.reconciler.Reconcile(previous, current, s.state.MediaIDs, s.state.Combinations)
	if !result.Changed() {
		return copyResult(result)
	}

	s.state.MediaIDs = result.RootIDs
	s.state.Combinations = result.Combinations
	s.state.Dirty = true

	rewrites := len(result.ChangedCombinations)
	if result.RootChanged {
		rewrites++
	}
	span.SetAttributes(attribute.Int("editor.media.rewrites", rewrites))
	s.metrics.RecordMediaRewrites(ctx, rewrites)
	s.logger(ctx, eventMediaReconciled, map[string]any{
		"placeholders": len(result.Mapping),
		"rootChanged":  result.RootChanged,
		"combinations": len(result.ChangedCombinations),
	})
	return copyResult(result)
}

// UpdateCombination applies a patch to the combination with the given key.
func (s *EditorSession) UpdateCombination(ctx context.Context, key string, patch CombinationPatch) (EditorState, error) {
	if err := validatePatch(patch.Price, patch.OriginalPrice, patch.StockQuantity, patch.StockStatus); err != nil {
		return EditorState{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Mode == ModeLoading {
		return EditorState{}, ErrEditorLoadInProgress
	}
	index := s.indexOf(key)
	if index < 0 {
		return EditorState{}, ErrCombinationNotFound
	}

	combo := &s.state.Combinations[index]
	if patch.SKU != nil {
		combo.SKU = strings.TrimSpace(*patch.SKU)
	}
	if patch.Price != nil {
		combo.Price = *patch.Price
	}
	if patch.ClearOriginalPrice {
		combo.OriginalPrice = nil
	} else if patch.OriginalPrice != nil {
		original := *patch.OriginalPrice
		combo.OriginalPrice = &original
	}
	if patch.StockQuantity != nil {
		combo.StockQuantity = *patch.StockQuantity
	}
	if patch.StockStatus != nil {
		combo.StockStatus = *patch.StockStatus
	}
	if patch.IsActive != nil {
		combo.IsActive = *patch.IsActive
	}
	if patch.MediaIDs != nil {
		combo.MediaIDs = cloneStrings(patch.MediaIDs)
	}
	return s.afterEdit(), nil
}

// SetDefaultCombination marks the combination with the given key as the only default.
func (s *EditorSession) SetDefaultCombination(ctx context.Context, key string) (EditorState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Mode == ModeLoading {
		return EditorState{}, ErrEditorLoadInProgress
	}
	index := s.indexOf(key)
	if index < 0 {
		return EditorState{}, ErrCombinationNotFound
	}
	for i := range s.state.Combinations {
		s.state.Combinations[i].IsDefault = i == index
	}
	return s.afterEdit(), nil
}

// ApplyBulkEdit applies the same values to the targeted combinations. Unknown keys fail the whole
// edit without changing anything.
func (s *EditorSession) ApplyBulkEdit(ctx context.Context, edit BulkEdit) (EditorState, error) {
	if err := validatePatch(edit.Price, nil, edit.StockQuantity, edit.StockStatus); err != nil {
		return EditorState{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Mode == ModeLoading {
		return EditorState{}, ErrEditorLoadInProgress
	}

	targets := make([]int, 0, len(s.state.Combinations))
	if len(edit.Keys) == 0 {
		for i := range s.state.Combinations {
			targets = append(targets, i)
		}
	} else {
		for _, key := range edit.Keys {
			index := s.indexOf(key)
			if index < 0 {
				return EditorState{}, fmt.Errorf("%w: %s", ErrCombinationNotFound, key)
			}
			targets = append(targets, index)
		}
	}

	for _, index := range targets {
		combo := &s.state.Combinations[index]
		if edit.Price != nil {
			combo.Price = *edit.Price
		}
		if edit.StockQuantity != nil {
			combo.StockQuantity = *edit.StockQuantity
		}
		if edit.StockStatus != nil {
			combo.StockStatus = *edit.StockStatus
		}
		if edit.IsActive != nil {
			combo.IsActive = *edit.IsActive
		}
	}
	return s.afterEdit(), nil
}

// BuildSavePayload revalidates the matrix and flattens the session into the save payload. The save
// is blocked while loading and while validation errors exist; in the latter case the returned
// error is a *ValidationError.
func (s *EditorSession) BuildSavePayload(ctx context.Context) (domain.SavePayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Mode == ModeLoading {
		return domain.SavePayload{}, ErrEditorLoadInProgress
	}
	s.state.Validation = variants.Validate(s.state.Combinations, s.state.Attributes)
	if !s.state.Validation.Valid() {
		return domain.SavePayload{}, &ValidationError{Result: cloneValidation(s.state.Validation)}
	}
	return MapSavePayload(s.state), nil
}

// MarkSaved clears the dirty flag once the host has persisted the payload.
func (s *EditorSession) MarkSaved() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Dirty = false
}

func (s *EditorSession) afterEdit() EditorState {
	s.state.Dirty = true
	s.state.Validation = variants.Validate(s.state.Combinations, s.state.Attributes)
	return cloneState(s.state)
}

func (s *EditorSession) indexOf(key string) int {
	key = strings.TrimSpace(key)
	if key == "" {
		return -1
	}
	for i, combo := range s.state.Combinations {
		if variants.KeyOf(combo) == key {
			return i
		}
	}
	return -1
}

// prepareAttributes assigns temp ids to new attributes and values, infers missing kinds and
// sanitises free-text labels.
func (s *EditorSession) prepareAttributes(in []domain.AttributeDefinition) []domain.AttributeDefinition {
	out := domain.CloneAttributes(in)
	if out == nil {
		return []domain.AttributeDefinition{}
	}
	for i := range out {
		attr := &out[i]
		attr.Name = textutil.CollapseWhitespace(attr.Name, " ")
		if attr.ID == "" && attr.TempID == "" {
			attr.TempID = s.newID()
		}
		if attr.Kind == "" {
			attr.Kind = domain.KindForName(attr.Name)
		}
		for j := range attr.Values {
			value := &attr.Values[j]
			if value.ID == "" && value.TempID == "" {
				value.TempID = s.newID()
			}
			if value.Selection.Kind == domain.SelectionCustom {
				value.DisplayName = textutil.SanitizeLabel(value.DisplayName)
			}
		}
	}
	return out
}

func validatePatch(price, original *decimal.Decimal, stock *int, status *domain.StockStatus) error {
	if price != nil && price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrEditorInvalidInput)
	}
	if original != nil && original.IsNegative() {
		return fmt.Errorf("%w: original price must not be negative", ErrEditorInvalidInput)
	}
	if stock != nil && *stock < 0 {
		return fmt.Errorf("%w: stock quantity must not be negative", ErrEditorInvalidInput)
	}
	if status != nil && !status.Valid() {
		return fmt.Errorf("%w: unknown stock status %q", ErrEditorInvalidInput, *status)
	}
	return nil
}

func cloneState(in EditorState) EditorState {
	out := in
	out.Attributes = domain.CloneAttributes(in.Attributes)
	out.Combinations = domain.CloneCombinations(in.Combinations)
	out.CategoryIDs = cloneStrings(in.CategoryIDs)
	out.MediaIDs = cloneStrings(in.MediaIDs)
	out.Validation = cloneValidation(in.Validation)
	return out
}

func cloneValidation(in variants.ValidationResult) variants.ValidationResult {
	out := in
	if in.Fields != nil {
		out.Fields = make([]variants.FieldError, len(in.Fields))
		copy(out.Fields, in.Fields)
	}
	return out
}

func copyResult(in media.Result) media.Result {
	out := in
	out.RootIDs = cloneStrings(in.RootIDs)
	out.Combinations = domain.CloneCombinations(in.Combinations)
	if in.ChangedCombinations != nil {
		out.ChangedCombinations = append([]int(nil), in.ChangedCombinations...)
	}
	return out
}

func difference(all, exclude []string) []string {
	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[strings.TrimSpace(id)] = struct{}{}
	}
	out := make([]string, 0, len(all))
	for _, id := range all {
		if _, ok := skip[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
