package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hanko-field/product-editor/internal/domain"
	"github.com/hanko-field/product-editor/internal/variants"
)

type stubCatalog struct {
	lookupFn func(ctx context.Context) (*domain.CatalogLookup, error)
	calls    int
}

func (s *stubCatalog) Lookup(ctx context.Context) (*domain.CatalogLookup, error) {
	s.calls++
	if s.lookupFn != nil {
		return s.lookupFn(ctx)
	}
	return &domain.CatalogLookup{
		AttributeNames:   []string{"Color", "Size"},
		PredefinedByName: map[string][]domain.PredefinedValue{},
	}, nil
}

type stubCategories struct {
	treeFn func(ctx context.Context) (domain.CategoryNode, error)
	calls  int
}

func (s *stubCategories) CategoryTree(ctx context.Context) (domain.CategoryNode, error) {
	s.calls++
	if s.treeFn != nil {
		return s.treeFn(ctx)
	}
	return domain.CategoryNode{
		ID: "root",
		Children: []domain.CategoryNode{
			{ID: "toys", Children: []domain.CategoryNode{
				{ID: "plush", Children: []domain.CategoryNode{{ID: "bears"}}},
			}},
			{ID: "apparel"},
		},
	}, nil
}

type captureEvents struct {
	events []string
	fields []map[string]any
}

func (c *captureEvents) log(_ context.Context, event string, fields map[string]any) {
	c.events = append(c.events, event)
	c.fields = append(c.fields, fields)
}

func (c *captureEvents) has(event string) bool {
	for _, e := range c.events {
		if e == event {
			return true
		}
	}
	return false
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestSession(t *testing.T, deps EditorSessionDeps) *EditorSession {
	t.Helper()
	if deps.Catalog == nil {
		deps.Catalog = &stubCatalog{}
	}
	if deps.IDGen == nil {
		deps.IDGen = sequentialIDs()
	}
	session, err := NewEditorSession(deps)
	if err != nil {
		t.Fatalf("NewEditorSession returned error: %v", err)
	}
	return session
}

func customValue(id, name string) domain.AttributeValue {
	return domain.AttributeValue{ID: id, Selection: domain.Custom(), DisplayName: name, IsAvailable: true}
}

func teddyInput() MatrixInput {
	return MatrixInput{
		Name:      "Teddy Bear",
		BasePrice: decimal.RequireFromString("19.99"),
		Attributes: []domain.AttributeDefinition{
			{ID: "attr-color", Name: "Color", Values: []domain.AttributeValue{customValue("val-red", "Red"), customValue("val-blue", "Blue")}},
			{ID: "attr-size", Name: "Size", Values: []domain.AttributeValue{customValue("val-s", "S"), customValue("val-m", "M")}},
		},
	}
}

func loadedSnapshot() domain.ProductSnapshot {
	input := teddyInput()
	return domain.ProductSnapshot{
		ID:          "prod-1",
		Name:        "Teddy Bear",
		Description: "Soft and huggable",
		BasePrice:   input.BasePrice,
		CategoryIDs: []string{"bears"},
		MediaIDs:    []string{"temp_1", "m-0"},
		Attributes:  input.Attributes,
		Combinations: []domain.Combination{
			{
				SKU:           "TB-RED-S",
				Price:         decimal.RequireFromString("42"),
				StockQuantity: 5,
				StockStatus:   domain.StockStatusLowStock,
				IsActive:      true,
				IsDefault:     true,
				MediaIDs:      []string{"temp_1"},
				Selections: []domain.AttributeSelection{
					{AttributeID: "attr-color", AttributeValueID: "val-red"},
					{AttributeID: "attr-size", AttributeValueID: "val-s"},
				},
				Labels: []string{"Red", "S"},
			},
			{
				SKU:           "TB-BLUE-M",
				Price:         decimal.RequireFromString("21"),
				StockQuantity: 1,
				StockStatus:   "discontinued",
				IsActive:      true,
				MediaIDs:      []string{"m-2"},
				Selections: []domain.AttributeSelection{
					{AttributeID: "attr-color", AttributeValueID: "val-blue"},
					{AttributeID: "attr-size", AttributeValueID: "val-m"},
				},
				Labels: []string{"Blue", "M"},
			},
		},
	}
}

func TestNewEditorSessionRequiresCatalog(t *testing.T) {
	if _, err := NewEditorSession(EditorSessionDeps{}); err == nil {
		t.Fatalf("expected error when catalog source is missing")
	}
}

func TestEditorSessionRegeneratesInteractively(t *testing.T) {
	events := &captureEvents{}
	session := newTestSession(t, EditorSessionDeps{Logger: events.log})

	if session.Mode() != ModeIdle {
		t.Fatalf("expected idle session, got %s", session.Mode())
	}
	if _, err := uuid.Parse(session.ID()); err != nil {
		t.Fatalf("expected uuid session id, got %q", session.ID())
	}

	state, err := session.OnMatrixInputChanged(context.Background(), teddyInput())
	if err != nil {
		t.Fatalf("OnMatrixInputChanged returned error: %v", err)
	}
	if state.Mode != ModeInteractive {
		t.Fatalf("expected interactive mode, got %s", state.Mode)
	}

	var skus []string
	for _, combo := range state.Combinations {
		skus = append(skus, combo.SKU)
	}
	want := []string{"SKU-TEDDY-BEAR-RED-S", "SKU-TEDDY-BEAR-RED-M", "SKU-TEDDY-BEAR-BLUE-S", "SKU-TEDDY-BEAR-BLUE-M"}
	if !reflect.DeepEqual(skus, want) {
		t.Fatalf("expected skus %v got %v", want, skus)
	}
	if !state.Combinations[0].IsDefault {
		t.Fatalf("expected first combination to be default")
	}
	if !state.Validation.Valid() || !state.CatalogAvailable || !state.Dirty {
		t.Fatalf("unexpected state flags: valid=%t catalog=%t dirty=%t", state.Validation.Valid(), state.CatalogAvailable, state.Dirty)
	}
	if !events.has(eventMatrixRegenerated) {
		t.Fatalf("expected %s event, got %v", eventMatrixRegenerated, events.events)
	}
}

func TestEditorSessionAssignsTempIDsAndSanitisesLabels(t *testing.T) {
	session := newTestSession(t, EditorSessionDeps{})

	input := MatrixInput{
		Name:      "Tote",
		BasePrice: decimal.RequireFromString("12"),
		Attributes: []domain.AttributeDefinition{{
			Name: "  Colour ",
			Values: []domain.AttributeValue{
				{Selection: domain.Custom(), DisplayName: "<b>Forest</b>   Green", IsAvailable: true},
				{Selection: domain.Unselected()},
			},
		}},
	}
	state, err := session.OnMatrixInputChanged(context.Background(), input)
	if err != nil {
		t.Fatalf("OnMatrixInputChanged returned error: %v", err)
	}

	attr := state.Attributes[0]
	if attr.TempID != "id-1" || attr.Values[0].TempID != "id-2" || attr.Values[1].TempID != "id-3" {
		t.Fatalf("unexpected temp ids: %s %s %s", attr.TempID, attr.Values[0].TempID, attr.Values[1].TempID)
	}
	if attr.Name != "Colour" || attr.Kind != domain.AttributeKindColor {
		t.Fatalf("unexpected attribute name/kind: %q %s", attr.Name, attr.Kind)
	}
	if attr.Values[0].DisplayName != "Forest Green" {
		t.Fatalf("expected sanitised label, got %q", attr.Values[0].DisplayName)
	}
	if len(state.Combinations) != 1 || state.Combinations[0].Key != "id-2" {
		t.Fatalf("expected single combination keyed by temp id, got %+v", state.Combinations)
	}

	// Round-tripping the state keeps ids stable, so edits survive.
	if _, err := session.UpdateCombination(context.Background(), "id-2", CombinationPatch{SKU: ptr("TOTE-GREEN")}); err != nil {
		t.Fatalf("UpdateCombination returned error: %v", err)
	}
	input.Attributes = session.State().Attributes
	state, err = session.OnMatrixInputChanged(context.Background(), input)
	if err != nil {
		t.Fatalf("OnMatrixInputChanged returned error: %v", err)
	}
	if state.Combinations[0].SKU != "TOTE-GREEN" {
		t.Fatalf("expected edited sku to survive, got %s", state.Combinations[0].SKU)
	}
}

func TestEditorSessionPreservesEditsAcrossRegeneration(t *testing.T) {
	session := newTestSession(t, EditorSessionDeps{})
	ctx := context.Background()

	if _, err := session.OnMatrixInputChanged(ctx, teddyInput()); err != nil {
		t.Fatalf("OnMatrixInputChanged returned error: %v", err)
	}
	price := decimal.RequireFromString("42")
	if _, err := session.UpdateCombination(ctx, "val-red|val-s", CombinationPatch{Price: &price, SKU: ptr("CUSTOM-1")}); err != nil {
		t.Fatalf("UpdateCombination returned error: %v", err)
	}

	input := teddyInput()
	input.Attributes[0].Values = append(input.Attributes[0].Values, customValue("val-green", "Green"))
	state, err := session.OnMatrixInputChanged(ctx, input)
	if err != nil {
		t.Fatalf("OnMatrixInputChanged returned error: %v", err)
	}
	if len(state.Combinations) != 6 {
		t.Fatalf("expected 6 combinations, got %d", len(state.Combinations))
	}
	kept := state.Combinations[0]
	if kept.Key != "val-red|val-s" || !kept.Price.Equal(price) || kept.SKU != "CUSTOM-1" {
		t.Fatalf("expected edits to survive, got %+v", kept)
	}
}

func TestEditorSessionLoadSuppressesRegeneration(t *testing.T) {
	catalog := &stubCatalog{}
	tree := &stubCategories{}
	events := &captureEvents{}
	session := newTestSession(t, EditorSessionDeps{Catalog: catalog, Categories: tree, Logger: events.log})
	ctx := context.Background()

	if err := session.BeginLoad(ctx); err != nil {
		t.Fatalf("BeginLoad returned error: %v", err)
	}
	if err := session.BeginLoad(ctx); !errors.Is(err, ErrEditorLoadInProgress) {
		t.Fatalf("expected ErrEditorLoadInProgress, got %v", err)
	}
	if err := session.PatchProduct(ctx, loadedSnapshot()); err != nil {
		t.Fatalf("PatchProduct returned error: %v", err)
	}

	// The patch replays attribute data; nothing may regenerate.
	state, err := session.OnMatrixInputChanged(ctx, teddyInput())
	if err != nil {
		t.Fatalf("OnMatrixInputChanged returned error: %v", err)
	}
	if len(state.Combinations) != 2 || state.Mode != ModeLoading {
		t.Fatalf("expected loaded combinations to stay untouched, got %d in %s", len(state.Combinations), state.Mode)
	}
	update, err := session.OnCategorySelectionChanged(ctx, []string{"bears"})
	if err != nil {
		t.Fatalf("OnCategorySelectionChanged returned error: %v", err)
	}
	if !update.Suppressed || !reflect.DeepEqual(update.CategoryIDs, []string{"bears"}) {
		t.Fatalf("expected suppressed category update, got %+v", update)
	}
	if catalog.calls != 0 || tree.calls != 0 {
		t.Fatalf("expected no collaborator calls while loading, got catalog=%d tree=%d", catalog.calls, tree.calls)
	}
	if !events.has(eventMatrixSuppressed) {
		t.Fatalf("expected %s event", eventMatrixSuppressed)
	}

	if _, err := session.UpdateCombination(ctx, "val-red|val-s", CombinationPatch{}); !errors.Is(err, ErrEditorLoadInProgress) {
		t.Fatalf("expected ErrEditorLoadInProgress, got %v", err)
	}
	if _, err := session.SetDefaultCombination(ctx, "val-red|val-s"); !errors.Is(err, ErrEditorLoadInProgress) {
		t.Fatalf("expected ErrEditorLoadInProgress, got %v", err)
	}
	if _, err := session.BuildSavePayload(ctx); !errors.Is(err, ErrEditorLoadInProgress) {
		t.Fatalf("expected ErrEditorLoadInProgress, got %v", err)
	}

	state, err = session.CommitLoad(ctx)
	if err != nil {
		t.Fatalf("CommitLoad returned error: %v", err)
	}
	if state.Mode != ModeInteractive || state.Dirty {
		t.Fatalf("expected clean interactive session, got mode=%s dirty=%t", state.Mode, state.Dirty)
	}
	first := state.Combinations[0]
	if first.Key != "val-red|val-s" || first.SKU != "TB-RED-S" || !first.Price.Equal(decimal.RequireFromString("42")) {
		t.Fatalf("expected loaded combination as-is, got %+v", first)
	}
	if state.Combinations[1].StockStatus != domain.StockStatusInStock {
		t.Fatalf("expected unknown stock status to normalise, got %s", state.Combinations[1].StockStatus)
	}
	if !state.Validation.Valid() {
		t.Fatalf("expected loaded matrix to validate, got %+v", state.Validation)
	}
	if _, err := session.CommitLoad(ctx); !errors.Is(err, ErrEditorNotLoading) {
		t.Fatalf("expected ErrEditorNotLoading, got %v", err)
	}

	// First interactive edit regenerates and keeps the loaded edits.
	state, err = session.OnMatrixInputChanged(ctx, teddyInput())
	if err != nil {
		t.Fatalf("OnMatrixInputChanged returned error: %v", err)
	}
	if len(state.Combinations) != 4 || catalog.calls != 1 {
		t.Fatalf("expected regeneration after commit, got %d combinations and %d catalog calls", len(state.Combinations), catalog.calls)
	}
	if state.Combinations[0].SKU != "TB-RED-S" || !state.Combinations[0].IsDefault {
		t.Fatalf("expected loaded default to survive, got %+v", state.Combinations[0])
	}
	if state.Combinations[3].SKU != "TB-BLUE-M" || state.Combinations[3].IsDefault {
		t.Fatalf("expected loaded combination to keep its sku, got %+v", state.Combinations[3])
	}
}

func TestEditorSessionPatchOutsideLoad(t *testing.T) {
	session := newTestSession(t, EditorSessionDeps{})
	if err := session.PatchProduct(context.Background(), loadedSnapshot()); !errors.Is(err, ErrEditorNotLoading) {
		t.Fatalf("expected ErrEditorNotLoading, got %v", err)
	}
	if err := session.AbortLoad(context.Background()); !errors.Is(err, ErrEditorNotLoading) {
		t.Fatalf("expected ErrEditorNotLoading, got %v", err)
	}
}

func TestEditorSessionLoadProductRollsBackOnInvalidSnapshot(t *testing.T) {
	session := newTestSession(t, EditorSessionDeps{})
	ctx := context.Background()

	if _, err := session.OnMatrixInputChanged(ctx, teddyInput()); err != nil {
		t.Fatalf("OnMatrixInputChanged returned error: %v", err)
	}
	before := session.State()

	snapshot := loadedSnapshot()
	snapshot.Combinations[1].StockQuantity = -3
	if _, err := session.LoadProduct(ctx, snapshot); !errors.Is(err, ErrEditorInvalidInput) {
		t.Fatalf("expected ErrEditorInvalidInput, got %v", err)
	}

	after := session.State()
	if after.Mode != ModeInteractive || !reflect.DeepEqual(before.Combinations, after.Combinations) {
		t.Fatalf("expected state to be restored after failed load")
	}
}

func TestEditorSessionLoadProduct(t *testing.T) {
	events := &captureEvents{}
	session := newTestSession(t, EditorSessionDeps{Logger: events.log})

	state, err := session.LoadProduct(context.Background(), loadedSnapshot())
	if err != nil {
		t.Fatalf("LoadProduct returned error: %v", err)
	}
	if state.ProductID != "prod-1" || state.Description != "Soft and huggable" || len(state.Combinations) != 2 {
		t.Fatalf("unexpected loaded state: %+v", state)
	}
	if !reflect.DeepEqual(events.events, []string{eventLoadBegin, eventLoadCommit}) {
		t.Fatalf("unexpected events %v", events.events)
	}
}

func TestEditorSessionCatalogUnavailableClearsMatrix(t *testing.T) {
	catalog := &stubCatalog{}
	events := &captureEvents{}
	session := newTestSession(t, EditorSessionDeps{Catalog: catalog, Logger: events.log})
	ctx := context.Background()

	if _, err := session.OnMatrixInputChanged(ctx, teddyInput()); err != nil {
		t.Fatalf("OnMatrixInputChanged returned error: %v", err)
	}

	catalog.lookupFn = func(context.Context) (*domain.CatalogLookup, error) {
		return nil, errors.New("catalog offline")
	}
	state, err := session.OnMatrixInputChanged(ctx, teddyInput())
	if err != nil {
		t.Fatalf("expected catalog failure to be absorbed, got %v", err)
	}
	if len(state.Combinations) != 0 || state.Combinations == nil {
		t.Fatalf("expected empty non-nil matrix, got %#v", state.Combinations)
	}
	if state.CatalogAvailable {
		t.Fatalf("expected catalog to be reported unavailable")
	}
	if !state.Validation.Matrix.NoCombinationsGenerated {
		t.Fatalf("expected no-combinations flag, got %+v", state.Validation.Matrix)
	}
	if !events.has(eventCatalogUnavailable) {
		t.Fatalf("expected %s event, got %v", eventCatalogUnavailable, events.events)
	}
}

func TestEditorSessionCategorySelection(t *testing.T) {
	ctx := context.Background()

	t.Run("expands ancestors with a cached resolver", func(t *testing.T) {
		tree := &stubCategories{}
		session := newTestSession(t, EditorSessionDeps{Categories: tree})

		update, err := session.OnCategorySelectionChanged(ctx, []string{"bears"})
		if err != nil {
			t.Fatalf("OnCategorySelectionChanged returned error: %v", err)
		}
		if !reflect.DeepEqual(update.CategoryIDs, []string{"bears", "root", "toys", "plush"}) {
			t.Fatalf("unexpected expansion %v", update.CategoryIDs)
		}
		if !reflect.DeepEqual(update.Added, []string{"root", "toys", "plush"}) {
			t.Fatalf("unexpected added ids %v", update.Added)
		}
		if update.Warning != "" || update.Suppressed {
			t.Fatalf("unexpected update flags %+v", update)
		}

		again, err := session.OnCategorySelectionChanged(ctx, update.CategoryIDs)
		if err != nil {
			t.Fatalf("OnCategorySelectionChanged returned error: %v", err)
		}
		if !reflect.DeepEqual(again.CategoryIDs, update.CategoryIDs) || len(again.Added) != 0 {
			t.Fatalf("expected idempotent expansion, got %+v", again)
		}
		if tree.calls != 1 {
			t.Fatalf("expected tree to be fetched once, got %d", tree.calls)
		}

		session.InvalidateCategoryTree()
		if _, err := session.OnCategorySelectionChanged(ctx, []string{"apparel"}); err != nil {
			t.Fatalf("OnCategorySelectionChanged returned error: %v", err)
		}
		if tree.calls != 2 {
			t.Fatalf("expected tree refetch after invalidation, got %d", tree.calls)
		}
		if got := session.State().CategoryIDs; !reflect.DeepEqual(got, []string{"apparel", "root"}) {
			t.Fatalf("unexpected stored selection %v", got)
		}
	})

	t.Run("falls back to the original selection", func(t *testing.T) {
		events := &captureEvents{}
		tree := &stubCategories{treeFn: func(context.Context) (domain.CategoryNode, error) {
			return domain.CategoryNode{}, errors.New("tree offline")
		}}
		session := newTestSession(t, EditorSessionDeps{Categories: tree, Logger: events.log})

		update, err := session.OnCategorySelectionChanged(ctx, []string{"bears", "apparel"})
		if err != nil {
			t.Fatalf("expected fallback instead of error, got %v", err)
		}
		if !reflect.DeepEqual(update.CategoryIDs, []string{"bears", "apparel"}) || update.Warning == "" {
			t.Fatalf("expected original selection with warning, got %+v", update)
		}
		if !events.has(eventCategoriesFallback) {
			t.Fatalf("expected %s event", eventCategoriesFallback)
		}

		// Failures are not cached.
		tree.treeFn = nil
		update, err = session.OnCategorySelectionChanged(ctx, []string{"bears"})
		if err != nil || update.Warning != "" || len(update.Added) != 3 {
			t.Fatalf("expected recovery once the tree is reachable, got %+v (%v)", update, err)
		}
	})

	t.Run("auto-selection disabled", func(t *testing.T) {
		tree := &stubCategories{}
		session := newTestSession(t, EditorSessionDeps{Categories: tree, DisableCategoryAutoSelect: true})

		update, err := session.OnCategorySelectionChanged(ctx, []string{"bears"})
		if err != nil {
			t.Fatalf("OnCategorySelectionChanged returned error: %v", err)
		}
		if !reflect.DeepEqual(update.CategoryIDs, []string{"bears"}) || tree.calls != 0 {
			t.Fatalf("expected selection stored as-is, got %+v after %d calls", update, tree.calls)
		}
	})
}

func TestEditorSessionMediaTransition(t *testing.T) {
	events := &captureEvents{}
	session := newTestSession(t, EditorSessionDeps{Logger: events.log})
	ctx := context.Background()

	if _, err := session.LoadProduct(ctx, loadedSnapshot()); err != nil {
		t.Fatalf("LoadProduct returned error: %v", err)
	}

	previous := []domain.MediaReference{{ID: "temp_1", Title: "a.png"}}
	current := []domain.MediaReference{{ID: "temp_1", Title: "a.png"}, {ID: "final_9", Title: "a.png"}}
	result := session.OnMediaTransition(ctx, previous, current)
	if !result.Changed() || !reflect.DeepEqual(result.Mapping, map[string]string{"temp_1": "final_9"}) {
		t.Fatalf("unexpected reconciliation result %+v", result)
	}

	state := session.State()
	if !reflect.DeepEqual(state.MediaIDs, []string{"final_9", "m-0"}) {
		t.Fatalf("unexpected root media ids %v", state.MediaIDs)
	}
	if !reflect.DeepEqual(state.Combinations[0].MediaIDs, []string{"final_9"}) {
		t.Fatalf("unexpected combination media ids %v", state.Combinations[0].MediaIDs)
	}
	if !reflect.DeepEqual(state.Combinations[1].MediaIDs, []string{"m-2"}) {
		t.Fatalf("expected untouched combination media, got %v", state.Combinations[1].MediaIDs)
	}
	if !state.Dirty || !events.has(eventMediaReconciled) {
		t.Fatalf("expected dirty state and %s event", eventMediaReconciled)
	}

	session.MarkSaved()
	result = session.OnMediaTransition(ctx, current, current)
	if result.Changed() || session.State().Dirty {
		t.Fatalf("expected no-op transition to leave the session clean")
	}
}

func TestEditorSessionCombinationEdits(t *testing.T) {
	session := newTestSession(t, EditorSessionDeps{})
	ctx := context.Background()
	if _, err := session.OnMatrixInputChanged(ctx, teddyInput()); err != nil {
		t.Fatalf("OnMatrixInputChanged returned error: %v", err)
	}

	t.Run("set default keeps exactly one", func(t *testing.T) {
		state, err := session.SetDefaultCombination(ctx, "val-blue|val-m")
		if err != nil {
			t.Fatalf("SetDefaultCombination returned error: %v", err)
		}
		defaults := 0
		for _, combo := range state.Combinations {
			if combo.IsDefault {
				defaults++
				if combo.Key != "val-blue|val-m" {
					t.Fatalf("unexpected default %s", combo.Key)
				}
			}
		}
		if defaults != 1 {
			t.Fatalf("expected one default, got %d", defaults)
		}
		if _, err := session.SetDefaultCombination(ctx, "nope"); !errors.Is(err, ErrCombinationNotFound) {
			t.Fatalf("expected ErrCombinationNotFound, got %v", err)
		}
	})

	t.Run("update combination", func(t *testing.T) {
		original := decimal.RequireFromString("30")
		status := domain.StockStatusBackorder
		state, err := session.UpdateCombination(ctx, "val-m|val-red", CombinationPatch{
			OriginalPrice: &original,
			StockQuantity: ptr(0),
			StockStatus:   &status,
			IsActive:      ptr(false),
			MediaIDs:      []string{"m-1"},
		})
		if err != nil {
			t.Fatalf("UpdateCombination returned error: %v", err)
		}
		combo := state.Combinations[1]
		if combo.OriginalPrice == nil || !combo.OriginalPrice.Equal(original) || combo.StockQuantity != 0 ||
			combo.StockStatus != status || combo.IsActive || !reflect.DeepEqual(combo.MediaIDs, []string{"m-1"}) {
			t.Fatalf("patch not applied: %+v", combo)
		}

		state, err = session.UpdateCombination(ctx, "val-m|val-red", CombinationPatch{ClearOriginalPrice: true})
		if err != nil {
			t.Fatalf("UpdateCombination returned error: %v", err)
		}
		if state.Combinations[1].OriginalPrice != nil {
			t.Fatalf("expected original price to be cleared")
		}
	})

	t.Run("invalid patches", func(t *testing.T) {
		negative := decimal.RequireFromString("-1")
		unknown := domain.StockStatus("gone")
		patches := []CombinationPatch{
			{Price: &negative},
			{OriginalPrice: &negative},
			{StockQuantity: ptr(-1)},
			{StockStatus: &unknown},
		}
		for _, patch := range patches {
			if _, err := session.UpdateCombination(ctx, "val-red|val-s", patch); !errors.Is(err, ErrEditorInvalidInput) {
				t.Fatalf("expected ErrEditorInvalidInput for %+v, got %v", patch, err)
			}
		}
		if _, err := session.UpdateCombination(ctx, "", CombinationPatch{}); !errors.Is(err, ErrCombinationNotFound) {
			t.Fatalf("expected ErrCombinationNotFound, got %v", err)
		}
	})

	t.Run("bulk edit", func(t *testing.T) {
		price := decimal.RequireFromString("25")
		state, err := session.ApplyBulkEdit(ctx, BulkEdit{Price: &price, StockQuantity: ptr(7)})
		if err != nil {
			t.Fatalf("ApplyBulkEdit returned error: %v", err)
		}
		for _, combo := range state.Combinations {
			if !combo.Price.Equal(price) || combo.StockQuantity != 7 {
				t.Fatalf("bulk edit not applied to %s", combo.Key)
			}
		}

		state, err = session.ApplyBulkEdit(ctx, BulkEdit{Keys: []string{"val-red|val-s"}, IsActive: ptr(false)})
		if err != nil {
			t.Fatalf("ApplyBulkEdit returned error: %v", err)
		}
		if state.Combinations[0].IsActive || !state.Combinations[2].IsActive {
			t.Fatalf("expected only the targeted combination to change")
		}

		before := session.State()
		if _, err := session.ApplyBulkEdit(ctx, BulkEdit{Keys: []string{"val-red|val-s", "nope"}, IsActive: ptr(true)}); !errors.Is(err, ErrCombinationNotFound) {
			t.Fatalf("expected ErrCombinationNotFound, got %v", err)
		}
		if !reflect.DeepEqual(before, session.State()) {
			t.Fatalf("expected failed bulk edit to change nothing")
		}
	})
}

func TestEditorSessionBuildSavePayload(t *testing.T) {
	session := newTestSession(t, EditorSessionDeps{})
	ctx := context.Background()
	if _, err := session.OnMatrixInputChanged(ctx, teddyInput()); err != nil {
		t.Fatalf("OnMatrixInputChanged returned error: %v", err)
	}

	if _, err := session.UpdateCombination(ctx, "val-m|val-red", CombinationPatch{SKU: ptr("SKU-TEDDY-BEAR-RED-S")}); err != nil {
		t.Fatalf("UpdateCombination returned error: %v", err)
	}
	_, err := session.BuildSavePayload(ctx)
	if !errors.Is(err, ErrEditorValidationFailed) {
		t.Fatalf("expected ErrEditorValidationFailed, got %v", err)
	}
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if !vErr.Result.Matrix.DuplicateSKU || len(vErr.Result.Fields) != 2 {
		t.Fatalf("unexpected validation result %+v", vErr.Result)
	}

	if _, err := session.UpdateCombination(ctx, "val-m|val-red", CombinationPatch{SKU: ptr("SKU-TEDDY-BEAR-RED-M")}); err != nil {
		t.Fatalf("UpdateCombination returned error: %v", err)
	}
	payload, err := session.BuildSavePayload(ctx)
	if err != nil {
		t.Fatalf("BuildSavePayload returned error: %v", err)
	}
	if payload.Name != "Teddy Bear" || len(payload.VariantOverrides) != 4 || len(payload.VariantAttributes) != 2 {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if payload.VariantOverrides[0].Price != 19.99 || !payload.VariantOverrides[0].IsDefault {
		t.Fatalf("unexpected first override %+v", payload.VariantOverrides[0])
	}
}

func TestEditorSessionStateIsACopy(t *testing.T) {
	session := newTestSession(t, EditorSessionDeps{})
	if _, err := session.OnMatrixInputChanged(context.Background(), teddyInput()); err != nil {
		t.Fatalf("OnMatrixInputChanged returned error: %v", err)
	}

	state := session.State()
	state.Combinations[0].SKU = "mutated"
	state.Attributes[0].Values[0].DisplayName = "mutated"

	fresh := session.State()
	if fresh.Combinations[0].SKU == "mutated" || fresh.Attributes[0].Values[0].DisplayName == "mutated" {
		t.Fatalf("state leaked internal slices")
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Result: variants.ValidationResult{Matrix: variants.MatrixErrors{NoDefaultVariant: true}}}
	want := "editor: validation failed: noCombinations=false duplicateSku=false noDefault=true fieldErrors=0"
	if err.Error() != want {
		t.Fatalf("expected %q got %q", want, err.Error())
	}
}

func ptr[T any](v T) *T {
	return &v
}
