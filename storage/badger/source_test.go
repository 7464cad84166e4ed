package badger

import (
	"context"
	"testing"

	"github.com/poiesic/topiary/core"
)

func TestSourceUnitDedup(t *testing.T) {
	stores, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer stores.Close()

	ctx := context.Background()

	unit := &core.SourceUnit{
		Fingerprint: core.IDFromContent("the battle of midway"),
		Topic:       "ww2_pacific",
		Origin:      "docs/midway.txt",
		Modality:    core.ModalityDocument,
	}

	created, err := stores.Sources.AddSourceUnit(ctx, unit)
	if err != nil {
		t.Fatalf("Failed to add source unit: %v", err)
	}
	if !created {
		t.Fatal("Expected first add to create")
	}

	// Same (topic, fingerprint) is a duplicate
	dup := &core.SourceUnit{
		Fingerprint: unit.Fingerprint,
		Topic:       "ww2_pacific",
		Origin:      "docs/midway_copy.txt",
		Modality:    core.ModalityDocument,
	}
	created, err = stores.Sources.AddSourceUnit(ctx, dup)
	if err != nil {
		t.Fatalf("Failed on duplicate add: %v", err)
	}
	if created {
		t.Fatal("Expected duplicate add to report created=false")
	}

	// Same fingerprint under a different topic is not a duplicate
	other := &core.SourceUnit{
		Fingerprint: unit.Fingerprint,
		Topic:       "ww2_atlantic",
		Origin:      "docs/midway.txt",
		Modality:    core.ModalityDocument,
	}
	created, err = stores.Sources.AddSourceUnit(ctx, other)
	if err != nil {
		t.Fatalf("Failed to add unit under other topic: %v", err)
	}
	if !created {
		t.Fatal("Expected add under different topic to create")
	}

	found, err := stores.Sources.HasSourceUnit(ctx, "ww2_pacific", unit.Fingerprint)
	if err != nil {
		t.Fatalf("HasSourceUnit failed: %v", err)
	}
	if !found {
		t.Fatal("Expected fingerprint to be recorded")
	}

	found, err = stores.Sources.HasSourceUnit(ctx, "ww2_pacific", core.IDFromContent("unknown"))
	if err != nil {
		t.Fatalf("HasSourceUnit failed: %v", err)
	}
	if found {
		t.Fatal("Expected unknown fingerprint to be absent")
	}

	units, err := stores.Sources.GetSourceUnits(ctx, "ww2_pacific")
	if err != nil {
		t.Fatalf("GetSourceUnits failed: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("Expected 1 unit for topic, got %d", len(units))
	}
	if units[0].Origin != "docs/midway.txt" {
		t.Fatalf("Expected original origin preserved, got %s", units[0].Origin)
	}
}
