package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "same content produces same ID", content: "test content"},
		{name: "empty string", content: ""},
		{name: "long content", content: "A longer piece of content that should still hash consistently across calls"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestCanonicalName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercase passthrough", input: "li ming", want: "li ming"},
		{name: "case folded", input: "Li Ming", want: "li ming"},
		{name: "upper case", input: "LI MING", want: "li ming"},
		{name: "surrounding whitespace trimmed", input: "  Li Ming  ", want: "li ming"},
		{name: "inner whitespace collapsed", input: "Li \t  Ming", want: "li ming"},
		{name: "empty", input: "", want: ""},
		{name: "whitespace only", input: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanonicalName(tt.input); got != tt.want {
				t.Errorf("CanonicalName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEntityID_Deterministic(t *testing.T) {
	a := EntityID("topic-a", "li ming")
	b := EntityID("topic-a", "li ming")
	if a != b {
		t.Errorf("EntityID() not deterministic: %d vs %d", a, b)
	}

	other := EntityID("topic-b", "li ming")
	if a == other {
		t.Errorf("EntityID() collided across topics")
	}
}

func TestRelationshipID_DistinguishesDescriptions(t *testing.T) {
	src := EntityID("t", "a")
	tgt := EntityID("t", "b")

	fp1 := IDFromContent("works with")
	fp2 := IDFromContent("argues with")

	if RelationshipID("t", src, tgt, fp1) == RelationshipID("t", src, tgt, fp2) {
		t.Errorf("RelationshipID() merged semantically distinct edges")
	}
	if RelationshipID("t", src, tgt, fp1) != RelationshipID("t", src, tgt, fp1) {
		t.Errorf("RelationshipID() not deterministic")
	}
}

func TestPipelineRun_Counts(t *testing.T) {
	run := PipelineRun{
		Outcomes: []UnitOutcome{
			{Unit: 1, Status: UnitSucceeded},
			{Unit: 2, Status: UnitSucceeded},
			{Unit: 3, Status: UnitFailed},
			{Unit: 4, Status: UnitSkipped},
		},
	}

	succeeded, failed, skipped := run.Counts()
	if succeeded != 2 || failed != 1 || skipped != 1 {
		t.Errorf("Counts() = (%d, %d, %d), want (2, 1, 1)", succeeded, failed, skipped)
	}
}

func TestBlueprint_Empty(t *testing.T) {
	var b Blueprint
	if !b.Empty() {
		t.Errorf("Empty() = false for zero blueprint")
	}

	b.Entities = append(b.Entities, BlueprintEntity{Name: "x"})
	if b.Empty() {
		t.Errorf("Empty() = true for blueprint with an entity")
	}
}
