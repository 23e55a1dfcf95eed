package models

import (
	"testing"
	"time"
)

func TestUserValidate(t *testing.T) {
	tc := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{name: "valid username", username: "listener42", wantErr: false},
		{name: "empty username", username: "", wantErr: true},
		{name: "whitespace in username", username: "two words", wantErr: true},
		{name: "tab in username", username: "tabbed\tname", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			user := NewUser(1, tt.username, "Display")
			err := user.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("expected validation error for %q", tt.username)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error for %q: %v", tt.username, err)
			}
		})
	}
}

func TestParseResourceKind(t *testing.T) {
	for _, kind := range ResourceKinds() {
		parsed, err := ParseResourceKind(string(kind))
		if err != nil {
			t.Errorf("failed to parse %q: %v", kind, err)
		}
		if parsed != kind {
			t.Errorf("expected %q, got %q", kind, parsed)
		}
	}

	if _, err := ParseResourceKind("podcast"); err == nil {
		t.Error("expected error for unknown kind")
	}
	if _, err := ParseResourceKind(""); err == nil {
		t.Error("expected error for empty kind")
	}
}

func TestEntityDraftValidate(t *testing.T) {
	draft := EntityDraft{Kind: KindTrack, ExternalID: "sp-1", Name: "Song"}
	if err := draft.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := (EntityDraft{Kind: "podcast", ExternalID: "sp-1"}).Validate(); err == nil {
		t.Error("expected error for invalid kind")
	}
	if err := (EntityDraft{Kind: KindTrack}).Validate(); err == nil {
		t.Error("expected error for missing external id")
	}
}

func TestRelationshipDraftValidate(t *testing.T) {
	draft := RelationshipDraft{UserID: "u1", EntityID: "e1", Kind: KindPlaylist, Relation: RelationOwner}
	if err := draft.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := (RelationshipDraft{EntityID: "e1", Kind: KindPlaylist}).Validate(); err == nil {
		t.Error("expected error for missing user id")
	}
	if err := (RelationshipDraft{UserID: "u1", Kind: KindPlaylist}).Validate(); err == nil {
		t.Error("expected error for missing entity id")
	}
	if err := (RelationshipDraft{UserID: "u1", EntityID: "e1", Kind: "podcast"}).Validate(); err == nil {
		t.Error("expected error for invalid kind")
	}
}

func TestRemoteItemDraft(t *testing.T) {
	item := RemoteItem{
		ExternalID:  "sp-1",
		Name:        "Mix",
		ImageURL:    "https://img/mix.jpg",
		ItemCount:   30,
		ChangeToken: "snap-9",
		Relation:    RelationOwner,
		AddedAt:     time.Now(),
	}

	draft := item.Draft(KindPlaylist)
	if draft.Kind != KindPlaylist {
		t.Errorf("expected playlist kind, got %q", draft.Kind)
	}
	if draft.ExternalID != "sp-1" || draft.ChangeToken != "snap-9" || draft.ItemCount != 30 {
		t.Errorf("draft lost fields: %+v", draft)
	}
}

func TestCreateOutcomeString(t *testing.T) {
	if OutcomeCreated.String() != "created" {
		t.Errorf("unexpected string %q", OutcomeCreated.String())
	}
	if OutcomeAlreadyExists.String() != "already_exists" {
		t.Errorf("unexpected string %q", OutcomeAlreadyExists.String())
	}
	if CreateOutcome(99).String() != "unknown" {
		t.Errorf("unexpected string %q", CreateOutcome(99).String())
	}
}
