package services

import (
	"testing"

	"github.com/garpunkal/ColourWang-sub000/models"
)

func TestRegistryPutAndGet(t *testing.T) {
	r := NewRegistry()
	g := &models.Game{Code: "AB12CD", Status: models.StatusLobby}

	if !r.Put(g) {
		t.Fatal("first Put rejected")
	}
	if r.Put(&models.Game{Code: "AB12CD"}) {
		t.Error("duplicate code accepted")
	}
	if got := r.Get("AB12CD"); got != g {
		t.Error("Get returned a different room")
	}
	if !r.Exists("AB12CD") || r.Exists("ZZZZZZ") {
		t.Error("Exists disagrees with the table")
	}
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	g := &models.Game{Code: "AB12CD"}
	r.Put(g)

	if got := r.Remove("AB12CD"); got != g {
		t.Error("Remove did not return the room")
	}
	if r.Get("AB12CD") != nil {
		t.Error("room still present after Remove")
	}
	if r.Remove("AB12CD") != nil {
		t.Error("second Remove returned a room")
	}
}

func TestRegistrySummaries(t *testing.T) {
	r := NewRegistry()
	r.Put(&models.Game{
		Code:    "ROOM01",
		Status:  models.StatusQuestion,
		Players: []*models.Player{{ID: "a"}, {ID: "b"}},
	})
	r.Put(&models.Game{Code: "ROOM02", Status: models.StatusLobby})

	summaries := r.Summaries()
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}
	byCode := make(map[string]GameSummary)
	for _, s := range summaries {
		byCode[s.Code] = s
	}
	if s := byCode["ROOM01"]; s.Status != models.StatusQuestion || s.PlayerCount != 2 {
		t.Errorf("ROOM01 summary = %+v", s)
	}
	if s := byCode["ROOM02"]; s.Status != models.StatusLobby || s.PlayerCount != 0 {
		t.Errorf("ROOM02 summary = %+v", s)
	}
}

func TestRegistryAll(t *testing.T) {
	r := NewRegistry()
	if len(r.All()) != 0 {
		t.Error("fresh registry not empty")
	}
	r.Put(&models.Game{Code: "ROOM01"})
	r.Put(&models.Game{Code: "ROOM02"})
	if got := len(r.All()); got != 2 {
		t.Errorf("All returned %d rooms, want 2", got)
	}
}
