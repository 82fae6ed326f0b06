package main

import (
	"encoding/json"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestAnalysisResultNormalize(t *testing.T) {
	result := &AnalysisResult{
		TotalFollowing:   412,
		TotalFollowers:   301,
		NotFollowingBack: 999, // Wrong on purpose; the list is authoritative
		NotFollowingBackList: []ProfileRef{
			{Username: "user_one", URL: "https://instagram.com/user_one"},
			{Username: "user_two", URL: "https://instagram.com/user_two"},
		},
	}

	result.Normalize()

	if result.NotFollowingBack != 2 {
		t.Errorf("Expected recomputed count 2, got %d", result.NotFollowingBack)
	}
}

func TestAnalysisResultNormalizeNilList(t *testing.T) {
	result := &AnalysisResult{NotFollowingBack: 5}
	result.Normalize()

	if result.NotFollowingBack != 0 {
		t.Errorf("Expected count 0 for empty list, got %d", result.NotFollowingBack)
	}
	if result.NotFollowingBackList == nil {
		t.Error("Expected empty list instead of nil after normalize")
	}
}

func TestAnalysisResultWireShape(t *testing.T) {
	result := &AnalysisResult{
		TotalFollowing: 412,
		TotalFollowers: 301,
		NotFollowingBackList: []ProfileRef{
			{Username: "user_one", URL: "https://instagram.com/user_one"},
		},
	}
	result.Normalize()

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("Failed to marshal result: %v", err)
	}

	var wire map[string]interface{}
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("Failed to unmarshal result: %v", err)
	}

	for _, key := range []string{"total_following", "total_followers", "not_following_back", "not_following_back_list"} {
		if _, ok := wire[key]; !ok {
			t.Errorf("Expected wire field %q to be present", key)
		}
	}
}

func TestNewAnalysisRoundTrip(t *testing.T) {
	result := &AnalysisResult{
		TotalFollowing: 300,
		TotalFollowers: 250,
		NotFollowingBackList: []ProfileRef{
			{Username: "a", URL: "https://instagram.com/a"},
			{Username: "b", URL: "https://instagram.com/b"},
			{Username: "c", URL: "https://instagram.com/c"},
		},
	}
	result.Normalize()

	record, err := newAnalysis(result, "export.zip")
	if err != nil {
		t.Fatalf("Failed to build analysis record: %v", err)
	}

	if record.Status != StatusCompleted {
		t.Errorf("Expected status %q, got %q", StatusCompleted, record.Status)
	}
	if record.FileName != "export.zip" {
		t.Errorf("Expected file name 'export.zip', got %q", record.FileName)
	}
	if record.NotFollowingBack != 3 {
		t.Errorf("Expected count 3, got %d", record.NotFollowingBack)
	}

	restored, err := record.Result()
	if err != nil {
		t.Fatalf("Failed to restore result from record: %v", err)
	}

	if restored.NotFollowingBack != len(restored.NotFollowingBackList) {
		t.Error("Restored result count does not match list length")
	}
	if restored.NotFollowingBackList[1].Username != "b" {
		t.Errorf("Expected second entry 'b', got %q", restored.NotFollowingBackList[1].Username)
	}
}

func TestAnalysisBeforeCreateAssignsID(t *testing.T) {
	testDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	testDB.AutoMigrate(&Analysis{})

	record := &Analysis{
		NotFollowingBackList: "[]",
		FileName:             "export.zip",
		Status:               StatusCompleted,
	}
	if err := testDB.Create(record).Error; err != nil {
		t.Fatalf("Failed to insert record: %v", err)
	}

	if record.ID == "" {
		t.Error("Expected an opaque id to be assigned on create")
	}

	// A second record gets a distinct id
	other := &Analysis{
		NotFollowingBackList: "[]",
		FileName:             "export.zip",
		Status:               StatusCompleted,
	}
	if err := testDB.Create(other).Error; err != nil {
		t.Fatalf("Failed to insert second record: %v", err)
	}
	if other.ID == record.ID {
		t.Error("Expected distinct ids for distinct records")
	}
}
