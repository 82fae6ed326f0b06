//models.go
package main

import (
    "encoding/json"
    "time"

    "github.com/google/uuid"
    "gorm.io/gorm"
)

// Status value recorded on every persisted analysis. Rows are written once
// and never transition, so "completed" is the only state.
const StatusCompleted = "completed"

// ProfileRef is a single account in the follow-back gap list.
type ProfileRef struct {
    Username string `json:"username"` // Instagram username, without the @ prefix
    URL      string `json:"url"`      // Direct link to the profile
}

// AnalysisResult is the wire shape embedded in the success envelope and
// staged by the client for the downstream flow stages.
type AnalysisResult struct {
    TotalFollowing       int          `json:"total_following"`
    TotalFollowers       int          `json:"total_followers"`
    NotFollowingBack     int          `json:"not_following_back"`
    NotFollowingBackList []ProfileRef `json:"not_following_back_list"`
}

// Normalize recomputes the count from the list. The count an analyzer
// reports independently is never trusted; the list length is authoritative.
func (r *AnalysisResult) Normalize() {
    if r.NotFollowingBackList == nil {
        r.NotFollowingBackList = []ProfileRef{}
    }
    r.NotFollowingBack = len(r.NotFollowingBackList)
}

// Analysis is the persisted counterpart of an AnalysisResult. One row is
// inserted per successful request; rows are never updated or deleted.
type Analysis struct {
    ID                   string `gorm:"primaryKey"`
    TotalFollowing       int    `gorm:"not null"`
    TotalFollowers       int    `gorm:"not null"`
    NotFollowingBack     int    `gorm:"not null"`
    NotFollowingBackList string `gorm:"type:json"` // JSON-encoded []ProfileRef
    FileName             string `gorm:"not null"`  // Original name of the uploaded file
    Status               string `gorm:"not null"`
    CreatedAt            time.Time
}

// BeforeCreate assigns the opaque record id returned to clients as analysisId.
func (a *Analysis) BeforeCreate(tx *gorm.DB) error {
    if a.ID == "" {
        a.ID = uuid.NewString()
    }
    return nil
}

// newAnalysis builds a row from a normalized result and the uploaded file name.
func newAnalysis(result *AnalysisResult, fileName string) (*Analysis, error) {
    listJSON, err := json.Marshal(result.NotFollowingBackList)
    if err != nil {
        return nil, err
    }
    return &Analysis{
        TotalFollowing:       result.TotalFollowing,
        TotalFollowers:       result.TotalFollowers,
        NotFollowingBack:     result.NotFollowingBack,
        NotFollowingBackList: string(listJSON),
        FileName:             fileName,
        Status:               StatusCompleted,
    }, nil
}

// Result reconstructs the wire shape from a stored row.
func (a *Analysis) Result() (*AnalysisResult, error) {
    var list []ProfileRef
    if a.NotFollowingBackList != "" {
        if err := json.Unmarshal([]byte(a.NotFollowingBackList), &list); err != nil {
            return nil, err
        }
    }
    result := &AnalysisResult{
        TotalFollowing:       a.TotalFollowing,
        TotalFollowers:       a.TotalFollowers,
        NotFollowingBackList: list,
    }
    result.Normalize()
    return result, nil
}
