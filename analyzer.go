// analyzer.go
package main

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
)

// FollowGraphAnalyzer produces an AnalysisResult from an uploaded export
// archive. The two implementations are the generator (synthetic data from the
// completion API, the default) and the archive analyzer (real
// extraction). Selection happens once at startup from configuration; the two
// are never mixed.
type FollowGraphAnalyzer interface {
	Analyze(ctx context.Context, fileName string, data []byte) (*AnalysisResult, error)
}

// relationshipEntry mirrors one element of the relationship arrays inside an
// Instagram data export. Each entry carries a single account in its
// string_list_data.
type relationshipEntry struct {
	StringListData []struct {
		Href  string `json:"href"`
		Value string `json:"value"`
	} `json:"string_list_data"`
}

// followingDocument mirrors following.json.
type followingDocument struct {
	RelationshipsFollowing []relationshipEntry `json:"relationships_following"`
}

// followersDocument mirrors the wrapped followers file shape used by some
// export versions. Newer exports ship a bare array instead.
type followersDocument struct {
	RelationshipsFollowers []relationshipEntry `json:"relationships_followers"`
}

// ArchiveAnalyzer extracts the uploaded ZIP and computes the real follow-back
// gap: accounts in the following list whose username is absent from the
// followers list, in the order the export lists them.
type ArchiveAnalyzer struct{}

// NewArchiveAnalyzer creates an analyzer that reads real export archives.
func NewArchiveAnalyzer() *ArchiveAnalyzer {
	return &ArchiveAnalyzer{}
}

// Analyze opens the archive, locates the followers/following JSON documents
// under followers_and_following/ and diffs the username sets.
func (a *ArchiveAnalyzer) Analyze(ctx context.Context, fileName string, data []byte) (*AnalysisResult, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %v", fileName, err)
	}

	var following []relationshipEntry
	var followers []relationshipEntry
	foundFollowing := false
	foundFollowers := false

	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		base := path.Base(f.Name)
		switch {
		case base == "following.json":
			entries, err := readFollowingFile(f)
			if err != nil {
				return nil, err
			}
			following = entries
			foundFollowing = true
		case strings.HasPrefix(base, "followers_") && strings.HasSuffix(base, ".json"):
			// Large accounts are split across followers_1.json, followers_2.json, ...
			entries, err := readFollowersFile(f)
			if err != nil {
				return nil, err
			}
			followers = append(followers, entries...)
			foundFollowers = true
		}
	}

	if !foundFollowing {
		return nil, fmt.Errorf("following.json not found in %s", fileName)
	}
	if !foundFollowers {
		return nil, fmt.Errorf("no followers file found in %s", fileName)
	}

	followerSet := make(map[string]struct{}, len(followers))
	for _, entry := range followers {
		for _, item := range entry.StringListData {
			followerSet[item.Value] = struct{}{}
		}
	}

	var gap []ProfileRef
	followingCount := 0
	for _, entry := range following {
		for _, item := range entry.StringListData {
			followingCount++
			if _, ok := followerSet[item.Value]; ok {
				continue
			}
			url := item.Href
			if url == "" {
				url = "https://instagram.com/" + item.Value
			}
			gap = append(gap, ProfileRef{Username: item.Value, URL: url})
		}
	}

	result := &AnalysisResult{
		TotalFollowing:       followingCount,
		TotalFollowers:       len(followerSet),
		NotFollowingBackList: gap,
	}
	result.Normalize()
	return result, nil
}

// readFollowingFile decodes following.json.
func readFollowingFile(f *zip.File) ([]relationshipEntry, error) {
	data, err := readZipFile(f)
	if err != nil {
		return nil, err
	}
	var doc followingDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %v", f.Name, err)
	}
	return doc.RelationshipsFollowing, nil
}

// readFollowersFile decodes a followers_N.json file, accepting both the bare
// array shape and the older wrapped shape.
func readFollowersFile(f *zip.File) ([]relationshipEntry, error) {
	data, err := readZipFile(f)
	if err != nil {
		return nil, err
	}
	var entries []relationshipEntry
	if err := json.Unmarshal(data, &entries); err == nil {
		return entries, nil
	}
	var doc followersDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %v", f.Name, err)
	}
	return doc.RelationshipsFollowers, nil
}

// readZipFile reads one archive member fully into memory.
func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %v", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %v", f.Name, err)
	}
	return data, nil
}
