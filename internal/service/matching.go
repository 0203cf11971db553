package service

import (
	"strings"

	"agentceo/internal/model"

	"gorm.io/gorm"
)

// MatchConfidence labels how certain a business match guess is
type MatchConfidence string

const (
	MatchHigh   MatchConfidence = "high"
	MatchMedium MatchConfidence = "medium"
	MatchLow    MatchConfidence = "low"
)

// matchCandidateLimit caps how many businesses each lookup returns
const matchCandidateLimit = 5

// BusinessMatch is the resolver result. A nil BusinessID with a non-empty
// candidate list means "needs human review", not an error.
type BusinessMatch struct {
	Confidence MatchConfidence  `json:"confidence"`
	BusinessID *uint            `json:"business_id,omitempty"`
	Matches    []model.Business `json:"matches"`
}

// ResolveBusinessMatch searches the workspace's businesses for a match on the
// submitter's email domain or company name and grades the result.
//
// A single domain hit wins outright: the company name is never consulted. A
// single name hit only reaches medium confidence, and only when the domain
// produced nothing. Everything else accumulates candidates for manual review.
// Read-only; returns nil when there is nothing to go on.
func ResolveBusinessMatch(db *gorm.DB, email, companyName string, workspaceID uint) (*BusinessMatch, error) {
	if email == "" && companyName == "" {
		return nil, nil
	}

	var matches []model.Business
	confidence := MatchLow

	if email != "" {
		if domain := emailDomain(email); domain != "" {
			var domainMatches []model.Business
			pattern := "%" + domain + "%"
			err := db.Where("workspace_id = ?", workspaceID).
				Where("email LIKE ? OR website LIKE ?", pattern, pattern).
				Limit(matchCandidateLimit).
				Find(&domainMatches).Error
			if err != nil {
				return nil, err
			}

			if len(domainMatches) == 1 {
				// Single match by domain - high confidence
				return &BusinessMatch{
					Confidence: MatchHigh,
					BusinessID: &domainMatches[0].ID,
					Matches:    domainMatches,
				}, nil
			}
			if len(domainMatches) > 1 {
				matches = append(matches, domainMatches...)
				confidence = MatchMedium
			}
		}
	}

	if companyName != "" {
		var nameMatches []model.Business
		err := db.Where("workspace_id = ?", workspaceID).
			Where("LOWER(name) LIKE ?", "%"+strings.ToLower(companyName)+"%").
			Limit(matchCandidateLimit).
			Find(&nameMatches).Error
		if err != nil {
			return nil, err
		}

		if len(nameMatches) == 1 && len(matches) == 0 {
			// Single match by name only - medium confidence
			return &BusinessMatch{
				Confidence: MatchMedium,
				BusinessID: &nameMatches[0].ID,
				Matches:    nameMatches,
			}, nil
		}
		for _, nm := range nameMatches {
			if !containsBusiness(matches, nm.ID) {
				matches = append(matches, nm)
			}
		}
	}

	if len(matches) > 0 {
		result := &BusinessMatch{
			Confidence: confidence,
			Matches:    matches,
		}
		if confidence == MatchMedium {
			result.BusinessID = &matches[0].ID
		}
		return result, nil
	}

	return nil, nil
}

func emailDomain(email string) string {
	parts := strings.SplitN(email, "@", 2)
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

func containsBusiness(list []model.Business, id uint) bool {
	for _, b := range list {
		if b.ID == id {
			return true
		}
	}
	return false
}
