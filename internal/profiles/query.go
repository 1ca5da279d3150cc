package profiles

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/verilink/profile-verify/internal/scoring"
)

// maxSummaryLen caps the free-text summary carried into prompts.
const maxSummaryLen = 500

// QueryDetails describes the person being verified, assembled from a
// metadata directory (metadata.json plus optional profile.txt).
type QueryDetails struct {
	Name      string
	Location  string
	Company   string
	Headline  string
	PhotoURL  string
	Education []string
	Skills    []string
	Summary   string
}

// Attrs converts the details into scorer attributes.
func (q *QueryDetails) Attrs() scoring.QueryAttrs {
	return scoring.QueryAttrs{
		Name:     q.Name,
		Location: q.Location,
		Employer: q.Company,
	}
}

// ReadQueryDetails loads person details from a metadata directory. Missing
// files are not errors; whatever is present gets probed with the documented
// fallback chains.
func ReadQueryDetails(dir string) (*QueryDetails, error) {
	metadata := map[string]any{}
	metadataPath := filepath.Join(dir, "metadata.json")
	if data, err := os.ReadFile(metadataPath); err == nil {
		if err := json.Unmarshal(data, &metadata); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", metadataPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", metadataPath, err)
	}

	var profileText string
	if data, err := os.ReadFile(filepath.Join(dir, "profile.txt")); err == nil {
		profileText = string(data)
	}

	return extractQueryDetails(metadata, profileText), nil
}

func extractQueryDetails(metadata map[string]any, profileText string) *QueryDetails {
	q := &QueryDetails{
		Name:     firstString(metadata, "name", "full_name", "localizedFirstName", "Full Name", "fullName"),
		Location: firstString(metadata, "location", "Location", "city", "geo_location"),
		Company:  firstString(metadata, "company", "current_company", "currentCompany", "employer", "headline"),
		Headline: firstString(metadata, "headline", "title", "job_title"),
		PhotoURL: firstString(metadata, "photo_url", "photoUrl", "profilePicture", "picture", "avatar"),
	}

	// Short early line of the profile text is usually the person name.
	if q.Name == "" && profileText != "" {
		for i, line := range strings.Split(profileText, "\n") {
			if i >= 6 {
				break
			}
			s := strings.TrimSpace(line)
			if s != "" && len(strings.Fields(s)) <= 4 && len(s) > 3 {
				q.Name = s
				break
			}
		}
	}

	if education, ok := metadata["education"].([]any); ok {
		for _, entry := range education {
			school, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			if name := firstString(school, "school", "schoolName"); name != "" {
				q.Education = append(q.Education, name)
			}
		}
	}

	if skills, ok := metadata["skills"].([]any); ok {
		for _, entry := range skills {
			if s, ok := entry.(string); ok {
				q.Skills = append(q.Skills, s)
			}
			if len(q.Skills) == 10 {
				break
			}
		}
	}

	if profileText != "" {
		summary := profileText
		if len(summary) > maxSummaryLen {
			summary = summary[:maxSummaryLen]
		}
		q.Summary = strings.TrimSpace(summary)
	}

	return q
}
