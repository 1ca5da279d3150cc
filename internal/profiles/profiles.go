// Package profiles loads candidate pools from loosely-structured social
// export files. All field probing happens here, once, at the boundary;
// the rest of the pipeline only ever sees the explicit Candidate struct.
package profiles

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Candidate is one entry of the candidate pool, with every field already
// resolved. ImageURL may be empty, such candidates are skipped by the
// pipeline. Text carries all searchable text for composite scoring.
type Candidate struct {
	ID         string
	Name       string
	ImageURL   string
	ProfileURL string
	Location   string
	Headline   string
	Text       string
}

// exportEnvelope matches the wrapped form of the export file.
type exportEnvelope struct {
	Elements []json.RawMessage `json:"elements"`
}

// LoadExport reads a candidate export file. The file is either a JSON list
// of profile objects or an object with an "elements" list. Entries that
// cannot be resolved to at least a name keep their index-based ID and are
// still returned; filtering is the pipeline's call.
func LoadExport(path string) ([]Candidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading candidate export: %w", err)
	}
	return ParseExport(data)
}

// ParseExport parses export bytes into resolved candidates.
func ParseExport(data []byte) ([]Candidate, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		var envelope exportEnvelope
		if err2 := json.Unmarshal(data, &envelope); err2 != nil || envelope.Elements == nil {
			return nil, fmt.Errorf("candidate export is neither a list nor an elements object: %w", err)
		}
		entries = envelope.Elements
	}

	candidates := make([]Candidate, 0, len(entries))
	for i, raw := range entries {
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			continue // not an object, nothing to resolve
		}
		candidates = append(candidates, resolveCandidate(i, fields))
	}
	return candidates, nil
}

// resolveCandidate probes the known field spellings of an export entry.
func resolveCandidate(index int, fields map[string]any) Candidate {
	c := Candidate{
		Name:       resolveName(fields),
		ImageURL:   resolveImageURL(fields),
		ProfileURL: firstString(fields, "publicProfileUrl", "profile_url", "profileUrl", "url"),
		Location:   firstString(fields, "location", "Location", "city", "geo_location"),
		Headline:   firstString(fields, "headline", "title", "job_title"),
	}

	c.ID = c.ProfileURL
	if c.ID == "" {
		c.ID = fmt.Sprintf("candidate-%d", index)
	}

	company := firstString(fields, "company", "current_company", "currentCompany", "employer")
	c.Text = joinText(c.Name, c.Headline, c.Location, company)

	return c
}

func resolveName(fields map[string]any) string {
	first := firstString(fields, "localizedFirstName", "firstName")
	last := firstString(fields, "localizedLastName", "lastName")
	if name := strings.TrimSpace(first + " " + last); name != "" {
		return name
	}
	return firstString(fields, "name", "full_name", "fullName", "Full Name")
}

// resolveImageURL digs out the nested picture reference
// (profilePicture.displayImage~.elements[0].identifiers[0].identifier)
// with flat spellings as fallback.
func resolveImageURL(fields map[string]any) string {
	if pic, ok := fields["profilePicture"].(map[string]any); ok {
		if display, ok := pic["displayImage~"].(map[string]any); ok {
			if url := firstIdentifier(display); url != "" {
				return url
			}
		}
	}
	return firstString(fields, "photo_url", "photoUrl", "picture", "avatar", "image_url", "imageUrl")
}

func firstIdentifier(display map[string]any) string {
	elements, ok := display["elements"].([]any)
	if !ok || len(elements) == 0 {
		return ""
	}
	element, ok := elements[0].(map[string]any)
	if !ok {
		return ""
	}
	identifiers, ok := element["identifiers"].([]any)
	if !ok || len(identifiers) == 0 {
		return ""
	}
	identifier, ok := identifiers[0].(map[string]any)
	if !ok {
		return ""
	}
	url, _ := identifier["identifier"].(string)
	return url
}

// firstString returns the first non-empty string value among the given keys.
func firstString(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := fields[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func joinText(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " | ")
}
