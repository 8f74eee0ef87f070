package changes

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/regulatech/compliancegpt/internal/ingest"
)

// Change is one detected difference between document versions.
type Change struct {
	ChangeType string  `json:"change_type"` // "added", "removed", "modified"
	Section    string  `json:"section"`
	OldText    string  `json:"old_text,omitempty"`
	NewText    string  `json:"new_text,omitempty"`
	Similarity float64 `json:"similarity"`
	PageNumber int     `json:"page_number,omitempty"`
}

// ChangeSummary counts changes by kind.
type ChangeSummary struct {
	Additions     int `json:"additions"`
	Removals      int `json:"removals"`
	Modifications int `json:"modifications"`
}

// ComparisonReport describes how two versions of a regulation differ.
type ComparisonReport struct {
	Regulation      string        `json:"regulation"`
	OldVersion      string        `json:"old_version"`
	NewVersion      string        `json:"new_version"`
	TotalChanges    int           `json:"total_changes"`
	Summary         ChangeSummary `json:"summary"`
	SimilarityScore float64       `json:"similarity_score"`
	Changes         []Change      `json:"changes"`
}

// FormatReport renders a human-readable summary of the comparison.
func (r *ComparisonReport) FormatReport() string {
	return fmt.Sprintf(`
Change Detection Report: %s
%s
Old Version: %s
New Version: %s
Overall Similarity: %.1f%%

Changes Summary:
  Additions:     %d
  Removals:      %d
  Modifications: %d
  Total:         %d
`,
		r.Regulation, strings.Repeat("=", 50),
		r.OldVersion, r.NewVersion, r.SimilarityScore*100,
		r.Summary.Additions, r.Summary.Removals, r.Summary.Modifications, r.TotalChanges)
}

// Save writes the report as indented JSON.
func (r *ComparisonReport) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}

// Detector finds additions, removals, and modifications between chunked
// versions of a regulation using fuzzy text matching.
type Detector struct {
	threshold float64
	dmp       *diffmatchpatch.DiffMatchPatch
	logger    *log.Logger
}

// NewDetector builds a detector. threshold is the similarity above which a
// changed chunk counts as modified rather than added plus removed.
func NewDetector(threshold float64, logger *log.Logger) *Detector {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.8
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[CHANGES] ", log.LstdFlags)
	}
	return &Detector{threshold: threshold, dmp: diffmatchpatch.New(), logger: logger}
}

// CompareFiles compares two chunk files written by the ingestion pipeline.
func (d *Detector) CompareFiles(oldPath, newPath string) (*ComparisonReport, error) {
	oldSet, err := ingest.LoadChunkSet(oldPath)
	if err != nil {
		return nil, err
	}
	newSet, err := ingest.LoadChunkSet(newPath)
	if err != nil {
		return nil, err
	}

	report := d.Compare(oldSet.Regulation, oldSet.Chunks, newSet.Chunks)
	report.OldVersion = oldPath
	report.NewVersion = newPath
	return report, nil
}

// Compare diffs two chunk lists. Chunks are matched on normalized text:
// exact matches are unchanged, near matches above the threshold are
// modifications, the rest are additions or removals.
func (d *Detector) Compare(regulation string, oldChunks, newChunks []ingest.Chunk) *ComparisonReport {
	d.logger.Printf("comparing %d old chunks with %d new chunks", len(oldChunks), len(newChunks))

	oldTexts := normalize(oldChunks)
	newTexts := normalize(newChunks)
	oldKeys := sortedKeys(oldTexts)
	newKeys := sortedKeys(newTexts)

	var changes []Change
	var summary ChangeSummary

	for _, norm := range newKeys {
		if _, ok := oldTexts[norm]; ok {
			continue
		}
		chunk := newTexts[norm]
		bestMatch, bestScore := d.bestMatch(norm, oldKeys)
		if bestMatch != "" && bestScore >= d.threshold {
			old := oldTexts[bestMatch]
			changes = append(changes, Change{
				ChangeType: "modified",
				Section:    section(chunk),
				OldText:    clip(old.Text, 500),
				NewText:    clip(chunk.Text, 500),
				Similarity: bestScore,
				PageNumber: firstPage(chunk),
			})
			summary.Modifications++
		} else {
			changes = append(changes, Change{
				ChangeType: "added",
				Section:    section(chunk),
				NewText:    clip(chunk.Text, 500),
				PageNumber: firstPage(chunk),
			})
			summary.Additions++
		}
	}

	for _, norm := range oldKeys {
		if _, ok := newTexts[norm]; ok {
			continue
		}
		_, bestScore := d.bestMatch(norm, newKeys)
		if bestScore < d.threshold {
			chunk := oldTexts[norm]
			changes = append(changes, Change{
				ChangeType: "removed",
				Section:    section(chunk),
				OldText:    clip(chunk.Text, 500),
				PageNumber: firstPage(chunk),
			})
			summary.Removals++
		}
	}

	return &ComparisonReport{
		Regulation:      regulation,
		TotalChanges:    summary.Additions + summary.Removals + summary.Modifications,
		Summary:         summary,
		SimilarityScore: d.Ratio(joinTexts(oldChunks), joinTexts(newChunks)),
		Changes:         changes,
	}
}

// Ratio is a fuzzy similarity in [0,1]: twice the matched character count
// over the total length. Two empty strings are identical.
func (d *Detector) Ratio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	diffs := d.dmp.DiffMain(a, b, false)
	matched := 0
	for _, diff := range diffs {
		if diff.Type == diffmatchpatch.DiffEqual {
			matched += len(diff.Text)
		}
	}
	return 2.0 * float64(matched) / float64(len(a)+len(b))
}

// GenerateDiff renders a patch-style diff between two texts.
func (d *Detector) GenerateDiff(oldText, newText string) string {
	patches := d.dmp.PatchMake(oldText, newText)
	return d.dmp.PatchToText(patches)
}

func (d *Detector) bestMatch(text string, candidates []string) (string, float64) {
	bestMatch := ""
	bestScore := 0.0
	for _, candidate := range candidates {
		if score := d.Ratio(text, candidate); score > bestScore {
			bestScore = score
			bestMatch = candidate
		}
	}
	return bestMatch, bestScore
}

func normalize(chunks []ingest.Chunk) map[string]ingest.Chunk {
	out := make(map[string]ingest.Chunk, len(chunks))
	for _, c := range chunks {
		out[normalizeText(c.Text)] = c
	}
	return out
}

func normalizeText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

func sortedKeys(m map[string]ingest.Chunk) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func section(c ingest.Chunk) string {
	return fmt.Sprintf("Chunk %d", c.Metadata.ChunkIndex)
}

func firstPage(c ingest.Chunk) int {
	if len(c.PageNumbers) == 0 {
		return 0
	}
	return c.PageNumbers[0]
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func joinTexts(chunks []ingest.Chunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Text
	}
	return strings.Join(parts, " ")
}
