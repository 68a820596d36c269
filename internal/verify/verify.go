// Package verify classifies the outcome of a load and flags cohort-level
// outliers across a project's accumulated cases.
package verify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mijuny/pacs-agent/internal/keyfile"
)

// LoadResult is the outcome of attempting to load a single accession.
type LoadResult struct {
	CaseID      string  `json:"case_id"`
	Accession   string  `json:"accession"`
	StudyUID    string  `json:"study_uid"`
	SeriesCount int     `json:"series_count"`
	ImageCount  int     `json:"image_count"`
	StudyDate   string  `json:"study_date"`
	Modality    string  `json:"modality"`
	Description string  `json:"description"`
	Status      string  `json:"status"` // ok | error | skipped | dry-run
	Error       string  `json:"error,omitempty"`
	DurationS   float64 `json:"duration_s,omitempty"`
}

// LoadSummary is the result of classifying a full batch of LoadResults.
type LoadSummary struct {
	OK             bool     `json:"ok"`
	TotalRequested int      `json:"total_requested"`
	Loaded         int      `json:"loaded"`
	Skipped        int      `json:"skipped"`
	Failed         int      `json:"failed"`
	NotFound       int      `json:"not_found"`
	Warnings       []string `json:"warnings"`
}

// Load partitions a batch of results into outcome counts and flags
// individually unusual image counts. "dry-run" results count toward
// total_requested but are neither loaded nor a failure.
func Load(results []LoadResult) LoadSummary {
	summary := LoadSummary{
		TotalRequested: len(results),
		Warnings:       []string{},
	}

	for _, r := range results {
		switch r.Status {
		case "ok":
			summary.Loaded++
			switch {
			case r.ImageCount < 5:
				summary.Warnings = append(summary.Warnings, fmt.Sprintf(
					"%s (%s): only %d images (unusually low)", r.Accession, r.CaseID, r.ImageCount))
			case r.ImageCount > 5000:
				summary.Warnings = append(summary.Warnings, fmt.Sprintf(
					"%s (%s): %d images (unusually high)", r.Accession, r.CaseID, r.ImageCount))
			}
		case "skipped":
			summary.Skipped++
		case "dry-run":
			// not counted as failure
		case "error":
			if r.Error != "" && strings.Contains(r.Error, "not found") {
				summary.NotFound++
			} else {
				summary.Failed++
			}
		}
	}

	summary.OK = summary.Failed == 0 && summary.NotFound == 0 && len(summary.Warnings) == 0
	return summary
}

// ProjectSummary is the result of comparing cases within a project to
// find outliers.
type ProjectSummary struct {
	OK           bool     `json:"ok"`
	MedianSeries float64  `json:"median_series,omitempty"`
	MedianImages float64  `json:"median_images,omitempty"`
	Warnings     []string `json:"warnings"`
	Note         string   `json:"note,omitempty"`
}

// Project compares every entry in a project's key file against cohort
// medians and the majority modality, flagging entries that look like
// incomplete studies, unusually large studies, or outliers in modality.
// With fewer than three entries there isn't enough of a cohort to
// compare against, so it reports ok with a note instead.
func Project(entries []keyfile.Entry) ProjectSummary {
	if len(entries) < 3 {
		return ProjectSummary{OK: true, Warnings: []string{}, Note: "too few cases to compare"}
	}

	seriesCounts := make([]int, len(entries))
	imageCounts := make([]int, len(entries))
	modalityCounts := make(map[string]int, len(entries))
	for i, e := range entries {
		seriesCounts[i] = e.SeriesCount
		imageCounts[i] = e.ImageCount
		modalityCounts[e.Modality]++
	}

	medSeries := median(seriesCounts)
	medImages := median(imageCounts)
	majorityModality := mostCommon(modalityCounts)

	warnings := []string{}
	for _, e := range entries {
		s, img := float64(e.SeriesCount), float64(e.ImageCount)
		if medSeries > 0 && s < medSeries/2 {
			warnings = append(warnings, fmt.Sprintf(
				"%s: %d series vs median %.0f — possibly incomplete study", e.CaseID, e.SeriesCount, medSeries))
		}
		if medSeries > 0 && s > medSeries*2 {
			warnings = append(warnings, fmt.Sprintf(
				"%s: %d series vs median %.0f — unusually many series", e.CaseID, e.SeriesCount, medSeries))
		}
		if medImages > 0 && img < medImages/3 {
			warnings = append(warnings, fmt.Sprintf(
				"%s: %d images vs median %.0f — much fewer than others", e.CaseID, e.ImageCount, medImages))
		}
		if medImages > 0 && img > medImages*3 {
			warnings = append(warnings, fmt.Sprintf(
				"%s: %d images vs median %.0f — much more than others", e.CaseID, e.ImageCount, medImages))
		}
		if e.Modality != majorityModality {
			warnings = append(warnings, fmt.Sprintf(
				"%s: modality %s differs from majority %s", e.CaseID, e.Modality, majorityModality))
		}
	}

	return ProjectSummary{
		OK:           len(warnings) == 0,
		MedianSeries: medSeries,
		MedianImages: medImages,
		Warnings:     warnings,
	}
}

func median(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return float64(sorted[mid-1]+sorted[mid]) / 2
}

// mostCommon returns the key with the highest count, breaking ties by
// first alphabetical order for determinism.
func mostCommon(counts map[string]int) string {
	best := ""
	bestCount := -1
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if counts[k] > bestCount {
			best = k
			bestCount = counts[k]
		}
	}
	return best
}
