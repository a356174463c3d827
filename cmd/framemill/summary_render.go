package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"framemill/internal/modlevel"
	"framemill/internal/pipeline"
	"framemill/internal/preflight"
)

var labelCaser = cases.Title(language.English)

// labelTitle turns a prediction label like "empty_valid" into "Empty Valid".
func labelTitle(label string) string {
	return labelCaser.String(strings.ReplaceAll(label, "_", " "))
}

func renderSummary(summary *pipeline.Summary) string {
	var sections []string

	overview := [][]string{
		{"Run", summary.RunID},
		{"Tenant / video", summary.Tenant + " / " + summary.Video},
		{"Frames produced", fmt.Sprintf("%d", summary.TotalFrames)},
		{"Pairs inferred", fmt.Sprintf("%d", summary.TotalPairs)},
		{"Chunks submitted", fmt.Sprintf("%d", summary.ChunksSubmitted)},
		{"Chunks completed", fmt.Sprintf("%d", summary.ChunksCompleted)},
		{"Chunks failed", fmt.Sprintf("%d", summary.ChunksFailed)},
		{"Encoding bottleneck", yesNo(summary.EncodingBottleneck)},
	}
	sections = append(sections, renderTable([]string{"Metric", "Value"}, overview, 1))

	stages := [][]string{
		{"Production", formatWall(summary.ProductionWall), formatRate(summary.ProductionRate, "frames/s")},
		{"Inference", formatWall(summary.InferenceWall), formatRate(summary.InferenceRate, "pairs/s")},
		{"Encoding", formatWall(summary.EncodeWall), formatRate(summary.EncodeRate, "chunks/s")},
	}
	sections = append(sections, renderTable([]string{"Stage", "Wall", "Rate"}, stages, 1, 2))

	if len(summary.LabelHistogram) > 0 {
		sections = append(sections, renderHistogram(summary.LabelHistogram))
	}

	if unclaimed := renderUnclaimed(summary.UnclaimedByLevel); unclaimed != "" {
		sections = append(sections, unclaimed)
	}

	return strings.Join(sections, "\n")
}

func renderHistogram(histogram map[string]int64) string {
	labels := make([]string, 0, len(histogram))
	for label := range histogram {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	rows := make([][]string, 0, len(labels))
	for _, label := range labels {
		rows = append(rows, []string{labelTitle(label), fmt.Sprintf("%d", histogram[label])})
	}
	return renderTable([]string{"Label", "Predictions"}, rows, 1)
}

func renderUnclaimed(unclaimed map[modlevel.Level]int) string {
	total := 0
	for _, count := range unclaimed {
		total += count
	}
	if total == 0 {
		return ""
	}
	rows := make([][]string, 0, 3)
	for _, level := range modlevel.Levels() {
		if count := unclaimed[level]; count > 0 {
			rows = append(rows, []string{level.String(), fmt.Sprintf("%d", count)})
		}
	}
	return renderTable([]string{"Level", "Unchunked frames"}, rows, 1)
}

func renderPreflight(results []preflight.Result) string {
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		status := "FAIL"
		if res.Passed {
			status = "ok"
		}
		rows = append(rows, []string{res.Name, status, res.Detail})
	}
	return renderTable([]string{"Check", "Status", "Detail"}, rows)
}

func formatWall(wall time.Duration) string {
	if wall <= 0 {
		return "-"
	}
	return wall.Round(time.Millisecond).String()
}

func formatRate(rate float64, unit string) string {
	if rate <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f %s", rate, unit)
}
