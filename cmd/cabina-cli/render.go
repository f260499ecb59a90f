package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/okian/cabina/internal/domain/emotion"
	"github.com/okian/cabina/internal/domain/model"
	"github.com/okian/cabina/internal/domain/protocol"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	alertStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

func riskStyle(r emotion.RiskTier) lipgloss.Style {
	switch r {
	case emotion.RiskCritical:
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	case emotion.RiskHigh:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("202"))
	case emotion.RiskMedium:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	}
}

func field(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-12s", label)) + " " + value
}

func renderResult(name string, res emotion.Result) string { //nolint:gocritic // hugeParam
	f := res.Features
	rule := "fallback"
	if res.Rule > 0 {
		rule = fmt.Sprintf("#%d", res.Rule)
	}
	lines := []string{
		titleStyle.Render("Analysis of " + name),
		field("state", riskStyle(res.Risk).Render(string(res.State))),
		field("risk", riskStyle(res.Risk).Render(res.Risk.String())),
		field("confidence", fmt.Sprintf("%.2f", res.Confidence)),
		field("rule", rule),
		field("why", res.Explanation),
		"",
		field("amplitude", fmt.Sprintf("%.1f", f.MeanAmplitude)),
		field("peak", fmt.Sprintf("%.0f", f.MaxAmplitude)),
		field("variability", fmt.Sprintf("%.1f", f.Variability)),
		field("pitch", fmt.Sprintf("%.1f Hz", f.FrequencyEstimateHz)),
		field("pauses", fmt.Sprintf("%.1f", f.SilenceSegmentCount)),
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func renderProtocol(p protocol.Protocol) string { //nolint:gocritic // hugeParam
	lines := []string{
		titleStyle.Render("Response protocol"),
		field("lighting", p.Lighting),
		field("audio", p.Audio),
		field("video", p.Video),
		field("breathing", p.Breathing),
		field("message", p.Message),
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func renderCycle(snap model.Snapshot) string { //nolint:gocritic // hugeParam
	r := snap.Result
	line := fmt.Sprintf("#%-3d %s %s  %s",
		snap.Version,
		riskStyle(r.Risk).Render(fmt.Sprintf("%-10s", r.State)),
		labelStyle.Render(fmt.Sprintf("%-8s", r.Risk.String())),
		r.Explanation,
	)
	if snap.Critical() {
		line += "  " + alertStyle.Render("ALERT")
	}
	return line
}

func renderIncident(inc model.Incident) string { //nolint:gocritic // hugeParam
	lines := []string{alertStyle.Render("Emergency protocol activated (incident " + inc.ID + ")")}
	for _, a := range inc.Actions {
		lines = append(lines, "  - "+a)
	}
	return strings.Join(lines, "\n")
}

func renderSummary(snaps []model.Snapshot, emergencies int) string {
	counts := make(map[emotion.State]int)
	for i := range snaps {
		counts[snaps[i].Result.State]++
	}
	lines := []string{titleStyle.Render(fmt.Sprintf("Session summary (%d windows)", len(snaps)))}
	for _, s := range emotion.States() {
		if counts[s] == 0 {
			continue
		}
		lines = append(lines, field(string(s), fmt.Sprintf("%d", counts[s])))
	}
	lines = append(lines, field("emergencies", fmt.Sprintf("%d", emergencies)))
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func renderRules(rules []emotion.Rule, t emotion.Thresholds) string {
	lines := []string{titleStyle.Render("Classification rules (first match wins)")}
	for i, r := range rules {
		lines = append(lines, fmt.Sprintf("%d. %s %s  %s",
			i+1,
			riskStyle(r.Risk).Render(fmt.Sprintf("%-10s", r.State)),
			labelStyle.Render(fmt.Sprintf("%-8s", r.Risk.String())),
			r.Explanation,
		))
	}
	lines = append(lines,
		fmt.Sprintf("-> %s otherwise", emotion.StateStable),
		"",
		titleStyle.Render("Thresholds"),
		field("low vol", fmt.Sprintf("%.0f", t.LowVolume)),
		field("high vol", fmt.Sprintf("%.0f", t.HighVolume)),
		field("high var", fmt.Sprintf("%.0f", t.HighVariability)),
		field("flat var", fmt.Sprintf("%.0f", t.FlatVariability)),
		field("subdued vol", fmt.Sprintf("%.0f", t.SubduedVolume)),
		field("low pitch", fmt.Sprintf("%.0f Hz", t.LowPitchHz)),
		field("crisis vol", fmt.Sprintf("%.0f", t.CrisisVolume)),
		field("pauses", fmt.Sprintf("> %.0f frequent, > %.0f long", t.FrequentPauses, t.LongPauses)),
	)
	return boxStyle.Render(strings.Join(lines, "\n"))
}
