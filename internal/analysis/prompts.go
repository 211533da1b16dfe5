package analysis

import (
	"fmt"
	"strings"
)

// systemPrompts — системный промпт для каждого вида анализа.
var systemPrompts = map[Kind]string{
	KindTransitAnalysis: "You are a practicing astrologer. Interpret the current " +
		"planetary transits for the subject. Focus on the slower planets and exact " +
		"aspects, explain the general climate of the moment in grounded, concrete " +
		"language. Write flowing markdown prose with a short heading per theme.",

	KindNatalAnalysis: "You are a practicing astrologer. Interpret the subject's " +
		"natal chart: temperament, core drives, tensions and talents. Anchor every " +
		"claim in a specific placement or aspect from the material. Markdown prose.",

	KindTransitToNatalAnalysis: "You are a practicing astrologer. Interpret how the " +
		"current transits activate the subject's natal chart. Prioritise tight orbs " +
		"and outer-planet contacts to personal points. Markdown prose.",

	KindAnalysisReview: "You are a senior astrologer reviewing a colleague's " +
		"analysis. Tighten the prose, remove vague filler, verify every claim against " +
		"the chart material included below, and return the improved analysis in full. " +
		"Return only the revised text.",

	KindReportDraft: "You are an editor assembling a personal transit report. Merge " +
		"the analyses below into one coherent markdown report with an introduction " +
		"addressed to the subject by name, thematic sections, and a short closing. " +
		"Do not invent placements that are absent from the material.",

	KindReportReview: "You are the final reviewer of a personal transit report. " +
		"Interrogate the draft: fix contradictions, smooth transitions, ensure the " +
		"tone stays warm and specific. Return the full corrected report.",

	KindEmailDraft: "Write a short, warm email to accompany a personal astrology " +
		"report. Two or three sentences, addressed to the subject by name. First line " +
		"of your answer is the subject line, the rest is the body.",
}

// systemPrompt возвращает системный промпт для вида анализа.
func systemPrompt(kind Kind) (string, error) {
	p, ok := systemPrompts[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return p, nil
}

// userPrompt собирает пользовательскую часть запроса.
func userPrompt(req Request) string {
	var b strings.Builder

	if req.Subject != "" {
		fmt.Fprintf(&b, "Subject: %s\n\n", req.Subject)
	}
	if req.Context != "" {
		b.WriteString("Biographical context:\n\n")
		b.WriteString(req.Context)
		b.WriteString("\n\n")
	}
	b.WriteString(req.Material)
	return b.String()
}
