package freshness

import "time"

// Rotation tables for the daily banner and the per-document insight note.
// Both are indexed by day of the year modulo seven, which keeps the choice
// stable for a calendar day. Over a leap year this phase-shifts by one day at
// the year boundary; that is intentional.
var bannerTexts = [7]string{
	"New this week: updated quantization guides for running 70B models on consumer GPUs.",
	"Tip of the day: pin your context window before benchmarking local inference speed.",
	"Freshly reviewed: the latest llama.cpp releases and what changed for Apple Silicon.",
	"Daily pick: compare GGUF runtimes side by side before your next download.",
	"Did you know? Most local models run noticeably faster with memory-mapped weights.",
	"Today's focus: privacy-first setups, because everything on this site runs offline.",
	"Community favorite: our one-page cheat sheet for choosing a local model size.",
}

var insightTexts = [7]string{
	"Insight: smaller quantized models often beat larger ones on latency-sensitive tasks.",
	"Insight: measure tokens per second with your own prompts, not synthetic benchmarks.",
	"Insight: context length costs memory quadratically in some runtimes, so check before you raise it.",
	"Insight: keep one baseline model installed so regressions are easy to spot.",
	"Insight: GPU offload layer counts are worth tuning per machine, not per model.",
	"Insight: batch size one is the honest benchmark for interactive use.",
	"Insight: a warm model cache makes the second run the one worth timing.",
}

// BannerFor returns the banner text for a calendar day.
func BannerFor(day time.Time) string {
	return bannerTexts[day.YearDay()%7]
}

// InsightFor returns the insight text for a calendar day.
func InsightFor(day time.Time) string {
	return insightTexts[day.YearDay()%7]
}
