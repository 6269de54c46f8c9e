/*
Package benchmark measures recommendation latency against a loaded index.

Profiles are drawn from the index titles with a seeded generator, so two
runs with the same seed score the same requests:

	profiles := benchmark.RandomProfiles(engine.Titles(), 200, 5, 42)
	result, err := benchmark.Run(ctx, engine, profiles, 3)
	fmt.Print(benchmark.FormatResult(result))

Ratings are drawn from the half-star scale 0.5..5.
*/
package benchmark

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/khanglvm/movie-picker/internal/recommend"
)

// Recommender is the part of recommend.Engine the benchmark drives.
type Recommender interface {
	Recommend(ctx context.Context, profile []recommend.Rating) ([]recommend.Recommendation, error)
	Mode() recommend.Mode
}

// Result summarizes one benchmark run.
type Result struct {
	Mode        string `json:"mode"`
	Profiles    int    `json:"profiles"`
	ProfileSize int    `json:"profileSize"`
	Iterations  int    `json:"iterations"`
	Requests    int    `json:"requests"`

	// Empty counts requests that produced no recommendations.
	Empty int `json:"empty"`

	Min   time.Duration `json:"min"`
	Mean  time.Duration `json:"mean"`
	P50   time.Duration `json:"p50"`
	P95   time.Duration `json:"p95"`
	P99   time.Duration `json:"p99"`
	Max   time.Duration `json:"max"`
	Total time.Duration `json:"total"`

	// Throughput is requests per second over Total.
	Throughput float64 `json:"throughput"`
}

// RandomProfiles draws n profiles of size entries each from titles.
// Titles within one profile are distinct; size is capped at len(titles).
func RandomProfiles(titles []string, n, size int, seed uint64) [][]recommend.Rating {
	if len(titles) == 0 || n <= 0 || size <= 0 {
		return nil
	}
	if size > len(titles) {
		size = len(titles)
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	profiles := make([][]recommend.Rating, n)
	for i := range profiles {
		picked := rng.Perm(len(titles))[:size]
		profile := make([]recommend.Rating, size)
		for j, pos := range picked {
			profile[j] = recommend.Rating{
				Title:  titles[pos],
				Rating: float64(rng.IntN(10)+1) / 2,
			}
		}
		profiles[i] = profile
	}
	return profiles
}

// Run scores every profile iterations times and reports latency
// percentiles. It stops early with ctx.Err() when ctx is cancelled.
func Run(ctx context.Context, rec Recommender, profiles [][]recommend.Rating, iterations int) (*Result, error) {
	if len(profiles) == 0 {
		return nil, fmt.Errorf("no profiles to benchmark")
	}
	if iterations < 1 {
		iterations = 1
	}

	result := &Result{
		Mode:        string(rec.Mode()),
		Profiles:    len(profiles),
		ProfileSize: len(profiles[0]),
		Iterations:  iterations,
	}

	samples := make([]time.Duration, 0, len(profiles)*iterations)
	for i := 0; i < iterations; i++ {
		for _, profile := range profiles {
			start := time.Now()
			recs, err := rec.Recommend(ctx, profile)
			elapsed := time.Since(start)
			if err != nil {
				return nil, err
			}
			if len(recs) == 0 {
				result.Empty++
			}
			samples = append(samples, elapsed)
		}
	}

	summarize(result, samples)
	return result, nil
}

func summarize(result *Result, samples []time.Duration) {
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })

	var total time.Duration
	for _, d := range samples {
		total += d
	}

	result.Requests = len(samples)
	result.Total = total
	result.Min = samples[0]
	result.Max = samples[len(samples)-1]
	result.Mean = total / time.Duration(len(samples))
	result.P50 = percentile(samples, 50)
	result.P95 = percentile(samples, 95)
	result.P99 = percentile(samples, 99)
	if total > 0 {
		result.Throughput = float64(len(samples)) / total.Seconds()
	}
}

// percentile uses the nearest-rank method on sorted samples.
func percentile(sorted []time.Duration, p int) time.Duration {
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}

// FormatResult formats the benchmark result for display.
func FormatResult(result *Result) string {
	var sb strings.Builder

	sb.WriteString("╔══════════════════════════════════════════════════════════════╗\n")
	sb.WriteString("║              RECOMMENDATION LATENCY BENCHMARK                ║\n")
	sb.WriteString("╠══════════════════════════════════════════════════════════════╣\n")
	sb.WriteString(fmt.Sprintf("║  Mode:         %-46s║\n", result.Mode))
	sb.WriteString(fmt.Sprintf("║  Profiles:     %-6d x %-3d ratings, %-3d iterations          ║\n", result.Profiles, result.ProfileSize, result.Iterations))
	sb.WriteString(fmt.Sprintf("║  Requests:     %-8d (%d empty)%s║\n", result.Requests, result.Empty, pad(result.Empty)))
	sb.WriteString("╠══════════════════════════════════════════════════════════════╣\n")
	sb.WriteString(fmt.Sprintf("║  min  %-14s p50  %-14s p95  %-15s║\n", round(result.Min), round(result.P50), round(result.P95)))
	sb.WriteString(fmt.Sprintf("║  mean %-14s p99  %-14s max  %-15s║\n", round(result.Mean), round(result.P99), round(result.Max)))
	sb.WriteString(fmt.Sprintf("║  Throughput:   %-10.1f req/s                              ║\n", result.Throughput))
	sb.WriteString("╚══════════════════════════════════════════════════════════════╝\n")

	return sb.String()
}

func round(d time.Duration) string {
	return d.Round(time.Microsecond).String()
}

// pad keeps the requests row aligned with the box border.
func pad(empty int) string {
	width := 29 - len(fmt.Sprint(empty))
	if width < 1 {
		width = 1
	}
	return strings.Repeat(" ", width)
}
