package similarity

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/khanglvm/movie-picker/internal/catalog"
	"github.com/khanglvm/movie-picker/internal/logging"
	"github.com/khanglvm/movie-picker/internal/matrix"
)

// BuildOptions tunes an index build.
type BuildOptions struct {
	// Workers bounds the number of rows computed in parallel.
	// Zero means GOMAXPROCS.
	Workers int

	// MaxItems truncates a content build to the first N catalog positions.
	// Zero keeps the whole catalog. Ignored by BuildCosine.
	MaxItems int
}

// MaxContentItems bounds the positions of a content index. The matrix is
// dense, so this limit is about 800 MB of float64.
const MaxContentItems = 10_000

// ContentTooLargeError reports a content build over MaxContentItems.
type ContentTooLargeError struct {
	Items int
	Limit int
}

func (e *ContentTooLargeError) Error() string {
	return fmt.Sprintf("content index of %d items exceeds the limit of %d", e.Items, e.Limit)
}

// BuildStats describes a finished build.
type BuildStats struct {
	Items      int
	Degenerate []string
	Duration   time.Duration
}

// sparseRow holds the non-zero cells of one item vector in column order.
type sparseRow struct {
	cols []int32
	vals []float64
	norm float64
}

// BuildCosine computes pairwise cosine similarity between the rows of m.
//
// Zero-norm rows get similarity 0 everywhere, including the diagonal.
// Every other diagonal cell is exactly 1.
func BuildCosine(ctx context.Context, m *matrix.Interaction, opts BuildOptions) (*Index, BuildStats, error) {
	rows := make([]sparseRow, m.Rows())
	for i := range rows {
		rows[i] = sparsify(m.Row(i))
	}
	return build(ctx, KindCosine, m.Titles(), rows, opts)
}

// BuildContent computes genre cosine similarity between catalog positions.
// It fails with ContentTooLargeError when more than MaxContentItems
// positions remain after the MaxItems cut.
func BuildContent(ctx context.Context, cat *catalog.Catalog, opts BuildOptions) (*Index, BuildStats, error) {
	cat = cat.Head(opts.MaxItems)
	if cat.Len() > MaxContentItems {
		return nil, BuildStats{}, &ContentTooLargeError{Items: cat.Len(), Limit: MaxContentItems}
	}

	vocab := make(map[string]int32)
	for _, e := range cat.Entries() {
		for _, g := range e.Genres {
			if _, ok := vocab[g]; !ok {
				vocab[g] = 0
			}
		}
	}
	names := make([]string, 0, len(vocab))
	for g := range vocab {
		names = append(names, g)
	}
	sort.Strings(names)
	for i, g := range names {
		vocab[g] = int32(i)
	}

	rows := make([]sparseRow, cat.Len())
	for pos := range rows {
		seen := make(map[int32]struct{})
		var cols []int32
		for _, g := range cat.At(pos).Genres {
			c := vocab[g]
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			cols = append(cols, c)
		}
		sort.Slice(cols, func(a, b int) bool { return cols[a] < cols[b] })

		vals := make([]float64, len(cols))
		for k := range vals {
			vals[k] = 1
		}
		rows[pos] = sparseRow{cols: cols, vals: vals, norm: math.Sqrt(float64(len(cols)))}
	}

	return build(ctx, KindContent, cat.Titles(), rows, opts)
}

func build(ctx context.Context, kind Kind, titles []string, rows []sparseRow, opts BuildOptions) (*Index, BuildStats, error) {
	logger := logging.Component("similarity")
	start := time.Now()

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	n := len(rows)
	values := make([]float64, n*n)

	stats := BuildStats{Items: n}
	for i, r := range rows {
		if r.norm == 0 {
			stats.Degenerate = append(stats.Degenerate, titles[i])
			logger.Warn().Err(ErrDegenerateVector).Str("title", titles[i]).Msg("similarity defined as 0")
		}
	}

	logger.Info().
		Str("kind", string(kind)).
		Int("items", n).
		Int("workers", workers).
		Msg("computing similarity matrix")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// Row i owns cells (i, j) and (j, i) for j >= i.
			if rows[i].norm != 0 {
				values[i*n+i] = 1
			}
			for j := i + 1; j < n; j++ {
				s := cosine(rows[i], rows[j])
				values[i*n+j] = s
				values[j*n+i] = s
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, BuildStats{}, fmt.Errorf("similarity build cancelled: %w", err)
	}

	idx, err := New(kind, titles, values)
	if err != nil {
		return nil, BuildStats{}, err
	}

	stats.Duration = time.Since(start)
	logger.Info().
		Str("kind", string(kind)).
		Int("items", n).
		Int("degenerate", len(stats.Degenerate)).
		Dur("duration", stats.Duration).
		Msg("similarity matrix built")

	return idx, stats, nil
}

func sparsify(row []float64) sparseRow {
	var r sparseRow
	var sq float64
	for j, v := range row {
		if v == 0 {
			continue
		}
		r.cols = append(r.cols, int32(j))
		r.vals = append(r.vals, v)
		sq += v * v
	}
	r.norm = math.Sqrt(sq)
	return r
}

// cosine computes dot(a, b) / (|a| |b|) over sorted sparse rows.
// Zero entries contribute nothing, so the result equals the dense sum.
func cosine(a, b sparseRow) float64 {
	if a.norm == 0 || b.norm == 0 {
		return 0
	}

	var dot float64
	i, j := 0, 0
	for i < len(a.cols) && j < len(b.cols) {
		switch {
		case a.cols[i] == b.cols[j]:
			dot += a.vals[i] * b.vals[j]
			i++
			j++
		case a.cols[i] < b.cols[j]:
			i++
		default:
			j++
		}
	}

	s := dot / (a.norm * b.norm)
	// rounding can push |s| a hair past 1
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
