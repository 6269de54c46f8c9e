/*
Package dataset reads MovieLens-style CSV sources.

  movies.csv:  movieId,title,genres
  ratings.csv: userId,movieId,rating,timestamp

Both files start with a header row.
*/
package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/khanglvm/movie-picker/internal/catalog"
	"github.com/khanglvm/movie-picker/internal/matrix"
)

// DefaultRatingsLimit is the default number of ratings rows read.
const DefaultRatingsLimit = 1_000_000

const noGenres = "(no genres listed)"

// LoadCatalog reads a movies.csv file.
func LoadCatalog(path string) (*catalog.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open movies file: %w", err)
	}
	defer f.Close()

	return ReadCatalog(f)
}

// ReadCatalog parses movies.csv content.
func ReadCatalog(r io.Reader) (*catalog.Catalog, error) {
	cr := newReader(r)
	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return catalog.New(nil)
		}
		return nil, fmt.Errorf("failed to read movies header: %w", err)
	}

	var entries []catalog.Entry
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read movies: %w", err)
		}
		if len(rec) < 2 {
			continue
		}

		line, _ := cr.FieldPos(0)
		id, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("movies line %d: invalid movieId %q", line, rec[0])
		}

		entry := catalog.Entry{ID: id, Title: rec[1]}
		if len(rec) > 2 {
			entry.Genres = parseGenres(rec[2])
		}
		entries = append(entries, entry)
	}

	return catalog.New(entries)
}

// LoadRatings reads up to limit rows of a ratings.csv file.
// limit <= 0 reads the whole file.
func LoadRatings(path string, limit int) ([]matrix.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ratings file: %w", err)
	}
	defer f.Close()

	return ReadRatings(f, limit)
}

// ReadRatings parses ratings.csv content.
func ReadRatings(r io.Reader, limit int) ([]matrix.Event, error) {
	cr := newReader(r)
	cr.ReuseRecord = true
	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read ratings header: %w", err)
	}

	capacity := limit
	if capacity <= 0 || capacity > DefaultRatingsLimit {
		capacity = 1024
	}
	events := make([]matrix.Event, 0, capacity)

	for limit <= 0 || len(events) < limit {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read ratings: %w", err)
		}
		if len(rec) < 3 {
			continue
		}

		line, _ := cr.FieldPos(0)
		ev, err := parseEvent(rec)
		if err != nil {
			return nil, fmt.Errorf("ratings line %d: %w", line, err)
		}
		events = append(events, ev)
	}

	return events, nil
}

func parseEvent(rec []string) (matrix.Event, error) {
	var ev matrix.Event
	var err error

	if ev.UserID, err = strconv.Atoi(strings.TrimSpace(rec[0])); err != nil {
		return ev, fmt.Errorf("invalid userId %q", rec[0])
	}
	if ev.ItemID, err = strconv.Atoi(strings.TrimSpace(rec[1])); err != nil {
		return ev, fmt.Errorf("invalid movieId %q", rec[1])
	}
	if ev.Rating, err = strconv.ParseFloat(strings.TrimSpace(rec[2]), 64); err != nil {
		return ev, fmt.Errorf("invalid rating %q", rec[2])
	}
	if len(rec) > 3 {
		// timestamp is opaque; tolerate garbage
		ev.Timestamp, _ = strconv.ParseInt(strings.TrimSpace(rec[3]), 10, 64)
	}

	return ev, nil
}

func parseGenres(field string) []string {
	field = strings.TrimSpace(field)
	if field == "" || field == noGenres {
		return nil
	}
	parts := strings.Split(field, "|")
	genres := parts[:0]
	for _, g := range parts {
		if g = strings.TrimSpace(g); g != "" {
			genres = append(genres, g)
		}
	}
	return genres
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1
	return cr
}
