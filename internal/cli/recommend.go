package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/khanglvm/movie-picker/internal/api"
	"github.com/khanglvm/movie-picker/internal/config"
	"github.com/khanglvm/movie-picker/internal/recommend"
	"github.com/khanglvm/movie-picker/internal/validation"
)

// NewRecommendCmd creates the 'recommend' command for one-shot scoring.
func NewRecommendCmd() *cobra.Command {
	var (
		ratings []string
		payload string
		topK    int
		name    string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend movies for a list of rated titles",
		Long: `Score a profile against the stored index without starting the server.

Ratings are given as repeated -r "Title=Rating" flags or as a JSON payload
in the same shape POST /recommend accepts. Titles are matched fuzzily, so
"toy story" finds "Toy Story (1995)". Use --json - to read the payload
from stdin.`,
		Example: `  moviepicker recommend -r "Toy Story (1995)=5" -r "Heat=2"

  moviepicker recommend --json '{"ratings": [["Toy Story", 5], ["Jumanji", 4]]}'

  echo '[["Casino", 5]]' | moviepicker recommend --json - --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("top-k") {
				cfg.Recommend.TopK = topK
			}
			if cmd.Flags().Changed("name") {
				cfg.Storage.Index = name
			}

			profile, err := parseProfile(ratings, payload, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if err := checkScale(profile, cfg.Recommend.MinRating, cfg.Recommend.MaxRating); err != nil {
				return err
			}

			return runRecommend(cmd.Context(), cfg, profile, format, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringArrayVarP(&ratings, "rate", "r", nil, "Rated title as \"Title=Rating\" (repeatable)")
	cmd.Flags().StringVar(&payload, "json", "", "JSON payload: {\"ratings\": [...]} or a bare list; - reads stdin")
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Number of recommendations (default 10)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Index name")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or json")

	return cmd
}

func runRecommend(ctx context.Context, cfg *config.Config, profile []recommend.Rating, format string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format %q (use text or json)", format)
	}

	engine, _, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}

	recs, err := engine.Recommend(ctx, profile)
	if err != nil {
		return err
	}

	if format == "json" {
		return printJSON(out, api.RecommendResponse{
			Recommendations: recommend.Titles(recs),
			Scores:          recs,
		})
	}

	if len(recs) == 0 {
		fmt.Fprintln(out, "No recommendations: none of the titles matched the catalog.")
		fmt.Fprintln(out, "Try 'moviepicker search <keyword>' to find exact titles.")
		return nil
	}

	fmt.Fprintf(out, "Top %d recommendations (%s):\n\n", len(recs), engine.Mode())
	for i, rec := range recs {
		fmt.Fprintf(out, "  %2d. %-60s %8.3f\n", i+1, rec.Title, rec.Score)
	}
	return nil
}

// parseProfile merges -r flags and a JSON payload, flags first.
func parseProfile(flags []string, payload string, stdin io.Reader) ([]recommend.Rating, error) {
	profile := make([]recommend.Rating, 0, len(flags))
	for _, f := range flags {
		r, err := parseRatingArg(f)
		if err != nil {
			return nil, err
		}
		profile = append(profile, r)
	}

	if payload == "" {
		if len(profile) == 0 {
			return nil, fmt.Errorf("no ratings given\n\n💡 Use -r \"Title=Rating\" or --json")
		}
		return profile, nil
	}

	data := []byte(payload)
	if payload == "-" {
		var err error
		if data, err = io.ReadAll(stdin); err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	fromJSON, err := decodePayload(data)
	if err != nil {
		return nil, err
	}
	return append(profile, fromJSON...), nil
}

// decodePayload accepts {"ratings": [...]} or a bare list of ratings.
func decodePayload(data []byte) ([]recommend.Rating, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var list []recommend.Rating
		if err := json.Unmarshal([]byte(trimmed), &list); err != nil {
			return nil, fmt.Errorf("malformed JSON: %w", err)
		}
		return list, nil
	}

	var req api.RecommendRequest
	if err := json.Unmarshal([]byte(trimmed), &req); err != nil {
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}
	return req.Ratings, nil
}

// parseRatingArg splits "Title=Rating" on the last '=' so titles may
// contain '='.
func parseRatingArg(arg string) (recommend.Rating, error) {
	i := strings.LastIndex(arg, "=")
	if i <= 0 {
		return recommend.Rating{}, fmt.Errorf("invalid rating %q: expected \"Title=Rating\"", arg)
	}

	title := strings.TrimSpace(arg[:i])
	value, err := strconv.ParseFloat(strings.TrimSpace(arg[i+1:]), 64)
	if err != nil || title == "" {
		return recommend.Rating{}, fmt.Errorf("invalid rating %q: expected \"Title=Rating\"", arg)
	}
	return recommend.Rating{Title: title, Rating: value}, nil
}

func checkScale(profile []recommend.Rating, min, max float64) error {
	for i, r := range profile {
		if verr := validation.ValidateRange(fmt.Sprintf("ratings[%d].rating", i), r.Rating, min, max); verr != nil {
			return verr
		}
	}
	return nil
}
