package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/khanglvm/movie-picker/internal/config"
	"github.com/khanglvm/movie-picker/internal/logging"
)

const testMovies = `movieId,title,genres
1,Toy Story (1995),Adventure|Animation|Children|Comedy|Fantasy
2,Jumanji (1995),Adventure|Children|Fantasy
3,Heat (1995),Action|Crime|Thriller
4,Casino (1995),Crime|Drama
5,Aladdin (1992),Adventure|Animation|Children|Comedy|Musical
6,Obscure Short (2001),(no genres listed)
`

// Every title but the obscure one has at least two ratings, so a
// threshold of 1 keeps five titles.
const testRatings = `userId,movieId,rating,timestamp
1,1,5.0,964982703
1,5,5.0,964981247
1,2,4.0,964982224
1,3,1.0,964983815
2,1,4.0,964982931
2,5,4.0,964982400
2,3,2.0,964980868
2,4,1.0,964982176
3,3,5.0,964984041
3,4,5.0,964984100
3,2,2.0,964983650
4,4,4.0,964981208
4,3,4.0,964980985
4,1,1.0,964982653
4,6,3.0,964982653
`

// testConfig writes the dataset to a temp dir and returns a config that
// points at it with a threshold of 1.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	logging.Init(logging.Config{Level: "disabled"})

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("PORT", "")
	t.Setenv(config.ConfigPathEnvVar, "")

	moviesPath := filepath.Join(dir, "movies.csv")
	ratingsPath := filepath.Join(dir, "ratings.csv")
	if err := os.WriteFile(moviesPath, []byte(testMovies), 0644); err != nil {
		t.Fatalf("failed to write movies: %v", err)
	}
	if err := os.WriteFile(ratingsPath, []byte(testRatings), 0644); err != nil {
		t.Fatalf("failed to write ratings: %v", err)
	}

	cfg := config.Default()
	cfg.Data.Movies = moviesPath
	cfg.Data.Ratings = ratingsPath
	cfg.Build.Threshold = 1
	cfg.Storage.Path = filepath.Join(dir, "index.db")
	cfg.Logging.Level = "disabled"
	cfg.Serve.Addr = "127.0.0.1:0"
	return cfg
}

// builtConfig is testConfig with a cosine index already stored.
func builtConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := testConfig(t)

	var out bytes.Buffer
	if err := runBuild(context.Background(), cfg, &out); err != nil {
		t.Fatalf("runBuild failed: %v\n%s", err, out.String())
	}
	return cfg
}

// testRoot mirrors the persistent flags of the real root command.
func testRoot(sub ...*cobra.Command) *cobra.Command {
	root := &cobra.Command{Use: "moviepicker", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().String("config", "", "Config file (YAML)")
	root.PersistentFlags().BoolP("verbose", "v", false, "Debug logging")
	root.AddCommand(sub...)
	return root
}

// writeConfigFile writes a YAML config pointing at the test dataset.
func writeConfigFile(t *testing.T, path, ratings, movies, db string) {
	t.Helper()
	yaml := fmt.Sprintf(`data:
  ratings: %s
  movies: %s
storage:
  path: %s
logging:
  level: disabled
`, ratings, movies, db)
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}
