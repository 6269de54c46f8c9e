package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/khanglvm/movie-picker/internal/recommend"
	"github.com/khanglvm/movie-picker/internal/search"
	"github.com/khanglvm/movie-picker/internal/validation"
	"github.com/khanglvm/movie-picker/internal/version"
)

// RecommendRequest is the POST /recommend body. Each rating is a
// [title, rating] pair or a {"title", "rating"} object.
type RecommendRequest struct {
	Ratings []recommend.Rating `json:"ratings" validate:"dive"`
}

// RecommendResponse lists canonical titles best first.
type RecommendResponse struct {
	Recommendations []string                   `json:"recommendations"`
	Scores          []recommend.Recommendation `json:"scores,omitempty"`
}

// SearchResponse wraps /search hits.
type SearchResponse struct {
	Query   string                `json:"query"`
	Results []search.SearchResult `json:"results"`
}

// HealthResponse reports liveness and the loaded index.
type HealthResponse struct {
	Status  string `json:"status"`
	Mode    string `json:"mode"`
	Index   string `json:"index,omitempty"`
	BuildID string `json:"build_id,omitempty"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
		respondError(w, http.StatusBadRequest, verr.Error())
		return
	}
	for i, rating := range req.Ratings {
		field := fmt.Sprintf("ratings[%d].rating", i)
		if verr := validation.ValidateRange(field, rating.Rating, s.opts.MinRating, s.opts.MaxRating); verr != nil {
			respondError(w, http.StatusBadRequest, verr.Error())
			return
		}
	}

	recs, err := s.recommender.Recommend(r.Context(), req.Ratings)
	if err != nil {
		// Only a cancelled request context ends up here.
		s.logger.Warn().Err(err).Msg("recommendation aborted")
		respondError(w, http.StatusServiceUnavailable, "request cancelled")
		return
	}

	resp := RecommendResponse{Recommendations: recommend.Titles(recs)}
	if wantScores, _ := strconv.ParseBool(r.URL.Query().Get("scores")); wantScores {
		resp.Scores = recs
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.searcher == nil {
		respondError(w, http.StatusServiceUnavailable, "search is not available")
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	limit := search.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			respondError(w, http.StatusBadRequest, "limit must be an integer between 1 and 100")
			return
		}
		limit = n
	}

	results, err := s.searcher.SearchTitles(q, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("query", q).Msg("search failed")
		respondError(w, http.StatusInternalServerError, "search failed")
		return
	}

	respondJSON(w, http.StatusOK, SearchResponse{Query: q, Results: results})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Mode:    string(s.recommender.Mode()),
		Index:   s.opts.IndexName,
		BuildID: s.opts.BuildID,
		Version: version.Version,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
	})
}

// decodeBody reads one JSON value. An empty body decodes as the zero value.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("malformed JSON: %w", err)
	}
	return nil
}

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// respondError sends an {"error": message} response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}
