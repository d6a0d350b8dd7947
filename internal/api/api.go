// Package api exposes the warehouse over HTTP: movie browsing and filtering
// straight from the read store, plus full-text search when an index is
// configured. Error bodies use {"detail": "..."} throughout.
package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"moviedw/internal/moviestore"
	"moviedw/internal/search"
)

// MovieStore is the slice of the read store the handlers use.
type MovieStore interface {
	List(ctx context.Context, skip, limit int) ([]moviestore.Movie, error)
	Get(ctx context.Context, id int64) (*moviestore.Movie, error)
	ByTitle(ctx context.Context, title string, skip, limit int) ([]moviestore.Movie, error)
	ByGenre(ctx context.Context, genre string, skip, limit int) ([]moviestore.Movie, error)
	ByPopularity(ctx context.Context, min, max float64, skip, limit int) ([]moviestore.Movie, error)
	ByVoteAverage(ctx context.Context, min, max float64, skip, limit int) ([]moviestore.Movie, error)
}

// Searcher is the slice of the search index the handlers use.
type Searcher interface {
	Search(ctx context.Context, q search.Query) ([]search.Hit, uint64, error)
	DocCount() (uint64, error)
}

// Server holds handler dependencies. Search may be nil when no index is
// configured; the search routes then answer 503.
type Server struct {
	Store  MovieStore
	Search Searcher
	Logger *log.Logger

	// Accounts enables HTTP basic auth on /api/v1 when non-empty.
	Accounts map[string]string
}

// Router builds the gin engine with every route mounted.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "movie warehouse API"})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	if len(s.Accounts) > 0 {
		v1.Use(gin.BasicAuth(gin.Accounts(s.Accounts)))
	}

	v1.GET("/movies", s.listMovies)
	v1.GET("/movies/:id", s.getMovie)
	v1.GET("/movies/search/by-title", s.moviesByTitle)
	v1.GET("/movies/filter/by-genre", s.moviesByGenre)
	v1.GET("/movies/filter/by-popularity", s.moviesByPopularity)
	v1.GET("/movies/filter/by-vote", s.moviesByVote)

	v1.GET("/search/movies", s.searchMovies)
	v1.GET("/search/stats", s.searchStats)

	return r
}

func (s *Server) listMovies(c *gin.Context) {
	skip, limit, ok := s.page(c)
	if !ok {
		return
	}
	movies, err := s.Store.List(c.Request.Context(), skip, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, movies)
}

func (s *Server) getMovie(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "movie id must be an integer"})
		return
	}
	m, err := s.Store.Get(c.Request.Context(), id)
	if errors.Is(err, moviestore.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "movie not found"})
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) moviesByTitle(c *gin.Context) {
	title := c.Query("title")
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "title is required"})
		return
	}
	skip, limit, ok := s.page(c)
	if !ok {
		return
	}
	movies, err := s.Store.ByTitle(c.Request.Context(), title, skip, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, movies)
}

func (s *Server) moviesByGenre(c *gin.Context) {
	genre := c.Query("genre")
	if genre == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "genre is required"})
		return
	}
	skip, limit, ok := s.page(c)
	if !ok {
		return
	}
	movies, err := s.Store.ByGenre(c.Request.Context(), genre, skip, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, movies)
}

func (s *Server) moviesByPopularity(c *gin.Context) {
	s.rangeFilter(c, s.Store.ByPopularity)
}

func (s *Server) moviesByVote(c *gin.Context) {
	s.rangeFilter(c, s.Store.ByVoteAverage)
}

func (s *Server) rangeFilter(c *gin.Context, query func(context.Context, float64, float64, int, int) ([]moviestore.Movie, error)) {
	min, ok := s.floatQuery(c, "min", 0)
	if !ok {
		return
	}
	max, ok := s.floatQuery(c, "max", 1e12)
	if !ok {
		return
	}
	if min > max {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "min must not exceed max"})
		return
	}
	skip, limit, pok := s.page(c)
	if !pok {
		return
	}
	movies, err := query(c.Request.Context(), min, max, skip, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, movies)
}

func (s *Server) searchMovies(c *gin.Context) {
	if s.Search == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "search index not configured"})
		return
	}

	q := search.Query{Text: c.Query("q")}
	var ok bool
	if q.MinPopularity, ok = s.optFloatQuery(c, "min_popularity"); !ok {
		return
	}
	if q.MaxPopularity, ok = s.optFloatQuery(c, "max_popularity"); !ok {
		return
	}
	if q.MinVote, ok = s.optFloatQuery(c, "min_vote"); !ok {
		return
	}
	if q.MaxVote, ok = s.optFloatQuery(c, "max_vote"); !ok {
		return
	}
	q.Offset, q.Limit, ok = s.page(c)
	if !ok {
		return
	}

	hits, total, err := s.Search.Search(c.Request.Context(), q)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "hits": hits})
}

func (s *Server) searchStats(c *gin.Context) {
	if s.Search == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "search index not configured"})
		return
	}
	n, err := s.Search.DocCount()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": n})
}

// page reads skip/limit with the API's defaults. On a malformed value it
// writes a 400 and reports false.
func (s *Server) page(c *gin.Context) (skip, limit int, ok bool) {
	skip, ok = s.intQuery(c, "skip", 0)
	if !ok {
		return 0, 0, false
	}
	limit, ok = s.intQuery(c, "limit", 20)
	if !ok {
		return 0, 0, false
	}
	if skip < 0 || limit < 1 || limit > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "skip must be >= 0 and limit in [1, 100]"})
		return 0, 0, false
	}
	return skip, limit, true
}

func (s *Server) intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": name + " must be an integer"})
		return 0, false
	}
	return v, true
}

func (s *Server) floatQuery(c *gin.Context, name string, def float64) (float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": name + " must be a number"})
		return 0, false
	}
	return v, true
}

func (s *Server) optFloatQuery(c *gin.Context, name string) (*float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": name + " must be a number"})
		return nil, false
	}
	return &v, true
}

func (s *Server) fail(c *gin.Context, err error) {
	if s.Logger != nil {
		s.Logger.Printf("api error method=%s path=%s err=%v", c.Request.Method, c.Request.URL.Path, err)
	} else {
		log.Printf("api error method=%s path=%s err=%v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
}
