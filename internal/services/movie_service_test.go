package services

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/go-movie-catalog/internal/domain"
	"github.com/tbourn/go-movie-catalog/internal/repo"
	"github.com/tbourn/go-movie-catalog/internal/tmdb"
)

type fakeProvider struct {
	err       error
	lastQuery string
	lastID    int64
}

func (f *fakeProvider) SearchMovie(ctx context.Context, q string) (*tmdb.Response, error) {
	f.lastQuery = q
	if f.err != nil {
		return nil, f.err
	}
	return &tmdb.Response{Results: []tmdb.Result{{ID: 550, Title: "Fight Club"}}}, nil
}

func (f *fakeProvider) MovieDetails(ctx context.Context, id int64) (*tmdb.Details, error) {
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	return &tmdb.Details{Result: tmdb.Result{ID: id, Title: "Fight Club"}, IMDbID: "tt0137523"}, nil
}

func (f *fakeProvider) FindByIMDbID(ctx context.Context, imdbID string) (*tmdb.FindResponse, error) {
	return &tmdb.FindResponse{}, f.err
}

func TestMovie_SearchParams(t *testing.T) {
	svc := NewMovieService(nil, &fakeProvider{})
	for _, c := range [][2]string{{"", ""}, {"x", "1"}, {"  ", " "}} {
		if _, err := svc.Search(context.Background(), c[0], c[1]); !errors.Is(err, ErrSearchParams) {
			t.Fatalf("title=%q id=%q: expected ErrSearchParams, got %v", c[0], c[1], err)
		}
	}
	if _, err := svc.Search(context.Background(), "", "abc"); !errors.Is(err, ErrSearchParams) {
		t.Fatalf("non-numeric id: expected ErrSearchParams, got %v", err)
	}
}

func TestMovie_SearchByTitleAndID(t *testing.T) {
	fp := &fakeProvider{}
	svc := NewMovieService(nil, fp)

	res, err := svc.Search(context.Background(), " Fight Club ", "")
	if err != nil || res.Query != "title" || len(res.Matches) != 1 || fp.lastQuery != "Fight Club" {
		t.Fatalf("title search: %+v err=%v q=%q", res, err, fp.lastQuery)
	}

	res, err = svc.Search(context.Background(), "", "550")
	if err != nil || res.Query != "id" || res.Movie == nil || res.Movie.IMDbID != "tt0137523" || fp.lastID != 550 {
		t.Fatalf("id search: %+v err=%v", res, err)
	}
}

func TestMovie_SearchUpstreamFailures(t *testing.T) {
	svc := NewMovieService(nil, &fakeProvider{err: errors.New("tmdb down")})
	_, err := svc.Search(context.Background(), "x", "")
	if !errors.Is(err, ErrUpstream) || KindOf(err) != KindUpstream {
		t.Fatalf("expected upstream error, got %v", err)
	}

	unconfigured := NewMovieService(nil, nil)
	if _, err := unconfigured.Search(context.Background(), "x", ""); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream without provider, got %v", err)
	}
}

func TestMovie_NewReleasesGroupedByWeek(t *testing.T) {
	db := newServiceDB(t)
	ctx := context.Background()
	for _, r := range []domain.NewRelease{
		// Inserted out of listing order, as concurrent ingestion does.
		{Position: 2, TMDbID: 3, Title: "C", ReleaseWeek: "Week of Jan 14"},
		{Position: 0, TMDbID: 1, Title: "A", ReleaseWeek: "Week of Jan 7"},
		{Position: 1, TMDbID: 2, Title: "B", ReleaseWeek: "Week of Jan 7"},
	} {
		r := r
		if err := repo.InsertNewRelease(ctx, db, &r); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	svc := NewMovieService(db, nil)
	got, err := svc.NewReleases(ctx)
	if err != nil {
		t.Fatalf("NewReleases: %v", err)
	}
	if len(got.Weeks) != 2 || got.Weeks[0] != "Week of Jan 7" || got.Weeks[1] != "Week of Jan 14" {
		t.Fatalf("unexpected weeks: %v", got.Weeks)
	}
	if jan7 := got.Releases["Week of Jan 7"]; len(jan7) != 2 || jan7[0].Title != "A" || len(got.Releases["Week of Jan 14"]) != 1 {
		t.Fatalf("unexpected grouping: %+v", got.Releases)
	}

	empty := NewMovieService(newServiceDB(t), nil)
	got, err = empty.NewReleases(ctx)
	if err != nil || len(got.Weeks) != 0 || got.Releases == nil {
		t.Fatalf("empty snapshot: %+v err=%v", got, err)
	}
}
