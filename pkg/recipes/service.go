// Package recipes implements the domain operations of the recipe manager:
// batch import, rating, external sync, list membership and edits.
package recipes

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/psdwizzard/recipekeeper/pkg/db"
	"github.com/psdwizzard/recipekeeper/pkg/notion"
	"github.com/psdwizzard/recipekeeper/pkg/scrape"
)

// Scraper turns a URL into structured recipe fields.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*scrape.Result, error)
}

// Publisher mirrors a recipe document into an external workspace.
type Publisher interface {
	Publish(ctx context.Context, doc notion.Document) error
}

// unknownAuthor is stored when the source page names no author.
const unknownAuthor = "Unknown"

// Service carries the store connection and the injected adapters. Adapters
// are constructed once by the caller and substituted with fakes in tests.
type Service struct {
	DB        *sql.DB
	Scraper   Scraper
	Publisher Publisher
	// Logger receives per-item import/sync outcomes. nil means no logging.
	Logger *slog.Logger
	// Workers bounds parallel scraping during import.
	Workers int
}

// NewService creates a Service with default concurrency.
func NewService(conn *sql.DB, scraper Scraper, publisher Publisher) *Service {
	return &Service{DB: conn, Scraper: scraper, Publisher: publisher, Workers: 4}
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return discardLogger
}

// ImportResult aggregates one import batch.
type ImportResult struct {
	Added   int
	Skipped int
}

type scrapeOutcome struct {
	res *scrape.Result
	err error
}

// ImportRecipes scrapes each URL and stores the recipes that are not already
// present. Per-URL scrape failures are logged and skipped; the batch never
// aborts because one URL fails. targetListID = 0 means no list; a target list
// that does not resolve is logged and ignored, matching the form-driven
// behavior this tool replaces.
//
// Scraping runs on a worker pool, but results are committed in input order so
// first-occurrence-wins dedup within a batch is deterministic.
func (s *Service) ImportRecipes(ctx context.Context, urls []string, targetListID int64) (ImportResult, error) {
	var result ImportResult
	log := s.logger()

	var haveList bool
	if targetListID != 0 {
		if _, err := db.GetList(s.DB, targetListID); err == nil {
			haveList = true
		} else if err == db.ErrNotFound {
			log.Warn("target list does not exist, importing without list", "list_id", targetListID)
		} else {
			return result, err
		}
	}

	workers := s.Workers
	if workers <= 0 {
		workers = 1
	}
	outcomes := make([]scrapeOutcome, len(urls))
	pool := newWorkerPool(workers, workers*2)
	pool.start(ctx)
	for i, u := range urls {
		i, u := i, u
		if err := pool.submit(ctx, func(ctx context.Context) {
			res, err := s.Scraper.Scrape(ctx, u)
			outcomes[i] = scrapeOutcome{res: res, err: err}
		}); err != nil {
			break
		}
	}
	pool.close()
	if err := ctx.Err(); err != nil {
		return result, err
	}

	for i, u := range urls {
		o := outcomes[i]
		if o.err != nil {
			log.Warn("import failed, skipping url", "url", u, "error", o.err)
			continue
		}

		author := o.res.Author
		if author == "" {
			author = unknownAuthor
		}
		rec := db.Recipe{
			Title:        o.res.Title,
			Ingredients:  strings.Join(o.res.Ingredients, "\n"),
			Instructions: o.res.Instructions,
			Image:        o.res.Image,
			Author:       author,
			SourceURL:    u,
		}

		id, err := db.InsertRecipe(s.DB, &rec)
		if err == db.ErrDuplicateTitle {
			log.Info("skipping duplicate recipe", "title", o.res.Title, "url", u)
			result.Skipped++
			continue
		}
		if err != nil {
			return result, fmt.Errorf("store recipe from %s: %w", u, err)
		}
		result.Added++
		log.Info("imported recipe", "title", o.res.Title, "id", id)

		if haveList {
			if err := db.AddRecipeToList(s.DB, id, targetListID); err != nil {
				return result, err
			}
		}
	}
	return result, nil
}

// RateRecipe folds one rating into the recipe's running mean and returns the
// refreshed entity. Ratings are 1 through 5; individual ratings are never
// removable afterwards.
func (s *Service) RateRecipe(ctx context.Context, id int64, rating int) (db.Recipe, error) {
	if rating < 1 || rating > 5 {
		return db.Recipe{}, fmt.Errorf("rating must be between 1 and 5, got %d", rating)
	}
	return db.ApplyRating(s.DB, id, rating)
}

// SyncResult aggregates one sync pass.
type SyncResult struct {
	Synced int
	Failed int
}

// SyncUnsynced publishes every not-yet-synced recipe to the external
// workspace. A publish failure leaves the recipe unsynced — it is retried on
// the next call — and does not abort the rest of the batch. When nothing is
// unsynced no publisher call is made.
func (s *Service) SyncUnsynced(ctx context.Context) (SyncResult, error) {
	var result SyncResult
	log := s.logger()

	unsynced, err := db.UnsyncedRecipes(s.DB)
	if err != nil {
		return result, err
	}
	for _, r := range unsynced {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := s.Publisher.Publish(ctx, documentFor(r)); err != nil {
			log.Warn("sync failed, will retry on next run", "title", r.Title, "error", err)
			result.Failed++
			continue
		}
		if err := db.MarkRecipeSynced(s.DB, r.ID); err != nil {
			return result, fmt.Errorf("mark recipe %d synced: %w", r.ID, err)
		}
		result.Synced++
		log.Info("synced recipe", "title", r.Title)
	}
	return result, nil
}

// documentFor formats a recipe for the external document schema: a page
// titled by the recipe, optional image and source references, and one text
// section per field, verbatim.
func documentFor(r db.Recipe) notion.Document {
	return notion.Document{
		Title:     r.Title,
		ImageURL:  r.Image,
		SourceURL: r.SourceURL,
		Sections: []notion.Section{
			{Heading: "Ingredients", Body: r.Ingredients},
			{Heading: "Instructions", Body: r.Instructions},
		},
	}
}

// AddToList makes the recipe a member of the list. Both ids must resolve;
// adding an existing member is a no-op.
func (s *Service) AddToList(ctx context.Context, recipeID, listID int64) error {
	if _, err := db.GetRecipe(s.DB, recipeID); err != nil {
		return err
	}
	if _, err := db.GetList(s.DB, listID); err != nil {
		return err
	}
	return db.AddRecipeToList(s.DB, recipeID, listID)
}

// RemoveFromList drops the membership if present. Both ids must resolve;
// removing a non-member is a no-op.
func (s *Service) RemoveFromList(ctx context.Context, recipeID, listID int64) error {
	if _, err := db.GetRecipe(s.DB, recipeID); err != nil {
		return err
	}
	if _, err := db.GetList(s.DB, listID); err != nil {
		return err
	}
	return db.RemoveRecipeFromList(s.DB, recipeID, listID)
}

// RecipeEdit holds the editable fields of a recipe.
type RecipeEdit struct {
	Title        string
	Ingredients  string
	Instructions string
	Image        string
}

// EditRecipe overwrites the editable fields unconditionally and returns the
// refreshed entity. Rating and sync state are untouched.
func (s *Service) EditRecipe(ctx context.Context, id int64, edit RecipeEdit) (db.Recipe, error) {
	if err := db.UpdateRecipeFields(s.DB, id, edit.Title, edit.Ingredients, edit.Instructions, edit.Image); err != nil {
		return db.Recipe{}, err
	}
	return db.GetRecipe(s.DB, id)
}

// DeleteRecipe removes the recipe and every list membership referencing it.
func (s *Service) DeleteRecipe(ctx context.Context, id int64) error {
	return db.DeleteRecipe(s.DB, id)
}

// CreateList creates a named list.
func (s *Service) CreateList(ctx context.Context, name string) (db.RecipeList, error) {
	id, err := db.InsertList(s.DB, name)
	if err != nil {
		return db.RecipeList{}, err
	}
	return db.RecipeList{ID: id, Name: name}, nil
}

// DeleteList removes the list and its memberships; member recipes survive.
func (s *Service) DeleteList(ctx context.Context, id int64) error {
	return db.DeleteList(s.DB, id)
}

// SearchWithinList returns member recipes whose title or ingredients contain
// query, case-insensitively. Non-member matches are excluded.
func (s *Service) SearchWithinList(ctx context.Context, listID int64, query string) ([]db.Recipe, error) {
	if _, err := db.GetList(s.DB, listID); err != nil {
		return nil, err
	}
	return db.SearchRecipesInList(s.DB, listID, query)
}

// SearchRecipes searches the whole store.
func (s *Service) SearchRecipes(ctx context.Context, query string) ([]db.Recipe, error) {
	return db.SearchRecipes(s.DB, query)
}

// GetRecipe fetches one recipe by id.
func (s *Service) GetRecipe(ctx context.Context, id int64) (db.Recipe, error) {
	return db.GetRecipe(s.DB, id)
}

// Recipes returns all stored recipes.
func (s *Service) Recipes(ctx context.Context) ([]db.Recipe, error) {
	return db.ListRecipes(s.DB)
}

// Lists returns all recipe lists.
func (s *Service) Lists(ctx context.Context) ([]db.RecipeList, error) {
	return db.ListLists(s.DB)
}

// RecipesInList returns the members of one list.
func (s *Service) RecipesInList(ctx context.Context, listID int64) ([]db.Recipe, error) {
	if _, err := db.GetList(s.DB, listID); err != nil {
		return nil, err
	}
	return db.RecipesInList(s.DB, listID)
}

// ListsContaining returns the lists a recipe belongs to.
func (s *Service) ListsContaining(ctx context.Context, recipeID int64) ([]db.RecipeList, error) {
	if _, err := db.GetRecipe(s.DB, recipeID); err != nil {
		return nil, err
	}
	return db.ListsContaining(s.DB, recipeID)
}
