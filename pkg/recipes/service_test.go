package recipes

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/psdwizzard/recipekeeper/pkg/db"
	"github.com/psdwizzard/recipekeeper/pkg/notion"
	"github.com/psdwizzard/recipekeeper/pkg/scrape"

	_ "github.com/mattn/go-sqlite3"
)

type fakeScraper struct {
	mu      sync.Mutex
	results map[string]*scrape.Result
	calls   []string
}

func (f *fakeScraper) Scrape(ctx context.Context, url string) (*scrape.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()
	res, ok := f.results[url]
	if !ok {
		return nil, &scrape.ScrapeError{URL: url, Err: errors.New("unsupported site")}
	}
	// Copy so callers cannot mutate the fixture.
	cp := *res
	return &cp, nil
}

type fakePublisher struct {
	mu         sync.Mutex
	docs       []notion.Document
	failTitles map[string]bool
}

func (f *fakePublisher) Publish(ctx context.Context, doc notion.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTitles[doc.Title] {
		return &notion.SyncError{Title: doc.Title, StatusCode: 502, Message: "bad gateway"}
	}
	f.docs = append(f.docs, doc)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeScraper, *fakePublisher) {
	t.Helper()
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	conn.SetMaxOpenConns(1)
	if err := db.InitDB(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	sc := &fakeScraper{results: map[string]*scrape.Result{}}
	pub := &fakePublisher{failTitles: map[string]bool{}}
	svc := NewService(conn, sc, pub)
	return svc, sc, pub
}

func TestImportSingleURL(t *testing.T) {
	svc, sc, _ := newTestService(t)
	sc.results["url-A"] = &scrape.Result{
		Title:        "Pancakes",
		Ingredients:  []string{"flour", "egg"},
		Instructions: "mix and cook",
	}

	res, err := svc.ImportRecipes(context.Background(), []string{"url-A"}, 0)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Added != 1 || res.Skipped != 0 {
		t.Fatalf("expected added=1 skipped=0, got %+v", res)
	}

	r, err := db.GetRecipeByTitle(svc.DB, "Pancakes")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if r.Ingredients != "flour\negg" {
		t.Errorf("ingredients: got %q", r.Ingredients)
	}
	if r.Author != "Unknown" {
		t.Errorf("author fallback: got %q", r.Author)
	}
	if r.SourceURL != "url-A" {
		t.Errorf("source url: got %q", r.SourceURL)
	}
	if r.NotionSynced {
		t.Error("new recipe must start unsynced")
	}
}

func TestImportDedupSecondAttempt(t *testing.T) {
	svc, sc, _ := newTestService(t)
	sc.results["url-A"] = &scrape.Result{Title: "Pancakes", Ingredients: []string{"flour"}}

	first, err := svc.ImportRecipes(context.Background(), []string{"url-A"}, 0)
	if err != nil {
		t.Fatalf("first import: %v", err)
	}
	second, err := svc.ImportRecipes(context.Background(), []string{"url-A"}, 0)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if first.Added != 1 || second.Added != 0 || second.Skipped != 1 {
		t.Fatalf("expected 1 add then 1 skip, got %+v / %+v", first, second)
	}

	all, err := db.ListRecipes(svc.DB)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected exactly one stored recipe, got %d", len(all))
	}
}

func TestImportPartialFailure(t *testing.T) {
	svc, sc, _ := newTestService(t)
	sc.results["good-1"] = &scrape.Result{Title: "Soup"}
	sc.results["good-2"] = &scrape.Result{Title: "Salad"}
	// "bad" has no fixture and fails with a ScrapeError.

	res, err := svc.ImportRecipes(context.Background(), []string{"good-1", "bad", "good-2"}, 0)
	if err != nil {
		t.Fatalf("batch must not abort on a per-URL failure: %v", err)
	}
	if res.Added != 2 || res.Skipped != 0 {
		t.Fatalf("expected added=2 skipped=0, got %+v", res)
	}
}

func TestImportDedupWithinBatch(t *testing.T) {
	svc, sc, _ := newTestService(t)
	sc.results["url-A"] = &scrape.Result{Title: "Pancakes"}
	sc.results["url-B"] = &scrape.Result{Title: "pancakes"} // collides after normalization

	res, err := svc.ImportRecipes(context.Background(), []string{"url-A", "url-B"}, 0)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Added != 1 || res.Skipped != 1 {
		t.Fatalf("expected added=1 skipped=1, got %+v", res)
	}
	// First occurrence wins.
	r, err := db.GetRecipeByTitle(svc.DB, "Pancakes")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if r.SourceURL != "url-A" {
		t.Errorf("expected first URL to win, got source %q", r.SourceURL)
	}
}

func TestImportIntoList(t *testing.T) {
	svc, sc, _ := newTestService(t)
	sc.results["url-A"] = &scrape.Result{Title: "Pancakes"}
	sc.results["url-B"] = &scrape.Result{Title: "Waffles"}

	list, err := svc.CreateList(context.Background(), "Breakfast")
	if err != nil {
		t.Fatalf("create list: %v", err)
	}

	if _, err := svc.ImportRecipes(context.Background(), []string{"url-A", "url-B"}, list.ID); err != nil {
		t.Fatalf("import: %v", err)
	}
	members, err := svc.RecipesInList(context.Background(), list.ID)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected both new recipes in list, got %d", len(members))
	}
}

func TestImportIntoMissingListStillImports(t *testing.T) {
	svc, sc, _ := newTestService(t)
	sc.results["url-A"] = &scrape.Result{Title: "Pancakes"}

	res, err := svc.ImportRecipes(context.Background(), []string{"url-A"}, 999)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Added != 1 {
		t.Fatalf("expected added=1, got %+v", res)
	}
}

func TestImportCanceledContext(t *testing.T) {
	svc, sc, _ := newTestService(t)
	sc.results["url-A"] = &scrape.Result{Title: "Pancakes"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.ImportRecipes(ctx, []string{"url-A"}, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRateRecipeSequenceIsArithmeticMean(t *testing.T) {
	svc, _, _ := newTestService(t)
	id, err := db.InsertRecipe(svc.DB, &db.Recipe{Title: "Curry"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	ratings := []int{4, 2, 5, 5, 1, 3}
	var r db.Recipe
	for _, v := range ratings {
		r, err = svc.RateRecipe(context.Background(), id, v)
		if err != nil {
			t.Fatalf("rate %d: %v", v, err)
		}
	}
	if r.RatingCount != len(ratings) {
		t.Fatalf("expected count %d, got %d", len(ratings), r.RatingCount)
	}
	want := float64(4+2+5+5+1+3) / float64(len(ratings))
	if diff := r.AverageRating - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected mean %v, got %v", want, r.AverageRating)
	}
}

func TestRateRecipeNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.RateRecipe(context.Background(), 42, 3); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRateRecipeOutOfRange(t *testing.T) {
	svc, _, _ := newTestService(t)
	id, _ := db.InsertRecipe(svc.DB, &db.Recipe{Title: "Curry"})

	for _, v := range []int{0, 6, -1} {
		if _, err := svc.RateRecipe(context.Background(), id, v); err == nil {
			t.Fatalf("expected error for rating %d", v)
		}
	}
	r, err := db.GetRecipe(svc.DB, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if r.RatingCount != 0 || r.AverageRating != 0 {
		t.Fatalf("rejected ratings must not mutate, got %+v", r)
	}
}

func TestSyncUnsyncedPublishesAndMarks(t *testing.T) {
	svc, _, pub := newTestService(t)
	id, _ := db.InsertRecipe(svc.DB, &db.Recipe{
		Title:        "Pancakes",
		Ingredients:  "flour\negg",
		Instructions: "mix and cook",
		Image:        "https://img.example/p.jpg",
		SourceURL:    "https://example.com/p",
	})

	res, err := svc.SyncUnsynced(context.Background())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.Synced != 1 || res.Failed != 0 {
		t.Fatalf("expected synced=1, got %+v", res)
	}

	if len(pub.docs) != 1 {
		t.Fatalf("expected 1 published doc, got %d", len(pub.docs))
	}
	doc := pub.docs[0]
	if doc.Title != "Pancakes" || doc.ImageURL == "" || doc.SourceURL == "" {
		t.Errorf("document references: %+v", doc)
	}
	if len(doc.Sections) != 2 ||
		doc.Sections[0].Heading != "Ingredients" || doc.Sections[0].Body != "flour\negg" ||
		doc.Sections[1].Heading != "Instructions" || doc.Sections[1].Body != "mix and cook" {
		t.Errorf("document sections: %+v", doc.Sections)
	}

	r, _ := db.GetRecipe(svc.DB, id)
	if !r.NotionSynced {
		t.Error("recipe should be marked synced")
	}
}

func TestSyncIdempotentWhenNothingUnsynced(t *testing.T) {
	svc, _, pub := newTestService(t)
	id, _ := db.InsertRecipe(svc.DB, &db.Recipe{Title: "Pancakes"})
	if err := db.MarkRecipeSynced(svc.DB, id); err != nil {
		t.Fatalf("mark: %v", err)
	}

	res, err := svc.SyncUnsynced(context.Background())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.Synced != 0 || res.Failed != 0 {
		t.Fatalf("expected nothing to do, got %+v", res)
	}
	if len(pub.docs) != 0 {
		t.Fatalf("expected zero adapter calls, got %d", len(pub.docs))
	}
}

func TestSyncFailureLeavesUnsyncedAndContinues(t *testing.T) {
	svc, _, pub := newTestService(t)
	bad, _ := db.InsertRecipe(svc.DB, &db.Recipe{Title: "Broken"})
	good, _ := db.InsertRecipe(svc.DB, &db.Recipe{Title: "Fine"})
	pub.failTitles["Broken"] = true

	res, err := svc.SyncUnsynced(context.Background())
	if err != nil {
		t.Fatalf("sync must not abort on per-recipe failure: %v", err)
	}
	if res.Synced != 1 || res.Failed != 1 {
		t.Fatalf("expected synced=1 failed=1, got %+v", res)
	}

	b, _ := db.GetRecipe(svc.DB, bad)
	if b.NotionSynced {
		t.Error("failed recipe must stay unsynced")
	}
	g, _ := db.GetRecipe(svc.DB, good)
	if !g.NotionSynced {
		t.Error("successful recipe must be marked synced")
	}

	// The failed recipe is retried on the next pass.
	pub.failTitles = map[string]bool{}
	res, err = svc.SyncUnsynced(context.Background())
	if err != nil {
		t.Fatalf("retry sync: %v", err)
	}
	if res.Synced != 1 {
		t.Fatalf("expected retry to sync the failed recipe, got %+v", res)
	}
}

func TestMembershipOpsRequireResolvableIDs(t *testing.T) {
	svc, _, _ := newTestService(t)
	rid, _ := db.InsertRecipe(svc.DB, &db.Recipe{Title: "Pancakes"})
	list, _ := svc.CreateList(context.Background(), "Breakfast")

	if err := svc.AddToList(context.Background(), 999, list.ID); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("add with bad recipe id: got %v", err)
	}
	if err := svc.AddToList(context.Background(), rid, 999); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("add with bad list id: got %v", err)
	}
	if err := svc.RemoveFromList(context.Background(), 999, list.ID); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("remove with bad recipe id: got %v", err)
	}

	if err := svc.AddToList(context.Background(), rid, list.ID); err != nil {
		t.Fatalf("add: %v", err)
	}
	// Adding twice stays a no-op.
	if err := svc.AddToList(context.Background(), rid, list.ID); err != nil {
		t.Fatalf("duplicate add: %v", err)
	}
	lists, err := svc.ListsContaining(context.Background(), rid)
	if err != nil {
		t.Fatalf("lists containing: %v", err)
	}
	if len(lists) != 1 {
		t.Fatalf("expected 1 list, got %d", len(lists))
	}
}

func TestEditRecipeDoesNotTouchRatingOrSync(t *testing.T) {
	svc, _, _ := newTestService(t)
	id, _ := db.InsertRecipe(svc.DB, &db.Recipe{Title: "Toast", Ingredients: "bread"})
	if _, err := svc.RateRecipe(context.Background(), id, 5); err != nil {
		t.Fatalf("rate: %v", err)
	}
	if err := db.MarkRecipeSynced(svc.DB, id); err != nil {
		t.Fatalf("mark: %v", err)
	}

	r, err := svc.EditRecipe(context.Background(), id, RecipeEdit{
		Title:        "French Toast",
		Ingredients:  "bread\negg",
		Instructions: "soak then fry",
		Image:        "https://img.example/ft.jpg",
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if r.Title != "French Toast" || r.Ingredients != "bread\negg" {
		t.Errorf("fields not applied: %+v", r)
	}
	if r.AverageRating != 5 || r.RatingCount != 1 || !r.NotionSynced {
		t.Errorf("rating/sync disturbed: %+v", r)
	}
}

func TestEditRecipeNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.EditRecipe(context.Background(), 7, RecipeEdit{Title: "x"}); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRecipeCascades(t *testing.T) {
	svc, _, _ := newTestService(t)
	rid, _ := db.InsertRecipe(svc.DB, &db.Recipe{Title: "Pancakes"})
	l1, _ := svc.CreateList(context.Background(), "Breakfast")
	l2, _ := svc.CreateList(context.Background(), "Favorites")
	svc.AddToList(context.Background(), rid, l1.ID)
	svc.AddToList(context.Background(), rid, l2.ID)

	if err := svc.DeleteRecipe(context.Background(), rid); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetRecipe(context.Background(), rid); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	for _, l := range []db.RecipeList{l1, l2} {
		members, err := svc.RecipesInList(context.Background(), l.ID)
		if err != nil {
			t.Fatalf("list %q should survive: %v", l.Name, err)
		}
		if len(members) != 0 {
			t.Fatalf("list %q should be empty, got %d members", l.Name, len(members))
		}
	}
}

func TestSearchWithinListScopedAndCaseInsensitive(t *testing.T) {
	svc, _, _ := newTestService(t)
	member, _ := db.InsertRecipe(svc.DB, &db.Recipe{Title: "Egg Fried Rice", Ingredients: "rice\negg"})
	db.InsertRecipe(svc.DB, &db.Recipe{Title: "Omelette", Ingredients: "egg"}) // matches but not a member
	filler, _ := db.InsertRecipe(svc.DB, &db.Recipe{Title: "Tomato Soup", Ingredients: "tomato"})
	list, _ := svc.CreateList(context.Background(), "Dinner")
	svc.AddToList(context.Background(), member, list.ID)
	svc.AddToList(context.Background(), filler, list.ID)

	got, err := svc.SearchWithinList(context.Background(), list.ID, "EGG")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].ID != member {
		t.Fatalf("expected only the member match, got %+v", got)
	}

	if _, err := svc.SearchWithinList(context.Background(), 999, "egg"); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown list, got %v", err)
	}
}
