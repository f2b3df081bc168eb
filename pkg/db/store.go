package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// ErrNotFound is returned when a recipe or list id does not resolve.
var ErrNotFound = errors.New("not found")

// ErrDuplicateTitle is returned when an insert or edit collides with an
// existing recipe title (titles are deduped on lower(trim(title))).
var ErrDuplicateTitle = errors.New("duplicate recipe title")

// isUniqueConstraintErr returns true when the error indicates a unique/constraint violation
func isUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unique") || strings.Contains(s, "constraint failed")
}

// likePattern escapes LIKE metacharacters in q and wraps it in wildcards.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}

const recipeColumns = `id, title, ingredients, instructions, image, author, source_url, average_rating, rating_count, notion_synced, added_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecipe(row rowScanner) (Recipe, error) {
	var r Recipe
	var image, author, sourceURL sql.NullString
	err := row.Scan(&r.ID, &r.Title, &r.Ingredients, &r.Instructions,
		&image, &author, &sourceURL,
		&r.AverageRating, &r.RatingCount, &r.NotionSynced, &r.AddedAt)
	if err != nil {
		return Recipe{}, err
	}
	if image.Valid {
		r.Image = image.String
	}
	if author.Valid {
		r.Author = author.String
	}
	if sourceURL.Valid {
		r.SourceURL = sourceURL.String
	}
	return r, nil
}

func collectRecipes(rows *sql.Rows) ([]Recipe, error) {
	defer rows.Close()
	var out []Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// nullableString returns nil for "" so empty optional fields land as NULL.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// InsertRecipe stores a new recipe and returns its id.
// A title collision (case/whitespace-insensitive) yields ErrDuplicateTitle.
func InsertRecipe(db DBExecutor, r *Recipe) (int64, error) {
	if strings.TrimSpace(r.Title) == "" {
		return 0, fmt.Errorf("title must be non-empty")
	}
	res, err := db.Exec(
		`INSERT INTO recipes (title, ingredients, instructions, image, author, source_url, average_rating, rating_count, notion_synced)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Title, r.Ingredients, r.Instructions,
		nullableString(r.Image), nullableString(r.Author), nullableString(r.SourceURL),
		r.AverageRating, r.RatingCount, r.NotionSynced,
	)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return 0, ErrDuplicateTitle
		}
		return 0, fmt.Errorf("insert recipe: %w", err)
	}
	return res.LastInsertId()
}

// GetRecipe fetches one recipe by id.
func GetRecipe(db DBExecutor, id int64) (Recipe, error) {
	row := db.QueryRow(`SELECT `+recipeColumns+` FROM recipes WHERE id = ?`, id)
	r, err := scanRecipe(row)
	if err == sql.ErrNoRows {
		return Recipe{}, ErrNotFound
	}
	return r, err
}

// GetRecipeByTitle fetches a recipe by title, matching on the same
// normalized key the dedup index uses.
func GetRecipeByTitle(db DBExecutor, title string) (Recipe, error) {
	row := db.QueryRow(
		`SELECT `+recipeColumns+` FROM recipes WHERE lower(trim(title)) = lower(trim(?))`, title)
	r, err := scanRecipe(row)
	if err == sql.ErrNoRows {
		return Recipe{}, ErrNotFound
	}
	return r, err
}

// ListRecipes returns all recipes ordered by id.
func ListRecipes(db DBExecutor) ([]Recipe, error) {
	rows, err := db.Query(`SELECT ` + recipeColumns + ` FROM recipes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectRecipes(rows)
}

// SearchRecipes returns recipes whose title or ingredients contain query,
// case-insensitively.
func SearchRecipes(db DBExecutor, query string) ([]Recipe, error) {
	p := likePattern(query)
	rows, err := db.Query(
		`SELECT `+recipeColumns+` FROM recipes
		 WHERE title LIKE ? ESCAPE '\' OR ingredients LIKE ? ESCAPE '\'
		 ORDER BY id`, p, p)
	if err != nil {
		return nil, err
	}
	return collectRecipes(rows)
}

// UpdateRecipeFields overwrites title/ingredients/instructions/image.
// Rating and sync state are untouched.
func UpdateRecipeFields(db DBExecutor, id int64, title, ingredients, instructions, image string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title must be non-empty")
	}
	res, err := db.Exec(
		`UPDATE recipes SET title = ?, ingredients = ?, instructions = ?, image = ? WHERE id = ?`,
		title, ingredients, instructions, nullableString(image), id)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return ErrDuplicateTitle
		}
		return fmt.Errorf("update recipe %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyRating folds one rating into the running mean in a single statement
// and returns the refreshed recipe.
func ApplyRating(db DBExecutor, id int64, rating int) (Recipe, error) {
	res, err := db.Exec(
		`UPDATE recipes
		 SET average_rating = (average_rating * rating_count + ?) * 1.0 / (rating_count + 1),
		     rating_count = rating_count + 1
		 WHERE id = ?`, rating, id)
	if err != nil {
		return Recipe{}, fmt.Errorf("apply rating to recipe %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Recipe{}, err
	}
	if n == 0 {
		return Recipe{}, ErrNotFound
	}
	return GetRecipe(db, id)
}

// MarkRecipeSynced flips the sync flag after a successful publish.
func MarkRecipeSynced(db DBExecutor, id int64) error {
	res, err := db.Exec(`UPDATE recipes SET notion_synced = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UnsyncedRecipes returns every recipe not yet mirrored externally.
func UnsyncedRecipes(db DBExecutor) ([]Recipe, error) {
	rows, err := db.Query(`SELECT ` + recipeColumns + ` FROM recipes WHERE notion_synced = 0 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectRecipes(rows)
}

// DeleteRecipe removes all list memberships for the recipe, then the recipe
// itself. No dangling membership survives.
func DeleteRecipe(db DBExecutor, id int64) error {
	if _, err := db.Exec(`DELETE FROM recipe_list_members WHERE recipe_id = ?`, id); err != nil {
		return fmt.Errorf("delete memberships for recipe %d: %w", id, err)
	}
	res, err := db.Exec(`DELETE FROM recipes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recipe %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertList creates a named list and returns its id.
func InsertList(db DBExecutor, name string) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, fmt.Errorf("list name must be non-empty")
	}
	res, err := db.Exec(`INSERT INTO recipe_lists (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("insert list: %w", err)
	}
	return res.LastInsertId()
}

// GetList fetches one list by id.
func GetList(db DBExecutor, id int64) (RecipeList, error) {
	var l RecipeList
	err := db.QueryRow(`SELECT id, name FROM recipe_lists WHERE id = ?`, id).Scan(&l.ID, &l.Name)
	if err == sql.ErrNoRows {
		return RecipeList{}, ErrNotFound
	}
	return l, err
}

// ListLists returns all recipe lists ordered by id.
func ListLists(db DBExecutor) ([]RecipeList, error) {
	rows, err := db.Query(`SELECT id, name FROM recipe_lists ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RecipeList
	for rows.Next() {
		var l RecipeList
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// DeleteList removes the list and all its memberships. Recipes are untouched.
func DeleteList(db DBExecutor, id int64) error {
	if _, err := db.Exec(`DELETE FROM recipe_list_members WHERE list_id = ?`, id); err != nil {
		return fmt.Errorf("delete memberships for list %d: %w", id, err)
	}
	res, err := db.Exec(`DELETE FROM recipe_lists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete list %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddRecipeToList inserts a membership pair. Adding an existing member is a
// no-op; the pair primary key keeps memberships unique.
func AddRecipeToList(db DBExecutor, recipeID, listID int64) error {
	_, err := db.Exec(
		`INSERT OR IGNORE INTO recipe_list_members (recipe_id, list_id) VALUES (?, ?)`,
		recipeID, listID)
	if err != nil {
		return fmt.Errorf("add recipe %d to list %d: %w", recipeID, listID, err)
	}
	return nil
}

// RemoveRecipeFromList deletes a membership pair if present.
func RemoveRecipeFromList(db DBExecutor, recipeID, listID int64) error {
	_, err := db.Exec(
		`DELETE FROM recipe_list_members WHERE recipe_id = ? AND list_id = ?`,
		recipeID, listID)
	if err != nil {
		return fmt.Errorf("remove recipe %d from list %d: %w", recipeID, listID, err)
	}
	return nil
}

// RecipesInList returns the member recipes of a list ordered by id.
func RecipesInList(db DBExecutor, listID int64) ([]Recipe, error) {
	rows, err := db.Query(
		`SELECT r.id, r.title, r.ingredients, r.instructions, r.image, r.author, r.source_url, r.average_rating, r.rating_count, r.notion_synced, r.added_at
		 FROM recipes r
		 JOIN recipe_list_members m ON m.recipe_id = r.id
		 WHERE m.list_id = ?
		 ORDER BY r.id`, listID)
	if err != nil {
		return nil, err
	}
	return collectRecipes(rows)
}

// SearchRecipesInList is SearchRecipes scoped to one list's membership.
func SearchRecipesInList(db DBExecutor, listID int64, query string) ([]Recipe, error) {
	p := likePattern(query)
	rows, err := db.Query(
		`SELECT r.id, r.title, r.ingredients, r.instructions, r.image, r.author, r.source_url, r.average_rating, r.rating_count, r.notion_synced, r.added_at
		 FROM recipes r
		 JOIN recipe_list_members m ON m.recipe_id = r.id
		 WHERE m.list_id = ? AND (r.title LIKE ? ESCAPE '\' OR r.ingredients LIKE ? ESCAPE '\')
		 ORDER BY r.id`, listID, p, p)
	if err != nil {
		return nil, err
	}
	return collectRecipes(rows)
}

// ListsContaining returns every list the recipe belongs to. This is the
// explicit association query; there is no back-pointer on Recipe.
func ListsContaining(db DBExecutor, recipeID int64) ([]RecipeList, error) {
	rows, err := db.Query(
		`SELECT l.id, l.name
		 FROM recipe_lists l
		 JOIN recipe_list_members m ON m.list_id = l.id
		 WHERE m.recipe_id = ?
		 ORDER BY l.id`, recipeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RecipeList
	for rows.Next() {
		var l RecipeList
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
