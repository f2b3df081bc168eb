package db

// migrationsSQL holds the schema. Statements are split on ';' and executed in
// order by InitDB, so none of them may contain a literal semicolon.
const migrationsSQL = `
CREATE TABLE IF NOT EXISTS recipes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL CHECK (length(trim(title)) > 0),
    ingredients TEXT NOT NULL DEFAULT '',
    instructions TEXT NOT NULL DEFAULT '',
    image TEXT,
    author TEXT,
    source_url TEXT,
    average_rating REAL NOT NULL DEFAULT 0,
    rating_count INTEGER NOT NULL DEFAULT 0 CHECK (rating_count >= 0),
    notion_synced INTEGER NOT NULL DEFAULT 0,
    added_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_recipes_title_key ON recipes (lower(trim(title)));

CREATE INDEX IF NOT EXISTS idx_recipes_unsynced ON recipes (notion_synced) WHERE notion_synced = 0;

CREATE TABLE IF NOT EXISTS recipe_lists (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL CHECK (length(trim(name)) > 0)
);

CREATE TABLE IF NOT EXISTS recipe_list_members (
    recipe_id INTEGER NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
    list_id INTEGER NOT NULL REFERENCES recipe_lists(id) ON DELETE CASCADE,
    PRIMARY KEY (recipe_id, list_id)
);

CREATE INDEX IF NOT EXISTS idx_members_list ON recipe_list_members (list_id);
`
