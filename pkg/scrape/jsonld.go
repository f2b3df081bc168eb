package scrape

import (
	"bytes"
	"encoding/json"
	"html"
	"strings"

	xhtml "golang.org/x/net/html"
)

// extractJSONLD scans <script type="application/ld+json"> blocks for a
// schema.org Recipe node. Returns nil when the page carries none.
func extractJSONLD(body []byte) *Result {
	for _, block := range jsonLDBlocks(body) {
		var v interface{}
		if err := json.Unmarshal([]byte(block), &v); err != nil {
			continue
		}
		for _, node := range candidateNodes(v) {
			if !isRecipeType(node["@type"]) {
				continue
			}
			if res := parseRecipeNode(node); res != nil {
				return res
			}
		}
	}
	return nil
}

func jsonLDBlocks(body []byte) []string {
	doc, err := xhtml.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}
	var blocks []string
	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.ElementNode && n.Data == "script" {
			for _, a := range n.Attr {
				if a.Key == "type" && strings.EqualFold(strings.TrimSpace(a.Val), "application/ld+json") {
					var sb strings.Builder
					for c := n.FirstChild; c != nil; c = c.NextSibling {
						sb.WriteString(c.Data)
					}
					blocks = append(blocks, sb.String())
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return blocks
}

// candidateNodes flattens the JSON-LD document into object nodes, descending
// into top-level arrays and @graph containers.
func candidateNodes(v interface{}) []map[string]interface{} {
	var out []map[string]interface{}
	switch t := v.(type) {
	case map[string]interface{}:
		out = append(out, t)
		if graph, ok := t["@graph"]; ok {
			out = append(out, candidateNodes(graph)...)
		}
	case []interface{}:
		for _, e := range t {
			out = append(out, candidateNodes(e)...)
		}
	}
	return out
}

// isRecipeType handles @type as both "Recipe" and ["Recipe", "NewsArticle"].
func isRecipeType(v interface{}) bool {
	switch t := v.(type) {
	case string:
		return t == "Recipe"
	case []interface{}:
		for _, e := range t {
			if s, ok := e.(string); ok && s == "Recipe" {
				return true
			}
		}
	}
	return false
}

func parseRecipeNode(node map[string]interface{}) *Result {
	title := cleanText(asString(node["name"]))
	if title == "" {
		return nil
	}

	ingredients := stringList(node["recipeIngredient"])
	if len(ingredients) == 0 {
		// Older pages use the pre-schema.org-2.0 property name.
		ingredients = stringList(node["ingredients"])
	}

	return &Result{
		Title:        title,
		Ingredients:  ingredients,
		Instructions: parseInstructions(node["recipeInstructions"]),
		Image:        parseImage(node["image"]),
		Author:       parseAuthor(node["author"]),
	}
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func stringList(v interface{}) []string {
	var out []string
	switch t := v.(type) {
	case string:
		if s := cleanText(t); s != "" {
			out = append(out, s)
		}
	case []interface{}:
		for _, e := range t {
			if s := cleanText(asString(e)); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// parseInstructions flattens recipeInstructions, which appears in the wild as
// a plain string, a list of strings, a list of HowToStep objects, or HowToSection
// groups nesting HowToSteps.
func parseInstructions(v interface{}) string {
	var lines []string
	var collect func(interface{})
	collect = func(v interface{}) {
		switch t := v.(type) {
		case string:
			// Keep the author's line structure in plain-text instructions.
			for _, line := range strings.Split(t, "\n") {
				if s := cleanText(line); s != "" {
					lines = append(lines, s)
				}
			}
		case []interface{}:
			for _, e := range t {
				collect(e)
			}
		case map[string]interface{}:
			if items, ok := t["itemListElement"]; ok {
				if name := cleanText(asString(t["name"])); name != "" {
					lines = append(lines, name)
				}
				collect(items)
				return
			}
			if s := cleanText(asString(t["text"])); s != "" {
				lines = append(lines, s)
			} else if s := cleanText(asString(t["name"])); s != "" {
				lines = append(lines, s)
			}
		}
	}
	collect(v)
	return strings.Join(lines, "\n")
}

// parseImage accepts a URL string, an ImageObject, or an array of either.
func parseImage(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]interface{}:
		return strings.TrimSpace(asString(t["url"]))
	case []interface{}:
		for _, e := range t {
			if s := parseImage(e); s != "" {
				return s
			}
		}
	}
	return ""
}

// parseAuthor accepts a name string, a Person/Organization object, or an
// array of either.
func parseAuthor(v interface{}) string {
	switch t := v.(type) {
	case string:
		return cleanText(t)
	case map[string]interface{}:
		return cleanText(asString(t["name"]))
	case []interface{}:
		for _, e := range t {
			if s := parseAuthor(e); s != "" {
				return s
			}
		}
	}
	return ""
}

// cleanText unescapes HTML entities and normalizes whitespace within a field.
func cleanText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}
