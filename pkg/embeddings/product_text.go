package embeddings

import (
	"strings"
)

type termGroup struct {
	keys  []string
	terms []string
}

// brandTerms expand a detected brand into its product-line vocabulary.
var brandTerms = []termGroup{
	{keys: []string{"apple"}, terms: []string{"apple", "iphone", "ipad", "macbook", "mac", "ios"}},
	{keys: []string{"samsung"}, terms: []string{"samsung", "galaxy", "note"}},
	{keys: []string{"nike"}, terms: []string{"nike", "air", "jordan", "swoosh"}},
	{keys: []string{"sony"}, terms: []string{"sony", "playstation", "bravia"}},
	{keys: []string{"google"}, terms: []string{"google", "pixel", "android"}},
	{keys: []string{"microsoft"}, terms: []string{"microsoft", "xbox", "surface", "windows"}},
	{keys: []string{"tesla"}, terms: []string{"tesla", "model", "electric"}},
	{keys: []string{"gucci"}, terms: []string{"gucci", "luxury", "designer"}},
	{keys: []string{"dyson"}, terms: []string{"dyson", "vacuum", "cyclone"}},
	{keys: []string{"herman"}, terms: []string{"herman", "miller", "aeron"}},
	{keys: []string{"kitchenaid"}, terms: []string{"kitchenaid", "mixer", "kitchen"}},
	{keys: []string{"vitamix"}, terms: []string{"vitamix", "blender", "smoothie"}},
	{keys: []string{"breville"}, terms: []string{"breville", "espresso", "coffee"}},
	{keys: []string{"levis"}, terms: []string{"levis", "levi", "denim", "jeans"}},
	{keys: []string{"patagonia"}, terms: []string{"patagonia", "outdoor", "jacket"}},
}

// categoryTerms are matched against the category string.
var categoryTerms = []termGroup{
	{keys: []string{"electronics"}, terms: []string{
		"electronics", "electronic", "gadget", "device", "tech", "technology", "smart", "digital", "wireless",
	}},
	{keys: []string{"computers"}, terms: []string{
		"computer", "computers", "pc", "laptop", "notebook", "desktop", "tech", "technology", "portable", "work", "business",
	}},
	{keys: []string{"fashion"}, terms: []string{
		"fashion", "clothing", "clothes", "apparel", "wear", "style", "designer", "trendy", "outfit",
	}},
	{keys: []string{"home & garden"}, terms: []string{
		"home", "house", "garden", "furniture", "kitchen", "appliance", "household", "domestic",
	}},
	{keys: []string{"books"}, terms: []string{"book", "books", "read", "reading", "literature", "novel", "text"}},
	{keys: []string{"gaming"}, terms: []string{"gaming", "game", "games", "play", "console", "video", "entertainment"}},
}

// productTerms are matched against name and description.
var productTerms = []termGroup{
	{
		keys:  []string{"phone", "iphone", "smartphone"},
		terms: []string{"phone", "mobile", "smartphone", "cell", "cellular", "communication", "call", "device"},
	},
	{
		keys:  []string{"laptop", "macbook", "notebook"},
		terms: []string{"laptop", "computer", "notebook", "portable", "work", "productivity", "business"},
	},
	{
		keys:  []string{"shoe", "shoes", "sneaker", "boot"},
		terms: []string{"shoes", "footwear", "sneakers", "running", "walking", "sport", "athletic"},
	},
	{
		keys:  []string{"chair", "seat", "stool"},
		terms: []string{"chair", "seat", "seating", "furniture", "office", "desk", "ergonomic", "comfort"},
	},
	{
		keys:  []string{"headphone", "earphone", "earbud"},
		terms: []string{"headphones", "audio", "music", "sound", "wireless", "bluetooth", "listening"},
	},
	{
		keys:  []string{"tv", "television", "monitor"},
		terms: []string{"tv", "television", "screen", "display", "entertainment", "viewing", "smart"},
	},
	{
		keys:  []string{"coffee", "espresso", "brew"},
		terms: []string{"coffee", "espresso", "brew", "brewing", "cafe", "barista", "drink"},
	},
	{keys: []string{"vacuum", "cleaner"}, terms: []string{"vacuum", "cleaning", "cleaner", "suction", "floor", "carpet"}},
	{keys: []string{"mixer", "blend"}, terms: []string{"mixer", "mixing", "kitchen", "cooking", "baking", "food"}},
	{keys: []string{"jacket", "coat"}, terms: []string{"jacket", "coat", "outerwear", "clothing", "warm", "weather"}},
}

// orderedSet keeps the first-insertion order of unique strings.
type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) add(values ...string) {
	for _, v := range values {
		if _, ok := s.seen[v]; ok {
			continue
		}

		s.seen[v] = struct{}{}
		s.items = append(s.items, v)
	}
}

func containsAny(haystacks []string, needles []string) bool {
	for _, n := range needles {
		for _, h := range haystacks {
			if strings.Contains(h, n) {
				return true
			}
		}
	}

	return false
}

// SearchTerms expands a product's name, category and description into
// synonyms, brand vocabulary and name-word prefixes, joined by spaces.
func SearchTerms(name, category, description string) string {
	nameLower := strings.ToLower(name)
	categoryLower := strings.ToLower(category)
	descLower := strings.ToLower(description)

	terms := newOrderedSet()
	terms.add(nameLower, categoryLower)

	for _, g := range brandTerms {
		if containsAny([]string{nameLower, descLower}, g.keys) {
			terms.add(g.terms...)
		}
	}

	for _, g := range categoryTerms {
		if containsAny([]string{categoryLower}, g.keys) {
			terms.add(g.terms...)
		}
	}

	for _, g := range productTerms {
		if containsAny([]string{nameLower, descLower}, g.keys) {
			terms.add(g.terms...)
		}
	}

	for _, word := range strings.Fields(nameLower) {
		if utf16Len(word) > prefixLen {
			terms.add(prefix(word, prefixLen), prefix(word, prefixLen+1))
		}
	}

	return strings.Join(terms.items, " ")
}

// ProductText is the text embedded for a catalog item: name, description,
// category, tags and the expanded search terms, skipping empty parts.
func ProductText(name, description, category string, tags []string) string {
	parts := make([]string, 0, len(tags)+4)
	parts = append(parts, name, description, category)
	parts = append(parts, tags...)
	parts = append(parts, SearchTerms(name, category, description))

	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}

	return strings.Join(out, " ")
}

// EmbedProduct is Embed(ProductText(...)).
func EmbedProduct(name, description, category string, tags []string) []float32 {
	return Embed(ProductText(name, description, category, tags))
}
