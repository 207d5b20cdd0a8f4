package catalog

import "strings"

// Family groups free-form categories into the closed set the engine
// understands. Routing and the signature schema are keyed by family.
type Family string

const (
	FamilyTradingCard Family = "trading-card"
	FamilyVideoGame   Family = "video-game"
	FamilyMusic       Family = "music"
	FamilySneakers    Family = "sneakers"
	FamilyLego        Family = "lego"
	FamilyGeneric     Family = "generic"
)

// categoryAliases folds spellings the front end has historically sent.
var categoryAliases = map[string]string{
	"vynil":         "vinyl",
	"snickers":      "sneakers",
	"shoes":         "sneakers",
	"videogame":     "videogames",
	"video games":   "videogames",
	"tradingcard":   "trading card",
	"tradingcards":  "trading card",
	"trading cards": "trading card",
}

var categoryFamilies = map[string]Family{
	"trading card":  FamilyTradingCard,
	"videogames":    FamilyVideoGame,
	"console":       FamilyVideoGame,
	"cd":            FamilyMusic,
	"vinyl":         FamilyMusic,
	"music":         FamilyMusic,
	"sneakers":      FamilySneakers,
	"lego":          FamilyLego,
	"action figure": FamilyGeneric,
	"other":         FamilyGeneric,
}

// NormalizeCategory lowercases, trims, collapses inner whitespace and folds
// known aliases. Unknown categories pass through lowercased.
func NormalizeCategory(category string) string {
	c := strings.Join(strings.Fields(strings.ToLower(category)), " ")
	if alias, ok := categoryAliases[c]; ok {
		return alias
	}
	return c
}

// FamilyOf maps a category to its family; unknown categories are generic.
func FamilyOf(category string) Family {
	if f, ok := categoryFamilies[NormalizeCategory(category)]; ok {
		return f
	}
	return FamilyGeneric
}
