package catalog

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIdentifiers_Aliases(t *testing.T) {
	ids := NormalizeIdentifiers("vinyl", map[string]any{
		"serial_number":      "  SN-1 ",
		"barcode":            "0602537351169",
		"discogs_master_id":  float64(12345),
		"stockx_urlKey":      "air-jordan-1",
		"set_number":         "",
		"unrelated":          "ignored",
		"discogs_release_id": "   ",
	})

	assert.Equal(t, "SN-1", ids.Serial)
	assert.Equal(t, "0602537351169", ids.EANOrUPC)
	assert.Equal(t, "12345", ids.CatalogProviderID)
	assert.Equal(t, "air-jordan-1", ids.ResalePlatformSlug)
	assert.Empty(t, ids.LegoSetNumber)
	assert.Equal(t, map[string]string{
		"serial":      "SN-1",
		"ean":         "0602537351169",
		"discogs_id":  "12345",
		"stockx_slug": "air-jordan-1",
	}, ids.Map())
}

func TestNormalizeIdentifiers_FirstAliasWins(t *testing.T) {
	ids := NormalizeIdentifiers("other", map[string]any{"ean": "111", "upc": "222"})
	assert.Equal(t, "111", ids.EANOrUPC)

	ids = NormalizeIdentifiers("other", map[string]any{"ean": " ", "upc": "222"})
	assert.Equal(t, "222", ids.EANOrUPC)
}

func TestNormalizeIdentifiers_EmptyInput(t *testing.T) {
	assert.True(t, NormalizeIdentifiers("", nil).IsEmpty())
	assert.True(t, NormalizeIdentifiers("lego", map[string]any{"set_number": nil}).IsEmpty())
}

func TestResolveKey_Priority(t *testing.T) {
	cases := []struct {
		name   string
		params map[string]any
		want   string
	}{
		{"tcg over ean", map[string]any{"ean": "400", "tcgplayer_id": "12345"}, "tcg:12345"},
		{"lego over discogs", map[string]any{"discogs_release_id": "9", "set_number": "75192"}, "lego:75192"},
		{"discogs over stockx", map[string]any{"stockx_slug": "dunk", "discogs_release_id": "9"}, "discogs:9"},
		{"stockx over pricecharting", map[string]any{"pricecharting_id": "77", "stockx_slug": "dunk"}, "stockx:dunk"},
		{"pricecharting over ean", map[string]any{"ean": "400", "pricecharting_id": "77"}, "pc:77"},
		{"ean over serial", map[string]any{"serial": "S1", "upc": "400"}, "ean:400"},
		{"serial alone", map[string]any{"serial": "S1"}, "serial:S1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ids := NormalizeIdentifiers("trading card", tc.params)
			assert.Equal(t, tc.want, ResolveKey("trading card", ids, tc.params))
		})
	}
}

func TestResolveKey_SignatureDeterministic(t *testing.T) {
	a := map[string]any{}
	a["artist"] = "Daft Punk"
	a["album"] = "Discovery"
	a["year"] = 2001

	b := map[string]any{}
	b["year"] = "2001"
	b["album"] = "  discovery "
	b["artist"] = "DAFT PUNK"

	keyA := ResolveKey("vinyl", NormalizeIdentifiers("vinyl", a), a)
	keyB := ResolveKey("Vinyl", NormalizeIdentifiers("Vinyl", b), b)

	require.True(t, strings.HasPrefix(keyA, "sig:"))
	assert.Len(t, strings.TrimPrefix(keyA, "sig:"), 16)
	assert.Equal(t, keyA, keyB)

	for i := 0; i < 20; i++ {
		assert.Equal(t, keyA, ResolveKey("vinyl", Identifiers{}, a))
	}
}

func TestResolveKey_CategoryIsolation(t *testing.T) {
	params := map[string]any{"brand": "Hasbro", "model": "Optimus"}
	k1 := ResolveKey("action figure", Identifiers{}, params)
	k2 := ResolveKey("other", Identifiers{}, params)
	assert.NotEqual(t, k1, k2)

	assert.NotEqual(t, ResolveKey("cd", Identifiers{}, nil), ResolveKey("vinyl", Identifiers{}, nil))
}

func TestResolveKey_AliasCategoriesShareSignature(t *testing.T) {
	params := map[string]any{"artist": "Air", "album": "Moon Safari"}
	assert.Equal(t, ResolveKey("vinyl", Identifiers{}, params), ResolveKey("vynil", Identifiers{}, params))
}

func TestResolveKey_SignatureIgnoresFieldsOutsideSchema(t *testing.T) {
	base := map[string]any{"platform": "SNES", "region": "PAL"}
	extra := map[string]any{"platform": "SNES", "region": "PAL", "condition": "boxed", "notes": "scratch"}
	assert.Equal(t,
		ResolveKey("videogames", Identifiers{}, base),
		ResolveKey("videogames", Identifiers{}, extra))

	changed := map[string]any{"platform": "SNES", "region": "NTSC"}
	assert.NotEqual(t,
		ResolveKey("videogames", Identifiers{}, base),
		ResolveKey("videogames", Identifiers{}, changed))
}

func TestResolveKey_EmptyEverything(t *testing.T) {
	key := ResolveKey("", Identifiers{}, nil)
	assert.True(t, strings.HasPrefix(key, "sig:"))
	assert.Equal(t, key, ResolveKey("  ", Identifiers{}, map[string]any{}))
}

func TestSignaturePayload_Schema(t *testing.T) {
	payload := SignaturePayload("Trading Cards", Identifiers{}, map[string]any{
		"game": "Pokemon", "set_name": "Base Set", "number": 4, "rarity": "holo",
	})
	assert.Equal(t, map[string]any{
		"v":          SignatureVersion,
		"cat":        "trading card",
		"d_game":     "pokemon",
		"d_set_name": "base set",
		"d_number":   "4",
	}, payload)
}

func TestFamilyOf(t *testing.T) {
	assert.Equal(t, FamilyTradingCard, FamilyOf("Trading  Card"))
	assert.Equal(t, FamilyTradingCard, FamilyOf("tradingcards"))
	assert.Equal(t, FamilyMusic, FamilyOf("vynil"))
	assert.Equal(t, FamilySneakers, FamilyOf("Shoes"))
	assert.Equal(t, FamilyVideoGame, FamilyOf("console"))
	assert.Equal(t, FamilyLego, FamilyOf("LEGO"))
	assert.Equal(t, FamilyGeneric, FamilyOf("stamps"))
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"tcgplayer_id":  KindTradingCardID,
		"tcg":           KindTradingCardID,
		"barcode":       KindEANOrUPC,
		"serial_number": KindSerial,
		"pc":            KindPricingProviderID,
	} {
		got, ok := ParseKind(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseKind("isbn")
	assert.False(t, ok)
}

func TestCleanLinks(t *testing.T) {
	got := CleanLinks([]string{
		" https://example.com/card ",
		"ftp://example.com/file",
		"javascript:alert(1)",
		"https://example.com/card",
		"http://shop.example.org",
		"/relative/path",
		"https://",
		"",
	})
	assert.Equal(t, []string{"https://example.com/card", "http://shop.example.org"}, got)
	assert.Empty(t, CleanLinks(nil))
}

func TestLinksFromAny(t *testing.T) {
	got := LinksFromAny([]any{
		"https://a.example",
		map[string]any{"url": "https://b.example", "label": "B"},
		map[string]any{"href": "https://c.example"},
		42,
	})
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, got)
	assert.Nil(t, LinksFromAny("https://not-a-list"))
}

func TestCanonicalName(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	assert.Equal(t, "Charizard", CanonicalName("trading card", "  Charizard ", now))
	assert.Equal(t, "ITEM_TRADINGCARD_20240506070809", CanonicalName("trading card", "", now))
	assert.Equal(t, "ITEM_ITEM_20240506070809", CanonicalName("", "   ", now))
}
