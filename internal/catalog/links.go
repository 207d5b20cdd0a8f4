package catalog

import (
	"net/url"
	"strings"
	"time"
)

// CleanLinks keeps absolute http(s) URLs with a host, trimmed, first
// occurrence wins. Everything else is dropped without error.
func CleanLinks(links []string) []string {
	out := make([]string, 0, len(links))
	seen := make(map[string]struct{}, len(links))
	for _, raw := range links {
		u := strings.TrimSpace(raw)
		if u == "" {
			continue
		}
		parsed, err := url.Parse(u)
		if err != nil || parsed.Host == "" {
			continue
		}
		if s := strings.ToLower(parsed.Scheme); s != "http" && s != "https" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// LinksFromAny accepts the loose shapes the front end posts: a list of
// strings, or a list of {"url": "..."} objects, mixed.
func LinksFromAny(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		switch t := item.(type) {
		case string:
			out = append(out, t)
		case map[string]any:
			if s, ok := t["url"].(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

// CanonicalName returns the trimmed hint, or ITEM_<CATEGORY>_<yyyymmddhhmmss>.
func CanonicalName(category, hint string, now time.Time) string {
	if h := strings.TrimSpace(hint); h != "" {
		return h
	}
	cat := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(category)), " ", "")
	if cat == "" {
		cat = "ITEM"
	}
	return "ITEM_" + cat + "_" + now.Format("20060102150405")
}
