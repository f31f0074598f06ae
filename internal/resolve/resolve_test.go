package resolve

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"mangascout/internal/fetch"
)

func newTestResolver(t *testing.T) (*Resolver, *http.ServeMux) {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	r := NewResolver(fetch.NewClient(5*time.Second), "key", "engine")
	r.MALBase = srv.URL
	r.SearchAPIBase = srv.URL
	r.DDGBase = srv.URL
	return r, mux
}

func TestResolve_DirectSearchWins(t *testing.T) {
	r, mux := newTestResolver(t)
	mux.HandleFunc("/manga.php", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`<html><table>
<tr><td><a class="hoverinfo_trigger" href="https://myanimelist.net/manga/13/Alpha_Saga">Alpha Saga</a></td></tr>
</table></html>`))
	})

	urls, err := r.Resolve(context.Background(), "Alpha Saga")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(urls) != 1 || urls[0] != "https://myanimelist.net/manga/13/Alpha_Saga" {
		t.Fatalf("unexpected candidates: %v", urls)
	}
}

func TestResolve_CuratedAPIFallback(t *testing.T) {
	r, mux := newTestResolver(t)
	mux.HandleFunc("/manga.php", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`<html><p>no results</p></html>`))
	})
	var apiQuery string
	mux.HandleFunc("/customsearch/v1", func(w http.ResponseWriter, req *http.Request) {
		apiQuery = req.URL.Query().Get("q")
		w.Write([]byte(`{"items":[
{"link":"https://www.mangaupdates.com/series/abc/alpha"},
{"link":"https://evil.example.com/alpha"},
{"link":"https://kitsu.app/manga/alpha-saga"}
]}`))
	})

	urls, err := r.Resolve(context.Background(), "Alpha Saga")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if apiQuery != "Alpha Saga manga" {
		t.Fatalf("api query: got %q", apiQuery)
	}
	if len(urls) != 2 {
		t.Fatalf("expected allow-list filtering to keep 2, got %v", urls)
	}
	for _, u := range urls {
		if strings.Contains(u, "evil.example.com") {
			t.Fatalf("allow-list let through %s", u)
		}
	}
}

// Misconfigured curated API (no engine id) must degrade to returning
// direct-search URLs for the trusted domains, without calling the API.
func TestResolve_CuratedAPIDegradesWithoutEngineID(t *testing.T) {
	r, mux := newTestResolver(t)
	r.SearchEngineID = ""
	mux.HandleFunc("/manga.php", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`<html><p>no results</p></html>`))
	})
	mux.HandleFunc("/customsearch/v1", func(w http.ResponseWriter, req *http.Request) {
		t.Error("API must not be called when engine id is missing")
	})

	urls, err := r.Resolve(context.Background(), "Alpha Saga")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(urls) != len(AllowList) {
		t.Fatalf("expected one search URL per trusted domain, got %v", urls)
	}
	for _, u := range urls {
		if !allowListed(u) {
			t.Fatalf("degraded URL %s is not on the allow-list", u)
		}
		if !strings.Contains(u, url.QueryEscape("Alpha Saga")) {
			t.Fatalf("degraded URL %s does not carry the query", u)
		}
	}
}

func TestResolve_RawScrape(t *testing.T) {
	r, mux := newTestResolver(t)
	r.SearchEngineID = "engine"
	mux.HandleFunc("/manga.php", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`<html></html>`))
	})
	mux.HandleFunc("/customsearch/v1", func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	})
	mux.HandleFunc("/html/", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`<html>
<a href="/l/?uddg=` + url.QueryEscape("https://myanimelist.net/manga/13/Alpha_Saga") + `">hit</a>
<a href="/l/?uddg=` + url.QueryEscape("https://spam.example.com/x") + `">spam</a>
<a href="/l/?uddg=` + url.QueryEscape("https://myanimelist.net/manga/13/Alpha_Saga") + `">dup</a>
<a href="/l/?uddg=` + url.QueryEscape("https://www.mangaupdates.com/series/abc/alpha") + `">hit2</a>
</html>`))
	})

	urls, err := r.Resolve(context.Background(), "Alpha Saga")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(urls) != 2 {
		t.Fatalf("expected deduplicated allow-listed pair, got %v", urls)
	}
	if urls[0] != "https://myanimelist.net/manga/13/Alpha_Saga" {
		t.Fatalf("result order not preserved: %v", urls)
	}
}

func TestResolve_LastResort(t *testing.T) {
	r, mux := newTestResolver(t)
	r.SearchEngineID = "engine"
	mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	urls, err := r.Resolve(context.Background(), "Alpha Saga")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(urls) != 1 {
		t.Fatalf("expected single synthesized candidate, got %v", urls)
	}
	if !strings.Contains(urls[0], "/manga.php?q=") {
		t.Fatalf("expected primary-site search URL, got %s", urls[0])
	}
}

func TestAllowListed(t *testing.T) {
	cases := map[string]bool{
		"https://myanimelist.net/manga/13":       true,
		"https://www.mangaupdates.com/series/a":  true,
		"https://kitsu.app/manga/x":              true,
		"https://myanimelist.net.evil.com/manga": false,
		"https://example.com/myanimelist.net":    false,
		"not a url at all ://":                   false,
	}
	for in, want := range cases {
		if got := allowListed(in); got != want {
			t.Fatalf("allowListed(%q): got %v, want %v", in, got, want)
		}
	}
}
