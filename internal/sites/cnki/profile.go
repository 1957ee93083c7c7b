package cnki

import (
	"time"

	"cnkicrawl/internal/dom"
)

// Profile is the locator configuration for one variant of the portal's
// markup. The classic and improved crawlers differ only in their Profile.
type Profile struct {
	Name string

	// Dispatch strategies, tried in order.
	Dispatch []DispatchKind

	// ResultsReady signals that a result listing has rendered.
	ResultsReady dom.Spec
	// EntryPath is the page form dispatch starts from, relative to the base URL.
	EntryPath string
	// SearchInput locates the free-text box for form dispatch.
	SearchInput []dom.Spec

	Rows          []dom.Spec
	Title         []dom.Spec
	TitleFallback []dom.Spec
	Authors       []dom.Spec
	Journal       []dom.Spec
	Citations     []dom.Spec
	Downloads     []dom.Spec

	NextPage    []dom.Spec
	CurrentPage []dom.Spec

	// Keywords a citation/download counter's text must contain.
	CitationKeywords []string
	DownloadKeywords []string

	// WaitTimeout is the profile's default bound for render waits.
	WaitTimeout time.Duration
}

// DispatchKind names a way to start a search.
type DispatchKind string

const (
	// DispatchDirect builds the result URL from the query terms.
	DispatchDirect DispatchKind = "direct"
	// DispatchForm types the query into the portal's search box.
	DispatchForm DispatchKind = "form"
)

var resultsReady = dom.CSS(".result-table-list, .searchResult, .search-result")

// Improved carries the full fallback lists for the current and legacy
// result layouts.
func Improved() Profile {
	return Profile{
		Name:         "improved",
		Dispatch:     []DispatchKind{DispatchDirect, DispatchForm},
		ResultsReady: resultsReady,
		EntryPath:    "/",
		// Placeholders are the portal's Chinese UI text ("enter search term", "search").
		SearchInput: []dom.Spec{
			dom.CSS("input[placeholder*='请输入检索词']"),
			dom.CSS("input[placeholder*='检索']"),
			dom.CSS(".search-input input"),
			dom.CSS("#searchText"),
			dom.CSS(".nav-search input"),
		},
		Rows: []dom.Spec{
			dom.CSS(".result-table-list tr:not(:first-child)"),
			dom.CSS(".searchResult .result-item"),
			dom.CSS(".search-result .item"),
			dom.CSS(".literature-item"),
			dom.CSS("[data-index]"),
		},
		Title: []dom.Spec{
			dom.CSS("a.fz14"),
			dom.CSS(".title a"),
			dom.CSS(".literature-title a"),
			dom.CSS("h3 a"),
			dom.CSS("a[href*='detail']"),
			dom.CSS(".result-item-title a"),
		},
		TitleFallback: []dom.Spec{dom.CSS(".title, h3, .literature-title")},
		Authors: []dom.Spec{
			dom.CSS("a[href*='author']"),
			dom.CSS(".author a"),
			dom.CSS(".literature-author a"),
			dom.CSS("[data-author] a"),
		},
		Journal: []dom.Spec{
			dom.CSS("a[href*='journal']"),
			dom.CSS("a[href*='magazine']"),
			dom.CSS(".journal a"),
			dom.CSS(".source a"),
			dom.CSS(".literature-source a"),
		},
		Citations: []dom.Spec{
			dom.CSS("*[class*='cite']"),
			dom.CSS("*[class*='引']"),
			dom.CSS(".citation-count"),
		},
		Downloads: []dom.Spec{
			dom.CSS("*[class*='download']"),
			dom.CSS("*[class*='下载']"),
		},
		// "下页"/"下一页" = next page.
		NextPage: []dom.Spec{
			dom.CSS("a[title*='下页']"),
			dom.CSS("a[title*='下一页']"),
			dom.CSS(".next-page"),
			dom.CSS(".page-next"),
			dom.Contains("a", "下页"),
			dom.Contains("a", "下一页"),
			dom.Contains("a", ">"),
		},
		CurrentPage:      []dom.Spec{dom.CSS(".current-page"), dom.CSS(".active")},
		CitationKeywords: []string{"引", "cite"},
		DownloadKeywords: []string{"下载", "download"},
		WaitTimeout:      15 * time.Second,
	}
}

// Classic matches the legacy table layout reached through advanced search.
func Classic() Profile {
	return Profile{
		Name:         "classic",
		Dispatch:     []DispatchKind{DispatchForm},
		ResultsReady: dom.CSS(".result-table-list"),
		EntryPath:    "/kns8/AdvSearch",
		SearchInput: []dom.Spec{
			dom.CSS("input[name='txt_1_value1']"),
			dom.CSS(".input-box input"),
		},
		Rows: []dom.Spec{
			dom.XPath("//table[@class='result-table-list']//tr[position()>1]"),
			dom.CSS("table.result-table-list tr:not(:first-child)"),
		},
		Title:         []dom.Spec{dom.CSS("a.fz14")},
		TitleFallback: []dom.Spec{dom.CSS("td.name")},
		Authors:       []dom.Spec{dom.CSS("a[href*='author']")},
		Journal:       []dom.Spec{dom.CSS("a[href*='journal']"), dom.CSS("a[href*='magazine']")},
		Citations:     []dom.Spec{dom.Contains("span", "被引")},
		Downloads:     []dom.Spec{dom.Contains("span", "下载")},
		NextPage: []dom.Spec{
			dom.Contains("a", "下页"),
			dom.Contains("a", "下一页"),
		},
		CurrentPage:      []dom.Spec{dom.CSS(".current-page")},
		CitationKeywords: []string{"被引"},
		DownloadKeywords: []string{"下载"},
		WaitTimeout:      10 * time.Second,
	}
}

// ProfileByName returns the named profile.
func ProfileByName(name string) (Profile, bool) {
	switch name {
	case "", "improved":
		return Improved(), true
	case "classic":
		return Classic(), true
	}
	return Profile{}, false
}
