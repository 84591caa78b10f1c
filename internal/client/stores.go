package client

import (
	"context"

	"github.com/ruhidibadli/ucuzbot/internal/model"
)

const (
	SlugKontakt         = "kontakt"
	SlugBakuElectronics = "baku_electronics"
	SlugIrshad          = "irshad"
	SlugMaxi            = "maxi"
	SlugTapAz           = "tap_az"
	SlugUmico           = "umico"
)

type StoreInfo struct {
	Slug     string
	Name     string
	BaseURL  string
	Priority int
}

// StoreTable lists every configured store. The order is the priority
// order used to break price ties when ranking merged results.
var StoreTable = []StoreInfo{
	{Slug: SlugKontakt, Name: "Kontakt Home", BaseURL: "https://kontakt.az", Priority: 0},
	{Slug: SlugBakuElectronics, Name: "Baku Electronics", BaseURL: "https://www.bakuelectronics.az", Priority: 1},
	{Slug: SlugIrshad, Name: "Irshad", BaseURL: "https://irshad.az", Priority: 2},
	{Slug: SlugMaxi, Name: "Maxi.az", BaseURL: "https://maxi.az", Priority: 3},
	{Slug: SlugTapAz, Name: "Tap.az", BaseURL: "https://tap.az", Priority: 4},
	{Slug: SlugUmico, Name: "Birmarket", BaseURL: "https://birmarket.az", Priority: 5},
}

func StoreBySlug(slug string) (StoreInfo, bool) {
	for _, si := range StoreTable {
		if si.Slug == slug {
			return si, true
		}
	}
	return StoreInfo{}, false
}

func ValidStoreSlug(slug string) bool {
	_, ok := StoreBySlug(slug)
	return ok
}

func StoreSlugs() []string {
	slugs := make([]string, 0, len(StoreTable))
	for _, si := range StoreTable {
		slugs = append(slugs, si.Slug)
	}
	return slugs
}

type searchFunc func(ctx context.Context, query string, maxResults int) ([]model.Listing, error)

// StoreAdapter pairs a store's metadata with its search implementation.
type StoreAdapter struct {
	info   StoreInfo
	search searchFunc
}

func (a StoreAdapter) Slug() string  { return a.info.Slug }
func (a StoreAdapter) Name() string  { return a.info.Name }
func (a StoreAdapter) Priority() int { return a.info.Priority }
func (a StoreAdapter) Search(ctx context.Context, query string, maxResults int) ([]model.Listing, error) {
	return a.search(ctx, query, maxResults)
}

// StoreAdapters builds the full adapter set backed by this client.
func (c Client) StoreAdapters() []StoreAdapter {
	searches := map[string]searchFunc{
		SlugKontakt:         c.KontaktSearch,
		SlugBakuElectronics: c.BakuElectronicsSearch,
		SlugIrshad:          c.IrshadSearch,
		SlugMaxi:            c.MaxiSearch,
		SlugTapAz:           c.TapAzSearch,
		SlugUmico:           c.UmicoSearch,
	}
	adapters := make([]StoreAdapter, 0, len(StoreTable))
	for _, si := range StoreTable {
		adapters = append(adapters, StoreAdapter{info: si, search: searches[si.Slug]})
	}
	return adapters
}
