package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/ruhidibadli/ucuzbot/internal/model"
)

var ErrTapAz = errors.New("Tap.az error")

// Tap.az is a classifieds site, so its results are noisy: the GraphQL
// search is over-fetched and filtered down to ads whose titles match
// most of the query words.
const tapAzGraphQLQuery = `
{
	ads(keywords: "%s", first: %d, source: DESKTOP) {
		nodes {
			id
			title
			price
			path
			region
			photo {
				url
			}
			shop {
				id
			}
		}
	}
}`

type tapAzSearchResponse struct {
	Data struct {
		Ads struct {
			Nodes []struct {
				ID    string      `json:"id"`
				Title string      `json:"title"`
				Price json.Number `json:"price"`
				Path  string      `json:"path"`
				Photo *struct {
					URL string `json:"url"`
				} `json:"photo"`
				Shop *struct {
					ID string `json:"id"`
				} `json:"shop"`
			} `json:"nodes"`
		} `json:"ads"`
	} `json:"data"`
}

func (c Client) TapAzSearch(ctx context.Context, query string, maxResults int) ([]model.Listing, error) {
	safeQuery := strings.ReplaceAll(query, `"`, `\"`)
	// Over-fetch to survive the relevance cut below.
	gqlQuery := fmt.Sprintf(tapAzGraphQLQuery, safeQuery, maxResults*3)

	var resp tapAzSearchResponse
	if err := c.postJSON(ctx, "https://tap.az/graphql", map[string]string{"query": gqlQuery}, nil, &resp); err != nil {
		return nil, errors.Wrapf(ErrTapAz, "search failed for query: %s, err: %v", query, err)
	}
	return tapAzParseItems(resp, query, maxResults), nil
}

func tapAzParseItems(resp tapAzSearchResponse, query string, maxResults int) []model.Listing {
	var listings []model.Listing
	for _, node := range resp.Data.Ads.Nodes {
		if len(listings) >= maxResults {
			break
		}
		if node.Title == "" || node.Price.String() == "" {
			continue
		}
		price, err := decimal.NewFromString(node.Price.String())
		if err != nil {
			continue
		}
		price = price.Round(2)
		if !price.IsPositive() {
			continue
		}
		if !tapAzTitleMatches(node.Title, query) {
			continue
		}

		productURL := ""
		if node.Path != "" {
			productURL = "https://tap.az" + node.Path
		}
		imageURL := ""
		if node.Photo != nil {
			imageURL = node.Photo.URL
		}
		name := node.Title
		if node.Shop != nil && node.Shop.ID != "" {
			name = "[Mağaza] " + name
		}

		listings = append(listings, model.Listing{
			ProductName: name,
			Price:       price,
			ProductURL:  productURL,
			StoreSlug:   SlugTapAz,
			StoreName:   "Tap.az",
			ImageURL:    imageURL,
			InStock:     true,
		})
	}
	return listings
}

// tapAzTitleMatches requires at least 60% of the query words to appear
// in the ad title.
func tapAzTitleMatches(title string, query string) bool {
	queryWords := strings.Fields(strings.ToLower(query))
	if len(queryWords) == 0 {
		return false
	}
	titleLower := strings.ToLower(title)
	matched := 0
	for _, w := range queryWords {
		if strings.Contains(titleLower, w) {
			matched++
		}
	}
	return float64(matched) >= float64(len(queryWords))*0.6
}
