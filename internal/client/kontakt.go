package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/ruhidibadli/ucuzbot/internal/model"
)

var ErrKontakt = errors.New("Kontakt error")

// Kontakt Home runs a Magento storefront, searched through its public
// GraphQL endpoint.
const kontaktGraphQLQuery = `
{
	products(search: "%s", pageSize: %d) {
		items {
			name
			url_key
			price_range {
				minimum_price {
					final_price {
						value
						currency
					}
				}
			}
			small_image {
				url
			}
		}
		total_count
	}
}`

type kontaktSearchResponse struct {
	Data struct {
		Products struct {
			Items []struct {
				Name       string `json:"name"`
				URLKey     string `json:"url_key"`
				PriceRange struct {
					MinimumPrice struct {
						FinalPrice struct {
							Value    float64 `json:"value"`
							Currency string  `json:"currency"`
						} `json:"final_price"`
					} `json:"minimum_price"`
				} `json:"price_range"`
				SmallImage struct {
					URL string `json:"url"`
				} `json:"small_image"`
			} `json:"items"`
			TotalCount int `json:"total_count"`
		} `json:"products"`
	} `json:"data"`
}

func (c Client) KontaktSearch(ctx context.Context, query string, maxResults int) ([]model.Listing, error) {
	safeQuery := strings.ReplaceAll(query, `"`, `\"`)
	gqlQuery := fmt.Sprintf(kontaktGraphQLQuery, safeQuery, maxResults)

	headers := map[string]string{
		"Origin":  "https://kontakt.az",
		"Referer": "https://kontakt.az/",
	}
	var resp kontaktSearchResponse
	if err := c.postJSON(ctx, "https://kontakt.az/graphql", map[string]string{"query": gqlQuery}, headers, &resp); err != nil {
		return nil, errors.Wrapf(ErrKontakt, "search failed for query: %s, err: %v", query, err)
	}
	return kontaktParseItems(resp, maxResults), nil
}

func kontaktParseItems(resp kontaktSearchResponse, maxResults int) []model.Listing {
	var listings []model.Listing
	for _, item := range resp.Data.Products.Items {
		if len(listings) >= maxResults {
			break
		}
		price := decimal.NewFromFloat(item.PriceRange.MinimumPrice.FinalPrice.Value).Round(2)
		if !price.IsPositive() {
			continue
		}
		listings = append(listings, model.Listing{
			ProductName: item.Name,
			Price:       price,
			ProductURL:  "https://kontakt.az/" + item.URLKey + ".html",
			StoreSlug:   SlugKontakt,
			StoreName:   "Kontakt Home",
			ImageURL:    item.SmallImage.URL,
			InStock:     true,
		})
	}
	return listings
}
