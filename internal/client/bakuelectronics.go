package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/net/html"

	"github.com/ruhidibadli/ucuzbot/internal/misc"
	"github.com/ruhidibadli/ucuzbot/internal/model"
)

var ErrBakuElectronics = errors.New("Baku Electronics error")

// Baku Electronics is a Next.js storefront: the search results page
// embeds the product payload in the __NEXT_DATA__ script tag.
type bakuElectronicsNextData struct {
	Props struct {
		PageProps struct {
			Products struct {
				Products struct {
					Items []bakuElectronicsItem `json:"items"`
				} `json:"products"`
			} `json:"products"`
		} `json:"pageProps"`
	} `json:"props"`
}

type bakuElectronicsItem struct {
	Name     string      `json:"name"`
	Slug     string      `json:"slug"`
	Price    json.Number `json:"price"`
	Discount string      `json:"discount"`
	Image    string      `json:"image"`
}

func (c Client) BakuElectronicsSearch(ctx context.Context, query string, maxResults int) ([]model.Listing, error) {
	pageURL := "https://www.bakuelectronics.az/axtaris-neticesi?name=" + url.QueryEscape(query)
	body, err := c.getPage(ctx, pageURL)
	if err != nil {
		return nil, errors.Wrapf(ErrBakuElectronics, "error getting search page for query: %s, err: %v", query, err)
	}
	listings, err := bakuElectronicsParsePage(body, maxResults)
	if err != nil {
		return nil, errors.Wrapf(err, "error parsing search page, body:\n%s", misc.BytesLimit(body, 500))
	}
	return listings, nil
}

func bakuElectronicsParsePage(body []byte, maxResults int) ([]model.Listing, error) {
	node, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "error parsing HTML")
	}
	script := elementByID(node, "__NEXT_DATA__")
	if script == nil {
		return nil, errors.Wrap(ErrBakuElectronics, "__NEXT_DATA__ script not found")
	}

	var data bakuElectronicsNextData
	if err := json.Unmarshal([]byte(nodeText(script)), &data); err != nil {
		return nil, errors.Wrap(err, "error unmarshalling __NEXT_DATA__")
	}

	var listings []model.Listing
	for _, item := range data.Props.PageProps.Products.Products.Items {
		if len(listings) >= maxResults {
			break
		}
		price, err := decimal.NewFromString(item.Price.String())
		if err != nil {
			continue
		}
		// Listed price is pre-discount.
		if item.Discount != "" && item.Discount != "0" {
			discount, err := decimal.NewFromString(item.Discount)
			if err != nil {
				continue
			}
			price = price.Sub(discount)
		}
		price = price.Round(2)
		if !price.IsPositive() {
			continue
		}
		listings = append(listings, model.Listing{
			ProductName: item.Name,
			Price:       price,
			ProductURL:  "https://www.bakuelectronics.az/mehsul/" + item.Slug,
			StoreSlug:   SlugBakuElectronics,
			StoreName:   "Baku Electronics",
			ImageURL:    item.Image,
			InStock:     true,
		})
	}
	return listings, nil
}
