package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/ruhidibadli/ucuzbot/internal/model"
)

var ErrUmico = errors.New("Umico error")

// Birmarket (ex-Umico) exposes a JSON suggests API on the Umico
// marketplace catalog service.
type umicoSuggestsResponse struct {
	Products []struct {
		ID          int64       `json:"id"`
		Name        string      `json:"name"`
		SluggedName string      `json:"slugged_name"`
		RetailPrice json.Number `json:"retail_price"`
		MainImg     struct {
			Small  string `json:"small"`
			Medium string `json:"medium"`
			Big    string `json:"big"`
		} `json:"main_img"`
	} `json:"products"`
}

func (c Client) UmicoSearch(ctx context.Context, query string, maxResults int) ([]model.Listing, error) {
	apiURL := fmt.Sprintf("https://mp-catalog.umico.az/api/v1/suggests?full_text=%s&per_page=%d",
		url.QueryEscape(query), maxResults)

	var resp umicoSuggestsResponse
	if err := c.getJSON(ctx, apiURL, &resp); err != nil {
		return nil, errors.Wrapf(ErrUmico, "search failed for query: %s, err: %v", query, err)
	}
	return umicoParseItems(resp, maxResults), nil
}

func umicoParseItems(resp umicoSuggestsResponse, maxResults int) []model.Listing {
	var listings []model.Listing
	for _, item := range resp.Products {
		if len(listings) >= maxResults {
			break
		}
		if item.Name == "" || item.RetailPrice.String() == "" {
			continue
		}
		price, err := decimal.NewFromString(item.RetailPrice.String())
		if err != nil {
			continue
		}
		price = price.Round(2)
		if !price.IsPositive() {
			continue
		}

		imageURL := item.MainImg.Medium
		if imageURL == "" {
			imageURL = item.MainImg.Small
		}
		if imageURL == "" {
			imageURL = item.MainImg.Big
		}

		productURL := ""
		if item.ID != 0 && item.SluggedName != "" {
			productURL = fmt.Sprintf("https://birmarket.az/product/%d-%s", item.ID, item.SluggedName)
		}

		listings = append(listings, model.Listing{
			ProductName: item.Name,
			Price:       price,
			ProductURL:  productURL,
			StoreSlug:   SlugUmico,
			StoreName:   "Birmarket",
			ImageURL:    imageURL,
			InStock:     true,
		})
	}
	return listings
}
