package client

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"

	"github.com/ruhidibadli/ucuzbot/internal/misc"
	"github.com/ruhidibadli/ucuzbot/internal/model"
)

var ErrIrshad = errors.New("Irshad error")

// Irshad loads its product grid from an AJAX endpoint that returns
// plain HTML cards under #productGridItems.
func (c Client) IrshadSearch(ctx context.Context, query string, maxResults int) ([]model.Listing, error) {
	pageURL := "https://irshad.az/az/products/list?q=" + url.QueryEscape(query)
	body, err := c.getPage(ctx, pageURL)
	if err != nil {
		return nil, errors.Wrapf(ErrIrshad, "error getting search page for query: %s, err: %v", query, err)
	}
	listings, err := irshadParsePage(body, maxResults, c.Logger)
	if err != nil {
		return nil, errors.Wrapf(err, "error parsing search page, body:\n%s", misc.BytesLimit(body, 500))
	}
	return listings, nil
}

func irshadParsePage(body []byte, maxResults int, log logger) ([]model.Listing, error) {
	node, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "error parsing HTML")
	}
	grid := elementByID(node, "productGridItems")
	if grid == nil {
		// Empty result pages omit the grid entirely.
		return nil, nil
	}

	var listings []model.Listing
	for _, card := range elementsByClass(grid, "product") {
		if len(listings) >= maxResults {
			break
		}
		nameEl := findElement(card, func(e *html.Node) bool {
			return e.Data == "a" && hasClass(e, "product__name")
		})
		if nameEl == nil {
			continue
		}
		name := nodeText(nameEl)
		href := attrVal(nameEl, "href")
		productURL := href
		if !strings.HasPrefix(href, "http") {
			productURL = "https://irshad.az" + href
		}

		// Prefer the discounted price when present.
		var priceEl *html.Node
		for _, class := range []string{"new-price", "old-price", "product__price__current"} {
			if priceEl = elementByClass(card, class); priceEl != nil {
				break
			}
		}
		if priceEl == nil {
			continue
		}
		price, err := ParsePrice(nodeText(priceEl))
		if err != nil {
			if log != nil {
				log.Debugf("IrshadSearch: Skipping listing %q, unparsable price: %v", misc.StringLimit(name, 45), err)
			}
			continue
		}
		if !price.IsPositive() {
			continue
		}

		imageURL := ""
		if imgWrap := elementByClass(card, "product__img"); imgWrap != nil {
			if img := elementByTag(imgWrap, "img"); img != nil {
				imageURL = attrVal(img, "src")
				if imageURL == "" {
					imageURL = attrVal(img, "data-src")
				}
			}
		}

		listings = append(listings, model.Listing{
			ProductName: name,
			Price:       price,
			ProductURL:  productURL,
			StoreSlug:   SlugIrshad,
			StoreName:   "Irshad",
			ImageURL:    imageURL,
			InStock:     true,
		})
	}
	return listings, nil
}
