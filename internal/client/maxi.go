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

var ErrMaxi = errors.New("Maxi error")

// Maxi.az is flaky and sometimes sits behind a proxy/maintenance page,
// so it gets a single fetch attempt and an empty result on failure
// rather than retries that would eat into the search deadline.
func (c Client) MaxiSearch(ctx context.Context, query string, maxResults int) ([]model.Listing, error) {
	pageURL := "https://maxi.az/axtaris?q=" + url.QueryEscape(query)
	body, err := c.getPageOnce(ctx, pageURL)
	if err != nil {
		c.Logger.Warnf("MaxiSearch: Site unavailable for query: %s, err: %v", query, err)
		return nil, nil
	}
	listings, err := maxiParsePage(body, maxResults, c.Logger)
	if err != nil {
		return nil, errors.Wrapf(err, "error parsing search page, body:\n%s", misc.BytesLimit(body, 500))
	}
	return listings, nil
}

func maxiParsePage(body []byte, maxResults int, log logger) ([]model.Listing, error) {
	node, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "error parsing HTML")
	}

	if maxiLooksLikeMaintenancePage(node) {
		if log != nil {
			log.Warnf("MaxiSearch: Maintenance or proxy page detected, skipping")
		}
		return nil, nil
	}

	var cards []*html.Node
	findAllElements(node, func(e *html.Node) bool {
		return hasClass(e, "product-card") || hasClass(e, "product-item") || hasClass(e, "catalog-item")
	}, &cards)

	var listings []model.Listing
	for _, card := range cards {
		if len(listings) >= maxResults {
			break
		}
		nameEl := elementByClass(card, "product-card__name", "product-name", "product-title", "product-card__title")
		priceEl := elementByClass(card, "product-card__price", "product-price", "price", "current-price")
		if nameEl == nil || priceEl == nil {
			continue
		}

		name := nodeText(nameEl)
		price, err := ParsePrice(nodeText(priceEl))
		if err != nil {
			if log != nil {
				log.Debugf("MaxiSearch: Skipping listing %q, unparsable price: %v", misc.StringLimit(name, 45), err)
			}
			continue
		}
		if !price.IsPositive() {
			continue
		}

		productURL := ""
		if link := findElement(card, func(e *html.Node) bool {
			return e.Data == "a" && attrVal(e, "href") != ""
		}); link != nil {
			href := attrVal(link, "href")
			if strings.HasPrefix(href, "http") {
				productURL = href
			} else {
				productURL = "https://maxi.az" + href
			}
		}

		imageURL := ""
		if img := elementByTag(card, "img"); img != nil {
			imageURL = attrVal(img, "src")
			if imageURL == "" {
				imageURL = attrVal(img, "data-src")
			}
		}

		listings = append(listings, model.Listing{
			ProductName: name,
			Price:       price,
			ProductURL:  productURL,
			StoreSlug:   SlugMaxi,
			StoreName:   "Maxi.az",
			ImageURL:    imageURL,
			InStock:     true,
		})
	}
	return listings, nil
}

func maxiLooksLikeMaintenancePage(node *html.Node) bool {
	text := nodeText(node)
	if len(text) < 100 {
		return true
	}
	return strings.Contains(strings.ToLower(text), "proxy")
}
