package client

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKontaktParseItems(t *testing.T) {
	payload := `{
		"data": {
			"products": {
				"items": [
					{
						"name": "Apple iPhone 15 Pro 256GB",
						"url_key": "apple-iphone-15-pro-256gb",
						"price_range": {"minimum_price": {"final_price": {"value": 2899.99, "currency": "AZN"}}},
						"small_image": {"url": "https://kontakt.az/media/iphone15pro.jpg"}
					},
					{
						"name": "Zero priced product",
						"url_key": "zero",
						"price_range": {"minimum_price": {"final_price": {"value": 0, "currency": "AZN"}}},
						"small_image": {"url": ""}
					},
					{
						"name": "Apple iPhone 15 128GB",
						"url_key": "apple-iphone-15-128gb",
						"price_range": {"minimum_price": {"final_price": {"value": 1999, "currency": "AZN"}}},
						"small_image": {"url": "https://kontakt.az/media/iphone15.jpg"}
					}
				],
				"total_count": 3
			}
		}
	}`
	var resp kontaktSearchResponse
	require.NoError(t, json.Unmarshal([]byte(payload), &resp))

	listings := kontaktParseItems(resp, 10)
	require.Len(t, listings, 2)
	assert.Equal(t, "Apple iPhone 15 Pro 256GB", listings[0].ProductName)
	assert.Equal(t, "2899.99", listings[0].Price.String())
	assert.Equal(t, "https://kontakt.az/apple-iphone-15-pro-256gb.html", listings[0].ProductURL)
	assert.Equal(t, SlugKontakt, listings[0].StoreSlug)
	assert.Equal(t, "Kontakt Home", listings[0].StoreName)
	assert.True(t, listings[0].InStock)
	assert.Equal(t, "1999", listings[1].Price.String())

	assert.Len(t, kontaktParseItems(resp, 1), 1)
}

func TestTapAzParseItems(t *testing.T) {
	payload := `{
		"data": {
			"ads": {
				"nodes": [
					{
						"id": "1",
						"title": "iPhone 15 Pro Max 256GB yeni",
						"price": 2750,
						"path": "/elanlar/elektronika/1",
						"photo": {"url": "https://tap.az/photos/1.jpg"},
						"shop": {"id": "42"}
					},
					{
						"id": "2",
						"title": "Samsung Galaxy S24",
						"price": 1800,
						"path": "/elanlar/elektronika/2",
						"photo": null,
						"shop": null
					},
					{
						"id": "3",
						"title": "iPhone 15 Pro qiymeti sorusun",
						"price": 0,
						"path": "/elanlar/elektronika/3",
						"photo": null,
						"shop": null
					}
				]
			}
		}
	}`
	var resp tapAzSearchResponse
	require.NoError(t, json.Unmarshal([]byte(payload), &resp))

	listings := tapAzParseItems(resp, "iPhone 15 Pro", 10)
	require.Len(t, listings, 1)
	assert.Equal(t, "[Mağaza] iPhone 15 Pro Max 256GB yeni", listings[0].ProductName)
	assert.Equal(t, "2750", listings[0].Price.String())
	assert.Equal(t, "https://tap.az/elanlar/elektronika/1", listings[0].ProductURL)
	assert.Equal(t, SlugTapAz, listings[0].StoreSlug)
}

func TestTapAzTitleMatches(t *testing.T) {
	assert.True(t, tapAzTitleMatches("Apple iPhone 15 Pro Max", "iphone 15 pro"))
	assert.True(t, tapAzTitleMatches("iPhone 15 satilir", "iPhone 15 Pro"))
	assert.False(t, tapAzTitleMatches("Samsung Galaxy S24", "iPhone 15 Pro"))
	assert.False(t, tapAzTitleMatches("anything", ""))
}

func TestUmicoParseItems(t *testing.T) {
	payload := `{
		"products": [
			{
				"id": 12345,
				"name": "Smartfon Apple iPhone 15 128GB",
				"slugged_name": "smartfon-apple-iphone-15-128gb",
				"retail_price": 2049.99,
				"main_img": {"small": "https://img.umico.az/s.jpg", "medium": "", "big": "https://img.umico.az/b.jpg"}
			},
			{
				"id": 0,
				"name": "",
				"slugged_name": "",
				"retail_price": 100,
				"main_img": {"small": "", "medium": "", "big": ""}
			}
		]
	}`
	var resp umicoSuggestsResponse
	require.NoError(t, json.Unmarshal([]byte(payload), &resp))

	listings := umicoParseItems(resp, 10)
	require.Len(t, listings, 1)
	assert.Equal(t, "Smartfon Apple iPhone 15 128GB", listings[0].ProductName)
	assert.Equal(t, "2049.99", listings[0].Price.String())
	assert.Equal(t, "https://birmarket.az/product/12345-smartfon-apple-iphone-15-128gb", listings[0].ProductURL)
	assert.Equal(t, "https://img.umico.az/s.jpg", listings[0].ImageURL)
	assert.Equal(t, "Birmarket", listings[0].StoreName)
}

func TestBakuElectronicsParsePage(t *testing.T) {
	page := `<html><head></head><body>
		<div id="app">search results</div>
		<script id="__NEXT_DATA__" type="application/json">{
			"props": {"pageProps": {"products": {"products": {"items": [
				{"name": "Televizor Samsung 55", "slug": "televizor-samsung-55", "price": 1599.99, "discount": "100", "image": "https://cdn.bakuelectronics.az/tv.jpg"},
				{"name": "No price product", "slug": "none", "price": 0, "discount": "", "image": ""}
			]}}}}
		}</script>
	</body></html>`

	listings, err := bakuElectronicsParsePage([]byte(page), 10)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Televizor Samsung 55", listings[0].ProductName)
	assert.Equal(t, "1499.99", listings[0].Price.String())
	assert.Equal(t, "https://www.bakuelectronics.az/mehsul/televizor-samsung-55", listings[0].ProductURL)
	assert.Equal(t, SlugBakuElectronics, listings[0].StoreSlug)
}

func TestBakuElectronicsParsePageMissingNextData(t *testing.T) {
	_, err := bakuElectronicsParsePage([]byte("<html><body>nothing here</body></html>"), 10)
	assert.Error(t, err)
}

func TestIrshadParsePage(t *testing.T) {
	page := `<html><body>
		<div id="productGridItems">
			<div class="product">
				<a class="product__name" href="/az/products/iphone-15-pro">Apple iPhone 15 Pro 128GB</a>
				<div class="product__img"><img src="https://irshad.az/img/iphone.jpg"></div>
				<span class="old-price">2.999,99 ₼</span>
				<span class="new-price">2.799,99 ₼</span>
			</div>
			<div class="product">
				<a class="product__name" href="https://irshad.az/az/products/airpods">Apple AirPods Pro</a>
				<span class="new-price">qiymət yoxdur</span>
			</div>
		</div>
	</body></html>`

	listings, err := irshadParsePage([]byte(page), 10, nil)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Apple iPhone 15 Pro 128GB", listings[0].ProductName)
	assert.Equal(t, "2799.99", listings[0].Price.String())
	assert.Equal(t, "https://irshad.az/az/products/iphone-15-pro", listings[0].ProductURL)
	assert.Equal(t, "https://irshad.az/img/iphone.jpg", listings[0].ImageURL)
}

func TestIrshadParsePageNoGrid(t *testing.T) {
	listings, err := irshadParsePage([]byte("<html><body><p>0 nəticə tapıldı, heç bir məhsul yoxdur</p></body></html>"), 10, nil)
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestMaxiParsePage(t *testing.T) {
	page := `<html><body>
		<main>
			<p>Axtarışın nəticələri aşağıda göstərilir, hər məhsul üzrə qiymət və şəkil var.</p>
			<div class="product-card">
				<a href="/mehsul/playstation-5"><img src="https://maxi.az/img/ps5.jpg"></a>
				<div class="product-card__name">Sony PlayStation 5 Slim</div>
				<div class="product-card__price">1 099,99 ₼</div>
			</div>
		</main>
	</body></html>`

	listings, err := maxiParsePage([]byte(page), 10, nil)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Sony PlayStation 5 Slim", listings[0].ProductName)
	assert.Equal(t, "1099.99", listings[0].Price.String())
	assert.Equal(t, "https://maxi.az/mehsul/playstation-5", listings[0].ProductURL)
	assert.Equal(t, SlugMaxi, listings[0].StoreSlug)
}

func TestMaxiParsePageMaintenance(t *testing.T) {
	listings, err := maxiParsePage([]byte("<html><body>proxy error</body></html>"), 10, nil)
	require.NoError(t, err)
	assert.Empty(t, listings)
}
