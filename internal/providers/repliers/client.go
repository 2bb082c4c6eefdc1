// Package repliers provides a client for the Repliers listings-search API,
// the engine's source for active listings, prices, and photos.
package repliers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/parcelscope/parcelscope/internal/providers"
	"github.com/parcelscope/parcelscope/internal/transport"
	pkgerrors "github.com/parcelscope/parcelscope/pkg/errors"
	"github.com/parcelscope/parcelscope/pkg/properties"
)

const providerID = string(properties.ProviderRepliers)

// defaultPageSize bounds one search response.
const defaultPageSize = 25

// Response structures for the Repliers API.
type searchResponse struct {
	Count    int               `json:"count"`
	Listings []listingResponse `json:"listings"`
}

type listingResponse struct {
	MLSNumber string   `json:"mlsNumber"`
	ListPrice *float64 `json:"listPrice"`
	Status    *string  `json:"lastStatus"`
	Address   struct {
		StreetNumber string `json:"streetNumber"`
		StreetName   string `json:"streetName"`
		StreetSuffix string `json:"streetSuffix"`
		City         string `json:"city"`
		State        string `json:"state"`
		Zip          string `json:"zip"`
	} `json:"address"`
	Details struct {
		SquareFeet   *int    `json:"sqft"`
		YearBuilt    *int    `json:"yearBuilt"`
		PropertyType *string `json:"propertyType"`
	} `json:"details"`
	Map struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"map"`
	Images []string `json:"images"`
}

type imagesResponse struct {
	Images []struct {
		URL     string `json:"url"`
		Caption string `json:"caption"`
	} `json:"images"`
}

// Client implements the providers.ListingSearch capability set for Repliers.
type Client struct {
	config    *providers.Provider
	transport *transport.Client
}

// New creates a Repliers client. The static API key is resolved from the
// environment per the provider registry and sent in the configured header.
func New(config *providers.Provider, opts ...transport.Option) (*Client, error) {
	key, err := config.APIKey()
	if err != nil {
		return nil, err
	}

	base := []transport.Option{transport.WithTimeout(config.Timeout)}
	if rl := config.RateLimit; rl != nil {
		base = append(base, transport.WithRateLimit(rl.RequestsPerSecond, rl.Burst))
	}

	auth := &transport.HeaderAuth{Header: config.Auth.Header, Source: transport.StaticToken(key)}
	return &Client{
		config:    config,
		transport: transport.New(providerID, auth, append(base, opts...)...),
	}, nil
}

// SearchByLocation runs a free-text listings search. Price bounds and status
// are pushed down to the provider as query parameters; anything the provider
// cannot express is left for the resolver to apply post-hoc.
func (c *Client) SearchByLocation(ctx context.Context, text string, filters properties.SearchFilters) ([]providers.Listing, error) {
	q := url.Values{}
	q.Set("resultsPerPage", strconv.Itoa(defaultPageSize))

	search := strings.TrimSpace(text)
	if filters.Location != "" {
		q.Set("city", filters.Location)
	}
	if search != "" {
		q.Set("search", search)
	}
	if filters.MinPrice != nil {
		q.Set("minPrice", strconv.FormatFloat(*filters.MinPrice, 'f', 0, 64))
	}
	if filters.MaxPrice != nil {
		q.Set("maxPrice", strconv.FormatFloat(*filters.MaxPrice, 'f', 0, 64))
	}
	if filters.Status != nil {
		q.Set("status", *filters.Status)
	}

	var result searchResponse
	endpoint := fmt.Sprintf("%s/listings?%s", c.config.BaseURL, q.Encode())
	if err := c.transport.GetJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	listings := make([]providers.Listing, 0, len(result.Listings))
	for _, l := range result.Listings {
		listings = append(listings, c.convertListing(l))
	}
	return listings, nil
}

// Images returns the photo set for a listing.
func (c *Client) Images(ctx context.Context, listingID string) ([]properties.Image, error) {
	if listingID == "" {
		return nil, pkgerrors.NewValidationError("listing_id", listingID, "cannot be empty")
	}

	var result imagesResponse
	endpoint := fmt.Sprintf("%s/listings/%s/images", c.config.BaseURL, url.PathEscape(listingID))
	if err := c.transport.GetJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	images := make([]properties.Image, 0, len(result.Images))
	for _, img := range result.Images {
		images = append(images, properties.Image{URL: img.URL, Caption: img.Caption})
	}
	return images, nil
}

// convertListing converts a Repliers listing to the intermediate structure.
func (c *Client) convertListing(l listingResponse) providers.Listing {
	line1 := strings.TrimSpace(strings.Join([]string{
		l.Address.StreetNumber, l.Address.StreetName, l.Address.StreetSuffix,
	}, " "))

	listing := providers.Listing{
		ID:           l.MLSNumber,
		Price:        l.ListPrice,
		Status:       l.Status,
		SquareFeet:   l.Details.SquareFeet,
		YearBuilt:    l.Details.YearBuilt,
		PropertyType: l.Details.PropertyType,
		Address: properties.Address{
			Line1:      strings.Join(strings.Fields(line1), " "),
			City:       l.Address.City,
			State:      l.Address.State,
			PostalCode: l.Address.Zip,
		},
	}

	if l.Map.Latitude != nil && l.Map.Longitude != nil {
		listing.Coordinates = &properties.Coordinates{Lat: *l.Map.Latitude, Lng: *l.Map.Longitude}
	}

	for _, u := range l.Images {
		listing.Images = append(listing.Images, properties.Image{URL: u})
	}

	return listing
}
