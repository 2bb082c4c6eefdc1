// Package lightbox provides a client for the LightBox spatial, property, and
// valuation APIs. LightBox is the engine's primary source for parcel
// identity, structure attributes, and valuations.
package lightbox

import (
	"context"
	"fmt"
	"net/url"

	"github.com/parcelscope/parcelscope/internal/providers"
	"github.com/parcelscope/parcelscope/internal/transport"
	pkgerrors "github.com/parcelscope/parcelscope/pkg/errors"
	"github.com/parcelscope/parcelscope/pkg/properties"
)

const providerID = string(properties.ProviderLightbox)

// Response structures for the LightBox API.
type parcelsResponse struct {
	Parcels []parcelResponse `json:"parcels"`
}

type parcelResponse struct {
	ID       string  `json:"id"`
	FIPS     string  `json:"fips"`
	Score    float64 `json:"score"`
	Location struct {
		Address    string `json:"streetAddress"`
		City       string `json:"locality"`
		State      string `json:"regionCode"`
		PostalCode string `json:"postalCode"`
	} `json:"location"`
	Geometry struct {
		Centroid struct {
			Lat float64 `json:"latitude"`
			Lng float64 `json:"longitude"`
		} `json:"representativePoint"`
	} `json:"geometry"`
}

type structureResponse struct {
	PropertyType    *string `json:"landUseDescription"`
	YearBuilt       *int    `json:"yearBuilt"`
	TotalSquareFeet *int    `json:"totalSquareFootage"`
}

type valuationResponse struct {
	MarketValue   *float64 `json:"marketValue"`
	AssessedValue *float64 `json:"assessedValue"`
}

// Client implements the providers.PropertyData capability set for LightBox.
type Client struct {
	config    *providers.Provider
	transport *transport.Client
}

// New creates a LightBox client. Tokens are supplied per request through the
// credential manager's source, so the client never holds a credential.
func New(config *providers.Provider, tokens transport.TokenSource, opts ...transport.Option) *Client {
	base := []transport.Option{transport.WithTimeout(config.Timeout)}
	if rl := config.RateLimit; rl != nil {
		base = append(base, transport.WithRateLimit(rl.RequestsPerSecond, rl.Burst))
	}
	return &Client{
		config:    config,
		transport: transport.New(providerID, &transport.BearerAuth{Source: tokens}, append(base, opts...)...),
	}
}

// LookupByAddress resolves a postal address to its best parcel match.
func (c *Client) LookupByAddress(ctx context.Context, addr properties.Address) (*providers.Parcel, error) {
	if err := addr.Validate(); err != nil {
		return nil, pkgerrors.WrapValidation("address", err)
	}

	q := url.Values{}
	q.Set("text", addr.Line1)
	if addr.City != "" {
		q.Set("locality", addr.City)
	}
	if addr.State != "" {
		q.Set("regionCode", addr.State)
	}
	if addr.PostalCode != "" {
		q.Set("postalCode", addr.PostalCode)
	}

	var result parcelsResponse
	endpoint := fmt.Sprintf("%s/parcels/address?%s", c.config.BaseURL, q.Encode())
	if err := c.transport.GetJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	if len(result.Parcels) == 0 {
		return nil, pkgerrors.NewNotFoundError("parcel", addr.String())
	}

	best := c.convertParcel(result.Parcels[0])
	return &best, nil
}

// LookupBySpatial returns parcel candidates containing or nearest to a
// coordinate.
func (c *Client) LookupBySpatial(ctx context.Context, lat, lng float64) ([]providers.Parcel, error) {
	endpoint := fmt.Sprintf("%s/parcels/geometry?wkt=POINT(%f %f)", c.config.BaseURL, lng, lat)

	var result parcelsResponse
	if err := c.transport.GetJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	parcels := make([]providers.Parcel, 0, len(result.Parcels))
	for _, p := range result.Parcels {
		parcels = append(parcels, c.convertParcel(p))
	}
	return parcels, nil
}

// Structure returns the physical attributes of a parcel's improvement.
func (c *Client) Structure(ctx context.Context, parcelID string) (*properties.Structure, error) {
	var result structureResponse
	endpoint := fmt.Sprintf("%s/parcels/%s/structure", c.config.BaseURL, url.PathEscape(parcelID))
	if err := c.transport.GetJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	return &properties.Structure{
		PropertyType: result.PropertyType,
		YearBuilt:    result.YearBuilt,
		SquareFeet:   result.TotalSquareFeet,
	}, nil
}

// Valuation returns current and assessed values for a parcel.
func (c *Client) Valuation(ctx context.Context, parcelID string) (*properties.Valuation, error) {
	var result valuationResponse
	endpoint := fmt.Sprintf("%s/parcels/%s/valuation", c.config.BaseURL, url.PathEscape(parcelID))
	if err := c.transport.GetJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	return &properties.Valuation{
		CurrentValue:  result.MarketValue,
		AssessedValue: result.AssessedValue,
	}, nil
}

// convertParcel converts a LightBox parcel to the intermediate structure.
func (c *Client) convertParcel(p parcelResponse) providers.Parcel {
	parcel := providers.Parcel{
		ID:    p.ID,
		Score: p.Score,
		Address: properties.Address{
			Line1:      p.Location.Address,
			City:       p.Location.City,
			State:      p.Location.State,
			PostalCode: p.Location.PostalCode,
		},
	}
	if p.Geometry.Centroid.Lat != 0 || p.Geometry.Centroid.Lng != 0 {
		parcel.Coordinates = &properties.Coordinates{
			Lat: p.Geometry.Centroid.Lat,
			Lng: p.Geometry.Centroid.Lng,
		}
	}
	return parcel
}
