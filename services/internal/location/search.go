package location

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/location"
	"github.com/aws/aws-sdk-go-v2/service/location/types"
)

// SearchQuery parameters for a free-text place search.
type SearchQuery struct {
	Text         string
	MaxResults   int32
	BiasPosition []float64
}

// Place is one place search hit.
type Place struct {
	PlaceId       string    `json:"PlaceId,omitempty"`
	Label         string    `json:"Label"`
	Position      []float64 `json:"Position"`
	AddressNumber string    `json:"AddressNumber,omitempty"`
	Street        string    `json:"Street,omitempty"`
	Municipality  string    `json:"Municipality,omitempty"`
	Region        string    `json:"Region,omitempty"`
	PostalCode    string    `json:"PostalCode,omitempty"`
	Country       string    `json:"Country,omitempty"`
	Distance      *float64  `json:"Distance,omitempty"`
	Relevance     *float64  `json:"Relevance,omitempty"`
}

// SearchPlaces runs SearchPlaceIndexForText against the configured index.
func (c *Client) SearchPlaces(ctx context.Context, q SearchQuery) ([]Place, error) {
	in := &sdk.SearchPlaceIndexForTextInput{
		IndexName:    aws.String(c.names.PlaceIndex),
		Text:         aws.String(q.Text),
		BiasPosition: q.BiasPosition,
	}
	if q.MaxResults > 0 {
		in.MaxResults = aws.Int32(q.MaxResults)
	}

	out, err := c.api.SearchPlaceIndexForText(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("search places %q: %w", q.Text, err)
	}

	places := make([]Place, 0, len(out.Results))
	for _, r := range out.Results {
		places = append(places, placeFromResult(r))
	}
	return places, nil
}

func placeFromResult(r types.SearchForTextResult) Place {
	p := Place{
		PlaceId:   aws.ToString(r.PlaceId),
		Distance:  r.Distance,
		Relevance: r.Relevance,
	}
	if r.Place == nil {
		return p
	}
	p.Label = aws.ToString(r.Place.Label)
	p.AddressNumber = aws.ToString(r.Place.AddressNumber)
	p.Street = aws.ToString(r.Place.Street)
	p.Municipality = aws.ToString(r.Place.Municipality)
	p.Region = aws.ToString(r.Place.Region)
	p.PostalCode = aws.ToString(r.Place.PostalCode)
	p.Country = aws.ToString(r.Place.Country)
	if r.Place.Geometry != nil {
		p.Position = r.Place.Geometry.Point
	}
	return p
}
