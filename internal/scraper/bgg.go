package scraper

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"

	"github.com/ThisIsAreku/Aubonmeeple/internal/models"
	"github.com/ThisIsAreku/Aubonmeeple/internal/normalize"
)

const bggBaseURL = "https://boardgamegeek.com"

// byteFetcher is the raw-body half of the shared fetcher, enough for the
// BGG XML API.
type byteFetcher interface {
	Bytes(ctx context.Context, urlStr string) ([]byte, error)
}

// BGG looks up ratings through the boardgamegeek XML API2: a search call
// resolves the name to a thing id, a stats call returns the average rating.
type BGG struct {
	fetch byteFetcher
}

func NewBGG(f *Fetcher) *BGG {
	return &BGG{fetch: f}
}

func (b *BGG) Name() string {
	return "bgg"
}

type bggSearchResult struct {
	Items []bggSearchItem `xml:"item"`
}

type bggSearchItem struct {
	ID   string `xml:"id,attr"`
	Name struct {
		Value string `xml:"value,attr"`
	} `xml:"name"`
}

type bggThingResult struct {
	Items []struct {
		Statistics struct {
			Ratings struct {
				Average struct {
					Value float64 `xml:"value,attr"`
				} `xml:"average"`
				UsersRated struct {
					Value int `xml:"value,attr"`
				} `xml:"usersrated"`
			} `xml:"ratings"`
		} `xml:"statistics"`
	} `xml:"item"`
}

// Lookup resolves name against the BGG search API and returns the matched
// game's average rating, or nil when nothing matches confidently.
func (b *BGG) Lookup(ctx context.Context, name string) (*models.Reviewer, error) {
	searchURL := bggBaseURL + "/xmlapi2/search?type=boardgame&query=" + url.QueryEscape(name)
	body, err := b.fetch.Bytes(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("bgg search: %w", err)
	}

	var search bggSearchResult
	if err := xml.Unmarshal(body, &search); err != nil {
		return nil, fmt.Errorf("bgg search decode: %w", err)
	}

	thingID := ""
	for _, item := range search.Items {
		if normalize.SameGame(item.Name.Value, name) {
			thingID = item.ID
			break
		}
	}
	if thingID == "" {
		return nil, nil
	}

	statsURL := bggBaseURL + "/xmlapi2/thing?stats=1&id=" + url.QueryEscape(thingID)
	body, err = b.fetch.Bytes(ctx, statsURL)
	if err != nil {
		return nil, fmt.Errorf("bgg thing %s: %w", thingID, err)
	}

	var thing bggThingResult
	if err := xml.Unmarshal(body, &thing); err != nil {
		return nil, fmt.Errorf("bgg thing decode: %w", err)
	}
	if len(thing.Items) == 0 {
		return nil, nil
	}

	ratings := thing.Items[0].Statistics.Ratings
	if ratings.Average.Value < 0 || ratings.UsersRated.Value < 0 {
		return nil, nil
	}

	return &models.Reviewer{
		Name:   "bgg",
		Note:   ratings.Average.Value,
		Number: ratings.UsersRated.Value,
		URL:    bggBaseURL + "/boardgame/" + thingID,
	}, nil
}
