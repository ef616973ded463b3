package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Annonces</title>
  <entry>
    <id>123456</id>
    <title>Catan (5th Edition) - Jeu de base</title>
    <updated>2024-06-01T10:30:00Z</updated>
    <link href="https://www.okkazeo.com/annonces/view/123456"/>
    <summary type="html">&lt;img src="x.jpg"/&gt;&lt;b&gt;25.50€&lt;/b&gt;</summary>
  </entry>
  <entry>
    <id>not-a-number</id>
    <title>Broken - Jeu de base</title>
    <updated>2024-06-01T10:31:00Z</updated>
    <link href="https://www.okkazeo.com/annonces/view/0"/>
    <summary type="html">&lt;b&gt;10.00€&lt;/b&gt;</summary>
  </entry>
  <entry>
    <id>123457</id>
    <title>7 Wonders</title>
    <updated>2024-06-01T10:32:00Z</updated>
    <link href="https://www.okkazeo.com/annonces/view/123457"/>
    <summary type="html">&lt;b&gt;prix sur demande&lt;/b&gt;</summary>
  </entry>
  <entry>
    <id>123458</id>
    <title>Azul - Jeu de base</title>
    <updated>2024-06-01T10:33:00Z</updated>
    <link href="https://www.okkazeo.com/annonces/view/123458"/>
    <summary type="html">&lt;b&gt;18.00€&lt;/b&gt;</summary>
  </entry>
</feed>`

func TestDecode_PerEntryOutcomes(t *testing.T) {
	outcomes, err := Decode(strings.NewReader(sampleFeed))
	require.NoError(t, err)
	require.Len(t, outcomes, 4, "every entry must yield an outcome")

	first := outcomes[0]
	require.NoError(t, first.Err)
	assert.Equal(t, int64(123456), first.Announce.ID)
	assert.Equal(t, "Catan (5th Edition) - Jeu de base", first.Announce.Name)
	assert.InDelta(t, 25.50, first.Announce.Price, 1e-9)
	assert.Equal(t, "https://www.okkazeo.com/annonces/view/123456", first.Announce.URL)
	assert.Equal(t, time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC), first.Announce.LastModificationDate)

	assert.Error(t, outcomes[1].Err, "malformed id must be an entry error, not fatal")
	assert.Error(t, outcomes[2].Err, "unparsable price must be an entry error, not fatal")

	last := outcomes[3]
	require.NoError(t, last.Err, "entries after a bad one must still decode")
	assert.Equal(t, int64(123458), last.Announce.ID)
}

func TestDecode_PreservesFeedOrder(t *testing.T) {
	outcomes, err := Decode(strings.NewReader(sampleFeed))
	require.NoError(t, err)

	var ids []int64
	for _, o := range outcomes {
		if o.Err == nil {
			ids = append(ids, o.Announce.ID)
		}
	}
	assert.Equal(t, []int64{123456, 123458}, ids)
}

func TestDecode_NotXML(t *testing.T) {
	_, err := Decode(strings.NewReader("<html><body>blocked</body></html>"))
	assert.Error(t, err)
}

func TestMarketplaceReference(t *testing.T) {
	outcomes, err := Decode(strings.NewReader(sampleFeed))
	require.NoError(t, err)

	ref := MarketplaceReference(outcomes[0].Announce)
	assert.Equal(t, "okkazeo", ref.Name)
	assert.InDelta(t, 25.50, ref.Price, 1e-9)
	assert.Equal(t, outcomes[0].Announce.URL, ref.URL)
}
