package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/ThisIsAreku/Aubonmeeple/internal/models"
)

const (
	colorSmallDiscount = 3092790  // #2F3136
	colorGoodDiscount  = 16753920 // #FFA500
	colorBigDiscount   = 16711680 // #FF0000

	discountThresholdGood = -30.0
	discountThresholdBig  = -50.0
)

// Discord posts bargain alerts to a webhook. An empty webhook URL makes
// every call a no-op, so the notifier can always be wired in.
type Discord struct {
	webhookURL string
	client     *http.Client
}

func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type discordWebhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds"`
}

type discordEmbedThumbnail struct {
	URL string `json:"url,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordEmbed struct {
	Title       string                `json:"title,omitempty"`
	Description string                `json:"description,omitempty"`
	URL         string                `json:"url,omitempty"`
	Timestamp   string                `json:"timestamp,omitempty"`
	Color       int                   `json:"color,omitempty"`
	Thumbnail   discordEmbedThumbnail `json:"thumbnail,omitempty"`
	Fields      []discordEmbedField   `json:"fields,omitempty"`
}

// NotifyDeal posts one embed for a bargain.
func (d *Discord) NotifyDeal(ctx context.Context, game *models.Game) error {
	if d.webhookURL == "" {
		return nil
	}

	payload := discordWebhookPayload{Embeds: []discordEmbed{formatGameEmbed(game)}}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	bodyBytes, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("discord status: %s, body: %s", resp.Status, string(bodyBytes))
}

func formatGameEmbed(game *models.Game) discordEmbed {
	title := fmt.Sprintf("%s : %.2f € (%.0f%%)",
		game.Announce.Name, game.Announce.Price, game.Deal.Percentage)

	fields := make([]discordEmbedField, 0, len(game.References))
	for _, source := range sortedReferenceNames(game.References) {
		ref := game.References[source]
		fields = append(fields, discordEmbedField{
			Name:   source,
			Value:  fmt.Sprintf("[%.2f €](%s)", ref.Price, ref.URL),
			Inline: true,
		})
	}

	var description string
	if game.Review.AverageNote > 0 {
		description = fmt.Sprintf("Note moyenne : %.1f/10", game.Review.AverageNote)
	}

	var thumbnail discordEmbedThumbnail
	if game.Announce.Image != "" {
		thumbnail.URL = game.Announce.Image
	}

	var isoTimestamp string
	if !game.Announce.LastModificationDate.IsZero() {
		isoTimestamp = game.Announce.LastModificationDate.Format(time.RFC3339)
	}

	return discordEmbed{
		Title:       title,
		URL:         game.Announce.URL,
		Description: description,
		Timestamp:   isoTimestamp,
		Color:       discountColor(game.Deal.Percentage),
		Thumbnail:   thumbnail,
		Fields:      fields,
	}
}

func sortedReferenceNames(refs map[string]models.Reference) []string {
	names := make([]string, 0, len(refs))
	for name := range refs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func discountColor(percentage float64) int {
	if percentage <= discountThresholdBig {
		return colorBigDiscount
	}
	if percentage <= discountThresholdGood {
		return colorGoodDiscount
	}
	return colorSmallDiscount
}
