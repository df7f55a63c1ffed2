package lookup

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

type apodResponse struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	MediaType   string `json:"media_type"`
	URL         string `json:"url"`
	Explanation string `json:"explanation"`
}

// SpacePhoto returns NASA's astronomy picture of the day. date is
// YYYY-MM-DD or empty for today.
func (c *Client) SpacePhoto(ctx context.Context, date string) (string, error) {
	if c.NasaKey == "" {
		return "", ErrUnauthorized
	}
	q := url.Values{"api_key": {c.NasaKey}}
	if date != "" {
		q.Set("date", date)
	}

	var data apodResponse
	if _, err := c.get(ctx, c.NasaURL+"?"+q.Encode(), nil, &data); err != nil {
		return "", err
	}

	explanation := data.Explanation
	if r := []rune(explanation); len(r) > 500 {
		explanation = string(r[:497]) + "..."
	}
	kind := "Видео"
	emoji := "🎥"
	if data.MediaType == "image" {
		kind = "Изображение"
		emoji = "📷"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🌌 Космическое фото дня: %s\n", data.Title)
	fmt.Fprintf(&b, "📅 Дата: %s\n", data.Date)
	fmt.Fprintf(&b, "%s Тип: %s\n", emoji, kind)
	fmt.Fprintf(&b, "🔗 Ссылка: %s\n", data.URL)
	fmt.Fprintf(&b, "📖 Описание: %s", explanation)
	return b.String(), nil
}
