/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultShareLink is appended to shared results unless overridden.
const DefaultShareLink = "https://github.com/Seednode/hilo"

const telegramAgent = "Telegram"

// ShareMethod is how a binding should deliver share text.
type ShareMethod string

const (
	ShareNative    ShareMethod = "native"
	ShareDeepLink  ShareMethod = "deep_link"
	ShareClipboard ShareMethod = "clipboard"
)

// Capabilities describes what the player's platform can do.
type Capabilities struct {
	NativeShare bool   `json:"native"`
	UserAgent   string `json:"user_agent"`
}

// SharePlan is the text to share and the chosen delivery.
type SharePlan struct {
	Method ShareMethod `json:"method"`
	Text   string      `json:"text"`
	URL    string      `json:"url,omitempty"`
	Notice string      `json:"notice,omitempty"`
}

// ShareText composes the multi-line result block. stats may be nil when the
// totals never arrived.
func ShareText(score Score, stats *Stats, link string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "hilo %d/%d\n", score.Correct(), MetricCount)
	b.WriteString(score.Glyphs())
	b.WriteString("\n")
	if stats != nil {
		fmt.Fprintf(&b, "Accuracy: %s | Avg time: %ss\n", stats.Accuracy(), stats.AverageTime())
	}
	b.WriteString(link)

	return b.String()
}

// PlanShare picks native share, then the Telegram deep link, then clipboard.
func PlanShare(caps Capabilities, text, link string) SharePlan {
	switch {
	case caps.NativeShare:
		return SharePlan{Method: ShareNative, Text: text, URL: link}
	case strings.Contains(caps.UserAgent, telegramAgent):
		return SharePlan{Method: ShareDeepLink, Text: text, URL: TelegramLink(text, link)}
	default:
		return SharePlan{Method: ShareClipboard, Text: text, Notice: "Results copied to clipboard!"}
	}
}

// TelegramLink is a t.me share URL carrying text and link.
func TelegramLink(text, link string) string {
	q := url.Values{}
	q.Set("url", link)
	q.Set("text", text)
	return "https://t.me/share/url?" + q.Encode()
}
