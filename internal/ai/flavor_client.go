package ai

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/secthall/contribution-backend/internal/syncctx"
	"google.golang.org/genai"
)

// FlavorClient asks Gemini for a one-line congratulation to decorate a
// promotion announcement. Strictly optional: callers fall back to a
// template when generation or parsing fails.
type FlavorClient struct {
	model string
}

func NewFlavorClient() *FlavorClient {
	model := os.Getenv("GEMINI_FLAVOR_MODEL")
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &FlavorClient{model: model}
}

// Congratulation generates a single celebratory line for a member
// promoted to the given role at the given total.
func (c *FlavorClient) Congratulation(ctx context.Context, role string, total int64) (string, error) {
	rid := syncctx.RID(ctx)
	member := syncctx.MemberID(ctx)
	start := time.Now()
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		log.Printf("[flavor] rid=%s member=%d stage=client_init err=%v", rid, member, err)
		return "", err
	}

	prompt := `You write one-line congratulations for rank promotions in a martial-arts themed community.
Write exactly one short celebratory sentence for a member who just reached the given rank.
Rules: one line only, no newlines, no emoji, no member names, no quotes, at most 140 characters.
Stay in a wuxia cultivation register (disciples, elders, ascension).`

	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromText(fmt.Sprintf("Rank: %s\nTotal contribution points: %d", role, total)),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}
	temp := float32(0.7)
	config := &genai.GenerateContentConfig{
		Temperature: &temp,
	}
	res, err := client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		log.Printf("[flavor] rid=%s member=%d stage=gemini_fail model=%s err=%v", rid, member, c.model, err)
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	line, err := CleanLine(res.Text())
	if err != nil {
		log.Printf("[flavor] rid=%s member=%d stage=parse_fail err=%v", rid, member, err)
		return "", err
	}
	log.Printf("[flavor] rid=%s member=%d stage=ok model=%s totalMs=%d", rid, member, c.model, time.Since(start).Milliseconds())
	return line, nil
}
