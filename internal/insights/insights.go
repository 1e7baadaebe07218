// Package insights calls the Gemini generateContent endpoint to turn an
// aggregated summary into narrative insight blocks. Generation never fails
// from the caller's point of view: every error path collapses to a single
// warning insight, so the dashboard always has a list to render.
package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"hemostats/internal/distribution/model"
)

// ProductTotal is one line of the summary payload sent to the model.
type ProductTotal struct {
	Product      string         `json:"product"`
	Total        int            `json:"total"`
	Distribution map[string]int `json:"distribution,omitempty"`
}

type Metadata struct {
	Site   string `json:"site"`
	Period string `json:"period"`
}

type Request struct {
	SiteSummary     []ProductTotal `json:"siteSummary"`
	NationalSummary []ProductTotal `json:"nationalSummary"`
	Metadata        Metadata       `json:"metadata"`
}

type Client struct {
	apiKey  string
	model   string
	baseURL string
	hc      *http.Client
	log     zerolog.Logger
}

func New(apiKey, modelName string, log zerolog.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   modelName,
		baseURL: "https://generativelanguage.googleapis.com/v1beta",
		hc:      &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

func fallback() []model.Insight {
	return []model.Insight{{
		Title:   "Analyse indisponible",
		Content: "Impossible de générer des insights pour le moment. Vérifiez la connexion ou la clé API.",
		Type:    "warning",
	}}
}

// Generate produces the insight list for one summary payload.
func (c *Client) Generate(ctx context.Context, req Request) []model.Insight {
	if c.apiKey == "" {
		c.log.Warn().Msg("insights: no API key configured")
		return fallback()
	}
	out, err := c.call(ctx, req)
	if err != nil {
		c.log.Warn().Err(err).Str("site", req.Metadata.Site).Msg("insight generation failed")
		return fallback()
	}
	if len(out) == 0 {
		return fallback()
	}
	return out
}

func buildPrompt(req Request) (string, error) {
	site, err := json.Marshal(req.SiteSummary)
	if err != nil {
		return "", err
	}
	national, err := json.Marshal(req.NationalSummary)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`En tant qu'expert en analyse de données médicales pour HÉMOSTATS CI (distribution de produits sanguins en Côte d'Ivoire), analyse la période %s pour le site %s.

Données du site: %s
Données nationales: %s

Identifie: 1) les groupes sanguins en tension, 2) les écarts entre le site et la moyenne nationale, 3) des recommandations pour la prochaine campagne de collecte.

Réponds uniquement au format JSON: {"insights":[{"title":"...","content":"...","type":"info"|"warning"|"success"}]}`,
		req.Metadata.Period, req.Metadata.Site, site, national), nil
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content `json:"contents"`
	GenerationConfig struct {
		ResponseMimeType string `json:"responseMimeType"`
	} `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (c *Client) call(ctx context.Context, req Request) ([]model.Insight, error) {
	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, err
	}

	var body generateRequest
	body.Contents = []content{{Parts: []part{{Text: prompt}}}}
	body.GenerationConfig.ResponseMimeType = "application/json"

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var gr generateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return nil, err
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty model response")
	}
	return parseInsights(gr.Candidates[0].Content.Parts[0].Text)
}

func parseInsights(text string) ([]model.Insight, error) {
	text = strings.TrimSpace(text)
	// models occasionally wrap JSON in a markdown fence despite the mime type
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var parsed struct {
		Insights []model.Insight `json:"insights"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &parsed); err != nil {
		return nil, err
	}
	for i := range parsed.Insights {
		switch parsed.Insights[i].Type {
		case "info", "warning", "success":
		default:
			parsed.Insights[i].Type = "info"
		}
	}
	return parsed.Insights, nil
}
