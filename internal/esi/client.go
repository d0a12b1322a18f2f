// Package esi fetches corporation starbase data from the EVE Swagger
// Interface.
package esi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"starbase-monitor/internal/domain"
)

type Client struct {
	baseURL       string
	corporationID int64
	auth          *Authenticator
	httpClient    *http.Client
}

func NewClient(baseURL string, corporationID int64, auth *Authenticator, timeout time.Duration) *Client {
	return &Client{
		baseURL:       baseURL,
		corporationID: corporationID,
		auth:          auth,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

// Starbase is one entry of the corporation starbase list.
type Starbase struct {
	StarbaseID int64  `json:"starbase_id"`
	SystemID   int32  `json:"system_id"`
	TypeID     int32  `json:"type_id"`
	MoonID     int32  `json:"moon_id"`
	State      string `json:"state"`
}

// StarbaseDetail carries the fuel bay contents of one starbase.
type StarbaseDetail struct {
	Fuels []domain.FuelBayItem `json:"fuels"`
}

// Structures fetches the corporation's starbases and assembles one
// domain structure per entry: list, then fuel bay detail and display
// name per starbase.
func (c *Client) Structures(ctx context.Context) ([]domain.Structure, error) {
	var starbases []Starbase
	path := fmt.Sprintf("/corporations/%d/starbases/", c.corporationID)
	if err := c.get(ctx, path, &starbases); err != nil {
		return nil, err
	}

	structures := make([]domain.Structure, 0, len(starbases))
	for _, sb := range starbases {
		if sb.StarbaseID == 0 {
			return nil, fmt.Errorf("starbase record missing starbase_id (system %d)", sb.SystemID)
		}

		var detail StarbaseDetail
		detailPath := fmt.Sprintf("/corporations/%d/starbases/%d/?system_id=%d",
			c.corporationID, sb.StarbaseID, sb.SystemID)
		if err := c.get(ctx, detailPath, &detail); err != nil {
			return nil, err
		}

		name, err := c.displayName(ctx, sb)
		if err != nil {
			return nil, err
		}

		structures = append(structures, domain.NewStructure(sb.StarbaseID, sb.SystemID, sb.TypeID, name, detail.Fuels))
	}
	return structures, nil
}

// displayName resolves the anchoring moon's name; towers without a moon
// record fall back to a generic label.
func (c *Client) displayName(ctx context.Context, sb Starbase) (string, error) {
	if sb.MoonID == 0 {
		return fmt.Sprintf("Starbase %d", sb.StarbaseID), nil
	}
	var moon struct {
		Name string `json:"name"`
	}
	if err := c.get(ctx, fmt.Sprintf("/universe/moons/%d/", sb.MoonID), &moon); err != nil {
		return "", err
	}
	return moon.Name, nil
}

// SolarSystemIDs resolves solar system names to ids via the universe
// name lookup. Unknown names are simply absent from the result.
func (c *Client) SolarSystemIDs(ctx context.Context, names []string) (map[string]int32, error) {
	var resolved struct {
		Systems []struct {
			ID   int32  `json:"id"`
			Name string `json:"name"`
		} `json:"systems"`
	}
	if err := c.post(ctx, "/universe/ids/", names, &resolved); err != nil {
		return nil, err
	}
	ids := make(map[string]int32, len(resolved.Systems))
	for _, s := range resolved.Systems {
		ids[s.Name] = s.ID
	}
	return ids, nil
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("esi GET %s: %w", path, err)
	}
	return c.do(req, path, result)
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("esi marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("esi POST %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, result)
}

func (c *Client) do(req *http.Request, path string, result any) error {
	token, err := c.auth.Token(req.Context())
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("esi %s %s: %w", req.Method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("esi read body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("esi HTTP %d on %s: %s", resp.StatusCode, path, string(data))
	}
	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("esi decode %s: %w", path, err)
		}
	}
	return nil
}
