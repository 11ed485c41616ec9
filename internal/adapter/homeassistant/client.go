package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/weather-warning-service/internal/domain"
	"github.com/couchcryptid/weather-warning-service/internal/observability"
	"github.com/couchcryptid/weather-warning-service/internal/translation"
)

// Client reads entity states from the Home Assistant REST API and runs AI
// tasks through its service API. It implements translation.Generator.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Home Assistant client authenticated with a long-lived access token.
func NewClient(baseURL, token string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: metrics,
		logger:  logger,
	}
}

// Snapshot reads the entity states and device registrations the collector
// needs for the selected sources. States unrelated to the sources are dropped.
func (c *Client) Snapshot(ctx context.Context, src domain.Sources) (domain.Snapshot, error) {
	snap := domain.Snapshot{
		States:         make(map[string]domain.EntityState),
		DeviceEntities: make(map[string][]string),
	}

	wanted := make(map[string]bool)
	if src.DWDDevice != "" {
		ids, err := c.DeviceEntities(ctx, src.DWDDevice)
		if err != nil {
			return domain.Snapshot{}, err
		}
		snap.DeviceEntities[src.DWDDevice] = ids
		for _, id := range ids {
			wanted[id] = true
		}
	}

	states, err := c.States(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	for _, st := range states {
		if wanted[st.EntityID] || (src.NINAPrefix != "" && strings.HasPrefix(st.EntityID, src.NINAPrefix+"_")) {
			snap.States[st.EntityID] = st
		}
	}
	return snap, nil
}

// States returns all entity states.
func (c *Client) States(ctx context.Context) ([]domain.EntityState, error) {
	var states []domain.EntityState
	if err := c.doJSON(ctx, http.MethodGet, "/api/states", nil, "states", &states); err != nil {
		return nil, err
	}
	return states, nil
}

// DeviceEntities returns the entity ids registered on a device by rendering
// a device_entities template.
func (c *Client) DeviceEntities(ctx context.Context, deviceID string) ([]string, error) {
	tmpl := fmt.Sprintf("{{ device_entities('%s') | tojson }}", strings.ReplaceAll(deviceID, "'", `\'`))
	body := map[string]string{"template": tmpl}

	raw, err := c.do(ctx, http.MethodPost, "/api/template", body, "template")
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal(bytes.TrimSpace(raw), &ids); err != nil {
		return nil, fmt.Errorf("decode device entities for %s: %w", deviceID, err)
	}
	return ids, nil
}

// Generate calls ai_task.generate_data and returns the service response.
func (c *Client) Generate(ctx context.Context, req translation.GenerateRequest) (json.RawMessage, error) {
	body := map[string]string{
		"task_name":    req.TaskName,
		"instructions": req.Instructions,
	}
	if req.EntityID != "" {
		body["entity_id"] = req.EntityID
	}

	var resp serviceResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/services/ai_task/generate_data?return_response", body, "ai_task", &resp); err != nil {
		return nil, err
	}
	if len(resp.ServiceResponse) == 0 {
		return nil, fmt.Errorf("ai_task returned no service response: %w", translation.ErrNoTranslation)
	}
	return resp.ServiceResponse, nil
}

// CheckReadiness verifies the API is reachable and the token is accepted.
func (c *Client) CheckReadiness(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/api/", nil, "api")
	return err
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, endpoint string, out any) error {
	raw, err := c.do(ctx, method, path, body, endpoint)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, endpoint string) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", endpoint, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.HomeAssistantDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("home assistant API error: %s: status %d: %s", endpoint, resp.StatusCode, bytes.TrimSpace(data))
	}

	c.logger.Debug("home assistant request", "endpoint", endpoint, "duration", time.Since(start))
	return data, nil
}

type serviceResponse struct {
	ServiceResponse json.RawMessage `json:"service_response"`
}
