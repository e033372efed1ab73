// Package locations looks up Vietnamese provinces, districts and wards on the
// public provinces API.
package locations

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/pharmacy_storefront/internal/models"
	"github.com/tidwall/gjson"
)

var adminPrefix = regexp.MustCompile(`(?i)^(Thành phố|Tỉnh|Quận|Huyện|Thị xã)\s+`)

// CleanName drops the administrative prefix the pharmacy lookup does not use.
func CleanName(name string) string {
	return adminPrefix.ReplaceAllString(strings.TrimSpace(name), "")
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Provinces(ctx context.Context) ([]models.Location, error) {
	body, err := c.get(ctx, "/p/")
	if err != nil {
		return nil, err
	}
	return locationsFrom(gjson.ParseBytes(body)), nil
}

func (c *Client) Districts(ctx context.Context, provinceCode int) ([]models.Location, error) {
	if provinceCode == 0 {
		return []models.Location{}, nil
	}
	body, err := c.get(ctx, "/p/"+strconv.Itoa(provinceCode)+"?depth=2")
	if err != nil {
		return nil, err
	}
	return locationsFrom(gjson.GetBytes(body, "districts")), nil
}

func (c *Client) Wards(ctx context.Context, districtCode int) ([]models.Location, error) {
	if districtCode == 0 {
		return []models.Location{}, nil
	}
	body, err := c.get(ctx, "/d/"+strconv.Itoa(districtCode)+"?depth=2")
	if err != nil {
		return nil, err
	}
	return locationsFrom(gjson.GetBytes(body, "wards")), nil
}

// Find matches a location by exact name or by name without its prefix.
func Find(list []models.Location, name string) (models.Location, bool) {
	want := strings.ToLower(CleanName(name))
	for _, l := range list {
		if strings.EqualFold(l.Name, name) || strings.ToLower(CleanName(l.Name)) == want {
			return l, true
		}
	}
	return models.Location{}, false
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("locations: status %d", resp.StatusCode)
	}
	return body, nil
}

func locationsFrom(res gjson.Result) []models.Location {
	out := []models.Location{}
	res.ForEach(func(_, item gjson.Result) bool {
		out = append(out, models.Location{
			Name: item.Get("name").String(),
			Code: int(item.Get("code").Int()),
		})
		return true
	})
	return out
}
