//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go/modules/compose"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	baseURL    string
	httpClient *http.Client
)

// Response types are defined locally to keep tests black-box (no internal imports).

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type skuResponse struct {
	ID          uint64 `json:"id"`
	ProductID   uint64 `json:"product_id"`
	Sku         string `json:"sku"`
	Detail      string `json:"detail"`
	CustomPrice string `json:"custom_price"`
}

type productResponse struct {
	ProductID   uint64        `json:"product_id"`
	ProductName string        `json:"product_name"`
	DetailDesc  string        `json:"detail_desc"`
	MainURL     string        `json:"main_url"`
	Skus        []skuResponse `json:"skus"`
}

type saleProductResponse struct {
	ProductID uint64 `json:"product_id"`
	SaleCount int32  `json:"sale_count"`
}

type saleProductDataResponse struct {
	Product   productResponse `json:"product"`
	SaleCount int32           `json:"sale_count"`
}

type importResponse struct {
	ProductID uint64 `json:"product_id"`
	Skus      int    `json:"skus"`
}

type importSku struct {
	Sku         string `json:"sku"`
	Detail      string `json:"detail,omitempty"`
	CustomPrice string `json:"custom_price"`
}

type importRequest struct {
	ProductID uint64      `json:"product_id"`
	Name      string      `json:"name"`
	Desc      string      `json:"desc,omitempty"`
	URL       string      `json:"url,omitempty"`
	Skus      []importSku `json:"skus"`
}

// Seeded catalog. Products 1001 and 1002 are listed in shop 20 by
// testdata/seed.sql.
const (
	tenantID   = 7
	producerID = 3
	shopID     = 20
)

var seed = []struct {
	path string
	body importRequest
}{
	{
		path: fmt.Sprintf("/api/tenants/%d/products", tenantID),
		body: importRequest{
			ProductID: 1001,
			Name:      "Waffle with Berries",
			Desc:      "Belgian waffle",
			URL:       "https://cdn.example.com/1001.png",
			Skus: []importSku{
				{Sku: "WAF-S", Detail: "small", CustomPrice: "6.50"},
				{Sku: "WAF-L", Detail: "large", CustomPrice: "9.00"},
			},
		},
	},
	{
		path: fmt.Sprintf("/api/tenants/%d/products", tenantID),
		body: importRequest{ProductID: 1002, Name: "Creme Brulee", Skus: []importSku{{Sku: "CB-1", CustomPrice: "7.00"}}},
	},
	{
		path: fmt.Sprintf("/api/producers/%d/products", producerID),
		body: importRequest{ProductID: 2001, Name: "Macaron Mix", Skus: []importSku{{Sku: "MAC-6", CustomPrice: "8.00"}}},
	},
}

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Create coverage output directory for the instrumented binary.
	if err := os.MkdirAll("coverdir", 0o777); err != nil {
		log.Fatalf("create coverdir: %v", err)
	}

	dc, err := tc.NewDockerCompose("docker-compose.test.yml")
	if err != nil {
		log.Fatalf("compose init: %v", err)
	}

	// Start postgres + api, wait until the API readiness check passes.
	err = dc.
		WaitForService("api", wait.ForHTTP("/readyz").WithPort("8080/tcp")).
		Up(ctx, tc.Wait(true))
	if err != nil {
		log.Fatalf("compose up: %v", err)
	}

	apiContainer, err := dc.ServiceContainer(ctx, "api")
	if err != nil {
		log.Fatalf("api container: %v", err)
	}

	host, err := apiContainer.Host(ctx)
	if err != nil {
		log.Fatalf("host: %v", err)
	}

	mappedPort, err := apiContainer.MappedPort(ctx, "8080/tcp")
	if err != nil {
		log.Fatalf("mapped port: %v", err)
	}

	baseURL = fmt.Sprintf("http://%s:%s", host, mappedPort.Port())
	httpClient = &http.Client{Timeout: 10 * time.Second}
	log.Printf("API available at %s", baseURL)

	if err := seedCatalog(ctx); err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Printf("seeded %d products", len(seed))

	result := m.Run()

	// Stop the API container gracefully so the coverage-instrumented binary
	// flushes coverage data to GOCOVERDIR (bind-mounted to ./coverdir).
	// The compose file sets stop_signal: SIGINT because app.Run handles
	// SIGINT (not SIGTERM) for graceful shutdown.
	stopTimeout := 30 * time.Second
	if err := apiContainer.Stop(ctx, &stopTimeout); err != nil {
		log.Printf("stop api container: %v", err)
	}

	if err := dc.Down(context.Background(), tc.RemoveOrphans(true)); err != nil {
		log.Printf("compose down: %v", err)
	}

	return result
}

// seedCatalog imports the seed products through the public API.
func seedCatalog(ctx context.Context) error {
	for _, s := range seed {
		data, err := json.Marshal(s.body)
		if err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+s.path, bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("import %d: %w", s.body.ProductID, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			return fmt.Errorf("import %d: status %d", s.body.ProductID, resp.StatusCode)
		}
	}
	return nil
}

// HTTP helpers.

func doGet(t *testing.T, path string) *http.Response {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, baseURL+path, nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}

	return resp
}

func doPost(t *testing.T, path string, body any) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, baseURL+path, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}

	return resp
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	return v
}

func decodeData[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	env := decodeJSON[envelope[T]](t, resp)
	if env.Code != 0 {
		t.Fatalf("envelope code: got %d, want 0 (%s)", env.Code, env.Message)
	}
	return env.Data
}
