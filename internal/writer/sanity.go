package writer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Eiat5522/listings-reconciler/pkg/extractor"
	"github.com/Eiat5522/listings-reconciler/pkg/models"
	"github.com/Eiat5522/listings-reconciler/pkg/tracing"
)

// SanityConfig holds the CMS export settings
type SanityConfig struct {
	ProjectID  string
	Dataset    string
	Token      string
	APIVersion string
	BatchSize  int
	MaxRetries int
}

// SanityClient exports the merged collection to the Sanity content store
// via the mutation API. Uploads are batched createOrReplace mutations with
// bounded retry, so a re-run converges to the same documents.
type SanityClient struct {
	config SanityConfig
	client *http.Client
	logger ectologger.Logger
}

// NewSanityClient creates a new Sanity export client
func NewSanityClient(cfg SanityConfig, logger ectologger.Logger) *SanityClient {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 50
	}
	return &SanityClient{
		config: cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

func (c *SanityClient) baseURL() string {
	return fmt.Sprintf("https://%s.api.sanity.io/v%s", c.config.ProjectID, c.config.APIVersion)
}

// CheckAuth verifies the configured token before any mutations are sent
func (c *SanityClient) CheckAuth(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "writer.SanityClient.CheckAuth")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL()+"/users/me", nil)
	if err != nil {
		return fmt.Errorf("creating auth check request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.Token)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Error("Sanity auth check request failed")
		return fmt.Errorf("sanity auth check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return httperror.NewHTTPError(resp.StatusCode, "sanity token rejected")
	}
	if resp.StatusCode != http.StatusOK {
		return httperror.NewHTTPError(resp.StatusCode, "sanity auth check failed")
	}

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"project": c.config.ProjectID,
		"dataset": c.config.Dataset,
	}).Info("Sanity auth check passed")
	return nil
}

// UploadSummary reports the outcome of an export
type UploadSummary struct {
	Uploaded int `json:"uploaded"`
	Skipped  int `json:"skipped"`
}

// UploadListings maps the merged collection to listing documents and
// commits them in batches. Records that cannot produce a document id are
// skipped and counted, never fatal.
func (c *SanityClient) UploadListings(ctx context.Context, listings []models.Listing) (*UploadSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "writer.SanityClient.UploadListings")
	defer span.End()

	summary := &UploadSummary{}
	var mutations []map[string]any
	for _, listing := range listings {
		doc, ok := MapSanityDocument(listing)
		if !ok {
			c.logger.WithContext(ctx).WithFields(map[string]any{
				"name": listing.Name(),
			}).Warn("Skipping listing with no usable document id")
			summary.Skipped++
			continue
		}
		mutations = append(mutations, map[string]any{"createOrReplace": doc})
	}

	for start := 0; start < len(mutations); start += c.config.BatchSize {
		end := start + c.config.BatchSize
		if end > len(mutations) {
			end = len(mutations)
		}
		if err := c.commit(ctx, mutations[start:end]); err != nil {
			return summary, err
		}
		summary.Uploaded += end - start
	}

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"uploaded": summary.Uploaded,
		"skipped":  summary.Skipped,
	}).Info("Sanity export complete")
	return summary, nil
}

// commit posts one mutation batch, retrying transient failures with
// exponential backoff (1s, 2s, 4s, ...)
func (c *SanityClient) commit(ctx context.Context, mutations []map[string]any) error {
	ctx, span := tracing.StartSpan(ctx, "writer.SanityClient.commit")
	defer span.End()

	body, err := json.Marshal(map[string]any{"mutations": mutations})
	if err != nil {
		return fmt.Errorf("serializing mutations: %w", err)
	}

	url := fmt.Sprintf("%s/data/mutate/%s", c.baseURL(), c.config.Dataset)

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			c.logger.WithContext(ctx).WithFields(map[string]any{
				"attempt": attempt,
				"backoff": backoff.String(),
			}).Warn("Retrying sanity mutation batch")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("creating mutation request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}

		lastErr = httperror.NewHTTPError(resp.StatusCode, fmt.Sprintf("sanity mutation failed: %s", strings.TrimSpace(string(respBody))))
		if !retryableStatus(resp.StatusCode) {
			return lastErr
		}
	}

	return fmt.Errorf("sanity mutation batch failed after %d retries: %w", c.config.MaxRetries, lastErr)
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

var docIDUnsafe = regexp.MustCompile(`[#?/\s.]+`)

// SanitizeDocID converts an arbitrary identifier into a valid Sanity
// document id. Returns "" when nothing usable remains.
func SanitizeDocID(id string) string {
	s := docIDUnsafe.ReplaceAllString(strings.ToLower(id), "-")
	return strings.Trim(s, "-")
}

// MapSanityDocument maps a merged listing onto the directory's listing
// document shape. ok is false when no document id can be derived.
func MapSanityDocument(listing models.Listing) (map[string]any, bool) {
	docID := SanitizeDocID(listing.GetString("slug"))
	if docID == "" {
		docID = SanitizeDocID(listing.ID())
	}
	if docID == "" {
		docID = SanitizeDocID(listing.Name())
	}
	if docID == "" {
		return nil, false
	}

	status := strings.ToLower(listing.GetString("status"))
	if status == "" {
		status = "active"
	}

	doc := map[string]any{
		"_id":   docID,
		"_type": "listing",
		"slug":  map[string]any{"_type": "slug", "current": docID},
	}

	setIfPresent := func(key, field string) {
		if v := listing.GetString(field); v != "" {
			doc[key] = v
		}
	}
	setIfPresent("name", models.FieldName)
	setIfPresent("descriptionShort", "description_short")
	setIfPresent("descriptionLong", "description_long")
	setIfPresent("address", models.FieldAddress)
	setIfPresent("city", models.FieldCity)
	setIfPresent("country", "country")
	setIfPresent("postalCode", "postal_code")
	setIfPresent("category", models.FieldCategory)
	setIfPresent("website", "website_url")
	setIfPresent("phone", "phone_number")
	doc["status"] = status

	if urls := httpOnly(listing.StringList("source_urls")); len(urls) > 0 {
		doc["sourceUrls"] = urls
	}
	if features := listing.StringList("digital_nomad_features"); len(features) > 0 {
		doc["digitalNomadFeatures"] = features
	}
	if tags := listing.StringList("eco_focus_tags"); len(tags) > 0 {
		doc["ecoFocusTags"] = tags
	}

	if coords, ok := listing.Coordinates(); ok {
		doc["location"] = map[string]any{
			"_type": "geopoint",
			"lat":   coords.Latitude,
			"lng":   coords.Longitude,
		}
	}

	if rating, ok := extractor.ToFloat(listing["sustainability_rating"]); ok {
		doc["sustainabilityRating"] = rating
	}

	return doc, true
}

func httpOnly(urls []string) []string {
	var out []string
	for _, u := range urls {
		if strings.HasPrefix(u, "http") {
			out = append(out, u)
		}
	}
	return out
}
