package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// EStampService handles interactions with the electronic-stamping provider.
// Stamping failures are non-fatal everywhere; callers log and continue.
type EStampService struct {
	baseURL string
	apiKey  string
}

// NewEStampService creates a new e-stamp service instance
func NewEStampService() *EStampService {
	baseURL := os.Getenv("ESTAMP_BASE_URL")
	apiKey := os.Getenv("ESTAMP_API_KEY")

	if baseURL == "" || apiKey == "" {
		log.Printf("WARNING: e-stamp credentials not fully configured:")
		if baseURL == "" {
			log.Printf("  - ESTAMP_BASE_URL is missing")
		}
		if apiKey == "" {
			log.Printf("  - ESTAMP_API_KEY is missing")
		}
	}

	return &EStampService{
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

type estampResponse struct {
	Success bool `json:"success"`
	Data    struct {
		DocumentURL string `json:"documentUrl"`
	} `json:"data"`
	Error string `json:"error,omitempty"`
}

// StampContractAfterPayment submits a paid contract for electronic stamping
// and returns the stamped document URL, or an empty string on failure.
func (s *EStampService) StampContractAfterPayment(contractID string) (string, error) {
	if s.baseURL == "" || s.apiKey == "" {
		return "", fmt.Errorf("e-stamp service is not configured")
	}

	payload, err := json.Marshal(map[string]string{"contractId": contractID})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.baseURL+"/v1/stamp", bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var stampResp estampResponse
	if err := json.Unmarshal(respBody, &stampResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w\nResponse body: %s", err, string(respBody))
	}

	if !stampResp.Success {
		return "", fmt.Errorf("e-stamp API error: %s", stampResp.Error)
	}

	return stampResp.Data.DocumentURL, nil
}
