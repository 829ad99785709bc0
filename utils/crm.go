package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/demaesdadas/aldeia/config"
)

// Marketing CRM integration (Brevo-compatible contacts API). Every caller
// treats this as best-effort: errors are logged and never propagated into
// the primary operation.

var crmHTTPClient = &http.Client{Timeout: 10 * time.Second}

type crmContactPayload struct {
	Email         string         `json:"email"`
	Attributes    map[string]any `json:"attributes,omitempty"`
	ListIDs       []int          `json:"listIds,omitempty"`
	UpdateEnabled bool           `json:"updateEnabled"`
}

type crmErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// UpsertContact creates or updates a marketing contact. An already-existing
// contact is success, not a conflict.
func UpsertContact(email, name string, attributes map[string]any, listIDs []int) error {
	cfg := config.Get()
	if cfg.CRMAPIKey == "" {
		return fmt.Errorf("crm not configured")
	}

	attrs := map[string]any{
		"FIRSTNAME": name,
		"SOURCE":    "app_demaesdadas",
	}
	for k, v := range attributes {
		attrs[k] = v
	}
	if len(listIDs) == 0 {
		listIDs = []int{cfg.CRMDefaultListID}
	}

	body, err := json.Marshal(crmContactPayload{
		Email:         email,
		Attributes:    attrs,
		ListIDs:       listIDs,
		UpdateEnabled: true,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, cfg.CRMBaseURL+"/contacts", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("content-type", "application/json")
	req.Header.Set("api-key", cfg.CRMAPIKey)

	resp, err := crmHTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errBody crmErrorBody
	_ = json.NewDecoder(resp.Body).Decode(&errBody)
	// duplicate_parameter means the contact already exists, which is fine with updateEnabled
	if errBody.Code == "duplicate_parameter" {
		return nil
	}
	return fmt.Errorf("crm upsert contact: status=%d code=%s message=%s", resp.StatusCode, errBody.Code, errBody.Message)
}

// UpsertContactAsync runs UpsertContact in the background and logs any failure.
func UpsertContactAsync(email, name string, attributes map[string]any, listIDs []int) {
	go func() {
		if err := UpsertContact(email, name, attributes, listIDs); err != nil {
			if Sugar != nil {
				Sugar.Warnf("crm contact upsert failed email=%s err=%v", email, err)
			}
		}
	}()
}

// SubscribeInterest adds a contact to the "coming soon" interest list.
func SubscribeInterest(email string) error {
	cfg := config.Get()
	return UpsertContact(email, "", map[string]any{
		"SOURCE":               "coming_soon_notify",
		"COMING_SOON_INTEREST": true,
	}, []int{cfg.CRMInterestListID})
}
