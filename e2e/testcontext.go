// Package e2e drives a running castingbase server over HTTP with godog
// scenarios. Point CASTINGBASE_E2E_URL at the server before running.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// TestContext carries HTTP state across the steps of one scenario. The client
// keeps a cookie jar so the registration cookie behaves like it would in a
// browser.
type TestContext struct {
	baseURL string
	client  *http.Client
	runID   string

	lastStatus int
	lastBody   map[string]any

	registrationToken string
	accessToken       string
	productionID      string
	productionCode    string
	identityID        string
}

func NewTestContext(baseURL string) (*TestContext, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &TestContext{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Jar: jar, Timeout: 10 * time.Second},
		runID:   fmt.Sprintf("%d", time.Now().UnixNano()),
	}, nil
}

// Uniquify substitutes the {uniq} placeholder so scenarios can re-run against
// a server with persistent storage without tripping uniqueness checks.
func (tc *TestContext) Uniquify(value string) string {
	return strings.ReplaceAll(value, "{uniq}", tc.runID)
}

func (tc *TestContext) POST(path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, tc.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return tc.do(req)
}

func (tc *TestContext) GET(path string, headers map[string]string) error {
	req, err := http.NewRequest(http.MethodGet, tc.baseURL+path, nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return tc.do(req)
}

func (tc *TestContext) do(req *http.Request) error {
	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody = nil
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(raw) > 0 {
		var parsed map[string]any
		if err := json.Unmarshal(raw, &parsed); err == nil {
			tc.lastBody = parsed
		}
	}
	return nil
}

func (tc *TestContext) LastStatus() int { return tc.lastStatus }

// GetResponseField digs a field out of the last JSON response. Nested fields
// use a dotted path.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	if tc.lastBody == nil {
		return nil, fmt.Errorf("no JSON body in last response")
	}
	var current any = tc.lastBody
	for _, part := range strings.Split(field, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %q is not an object", field)
		}
		current, ok = obj[part]
		if !ok {
			return nil, fmt.Errorf("field %q not present in response", field)
		}
	}
	return current, nil
}

func (tc *TestContext) GetRegistrationToken() string      { return tc.registrationToken }
func (tc *TestContext) SetRegistrationToken(token string) { tc.registrationToken = token }
func (tc *TestContext) GetAccessToken() string            { return tc.accessToken }
func (tc *TestContext) SetAccessToken(token string)       { tc.accessToken = token }
func (tc *TestContext) GetProductionID() string           { return tc.productionID }
func (tc *TestContext) SetProductionID(id string)         { tc.productionID = id }
func (tc *TestContext) GetProductionCode() string         { return tc.productionCode }
func (tc *TestContext) SetProductionCode(code string)     { tc.productionCode = code }
func (tc *TestContext) GetIdentityID() string             { return tc.identityID }
func (tc *TestContext) SetIdentityID(id string)           { tc.identityID = id }
