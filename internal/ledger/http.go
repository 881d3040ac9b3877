package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPService implements RemoteService against the platform's own REST API.
// The bearer token identifies the acting user server-side, so the userID
// arguments are carried for interface parity but the token wins.
type HTTPService struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPService creates an HTTP-backed RemoteService
func NewHTTPService(baseURL, token string) *HTTPService {
	return &HTTPService{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPService) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, body)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Boost casts a boost on the post
func (s *HTTPService) Boost(ctx context.Context, postID string, _ uint) error {
	return s.do(ctx, http.MethodPost, "/api/v1/posts/"+postID+"/boost", nil)
}

// Unboost withdraws the viewer's boost from the post
func (s *HTTPService) Unboost(ctx context.Context, postID string, _ uint) error {
	return s.do(ctx, http.MethodDelete, "/api/v1/posts/"+postID+"/boost", nil)
}

// ToggleSave flips the viewer's saved state on the post
func (s *HTTPService) ToggleSave(ctx context.Context, postID string, _ uint) (bool, error) {
	var body struct {
		Data struct {
			Saved bool `json:"saved"`
		} `json:"data"`
	}
	if err := s.do(ctx, http.MethodPost, "/api/v1/posts/"+postID+"/save", &body); err != nil {
		return false, err
	}
	return body.Data.Saved, nil
}

// GetBoostCount fetches the authoritative boost count for the post
func (s *HTTPService) GetBoostCount(ctx context.Context, postID string) (int64, error) {
	var body struct {
		BoostsCount int64 `json:"boosts_count"`
	}
	if err := s.do(ctx, http.MethodGet, "/api/v1/posts/"+postID+"/boosts/count", &body); err != nil {
		return 0, err
	}
	return body.BoostsCount, nil
}

// CanUnboost asks whether the viewer's boost is still inside the undo window
func (s *HTTPService) CanUnboost(ctx context.Context, postID string, _ uint) (bool, error) {
	var body struct {
		CanUnboost bool `json:"can_unboost"`
	}
	if err := s.do(ctx, http.MethodGet, "/api/v1/posts/"+postID+"/boosts/status", &body); err != nil {
		return false, err
	}
	return body.CanUnboost, nil
}

// GetBalance fetches both components of the viewer's point balance
func (s *HTTPService) GetBalance(ctx context.Context, _ uint) (int64, int64, error) {
	var body struct {
		WalletBalance   int64 `json:"wallet_balance"`
		EarningsBalance int64 `json:"earnings_balance"`
	}
	if err := s.do(ctx, http.MethodGet, "/api/v1/wallet/balance", &body); err != nil {
		return 0, 0, err
	}
	return body.WalletBalance, body.EarningsBalance, nil
}
