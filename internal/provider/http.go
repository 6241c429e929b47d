package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/janus/internal/profile"
)

// HTTPClient implementa Client contra la API HTTP del provider.
type HTTPClient struct {
	BaseURL      string
	ClientID     string
	ClientSecret string

	http *http.Client
}

// NewHTTP crea el cliente HTTP. timeout acota toda llamada al provider;
// un timeout es un fallo duro del intento, sin retry interno.
func NewHTTP(baseURL, clientID, clientSecret string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		http:         &http.Client{Timeout: timeout},
	}
}

type authInfoResponse struct {
	Stat    string         `json:"stat"`
	Error   string         `json:"error"`
	Profile map[string]any `json:"profile"`
	IDToken string         `json:"id_token"`
}

// FetchProfileByToken llama a /auth_info con el token del login.
// El perfil puede venir como objeto "profile" o como claims dentro de
// un id_token; la firma del id_token ya fue validada por el paso de
// intercambio, acá solo se extraen los claims.
func (c *HTTPClient) FetchProfileByToken(ctx context.Context, token string) (*profile.Profile, error) {
	form := url.Values{}
	form.Set("token", token)
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)

	var out authInfoResponse
	if err := c.postForm(ctx, "/auth_info", form, &out); err != nil {
		return nil, err
	}
	if out.Stat != "" && out.Stat != "ok" {
		return nil, fmt.Errorf("%w: auth_info stat=%s error=%s", ErrRejected, out.Stat, out.Error)
	}
	if len(out.Profile) > 0 {
		return profile.New(out.Profile), nil
	}
	if out.IDToken != "" {
		return profileFromIDToken(out.IDToken)
	}
	return nil, fmt.Errorf("%w: auth_info returned no profile", ErrRejected)
}

// RefreshToken llama a /oauth/token con grant_type=refresh_token.
func (c *HTTPClient) RefreshToken(ctx context.Context, refreshToken string) (*TokenRefresh, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)

	var out struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
		Error        string `json:"error"`
	}
	if err := c.postForm(ctx, "/oauth/token", form, &out); err != nil {
		return nil, err
	}
	if out.Error != "" || out.AccessToken == "" {
		return nil, fmt.Errorf("%w: refresh error=%s", ErrRejected, out.Error)
	}
	rt := out.RefreshToken
	if rt == "" {
		// Algunos providers no rotan el refresh token.
		rt = refreshToken
	}
	return &TokenRefresh{
		AccessToken:  out.AccessToken,
		RefreshToken: rt,
		TTL:          time.Duration(out.ExpiresIn) * time.Second,
	}, nil
}

func (c *HTTPClient) postForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode/100 == 5:
		return fmt.Errorf("%w: http %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode/100 != 2 && resp.StatusCode != http.StatusBadRequest:
		// 400 trae el error OAuth en el body, el resto se rechaza acá.
		return fmt.Errorf("%w: http %d", ErrRejected, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrRejected, err)
	}
	return nil
}

// profileFromIDToken extrae los claims de un id_token sin re-validar la
// firma (eso ocurrió en el intercambio, fuera de este core).
func profileFromIDToken(idToken string) (*profile.Profile, error) {
	parser := jwtv5.NewParser()
	claims := jwtv5.MapClaims{}
	if _, _, err := parser.ParseUnverified(idToken, claims); err != nil {
		return nil, fmt.Errorf("%w: parse id_token: %v", ErrRejected, err)
	}
	return profile.New(map[string]any(claims)), nil
}
