// Package oauth implements the Kakao authorization-code login.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// ErrMissingProfile means the provider omitted nickname or email.
var ErrMissingProfile = errors.New("kakao profile is missing nickname or email")

// Profile is the subset of the Kakao user the login flow needs.
type Profile struct {
	KakaoID  int64
	Email    string
	Nickname string
}

// Config holds the Kakao client registration and endpoints.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
}

// Kakao exchanges authorization codes and fetches the user profile.
type Kakao struct {
	oauth       *oauth2.Config
	userInfoURL string
	timeout     time.Duration
}

// NewKakao builds a client. Kakao takes client credentials in the form body.
func NewKakao(cfg Config) *Kakao {
	return &Kakao{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes: []string{"profile_nickname", "account_email"},
		},
		userInfoURL: cfg.UserInfoURL,
		timeout:     10 * time.Second,
	}
}

// AuthCodeURL returns the consent page URL for state.
func (k *Kakao) AuthCodeURL(state string) string {
	return k.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Login exchanges code for a token and loads the profile behind it.
func (k *Kakao) Login(ctx context.Context, code string) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	token, err := k.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("kakao token exchange: %w", err)
	}
	return k.fetchProfile(ctx, token)
}

type kakaoUser struct {
	ID         int64 `json:"id"`
	Properties *struct {
		Nickname string `json:"nickname"`
	} `json:"properties"`
	KakaoAccount *struct {
		Email string `json:"email"`
	} `json:"kakao_account"`
}

func (k *Kakao) fetchProfile(ctx context.Context, token *oauth2.Token) (*Profile, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create userinfo request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kakao userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("kakao userinfo status %d: %s", resp.StatusCode, body)
	}

	var u kakaoUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("decode kakao userinfo: %w", err)
	}
	if u.Properties == nil || u.KakaoAccount == nil || u.Properties.Nickname == "" || u.KakaoAccount.Email == "" {
		return nil, ErrMissingProfile
	}
	return &Profile{KakaoID: u.ID, Email: u.KakaoAccount.Email, Nickname: u.Properties.Nickname}, nil
}
