package stripeconnect

import (
	"context"
	"fmt"

	"github.com/amirasaad/crowdpledge/pkg/provider/payment"
	"golang.org/x/oauth2"
)

// DefaultTokenURL is the Stripe Connect OAuth token endpoint.
const DefaultTokenURL = "https://connect.stripe.com/oauth/token"

// TokenRefresher refreshes connected-account access tokens with the
// Stripe Connect refresh_token grant.
type TokenRefresher struct {
	config oauth2.Config
}

// NewTokenRefresher creates a refresher. Stripe authenticates the platform
// by its secret key passed as client_secret.
func NewTokenRefresher(clientID, secretKey, tokenURL string) *TokenRefresher {
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	return &TokenRefresher{
		config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: secretKey,
			Endpoint: oauth2.Endpoint{
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

func (r *TokenRefresher) Refresh(ctx context.Context, refreshToken string) (*payment.AccessToken, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: missing refresh token", payment.ErrGateway)
	}
	tok, err := r.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: refresh access token: %v", payment.ErrGateway, err)
	}
	out := &payment.AccessToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
	if out.RefreshToken == "" {
		out.RefreshToken = refreshToken
	}
	if id, ok := tok.Extra("stripe_user_id").(string); ok {
		out.AccountID = id
	}
	return out, nil
}

var _ payment.TokenRefresher = (*TokenRefresher)(nil)
