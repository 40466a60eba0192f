package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/tedious-mc/tedious/berror"
	"golang.org/x/exp/slices"
)

// entitlementNames are the entitlements that prove ownership of the game.
var entitlementNames = []string{"game_minecraft", "product_minecraft"}

type entitlementResponse struct {
	Signature string `json:"signature"`
}

type entitlementClaims struct {
	Entitlements []struct {
		Name string `json:"name"`
	} `json:"entitlements"`
}

// CheckEntitlement asks the entitlement endpoint at url whether the owner of the access token owns the
// game. The signature of the answer is not verified: it only guards against a token for the wrong
// account.
func CheckEntitlement(ctx context.Context, client *http.Client, url, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("entitlement request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return berror.Auth("entitlement check: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return berror.Auth("entitlement check: unexpected status %s", resp.Status)
	}

	var body entitlementResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return berror.Auth("decode entitlements: %w", err)
	}
	tok, err := jwt.ParseSigned(body.Signature, []jose.SignatureAlgorithm{jose.RS256, jose.ES256})
	if err != nil {
		return berror.Auth("parse entitlement signature: %w", err)
	}
	var claims entitlementClaims
	if err := tok.UnsafeClaimsWithoutVerification(&claims); err != nil {
		return berror.Auth("decode entitlement claims: %w", err)
	}
	for _, e := range claims.Entitlements {
		if slices.Contains(entitlementNames, e.Name) {
			return nil
		}
	}
	return berror.Auth("the account does not own the game")
}
