package email

import (
	"context"
	"encoding/base64"
	"fmt"

	"gocloud.dev/secrets"

	// Register the keeper drivers accepted in EMAIL_AUTH_TOKEN_KEY_URI.
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// ResolveAuthToken returns the mail API token. With an empty keyURI the token
// is used as is; otherwise it is base64 ciphertext decrypted with the keeper
// at keyURI (gcpkms://, awskms://, azurekeyvault://, hashivault://, base64key://).
func ResolveAuthToken(ctx context.Context, token, keyURI string) (string, error) {
	if keyURI == "" {
		return token, nil
	}

	ciphertext, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("email auth token is not valid base64: %w", err)
	}

	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return "", fmt.Errorf("failed to open secrets keeper: %w", err)
	}
	defer keeper.Close() //nolint:errcheck

	plaintext, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt email auth token: %w", err)
	}
	return string(plaintext), nil
}
