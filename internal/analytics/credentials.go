package analytics

import (
	"encoding/json"
	"fmt"
	"os"
)

// ServiceAccountKey is the subset of a Google service account JSON key
// needed to mint access tokens for the Data API.
type ServiceAccountKey struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	PrivateKey  string `json:"private_key"`
	ClientEmail string `json:"client_email"`
	TokenURI    string `json:"token_uri"`
}

// LoadCredentials resolves a service account key from a file path or an
// inline JSON blob. The file path wins when both are set. Resolution
// happens once at startup; a missing or malformed key is a hard error,
// not a per-query fallback.
func LoadCredentials(path, inline string) (*ServiceAccountKey, error) {
	var data []byte

	switch {
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		data = b
	case inline != "":
		data = []byte(inline)
	default:
		return nil, fmt.Errorf("analytics credentials not configured: set a credentials file path or inline JSON")
	}

	var key ServiceAccountKey
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("parse credentials JSON: %w", err)
	}
	if key.ClientEmail == "" || key.PrivateKey == "" {
		return nil, fmt.Errorf("credentials missing client_email or private_key")
	}
	if key.TokenURI == "" {
		key.TokenURI = "https://oauth2.googleapis.com/token"
	}
	return &key, nil
}
