package transport

import (
	"encoding/json"
	"io"
	"net/http"

	pkgerrors "github.com/parcelscope/parcelscope/pkg/errors"
)

// maxErrorBody caps how much of a provider error body is kept for messages.
const maxErrorBody = 2048

// DecodeResponse decodes a JSON response into the target structure. Non-2xx
// statuses become typed APIErrors carrying the provider, status, and a
// truncated body excerpt.
func DecodeResponse(provider string, resp *http.Response, target any) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.WrapIO("read", "response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := body
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return &pkgerrors.APIError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Message:    string(msg),
			Endpoint:   resp.Request.URL.Path,
		}
	}

	if len(body) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, target); err != nil {
		return pkgerrors.WrapParse("json", provider+" response", err)
	}

	return nil
}
