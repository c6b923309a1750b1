package fetch

import (
	"net/http"
	"strings"
)

// BlockType describes the kind of access denial detected.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
)

// bodySignature is one block fingerprint matched against the lowercased
// response body. Every marker must be present; maxBody > 0 restricts
// the signature to small bodies, since a full directory page mentioning
// "javascript" is not a shell.
type bodySignature struct {
	block   BlockType
	markers []string
	maxBody int
}

// Checked in order, so the specific Cloudflare fingerprints win over the
// generic captcha and shell ones.
var bodySignatures = []bodySignature{
	{block: BlockCloudflare, markers: []string{"checking your browser"}},
	{block: BlockCloudflare, markers: []string{"cf-browser-verification"}},
	{block: BlockCloudflare, markers: []string{"cloudflare", "challenge"}},
	{block: BlockCaptcha, markers: []string{"captcha"}},
	{block: BlockJSShell, markers: []string{"<noscript", "javascript"}, maxBody: 2000},
	{block: BlockJSShell, markers: []string{`meta http-equiv="refresh"`}, maxBody: 2000},
}

var cloudflareHeaders = []string{"cf-ray", "cf-cache-status"}

// DetectBlock checks an HTTP response for signs of anti-bot protection:
// Cloudflare headers on denial statuses first, then body fingerprints.
func DetectBlock(resp *http.Response, body []byte) (bool, BlockType) {
	if resp == nil {
		return false, BlockNone
	}
	if blockedStatus(resp.StatusCode) && cloudflareHeaded(resp.Header) {
		return true, BlockCloudflare
	}

	lower := strings.ToLower(string(body))
	for _, sig := range bodySignatures {
		if sig.maxBody > 0 && len(body) >= sig.maxBody {
			continue
		}
		if sig.matches(lower) {
			return true, sig.block
		}
	}
	return false, BlockNone
}

func (sig bodySignature) matches(lowerBody string) bool {
	for _, m := range sig.markers {
		if !strings.Contains(lowerBody, m) {
			return false
		}
	}
	return true
}

func blockedStatus(code int) bool {
	return code == http.StatusForbidden || code == http.StatusServiceUnavailable
}

func cloudflareHeaded(h http.Header) bool {
	for _, name := range cloudflareHeaders {
		if h.Get(name) != "" {
			return true
		}
	}
	return h.Get("server") == "cloudflare"
}
