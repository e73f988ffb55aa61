package oauth1

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
)

// HMACSHA1 returns the HMAC-SHA1 digest of message under key.
func HMACSHA1(key, message []byte) []byte {
	h := hmac.New(sha1.New, key)
	h.Write(message)
	return h.Sum(nil)
}

// SignBase64 returns the base64 encoded HMAC-SHA1 digest, which is the form
// used for oauth_signature.
func SignBase64(key, message []byte) string {
	return base64.StdEncoding.EncodeToString(HMACSHA1(key, message))
}
