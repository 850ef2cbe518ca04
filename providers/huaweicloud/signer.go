package huaweicloud

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	signAlgorithm  = "SDK-HMAC-SHA256"
	headerSdkDate  = "X-Sdk-Date"
	headerProject  = "X-Project-Id"
	sdkDateLayout  = "20060102T150405Z"
	headerAuthName = "Authorization"
)

// Signer signs requests with the AK/SK scheme used by Huawei Cloud APIs.
type Signer struct {
	AK string
	SK string

	now func() time.Time
}

// NewSigner returns a Signer for the given access key pair.
func NewSigner(ak, sk string) *Signer {
	return &Signer{AK: ak, SK: sk, now: time.Now}
}

// Sign sets X-Sdk-Date and Authorization on req. body must be the exact
// bytes that will be sent.
func (s *Signer) Sign(req *http.Request, body []byte) error {
	if s.AK == "" || s.SK == "" {
		return fmt.Errorf("signing request: access key pair is incomplete")
	}

	date := s.now().UTC().Format(sdkDateLayout)
	req.Header.Set(headerSdkDate, date)
	host := req.Host
	if host == "" {
		host = req.URL.Host
	}
	req.Header.Set("Host", host)

	signedHeaders := signedHeaderNames(req.Header)
	canonical := canonicalRequest(req, signedHeaders, body)
	sts := stringToSign(canonical, date)

	mac := hmac.New(sha256.New, []byte(s.SK))
	mac.Write([]byte(sts))
	signature := hex.EncodeToString(mac.Sum(nil))

	req.Header.Set(headerAuthName, fmt.Sprintf("%s Access=%s, SignedHeaders=%s, Signature=%s",
		signAlgorithm, s.AK, strings.Join(signedHeaders, ";"), signature))
	return nil
}

// signedHeaderNames returns the lower-cased header names to sign, sorted.
func signedHeaderNames(h http.Header) []string {
	names := make([]string, 0, len(h))
	for k := range h {
		lk := strings.ToLower(k)
		if lk == "authorization" || lk == "user-agent" || lk == "content-length" {
			continue
		}
		names = append(names, lk)
	}
	sort.Strings(names)
	return names
}

func canonicalRequest(req *http.Request, signedHeaders []string, body []byte) string {
	hash := sha256.Sum256(body)
	return strings.Join([]string{
		req.Method,
		canonicalURI(req.URL),
		canonicalQuery(req.URL),
		canonicalHeaders(req.Header, signedHeaders),
		strings.Join(signedHeaders, ";"),
		hex.EncodeToString(hash[:]),
	}, "\n")
}

// canonicalURI escapes each path segment and always ends with "/".
func canonicalURI(u *url.URL) string {
	segments := strings.Split(u.Path, "/")
	for i, seg := range segments {
		segments[i] = escape(seg)
	}
	p := strings.Join(segments, "/")
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

func canonicalQuery(u *url.URL) string {
	query := u.Query()
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		values := append([]string(nil), query[k]...)
		sort.Strings(values)
		for _, v := range values {
			parts = append(parts, escape(k)+"="+escape(v))
		}
	}
	return strings.Join(parts, "&")
}

func canonicalHeaders(h http.Header, signedHeaders []string) string {
	var b strings.Builder
	for _, name := range signedHeaders {
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(strings.TrimSpace(h.Get(name)))
		b.WriteByte('\n')
	}
	return b.String()
}

func stringToSign(canonical, date string) string {
	hash := sha256.Sum256([]byte(canonical))
	return signAlgorithm + "\n" + date + "\n" + hex.EncodeToString(hash[:])
}

// escape percent-encodes everything except RFC 3986 unreserved characters.
func escape(s string) string {
	const hexDigits = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&15])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.' || c == '~'
}
