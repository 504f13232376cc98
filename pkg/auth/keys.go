package auth

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const defaultKeyTTL = time.Hour

// KeySource resolves a signing key by its kid header.
type KeySource interface {
	Key(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

var errUnknownKeyID = errors.New("unknown key id")

// CertKeySource fetches the provider's x509 certificate map (kid -> PEM) and
// caches it until the response's max-age elapses.
type CertKeySource struct {
	url    string
	client *http.Client
	now    func() time.Time

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	expiresAt time.Time
}

func NewCertKeySource(url string, timeout time.Duration) *CertKeySource {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &CertKeySource{
		url:    url,
		client: &http.Client{Timeout: timeout},
		now:    time.Now,
	}
}

func (s *CertKeySource) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	s.mu.RLock()
	key, ok := s.keys[kid]
	fresh := s.now().Before(s.expiresAt)
	s.mu.RUnlock()
	if ok && fresh {
		return key, nil
	}

	if err := s.refresh(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if key, ok := s.keys[kid]; ok {
		return key, nil
	}
	return nil, fmt.Errorf("%w %q", errUnknownKeyID, kid)
}

func (s *CertKeySource) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("build certs request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch certs: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch certs: unexpected status %d", resp.StatusCode)
	}

	var raw map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("decode certs: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(raw))
	for kid, certPEM := range raw {
		key, err := parseCertificateKey(certPEM)
		if err != nil {
			return fmt.Errorf("parse cert %q: %w", kid, err)
		}
		keys[kid] = key
	}

	s.mu.Lock()
	s.keys = keys
	s.expiresAt = s.now().Add(maxAge(resp.Header.Get("Cache-Control")))
	s.mu.Unlock()
	return nil
}

func parseCertificateKey(certPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(certPEM))
	if block == nil {
		return nil, errors.New("no pem block")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("certificate key is not rsa")
	}
	return key, nil
}

func maxAge(cacheControl string) time.Duration {
	for _, directive := range strings.Split(cacheControl, ",") {
		directive = strings.TrimSpace(directive)
		value, ok := strings.CutPrefix(directive, "max-age=")
		if !ok {
			continue
		}
		seconds, err := strconv.Atoi(value)
		if err != nil || seconds <= 0 {
			break
		}
		return time.Duration(seconds) * time.Second
	}
	return defaultKeyTTL
}
