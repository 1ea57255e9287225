package service

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"
)

var (
	emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-']+@[a-z0-9.-]+\.[a-z]{2,}$`)
	idnaProfile  = idna.Lookup
)

const (
	defaultPhoneRegion = "US"
	mxLookupTimeout    = 3 * time.Second
)

var (
	// ErrInvalidEmail is returned for addresses that fail syntax, domain or MX checks.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrInvalidPhone is returned for numbers that cannot be parsed for the region.
	ErrInvalidPhone = errors.New("invalid phone number")
)

// DNSResolver abstracts DNS lookups to simplify testing.
type DNSResolver interface {
	LookupMX(ctx context.Context, domain string) ([]*net.MX, error)
}

// Normalizer cleans contact details entered by users.
type Normalizer struct {
	DefaultRegion string
	checkMX       bool
	dnsResolver   DNSResolver
}

// NormalizerOption configures optional dependencies.
type NormalizerOption func(*Normalizer)

// WithDNSResolver overrides the default DNS resolver.
func WithDNSResolver(resolver DNSResolver) NormalizerOption {
	return func(n *Normalizer) {
		if resolver != nil {
			n.dnsResolver = resolver
		}
	}
}

// WithMXCheck requires email domains to publish at least one MX record.
func WithMXCheck(enabled bool) NormalizerOption {
	return func(n *Normalizer) {
		n.checkMX = enabled
	}
}

// NewNormalizer builds a normalizer for phone numbers dialled from defaultRegion.
func NewNormalizer(defaultRegion string, opts ...NormalizerOption) *Normalizer {
	region := strings.ToUpper(strings.TrimSpace(defaultRegion))
	if region == "" {
		region = defaultPhoneRegion
	}
	n := &Normalizer{
		DefaultRegion: region,
		dnsResolver:   systemDNSResolver{},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NormalizeEmail lower-cases the address, validates its syntax and converts
// an internationalised domain to its ASCII form.
func (n *Normalizer) NormalizeEmail(ctx context.Context, raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "", ErrInvalidEmail
	}

	asciiDomain, err := idnaProfile.ToASCII(domain)
	if err != nil || asciiDomain == "" || !isDomainValid(asciiDomain) {
		return "", ErrInvalidEmail
	}
	email = local + "@" + asciiDomain
	if !emailPattern.MatchString(email) {
		return "", ErrInvalidEmail
	}

	if n.checkMX && !n.hasMXRecord(ctx, asciiDomain) {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// NormalizePhone returns the number in E.164 form. An empty input yields an
// empty result.
func (n *Normalizer) NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	normalized := normalizePhone(raw, n.DefaultRegion)
	if normalized == "" {
		return "", ErrInvalidPhone
	}
	return normalized, nil
}

func (n *Normalizer) hasMXRecord(ctx context.Context, domain string) bool {
	if n.dnsResolver == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, mxLookupTimeout)
	defer cancel()
	records, err := n.dnsResolver.LookupMX(ctx, domain)
	return err == nil && len(records) > 0
}

func normalizePhone(raw, region string) string {
	if region == "" {
		region = defaultPhoneRegion
	}
	number, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return ""
	}
	if !phonenumbers.IsPossibleNumber(number) || !phonenumbers.IsValidNumber(number) {
		return ""
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

func isDomainValid(domain string) bool {
	if strings.Count(domain, ".") == 0 {
		return false
	}
	parts := strings.Split(domain, ".")
	for _, part := range parts {
		if part == "" || strings.HasPrefix(part, "-") || strings.HasSuffix(part, "-") {
			return false
		}
	}
	return true
}

type systemDNSResolver struct{}

func (systemDNSResolver) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	return net.DefaultResolver.LookupMX(ctx, domain)
}
