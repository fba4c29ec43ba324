package service

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	apperrors "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/errors"
)

// storageDomains decides whether an attachment URL points at an allowed storage host.
// Hosts match an allowed entry exactly or share its registrable domain (eTLD+1), so
// "bucket.s3.example.com" matches "example.com".
type storageDomains struct {
	exact map[string]bool
	etld1 map[string]bool
}

func newStorageDomains(allowed []string) storageDomains {
	d := storageDomains{exact: map[string]bool{}, etld1: map[string]bool{}}
	for _, a := range allowed {
		host := normalizeHost(a)
		if host == "" {
			continue
		}
		d.exact[host] = true
		if e := registrableDomain(host); e != "" {
			d.etld1[e] = true
		}
	}
	return d
}

func (d storageDomains) enabled() bool {
	return len(d.exact) > 0
}

// check validates rawURL and, when an allowlist is configured, its host.
func (d storageDomains) check(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return apperrors.ValidationField("url", "attachment url must be absolute")
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return apperrors.ValidationField("url", "attachment url must use http or https")
	}
	if !d.enabled() {
		return nil
	}
	host := normalizeHost(u.Host)
	if d.exact[host] {
		return nil
	}
	if e := registrableDomain(host); e != "" && d.etld1[e] {
		return nil
	}
	return apperrors.ValidationField("url", "attachment url host is not an allowed storage domain")
}

// normalizeHost lowercases and strips any port or scheme from a host or URL.
func normalizeHost(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	if h, _, err := net.SplitHostPort(s); err == nil {
		s = h
	}
	return strings.TrimSuffix(s, ".")
}

func registrableDomain(host string) string {
	if net.ParseIP(host) != nil {
		return ""
	}
	e, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return ""
	}
	return e
}
