package security

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/netip"
	"strings"
	"sync/atomic"

	applog "clubfund/internal/log"
)

// maxURLLength bounds request targets. API paths and the ?q filter stay
// far below it.
const maxURLLength = 2048

// DetectionMetrics tracks security detection events
type DetectionMetrics struct {
	SuspiciousRequests int64
	BlockedRequests    int64
	InvalidIPAttempts  int64
}

// Finding describes why a request looked wrong. A zero Status means the
// request is only logged; otherwise it is refused with that status.
type Finding struct {
	Reason string
	Status int
}

func (f Finding) Blocked() bool { return f.Status != 0 }

// Detector screens requests before they reach the JSON API.
type Detector struct {
	metrics        *DetectionMetrics
	trustedProxies []netip.Prefix
	log            *applog.Logger
}

func NewDetector() *Detector {
	return &Detector{
		metrics: &DetectionMetrics{},
		trustedProxies: []netip.Prefix{
			netip.MustParsePrefix("127.0.0.0/8"),
			netip.MustParsePrefix("::1/128"),
			netip.MustParsePrefix("10.0.0.0/8"),
			netip.MustParsePrefix("172.16.0.0/12"),
			netip.MustParsePrefix("192.168.0.0/16"),
		},
		log: applog.Default(applog.ComponentSecurity),
	}
}

// Paths the API never serves but scanners ask for.
var scannerPaths = []string{
	"..", ".env", ".git", ".ssh", "wp-admin", "wp-login", "phpmyadmin",
	".php", "cgi-bin", "etc/passwd", "cmd.exe",
}

// Markup or SQL inside the ?q filter. The filter is a plain substring
// match, so these are harmless, but worth a log line.
var queryTokens = []string{"<script", "javascript:", "union select", "' or '1'='1"}

var scannerAgents = []string{
	"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan", "zgrab", "nuclei",
}

// Inspect classifies r. The first blocking rule wins; log-only findings
// are returned when nothing blocks.
func (d *Detector) Inspect(r *http.Request) (Finding, bool) {
	switch r.Method {
	case "TRACE", "TRACK", "DEBUG", "CONNECT":
		return Finding{Reason: "unsupported_method", Status: http.StatusMethodNotAllowed}, true
	}

	if len(r.URL.RequestURI()) > maxURLLength {
		return Finding{Reason: "url_too_long", Status: http.StatusRequestURITooLong}, true
	}

	path := strings.ToLower(r.URL.Path)
	for _, token := range scannerPaths {
		if strings.Contains(path, token) {
			return Finding{Reason: "scanner_path", Status: http.StatusNotFound}, true
		}
	}

	if carriesBody(r) && !isJSON(r.Header.Get("Content-Type")) {
		return Finding{Reason: "non_json_body", Status: http.StatusUnsupportedMediaType}, true
	}

	q := strings.ToLower(r.URL.Query().Get("q"))
	for _, token := range queryTokens {
		if strings.Contains(q, token) {
			return Finding{Reason: "query_injection"}, true
		}
	}

	agent := strings.ToLower(r.UserAgent())
	for _, a := range scannerAgents {
		if strings.Contains(agent, a) {
			return Finding{Reason: "scanner_agent"}, true
		}
	}

	if strings.Count(r.Header.Get("X-Forwarded-For"), ",") > 5 {
		return Finding{Reason: "forwarding_chain"}, true
	}

	return Finding{}, false
}

// carriesBody reports whether r is a write that sends a payload.
func carriesBody(r *http.Request) bool {
	if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
		return false
	}
	return r.ContentLength != 0 && r.Body != nil && r.Body != http.NoBody
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// Middleware refuses blocked requests with a JSON error and logs the rest
// of the findings.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		finding, found := d.Inspect(r)
		if !found {
			next.ServeHTTP(w, r)
			return
		}

		atomic.AddInt64(&d.metrics.SuspiciousRequests, 1)
		d.log.WarnContext(r.Context(), "Suspicious request",
			"reason", finding.Reason,
			"blocked", finding.Blocked(),
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, d.ExtractClientIP(r),
			applog.FieldUserAgent, r.UserAgent())

		if !finding.Blocked() {
			next.ServeHTTP(w, r)
			return
		}
		atomic.AddInt64(&d.metrics.BlockedRequests, 1)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(finding.Status)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error": http.StatusText(finding.Status),
			"code":  finding.Reason,
		})
	})
}

// ExtractClientIP returns the peer address, or the first forwarded
// address when the peer is a trusted proxy.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	peer, err := netip.ParseAddrPort(r.RemoteAddr)
	if err != nil {
		addr, aerr := netip.ParseAddr(r.RemoteAddr)
		if aerr != nil {
			return r.RemoteAddr
		}
		peer = netip.AddrPortFrom(addr, 0)
	}
	direct := peer.Addr().Unmap()
	if !d.isTrustedProxy(direct) {
		return direct.String()
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return addr.String()
		}
		atomic.AddInt64(&d.metrics.InvalidIPAttempts, 1)
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if addr, err := netip.ParseAddr(xri); err == nil {
			return addr.String()
		}
		atomic.AddInt64(&d.metrics.InvalidIPAttempts, 1)
	}
	return direct.String()
}

func (d *Detector) isTrustedProxy(addr netip.Addr) bool {
	for _, prefix := range d.trustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func (d *Detector) GetMetrics() DetectionMetrics {
	return DetectionMetrics{
		SuspiciousRequests: atomic.LoadInt64(&d.metrics.SuspiciousRequests),
		BlockedRequests:    atomic.LoadInt64(&d.metrics.BlockedRequests),
		InvalidIPAttempts:  atomic.LoadInt64(&d.metrics.InvalidIPAttempts),
	}
}

// AddTrustedProxy trusts forwarded headers from cidr.
func (d *Detector) AddTrustedProxy(cidr string) error {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	d.trustedProxies = append(d.trustedProxies, prefix.Masked())
	return nil
}
