package connectors

import (
	"io"
	"net/http"
	"strings"
	"time"
)

// GenericConnector is the fallback probe for platforms with no dedicated
// connector: HTTP liveness plus a TLS certificate inspection. Grounded on
// original_source/src/isnad/worker/connectors/generic.py — deliberately
// honest about its limits, since it has no platform-specific reputation
// signal to offer.
type GenericConnector struct {
	Client *http.Client
}

func NewGenericConnector(timeout time.Duration) *GenericConnector {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GenericConnector{Client: &http.Client{Timeout: timeout}}
}

func (c *GenericConnector) PlatformName() string { return "generic" }

func (c *GenericConnector) Fetch(url string) (Result, error) {
	start := time.Now()
	resp, err := c.Client.Get(url)
	if err != nil {
		return deadResult("generic", url, err.Error()), nil
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 5000))
	elapsedMs := float64(time.Since(start).Microseconds()) / 1000

	alive := resp.StatusCode < 500
	text := strings.ToLower(string(body))
	rawData := map[string]any{
		"status_code":      resp.StatusCode,
		"response_time_ms": elapsedMs,
		"content_length":   resp.ContentLength,
		"content_type":     resp.Header.Get("Content-Type"),
		"has_title":        strings.Contains(text, "<title"),
		"has_meta_description": strings.Contains(text, `name="description"`),
	}

	sslInfo := sslInfoFor(resp)
	if sslInfo != nil {
		rawData["ssl"] = sslInfo
	}

	activityScore := 0
	if alive {
		activityScore = 10
	}
	verification := "none"
	evidenceCount := 0
	if alive {
		evidenceCount++
	}
	if sslInfo != nil && sslInfo.Valid {
		verification = "basic"
		evidenceCount++
		if sslInfo.DaysRemaining > 30 && activityScore+5 <= 100 {
			activityScore += 5
		}
	}

	return Result{
		Platform: "generic",
		URL:      url,
		Alive:    alive,
		RawData:  rawData,
		Metrics: Metrics{
			ActivityScore:     activityScore,
			ReputationScore:   0,
			LongevityDays:     0,
			VerificationLevel: verification,
			EvidenceCount:     evidenceCount,
		},
	}, nil
}

type sslInfo struct {
	Valid         bool
	Issuer        string
	NotBefore     time.Time
	NotAfter      time.Time
	DaysRemaining int
}

func sslInfoFor(resp *http.Response) *sslInfo {
	if resp.TLS == nil || len(resp.TLS.PeerCertificates) == 0 {
		return nil
	}
	cert := resp.TLS.PeerCertificates[0]
	var issuer string
	if len(cert.Issuer.Organization) > 0 {
		issuer = cert.Issuer.Organization[0]
	}
	days := int(time.Until(cert.NotAfter).Hours() / 24)
	return &sslInfo{
		Valid:         time.Now().Before(cert.NotAfter),
		Issuer:        issuer,
		NotBefore:     cert.NotBefore,
		NotAfter:      cert.NotAfter,
		DaysRemaining: days,
	}
}
