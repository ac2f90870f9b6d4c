// proxy/proxy.go

package proxy

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"

	"github.com/deploymenttheory/go-share-downloader/logger"
	"go.uber.org/zap"
)

// InitializeProxy routes httpClient through proxyURL when one is configured.
// It supports proxy authentication using username/password or a bearer token (e.g., for SSO).
func InitializeProxy(httpClient *http.Client, proxyURL, proxyUsername, proxyPassword, authToken string, log logger.Logger) error {
	if proxyURL == "" {
		return nil
	}

	parsedProxyURL, err := url.Parse(proxyURL)
	if err != nil {
		log.Error("Failed to parse proxy URL", zap.Error(err))
		return fmt.Errorf("invalid proxy URL: %w", err)
	}
	if parsedProxyURL.Scheme == "" || parsedProxyURL.Host == "" {
		return log.Error("Proxy URL must include a scheme and host", zap.String("ProxyURL", proxyURL))
	}

	transport := &http.Transport{}
	if base, ok := http.DefaultTransport.(*http.Transport); ok {
		transport = base.Clone()
	}

	switch {
	case proxyUsername != "" && proxyPassword != "":
		parsedProxyURL.User = url.UserPassword(proxyUsername, proxyPassword)
		credentials := base64.StdEncoding.EncodeToString([]byte(proxyUsername + ":" + proxyPassword))
		transport.ProxyConnectHeader = http.Header{
			"Proxy-Authorization": []string{"Basic " + credentials},
		}
	case authToken != "":
		transport.ProxyConnectHeader = http.Header{
			"Proxy-Authorization": []string{"Bearer " + authToken},
		}
	}
	transport.Proxy = http.ProxyURL(parsedProxyURL)
	httpClient.Transport = transport

	log.Info("Proxy configured", zap.String("ProxyURL", parsedProxyURL.Redacted()))
	return nil
}
