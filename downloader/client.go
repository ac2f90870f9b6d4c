// downloader/client.go
/* Package downloader fetches a list of resources from a share link and stores each one under
the filename advertised by the server's Content-Disposition header. The Client owns the
configured *http.Client (cookie jar, redirect policy, proxy), the logger, and the sink files
are written to. Downloads run one after another in the configured order. */
package downloader

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/deploymenttheory/go-share-downloader/cookiejar"
	"github.com/deploymenttheory/go-share-downloader/logger"
	"github.com/deploymenttheory/go-share-downloader/proxy"
	"github.com/deploymenttheory/go-share-downloader/redirecthandler"
	"github.com/deploymenttheory/go-share-downloader/sink"
	"go.uber.org/zap"
)

// Client downloads resources and writes them to a sink.
type Client struct {
	config ClientConfig
	http   *http.Client
	sink   sink.Sink
	source Source

	Logger logger.Logger
}

// BuildClient creates a new download client with the provided configuration. Zero valued
// fields are populated with defaults before validation, and a zap logger is built from the
// logging options.
func BuildClient(config ClientConfig, s sink.Sink) (*Client, error) {
	SetDefaultValuesClientConfig(&config)
	if err := validateClientConfig(config, false); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	parsedLogLevel := logger.ParseLogLevelFromString(config.LogLevel)
	log := logger.BuildLogger(parsedLogLevel, config.LogOutputFormat, config.LogConsoleSeparator)
	log.SetLevel(parsedLogLevel)

	return newClient(config, s, log)
}

// NewClient is like BuildClient but logs through the supplied logger.
func NewClient(config ClientConfig, s sink.Sink, log logger.Logger) (*Client, error) {
	SetDefaultValuesClientConfig(&config)
	if err := validateClientConfig(config, false); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return newClient(config, s, log)
}

func newClient(config ClientConfig, s sink.Sink, log logger.Logger) (*Client, error) {
	if s == nil {
		return nil, errors.New("no sink supplied")
	}

	httpClient := &http.Client{
		Timeout: config.CustomTimeout.Duration(),
	}

	if err := cookiejar.SetupCookieJar(httpClient, config.CookieJarEnabled, log); err != nil {
		log.Error("Error setting up cookie jar", zap.Error(err))
		return nil, err
	}

	if err := redirecthandler.SetupRedirectHandler(httpClient, config.FollowRedirects, config.MaxRedirects, log); err != nil {
		log.Error("Failed to set up redirect handler", zap.Error(err))
		return nil, err
	}

	if err := proxy.InitializeProxy(httpClient, config.ProxyURL, config.ProxyUsername, config.ProxyPassword, config.ProxyAuthToken, log); err != nil {
		log.Error("Failed to configure proxy", zap.Error(err))
		return nil, err
	}

	client := &Client{
		config: config,
		http:   httpClient,
		sink:   s,
		source: Source{
			URLTemplate: config.URLTemplate,
			ResourceIDs: config.ResourceIDs,
		},
		Logger: log,
	}

	log.Debug("New download client initialized",
		zap.String("Logging Level", config.LogLevel),
		zap.String("Log Encoding Format", config.LogOutputFormat),
		zap.Bool("Hide Sensitive Data In Logs", config.HideSensitiveData),
		zap.Bool("Cookie Jar Enabled", config.CookieJarEnabled),
		zap.Bool("Follow Redirects", config.FollowRedirects),
		zap.Int("Max Redirects", config.MaxRedirects),
		zap.Duration("Custom Timeout", config.CustomTimeout.Duration()),
		zap.String("URL Template", config.URLTemplate),
		zap.Int("Resource Count", len(config.ResourceIDs)),
		zap.Int("Chunk Size", config.ChunkSize),
		zap.Bool("Continue On Error", config.ContinueOnError),
		zap.String("Sink Type", config.SinkType),
	)

	return client, nil
}

// Source returns the URL template and resource list the client downloads.
func (c *Client) Source() Source {
	return c.source
}

// NewSinkFromConfig builds the sink selected by config.SinkType.
func NewSinkFromConfig(ctx context.Context, config ClientConfig, log logger.Logger) (sink.Sink, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	switch config.SinkType {
	case "", SinkTypeLocal:
		outputDir := config.OutputDir
		if outputDir == "" {
			outputDir = DefaultOutputDir
		}
		localSink, err := sink.NewLocalSink(outputDir, log)
		if err != nil {
			return nil, err
		}
		return localSink, nil
	case SinkTypeMinio:
		minioSink, err := sink.NewMinioSink(ctx, config.Minio, log)
		if err != nil {
			return nil, err
		}
		return minioSink, nil
	default:
		return nil, fmt.Errorf("invalid sink type: %s", config.SinkType)
	}
}
