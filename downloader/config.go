// downloader/config.go
// Description: This file contains functions to load and validate download client configuration
// from a JSON file, a .env file, or environment variables.
package downloader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/deploymenttheory/go-share-downloader/logger"
	"github.com/deploymenttheory/go-share-downloader/sink"
	"github.com/joho/godotenv"
)

const (
	DefaultLogLevelString        = "LogLevelInfo"
	DefaultLogOutputFormatString = logger.LogOutputJSON
	DefaultLogConsoleSeparator   = "	"
	DefaultHideSensitiveData     = true
	DefaultCookieJarEnabled      = true
	DefaultFollowRedirects       = true
	DefaultMaxRedirects          = 10
	DefaultCustomTimeout         = 0
	DefaultChunkSize             = 1024
	DefaultOutputDir             = "."
	DefaultContinueOnError       = false
	DefaultSinkType              = SinkTypeLocal
	ConfigFileExtension          = ".json"
)

const (
	SinkTypeLocal = "local"
	SinkTypeMinio = "minio"
)

// ClientConfig holds every option used to build a download Client.
type ClientConfig struct {
	// Log
	LogLevel            string `json:"LogLevel,omitempty"`
	LogOutputFormat     string `json:"LogOutputFormat,omitempty"` // "json" or "console"
	LogConsoleSeparator string `json:"LogConsoleSeparator,omitempty"`
	HideSensitiveData   bool   `json:"HideSensitiveData"`

	// Cookies
	CookieJarEnabled bool              `json:"CookieJarEnabled"`
	CustomCookies    map[string]string `json:"CustomCookies,omitempty"`

	// HTTP
	FollowRedirects bool         `json:"FollowRedirects"`
	MaxRedirects    int          `json:"MaxRedirects,omitempty"`
	CustomTimeout   JSONDuration `json:"CustomTimeout,omitempty"` // Zero disables the client timeout

	// Proxy
	ProxyURL       string `json:"ProxyURL,omitempty"`
	ProxyUsername  string `json:"ProxyUsername,omitempty"`
	ProxyPassword  string `json:"ProxyPassword,omitempty"`
	ProxyAuthToken string `json:"ProxyAuthToken,omitempty"`

	// Downloads
	URLTemplate     string   `json:"URLTemplate,omitempty"`
	ResourceIDs     []string `json:"ResourceIDs,omitempty"`
	ChunkSize       int      `json:"ChunkSize,omitempty"`
	OutputDir       string   `json:"OutputDir,omitempty"`
	ContinueOnError bool     `json:"ContinueOnError"`

	// Sink
	SinkType string           `json:"SinkType,omitempty"`
	Minio    sink.MinioConfig `json:"Minio"`
}

// JSONDuration is a time.Duration that reads and writes as a Go duration string ("30s").
type JSONDuration time.Duration

// Duration returns d as a time.Duration.
func (d JSONDuration) Duration() time.Duration {
	return time.Duration(d)
}

func (d JSONDuration) String() string {
	return time.Duration(d).String()
}

func (d JSONDuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *JSONDuration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = JSONDuration(time.Duration(value))
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		*d = JSONDuration(parsed)
	default:
		return fmt.Errorf("invalid duration: %s", string(b))
	}
	return nil
}

// DefaultClientConfig returns a configuration that downloads the default resource list into
// the current directory.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		LogLevel:            DefaultLogLevelString,
		LogOutputFormat:     DefaultLogOutputFormatString,
		LogConsoleSeparator: DefaultLogConsoleSeparator,
		HideSensitiveData:   DefaultHideSensitiveData,
		CookieJarEnabled:    DefaultCookieJarEnabled,
		FollowRedirects:     DefaultFollowRedirects,
		MaxRedirects:        DefaultMaxRedirects,
		CustomTimeout:       DefaultCustomTimeout,
		URLTemplate:         DefaultURLTemplate,
		ResourceIDs:         slices.Clone(DefaultResourceIDs),
		ChunkSize:           DefaultChunkSize,
		OutputDir:           DefaultOutputDir,
		ContinueOnError:     DefaultContinueOnError,
		SinkType:            DefaultSinkType,
	}
}

// LoadConfigFromFile loads download client configuration settings from a JSON file.
// Keys missing from the file keep their default values.
func LoadConfigFromFile(path string) (*ClientConfig, error) {
	absPath, err := validateFilePath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid file path: %w", err)
	}

	fileBytes, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read the configuration file: %s, error: %w", absPath, err)
	}

	config := DefaultClientConfig()
	if err := json.Unmarshal(fileBytes, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal the configuration file: %s, error: %w", absPath, err)
	}

	SetDefaultValuesClientConfig(&config)

	return &config, nil
}

// LoadConfigFromEnv loads download client configuration settings from environment variables.
// If any environment variables are not set, the default values defined in the constants are used instead.
func LoadConfigFromEnv() (*ClientConfig, error) {
	config := &ClientConfig{
		LogLevel:            getEnvAsString("LOG_LEVEL", DefaultLogLevelString),
		LogOutputFormat:     getEnvAsString("LOG_OUTPUT_FORMAT", DefaultLogOutputFormatString),
		LogConsoleSeparator: getEnvAsString("LOG_CONSOLE_SEPARATOR", DefaultLogConsoleSeparator),
		HideSensitiveData:   getEnvAsBool("HIDE_SENSITIVE_DATA", DefaultHideSensitiveData),
		CookieJarEnabled:    getEnvAsBool("ENABLE_COOKIE_JAR", DefaultCookieJarEnabled),
		FollowRedirects:     getEnvAsBool("FOLLOW_REDIRECTS", DefaultFollowRedirects),
		MaxRedirects:        getEnvAsInt("MAX_REDIRECTS", DefaultMaxRedirects),
		CustomTimeout:       JSONDuration(getEnvAsDuration("CUSTOM_TIMEOUT", DefaultCustomTimeout)),
		ProxyURL:            getEnvAsString("PROXY_URL", ""),
		ProxyUsername:       getEnvAsString("PROXY_USERNAME", ""),
		ProxyPassword:       getEnvAsString("PROXY_PASSWORD", ""),
		ProxyAuthToken:      getEnvAsString("PROXY_AUTH_TOKEN", ""),
		URLTemplate:         getEnvAsString("URL_TEMPLATE", DefaultURLTemplate),
		ResourceIDs:         getEnvAsList("RESOURCE_IDS", DefaultResourceIDs),
		ChunkSize:           getEnvAsInt("CHUNK_SIZE", DefaultChunkSize),
		OutputDir:           getEnvAsString("OUTPUT_DIR", DefaultOutputDir),
		ContinueOnError:     getEnvAsBool("CONTINUE_ON_ERROR", DefaultContinueOnError),
		SinkType:            getEnvAsString("SINK_TYPE", DefaultSinkType),
		Minio: sink.MinioConfig{
			Endpoint:        getEnvAsString("MINIO_ENDPOINT", ""),
			AccessKeyID:     getEnvAsString("MINIO_ACCESS_KEY", ""),
			SecretAccessKey: getEnvAsString("MINIO_SECRET_KEY", ""),
			BucketName:      getEnvAsString("MINIO_BUCKET_NAME", ""),
			UseSSL:          getEnvAsBool("MINIO_USE_SSL", false),
			Location:        getEnvAsString("MINIO_LOCATION", ""),
			Prefix:          getEnvAsString("MINIO_PREFIX", ""),
		},
	}

	// Load custom cookies from environment variables.
	if customCookies := getEnvAsString("CUSTOM_COOKIES", ""); customCookies != "" {
		config.CustomCookies = parseCookiesFromString(customCookies)
	}

	return config, nil
}

// LoadConfigFromDotEnv loads the variables in the .env file at path into the process
// environment, without overriding variables that are already set, and then reads the
// configuration from the environment. A missing file is not an error.
func LoadConfigFromDotEnv(path string) (*ClientConfig, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return LoadConfigFromEnv()
}

func validateClientConfig(config ClientConfig, populateDefaults bool) error {
	if populateDefaults {
		SetDefaultValuesClientConfig(&config)
	}

	if !logger.IsValidLogLevel(config.LogLevel) {
		return fmt.Errorf("invalid log level: %s, expected one of %s", config.LogLevel, strings.Join(logger.LogLevelNames(), ", "))
	}

	validLogFormats := []string{
		logger.LogOutputJSON,
		logger.LogOutputConsole,
	}
	if !slices.Contains(validLogFormats, config.LogOutputFormat) {
		return fmt.Errorf("invalid log output format: %s", config.LogOutputFormat)
	}

	if err := validateURLTemplate(config.URLTemplate); err != nil {
		return err
	}

	if len(config.ResourceIDs) == 0 {
		return errors.New("at least one resource id is required")
	}
	for i, id := range config.ResourceIDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("resource id at position %d is empty", i)
		}
	}

	if config.ChunkSize < 1 {
		return errors.New("chunk size cannot be less than 1")
	}

	if config.CustomTimeout < 0 {
		return errors.New("timeout cannot be less than 0 seconds")
	}

	if config.FollowRedirects && config.MaxRedirects < 1 {
		return errors.New("max redirects cannot be less than 1")
	}

	switch config.SinkType {
	case SinkTypeLocal:
	case SinkTypeMinio:
		if err := config.Minio.Validate(); err != nil {
			return fmt.Errorf("invalid minio configuration: %w", err)
		}
	default:
		return fmt.Errorf("invalid sink type: %s", config.SinkType)
	}

	return nil
}

func validateURLTemplate(template string) error {
	if !strings.Contains(template, resourceIDPlaceholder) {
		return fmt.Errorf("url template must contain %s: %s", resourceIDPlaceholder, template)
	}

	parsed, err := url.Parse(strings.ReplaceAll(template, resourceIDPlaceholder, "id"))
	if err != nil {
		return fmt.Errorf("invalid url template %s: %w", template, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("url template must use http or https: %s", template)
	}
	if parsed.Host == "" {
		return fmt.Errorf("url template must include a host: %s", template)
	}
	return nil
}

// SetDefaultValuesClientConfig fills in zero valued fields. Boolean options cannot be told apart
// from an explicit false, so their defaults are applied by DefaultClientConfig and the loaders.
func SetDefaultValuesClientConfig(config *ClientConfig) {
	setDefaultString(&config.LogLevel, DefaultLogLevelString)
	setDefaultString(&config.LogOutputFormat, DefaultLogOutputFormatString)
	setDefaultString(&config.LogConsoleSeparator, DefaultLogConsoleSeparator)
	setDefaultInt(&config.MaxRedirects, DefaultMaxRedirects, 0)
	setDefaultString(&config.URLTemplate, DefaultURLTemplate)
	if len(config.ResourceIDs) == 0 {
		config.ResourceIDs = slices.Clone(DefaultResourceIDs)
	}
	setDefaultInt(&config.ChunkSize, DefaultChunkSize, 0)
	setDefaultString(&config.OutputDir, DefaultOutputDir)
	setDefaultString(&config.SinkType, DefaultSinkType)
}

func setDefaultString(field *string, defaultValue string) {
	if *field == "" {
		*field = defaultValue
	}
}

func setDefaultInt(field *int, defaultValue, minValue int) {
	if *field <= minValue {
		*field = defaultValue
	}
}

func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping empty entries.
func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return slices.Clone(defaultValue)
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// parseCookiesFromString parses a semi-colon separated string of key=value pairs into a map.
func parseCookiesFromString(cookieStr string) map[string]string {
	cookies := make(map[string]string)
	for _, pair := range strings.Split(cookieStr, ";") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) == 2 {
			key := strings.TrimSpace(kv[0])
			if key == "" {
				continue
			}
			cookies[key] = strings.TrimSpace(kv[1])
		}
	}
	return cookies
}

// validateFilePath cleans path, resolves symlinks and checks the configuration file extension.
func validateFilePath(path string) (string, error) {
	cleanPath := filepath.Clean(path)

	if slices.Contains(strings.Split(filepath.ToSlash(cleanPath), "/"), "..") {
		return "", fmt.Errorf("invalid path, path traversal patterns detected: %s", path)
	}

	absPath, err := filepath.EvalSymlinks(cleanPath)
	if err != nil {
		return "", fmt.Errorf("unable to resolve the absolute path of the configuration file: %s, error: %w", path, err)
	}

	if filepath.Ext(absPath) != ConfigFileExtension {
		return "", fmt.Errorf("invalid file extension for configuration file: %s, expected %s", path, ConfigFileExtension)
	}

	return absPath, nil
}
