// Package transit provides the transfer engine and its construction.
package transit

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"

	transiterrors "github.com/porterbay/transit/errors"
	"github.com/porterbay/transit/internal/metacache"
	"github.com/porterbay/transit/internal/retry"
	"github.com/porterbay/transit/internal/s3api"
	"github.com/porterbay/transit/internal/validation"
	"github.com/porterbay/transit/transittypes"
)

// Engine performs transfers against a single bucket. It owns its remote
// client and HTTP transport for its whole lifetime; construct one with New
// and release it with Close.
//
// An Engine is safe for concurrent use. The metadata cache is its only
// mutable shared state.
type Engine struct {
	client    s3api.S3API
	presigner s3api.Presigner
	cfg       transittypes.Config
	log       zerolog.Logger
	cache     *metacache.Cache
	flight    singleflight.Group

	// transport is set only when the engine built its own HTTP client,
	// and is the part Close shuts down.
	transport *http.Transport

	mu sync.RWMutex
	fs afero.Fs
}

// New creates an Engine bound to the configured bucket. Credentials and
// region resolve through the standard AWS chain unless overridden by
// options or a custom aws.Config.
func New(ctx context.Context, opts ...transittypes.Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := validation.ValidateBucketName(cfg.Bucket); err != nil {
		return nil, err
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	var transport *http.Transport
	if httpClient == nil {
		transport = newTransport(&cfg)
		httpClient = &http.Client{Transport: transport}
	}

	awsCfg, err := resolveAWSConfig(ctx, &cfg, httpClient)
	if err != nil {
		return nil, transiterrors.Wrap(transiterrors.KindAuthFailure, "configure", err).
			WithMessage("load AWS configuration")
	}
	if awsCfg.Region == "" {
		awsCfg.Region = transittypes.DefaultRegion
	}

	var s3Opts []func(*s3.Options)
	if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	raw := s3.NewFromConfig(awsCfg, s3Opts...)

	e := newEngine(raw, cfg)
	e.presigner = s3.NewPresignClient(raw)
	e.transport = transport

	e.log.Debug().
		Str("bucket", cfg.Bucket).
		Str("region", awsCfg.Region).
		Msg("transfer engine initialized")

	return e, nil
}

// NewWithClient creates an Engine using the provided S3 client. Intended
// for tests and for callers that manage SDK construction themselves; no
// credential resolution happens and no presigner is configured.
func NewWithClient(client s3api.S3API, opts ...transittypes.Option) *Engine {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return newEngine(client, cfg)
}

func newEngine(client s3api.S3API, cfg transittypes.Config) *Engine {
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	fs := cfg.Filesystem
	if fs == nil {
		fs = afero.NewOsFs()
	}

	ttl := cfg.CacheTTL
	if cfg.CacheDisabled {
		ttl = 0
	}

	return &Engine{
		client: client,
		cfg:    cfg,
		log:    log,
		fs:     fs,
		cache:  metacache.New(ttl),
	}
}

// Close releases resources owned by the engine. Only a transport the
// engine built itself is shut down; a caller-supplied HTTP client stays
// untouched.
func (e *Engine) Close() error {
	if e.transport != nil {
		e.transport.CloseIdleConnections()
	}
	return nil
}

// Bucket returns the bucket this engine is bound to.
func (e *Engine) Bucket() string {
	return e.cfg.Bucket
}

// SetFilesystem swaps the filesystem used for local file transfers.
// Intended for tests running against an in-memory filesystem.
func (e *Engine) SetFilesystem(fs afero.Fs) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fs = fs
}

// SetPresigner swaps the presign client. Intended for tests, since
// NewWithClient configures none.
func (e *Engine) SetPresigner(p s3api.Presigner) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.presigner = p
}

func (e *Engine) filesystem() afero.Fs {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.fs
}

func (e *Engine) getPresigner() s3api.Presigner {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.presigner
}

// retryPolicy converts the configured policy for the retry package.
func (e *Engine) retryPolicy() retry.Policy {
	r := e.cfg.Retry
	return retry.Policy{
		MaxAttempts:     r.MaxAttempts,
		BaseDelay:       r.BaseDelay,
		MaxDelay:        r.MaxDelay,
		ExponentialBase: r.ExponentialBase,
		Jitter:          r.Jitter,
	}
}

func defaultConfig() transittypes.Config {
	return transittypes.Config{
		MultipartThreshold:   transittypes.DefaultMultipartThreshold,
		ChunkSize:            transittypes.DefaultChunkSize,
		MaxConcurrentUploads: transittypes.DefaultMaxConcurrentUploads,
		MaxObjectSize:        transittypes.DefaultMaxObjectSize,
		ConnectTimeout:       transittypes.DefaultConnectTimeout,
		ReadTimeout:          transittypes.DefaultReadTimeout,
		Retry:                transittypes.DefaultRetryPolicy(),
		DefaultPresignExpiry: transittypes.DefaultPresignExpiry,
		MaxPresignExpiry:     transittypes.MaxPresignExpiry,
		CacheTTL:             transittypes.DefaultCacheTTL,
	}
}

func validateConfig(cfg *transittypes.Config) error {
	if cfg.MultipartThreshold <= 0 {
		return configError("multipart threshold must be positive")
	}
	if cfg.ChunkSize <= 0 {
		return configError("chunk size must be positive")
	}
	if cfg.MaxConcurrentUploads <= 0 {
		return configError("max concurrent uploads must be positive")
	}
	if cfg.MaxObjectSize <= 0 {
		return configError("max object size must be positive")
	}
	if cfg.Retry.MaxAttempts < 1 {
		return configError("retry attempts must be at least 1")
	}
	if cfg.MaxPresignExpiry > 0 && cfg.DefaultPresignExpiry > cfg.MaxPresignExpiry {
		return configError("default presign expiry exceeds the maximum")
	}
	return nil
}

func configError(msg string) error {
	return transiterrors.New(transiterrors.KindGeneric, "configure").WithMessage(msg)
}

// resolveAWSConfig loads SDK configuration, honoring a caller-supplied
// aws.Config when present.
func resolveAWSConfig(
	ctx context.Context,
	cfg *transittypes.Config,
	httpClient *http.Client,
) (aws.Config, error) {
	if cfg.AWSConfig != nil {
		awsCfg := *cfg.AWSConfig
		if cfg.Region != "" {
			awsCfg.Region = cfg.Region
		}
		return awsCfg, nil
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithHTTPClient(httpClient),
	}
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}
	if cfg.Endpoint != "" {
		loadOpts = append(loadOpts, config.WithBaseEndpoint(cfg.Endpoint))
	}

	return config.LoadDefaultConfig(ctx, loadOpts...)
}

// newTransport builds the HTTP transport for the S3 client. The per-host
// idle pool matches the part-upload concurrency so multipart bursts reuse
// connections instead of redialing. ReadTimeout bounds the wait for
// response headers; bodies stream without a total deadline so large
// downloads are not cut off mid-transfer.
func newTransport(cfg *transittypes.Config) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   cfg.MaxConcurrentUploads,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.ReadTimeout,
	}
}
