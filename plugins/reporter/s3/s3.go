// Package s3 implements a reporter archiving output records to S3 as one
// gzip-compressed JSON-lines object.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/compress/gzip"

	"firestige.xyz/ngtrace/internal/core"
	"firestige.xyz/ngtrace/internal/log"
	"firestige.xyz/ngtrace/internal/record"
	"firestige.xyz/ngtrace/pkg/plugin"
)

const pluginName = "s3"

const defaultTimeout = 30 * time.Second

// Config represents s3 reporter configuration.
type Config struct {
	Bucket    string        `mapstructure:"bucket"`
	Key       string        `mapstructure:"key"` // "{date}" expands to the run start, UTC
	Region    string        `mapstructure:"region"`
	Endpoint  string        `mapstructure:"endpoint"`   // S3-compatible endpoint, optional
	PathStyle bool          `mapstructure:"path_style"` // required by most S3-compatible stores
	Timeout   time.Duration `mapstructure:"timeout"`
}

// putObjectAPI is the subset of *s3.Client the reporter uses.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Reporter buffers records in memory and uploads the whole object on
// every Flush. Uploads are not retried; a failed upload fails the run.
type S3Reporter struct {
	config Config
	client putObjectAPI
	key    string

	body   bytes.Buffer
	gz     *gzip.Writer
	writer *record.Writer
	dirty  bool
	total  int
}

// NewS3Reporter creates a new s3 reporter.
func NewS3Reporter() plugin.Reporter {
	return &S3Reporter{config: Config{Timeout: defaultTimeout}}
}

// Name returns the plugin name.
func (r *S3Reporter) Name() string {
	return pluginName
}

// Init decodes the reporter options. bucket and key are required.
func (r *S3Reporter) Init(cfg map[string]any) error {
	if err := plugin.DecodeOptions(pluginName, cfg, &r.config); err != nil {
		return err
	}
	if r.config.Bucket == "" || r.config.Key == "" {
		return fmt.Errorf("%w: %s: bucket and key are required", core.ErrConfigInvalid, pluginName)
	}
	if r.config.Timeout <= 0 {
		r.config.Timeout = defaultTimeout
	}
	return nil
}

// Start loads the AWS configuration and creates the client.
func (r *S3Reporter) Start(ctx context.Context) error {
	r.key = expandKey(r.config.Key, time.Now())
	if r.client != nil {
		return nil
	}

	var opts []func(*awsconfig.LoadOptions) error
	if r.config.Region != "" {
		opts = append(opts, awsconfig.WithRegion(r.config.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("%w: load aws config: %v", core.ErrSinkWrite, err)
	}

	r.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if r.config.Endpoint != "" {
			o.BaseEndpoint = aws.String(r.config.Endpoint)
		}
		o.UsePathStyle = r.config.PathStyle
		o.RetryMaxAttempts = 1
	})

	log.GetLogger().WithFields(map[string]interface{}{
		"bucket": r.config.Bucket,
		"key":    r.key,
	}).Debug("s3 reporter started")
	return nil
}

func expandKey(key string, now time.Time) string {
	return strings.ReplaceAll(key, "{date}", now.UTC().Format("20060102T150405Z"))
}

// Report appends the record of msg to the pending object.
func (r *S3Reporter) Report(ctx context.Context, msg *core.Message) error {
	if msg == nil {
		return fmt.Errorf("nil message")
	}
	if r.writer == nil {
		// Each flushed segment is a complete gzip member; concatenated
		// members form one valid gzip stream.
		r.gz, _ = gzip.NewWriterLevel(&r.body, gzip.BestSpeed)
		r.writer = record.NewWriter(r.gz)
	}
	if err := r.writer.Write(record.FromMessage(msg)); err != nil {
		return err
	}
	r.dirty = true
	r.total++
	return nil
}

// Flush uploads everything reported so far. Nothing is uploaded when no
// record arrived since the last Flush.
func (r *S3Reporter) Flush(ctx context.Context) error {
	if !r.dirty {
		return nil
	}
	if r.client == nil {
		return fmt.Errorf("%w: %s not started", core.ErrSinkWrite, pluginName)
	}

	if err := r.writer.Close(); err != nil {
		return err
	}
	if err := r.gz.Close(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrSinkWrite, err)
	}
	r.writer, r.gz = nil, nil

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	body := r.body.Bytes()
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(r.config.Bucket),
		Key:             aws.String(r.key),
		Body:            bytes.NewReader(body),
		ContentLength:   aws.Int64(int64(len(body))),
		ContentType:     aws.String("application/x-ndjson"),
		ContentEncoding: aws.String("gzip"),
	})
	if err != nil {
		return fmt.Errorf("%w: put s3://%s/%s: %v", core.ErrSinkWrite, r.config.Bucket, r.key, err)
	}
	r.dirty = false

	log.GetLogger().WithFields(map[string]interface{}{
		"bucket":  r.config.Bucket,
		"key":     r.key,
		"records": r.total,
		"bytes":   len(body),
	}).Info("records uploaded")
	return nil
}

// Stop releases the pending buffer. Unflushed records are dropped.
func (r *S3Reporter) Stop(ctx context.Context) error {
	if r.dirty {
		log.GetLogger().WithField("key", r.key).Warn("s3 reporter stopped with unflushed records")
	}
	r.body.Reset()
	r.writer, r.gz = nil, nil
	r.dirty = false
	return nil
}
