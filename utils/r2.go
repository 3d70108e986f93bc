package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	appconfig "sqlquest/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// maxCatalogSize caps how much of an object FetchObject will read.
const maxCatalogSize = 8 << 20

var ErrObjectTooLarge = errors.New("object exceeds size limit")

// R2Client reads objects from a Cloudflare R2 bucket over the S3 API.
type R2Client struct {
	client *s3.Client
	bucket string
}

func R2Endpoint(accountID string) string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)
}

func NewR2Client(ctx context.Context, c appconfig.R2Config) (*R2Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKeyID, c.AccessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(R2Endpoint(c.AccountID))
	})
	return &R2Client{client: client, bucket: c.Bucket}, nil
}

// FetchObject downloads key unless its ETag still equals etag. changed is
// false when the stored object has not moved.
func (r *R2Client) FetchObject(ctx context.Context, key, etag string) (body []byte, newETag string, changed bool, err error) {
	in := &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	}
	if etag != "" {
		in.IfNoneMatch = aws.String(etag)
	}

	out, err := r.client.GetObject(ctx, in)
	if err != nil {
		var re *awshttp.ResponseError
		if errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotModified {
			return nil, etag, false, nil
		}
		return nil, "", false, fmt.Errorf("failed to get %s from R2: %w", key, err)
	}
	defer out.Body.Close()

	body, err = readCapped(out.Body, maxCatalogSize)
	if err != nil {
		return nil, "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return body, aws.ToString(out.ETag), true, nil
}

// readCapped reads r fully, failing instead of truncating past limit bytes.
func readCapped(r io.Reader, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("more than %d bytes: %w", limit, ErrObjectTooLarge)
	}
	return body, nil
}
