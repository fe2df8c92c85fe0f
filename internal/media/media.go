// Package media releases files held by the external media host.
package media

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"golang.org/x/sync/errgroup"

	"github.com/PaulBabatuyi/portfolio-api/internal/config"
)

// Resource types understood by the media host.
const (
	ResourceImage = "image"
	ResourceVideo = "video"
)

// ErrNotConfigured is returned by Disabled for every call.
var ErrNotConfigured = errors.New("media host is not configured")

// Asset identifies one hosted file.
type Asset struct {
	PublicID     string
	ResourceType string
}

// Destroyer removes a hosted file.
type Destroyer interface {
	Destroy(ctx context.Context, publicID, resourceType string) error
}

// Cloudinary destroys assets through the Cloudinary upload API.
type Cloudinary struct {
	cld     *cloudinary.Cloudinary
	timeout time.Duration
}

// NewCloudinary returns a Cloudinary destroyer, or Disabled when credentials are missing.
func NewCloudinary(cfg config.MediaConfig) (Destroyer, error) {
	if !cfg.Enabled() {
		return Disabled{}, nil
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary client: %w", err)
	}
	return &Cloudinary{cld: cld, timeout: cfg.Timeout}, nil
}

// Destroy deletes one asset. A missing asset counts as released.
func (c *Cloudinary) Destroy(ctx context.Context, publicID, resourceType string) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	res, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	if err != nil {
		return fmt.Errorf("destroy %s %s: %w", resourceType, publicID, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("destroy %s %s: %s", resourceType, publicID, res.Error.Message)
	}
	switch res.Result {
	case "ok", "not found":
		return nil
	default:
		return fmt.Errorf("destroy %s %s: unexpected result %q", resourceType, publicID, res.Result)
	}
}

// Disabled is the Destroyer used when no media host is configured.
type Disabled struct{}

func (Disabled) Destroy(context.Context, string, string) error { return ErrNotConfigured }

// Failure records an asset that could not be released.
type Failure struct {
	Asset Asset
	Err   error
}

// Release destroys every asset concurrently and waits for all of them.
// A failed release never cancels or rolls back the others.
func Release(ctx context.Context, d Destroyer, assets []Asset) []Failure {
	errs := make([]error, len(assets))

	var g errgroup.Group
	for i, a := range assets {
		g.Go(func() error {
			errs[i] = d.Destroy(ctx, a.PublicID, a.ResourceType)
			return nil
		})
	}
	_ = g.Wait()

	var failures []Failure
	for i, err := range errs {
		if err != nil {
			failures = append(failures, Failure{Asset: assets[i], Err: err})
		}
	}
	return failures
}
