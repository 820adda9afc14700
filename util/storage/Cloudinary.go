package storage

import (
	"log"

	"github.com/bwise1/roadwatch/config"
	"github.com/bwise1/roadwatch/internal/model"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/pkg/errors"
)

var ErrNotConfigured = errors.New("cloudinary is not configured")

type Cloudinary struct {
	CLD *cloudinary.Cloudinary
}

// NewCloudinary returns ErrNotConfigured when no credentials are set.
func NewCloudinary(cfg *config.Config) (*Cloudinary, error) {
	if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
		return nil, ErrNotConfigured
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize cloudinary")
	}
	return &Cloudinary{CLD: cld}, nil
}

// FetchURL returns a delivery URL that proxies and caches remote.
func (c *Cloudinary) FetchURL(remote string) (string, error) {
	img, err := c.CLD.Image(remote)
	if err != nil {
		return "", errors.Wrap(err, "failed to build fetch asset")
	}
	img.DeliveryType = "fetch"

	u, err := img.String()
	if err != nil {
		return "", errors.Wrap(err, "failed to build fetch url")
	}
	return u, nil
}

type StreetView interface {
	StreetViewURL(p model.GeoPoint, width, height int) string
}

// Imagery serves preview images from Source, routed through the CDN when
// one is configured.
type Imagery struct {
	Source StreetView
	CDN    *Cloudinary
}

func (i Imagery) StreetViewURL(p model.GeoPoint, width, height int) string {
	if i.Source == nil {
		return ""
	}
	raw := i.Source.StreetViewURL(p, width, height)
	if raw == "" || i.CDN == nil {
		return raw
	}

	u, err := i.CDN.FetchURL(raw)
	if err != nil {
		log.Println("imagery fetch url:", err)
		return raw
	}
	return u
}
