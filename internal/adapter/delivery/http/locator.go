package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/ttl-shortener/internal/entity"
	"github.com/vadimbarashkov/ttl-shortener/internal/usecase"
)

// Headers a client may send to share its approximate location with a click.
const (
	headerGeoLatitude  = "X-Geo-Latitude"
	headerGeoLongitude = "X-Geo-Longitude"
	headerGeoAccuracy  = "X-Geo-Accuracy"
)

// maxGeoAccuracy is half the Earth's circumference in meters.
const maxGeoAccuracy = 20_037_508

var errInvalidLocation = errors.New("invalid location headers")

type headerLocator struct {
	latitude  string
	longitude string
	accuracy  string
	validate  *validator.Validate
}

// locatorFromRequest returns nil when the request carries no location headers.
func locatorFromRequest(r *http.Request, validate *validator.Validate) usecase.Locator {
	lat := r.Header.Get(headerGeoLatitude)
	lon := r.Header.Get(headerGeoLongitude)

	if lat == "" && lon == "" {
		return nil
	}

	return &headerLocator{
		latitude:  lat,
		longitude: lon,
		accuracy:  r.Header.Get(headerGeoAccuracy),
		validate:  validate,
	}
}

func (l *headerLocator) Locate(_ context.Context) (*entity.Location, error) {
	if l.validate.Var(l.latitude, "required,latitude") != nil ||
		l.validate.Var(l.longitude, "required,longitude") != nil {
		return nil, errInvalidLocation
	}

	lat, err := strconv.ParseFloat(l.latitude, 64)
	if err != nil {
		return nil, errInvalidLocation
	}
	lon, err := strconv.ParseFloat(l.longitude, 64)
	if err != nil {
		return nil, errInvalidLocation
	}

	var acc float64
	if l.accuracy != "" {
		acc, err = strconv.ParseFloat(l.accuracy, 64)
		if err != nil {
			return nil, errInvalidLocation
		}
		if l.validate.Var(acc, fmt.Sprintf("gte=0,lte=%d", maxGeoAccuracy)) != nil {
			return nil, errInvalidLocation
		}
	}

	return entity.NewLocation(lat, lon, acc), nil
}
