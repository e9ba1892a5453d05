// Package parkingspaces resolves published parking spaces from the search
// index maintained by the property system.
package parkingspaces

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"parkingspace-workers/internal/common/logger"
	"parkingspace-workers/internal/common/result"
	"parkingspace-workers/internal/domain"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/tidwall/gjson"
)

type LookupError string

const (
	LookupNotFound LookupError = "not-found"
	LookupUnknown  LookupError = "unknown"
)

// Lookup reads published parking spaces by rental object code. Documents are
// keyed by rental object code.
type Lookup struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewLookup(client *elasticsearch.Client, index string, log logger.Logger) *Lookup {
	return &Lookup{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"adapter": "parkingspaces", "index": index}),
	}
}

func (l *Lookup) GetPublishedParkingSpace(ctx context.Context, rentalObjectCode string) result.Result[domain.PublishedParkingSpace, LookupError] {
	res, err := l.client.Get(l.index, rentalObjectCode, l.client.Get.WithContext(ctx))
	if err != nil {
		l.logger.Error("parking space lookup failed", map[string]interface{}{
			"rentalObjectCode": rentalObjectCode,
			"error":            err,
		})
		return result.ErrWithCause[domain.PublishedParkingSpace](LookupUnknown, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return result.ErrWithCause[domain.PublishedParkingSpace](LookupUnknown, err)
	}

	if res.StatusCode == http.StatusNotFound {
		return result.Err[domain.PublishedParkingSpace](LookupNotFound)
	}
	if res.IsError() {
		l.logger.Warn("parking space lookup returned error", map[string]interface{}{
			"rentalObjectCode": rentalObjectCode,
			"status":           res.Status(),
		})
		return result.ErrWithCause[domain.PublishedParkingSpace](LookupUnknown, fmt.Errorf("elasticsearch: %s", res.Status()))
	}

	doc := gjson.GetBytes(body, "_source")
	if !gjson.GetBytes(body, "found").Bool() || !doc.Exists() {
		return result.Err[domain.PublishedParkingSpace](LookupNotFound)
	}

	var space domain.PublishedParkingSpace
	if err := json.Unmarshal([]byte(doc.Raw), &space); err != nil {
		return result.ErrWithCause[domain.PublishedParkingSpace](LookupUnknown, err)
	}
	if space.RentalObjectCode == "" {
		space.RentalObjectCode = rentalObjectCode
	}
	return result.Ok[domain.PublishedParkingSpace, LookupError](space)
}
