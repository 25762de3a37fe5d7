package commands

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/model/parcel"
	"parceltrack/internal/core/domain/services"
	"parceltrack/internal/core/ports"
	"parceltrack/internal/pkg/errs"
)

// MaxExportRows caps a single export.
const MaxExportRows = 10000

var ErrExportStorageNotConfigured = errs.NewDependencyFailureError(
	"export storage", errors.New("not configured"),
)

var exportHeader = []string{
	"tracking_number", "status", "customer_id", "agent_id",
	"pickup_address", "pickup_city", "delivery_address", "delivery_city",
	"size", "type", "weight", "payment_mode", "amount",
	"created_at", "delivered_at", "failure_reason",
}

// ExportResult tells where the export was stored.
type ExportResult struct {
	Location string
	Rows     int
}

// ExportParcelsCommandHandler renders matching parcels as CSV and hands the file to
// the artifact store.
type ExportParcelsCommandHandler struct {
	parcels ports.ParcelReader
	store   ports.ArtifactStore
	access  services.AccessGuard
}

func NewExportParcelsCommandHandler(parcels ports.ParcelReader, store ports.ArtifactStore) ExportParcelsCommandHandler {
	return ExportParcelsCommandHandler{
		parcels: parcels,
		store:   store,
		access:  services.NewAccessGuard(),
	}
}

// Handle writes the export. Admin only.
func (h ExportParcelsCommandHandler) Handle(ctx context.Context, cmd ExportParcelsCommand) (ExportResult, error) {
	if err := cmd.Validate(); err != nil {
		return ExportResult{}, err
	}
	if err := h.access.RequireRole(cmd.Caller(), "export parcels", identity.RoleAdmin); err != nil {
		return ExportResult{}, err
	}
	if h.store == nil {
		return ExportResult{}, ErrExportStorageNotConfigured
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return ExportResult{}, err
	}

	criteria := cmd.Criteria()
	criteria.Page = 1
	criteria.Limit = ports.MaxPageLimit

	rows := 0
	for rows < MaxExportRows {
		page, err := h.parcels.Search(ctx, criteria)
		if err != nil {
			return ExportResult{}, err
		}
		for _, p := range page.Items {
			if rows == MaxExportRows {
				break
			}
			if err = w.Write(exportRow(p)); err != nil {
				return ExportResult{}, err
			}
			rows++
		}
		if int64(criteria.Page*criteria.Limit) >= page.Total || len(page.Items) == 0 {
			break
		}
		criteria.Page++
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return ExportResult{}, err
	}

	key := fmt.Sprintf("exports/parcels-%s.csv", time.Now().UTC().Format("20060102T150405.000Z"))
	location, err := h.store.Put(ctx, key, "text/csv", buf.Bytes())
	if err != nil {
		return ExportResult{}, errs.NewDependencyFailureError("export storage", err)
	}

	return ExportResult{Location: location, Rows: rows}, nil
}

func exportRow(p *parcel.Parcel) []string {
	var agentID, weight, deliveredAt string
	if id := p.AgentID(); id != nil {
		agentID = id.String()
	}
	if w := p.Item().Weight(); w != nil {
		weight = strconv.FormatFloat(*w, 'f', -1, 64)
	}
	if at := p.DeliveredAt(); at != nil {
		deliveredAt = at.Format(time.RFC3339)
	}

	return []string{
		p.TrackingNumber().String(),
		p.Status().String(),
		p.CustomerID().String(),
		agentID,
		p.Pickup().Line(),
		p.Pickup().City(),
		p.Delivery().Line(),
		p.Delivery().City(),
		p.Item().Size().String(),
		p.Item().Type(),
		weight,
		p.Payment().Mode().String(),
		strconv.FormatFloat(p.Payment().Amount(), 'f', 2, 64),
		p.CreatedAt().Format(time.RFC3339),
		deliveredAt,
		p.FailureReason(),
	}
}
