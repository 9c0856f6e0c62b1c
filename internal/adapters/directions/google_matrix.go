package directions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/samber/lo"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/domain"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/platform/obs"
)

// Distance Matrix request limits.
const (
	maxMatrixDimension = 25
	maxMatrixElements  = 100
)

type matrixResponse struct {
	Status       string      `json:"status"`
	ErrorMessage string      `json:"error_message"`
	Rows         []matrixRow `json:"rows"`
}

type matrixRow struct {
	Elements []matrixElement `json:"elements"`
}

type matrixElement struct {
	Status   string    `json:"status"`
	Duration textValue `json:"duration"`
	Distance textValue `json:"distance"`
}

// GoogleMatrix implements ports.BatchCostOracle with the Google Distance
// Matrix API. Origins are split into as few requests as the element limit
// allows and the rows are stitched back in order.
type GoogleMatrix struct {
	client *GoogleClient
}

func NewGoogleMatrix(client *GoogleClient) *GoogleMatrix {
	return &GoogleMatrix{client: client}
}

func (g *GoogleMatrix) Matrix(
	ctx context.Context,
	origins []domain.LatLng,
	destinations []domain.LatLng,
	mode domain.TransportMode,
) (_ *domain.MatrixResponse, err error) {
	defer obs.Time(ctx, g.client.log, "google.Matrix")(&err)

	if len(origins) == 0 || len(destinations) == 0 {
		return &domain.MatrixResponse{Status: domain.StatusOK, Rows: []domain.MatrixRow{}}, nil
	}
	if len(destinations) > maxMatrixDimension {
		return nil, fmt.Errorf("distance matrix supports at most %d destinations, got %d", maxMatrixDimension, len(destinations))
	}

	rowsPerRequest := min(maxMatrixDimension, maxMatrixElements/len(destinations))
	out := &domain.MatrixResponse{Status: domain.StatusOK, Rows: make([]domain.MatrixRow, 0, len(origins))}

	for _, chunk := range lo.Chunk(origins, rowsPerRequest) {
		rows, err := g.fetchRows(ctx, chunk, destinations, mode)
		if err != nil {
			return nil, err
		}
		out.Rows = append(out.Rows, rows...)
	}

	return out, nil
}

func (g *GoogleMatrix) fetchRows(
	ctx context.Context,
	origins []domain.LatLng,
	destinations []domain.LatLng,
	mode domain.TransportMode,
) ([]domain.MatrixRow, error) {
	q := url.Values{}
	q.Set("origins", joinPoints(origins))
	q.Set("destinations", joinPoints(destinations))
	q.Set("mode", strings.ToLower(string(mode)))

	resp, err := g.client.doWithRetry(ctx, func() (*http.Request, error) {
		return g.client.newRequest(ctx, "/distancematrix/json", q)
	})
	if err != nil {
		return nil, fmt.Errorf("matrix request failed: %w", err)
	}
	defer resp.Body.Close()

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("decode matrix response: %w", err)
	}

	if mr.Status != domain.StatusOK {
		return nil, fmt.Errorf("distance matrix: %w", statusError(mr.Status, mr.ErrorMessage))
	}

	if len(mr.Rows) != len(origins) {
		return nil, fmt.Errorf("expected %d matrix rows, got %d", len(origins), len(mr.Rows))
	}

	rows := make([]domain.MatrixRow, 0, len(mr.Rows))
	for i, r := range mr.Rows {
		if len(r.Elements) != len(destinations) {
			return nil, fmt.Errorf("row %d has %d elements, expected %d", i, len(r.Elements), len(destinations))
		}
		rows = append(rows, domain.MatrixRow{
			Elements: lo.Map(r.Elements, func(e matrixElement, _ int) domain.MatrixElement {
				return domain.MatrixElement{
					Status:   e.Status,
					Duration: domain.TextValue(e.Duration),
					Distance: domain.TextValue(e.Distance),
				}
			}),
		})
	}

	return rows, nil
}

func joinPoints(points []domain.LatLng) string {
	return strings.Join(lo.Map(points, func(p domain.LatLng, _ int) string { return p.Key() }), "|")
}
