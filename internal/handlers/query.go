package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/starfederation/datastar-go/datastar"

	"ecommerce-dashboard/internal/models"
	"ecommerce-dashboard/internal/services"
)

const (
	maxTopN          = 100
	datastarQueryKey = "datastar"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// summaryParams are the query parameters accepted by every summary endpoint.
type summaryParams struct {
	Start string `json:"start" validate:"omitempty,datetime=2006-01-02"`
	End   string `json:"end" validate:"omitempty,datetime=2006-01-02"`
	TopN  int    `json:"topN" validate:"omitempty,min=1,max=100"`
}

// parseSummaryQuery reads start, end and top_n from the URL. Requests issued
// by the dashboard page carry them as datastar signals instead.
func parseSummaryQuery(r *http.Request) (services.SummaryQuery, error) {
	var params summaryParams
	q := r.URL.Query()

	if q.Has(datastarQueryKey) {
		if err := datastar.ReadSignals(r, &params); err != nil {
			return services.SummaryQuery{}, fmt.Errorf("read signals: %w", err)
		}
	}

	if v := q.Get("start"); v != "" {
		params.Start = v
	}
	if v := q.Get("end"); v != "" {
		params.End = v
	}
	if v := q.Get("top_n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return services.SummaryQuery{}, fmt.Errorf("top_n must be an integer, got %q", v)
		}
		if n == 0 {
			return services.SummaryQuery{}, fmt.Errorf("top_n must be between 1 and %d", maxTopN)
		}
		params.TopN = n
	}

	params.Start = strings.TrimSpace(params.Start)
	params.End = strings.TrimSpace(params.End)
	if err := validate.Struct(params); err != nil {
		return services.SummaryQuery{}, describeValidation(err)
	}

	var rng models.DateRange
	if params.Start != "" {
		rng.From, _ = time.Parse(time.DateOnly, params.Start)
	}
	if params.End != "" {
		rng.To, _ = time.Parse(time.DateOnly, params.End)
	}
	return services.SummaryQuery{Range: rng, TopN: params.TopN}, nil
}

func describeValidation(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Field() {
		case "Start", "End":
			msgs = append(msgs, fmt.Sprintf("%s must be a date formatted YYYY-MM-DD", strings.ToLower(fe.Field())))
		case "TopN":
			msgs = append(msgs, fmt.Sprintf("top_n must be between 1 and %d", maxTopN))
		default:
			msgs = append(msgs, fe.Error())
		}
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}
