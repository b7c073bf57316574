package server

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/blackwell-systems/habitlens/internal/permission"
	"github.com/blackwell-systems/habitlens/internal/usage"
)

// PermissionBody is the wire form of a permission snapshot.
type PermissionBody struct {
	State     string     `json:"state" enum:"unknown,checking,granted,denied" example:"granted"`
	CheckedAt *time.Time `json:"checkedAt,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// UsageBody is the wire form of one usage window.
type UsageBody struct {
	Start           int64             `json:"start" doc:"Window start, epoch milliseconds"`
	End             int64             `json:"end" doc:"Window end, epoch milliseconds"`
	TotalForeground int64             `json:"totalTimeInForeground"`
	Apps            []usage.UsageInfo `json:"apps"`
}

type permissionOutput struct {
	Body PermissionBody
}

type usageOutput struct {
	Body UsageBody
}

func permissionBody(s permission.Snapshot) PermissionBody {
	b := PermissionBody{State: s.State.String(), Error: s.ErrText()}
	if !s.CheckedAt.IsZero() {
		t := s.CheckedAt
		b.CheckedAt = &t
	}
	return b
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerPermission(api huma.API, perms PermissionService) {
	huma.Register(api, huma.Operation{
		OperationID: "get-permission",
		Method:      http.MethodGet,
		Path:        "/permission",
		Summary:     "Current usage-access state",
	}, func(ctx context.Context, _ *struct{}) (*permissionOutput, error) {
		return &permissionOutput{Body: permissionBody(perms.Snapshot())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "check-permission",
		Method:      http.MethodPost,
		Path:        "/permission/check",
		Summary:     "Re-check usage access",
	}, func(ctx context.Context, _ *struct{}) (*permissionOutput, error) {
		return &permissionOutput{Body: permissionBody(perms.Check(ctx))}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "request-permission",
		Method:        http.MethodPost,
		Path:          "/permission/request",
		Summary:       "Open the usage-access settings surface",
		Description:   "Returns as soon as the settings surface is launched. The grant is observed by a later check.",
		DefaultStatus: http.StatusAccepted,
	}, func(ctx context.Context, _ *struct{}) (*permissionOutput, error) {
		if err := perms.Request(ctx); err != nil {
			return nil, newAPIError(http.StatusBadGateway, "launch_failed", err.Error())
		}
		return &permissionOutput{Body: permissionBody(perms.Snapshot())}, nil
	})
}

func registerUsage(api huma.API, svc UsageService) {
	query := func(ctx context.Context, w usage.TimeWindow) (*usageOutput, error) {
		infos, err := svc.Usage(ctx, w)
		if err != nil {
			return nil, handleError(err)
		}
		body := UsageBody{Start: w.Start(), End: w.End(), Apps: infos}
		if body.Apps == nil {
			body.Apps = []usage.UsageInfo{}
		}
		for _, info := range infos {
			body.TotalForeground += info.TotalForeground
		}
		return &usageOutput{Body: body}, nil
	}

	huma.Register(api, huma.Operation{
		OperationID: "usage-today",
		Method:      http.MethodGet,
		Path:        "/usage/today",
		Summary:     "Usage from local midnight to now",
	}, func(ctx context.Context, _ *struct{}) (*usageOutput, error) {
		return query(ctx, svc.Windows().Today())
	})

	huma.Register(api, huma.Operation{
		OperationID: "usage-yesterday",
		Method:      http.MethodGet,
		Path:        "/usage/yesterday",
		Summary:     "Usage for the previous calendar day",
	}, func(ctx context.Context, _ *struct{}) (*usageOutput, error) {
		return query(ctx, svc.Windows().Yesterday())
	})

	type daysPath struct {
		Days int `path:"days" doc:"Number of calendar days before today, at least 1"`
	}
	huma.Register(api, huma.Operation{
		OperationID: "usage-past-days",
		Method:      http.MethodGet,
		Path:        "/usage/past/{days}",
		Summary:     "Usage from midnight N days ago to now",
	}, func(ctx context.Context, input *daysPath) (*usageOutput, error) {
		w, err := svc.Windows().PastDays(input.Days)
		if err != nil {
			return nil, handleError(err)
		}
		return query(ctx, w)
	})

	type datePath struct {
		Date string `path:"date" doc:"Local calendar date, YYYY-MM-DD" example:"2026-03-10"`
	}
	huma.Register(api, huma.Operation{
		OperationID: "usage-date",
		Method:      http.MethodGet,
		Path:        "/usage/date/{date}",
		Summary:     "Usage for one calendar day",
	}, func(ctx context.Context, input *datePath) (*usageOutput, error) {
		windows := svc.Windows()
		d, err := time.ParseInLocation(time.DateOnly, input.Date, windows.Location())
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid date "+input.Date+": want YYYY-MM-DD")
		}
		return query(ctx, windows.ForDate(d))
	})
}
